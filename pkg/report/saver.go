package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Saver hands a finished artifact to its destination.
type Saver interface {
	Save(ctx context.Context, a *Artifact) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, a *Artifact) error

func (f SaverFunc) Save(ctx context.Context, a *Artifact) error {
	return f(ctx, a)
}

// DirSaver writes artifacts into a directory. The file appears under its
// final name only once it is completely written.
type DirSaver struct {
	Dir string
}

// Save writes a to a temporary file next to its destination and renames it.
func (s DirSaver) Save(ctx context.Context, a *Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+a.Name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(a.Data); err != nil {
		return cleanup(fmt.Errorf("failed to write %s: %w", a.Name, err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync %s: %w", a.Name, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", a.Name, err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, a.Name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to save %s: %w", a.Name, err)
	}

	WithFields(Fields{"file": a.Name, "dir": dir, "bytes": len(a.Data)}).Info("Report saved")
	return nil
}

// Path returns where Save puts a.
func (s DirSaver) Path(a *Artifact) string {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, a.Name)
}
