package ooxml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/klauspost/compress/zip"
)

const (
	// MainDocumentPart holds the document body.
	MainDocumentPart = "word/document.xml"

	// DocxContentType is the MIME type of a wordprocessing document.
	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// ZipMagic is the signature every ZIP local file header starts with.
	ZipMagic = "PK"
)

var (
	// ErrNotArchive is returned when bytes do not parse as a ZIP archive.
	ErrNotArchive = errors.New("not a valid ZIP archive")
	// ErrPartNotFound is returned when a named part is missing.
	ErrPartNotFound = errors.New("part not found")

	headerFooterPart = regexp.MustCompile(`^word/(header|footer)\d+\.xml$`)
)

// Archive is an OOXML package viewed as a set of named parts.
type Archive interface {
	// Parts lists part names in archive order.
	Parts() []string
	// ReadPart returns the current content of a part.
	ReadPart(name string) ([]byte, error)
	// ReplacePart sets the content of a part, adding it if missing.
	ReplacePart(name string, content []byte) error
	// Bytes re-serializes the archive.
	Bytes() ([]byte, error)
}

// ZipArchive is an Archive backed by an in-memory ZIP file.
type ZipArchive struct {
	order    []string
	files    map[string]*zip.File
	replaced map[string][]byte
}

// HasZipMagic reports whether data starts with the ZIP signature.
func HasZipMagic(data []byte) bool {
	return bytes.HasPrefix(data, []byte(ZipMagic))
}

// OpenZip opens data as a ZIP archive.
func OpenZip(data []byte) (*ZipArchive, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrNotArchive)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}

	za := &ZipArchive{
		files:    make(map[string]*zip.File, len(zr.File)),
		replaced: make(map[string][]byte),
	}
	for _, f := range zr.File {
		if _, dup := za.files[f.Name]; dup {
			continue
		}
		za.order = append(za.order, f.Name)
		za.files[f.Name] = f
	}
	return za, nil
}

// OpenDocx opens data as a ZIP archive and checks that it carries a main
// document part.
func OpenDocx(data []byte) (*ZipArchive, error) {
	za, err := OpenZip(data)
	if err != nil {
		return nil, err
	}
	if !za.Has(MainDocumentPart) {
		return nil, fmt.Errorf("%w: missing %s", ErrNotArchive, MainDocumentPart)
	}
	return za, nil
}

// Has reports whether the archive holds a part with the given name.
func (za *ZipArchive) Has(name string) bool {
	if _, ok := za.replaced[name]; ok {
		return true
	}
	_, ok := za.files[name]
	return ok
}

// Parts implements Archive.
func (za *ZipArchive) Parts() []string {
	parts := make([]string, len(za.order))
	copy(parts, za.order)
	return parts
}

// ReadPart implements Archive.
func (za *ZipArchive) ReadPart(name string) ([]byte, error) {
	if content, ok := za.replaced[name]; ok {
		return content, nil
	}

	f, ok := za.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open part %s: %w", name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read part %s: %w", name, err)
	}
	return content, nil
}

// ReplacePart implements Archive.
func (za *ZipArchive) ReplacePart(name string, content []byte) error {
	if name == "" {
		return errors.New("part name cannot be empty")
	}
	if !za.Has(name) {
		za.order = append(za.order, name)
	}
	za.replaced[name] = content
	return nil
}

// Bytes implements Archive. Untouched parts are copied through unchanged.
func (za *ZipArchive) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	for _, name := range za.order {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if f, ok := za.files[name]; ok {
			header.Method = f.Method
			header.Modified = f.Modified
		}

		fw, err := w.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", name, err)
		}

		if content, ok := za.replaced[name]; ok {
			if _, err := fw.Write(content); err != nil {
				return nil, fmt.Errorf("failed to write %s: %w", name, err)
			}
			continue
		}

		fr, err := za.files[name].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		_, err = io.Copy(fw, fr)
		fr.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// TemplateParts returns the parts of a DOCX archive that carry renderable
// text: the main document, then headers and footers in archive order.
func TemplateParts(a Archive) []string {
	parts := []string{MainDocumentPart}
	for _, name := range a.Parts() {
		if headerFooterPart.MatchString(name) {
			parts = append(parts, name)
		}
	}
	return parts
}
