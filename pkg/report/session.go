package report

import (
	"context"
	"errors"
	"sync"
)

// InvalidFileTypeMessage is shown to the user for an unknown format.
const InvalidFileTypeMessage = "Invalid file type"

var (
	// ErrExportInProgress is returned when a session is asked to export
	// while an export is running.
	ErrExportInProgress = errors.New("export already in progress")
	// ErrSessionClosed is returned once a session has finished successfully.
	ErrSessionClosed = errors.New("export session is closed")
)

// State is the lifecycle position of an export session.
type State int

const (
	StateIdle State = iota
	StateExporting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailurePolicy decides what the session does with the caller's dialog
// when an export fails.
type FailurePolicy int

const (
	// KeepOpenOnFailure dismisses only after success; a failure is logged,
	// returned and leaves the dialog open for another attempt.
	KeepOpenOnFailure FailurePolicy = iota
	// DismissAndBubble dismisses as soon as the export is dispatched and
	// returns any failure to the caller.
	DismissAndBubble
)

func (p FailurePolicy) String() string {
	switch p {
	case KeepOpenOnFailure:
		return "keep-open-on-failure"
	case DismissAndBubble:
		return "dismiss-and-bubble"
	default:
		return "unknown"
	}
}

// PolicyFor returns the failure policy of a format.
func PolicyFor(f Format) FailurePolicy {
	if f == FormatDOCX {
		return DismissAndBubble
	}
	return KeepOpenOnFailure
}

// Hooks connect a session to the user interface driving it. Nil hooks are
// skipped.
type Hooks struct {
	// Dismiss closes the export dialog.
	Dismiss func()
	// Alert shows a message to the user.
	Alert func(message string)
}

// Session runs one user-initiated export: idle, exporting, then done or
// failed. A failed session whose dialog is still open may export again.
type Session struct {
	exporter *Exporter
	saver    Saver
	hooks    Hooks

	mu        sync.Mutex
	state     State
	dismissed bool
	err       error
}

// NewSession creates an idle session that saves artifacts with saver.
func NewSession(exporter *Exporter, saver Saver, hooks Hooks) *Session {
	return &Session{exporter: exporter, saver: saver, hooks: hooks}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error of the last failed export.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dismissed reports whether the dialog has been closed.
func (s *Session) Dismissed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dismissed
}

// Run exports rs in format and saves the artifact. An unknown format
// alerts the user, fails the session and dismisses the dialog without
// producing anything.
func (s *Session) Run(ctx context.Context, format string, rs *RecordSet) (*Artifact, error) {
	f, err := ParseFormat(format)
	if err != nil {
		if berr := s.begin(StateFailed, err); berr != nil {
			return nil, berr
		}
		s.alert(InvalidFileTypeMessage)
		s.dismiss()
		return nil, err
	}

	if err := s.begin(StateExporting, nil); err != nil {
		return nil, err
	}

	policy := PolicyFor(f)
	log := WithFields(Fields{"format": f, "policy": policy})
	if policy == DismissAndBubble {
		s.dismiss()
	}

	artifact, err := s.exporter.Export(ctx, string(f), rs)
	if err == nil && s.saver != nil {
		err = s.saver.Save(ctx, artifact)
	}

	if err != nil {
		s.fail(err)
		if policy == KeepOpenOnFailure {
			log.WithError(err).Error("Export failed, dialog stays open")
		}
		return nil, err
	}

	s.mu.Lock()
	s.state = StateDone
	s.err = nil
	s.mu.Unlock()

	if policy == KeepOpenOnFailure {
		s.dismiss()
	}
	return artifact, nil
}

// begin moves an idle or failed session to next.
func (s *Session) begin(next State, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == StateExporting:
		return ErrExportInProgress
	case s.state == StateDone || s.dismissed:
		return ErrSessionClosed
	}
	s.state = next
	s.err = err
	return nil
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()
}

func (s *Session) alert(msg string) {
	if s.hooks.Alert != nil {
		s.hooks.Alert(msg)
	}
}

func (s *Session) dismiss() {
	s.mu.Lock()
	already := s.dismissed
	s.dismissed = true
	s.mu.Unlock()

	if !already && s.hooks.Dismiss != nil {
		s.hooks.Dismiss()
	}
}
