package report

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationIssue represents a single validation problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError reports a RecordSet that is missing required collections.
// It is raised before any rendering work starts.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d validation issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

// TemplateFetchError reports a template asset that could not be retrieved
// or does not look like a DOCX archive.
type TemplateFetchError struct {
	Ref         string
	Status      int
	ContentType string
	Message     string
	Cause       error
}

func (e *TemplateFetchError) Error() string {
	contentType := e.ContentType
	if contentType == "" {
		contentType = "none"
	}

	msg := fmt.Sprintf("template fetch error for '%s': %s (status: %d, Content-Type: %s)",
		e.Ref, e.Message, e.Status, contentType)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TemplateFetchError) Unwrap() error {
	return e.Cause
}

// NewTemplateFetchError creates a new template fetch error
func NewTemplateFetchError(ref string, status int, contentType, message string, cause error) error {
	return &TemplateFetchError{
		Ref:         ref,
		Status:      status,
		ContentType: contentType,
		Message:     message,
		Cause:       cause,
	}
}

// RenderErrorKind tells which stage of rendering failed.
type RenderErrorKind int

const (
	// RenderLayout is a failure while drawing the PDF report.
	RenderLayout RenderErrorKind = iota
	// RenderInvalidTemplate means the template bytes are not a usable DOCX archive.
	RenderInvalidTemplate
	// RenderTemplate is a failure while substituting placeholders.
	RenderTemplate
)

func (k RenderErrorKind) String() string {
	switch k {
	case RenderLayout:
		return "layout"
	case RenderInvalidTemplate:
		return "invalid-template"
	case RenderTemplate:
		return "template"
	default:
		return "unknown"
	}
}

// RenderError wraps a failure inside one of the renderers.
type RenderError struct {
	Kind  RenderErrorKind
	Cause error
}

func (e *RenderError) Error() string {
	var prefix string
	switch e.Kind {
	case RenderInvalidTemplate:
		prefix = "invalid template"
	case RenderTemplate:
		prefix = "template render failed"
	default:
		prefix = "pdf render failed"
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Cause)
	}
	return prefix
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a new render error
func NewRenderError(kind RenderErrorKind, cause error) error {
	return &RenderError{
		Kind:  kind,
		Cause: cause,
	}
}

// TemplateError represents an error in the template structure or syntax
type TemplateError struct {
	Message string
	Tag     string
	Part    string
}

func (e *TemplateError) Error() string {
	var where []string
	if e.Part != "" {
		where = append(where, "in "+e.Part)
	}
	if e.Tag != "" {
		where = append(where, "near "+e.Tag)
	}

	if len(where) > 0 {
		return fmt.Sprintf("template error %s: %s", strings.Join(where, " "), e.Message)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

// NewTemplateError creates a new template error
func NewTemplateError(message, tag string) error {
	return &TemplateError{
		Message: message,
		Tag:     tag,
	}
}

// FormatError reports an export format other than pdf or docx.
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid file type %q", e.Format)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTemplateFetchError checks if an error is a template fetch error
func IsTemplateFetchError(err error) bool {
	var target *TemplateFetchError
	return errors.As(err, &target)
}

// IsRenderError checks if an error is a render error
func IsRenderError(err error) bool {
	var target *RenderError
	return errors.As(err, &target)
}

// IsTemplateError checks if an error is a template error
func IsTemplateError(err error) bool {
	var target *TemplateError
	return errors.As(err, &target)
}

// IsFormatError checks if an error is a format error
func IsFormatError(err error) bool {
	var target *FormatError
	return errors.As(err, &target)
}

// RenderErrorKindOf returns the kind of the first RenderError in err's chain.
func RenderErrorKindOf(err error) (RenderErrorKind, bool) {
	var target *RenderError
	if errors.As(err, &target) {
		return target.Kind, true
	}
	return 0, false
}

// RecoverError converts a panic recovery value to an error
func RecoverError(r interface{}) error {
	switch v := r.(type) {
	case error:
		return fmt.Errorf("panic recovered: %w", v)
	case string:
		return fmt.Errorf("panic recovered: %s", v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}
