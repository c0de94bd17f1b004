package report

import (
	"strings"
	"time"
)

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// ParseFormat accepts exactly "pdf" or "docx".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatDOCX:
		return Format(s), nil
	default:
		return "", &FormatError{Format: s}
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of documents in this format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return PDFContentType
	case FormatDOCX:
		return DocxContentType
	default:
		return "application/octet-stream"
	}
}

// timestampLayout is ISO-8601 in UTC with milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z"

var timestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// FileTimestamp formats t as a filesystem-safe UTC timestamp, for example
// 2025-09-27T14-03-12-345Z.
func FileTimestamp(t time.Time) string {
	return timestampReplacer.Replace(t.UTC().Format(timestampLayout))
}

// ArtifactName builds <product>_analytics_report_<timestamp>.<ext>.
func ArtifactName(product string, f Format, t time.Time) string {
	return product + "_analytics_report_" + FileTimestamp(t) + "." + f.Extension()
}

// Artifact is a rendered report ready to be saved.
type Artifact struct {
	ID          string
	Name        string
	Format      Format
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
