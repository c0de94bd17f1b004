package report

import (
	"strings"
	"time"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

// DocxContentType is the MIME type of rendered DOCX reports.
const DocxContentType = ooxml.DocxContentType

// DOCXRenderer binds report data into a DOCX template.
type DOCXRenderer struct {
	now func() time.Time
}

// NewDOCXRenderer creates a renderer that dates reports with now. A nil
// now uses time.Now.
func NewDOCXRenderer(now func() time.Time) *DOCXRenderer {
	if now == nil {
		now = time.Now
	}
	return &DOCXRenderer{now: now}
}

// RenderDOCX renders rs into template with the current date.
func RenderDOCX(template []byte, rs *RecordSet) ([]byte, error) {
	return NewDOCXRenderer(nil).Render(template, rs)
}

// Render fills template with rs. Absent collections are treated as empty.
// It fails with a *RenderError: RenderInvalidTemplate when the bytes are
// not a DOCX archive, RenderTemplate when a tag cannot be rendered.
func (r *DOCXRenderer) Render(template []byte, rs *RecordSet) ([]byte, error) {
	if missing := rs.Missing(); len(missing) > 0 {
		Warn("Missing collections replaced with empty ones: %s", strings.Join(missing, ", "))
	}
	normalized := rs.Normalized()

	stats, err := ComputeSummaryAt(normalized, r.now())
	if err != nil {
		return nil, err
	}

	tpl, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}

	ctx := BindingContext(stats, normalized)
	GetLogger().WithField("parts", strings.Join(tpl.PartNames(), ",")).Debug("Rendering DOCX template")
	return tpl.Execute(ctx)
}

// BindingContext merges the summary metrics and the four collections into
// the data a template is rendered with. Records are keyed by their wire
// field names.
func BindingContext(stats *SummaryStats, rs *RecordSet) map[string]any {
	ctx := stats.Context()
	ctx[CollectionUsers] = userMaps(rs.Users)
	ctx[CollectionDevices] = deviceMaps(rs.Devices)
	ctx[CollectionReviews] = reviewMaps(rs.Reviews)
	ctx[CollectionFeedback] = feedbackMaps(rs.Feedback)
	return ctx
}
