package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/wisenergy/go-report/pkg/report/layout"
)

const (
	// PDFContentType is the MIME type of rendered PDF reports.
	PDFContentType = "application/pdf"
	// ReportTitle heads the first page of the PDF report.
	ReportTitle = "WisEnergy Analytics Report"
)

// Page geometry of the PDF report, in millimetres.
const (
	pdfLeft       = 20.0
	pdfTitleY     = 20.0
	pdfSummaryY   = 30.0
	pdfLineGap    = 10.0
	pdfTableStart = 80.0
	pdfTableGap   = 10.0
	pdfFontFamily = "helvetica"
	pdfFontSize   = 12.0
)

// PDFOptions controls PDF rendering.
type PDFOptions struct {
	// Title is drawn at the top of the first page.
	Title string
	// Compress enables stream compression. Disabling it keeps page content
	// readable in the output bytes.
	Compress bool
	// Style is applied to the three data tables.
	Style layout.Style
	// Now supplies the report date. Defaults to time.Now.
	Now func() time.Time
}

// DefaultPDFOptions returns the options used by RenderPDF.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Title:    ReportTitle,
		Compress: true,
		Style:    layout.DefaultStyle(),
		Now:      time.Now,
	}
}

// PDFRenderer lays out the analytics report as a paginated PDF.
type PDFRenderer struct {
	opts PDFOptions
}

// NewPDFRenderer creates a renderer; zero option fields take their defaults.
func NewPDFRenderer(opts PDFOptions) *PDFRenderer {
	def := DefaultPDFOptions()
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.Style.FontFamily == "" {
		opts.Style = def.Style
	}
	if opts.Now == nil {
		opts.Now = def.Now
	}
	return &PDFRenderer{opts: opts}
}

// RenderPDF renders rs with the default options.
func RenderPDF(rs *RecordSet) ([]byte, error) {
	return NewPDFRenderer(DefaultPDFOptions()).Render(rs)
}

// Render validates rs and lays out the report. Users, devices and feedback
// are required; absent reviews count as none. The whole document is built
// in memory and no bytes are returned on failure.
func (r *PDFRenderer) Render(rs *RecordSet) (out []byte, err error) {
	if err := validateForPDF(rs); err != nil {
		return nil, err
	}

	normalized := *rs
	if normalized.Reviews == nil {
		normalized.Reviews = []Review{}
	}

	stats, err := ComputeSummaryAt(&normalized, r.opts.Now())
	if err != nil {
		return nil, err
	}

	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, NewRenderError(RenderLayout, RecoverError(rec))
		}
	}()

	data, err := r.draw(&normalized, stats)
	if err != nil {
		return nil, NewRenderError(RenderLayout, err)
	}
	return data, nil
}

func validateForPDF(rs *RecordSet) error {
	if rs == nil {
		return missingCollectionsError([]string{CollectionUsers, CollectionDevices, CollectionFeedback})
	}

	var missing []string
	for _, name := range rs.Missing() {
		if name != CollectionReviews {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return missingCollectionsError(missing)
	}
	return nil
}

func (r *PDFRenderer) draw(rs *RecordSet, stats *SummaryStats) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.opts.Compress)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(r.opts.Title, true)
	pdf.SetCreator("go-report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "", pdfFontSize)
	pdf.Text(pdfLeft, pdfTitleY, tr(r.opts.Title))

	summary := []string{
		"Summary as of: " + stats.ReportDate,
		fmt.Sprintf("Total Users: %d", stats.TotalUsers),
		fmt.Sprintf("Total Devices: %d", stats.TotalDevices),
		"Average Rating: " + stats.AverageRating.String(),
		fmt.Sprintf("Total Feedback: %d", stats.TotalFeedback),
	}
	for i, line := range summary {
		pdf.Text(pdfLeft, pdfSummaryY+float64(i)*pdfLineGap, tr(line))
	}

	tables := []struct {
		name  string
		table layout.Table
	}{
		{CollectionUsers, layout.Table{Columns: UserColumns, Rows: UserRows(rs.Users), Translate: tr}},
		{CollectionDevices, layout.Table{Columns: DeviceColumns, Rows: DeviceRows(rs.Devices), Translate: tr}},
		{CollectionFeedback, layout.Table{Columns: FeedbackColumns, Rows: FeedbackRows(rs.Feedback), Translate: tr}},
	}

	y := pdfTableStart
	for _, t := range tables {
		res, err := layout.Draw(pdf, t.table, y, r.opts.Style)
		if err != nil {
			return nil, fmt.Errorf("%s table: %w", t.name, err)
		}
		Debug("Drew %s table: %d rows, final y %.1f, %d page breaks", t.name, len(t.table.Rows), res.FinalY, res.Pages)
		y = res.FinalY + pdfTableGap
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
