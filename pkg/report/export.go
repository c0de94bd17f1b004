package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans started by the exporter.
const TracerName = "github.com/wisenergy/go-report"

// Export outcomes recorded in metrics.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalidFormat   = "invalid_format"
	OutcomeValidationError = "validation_error"
	OutcomeFetchError      = "fetch_error"
	OutcomeRenderError     = "render_error"
	OutcomeError           = "error"
)

// Metrics counts exports and measures how long they take.
type Metrics struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the export metrics and registers them with reg when
// it is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_exports_total",
			Help: "Report exports by format and outcome.",
		}, []string{"format", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "report_export_duration_seconds",
			Help:    "Time spent producing a report.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.exports, m.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(format, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, outcome).Inc()
	m.duration.WithLabelValues(format).Observe(elapsed.Seconds())
}

// Exporter produces report artifacts in either format.
type Exporter struct {
	product     string
	templateRef string
	loader      *Loader
	pdfOpts     PDFOptions
	pdf         *PDFRenderer
	docx        *DOCXRenderer
	now         func() time.Time
	tracer      trace.Tracer
	metrics     *Metrics
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithProductName sets the artifact name prefix.
func WithProductName(name string) ExporterOption {
	return func(e *Exporter) { e.product = name }
}

// WithTemplateRef sets where the DOCX template is fetched from.
func WithTemplateRef(ref string) ExporterOption {
	return func(e *Exporter) { e.templateRef = ref }
}

// WithLoader replaces the template loader.
func WithLoader(l *Loader) ExporterOption {
	return func(e *Exporter) { e.loader = l }
}

// WithPDFOptions replaces the PDF rendering options.
func WithPDFOptions(opts PDFOptions) ExporterOption {
	return func(e *Exporter) { e.pdfOpts = opts }
}

// WithClock sets the time source for report dates and artifact names.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) { e.now = now }
}

// WithTracer replaces the OpenTelemetry tracer.
func WithTracer(t trace.Tracer) ExporterOption {
	return func(e *Exporter) { e.tracer = t }
}

// WithMetrics records every export in m.
func WithMetrics(m *Metrics) ExporterOption {
	return func(e *Exporter) { e.metrics = m }
}

// NewExporter creates an exporter. Defaults come from the global configuration.
func NewExporter(opts ...ExporterOption) *Exporter {
	cfg := GetGlobalConfig()
	e := &Exporter{
		product:     cfg.ProductName,
		templateRef: cfg.TemplateURL,
		pdfOpts:     PDFOptions{Compress: true},
		now:         time.Now,
		tracer:      otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.loader == nil {
		e.loader = NewLoader(WithFetchTimeout(cfg.FetchTimeout))
	}
	if e.pdfOpts.Now == nil {
		e.pdfOpts.Now = e.now
	}
	e.pdf = NewPDFRenderer(e.pdfOpts)
	e.docx = NewDOCXRenderer(e.now)
	return e
}

// NewExporterFromConfig creates an exporter with a loader and template
// cache built from cfg.
func NewExporterFromConfig(cfg *Config, opts ...ExporterOption) *Exporter {
	cache := NewTemplateCacheWithConfig(CacheConfig{MaxSize: cfg.TemplateCacheSize, TTL: cfg.TemplateCacheTTL})
	base := []ExporterOption{
		WithProductName(cfg.ProductName),
		WithTemplateRef(cfg.TemplateURL),
		WithLoader(NewLoader(WithFetchTimeout(cfg.FetchTimeout), WithTemplateCache(cache))),
	}
	return NewExporter(append(base, opts...)...)
}

// Export renders rs in the requested format. An unknown format fails with
// a *FormatError before any work is done.
func (e *Exporter) Export(ctx context.Context, format string, rs *RecordSet) (*Artifact, error) {
	id := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "report.Export", trace.WithAttributes(
		attribute.String("report.export_id", id),
		attribute.String("report.format", format),
	))
	defer span.End()

	start := e.now()
	log := WithFields(Fields{"export_id": id, "format": format})

	f, err := ParseFormat(format)
	if err != nil {
		e.finish(span, "invalid", OutcomeInvalidFormat, start, err)
		log.Warn("Rejected export: %v", err)
		return nil, err
	}

	log.Info("Export started")
	var data []byte
	switch f {
	case FormatPDF:
		data, err = e.pdf.Render(rs)
	case FormatDOCX:
		data, err = e.renderDOCX(ctx, rs)
	}

	if err != nil {
		e.finish(span, string(f), outcomeOf(err), start, err)
		log.WithError(err).Error("Export failed")
		return nil, fmt.Errorf("failed to generate %s report: %w", f, err)
	}

	created := e.now()
	artifact := &Artifact{
		ID:          id,
		Name:        ArtifactName(e.product, f, created),
		Format:      f,
		ContentType: f.ContentType(),
		Data:        data,
		CreatedAt:   created,
	}

	span.SetAttributes(attribute.Int("report.bytes", len(data)), attribute.String("report.file", artifact.Name))
	e.finish(span, string(f), OutcomeSuccess, start, nil)
	log.WithFields(Fields{"file": artifact.Name, "bytes": len(data)}).Info("Export finished")
	return artifact, nil
}

func (e *Exporter) renderDOCX(ctx context.Context, rs *RecordSet) ([]byte, error) {
	template, err := e.loader.Load(ctx, e.templateRef)
	if err != nil {
		return nil, err
	}
	return e.docx.Render(template, rs)
}

func (e *Exporter) finish(span trace.Span, format, outcome string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("report.outcome", outcome))
	e.metrics.observe(format, outcome, e.now().Sub(start))
}

func outcomeOf(err error) string {
	switch {
	case IsValidationError(err):
		return OutcomeValidationError
	case IsTemplateFetchError(err):
		return OutcomeFetchError
	case IsRenderError(err):
		return OutcomeRenderError
	default:
		return OutcomeError
	}
}
