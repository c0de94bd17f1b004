// Package server exposes report exports over HTTP for the dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisenergy/go-report/pkg/report"
)

// TemplateAssetName is the file served from the assets directory.
const TemplateAssetName = "template.docx"

// RecordSource supplies records when an export request has no body.
type RecordSource interface {
	FetchRecordSet(ctx context.Context) (*report.RecordSet, error)
}

// Server routes export requests to an Exporter.
type Server struct {
	exporter  *report.Exporter
	source    RecordSource
	assetsDir string
	origin    string
	gatherer  prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithRecordSource lets requests without a body export live API data.
func WithRecordSource(src RecordSource) Option {
	return func(s *Server) { s.source = src }
}

// WithAssetsDir serves TemplateAssetName from dir.
func WithAssetsDir(dir string) Option {
	return func(s *Server) { s.assetsDir = dir }
}

// WithAllowedOrigin enables CORS for the dashboard at origin.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) { s.origin = origin }
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a server for exporter.
func New(exporter *report.Exporter, opts ...Option) *Server {
	s := &Server{
		exporter: exporter,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if s.origin != "" {
		r.Use(corsMiddleware(s.origin))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	if s.assetsDir != "" {
		r.GET("/assets/"+TemplateAssetName, s.TemplateAsset)
	}

	api := r.Group("/api")
	{
		api.POST("/exports/:format", s.Export)
	}
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		report.Info("Report server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	report.Info("Shutting down report server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Export renders the posted RecordSet, or live API data when the body is
// empty, and returns it as an attachment.
func (s *Server) Export(c *gin.Context) {
	format := c.Param("format")
	if _, err := report.ParseFormat(format); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": report.InvalidFileTypeMessage})
		return
	}

	rs, status, msg := s.records(c)
	if rs == nil {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	artifact, err := s.exporter.Export(c.Request.Context(), format, rs)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, artifact.Name))
	c.Header("X-Export-ID", artifact.ID)
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// records returns the RecordSet of the request, or the status and message
// to reject it with.
func (s *Server) records(c *gin.Context) (*report.RecordSet, int, string) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, http.StatusBadRequest, "Invalid request body"
	}

	if len(body) == 0 {
		if s.source == nil {
			return nil, http.StatusBadRequest, "Request body is required"
		}
		rs, err := s.source.FetchRecordSet(c.Request.Context())
		if err != nil {
			report.GetLogger().WithError(err).Error("Record source failed")
			return nil, http.StatusBadGateway, "Failed to fetch records"
		}
		return rs, http.StatusOK, ""
	}

	rs, err := report.ParseRecordSet(body)
	if err != nil {
		report.GetLogger().WithError(err).Warn("Rejected export request body")
		return nil, http.StatusBadRequest, "Invalid request body"
	}
	return rs, http.StatusOK, ""
}

// TemplateAsset serves the DOCX template from the assets directory.
func (s *Server) TemplateAsset(c *gin.Context) {
	path := filepath.Join(s.assetsDir, TemplateAssetName)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.Header("Content-Type", report.DocxContentType)
	c.File(path)
}

func statusOf(err error) int {
	switch {
	case report.IsFormatError(err):
		return http.StatusBadRequest
	case report.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case report.IsTemplateFetchError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
