package report

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
)

// Loader fetches DOCX template assets. A reference is an http(s) URL, a
// file:// URL or a local path; every kind goes through one HTTP round trip.
type Loader struct {
	client *http.Client
	cache  *TemplateCache
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient replaces the client used for fetching. The client should
// handle the file scheme if local references are used.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithTemplateCache keeps fetched templates in c.
func WithTemplateCache(c *TemplateCache) LoaderOption {
	return func(l *Loader) { l.cache = c }
}

// WithFetchTimeout bounds each fetch. Zero leaves it to the transport.
func WithFetchTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.client.Timeout = d }
}

// NewLoader creates a loader whose client serves file:// references from
// the local filesystem.
func NewLoader(opts ...LoaderOption) *Loader {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))

	l := &Loader{client: &http.Client{Transport: transport}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the template at ref and checks that it looks like a DOCX
// archive. It fails with a *TemplateFetchError on a non-2xx status, an
// empty body, or content that neither carries the DOCX content type nor
// starts with the ZIP signature. There is no retry.
func (l *Loader) Load(ctx context.Context, ref string) ([]byte, error) {
	if data, ok := l.cache.Get(ref); ok {
		Debug("Template %s served from cache", ref)
		return data, nil
	}

	target, err := resolveRef(ref)
	if err != nil {
		return nil, NewTemplateFetchError(ref, 0, "", "invalid reference", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, NewTemplateFetchError(ref, 0, "", "invalid request", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, NewTemplateFetchError(ref, 0, "", "request failed", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	log := WithFields(Fields{"ref": ref, "status": resp.StatusCode, "content_type": contentType})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewTemplateFetchError(ref, resp.StatusCode, contentType,
			"failed to fetch DOCX template: "+resp.Status, nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTemplateFetchError(ref, resp.StatusCode, contentType, "failed to read body", err)
	}

	if len(data) == 0 {
		return nil, NewTemplateFetchError(ref, resp.StatusCode, contentType, "fetched DOCX template is empty", nil)
	}

	detected := mimetype.Detect(data)
	log = log.WithField("detected", detected.String()).WithField("bytes", len(data))

	if !ooxml.HasZipMagic(data) && !strings.Contains(contentType, ooxml.DocxContentType) {
		return nil, NewTemplateFetchError(ref, resp.StatusCode, contentType,
			"fetched file is not a valid DOCX file", nil)
	}

	if !detected.Is(ooxml.DocxContentType) {
		log.Warn("Template content does not look like a DOCX document")
	} else {
		log.Debug("Template fetched")
	}

	l.cache.Set(ref, data)
	return data, nil
}

// resolveRef turns a bare path into a file:// URL and passes URLs through.
func resolveRef(ref string) (string, error) {
	if strings.TrimSpace(ref) == "" {
		return "", fmt.Errorf("empty template reference")
	}

	if u, err := url.Parse(ref); err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https", "file":
			return ref, nil
		}
	}

	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
