package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func serveTemplate(status int, contentType string, body []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write(body)
	}))
}

func TestLoader_Load(t *testing.T) {
	docx := createDocx(t, para("{totalUsers}"), nil)

	tests := []struct {
		name        string
		status      int
		contentType string
		body        []byte
		wantErr     string
		wantStatus  int
	}{
		{
			name:        "valid archive",
			status:      http.StatusOK,
			contentType: DocxContentType,
			body:        docx,
		},
		{
			name:        "zip signature with generic type",
			status:      http.StatusOK,
			contentType: "application/octet-stream",
			body:        docx,
		},
		{
			name:        "docx type without zip signature",
			status:      http.StatusOK,
			contentType: DocxContentType,
			body:        []byte("not really a zip"),
		},
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       []byte("missing"),
			wantErr:    "failed to fetch DOCX template: 404 Not Found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:        "empty body",
			status:      http.StatusOK,
			contentType: DocxContentType,
			wantErr:     "fetched DOCX template is empty",
			wantStatus:  http.StatusOK,
		},
		{
			name:        "plain text",
			status:      http.StatusOK,
			contentType: "text/plain; charset=utf-8",
			body:        []byte("hello"),
			wantErr:     "Content-Type: text/plain",
			wantStatus:  http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serveTemplate(tt.status, tt.contentType, tt.body)
			defer server.Close()

			data, err := NewLoader().Load(context.Background(), server.URL+"/assets/template.docx")

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if string(data) != string(tt.body) {
					t.Error("Load() returned different bytes than served")
				}
				return
			}

			var fetchErr *TemplateFetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("expected TemplateFetchError, got %v", err)
			}
			if fetchErr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", fetchErr.Status, tt.wantStatus)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			if data != nil {
				t.Error("no bytes should be returned on failure")
			}
		})
	}
}

func TestLoader_LocalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "template.docx")
	docx := createDocx(t, para("{totalUsers}"), nil)
	if err := os.WriteFile(path, docx, 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader()

	data, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load(path) error = %v", err)
	}
	if len(data) != len(docx) {
		t.Errorf("Load(path) returned %d bytes, want %d", len(data), len(docx))
	}

	if _, err := loader.Load(context.Background(), "file://"+filepath.ToSlash(path)); err != nil {
		t.Errorf("Load(file URL) error = %v", err)
	}

	_, err = loader.Load(context.Background(), filepath.Join(dir, "missing.docx"))
	if !IsTemplateFetchError(err) {
		t.Errorf("expected TemplateFetchError for a missing file, got %v", err)
	}

	if _, err := loader.Load(context.Background(), ""); !IsTemplateFetchError(err) {
		t.Errorf("expected TemplateFetchError for an empty reference, got %v", err)
	}
}

func TestLoader_Cache(t *testing.T) {
	docx := createDocx(t, para("{totalUsers}"), nil)
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", DocxContentType)
		w.Write(docx)
	}))
	defer server.Close()

	loader := NewLoader(WithTemplateCache(NewTemplateCacheWithConfig(CacheConfig{MaxSize: 1})))
	for i := 0; i < 3; i++ {
		if _, err := loader.Load(context.Background(), server.URL); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("server was hit %d times, want 1", hits.Load())
	}
}

func TestLoader_ContextCanceled(t *testing.T) {
	server := serveTemplate(http.StatusOK, DocxContentType, []byte("PK"))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLoader().Load(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}
