// Package source reads the record collections a report is built from out
// of the dashboard API.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wisenergy/go-report/pkg/report"
)

// Client fetches collections from the dashboard API. Each collection is
// served as a JSON array at <base>/<collection>.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

// WithRateLimit allows rps requests per second with the given burst.
// A non-positive rps removes the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(cl *Client) {
		if rps <= 0 {
			cl.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		cl.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API base URL %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:    base,
		http:    &http.Client{},
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig creates a client from the API settings of cfg. One export
// may fetch every collection without waiting on the limiter.
func NewFromConfig(cfg *report.Config) (*Client, error) {
	return New(cfg.APIBaseURL,
		WithTimeout(cfg.APITimeout),
		WithRateLimit(cfg.APIRPS, len(report.Collections)),
	)
}

// FetchRecordSet fetches the four collections concurrently. A collection
// whose request or decoding fails is logged and left absent; only a
// canceled context fails the whole call.
func (c *Client) FetchRecordSet(ctx context.Context) (*report.RecordSet, error) {
	bodies := make([][]byte, len(report.Collections))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range report.Collections {
		g.Go(func() error {
			data, err := c.Fetch(gctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report.WithFields(report.Fields{"collection": name}).WithError(err).Error("Error fetching collection")
				return nil
			}
			bodies[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rs := &report.RecordSet{}
	for i, name := range report.Collections {
		if bodies[i] == nil {
			continue
		}
		if err := rs.SetCollection(name, bodies[i]); err != nil {
			report.WithFields(report.Fields{"collection": name}).WithError(err).Error("Error decoding collection")
		}
	}

	if missing := rs.Missing(); len(missing) > 0 {
		report.Warn("Record source returned no data for: %s", strings.Join(missing, ", "))
	}
	return rs, nil
}

// Fetch returns the raw body of one collection endpoint.
func (c *Client) Fetch(ctx context.Context, collection string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.base.JoinPath(collection).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: %s", endpoint, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", endpoint, err)
	}
	report.Debug("Fetched %s: %d bytes", collection, len(data))
	return data, nil
}
