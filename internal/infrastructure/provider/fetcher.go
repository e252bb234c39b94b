// Package provider holds the HTTP plumbing shared by the product provider adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes bounds how much of a provider response is read
const maxBodyBytes = 1 << 20

// Options configures a Fetcher
type Options struct {
	Timeout         time.Duration
	UserAgent       string
	RequestsPerHour int // 0 disables client-side limiting
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// Response is a fully read provider response
type Response struct {
	StatusCode int
	Body       []byte
}

// Fetcher performs rate-limited GET requests against one provider
type Fetcher struct {
	name        string
	httpClient  *http.Client
	userAgent   string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewFetcher creates a fetcher for the named provider
func NewFetcher(name string, opts Options) *Fetcher {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "BarcodeLens/1.0"
	}

	return &Fetcher{
		name:        name,
		httpClient:  httpClient,
		userAgent:   userAgent,
		rateLimiter: newLimiter(opts.RequestsPerHour),
		logger:      logger.With("provider", name),
	}
}

// newLimiter converts an hourly budget into a token bucket with a burst of 10
func newLimiter(perHour int) *rate.Limiter {
	if perHour <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := 10
	if perHour < burst {
		burst = perHour
	}
	return rate.NewLimiter(rate.Limit(float64(perHour)/3600.0), burst)
}

// Logger returns the provider-scoped logger
func (f *Fetcher) Logger() *slog.Logger {
	return f.logger
}

// Get waits for the rate limiter, issues the request and reads the body.
// Any status code is returned to the caller; only transport failures are errors.
// logURL is logged in place of reqURL so secrets in query strings stay out of logs.
func (f *Fetcher) Get(ctx context.Context, reqURL, logURL string) (*Response, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = logURL
		}
		f.logger.Warn("Provider request failed", "url", logURL, "error", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	f.logger.Info("Provider call completed",
		"url", logURL,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
