// Package ner provides a redact.Recognizer that calls the redact-ner Python
// sidecar (spaCy) over HTTP. Requests are spread round-robin over one or more
// sidecar instances. If a sidecar is unreachable the client logs a warning and
// returns no entities so the rest of the detectors can still run.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

// Client calls the sidecar's /classify endpoint.
type Client struct {
	urls    []string
	counter atomic.Uint64
	limiter *rate.Limiter
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithRate caps outgoing requests per second across all sidecars. Zero or
// negative leaves the client unlimited.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client for the given sidecar base URLs
// (e.g. "http://redact-ner:8001"). At least one URL is required.
func New(baseURLs []string, opts ...Option) (*Client, error) {
	var urls []string
	for _, u := range baseURLs {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u == "" {
			continue
		}
		urls = append(urls, u+"/classify")
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("ner: at least one sidecar URL is required")
	}
	c := &Client{
		urls: urls,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Info("ner: sidecar pool initialised", "sidecars", len(urls))
	return c, nil
}

// next returns the next sidecar URL. Safe for concurrent use.
func (c *Client) next() string {
	idx := c.counter.Add(1) - 1
	return c.urls[idx%uint64(len(c.urls))]
}

// Len returns the number of sidecars in the pool.
func (c *Client) Len() int { return len(c.urls) }

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Spans []redact.Entity `json:"spans"`
}

// Recognize sends text to a sidecar and returns its entity spans.
// It is safe for concurrent use.
func (c *Client) Recognize(ctx context.Context, text string) ([]redact.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ner: rate limit: %w", err)
		}
	}

	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	url := c.next()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("ner: sidecar unreachable, skipping entities", "url", url, "err", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("ner: unexpected status", "url", url, "code", resp.StatusCode)
		return nil, nil
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}
	return result.Spans, nil
}
