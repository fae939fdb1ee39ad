// Package upstream contains the HTTP clients for the third-party data
// providers: the Airstack identity graph, the Dune warehouse and the Pinata
// Farcaster hub.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/infrastructure/telemetry"
)

// maxResponseSize caps upstream response bodies (10MB)
const maxResponseSize = 10 * 1024 * 1024

const defaultTimeout = 15 * time.Second

// Client is the HTTP transport shared by the provider clients. It bounds
// every call with a timeout, optionally rate limits, caps the response size
// and reports failures as *shared.UpstreamError.
type Client struct {
	service    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	headers    http.Header
	logger     *zap.Logger
	duration   *telemetry.Histogram
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithTimeout bounds each request
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit allows rps requests per second with the given burst. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithHeader adds a header to every request
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMeter records request latency on meter
func WithMeter(meter metric.Meter) ClientOption {
	return func(c *Client) {
		c.duration, _ = telemetry.NewDurationHistogram(meter, "upstream_request_duration_seconds",
			"Latency of calls to third-party data providers", telemetry.UpstreamDurationBuckets)
	}
}

// NewClient creates a Client for service
func NewClient(service string, opts ...ClientOption) *Client {
	c := &Client{
		service:    service,
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		headers:    make(http.Header),
		logger:     zap.NewNop(),
	}
	WithMeter(noop.NewMeterProvider().Meter("upstream"))(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the provider name used in errors and metrics
func (c *Client) Service() string {
	return c.service
}

// GetJSON issues a GET and returns the raw response body
func (c *Client) GetJSON(ctx context.Context, op, url string) ([]byte, error) {
	return c.do(ctx, op, http.MethodGet, url, nil)
}

// PostJSON marshals payload, POSTs it and returns the raw response body
func (c *Client) PostJSON(ctx context.Context, op, url string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, shared.NewUpstreamError(c.service, op, 0, fmt.Errorf("encode request: %w", err))
	}
	return c.do(ctx, op, http.MethodPost, url, body)
}

func (c *Client) do(ctx context.Context, op, method, url string, body []byte) (_ []byte, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, c.service+"."+op,
		telemetry.AttrService.String(c.service),
		telemetry.AttrOperation.String(op),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, shared.NewUpstreamError(c.service, op, 0, fmt.Errorf("rate limit wait: %w", err))
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, shared.NewUpstreamError(c.service, op, 0, fmt.Errorf("create request: %w", err))
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.duration.RecordDuration(ctx, time.Since(start),
		telemetry.AttrService.String(c.service),
		telemetry.AttrOperation.String(op),
		telemetry.AttrStatus.Int(status),
	)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("service", c.service), zap.String("op", op), zap.Error(err))
		return nil, shared.NewUpstreamError(c.service, op, 0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, shared.NewUpstreamError(c.service, op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("Upstream returned error status",
			zap.String("service", c.service),
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(respBody, 512)),
		)
		return nil, shared.NewUpstreamError(c.service, op, resp.StatusCode,
			fmt.Errorf("unexpected status %s", http.StatusText(resp.StatusCode)))
	}

	c.logger.Debug("Upstream request completed",
		zap.String("service", c.service),
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return respBody, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
