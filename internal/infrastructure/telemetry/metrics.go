package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counter wraps an Int64Counter.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a counter on meter.
func NewCounter(meter metric.Meter, name, description string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Inc adds one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	if c == nil {
		return
	}
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram wraps a Float64Histogram recording seconds.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewDurationHistogram creates a histogram in seconds with the given buckets.
func NewDurationHistogram(meter metric.Meter, name, description string, buckets []float64) (*Histogram, error) {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(description),
		metric.WithUnit("s"),
	}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := meter.Float64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return &Histogram{histogram: h}, nil
}

// RecordDuration records d in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	if h == nil {
		return
	}
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// Attribute keys shared by the service's instruments.
var (
	AttrCache      = attribute.Key("cache")
	AttrResult     = attribute.Key("result")
	AttrService    = attribute.Key("upstream.service")
	AttrOperation  = attribute.Key("upstream.operation")
	AttrStatus     = attribute.Key("upstream.status_code")
	AttrHTTPRoute  = attribute.Key("http.route")
	AttrHTTPMethod = attribute.Key("http.request.method")
	AttrHTTPStatus = attribute.Key("http.response.status_code")
)

// UpstreamDurationBuckets cover third-party API latencies in seconds.
var UpstreamDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// HTTPDurationBuckets cover API request latencies in seconds.
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25}
