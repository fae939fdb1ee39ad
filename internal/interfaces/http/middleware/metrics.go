package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/grndstats/backend/internal/infrastructure/telemetry"
)

// unmatchedRoute labels requests that hit no registered route, keeping the
// route label bounded.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	requestTotal    *telemetry.Counter
	requestDuration *telemetry.Histogram
	activeRequests  metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requestTotal, err := telemetry.NewCounter(meter,
		"http_server_request_total",
		"Total number of HTTP requests",
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := telemetry.NewDurationHistogram(meter,
		"http_server_request_duration_seconds",
		"HTTP request latency distribution in seconds",
		telemetry.HTTPDurationBuckets,
	)
	if err != nil {
		return nil, err
	}

	activeRequests, err := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		activeRequests:  activeRequests,
	}, nil
}

// HTTPMetrics records request count, latency and in-flight requests on
// meter. A nil meter or an instrument error yields a pass-through handler.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()
		method := attribute.String(string(telemetry.AttrHTTPMethod), c.Request.Method)

		m.activeRequests.Add(ctx, 1, metric.WithAttributes(method))
		defer m.activeRequests.Add(ctx, -1, metric.WithAttributes(method))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		status := c.Writer.Status()
		attrs := []attribute.KeyValue{
			method,
			telemetry.AttrHTTPRoute.String(route),
			telemetry.AttrHTTPStatus.Int(status),
			attribute.String("http.status_class", statusClass(status)),
		}
		m.requestTotal.Inc(ctx, attrs...)
		m.requestDuration.RecordDuration(ctx, time.Since(start), attrs...)
	}
}

// statusClass buckets a status code as "2xx", "4xx" etc.
func statusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "unknown"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}
