package harvest

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
)

const (
	metadataStartTime = "start_time"
	kindTransport     = "transport"
)

// MetricsCollector records Prometheus metrics for every request made by a client.
// It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	factory := promauto.With(registry)

	return &MetricsCollector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "requests_total",
				Help:      "Total number of Harvest API requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of Harvest API requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: constants.MetricsNamespace,
				Name:      "errors_total",
				Help:      "Total number of failed Harvest API requests by error kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordRequest records one completed request.
func (m *MetricsCollector) RecordRequest(method, rawURL string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}

	endpoint := EndpointLabel(rawURL)
	m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordError counts a failure under the kind of err.
func (m *MetricsCollector) RecordError(err error) {
	if m == nil || err == nil {
		return
	}

	kind := kindTransport

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		kind = httpErr.Kind.String()
	}

	m.errorsTotal.WithLabelValues(kind).Inc()
}

// RequestInterceptor stores the start time of a request.
func (m *MetricsCollector) RequestInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Metadata == nil {
			req.Metadata = make(map[string]interface{})
		}

		req.Metadata[metadataStartTime] = time.Now()

		return nil
	}
}

// ResponseInterceptor records the outcome of a request.
func (m *MetricsCollector) ResponseInterceptor() ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		var duration time.Duration

		if startTime, ok := req.Metadata[metadataStartTime].(time.Time); ok {
			duration = time.Since(startTime)
		}

		m.RecordRequest(req.Method, req.URL, resp.StatusCode, duration)
		m.RecordError(resp.Error)

		return nil
	}
}

// EndpointLabel reduces a URL to its path with numeric segments replaced by ":id".
func EndpointLabel(rawURL string) string {
	path := rawURL

	parsed, err := url.Parse(rawURL)
	if err == nil {
		path = parsed.Path
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment == "" {
			continue
		}

		if _, err := strconv.ParseUint(segment, 10, 64); err == nil {
			segments[i] = constants.MetricsIDPlaceholder
		}
	}

	return strings.Join(segments, "/")
}
