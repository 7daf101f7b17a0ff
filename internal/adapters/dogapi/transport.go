package dogapi

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/pawmatch/internal/pkg/metrics"
)

const tracerName = "github.com/samirrijal/pawmatch/internal/adapters/dogapi"

// instrumentedTransport opens a client span and records request metrics
// for every upstream round trip.
type instrumentedTransport struct {
	next http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface.
func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path
	ctx, span := otel.Tracer(tracerName).Start(req.Context(), "dogapi "+req.Method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.path", endpoint),
			attribute.String("server.address", req.URL.Host),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}
