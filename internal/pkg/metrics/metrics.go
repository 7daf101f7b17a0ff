package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pawmatch",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pawmatch",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Upstream dog API metrics
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total requests sent to the dog adoption API",
	}, []string{"endpoint", "status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pawmatch",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Latency of dog adoption API requests",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"endpoint"})

	// Domain metrics
	FavoriteToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "favorites",
		Name:      "toggles_total",
		Help:      "Total favorite toggles",
	}, []string{"action"})

	FavoritePersistErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "favorites",
		Name:      "persist_errors_total",
		Help:      "Favorites writes rejected by the backing store",
	}, []string{"backend"})

	MatchesMade = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "match",
		Name:      "made_total",
		Help:      "Total matches generated",
	})

	BoundsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "geo",
		Name:      "bounds_computed_total",
		Help:      "Total nearby bounding boxes computed",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawmatch",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawmatch",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawmatch",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pawmatch",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})

	DBPoolEmptyAcquires = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "db",
		Name:      "pool_empty_acquires_total",
		Help:      "Total times a connection had to be established when acquiring from pool",
	})

	DBPoolAcquires = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "db",
		Name:      "pool_acquires_total",
		Help:      "Total successful connection acquisitions from pool",
	})

	DBPoolAcquireSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pawmatch",
		Subsystem: "db",
		Name:      "pool_acquire_duration_seconds_total",
		Help:      "Total time spent acquiring connections from pool",
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// PoolStat is the part of pgxpool.Stat the pool collectors read.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	EmptyAcquireCount() int64
	AcquireCount() int64
	AcquireDuration() time.Duration
}

// PoolReporter copies pool snapshots into the pool collectors. pgx keeps
// running totals, so the counters are advanced by the change since the
// previous snapshot. A total that goes backwards (a new pool) is taken as
// a fresh start.
type PoolReporter struct {
	emptyAcquires   int64
	acquires        int64
	acquireDuration time.Duration
}

// Report records s.
func (r *PoolReporter) Report(s PoolStat) {
	DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
	DBPoolConnsIdle.Set(float64(s.IdleConns()))
	DBPoolConnsOpen.Set(float64(s.TotalConns()))

	DBPoolEmptyAcquires.Add(float64(advance(&r.emptyAcquires, s.EmptyAcquireCount())))
	DBPoolAcquires.Add(float64(advance(&r.acquires, s.AcquireCount())))

	d := s.AcquireDuration()
	delta := d - r.acquireDuration
	if delta < 0 {
		delta = d
	}
	r.acquireDuration = d
	DBPoolAcquireSeconds.Add(delta.Seconds())
}

func advance(last *int64, total int64) int64 {
	delta := total - *last
	if delta < 0 {
		delta = total
	}
	*last = total
	return delta
}
