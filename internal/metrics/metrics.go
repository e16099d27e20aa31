package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "starterpacks"

var (
	// httpRequests counts served requests.
	// Labels: method, route (the gin route pattern), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	// httpLatency measures request handling time.
	// Labels: method, route
	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	// storeLatency measures document store operations.
	// Labels: op (e.g. packs.search), outcome (ok, not_found, timeout, error)
	storeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "op_duration_seconds",
		Help:      "Document store operation latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op", "outcome"})

	// cacheLookups counts cache hits and misses.
	// Labels: cache (stats, labels), result (hit, miss, error)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by cache and result",
	}, []string{"cache", "result"})

	// joinLookupIDs tracks batched relationship lookups and the ids they carry.
	// Labels: relation (creators, members, member_packs, created_packs)
	joinLookupIDs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "join",
		Name:      "lookup_ids",
		Help:      "Distinct ids per batched relationship lookup",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"relation"})
)

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveStoreOp records one store operation started at start.
func ObserveStoreOp(op string, start time.Time, err error, notFound error) {
	outcome := "ok"
	switch {
	case err == nil:
	case notFound != nil && errors.Is(err, notFound):
		outcome = "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	default:
		outcome = "error"
	}
	storeLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// CacheHit, CacheMiss and CacheError record cache lookups.
func CacheHit(cache string)   { cacheLookups.WithLabelValues(cache, "hit").Inc() }
func CacheMiss(cache string)  { cacheLookups.WithLabelValues(cache, "miss").Inc() }
func CacheError(cache string) { cacheLookups.WithLabelValues(cache, "error").Inc() }

// ObserveJoin records the size of one batched relationship lookup.
func ObserveJoin(relation string, ids int) {
	joinLookupIDs.WithLabelValues(relation).Observe(float64(ids))
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
