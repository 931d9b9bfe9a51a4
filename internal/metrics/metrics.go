// Package metrics provides Prometheus instrumentation for the farm service.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts successful farm operations, partitioned by event kind.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farm_operations_total",
		Help: "Total number of successful farm operations",
	}, []string{"kind"})

	// OperationLatency tracks farm call latency as seen by the HTTP layer.
	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farm_operation_latency_seconds",
		Help:    "Farm operation latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	// Rejections counts farm calls that failed a precondition.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farm_rejections_total",
		Help: "Farm operations rejected, by reason",
	}, []string{"op", "reason"})

	// TotalStaked tracks the principal staked across all users, in token units.
	TotalStaked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "farm_total_staked",
		Help: "Principal currently staked, in token units",
	})

	// RewardRate tracks the emission rate, in token units per second.
	RewardRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "farm_reward_rate",
		Help: "Reward tokens emitted per second",
	})

	// RewardPool tracks reward tokens held by the farm.
	RewardPool = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "farm_reward_pool",
		Help: "Reward tokens held by the farm, in token units",
	})

	// RewardsPaid counts reward tokens paid out by claims and unstakes.
	RewardsPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farm_rewards_paid_total",
		Help: "Cumulative reward tokens paid out, in token units",
	})

	// StoreFailures counts events that could not be persisted.
	StoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "farm_store_failures_total",
		Help: "Committed farm events that failed to persist",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "farm_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "farm_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farm_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	return h.Hijack()
}
