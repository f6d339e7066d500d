package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and operation",
		},
		[]string{"provider", "operation"},
	)
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider", "operation"},
	)

	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cache_hits_total",
			Help: "Total number of scoring results served from cache",
		},
	)
	CacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "match_cache_misses_total",
			Help: "Total number of scoring requests that had to be computed",
		},
	)

	SignalUnavailableTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_signal_unavailable_total",
			Help: "Total number of scoring signals lost to provider degradation",
		},
		[]string{"signal"},
	)

	// Score distribution of completed matches
	MatchScoreHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_final_score",
			Help:    "Distribution of final match scores ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"mode"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(SignalUnavailableTotal)
	prometheus.MustRegister(MatchScoreHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside chi router; guard nil
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// RecordCacheLookup tracks hit/miss outcomes of result cache lookups.
func RecordCacheLookup(hit bool) {
	if hit {
		CacheHitsTotal.Inc()
		return
	}
	CacheMissesTotal.Inc()
}

// RecordSignalUnavailable counts a degraded signal.
func RecordSignalUnavailable(signal string) {
	SignalUnavailableTotal.WithLabelValues(signal).Inc()
}

// ObserveMatchScore records the final score of a completed match.
func ObserveMatchScore(mode string, score int) {
	if score >= 0 && score <= 100 {
		MatchScoreHistogram.WithLabelValues(mode).Observe(float64(score))
	}
}
