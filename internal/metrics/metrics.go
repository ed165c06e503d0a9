// Package metrics exposes prometheus collectors for the web client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier_web",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier_web",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	apiCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courier_web",
			Subsystem: "api",
			Name:      "calls_total",
			Help:      "Calls issued to the marketplace API.",
		},
		[]string{"method", "resource", "outcome"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "courier_web",
			Subsystem: "api",
			Name:      "call_duration_seconds",
			Help:      "Latency of marketplace API calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"method", "resource"},
	)

	staleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "courier_web",
			Subsystem: "listing",
			Name:      "stale_responses_total",
			Help:      "List responses dropped because a newer fetch superseded them.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		apiCalls,
		apiDuration,
		staleResponses,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per gin route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveAPICall records one outbound API call.
func ObserveAPICall(method, resource string, ok bool, elapsed time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	apiCalls.WithLabelValues(method, resource, outcome).Inc()
	apiDuration.WithLabelValues(method, resource).Observe(elapsed.Seconds())
}

// StaleResponseDropped counts a superseded list response.
func StaleResponseDropped() {
	staleResponses.Inc()
}
