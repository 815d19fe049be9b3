package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/forecast-gateway/internal/traffic"
)

// ServiceName identifies this service in logs, health output and traces.
const ServiceName = "forecast-gateway"

var (
	registry *prometheus.Registry

	// HTTP request rate on the HTTP host. Watch for: sudden drops (service down) or spikes.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation.
	HTTPRequestsInFlight prometheus.Gauge

	// Open-Meteo call rate by result. Watch for: error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Open-Meteo latency per call. Watch for: p99 approaching weather_api.timeout.
	WeatherAPIDuration *prometheus.HistogramVec

	// Upstream body sizes. Watch for: growth toward weather_api.max_body_bytes.
	WeatherAPIResponseBytes prometheus.Histogram

	// Invocations by terminal outcome (rejected, transport_error, timeout, upstream_status, decode_error, shape_error, success).
	GatewayInvocationsTotal *prometheus.CounterVec

	// Invocation latency by outcome.
	GatewayInvocationDuration *prometheus.HistogramVec

	// Failed invocations by error category (see client.CategorizeError).
	GatewayErrorsTotal *prometheus.CounterVec

	// Forecast queries by coordinate source: "default" when Kyiv fallback was used, else "custom".
	ForecastQueriesTotal *prometheus.CounterVec

	trafficGaugesOnce sync.Once
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of Open-Meteo API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Open-Meteo API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherAPIResponseBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "weatherApiResponseBytes",
			Help:    "Size of Open-Meteo response bodies in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
	GatewayInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewayInvocationsTotal",
			Help: "Total number of gateway invocations by terminal outcome",
		},
		[]string{"outcome"},
	)
	GatewayInvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gatewayInvocationDurationSeconds",
			Help:    "Gateway invocation latency in seconds by outcome",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"outcome"},
	)
	GatewayErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gatewayErrorsTotal",
			Help: "Total number of failed gateway invocations by error category",
		},
		[]string{"category"},
	)
	ForecastQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastQueriesTotal",
			Help: "Forecast lookups by coordinate source (default or custom)",
		},
		[]string{"coordinates"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration, WeatherAPIResponseBytes,
		GatewayInvocationsTotal, GatewayInvocationDuration, GatewayErrorsTotal,
		ForecastQueriesTotal,
	)
}

// RecordInvocation records one finished invocation. category is empty on success.
func RecordInvocation(outcome, category string, duration time.Duration) {
	GatewayInvocationsTotal.WithLabelValues(outcome).Inc()
	GatewayInvocationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if category != "" {
		GatewayErrorsTotal.WithLabelValues(category).Inc()
	}
}

// RegisterTrafficGauges registers sliding-window gauges backed by the traffic tracker.
// Call from main after config load with the degraded window.
func RegisterTrafficGauges(window time.Duration) {
	trafficGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "invocationsInWindow",
					Help: "Upstream-bound invocations in the sliding window; load/capacity planning",
				},
				func() float64 {
					_, total := traffic.ErrorRate(window)
					return float64(total)
				},
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "upstreamFailuresInWindow",
					Help: "Invocations that failed upstream in the sliding window; drives degraded health",
				},
				func() float64 {
					failures, _ := traffic.ErrorRate(window)
					return float64(failures)
				},
			),
		)
	})
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
