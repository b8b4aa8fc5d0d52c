package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	toolInvocationsTotal *prometheus.CounterVec
	toolLatencySeconds   *prometheus.HistogramVec
	dispatchTurnsTotal   *prometheus.CounterVec
	dispatchStepsHist    prometheus.Histogram
	eventsPublishedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		toolInvocationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_tool_invocations_total",
			Help: "Total number of agent tool invocations by outcome.",
		}, []string{"tool", "status"})

		toolLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_tool_latency_seconds",
			Help:    "Latency distribution for agent tool invocations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"})

		dispatchTurnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_dispatch_turns_total",
			Help: "Total number of conversational turns by intent and outcome.",
		}, []string{"intent", "outcome"})

		dispatchStepsHist = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_dispatch_steps",
			Help:    "Completion rounds used per conversational turn.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_events_published_total",
			Help: "Total number of domain events published.",
		}, []string{"subject", "status"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			toolInvocationsTotal,
			toolLatencySeconds,
			dispatchTurnsTotal,
			dispatchStepsHist,
			eventsPublishedTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ToolInvocations exposes the tool invocation counter.
func ToolInvocations() *prometheus.CounterVec {
	RegisterMetrics()
	return toolInvocationsTotal
}

// ToolLatency exposes the tool latency histogram.
func ToolLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return toolLatencySeconds
}

// DispatchTurns exposes the dispatch outcome counter.
func DispatchTurns() *prometheus.CounterVec {
	RegisterMetrics()
	return dispatchTurnsTotal
}

// DispatchSteps exposes the per-turn completion round histogram.
func DispatchSteps() prometheus.Histogram {
	RegisterMetrics()
	return dispatchStepsHist
}

// EventsPublished exposes the domain event counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}
