package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_http_requests_total",
	Help: "Total number of requests labelled by route, method and status",
}, []string{"route", "method", "status"})

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "docchat_http_request_duration_seconds",
	Help:    "Time spent serving HTTP requests.",
	Buckets: []float64{.01, .05, .1, .5, 1, 2, 5, 10, 30},
}, []string{"route"})

var pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_pipeline_runs_total",
	Help: "Document processing runs by outcome",
}, []string{"outcome"})

var pipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "docchat_pipeline_duration_seconds",
	Help:    "Time spent processing a document, by outcome.",
	Buckets: []float64{.5, 1, 2, 5, 10, 30, 60, 120},
}, []string{"outcome"})

var analysisResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_analysis_results_total",
	Help: "Analysis results by how the reply was parsed (parsed, partial, defaulted)",
}, []string{"source"})

var extractions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_extractions_total",
	Help: "Text extractions by the method that produced the text",
}, []string{"method"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "docchat_dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30, 60},
}, []string{"service", "result"})

var chatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_chat_messages_total",
	Help: "Chat turns by outcome",
}, []string{"outcome"})

var stuckDocuments = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "docchat_stuck_documents",
	Help: "Documents found in processing by the last reprocess sweep",
})

func ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(route, method, statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func ObservePipelineRun(outcome string, elapsed time.Duration) {
	pipelineRuns.WithLabelValues(outcome).Inc()
	pipelineDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func IncAnalysisResult(source string) {
	analysisResults.WithLabelValues(source).Inc()
}

func IncExtraction(method string) {
	extractions.WithLabelValues(method).Inc()
}

// CaptureDependency records the latency of one call to an external service.
func CaptureDependency(service string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	dependencyLatency.WithLabelValues(service, result).Observe(elapsed.Seconds())
}

func IncChatMessage(outcome string) {
	chatMessages.WithLabelValues(outcome).Inc()
}

func SetStuckDocuments(n int) {
	stuckDocuments.Set(float64(n))
}

func statusClass(status int) string {
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
