package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kam_assistant",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kam_assistant",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	ingestedRows = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kam_assistant",
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Activity rows committed to the store.",
	})
	analysisRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kam_assistant",
		Subsystem: "analysis",
		Name:      "requests_total",
		Help:      "Analyze calls by outcome (ok, no_data, no_credential, rate_limited, failed, storage_error).",
	}, []string{"outcome"})
	analysisTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kam_assistant",
		Subsystem: "analysis",
		Name:      "tokens_total",
		Help:      "Tokens reported by the chat-completion API.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, ingestedRows, analysisRequests, analysisTokens)
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route, method, status string, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// AddIngestedRows counts committed rows.
func AddIngestedRows(n int) {
	if n <= 0 {
		return
	}
	ingestedRows.Add(float64(n))
}

// RecordAnalysis counts an analyze call outcome.
func RecordAnalysis(outcome string) {
	analysisRequests.WithLabelValues(outcome).Inc()
}

// RecordAnalysisTokens adds prompt and completion token usage.
func RecordAnalysisTokens(prompt, completion int64) {
	if prompt > 0 {
		analysisTokens.WithLabelValues("prompt").Add(float64(prompt))
	}
	if completion > 0 {
		analysisTokens.WithLabelValues("completion").Add(float64(completion))
	}
}
