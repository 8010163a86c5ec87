// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ChatTurnsTotal tracks completed chat turns by requester role and
	// turn outcome (text, function_call, model_error).
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total chat turns processed",
		},
		[]string{"role", "outcome"},
	)

	// ModelLatency tracks model invocation duration.
	ModelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_request_duration_seconds",
			Help:    "Model invocation duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "model", "status"},
	)

	// ModelTokensTotal tracks total model tokens processed.
	ModelTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_tokens_total",
			Help: "Total model tokens processed",
		},
		[]string{"model", "direction"},
	)

	// FunctionCallsTotal tracks function executions by name and outcome.
	FunctionCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "function_calls_total",
			Help: "Total model-requested function executions",
		},
		[]string{"function", "outcome"},
	)

	// EscalationsTotal tracks conversations escalated to humans.
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escalations_total",
			Help: "Total conversation escalations",
		},
	)

	// ConversationsTotal tracks total conversations created.
	ConversationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversations_total",
			Help: "Total conversations created",
		},
		[]string{"role"},
	)

	// MessagesTotal tracks total messages persisted.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_total",
			Help: "Total messages persisted",
		},
		[]string{"role"},
	)

	// NATSStreamMessages tracks messages in NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// NATSStreamBytes tracks bytes in NATS stream.
	NATSStreamBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nats_stream_bytes",
			Help: "Bytes in NATS stream",
		},
		[]string{"stream"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordModelCall records metrics for a model invocation.
func RecordModelCall(provider, model, status string, duration float64, tokensIn, tokensOut int) {
	ModelLatency.WithLabelValues(provider, model, status).Observe(duration)
	ModelTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	ModelTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
}

// RecordFunctionCall records a function execution outcome.
func RecordFunctionCall(function string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	FunctionCallsTotal.WithLabelValues(function, outcome).Inc()
}
