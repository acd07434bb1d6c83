// Package prommetrics exports chatschema metric events as Prometheus series.
//
// Usage:
//
//	rec, err := prommetrics.NewRecorder(prometheus.DefaultRegisterer, "chatschema")
//	if err != nil {
//	    return err
//	}
//	adapter := chatschema.New(chatschema.WithMetricsCallback(rec.Observe))
package prommetrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	chatschema "github.com/juburr/openai-chat-schema"
)

const (
	resultMatched  = "matched"
	resultRejected = "rejected"
)

// Recorder translates MetricEventData into counters and histograms.
// It is safe for concurrent use.
type Recorder struct {
	validations          *prometheus.CounterVec
	issues               *prometheus.CounterVec
	formattedMessages    prometheus.Counter
	defaultedToolCallIDs prometheus.Counter
	generatedToolCallIDs prometheus.Counter
	duration             *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer, namespace string) (*Recorder, error) {
	r := &Recorder{
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_validations_total",
			Help:      "Schema checks performed, by schema and result.",
		}, []string{"schema", "result"}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_issues_total",
			Help:      "Shape mismatch issues reported, by schema.",
		}, []string{"schema"}),
		formattedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "formatted_messages_total",
			Help:      "Messages emitted by the formatter, including system messages.",
		}),
		defaultedToolCallIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "defaulted_tool_call_ids_total",
			Help:      "Tool messages whose missing tool_call_id was defaulted to the empty string.",
		}),
		generatedToolCallIDs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generated_tool_call_ids_total",
			Help:      "Provider tool calls assigned a generated id.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Processing time of adapter operations.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{
		r.validations,
		r.issues,
		r.formattedMessages,
		r.defaultedToolCallIDs,
		r.generatedToolCallIDs,
		r.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}

	return r, nil
}

// Observe records one event. Its signature matches chatschema.WithMetricsCallback.
func (r *Recorder) Observe(data chatschema.MetricEventData) {
	switch event := data.(type) {
	case chatschema.SchemaValidationData:
		result := resultMatched
		if !event.Success {
			result = resultRejected
		}
		r.validations.WithLabelValues(event.Schema, result).Inc()
		if event.IssueCount > 0 {
			r.issues.WithLabelValues(event.Schema).Add(float64(event.IssueCount))
		}
		r.observeDuration(data.EventType(), event.Performance)

	case chatschema.MessageFormattingData:
		r.formattedMessages.Add(float64(event.OutputCount))
		r.defaultedToolCallIDs.Add(float64(event.DefaultedToolCallIDs))
		r.observeDuration(data.EventType(), event.Performance)

	case chatschema.RequestTransformationData:
		r.observeDuration(data.EventType(), event.Performance)

	case chatschema.ResponseTransformationData:
		r.generatedToolCallIDs.Add(float64(event.GeneratedToolCallIDs))
		r.observeDuration(data.EventType(), event.Performance)
	}
}

func (r *Recorder) observeDuration(event chatschema.MetricEvent, perf chatschema.PerformanceMetrics) {
	r.duration.WithLabelValues(string(event)).Observe(perf.ProcessingDuration.Seconds())
}
