package chatschema

import (
	"io"
	"log/slog"
)

// Option is a function that configures the Adapter.
type Option func(*Adapter)

// WithLogger sets a custom slog.Logger for the adapter.
//
// Logging strategy:
// - INFO: Transformations between this package's types and provider types
// - DEBUG: Per-call detail (formatting counts, validation outcomes, durations)
// - WARN: Rejected inbound values
// - ERROR: Failures that affect functionality, including metrics callback panics
//
// A nil logger installs the same no-op logger New uses by default.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger == nil {
			a.logger = discardLogger()
			return
		}
		a.logger = logger
	}
}

// WithLogLevel replaces the logger with a discarding handler at level.
// It exists mostly for tests and benchmarks; production callers should use WithLogger.
func WithLogLevel(level slog.Level) Option {
	return func(a *Adapter) {
		handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: level,
		})
		a.logger = slog.New(handler)
	}
}

// WithMetricsCallback sets a callback function that receives metric events.
// The callback runs synchronously and must be safe for concurrent use.
// Panics raised by the callback are recovered and logged.
//
// Example usage:
//
//	adapter := chatschema.New(
//	    chatschema.WithMetricsCallback(func(data chatschema.MetricEventData) {
//	        switch event := data.(type) {
//	        case chatschema.SchemaValidationData:
//	            if !event.Success {
//	                rejected.WithLabelValues(event.Schema).Inc()
//	            }
//	        case chatschema.MessageFormattingData:
//	            formatted.Add(float64(event.OutputCount))
//	        }
//	    }),
//	)
func WithMetricsCallback(callback func(MetricEventData)) Option {
	return func(a *Adapter) {
		a.metricsCallback = callback
	}
}

// WithSystemPrompt sets the system prompt prepended by FormatMessages and
// TransformCompletionsRequest when the caller supplies none.
//
// Default: "" (no system message)
func WithSystemPrompt(prompt string) Option {
	return func(a *Adapter) {
		a.systemPrompt = prompt
	}
}

// WithToolCallIDGeneration controls whether TransformCompletionsResponse
// assigns an id to provider tool calls that arrive without one. When
// disabled, such calls keep the empty id.
//
// Default: true
func WithToolCallIDGeneration(enabled bool) Option {
	return func(a *Adapter) {
		if !enabled {
			a.logger.Info("Tool call ID generation disabled",
				"implication", "Provider tool calls without an id are returned with an empty id")
		}
		a.generateMissingIDs = enabled
	}
}

// ApplyOptions applies options to an existing adapter.
func ApplyOptions(adapter *Adapter, opts []Option) {
	for _, opt := range opts {
		opt(adapter)
	}
}

// DefaultOptions returns options that log through slog.Default().
func DefaultOptions() []Option {
	return []Option{
		WithLogger(slog.Default()),
		WithToolCallIDGeneration(true),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError + 1, // Effectively disable all logging
	}))
}
