package chatschema_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatschema "github.com/juburr/openai-chat-schema"
)

// TestMetricsCallbackPanicRecovery verifies that panics in metrics callbacks are recovered
func TestMetricsCallbackPanicRecovery(t *testing.T) {
	t.Run("PanicInCallback_FormatMessages", func(t *testing.T) {
		// Capture logs to verify panic was logged
		logger, logBuffer := newBufferLogger(slog.LevelDebug)

		adapter := chatschema.New(
			chatschema.WithLogger(logger),
			chatschema.WithMetricsCallback(func(data chatschema.MetricEventData) {
				panic("intentional test panic")
			}),
		)

		// Should not panic - the panic should be recovered
		var result []chatschema.FormattedMessage
		require.NotPanics(t, func() {
			result = adapter.FormatMessages(toolConversation(), "S")
		})
		assert.Len(t, result, 4)

		logOutput := logBuffer.String()
		assert.Contains(t, logOutput, "Metrics callback panicked")
		assert.Contains(t, logOutput, "intentional test panic")
		assert.Contains(t, logOutput, "message_formatting")
	})

	t.Run("PanicInCallback_ParseRequest", func(t *testing.T) {
		logger, logBuffer := newBufferLogger(slog.LevelDebug)

		adapter := chatschema.New(
			chatschema.WithLogger(logger),
			chatschema.WithMetricsCallback(func(data chatschema.MetricEventData) {
				// Only panic for validation events
				if data.EventType() == chatschema.MetricEventSchemaValidation {
					panic("validation panic")
				}
			}),
		)

		req, err := adapter.ParseRequest(map[string]any{"model": "m", "messages": []any{}})
		require.NoError(t, err, "validation result must survive the callback panic")
		assert.Equal(t, "m", req.Model)

		_, err = adapter.ParseRequest(map[string]any{"messages": []any{}})
		require.Error(t, err, "rejection must survive the callback panic")

		assert.Contains(t, logBuffer.String(), "schema_validation")
	})

	t.Run("PanicInCallback_TransformCompletionsResponse", func(t *testing.T) {
		logger, logBuffer := newBufferLogger(slog.LevelDebug)

		adapter := chatschema.New(
			chatschema.WithLogger(logger),
			chatschema.WithMetricsCallback(func(data chatschema.MetricEventData) {
				panic(struct{ reason string }{"struct panic"})
			}),
		)

		resp, err := adapter.TransformCompletionsResponse(createMockCompletion("",
			providerCall("call_1", "get_weather", "{}")))
		require.NoError(t, err)
		require.Len(t, resp.ToolCalls, 1)

		assert.Contains(t, logBuffer.String(), "response_transformation")
	})

	t.Run("NilCallbackIsNoOp", func(t *testing.T) {
		adapter := chatschema.New(chatschema.WithMetricsCallback(nil))
		assert.NotPanics(t, func() {
			adapter.FormatMessages(toolConversation(), "")
		})
	})
}
