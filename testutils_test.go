package chatschema_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/require"

	chatschema "github.com/juburr/openai-chat-schema"
)

// MetricsCollector captures metrics events for testing
type MetricsCollector struct {
	mu     sync.Mutex
	events []chatschema.MetricEventData
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		events: make([]chatschema.MetricEventData, 0),
	}
}

func (mc *MetricsCollector) Callback(data chatschema.MetricEventData) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.events = append(mc.events, data)
}

func (mc *MetricsCollector) GetEvents() []chatschema.MetricEventData {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	// Return a copy to prevent race conditions
	events := make([]chatschema.MetricEventData, len(mc.events))
	copy(events, mc.events)
	return events
}

func (mc *MetricsCollector) Clear() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.events = mc.events[:0]
}

func (mc *MetricsCollector) EventCount() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.events)
}

// EventsOfType returns captured events with the given type, in order.
func (mc *MetricsCollector) EventsOfType(event chatschema.MetricEvent) []chatschema.MetricEventData {
	var out []chatschema.MetricEventData
	for _, e := range mc.GetEvents() {
		if e.EventType() == event {
			out = append(out, e)
		}
	}
	return out
}

// Common test helper functions

func newBufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
	return logger, &buf
}

func weatherCall(id, city string) chatschema.ToolCall {
	return chatschema.ToolCall{
		ID:   id,
		Type: "function",
		Function: chatschema.ToolCallFunction{
			Name:      "get_weather",
			Arguments: `{"city":"` + city + `"}`,
		},
	}
}

func weatherTool() chatschema.Tool {
	return chatschema.Tool{
		Type: "function",
		Function: chatschema.ToolDefinition{
			Name:        "get_weather",
			Description: chatschema.String("Get current weather for a city"),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"city": map[string]any{"type": "string"},
				},
				"required": []any{"city"},
			},
		},
	}
}

// toolConversation is a complete user → assistant(tool_calls) → tool exchange.
func toolConversation() []chatschema.ChatMessage {
	return []chatschema.ChatMessage{
		{Role: chatschema.RoleUser, Content: chatschema.String("What is the weather in Tokyo?")},
		{Role: chatschema.RoleAssistant, ToolCalls: []chatschema.ToolCall{weatherCall("call_1", "Tokyo")}},
		{
			Role:       chatschema.RoleTool,
			Content:    chatschema.String(`{"temp":"22°C","condition":"sunny"}`),
			ToolCallID: chatschema.String("call_1"),
		},
	}
}

func createMockRequest() chatschema.ChatCompletionRequest {
	return chatschema.ChatCompletionRequest{
		Model:    "openai/gpt-4",
		Messages: toolConversation(),
		Tools:    []chatschema.Tool{weatherTool()},
	}
}

func createMockCompletion(content string, calls ...openai.ChatCompletionMessageToolCallUnion) openai.ChatCompletion {
	return openai.ChatCompletion{
		ID:    "chatcmpl-test",
		Model: "gpt-4o",
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Content:   content,
					ToolCalls: calls,
				},
			},
		},
	}
}

func providerCall(id, name, arguments string) openai.ChatCompletionMessageToolCallUnion {
	return openai.ChatCompletionMessageToolCallUnion{
		ID:   id,
		Type: "function",
		Function: openai.ChatCompletionMessageFunctionToolCallFunction{
			Name:      name,
			Arguments: arguments,
		},
	}
}

// toJSONMap encodes v and decodes it back into a generic map for
// wire-level assertions.
func toJSONMap(t testing.TB, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func toJSONSlice(t testing.TB, v any) []any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out []any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
