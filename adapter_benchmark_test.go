package chatschema_test

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	chatschema "github.com/juburr/openai-chat-schema"
)

// Package-level sinks keep the compiler from eliminating benchmarked calls
var (
	benchFormatted []chatschema.FormattedMessage
	benchRequest   chatschema.ChatCompletionRequest
	benchErr       error
)

func createBenchmarkConversation(turns int) []chatschema.ChatMessage {
	messages := make([]chatschema.ChatMessage, 0, turns*3)
	for i := 0; i < turns; i++ {
		id := fmt.Sprintf("call_%d", i)
		messages = append(messages,
			chatschema.ChatMessage{Role: chatschema.RoleUser, Content: chatschema.String(fmt.Sprintf("Question %d", i))},
			chatschema.ChatMessage{Role: chatschema.RoleAssistant, ToolCalls: []chatschema.ToolCall{weatherCall(id, "Tokyo")}},
			chatschema.ChatMessage{Role: chatschema.RoleTool, Content: chatschema.String(`{"temp":"22°C"}`), ToolCallID: chatschema.String(id)},
		)
	}
	return messages
}

func createBenchmarkRequestJSON(b *testing.B, turns int) []byte {
	b.Helper()
	data, err := json.Marshal(chatschema.ChatCompletionRequest{
		Model:    "gpt-4o",
		Messages: createBenchmarkConversation(turns),
		Tools:    []chatschema.Tool{weatherTool()},
	})
	if err != nil {
		b.Fatal(err)
	}
	return data
}

func BenchmarkFormatMessages(b *testing.B) {
	for _, turns := range []int{1, 10, 100} {
		messages := createBenchmarkConversation(turns)
		b.Run(fmt.Sprintf("Turns%d", turns), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				benchFormatted = chatschema.FormatMessages(messages, "You are helpful.")
			}
		})
	}
}

func BenchmarkChatCompletionRequestSchema(b *testing.B) {
	for _, turns := range []int{1, 10, 100} {
		data := createBenchmarkRequestJSON(b, turns)
		b.Run(fmt.Sprintf("Turns%d", turns), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for i := 0; i < b.N; i++ {
				benchRequest, benchErr = chatschema.ChatCompletionRequestSchema.SafeParseJSON(data).Get()
			}
		})
	}
}

func BenchmarkFullWorkflow_EndToEnd(b *testing.B) {
	adapter := chatschema.New(chatschema.WithLogLevel(slog.LevelError))
	data := createBenchmarkRequestJSON(b, 10)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req, err := adapter.ParseRequestJSON(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := adapter.TransformCompletionsRequest(req); err != nil {
			b.Fatal(err)
		}
		benchRequest = req
	}
}

func BenchmarkMetricsOverhead(b *testing.B) {
	messages := createBenchmarkConversation(10)

	b.Run("NoCallback", func(b *testing.B) {
		adapter := chatschema.New()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			benchFormatted = adapter.FormatMessages(messages, "")
		}
	})

	b.Run("WithCallback", func(b *testing.B) {
		var count int
		adapter := chatschema.New(chatschema.WithMetricsCallback(func(chatschema.MetricEventData) { count++ }))
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			benchFormatted = adapter.FormatMessages(messages, "")
		}
		_ = count
	})
}
