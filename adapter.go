// Package chatschema shapes chat conversations for OpenAI-compatible
// chat-completion APIs and structurally validates tool-calling request and
// response bodies. It formats caller messages into the exact wire shape
// expected upstream and accepts or rejects inbound JSON against named
// contracts, reporting every mismatch with its field path.
//
// CONCURRENCY SUMMARY:
//   - Adapter: Thread-safe, can be shared across goroutines
//   - FormatMessages and all Schema values: Thread-safe, stateless operations
package chatschema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
)

// Adapter bundles the formatter and validators with logging, metrics, and the
// bridge to openai-go request and response types.
//
// THREAD SAFETY: Adapter instances are safe for concurrent use by multiple
// goroutines. All fields are immutable after New returns.
type Adapter struct {
	logger          *slog.Logger
	metricsCallback func(MetricEventData)

	// Default system prompt used when the caller supplies none
	systemPrompt string

	// Assign ids to provider tool calls that arrive without one
	generateMissingIDs bool
}

// New creates a new adapter with optional configurations
func New(opts ...Option) *Adapter {
	adapter := &Adapter{
		// Initialize with a no-op logger to avoid nil pointer issues
		logger:             discardLogger(),
		generateMissingIDs: true,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// ============================================================================
// FORMATTING
// ============================================================================

// FormatMessages formats messages for the completion API. When systemPrompt
// is empty the adapter's configured default (WithSystemPrompt) is used.
func (a *Adapter) FormatMessages(messages []ChatMessage, systemPrompt string) []FormattedMessage {
	if systemPrompt == "" {
		systemPrompt = a.systemPrompt
	}
	return a.formatMessages(messages, systemPrompt)
}

func (a *Adapter) formatMessages(messages []ChatMessage, systemPrompt string) []FormattedMessage {
	startTime := time.Now()

	formatted := FormatMessages(messages, systemPrompt)

	data := MessageFormattingData{
		InputCount:          len(messages),
		OutputCount:         len(formatted),
		SystemPromptApplied: systemPrompt != "",
	}
	for _, msg := range messages {
		switch msg.Role {
		case RoleTool:
			data.ToolMessageCount++
			if msg.ToolCallID == nil {
				data.DefaultedToolCallIDs++
			}
		case RoleAssistant:
			data.ToolCallCount += len(msg.ToolCalls)
		}
	}
	data.Performance = PerformanceMetrics{ProcessingDuration: time.Since(startTime)}

	a.logger.Debug("Formatted messages",
		"input_count", data.InputCount,
		"output_count", data.OutputCount,
		"system_prompt_applied", data.SystemPromptApplied,
		"tool_message_count", data.ToolMessageCount,
		"tool_call_count", data.ToolCallCount,
		"defaulted_tool_call_ids", data.DefaultedToolCallIDs)

	a.emitMetric(data)
	return formatted
}

// ============================================================================
// VALIDATION
// ============================================================================

// ParseRequest validates v against ChatCompletionRequestSchema.
// The returned error, if any, is a *ShapeMismatchError.
func (a *Adapter) ParseRequest(v any) (ChatCompletionRequest, error) {
	return observe(a, ChatCompletionRequestSchema, v)
}

// ParseRequestJSON decodes and validates a raw request body.
func (a *Adapter) ParseRequestJSON(data []byte) (ChatCompletionRequest, error) {
	return observe(a, ChatCompletionRequestSchema, json.RawMessage(data))
}

// ParseResponse validates v against ChatCompletionResponseSchema.
func (a *Adapter) ParseResponse(v any) (ChatCompletionResponse, error) {
	return observe(a, ChatCompletionResponseSchema, v)
}

// Observe runs schema against v with the adapter's logging and metrics.
// It serves schemas that have no dedicated Parse method.
func Observe[T any](a *Adapter, schema Schema[T], v any) (T, error) {
	return observe(a, schema, v)
}

func observe[T any](a *Adapter, schema Schema[T], v any) (T, error) {
	startTime := time.Now()

	result := schema.SafeParse(v)

	data := SchemaValidationData{
		Schema:  schema.Name(),
		Success: result.Success,
		Performance: PerformanceMetrics{
			ProcessingDuration: time.Since(startTime),
		},
	}

	if result.Success {
		a.logger.Debug("Value matched schema", "schema", schema.Name())
	} else {
		data.IssueCount = len(result.Err.Issues)
		data.IssueCodes = distinctIssueCodes(result.Err.Issues)

		logAttrs := []any{
			"schema", schema.Name(),
			"issue_count", data.IssueCount,
		}
		if first, ok := result.Err.First(); ok {
			logAttrs = append(logAttrs, "first_issue", first.String())
		}
		a.logger.Warn("Value rejected by schema", logAttrs...)
	}

	a.emitMetric(data)
	return result.Get()
}

func distinctIssueCodes(issues []Issue) []IssueCode {
	seen := make(map[IssueCode]bool, len(issues))
	var codes []IssueCode
	for _, issue := range issues {
		if !seen[issue.Code] {
			seen[issue.Code] = true
			codes = append(codes, issue.Code)
		}
	}
	return codes
}

// ============================================================================
// PROVIDER REQUEST BRIDGE
// ============================================================================

// TransformCompletionsRequest converts a validated request into openai-go
// request parameters. This is the backward-compatible version that uses
// context.Background().
func (a *Adapter) TransformCompletionsRequest(req ChatCompletionRequest) (openai.ChatCompletionNewParams, error) {
	return a.TransformCompletionsRequestWithContext(context.Background(), req)
}

// TransformCompletionsRequestWithContext converts a validated request into
// openai-go request parameters. Messages go through FormatMessages; the
// request's systemPrompt, when set, overrides the adapter default.
func (a *Adapter) TransformCompletionsRequestWithContext(ctx context.Context, req ChatCompletionRequest) (openai.ChatCompletionNewParams, error) {
	startTime := time.Now()

	// Check for cancellation early
	select {
	case <-ctx.Done():
		return openai.ChatCompletionNewParams{}, ctx.Err()
	default:
	}

	systemPrompt := a.systemPrompt
	if req.SystemPrompt != nil {
		systemPrompt = *req.SystemPrompt
	}

	formatStart := time.Now()
	formatted := a.formatMessages(req.Messages, systemPrompt)
	formatDuration := time.Since(formatStart)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(formatted))
	for i, msg := range formatted {
		param, err := toOpenAIMessage(msg)
		if err != nil {
			a.logger.Error("Failed to convert message", "index", i, "role", msg.Role, "error", err)
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert message[%d]: %w", i, err)
		}
		messages = append(messages, param)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}

	toolNames := make([]string, 0, len(req.Tools))
	for _, tool := range req.Tools {
		params.Tools = append(params.Tools, toOpenAITool(tool))
		toolNames = append(toolNames, tool.Function.Name)
	}

	var toolChoice string
	if req.ToolChoice != nil {
		choice, err := toOpenAIToolChoice(*req.ToolChoice)
		if err != nil {
			a.logger.Error("Failed to convert tool choice", "tool_choice", req.ToolChoice.String(), "error", err)
			return openai.ChatCompletionNewParams{}, fmt.Errorf("failed to convert tool choice: %w", err)
		}
		params.ToolChoice = choice
		toolChoice = req.ToolChoice.String()
	}

	if req.ParallelToolCalls != nil {
		params.ParallelToolCalls = openai.Bool(*req.ParallelToolCalls)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.TopP != nil {
		params.TopP = openai.Float(*req.TopP)
	}
	if req.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*req.MaxTokens))
	}

	a.logger.Info("Transformed request",
		"model", req.Model,
		"message_count", len(messages),
		"tool_count", len(req.Tools),
		"tool_names", toolNames,
		"tool_choice", toolChoice)

	a.emitMetric(RequestTransformationData{
		Model:        req.Model,
		MessageCount: len(messages),
		ToolCount:    len(req.Tools),
		ToolNames:    toolNames,
		ToolChoice:   toolChoice,
		Performance: PerformanceMetrics{
			ProcessingDuration: time.Since(startTime),
			SubOperations: map[string]time.Duration{
				"formatting": formatDuration,
			},
		},
	})

	return params, nil
}

func toOpenAIMessage(msg FormattedMessage) (openai.ChatCompletionMessageParamUnion, error) {
	var content string
	if msg.Content != nil {
		content = *msg.Content
	}

	switch msg.Role {
	case RoleSystem:
		return openai.SystemMessage(content), nil

	case RoleUser:
		return openai.UserMessage(content), nil

	case RoleTool:
		var callID string
		if msg.ToolCallID != nil {
			callID = *msg.ToolCallID
		}
		return openai.ToolMessage(content, callID), nil

	case RoleAssistant:
		// Built by hand so that null content and tool calls survive
		assistant := openai.ChatCompletionAssistantMessageParam{}
		if msg.Content != nil {
			assistant.Content.OfString = openai.String(*msg.Content)
		}
		for _, call := range msg.ToolCalls {
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
				OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
						Name:      call.Function.Name,
						Arguments: call.Function.Arguments,
					},
				},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}, nil

	default:
		return openai.ChatCompletionMessageParamUnion{}, fmt.Errorf("unsupported role %q: %w", msg.Role, ErrShapeMismatch)
	}
}

func toOpenAITool(tool Tool) openai.ChatCompletionToolUnionParam {
	def := openai.FunctionDefinitionParam{
		Name: tool.Function.Name,
	}
	if tool.Function.Description != nil {
		def.Description = openai.String(*tool.Function.Description)
	}
	if tool.Function.Parameters != nil {
		def.Parameters = openai.FunctionParameters(tool.Function.Parameters)
	}
	return openai.ChatCompletionFunctionTool(def)
}

func toOpenAIToolChoice(choice ToolChoice) (openai.ChatCompletionToolChoiceOptionUnionParam, error) {
	if choice.Function != nil {
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{
					Name: choice.Function.Name,
				},
			},
		}, nil
	}
	if !choice.Mode.Valid() {
		return openai.ChatCompletionToolChoiceOptionUnionParam{}, fmt.Errorf("tool_choice %q: %w", choice.Mode, ErrShapeMismatch)
	}
	return openai.ChatCompletionToolChoiceOptionUnionParam{
		OfAuto: openai.String(string(choice.Mode)),
	}, nil
}

// ============================================================================
// PROVIDER RESPONSE BRIDGE
// ============================================================================

// TransformCompletionsResponse converts an openai-go completion into a
// ChatCompletionResponse. This is the backward-compatible version that uses
// context.Background().
func (a *Adapter) TransformCompletionsResponse(resp openai.ChatCompletion) (ChatCompletionResponse, error) {
	return a.TransformCompletionsResponseWithContext(context.Background(), resp)
}

// TransformCompletionsResponseWithContext converts the first choice of an
// openai-go completion into a ChatCompletionResponse. Function tool calls
// are carried over in order; calls without an id receive one from
// GenerateToolCallID unless disabled with WithToolCallIDGeneration(false).
func (a *Adapter) TransformCompletionsResponseWithContext(ctx context.Context, resp openai.ChatCompletion) (ChatCompletionResponse, error) {
	startTime := time.Now()

	// Check for cancellation early
	select {
	case <-ctx.Done():
		return ChatCompletionResponse{}, ctx.Err()
	default:
	}

	if len(resp.Choices) == 0 {
		a.logger.Error("Provider completion has no choices", "model", resp.Model, "id", resp.ID)
		return ChatCompletionResponse{}, ErrNoChoices
	}
	if len(resp.Choices) > 1 {
		a.logger.Debug("Ignoring additional choices", "total_choices", len(resp.Choices))
	}

	message := resp.Choices[0].Message
	out := ChatCompletionResponse{
		Text: message.Content,
		Metadata: ResponseMetadata{
			Model: resp.Model,
		},
	}

	usage := resp.Usage
	if usage.TotalTokens != 0 || usage.PromptTokens != 0 || usage.CompletionTokens != 0 {
		out.Metadata.Usage = &Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}

	generated := 0
	functionNames := make([]string, 0, len(message.ToolCalls))
	for i, call := range message.ToolCalls {
		if call.Type != "" && call.Type != functionType {
			a.logger.Warn("Skipping non-function tool call", "index", i, "type", call.Type)
			continue
		}

		id := call.ID
		if id == "" && a.generateMissingIDs {
			id = a.GenerateToolCallID()
			generated++
		}

		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:   id,
			Type: functionType,
			Function: ToolCallFunction{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
		functionNames = append(functionNames, call.Function.Name)
	}

	a.logger.Info("Transformed response",
		"model", resp.Model,
		"text_length", len(out.Text),
		"tool_call_count", len(out.ToolCalls),
		"function_names", functionNames,
		"generated_tool_call_ids", generated)

	a.emitMetric(ResponseTransformationData{
		Model:                resp.Model,
		TextLength:           len(out.Text),
		ToolCallCount:        len(out.ToolCalls),
		FunctionNames:        functionNames,
		GeneratedToolCallIDs: generated,
		Performance: PerformanceMetrics{
			ProcessingDuration: time.Since(startTime),
		},
	})

	return out, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// emitMetric safely emits a metric event if a callback is configured.
// Panics raised by the callback are recovered and logged so that metrics
// collection never interrupts the operation being measured.
func (a *Adapter) emitMetric(data MetricEventData) {
	if a.metricsCallback == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Metrics callback panicked - metrics collection failed but operation continues",
				"panic", r,
				"event_type", data.EventType())
		}
	}()

	a.metricsCallback(data)
}

// GenerateToolCallID generates a unique ID for a tool call using UUIDv7.
// UUIDv7 ids sort by creation time, which keeps generated ids ordered within
// a response.
//
// THREAD SAFETY: This method is safe for concurrent use by multiple goroutines.
func (a *Adapter) GenerateToolCallID() string {
	id, err := uuid.NewV7()
	if err != nil {
		a.logger.Error("UUIDv7 generation failed, falling back to UUIDv4",
			"error", err,
			"impact", "loss of timestamp-based ordering benefits")

		id = uuid.New()
	}
	return "call_" + id.String()
}
