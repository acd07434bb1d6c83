// Package goopenai converts between chatschema types and the
// github.com/sashabaranov/go-openai client types.
package goopenai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"

	chatschema "github.com/juburr/openai-chat-schema"
)

// ToMessages maps formatted messages onto go-openai messages. go-openai has
// no null content, so a nil Content becomes the empty string.
func ToMessages(messages []chatschema.FormattedMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{
			Role: string(m.Role),
		}
		if m.Content != nil {
			msg.Content = *m.Content
		}
		if m.ToolCallID != nil {
			msg.ToolCallID = *m.ToolCallID
		}

		if len(m.ToolCalls) > 0 {
			calls := make([]openai.ToolCall, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				calls = append(calls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				})
			}
			msg.ToolCalls = calls
		}

		out = append(out, msg)
	}
	return out
}

// ToTools maps tool definitions. Definitions without parameters get an empty
// object schema, which some OpenAI-compatible servers require.
func ToTools(tools []chatschema.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		var params any = t.Function.Parameters
		if t.Function.Parameters == nil {
			params = map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}
		}

		def := &openai.FunctionDefinition{
			Name:       t.Function.Name,
			Parameters: params,
		}
		if t.Function.Description != nil {
			def.Description = *t.Function.Description
		}

		out = append(out, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: def,
		})
	}
	return out
}

// ToToolChoice returns the value for openai.ChatCompletionRequest.ToolChoice:
// nil, the literal mode string, or an openai.ToolChoice naming a function.
func ToToolChoice(choice *chatschema.ToolChoice) any {
	if choice == nil {
		return nil
	}
	if choice.Function != nil {
		return openai.ToolChoice{
			Type: openai.ToolTypeFunction,
			Function: openai.ToolFunction{
				Name: choice.Function.Name,
			},
		}
	}
	return string(choice.Mode)
}

// NewChatCompletionRequest builds a go-openai request from a validated
// request. The request's own systemPrompt takes precedence over systemPrompt.
func NewChatCompletionRequest(req chatschema.ChatCompletionRequest, systemPrompt string) openai.ChatCompletionRequest {
	if req.SystemPrompt != nil {
		systemPrompt = *req.SystemPrompt
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: ToMessages(chatschema.FormatMessages(req.Messages, systemPrompt)),
		Tools:    ToTools(req.Tools),
	}

	if tc := ToToolChoice(req.ToolChoice); tc != nil {
		chatReq.ToolChoice = tc
	}
	if req.ParallelToolCalls != nil {
		chatReq.ParallelToolCalls = *req.ParallelToolCalls
	}
	if req.Stream != nil {
		chatReq.Stream = *req.Stream
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		chatReq.TopP = float32(*req.TopP)
	}
	if req.MaxTokens != nil {
		chatReq.MaxCompletionTokens = *req.MaxTokens
	}

	return chatReq
}

// FromChatCompletionResponse converts the first choice of resp. Tool calls
// without an id are assigned newID(); with a nil newID they keep the empty id.
// Calls whose type is set to anything other than "function" are skipped.
func FromChatCompletionResponse(resp openai.ChatCompletionResponse, newID func() string) (chatschema.ChatCompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return chatschema.ChatCompletionResponse{}, fmt.Errorf("response %q: %w", resp.ID, chatschema.ErrNoChoices)
	}

	choice := resp.Choices[0]
	out := chatschema.ChatCompletionResponse{
		Text: choice.Message.Content,
		Metadata: chatschema.ResponseMetadata{
			Model: resp.Model,
		},
	}

	if u := resp.Usage; u.PromptTokens != 0 || u.CompletionTokens != 0 || u.TotalTokens != 0 {
		out.Metadata.Usage = &chatschema.Usage{
			PromptTokens:     int64(u.PromptTokens),
			CompletionTokens: int64(u.CompletionTokens),
			TotalTokens:      int64(u.TotalTokens),
		}
	}

	for _, tc := range choice.Message.ToolCalls {
		if tc.Type != "" && tc.Type != openai.ToolTypeFunction {
			continue
		}

		id := tc.ID
		if id == "" && newID != nil {
			id = newID()
		}
		out.ToolCalls = append(out.ToolCalls, chatschema.ToolCall{
			ID:   id,
			Type: string(openai.ToolTypeFunction),
			Function: chatschema.ToolCallFunction{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}

	return out, nil
}
