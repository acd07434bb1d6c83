package chatschema

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	default:
		return false
	}
}

// Define the constant value for "function" type
const functionType = "function"

// ToolCallFunction names the invoked function and carries its serialized arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a structured invocation request emitted by an assistant turn.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ChatMessage is a single conversation turn as accepted from callers.
//
// Content is a pointer so that an explicit null survives decoding and formatting.
// ToolCallID distinguishes "absent" (nil) from "present but empty".
// ToolCalls likewise: nil is omitted on the wire, an empty slice encodes as [].
type ChatMessage struct {
	Role       Role       `json:"role"`
	Content    *string    `json:"content"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitzero"`
}

// FormattedMessage is the role-tagged object handed to the completion API.
// Its JSON encoding uses the exact OpenAI wire names.
type FormattedMessage struct {
	Role       Role       `json:"role"`
	Content    *string    `json:"content"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitzero"`
}

// ToolDefinition describes a callable function.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Tool wraps a function definition with its tool type.
type Tool struct {
	Type     string         `json:"type"`
	Function ToolDefinition `json:"function"`
}

// ToolChoiceMode is the literal form of a tool choice.
type ToolChoiceMode string

const (
	ToolChoiceAuto     ToolChoiceMode = "auto"
	ToolChoiceNone     ToolChoiceMode = "none"
	ToolChoiceRequired ToolChoiceMode = "required"
)

// Valid reports whether m is one of the literal tool choice tags.
func (m ToolChoiceMode) Valid() bool {
	switch m {
	case ToolChoiceAuto, ToolChoiceNone, ToolChoiceRequired:
		return true
	default:
		return false
	}
}

// ToolChoiceFunction pins a specific tool by name.
type ToolChoiceFunction struct {
	Name string `json:"name"`
}

// ToolChoice is either a literal mode or a pinned function. Exactly one of
// Mode and Function is meaningful; Function takes precedence when both are set.
type ToolChoice struct {
	Mode     ToolChoiceMode
	Function *ToolChoiceFunction
}

// ToolChoiceFor returns a tool choice pinning the named function.
func ToolChoiceFor(name string) *ToolChoice {
	return &ToolChoice{Function: &ToolChoiceFunction{Name: name}}
}

// IsFunction reports whether the choice pins a specific function.
func (c ToolChoice) IsFunction() bool {
	return c.Function != nil
}

// String returns the literal mode or "function:<name>".
func (c ToolChoice) String() string {
	if c.Function != nil {
		return functionType + ":" + c.Function.Name
	}
	return string(c.Mode)
}

type namedToolChoice struct {
	Type     string             `json:"type"`
	Function ToolChoiceFunction `json:"function"`
}

// MarshalJSON emits the literal string or the {"type":"function",...} object.
func (c ToolChoice) MarshalJSON() ([]byte, error) {
	if c.Function != nil {
		return json.Marshal(namedToolChoice{Type: functionType, Function: *c.Function})
	}
	return json.Marshal(string(c.Mode))
}

// UnmarshalJSON accepts either union arm. It performs no shape checks;
// use ToolChoiceSchema for validation.
func (c *ToolChoice) UnmarshalJSON(data []byte) error {
	var mode string
	if err := json.Unmarshal(data, &mode); err == nil {
		*c = ToolChoice{Mode: ToolChoiceMode(mode)}
		return nil
	}

	var named namedToolChoice
	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("decode tool_choice: %w", err)
	}
	*c = ToolChoice{Function: &ToolChoiceFunction{Name: named.Function.Name}}
	return nil
}

// ChatCompletionRequest is the inbound chat-completion body.
//
// The camelCase generation parameters mirror the proxy's public API; the tool
// fields keep the OpenAI names.
type ChatCompletionRequest struct {
	Model             string        `json:"model"`
	Messages          []ChatMessage `json:"messages"`
	Tools             []Tool        `json:"tools,omitzero"`
	ToolChoice        *ToolChoice   `json:"tool_choice,omitempty"`
	ParallelToolCalls *bool         `json:"parallel_tool_calls,omitempty"`

	Stream       *bool    `json:"stream,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"maxTokens,omitempty"`
	TopP         *float64 `json:"topP,omitempty"`
	SystemPrompt *string  `json:"systemPrompt,omitempty"`
}

// Usage records token accounting reported by the provider.
type Usage struct {
	PromptTokens     int64 `json:"promptTokens"`
	CompletionTokens int64 `json:"completionTokens"`
	TotalTokens      int64 `json:"totalTokens"`
}

// ResponseMetadata accompanies every completion response.
type ResponseMetadata struct {
	Model string `json:"model"`
	Usage *Usage `json:"usage,omitempty"`
}

// ChatCompletionResponse is the outbound chat-completion body.
type ChatCompletionResponse struct {
	Text      string           `json:"text"`
	ToolCalls []ToolCall       `json:"tool_calls,omitzero"`
	Metadata  ResponseMetadata `json:"metadata"`
}

// String returns a pointer to s, for building messages with non-null content.
func String(s string) *string {
	return &s
}
