package chatschema

import "time"

// MetricEvent represents the type of metric event being emitted.
// Each event corresponds to a significant operation within the adapter.
type MetricEvent string

const (
	// MetricEventMessageFormatting fires after a message sequence is formatted
	// for the completion API.
	MetricEventMessageFormatting MetricEvent = "message_formatting"

	// MetricEventSchemaValidation fires after the adapter validates an inbound
	// value against one of the named schemas, whether or not it matched.
	MetricEventSchemaValidation MetricEvent = "schema_validation"

	// MetricEventRequestTransformation fires when a validated request is turned
	// into provider request parameters.
	MetricEventRequestTransformation MetricEvent = "request_transformation"

	// MetricEventResponseTransformation fires when a provider completion is
	// turned into a ChatCompletionResponse.
	MetricEventResponseTransformation MetricEvent = "response_transformation"
)

// MetricEventData is implemented by all metric event data structures.
// Callbacks type-switch on the concrete type to read event-specific fields.
type MetricEventData interface {
	EventType() MetricEvent
}

// PerformanceMetrics contains timing information for an operation.
//
// Thread Safety: instances are immutable after creation. The SubOperations
// map is created fresh for each event and never modified after emission.
type PerformanceMetrics struct {
	// ProcessingDuration is the total time spent processing the operation
	ProcessingDuration time.Duration `json:"processing_duration"`

	// SubOperations provides timing breakdowns, e.g. "formatting" or "validation".
	SubOperations map[string]time.Duration `json:"sub_operations,omitempty"`
}

// MessageFormattingData describes one FormatMessages call.
type MessageFormattingData struct {
	// InputCount is the number of caller-supplied messages
	InputCount int `json:"input_count"`

	// OutputCount includes the prepended system message, if any
	OutputCount int `json:"output_count"`

	// SystemPromptApplied is true when a system message was prepended
	SystemPromptApplied bool `json:"system_prompt_applied"`

	// ToolMessageCount is the number of tool-role messages
	ToolMessageCount int `json:"tool_message_count"`

	// ToolCallCount is the number of assistant tool calls carried through
	ToolCallCount int `json:"tool_call_count"`

	// DefaultedToolCallIDs counts tool messages whose missing tool_call_id
	// was replaced with the empty string
	DefaultedToolCallIDs int `json:"defaulted_tool_call_ids"`

	Performance PerformanceMetrics `json:"performance"`
}

func (d MessageFormattingData) EventType() MetricEvent {
	return MetricEventMessageFormatting
}

// SchemaValidationData describes one schema check performed by the adapter.
type SchemaValidationData struct {
	// Schema is the schema name, e.g. "ChatCompletionRequest"
	Schema string `json:"schema"`

	Success bool `json:"success"`

	// IssueCount is zero on success
	IssueCount int `json:"issue_count"`

	// IssueCodes lists the distinct issue codes in first-seen order
	IssueCodes []IssueCode `json:"issue_codes,omitempty"`

	Performance PerformanceMetrics `json:"performance"`
}

func (d SchemaValidationData) EventType() MetricEvent {
	return MetricEventSchemaValidation
}

// RequestTransformationData describes a request converted to provider params.
type RequestTransformationData struct {
	Model        string   `json:"model"`
	MessageCount int      `json:"message_count"`
	ToolCount    int      `json:"tool_count"`
	ToolNames    []string `json:"tool_names"`

	// ToolChoice is the literal mode, "function:<name>", or empty when unset
	ToolChoice string `json:"tool_choice,omitempty"`

	Performance PerformanceMetrics `json:"performance"`
}

func (d RequestTransformationData) EventType() MetricEvent {
	return MetricEventRequestTransformation
}

// ResponseTransformationData describes a provider completion converted to a
// ChatCompletionResponse.
type ResponseTransformationData struct {
	Model         string   `json:"model"`
	TextLength    int      `json:"text_length"`
	ToolCallCount int      `json:"tool_call_count"`
	FunctionNames []string `json:"function_names"`

	// GeneratedToolCallIDs counts provider tool calls that arrived without an
	// id and were assigned one by the adapter
	GeneratedToolCallIDs int `json:"generated_tool_call_ids"`

	Performance PerformanceMetrics `json:"performance"`
}

func (d ResponseTransformationData) EventType() MetricEvent {
	return MetricEventResponseTransformation
}
