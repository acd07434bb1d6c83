package chatschema

// FormatMessages converts messages into the sequence sent to the completion
// API. A non-empty systemPrompt is prepended as a system message.
//
// The conversion is pure: the input slice and its messages are never
// mutated, and the output shares no slices or pointers with the input.
// No validation is performed; malformed messages pass through.
func FormatMessages(messages []ChatMessage, systemPrompt string) []FormattedMessage {
	capacity := len(messages)
	if systemPrompt != "" {
		capacity++
	}
	formatted := make([]FormattedMessage, 0, capacity)

	if systemPrompt != "" {
		formatted = append(formatted, FormattedMessage{
			Role:    RoleSystem,
			Content: String(systemPrompt),
		})
	}

	for _, msg := range messages {
		formatted = append(formatted, formatMessage(msg))
	}
	return formatted
}

func formatMessage(msg ChatMessage) FormattedMessage {
	out := FormattedMessage{
		Role:    msg.Role,
		Content: copyString(msg.Content),
	}

	switch {
	case msg.Role == RoleTool:
		out.ToolCallID = defaultToolCallID(msg.ToolCallID)
	case msg.Role == RoleAssistant && msg.ToolCalls != nil:
		out.ToolCalls = copyToolCalls(msg.ToolCalls)
	}
	return out
}

// defaultToolCallID is the explicit defaulting step for tool messages:
// a missing tool_call_id becomes the empty string rather than being omitted.
func defaultToolCallID(id *string) *string {
	if id == nil {
		return String("")
	}
	return copyString(id)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	return String(*s)
}

func copyToolCalls(calls []ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	copy(out, calls)
	return out
}

// ChatMessage converts a formatted message back into the inbound shape.
func (m FormattedMessage) ChatMessage() ChatMessage {
	msg := ChatMessage{
		Role:       m.Role,
		Content:    copyString(m.Content),
		ToolCallID: copyString(m.ToolCallID),
	}
	if m.ToolCalls != nil {
		msg.ToolCalls = copyToolCalls(m.ToolCalls)
	}
	return msg
}
