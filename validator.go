package chatschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/jsonschema-go/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	draft202012 = "https://json-schema.org/draft/2020-12/schema"
	documentURL = "https://github.com/juburr/openai-chat-schema/chatschema.json"

	maxTemperature = 2
	maxTopP        = 1
)

var schemaCompiler = mustCompiler()

// Named shape contracts. Composite definitions reference the component
// definitions, so a change to one contract applies everywhere it is embedded.
var (
	ToolDefinitionSchema         = newSchema[ToolDefinition]("ToolDefinition")
	ToolSchema                   = newSchema[Tool]("Tool")
	ToolChoiceSchema             = newSchema[ToolChoice]("ToolChoice")
	ToolCallSchema               = newSchema[ToolCall]("ToolCall")
	ChatMessageSchema            = newSchema[ChatMessage]("ChatMessage")
	ChatCompletionRequestSchema  = newSchema[ChatCompletionRequest]("ChatCompletionRequest")
	ChatCompletionResponseSchema = newSchema[ChatCompletionResponse]("ChatCompletionResponse")
)

// SchemaNames lists every schema in dependency order.
func SchemaNames() []string {
	return []string{
		ToolDefinitionSchema.Name(),
		ToolSchema.Name(),
		ToolChoiceSchema.Name(),
		ToolCallSchema.Name(),
		ChatMessageSchema.Name(),
		ChatCompletionRequestSchema.Name(),
		ChatCompletionResponseSchema.Name(),
	}
}

// JSONSchema returns a standalone JSON Schema document whose root refers to
// this schema's definition. Each call returns a fresh copy.
func (s Schema[T]) JSONSchema() *jsonschema.Schema {
	doc := Document()
	doc.Ref = "#/$defs/" + s.name
	return doc
}

// Document returns the JSON Schema (draft 2020-12) document holding every
// definition under $defs. Each call returns a fresh copy.
func Document() *jsonschema.Schema {
	return &jsonschema.Schema{
		Schema: draft202012,
		ID:     documentURL,
		Title:  "OpenAI chat-completion tool-calling shapes",
		Defs: map[string]*jsonschema.Schema{
			"ToolDefinition": object([]string{"name"}, map[string]*jsonschema.Schema{
				"name":        text(),
				"description": text(),
				"parameters":  {Type: "object"},
			}),
			"Tool": object([]string{"type", "function"}, map[string]*jsonschema.Schema{
				"type":     literal(functionType),
				"function": ref("ToolDefinition"),
			}),
			"ToolChoiceMode": {
				Type: "string",
				Enum: []any{string(ToolChoiceAuto), string(ToolChoiceNone), string(ToolChoiceRequired)},
			},
			"ToolChoiceFunction": object([]string{"type", "function"}, map[string]*jsonschema.Schema{
				"type": literal(functionType),
				"function": object([]string{"name"}, map[string]*jsonschema.Schema{
					"name": text(),
				}),
			}),
			"ToolChoice": {
				OneOf: []*jsonschema.Schema{ref("ToolChoiceMode"), ref("ToolChoiceFunction")},
			},
			"ToolCall": object([]string{"id", "type", "function"}, map[string]*jsonschema.Schema{
				"id":   text(),
				"type": literal(functionType),
				"function": object([]string{"name", "arguments"}, map[string]*jsonschema.Schema{
					"name":      text(),
					"arguments": text(),
				}),
			}),
			"ChatMessage": object([]string{"role"}, map[string]*jsonschema.Schema{
				"role": {
					Enum: []any{string(RoleSystem), string(RoleUser), string(RoleAssistant), string(RoleTool)},
				},
				"content":      {Types: []string{"string", "null"}},
				"tool_call_id": text(),
				"tool_calls":   list(ref("ToolCall")),
			}),
			"ChatCompletionRequest": object([]string{"model", "messages"}, map[string]*jsonschema.Schema{
				"model":               text(),
				"messages":            list(ref("ChatMessage")),
				"tools":               list(ref("Tool")),
				"tool_choice":         ref("ToolChoice"),
				"parallel_tool_calls": {Type: "boolean"},
				"stream":              {Type: "boolean"},
				"temperature":         number("number", 0, maxTemperature),
				"maxTokens":           number("integer", 1, math.MaxInt32),
				"topP":                number("number", 0, maxTopP),
				"systemPrompt":        text(),
			}),
			"Usage": object([]string{"promptTokens", "completionTokens", "totalTokens"}, map[string]*jsonschema.Schema{
				"promptTokens":     number("integer", 0, math.MaxInt64),
				"completionTokens": number("integer", 0, math.MaxInt64),
				"totalTokens":      number("integer", 0, math.MaxInt64),
			}),
			"ResponseMetadata": object([]string{"model"}, map[string]*jsonschema.Schema{
				"model": text(),
				"usage": ref("Usage"),
			}),
			"ChatCompletionResponse": object([]string{"text", "metadata"}, map[string]*jsonschema.Schema{
				"text":       text(),
				"tool_calls": list(ref("ToolCall")),
				"metadata":   ref("ResponseMetadata"),
			}),
		},
	}
}

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Required: required, Properties: props}
}

func list(items *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Items: items}
}

func text() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string"}
}

func literal(v string) *jsonschema.Schema {
	return &jsonschema.Schema{Const: jsonschema.Ptr[any](v)}
}

func number(typ string, lo, hi float64) *jsonschema.Schema {
	return &jsonschema.Schema{Type: typ, Minimum: jsonschema.Ptr(lo), Maximum: jsonschema.Ptr(hi)}
}

func ref(name string) *jsonschema.Schema {
	return &jsonschema.Schema{Ref: "#/$defs/" + name}
}

func definitionURL(name string) string {
	return documentURL + "#/$defs/" + name
}

// mustCompiler registers Document with a validator. It panics only when the
// document itself is malformed.
func mustCompiler() *jsv.Compiler {
	data, err := json.Marshal(Document())
	if err != nil {
		panic(fmt.Sprintf("chatschema: encode schema document: %v", err))
	}
	doc, err := jsv.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Sprintf("chatschema: decode schema document: %v", err))
	}

	c := jsv.NewCompiler()
	c.DefaultDraft(jsv.Draft2020)
	if err := c.AddResource(documentURL, doc); err != nil {
		panic(fmt.Sprintf("chatschema: register schema document: %v", err))
	}
	return c
}
