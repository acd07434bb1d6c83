package prommetrics_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chatschema "github.com/juburr/openai-chat-schema"
	"github.com/juburr/openai-chat-schema/prommetrics"
)

func newRecorder(t *testing.T) (*prommetrics.Recorder, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	rec, err := prommetrics.NewRecorder(reg, "test")
	require.NoError(t, err)
	return rec, reg
}

func TestRecorder_SchemaValidation(t *testing.T) {
	rec, reg := newRecorder(t)
	adapter := chatschema.New(chatschema.WithMetricsCallback(rec.Observe))

	_, err := adapter.ParseRequestJSON([]byte(`{"model":"m","messages":[]}`))
	require.NoError(t, err)

	_, err = adapter.ParseRequestJSON([]byte(`{"messages":[{"role":"robot"}]}`))
	require.Error(t, err)

	count, err := testutil.GatherAndCount(reg, "test_schema_validations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")

	expected := `
# HELP test_schema_validations_total Schema checks performed, by schema and result.
# TYPE test_schema_validations_total counter
test_schema_validations_total{result="matched",schema="ChatCompletionRequest"} 1
test_schema_validations_total{result="rejected",schema="ChatCompletionRequest"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_schema_validations_total"))

	// model missing, role invalid
	expectedIssues := `
# HELP test_schema_issues_total Shape mismatch issues reported, by schema.
# TYPE test_schema_issues_total counter
test_schema_issues_total{schema="ChatCompletionRequest"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expectedIssues), "test_schema_issues_total"))
}

func TestRecorder_Formatting(t *testing.T) {
	rec, reg := newRecorder(t)
	adapter := chatschema.New(chatschema.WithMetricsCallback(rec.Observe))

	adapter.FormatMessages([]chatschema.ChatMessage{
		{Role: chatschema.RoleUser, Content: chatschema.String("hi")},
		{Role: chatschema.RoleTool, Content: chatschema.String("result")},
	}, "system")

	count, err := testutil.GatherAndCount(reg, "test_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP test_formatted_messages_total Messages emitted by the formatter, including system messages.
# TYPE test_formatted_messages_total counter
test_formatted_messages_total 3
# HELP test_defaulted_tool_call_ids_total Tool messages whose missing tool_call_id was defaulted to the empty string.
# TYPE test_defaulted_tool_call_ids_total counter
test_defaulted_tool_call_ids_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"test_formatted_messages_total", "test_defaulted_tool_call_ids_total"))
}

func TestRecorder_ResponseTransformation(t *testing.T) {
	rec, reg := newRecorder(t)

	rec.Observe(chatschema.ResponseTransformationData{
		GeneratedToolCallIDs: 2,
		Performance:          chatschema.PerformanceMetrics{ProcessingDuration: time.Millisecond},
	})
	rec.Observe(chatschema.RequestTransformationData{
		Performance: chatschema.PerformanceMetrics{ProcessingDuration: time.Millisecond},
	})

	expected := `
# HELP test_generated_tool_call_ids_total Provider tool calls assigned a generated id.
# TYPE test_generated_tool_call_ids_total counter
test_generated_tool_call_ids_total 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_generated_tool_call_ids_total"))

	// One histogram series per event label
	count, err := testutil.GatherAndCount(reg, "test_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewRecorder_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := prommetrics.NewRecorder(reg, "dup")
	require.NoError(t, err)

	_, err = prommetrics.NewRecorder(reg, "dup")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register collector")
}
