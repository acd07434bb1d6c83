package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	chatschema "github.com/juburr/openai-chat-schema"
)

type validateFunc func(*chatschema.Adapter, any) error

func validateWith[T any](schema chatschema.Schema[T]) validateFunc {
	return func(a *chatschema.Adapter, v any) error {
		_, err := chatschema.Observe(a, schema, v)
		return err
	}
}

// validators is keyed by lower-cased schema name.
var validators = map[string]validateFunc{
	strings.ToLower(chatschema.ToolDefinitionSchema.Name()):         validateWith(chatschema.ToolDefinitionSchema),
	strings.ToLower(chatschema.ToolSchema.Name()):                   validateWith(chatschema.ToolSchema),
	strings.ToLower(chatschema.ToolChoiceSchema.Name()):             validateWith(chatschema.ToolChoiceSchema),
	strings.ToLower(chatschema.ToolCallSchema.Name()):               validateWith(chatschema.ToolCallSchema),
	strings.ToLower(chatschema.ChatMessageSchema.Name()):            validateWith(chatschema.ChatMessageSchema),
	strings.ToLower(chatschema.ChatCompletionRequestSchema.Name()):  validateWith(chatschema.ChatCompletionRequestSchema),
	strings.ToLower(chatschema.ChatCompletionResponseSchema.Name()): validateWith(chatschema.ChatCompletionResponseSchema),
}

func newValidateCmd(a *app) *cobra.Command {
	var schemaName string

	cmd := &cobra.Command{
		Use:   "validate [file|-]",
		Short: "Validate a JSON or YAML document against a named schema",
		Example: `  chatschema validate --schema ChatCompletionRequest request.json
  cat response.yaml | chatschema validate --schema ChatCompletionResponse --input.format yaml -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validate, ok := validators[strings.ToLower(schemaName)]
			if !ok {
				return fmt.Errorf("unknown schema %q (known: %s)", schemaName, strings.Join(sortedSchemaNames(), ", "))
			}

			doc, err := readDocument(cmd, args, a.cfg.Input.Format)
			if err != nil {
				return err
			}

			if err := validate(a.adapter, doc); err != nil {
				printIssues(cmd.OutOrStdout(), err)
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaName, "schema", "s", chatschema.ChatCompletionRequestSchema.Name(), "schema name, as listed by the schemas command")
	return cmd
}

func sortedSchemaNames() []string {
	names := chatschema.SchemaNames()
	sort.Strings(names)
	return names
}
