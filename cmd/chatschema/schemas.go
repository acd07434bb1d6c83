package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	chatschema "github.com/juburr/openai-chat-schema"
)

func newSchemasCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "List the schema names accepted by validate",
		Long: `List the schema names accepted by validate.

With --json the full JSON Schema (draft 2020-12) document is printed instead;
each name is a definition under $defs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(chatschema.Document())
			}
			for _, name := range chatschema.SchemaNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the JSON Schema document")
	return cmd
}
