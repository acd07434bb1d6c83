package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juburr/openai-chat-schema/goopenai"
	"github.com/juburr/openai-chat-schema/internal/config"
)

func newFormatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [file|-]",
		Short: "Validate a chat-completion request and print the formatted upstream payload",
		Long: `format validates a ChatCompletionRequest document and prints either the
formatted message list, openai-go request parameters, or a go-openai request.

The request's systemPrompt field wins over --format.system_prompt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args, a.cfg.Input.Format)
			if err != nil {
				return err
			}

			req, err := a.adapter.ParseRequest(doc)
			if err != nil {
				printIssues(cmd.OutOrStdout(), err)
				return err
			}

			var out any
			switch a.cfg.Format.Output {
			case config.OutputOpenAI:
				params, err := a.adapter.TransformCompletionsRequestWithContext(cmd.Context(), req)
				if err != nil {
					return err
				}
				out = params
			case config.OutputGoOpenAI:
				out = goopenai.NewChatCompletionRequest(req, a.cfg.Format.SystemPrompt)
			default:
				var prompt string
				if req.SystemPrompt != nil {
					prompt = *req.SystemPrompt
				}
				out = a.adapter.FormatMessages(req.Messages, prompt)
			}

			encoded, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return fmt.Errorf("encode output: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().String("format.output", config.DefaultOutputFormat, "output shape (messages, openai, go-openai)")
	return cmd
}
