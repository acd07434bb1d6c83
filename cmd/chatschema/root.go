package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	chatschema "github.com/juburr/openai-chat-schema"
	"github.com/juburr/openai-chat-schema/internal/config"
	"github.com/juburr/openai-chat-schema/internal/logger"
	"github.com/juburr/openai-chat-schema/prommetrics"
)

const metricsNamespace = "chatschema"

// app carries state built in PersistentPreRunE to the subcommands.
type app struct {
	cfg     *config.Config
	adapter *chatschema.Adapter
	reg     *prometheus.Registry
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatschema",
		Short: "Format and validate OpenAI chat-completion payloads",
		Long: `chatschema formats chat conversations into the message shape expected by
OpenAI-compatible chat-completion APIs and validates tool-calling request
and response bodies against named schemas.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			a.cfg = cfg

			log := logger.SetupWriter(cmd.ErrOrStderr(), cfg.Log.Level)

			opts := []chatschema.Option{
				chatschema.WithLogger(log),
				chatschema.WithSystemPrompt(cfg.Format.SystemPrompt),
			}
			if cfg.Metrics.Enabled {
				a.reg = prometheus.NewRegistry()
				rec, err := prommetrics.NewRecorder(a.reg, metricsNamespace)
				if err != nil {
					return err
				}
				opts = append(opts, chatschema.WithMetricsCallback(rec.Observe))
			}
			a.adapter = chatschema.New(opts...)
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file (default is $HOME/.chatschema/config.yaml)")
	root.PersistentFlags().String("log.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().String("input.format", "", "input format (json, yaml); detected from the file extension when empty")
	root.PersistentFlags().String("format.system_prompt", "", "default system prompt prepended to formatted messages")
	root.PersistentFlags().Bool("metrics.enabled", config.DefaultMetricsEnabled, "print Prometheus metrics to stderr on exit")

	root.AddCommand(
		newValidateCmd(a),
		newFormatCmd(a),
		newSchemasCmd(),
	)
	return root
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()

	if a.reg != nil {
		if dumpErr := dumpMetrics(stderr, a.reg); dumpErr != nil {
			fmt.Fprintln(stderr, "metrics:", dumpErr)
		}
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, chatschema.ErrShapeMismatch):
		// Issues were already printed
		return 1
	default:
		fmt.Fprintln(stderr, "Error:", err)
		return 2
	}
}

func dumpMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
