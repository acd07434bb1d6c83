package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

const (
	DefaultLogLevel       = "warn"
	DefaultInputFormat    = InputFormatJSON
	DefaultOutputFormat   = OutputMessages
	DefaultMetricsEnabled = false

	EnvPrefix = "CHATSCHEMA_"
)

// Input formats accepted by the CLI.
const (
	InputFormatJSON = "json"
	InputFormatYAML = "yaml"
)

// Output shapes for the format command.
const (
	OutputMessages = "messages"
	OutputOpenAI   = "openai"
	OutputGoOpenAI = "go-openai"
)

type Config struct {
	Log     LogConfig     `koanf:"log"`
	Input   InputConfig   `koanf:"input"`
	Format  FormatConfig  `koanf:"format"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type InputConfig struct {
	// Format is "json" or "yaml". Empty means detect from the file extension.
	Format string `koanf:"format"`
}

type FormatConfig struct {
	SystemPrompt string `koanf:"system_prompt"`
	Output       string `koanf:"output"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Load merges defaults, the YAML config file, CHATSCHEMA_* environment
// variables and command-line flags, in increasing order of precedence.
// A nil cmd skips flags.
func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"log.level":            DefaultLogLevel,
		"input.format":         "",
		"format.system_prompt": "",
		"format.output":        DefaultOutputFormat,
		"metrics.enabled":      DefaultMetricsEnabled,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", configPath, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".chatschema", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// CLI Flags
	if cmd != nil {
		if err := k.Load(posflag.Provider(cmd.Flags(), ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps CHATSCHEMA_FORMAT_SYSTEM_PROMPT to format.system_prompt.
// Only the first underscore separates the section from the key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Validate rejects values the CLI cannot act on.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q: want debug, info, warn or error", c.Log.Level)
	}

	switch c.Input.Format {
	case "", InputFormatJSON, InputFormatYAML:
	default:
		return fmt.Errorf("invalid input.format %q: want json or yaml", c.Input.Format)
	}

	switch c.Format.Output {
	case OutputMessages, OutputOpenAI, OutputGoOpenAI:
	default:
		return fmt.Errorf("invalid format.output %q: want %s, %s or %s",
			c.Format.Output, OutputMessages, OutputOpenAI, OutputGoOpenAI)
	}
	return nil
}
