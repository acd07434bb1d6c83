package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("log.level", DefaultLogLevel, "")
	cmd.Flags().String("format.output", DefaultOutputFormat, "")
	cmd.Flags().Bool("metrics.enabled", DefaultMetricsEnabled, "")
	return cmd
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	// nil cmd skips flags
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, "", cfg.Input.Format)
	assert.Equal(t, DefaultOutputFormat, cfg.Format.Output)
	assert.Equal(t, "", cfg.Format.SystemPrompt)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: info
format:
  system_prompt: "from file"
  output: openai
`), 0o600))

	t.Run("FileOverridesDefaults", func(t *testing.T) {
		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := Load(cmd)
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "from file", cfg.Format.SystemPrompt)
		assert.Equal(t, OutputOpenAI, cfg.Format.Output)
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("CHATSCHEMA_FORMAT_SYSTEM_PROMPT", "from env")
		t.Setenv("CHATSCHEMA_METRICS_ENABLED", "true")

		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := Load(cmd)
		require.NoError(t, err)
		assert.Equal(t, "from env", cfg.Format.SystemPrompt)
		assert.True(t, cfg.Metrics.Enabled)
	})

	t.Run("FlagsOverrideEverything", func(t *testing.T) {
		t.Setenv("CHATSCHEMA_LOG_LEVEL", "error")

		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("config", path))
		require.NoError(t, cmd.Flags().Set("log.level", "debug"))
		require.NoError(t, cmd.Flags().Set("format.output", OutputGoOpenAI))

		cfg, err := Load(cmd)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, OutputGoOpenAI, cfg.Format.Output)
	})

	t.Run("UnchangedFlagsKeepFileValues", func(t *testing.T) {
		cmd := newTestCommand()
		require.NoError(t, cmd.Flags().Set("config", path))

		cfg, err := Load(cmd)
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Log.Level)
	})
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := Load(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Log:    LogConfig{Level: "info"},
		Format: FormatConfig{Output: OutputMessages},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"BadLogLevel", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"BadInputFormat", func(c *Config) { c.Input.Format = "toml" }, "input.format"},
		{"BadOutput", func(c *Config) { c.Format.Output = "xml" }, "format.output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log.level", envKey("CHATSCHEMA_LOG_LEVEL"))
	assert.Equal(t, "format.system_prompt", envKey("CHATSCHEMA_FORMAT_SYSTEM_PROMPT"))
	assert.Equal(t, "metrics.enabled", envKey("CHATSCHEMA_METRICS_ENABLED"))
}
