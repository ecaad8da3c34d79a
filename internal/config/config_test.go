// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	require.Equal(t, "127.0.0.1:8080", cfg.Server.ListenAddr)
	require.Equal(t, "jelly.com", cfg.Server.ShareHost)
	require.Equal(t, "llama3.1", cfg.Chat.DefaultModel)
	require.Equal(t, "You are 🪼 Jelly, a helpful AI assistant.", cfg.Chat.Persona)
	require.Equal(t, 8, cfg.Chat.ContextWindow)
	require.Equal(t, 256, cfg.Chat.NumPredict)
	require.InDelta(t, 0.7, cfg.Chat.Temperature, 1e-9)
	require.InDelta(t, 0.9, cfg.Chat.TopP, 1e-9)
	require.Equal(t, "http://127.0.0.1:11434", cfg.Ollama.URL)
	require.Equal(t, "en", cfg.Locale.Default)
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	require.Equal(t, 30*time.Second, cfg.OllamaTimeout())
	require.Equal(t, 120*time.Second, cfg.StreamTimeout())
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
listen_addr = "0.0.0.0:9999"
share_host = "chat.example.com"

[chat]
default_model = "mistral"
context_window = 4

[log]
level = "debug"
format = "console"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9999", cfg.Server.ListenAddr)
	require.Equal(t, "chat.example.com", cfg.Server.ShareHost)
	require.Equal(t, "mistral", cfg.Chat.DefaultModel)
	require.Equal(t, 4, cfg.Chat.ContextWindow)
	require.Equal(t, "debug", cfg.Log.Level)

	// Unset fields fall back to defaults.
	require.Equal(t, "http://127.0.0.1:11434", cfg.Ollama.URL)
	require.Equal(t, 256, cfg.Chat.NumPredict)
}

func TestLoadFromPath_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not valid = = toml"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }, "server.listen_addr"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimitRPS = -1 }, "server.rate_limit_rps"},
		{"zero body cap", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "server.max_body_bytes"},
		{"zero context window", func(c *Config) { c.Chat.ContextWindow = 0 }, "chat.context_window"},
		{"zero stream timeout", func(c *Config) { c.Chat.StreamTimeoutSecs = 0 }, "chat.stream_timeout_secs"},
		{"temperature too high", func(c *Config) { c.Chat.Temperature = 3 }, "chat.temperature"},
		{"top_p too high", func(c *Config) { c.Chat.TopP = 1.5 }, "chat.top_p"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.ListenAddr = ""
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var verrs ValidateErrors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("JELLY_LISTEN_ADDR", "127.0.0.1:7777")
	t.Setenv("JELLY_SHARE_HOST", "jelly.test")
	t.Setenv("JELLY_MODEL", "llama3")
	t.Setenv("JELLY_LOG_LEVEL", "warn")
	t.Setenv("JELLY_STREAM_TIMEOUT_SECS", "45")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "127.0.0.1:7777", cfg.Server.ListenAddr)
	require.Equal(t, "jelly.test", cfg.Server.ShareHost)
	require.Equal(t, "llama3", cfg.Chat.DefaultModel)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, 45, cfg.Chat.StreamTimeoutSecs)
}

func TestApplyEnvOverrides_BadTimeoutIgnored(t *testing.T) {
	t.Setenv("JELLY_STREAM_TIMEOUT_SECS", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	require.Equal(t, 120, cfg.Chat.StreamTimeoutSecs)
}
