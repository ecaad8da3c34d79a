// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for jelly.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.jelly/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete jelly configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server" json:"server"`

	// Ollama configuration
	Ollama OllamaConfig `toml:"ollama" json:"ollama"`

	// Chat (generation) configuration
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Locale configuration
	Locale LocaleConfig `toml:"locale" json:"locale"`

	// Logging configuration
	Log LogConfig `toml:"log" json:"log"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// ListenAddr is the host:port the HTTP server binds to
	ListenAddr string `toml:"listen_addr" json:"listen_addr"`
	// ShareHost is the public hostname used when formatting share links
	ShareHost string `toml:"share_host" json:"share_host"`
	// DataDir is the directory for thread snapshots (empty = in-memory only)
	DataDir string `toml:"data_dir" json:"data_dir"`
	// RateLimitRPS is the per-client request rate limit (0 = disabled)
	RateLimitRPS float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance
	RateLimitBurst int `toml:"rate_limit_burst" json:"rate_limit_burst"`
	// MaxBodyBytes caps request body size
	MaxBodyBytes int64 `toml:"max_body_bytes" json:"max_body_bytes"`
}

// OllamaConfig contains Ollama connection configuration.
type OllamaConfig struct {
	// URL is the Ollama server URL
	URL string `toml:"url" json:"url"`
	// TimeoutSecs is the timeout for non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// ChatConfig contains generation configuration.
type ChatConfig struct {
	// DefaultModel is the model selected at startup
	DefaultModel string `toml:"default_model" json:"default_model"`
	// Persona is the system prompt sent with every request
	Persona string `toml:"persona" json:"persona"`
	// ContextWindow is the number of trailing messages sent to the model
	ContextWindow int `toml:"context_window" json:"context_window"`
	// StreamTimeoutSecs bounds a single generation end to end
	StreamTimeoutSecs int `toml:"stream_timeout_secs" json:"stream_timeout_secs"`
	// NumPredict caps generated tokens per response
	NumPredict int `toml:"num_predict" json:"num_predict"`
	// Temperature is the sampling temperature
	Temperature float64 `toml:"temperature" json:"temperature"`
	// TopP is the nucleus sampling parameter
	TopP float64 `toml:"top_p" json:"top_p"`
}

// LocaleConfig contains localization configuration.
type LocaleConfig struct {
	// File is an optional TOML file of language-table overrides
	File string `toml:"file" json:"file"`
	// Watch reloads the override file on change
	Watch bool `toml:"watch" json:"watch"`
	// Default is the startup UI language code
	Default string `toml:"default" json:"default"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `toml:"level" json:"level"`
	// Format is the output encoding: "json" or "console"
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:8080",
			ShareHost:      "jelly.com",
			DataDir:        "", // filled from ~/.jelly at load time
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			MaxBodyBytes:   1 << 20, // 1 MiB
		},

		Ollama: OllamaConfig{
			URL:         "http://127.0.0.1:11434",
			TimeoutSecs: 30,
		},

		Chat: ChatConfig{
			DefaultModel:      "llama3.1",
			Persona:           "You are 🪼 Jelly, a helpful AI assistant.",
			ContextWindow:     8,
			StreamTimeoutSecs: 120,
			NumPredict:        256,
			Temperature:       0.7,
			TopP:              0.9,
		},

		Locale: LocaleConfig{
			File:    "",
			Watch:   true,
			Default: "en",
		},

		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the jelly configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".jelly"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.jelly/config.toml, falling back to
// defaults when the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.ListenAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "server.listen_addr",
			Message: "must not be empty",
		})
	}

	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_rps",
			Message: "must be non-negative",
		})
	}

	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, ValidationError{
			Field:   "server.max_body_bytes",
			Message: "must be positive",
		})
	}

	if c.Ollama.URL != "" {
		if _, err := url.Parse(c.Ollama.URL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "ollama.url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	if c.Chat.ContextWindow < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.context_window",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Chat.ContextWindow),
		})
	}

	if c.Chat.StreamTimeoutSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.stream_timeout_secs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Chat.StreamTimeoutSecs),
		})
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "chat.temperature",
			Message: "must be between 0.0 and 2.0",
		})
	}

	if c.Chat.TopP < 0 || c.Chat.TopP > 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.top_p",
			Message: "must be between 0.0 and 1.0",
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, console", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if c.Server.ShareHost == "" {
		c.Server.ShareHost = defaults.Server.ShareHost
	}
	if c.Server.DataDir == "" {
		if dir, err := ConfigDir(); err == nil {
			c.Server.DataDir = filepath.Join(dir, "data")
		}
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaults.Server.MaxBodyBytes
	}

	if c.Ollama.URL == "" {
		c.Ollama.URL = defaults.Ollama.URL
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = defaults.Ollama.TimeoutSecs
	}

	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = defaults.Chat.DefaultModel
	}
	if c.Chat.Persona == "" {
		c.Chat.Persona = defaults.Chat.Persona
	}
	if c.Chat.ContextWindow == 0 {
		c.Chat.ContextWindow = defaults.Chat.ContextWindow
	}
	if c.Chat.StreamTimeoutSecs == 0 {
		c.Chat.StreamTimeoutSecs = defaults.Chat.StreamTimeoutSecs
	}
	if c.Chat.NumPredict == 0 {
		c.Chat.NumPredict = defaults.Chat.NumPredict
	}
	if c.Chat.Temperature == 0 {
		c.Chat.Temperature = defaults.Chat.Temperature
	}
	if c.Chat.TopP == 0 {
		c.Chat.TopP = defaults.Chat.TopP
	}

	if c.Locale.Default == "" {
		c.Locale.Default = defaults.Locale.Default
	}

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - JELLY_LISTEN_ADDR: overrides server.listen_addr
//   - JELLY_SHARE_HOST: overrides server.share_host
//   - JELLY_DATA_DIR: overrides server.data_dir
//   - JELLY_OLLAMA_URL: overrides ollama.url
//   - JELLY_MODEL: overrides chat.default_model
//   - JELLY_LOCALE_FILE: overrides locale.file
//   - JELLY_LOG_LEVEL: overrides log.level
//   - JELLY_STREAM_TIMEOUT_SECS: overrides chat.stream_timeout_secs
func (c *Config) ApplyEnvOverrides() {
	if addr := os.Getenv("JELLY_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if host := os.Getenv("JELLY_SHARE_HOST"); host != "" {
		c.Server.ShareHost = host
	}
	if dir := os.Getenv("JELLY_DATA_DIR"); dir != "" {
		c.Server.DataDir = dir
	}
	if url := os.Getenv("JELLY_OLLAMA_URL"); url != "" {
		c.Ollama.URL = url
	}
	if model := os.Getenv("JELLY_MODEL"); model != "" {
		c.Chat.DefaultModel = model
	}
	if file := os.Getenv("JELLY_LOCALE_FILE"); file != "" {
		c.Locale.File = file
	}
	if level := os.Getenv("JELLY_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if secs := os.Getenv("JELLY_STREAM_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			c.Chat.StreamTimeoutSecs = n
		}
	}
}

// =============================================================================
// DURATION HELPERS
// =============================================================================

// OllamaTimeout returns the Ollama request timeout as a duration.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

// StreamTimeout returns the per-generation timeout as a duration.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.Chat.StreamTimeoutSecs) * time.Second
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# jelly configuration file")
	fmt.Fprintln(file, "# Generated by jelly - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
