// Package config holds the client configuration: backend endpoint, call
// deadlines, probe cadence, UI theme, watch directory, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all docchat configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	UI      UIConfig      `yaml:"ui"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig points at the chat backend and carries the per-call
// deadline policy.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Durations as strings ("5s", "1m30s") so the file stays hand-editable.
	ProbeTimeout  string `yaml:"probe_timeout"`
	ChatTimeout   string `yaml:"chat_timeout"`
	UploadTimeout string `yaml:"upload_timeout"`
	ProbeInterval string `yaml:"probe_interval"`
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	Theme string `yaml:"theme"` // auto, light, dark
}

// WatchConfig configures the optional upload-candidate directory.
type WatchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoggingConfig configures the file logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // empty means ~/.docchat/docchat.log
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:       "http://localhost:8000",
			ProbeTimeout:  "5s",
			ChatTimeout:   "30s",
			UploadTimeout: "60s",
			ProbeInterval: "10s",
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Watch: WatchConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns ~/.docchat/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".docchat", "config.yaml")
	}
	return filepath.Join(home, ".docchat", "config.yaml")
}

// DefaultLogPath returns ~/.docchat/docchat.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".docchat", "docchat.log")
	}
	return filepath.Join(home, ".docchat", "docchat.log")
}

// Load loads configuration from a YAML file. A missing file is not an
// error: defaults apply, then environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file, creating the directory.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("DOCCHAT_BACKEND_URL"); url != "" {
		c.Backend.BaseURL = url
	}
	if theme := os.Getenv("DOCCHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if dir := os.Getenv("DOCCHAT_WATCH_DIR"); dir != "" {
		c.Watch.Enabled = true
		c.Watch.Dir = dir
	}
	if level := os.Getenv("DOCCHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("DOCCHAT_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
}

// GetProbeTimeout returns the probe deadline, 5s on a bad value.
func (c *Config) GetProbeTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.ProbeTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetChatTimeout returns the chat-send deadline, 30s on a bad value.
func (c *Config) GetChatTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.ChatTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetUploadTimeout returns the upload deadline, 60s on a bad value.
func (c *Config) GetUploadTimeout() time.Duration {
	d, err := time.ParseDuration(c.Backend.UploadTimeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetProbeInterval returns the probe cadence, 10s on a bad value.
func (c *Config) GetProbeInterval() time.Duration {
	d, err := time.ParseDuration(c.Backend.ProbeInterval)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetLogFile returns the log path, defaulting under the home directory.
func (c *Config) GetLogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return DefaultLogPath()
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	switch c.UI.Theme {
	case "auto", "light", "dark":
	default:
		return fmt.Errorf("ui.theme must be auto, light, or dark, got %q", c.UI.Theme)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Watch.Enabled && c.Watch.Dir == "" {
		return fmt.Errorf("watch.dir is required when watch.enabled is true")
	}
	for name, value := range map[string]string{
		"backend.probe_timeout":  c.Backend.ProbeTimeout,
		"backend.chat_timeout":   c.Backend.ChatTimeout,
		"backend.upload_timeout": c.Backend.UploadTimeout,
		"backend.probe_interval": c.Backend.ProbeInterval,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("%s: invalid duration %q", name, value)
		}
	}
	return nil
}
