// Package config handles configuration for learnchat.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/diogo/learnchat/internal/models"
)

// MarkdownConfig configures markdown rendering options
type MarkdownConfig struct {
	Style            string `json:"style" env:"GLAMOUR_STYLE"` // "dark", "light", "dracula", "notty", "ascii"
	Enabled          bool   `json:"enabled"`                   // Render reports and help through glamour
	EnableEmoji      bool   `json:"enable_emoji"`
	PreserveNewLines bool   `json:"preserve_newlines"`
	TableWrap        bool   `json:"table_wrap"`
	InlineTableLinks bool   `json:"inline_table_links"`
}

// ServerConfig configures the backend started by "learnchat serve"
type ServerConfig struct {
	Host          string `json:"host" env:"HOST"`
	Port          int    `json:"port" env:"PORT"`
	DatabasePath  string `json:"database_path" env:"LEARNCHAT_DB"`
	ResponsesPath string `json:"responses_path,omitempty" env:"LEARNCHAT_RESPONSES"` // YAML demo-response overrides
	// OpenAIKey is never written to disk; it only comes from the environment.
	OpenAIKey   string  `json:"-" env:"OPENAI_API_KEY"`
	OpenAIModel string  `json:"openai_model" env:"LEARNCHAT_OPENAI_MODEL"`
	MaxTokens   int     `json:"max_tokens" env:"LEARNCHAT_MAX_TOKENS"`
	Temperature float64 `json:"temperature" env:"LEARNCHAT_TEMPERATURE"`
	// RateLimit is the sustained requests per second allowed per client address.
	RateLimit float64 `json:"rate_limit" env:"LEARNCHAT_RATE_LIMIT"`
	RateBurst int     `json:"rate_burst" env:"LEARNCHAT_RATE_BURST"`
	// TrustedProxies are addresses or CIDR ranges allowed to name the client
	// in X-Forwarded-For. Empty means the connection address is always used.
	TrustedProxies []string `json:"trusted_proxies,omitempty" env:"LEARNCHAT_TRUSTED_PROXIES" envSeparator:","`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Config represents the user configuration
type Config struct {
	// ServerURL is the base URL of the backend the chat widget posts to.
	ServerURL string `json:"server_url" env:"LEARNCHAT_SERVER_URL"`
	// TimeoutSeconds bounds a single exchange. The widget never cancels on
	// its own; this is the transport's ceiling.
	TimeoutSeconds  int    `json:"timeout_seconds" env:"LEARNCHAT_TIMEOUT"`
	Placeholder     string `json:"placeholder,omitempty"`
	Verbose         bool   `json:"verbose" env:"LEARNCHAT_VERBOSE"`
	CopyToClipboard bool   `json:"copy_to_clipboard"`
	TUITheme        string `json:"tui_theme,omitempty"`

	Markdown MarkdownConfig `json:"markdown,omitempty"`
	Server   ServerConfig   `json:"server"`
}

// DefaultMarkdownConfig returns the default markdown configuration
func DefaultMarkdownConfig() MarkdownConfig {
	return MarkdownConfig{
		Style:            "dark",
		Enabled:          true,
		EnableEmoji:      true,
		PreserveNewLines: true,
		TableWrap:        true,
		InlineTableLinks: false,
	}
}

// DefaultServerConfig returns the default backend configuration
func DefaultServerConfig() ServerConfig {
	dbPath := filepath.Join("data", "knowledge.db")
	if dir, err := GetConfigDir(); err == nil {
		dbPath = filepath.Join(dir, "knowledge.db")
	}
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         5000,
		DatabasePath: dbPath,
		OpenAIModel:  "gpt-3.5-turbo",
		MaxTokens:    500,
		Temperature:  0.7,
		RateLimit:    2,
		RateBurst:    5,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		ServerURL:       models.DefaultServerURL,
		TimeoutSeconds:  60,
		Placeholder:     models.PlaceholderText,
		Verbose:         false,
		CopyToClipboard: false,
		TUITheme:        "tokyonight",
		Markdown:        DefaultMarkdownConfig(),
		Server:          DefaultServerConfig(),
	}
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".learnchat"), nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads the configuration from disk, then applies environment
// overrides. A missing file is not an error.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize fills zero values a hand-edited file may leave behind
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = def.TimeoutSeconds
	}
	if c.Placeholder == "" {
		c.Placeholder = def.Placeholder
	}
	if c.Server.Port <= 0 {
		c.Server.Port = def.Server.Port
	}
	if c.Server.DatabasePath == "" {
		c.Server.DatabasePath = def.Server.DatabasePath
	}
	if c.Server.OpenAIModel == "" {
		c.Server.OpenAIModel = def.Server.OpenAIModel
	}
	if c.Server.MaxTokens <= 0 {
		c.Server.MaxTokens = def.Server.MaxTokens
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = def.Server.RateBurst
	}
}

// SaveConfig saves the configuration to disk
func SaveConfig(cfg Config) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.json")

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
