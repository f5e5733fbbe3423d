// Package config loads and exposes application configuration (TOML plus environment overrides).
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath     = "config.toml"
	DefaultHTTPAddr       = ":8080"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultMaxHistory     = 10
	DefaultWorkers        = 8
	DefaultQueueSize      = 256
	DefaultDedupTTLMin    = 10
	DefaultSearchBaseURL  = "https://www.googleapis.com/customsearch/v1"
	DefaultSearchTimeout  = 8
	DefaultGeneratePerMin = 60
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Server ServerConfig `toml:"server"`
	Line   LineConfig   `toml:"line"`
	Gemini GeminiConfig `toml:"gemini"`
	Search SearchConfig `toml:"search"`
	Chat   ChatConfig   `toml:"chat"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LineConfig holds LINE messaging credentials.
type LineConfig struct {
	ChannelAccessToken string `toml:"channel_access_token"`
	ChannelSecret      string `toml:"channel_secret"`
}

// GeminiConfig holds the Gemini API key, model identifier, and request budget.
type GeminiConfig struct {
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// SearchConfig holds the optional Google Custom Search credentials.
// Search enrichment is disabled entirely when APIKey or EngineID is empty.
type SearchConfig struct {
	APIKey         string `toml:"api_key"`
	EngineID       string `toml:"engine_id"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ChatConfig holds conversation memory and dispatch tuning.
type ChatConfig struct {
	MaxHistory      int `toml:"max_history"`
	Workers         int `toml:"workers"`
	QueueSize       int `toml:"queue_size"`
	DedupTTLMinutes int `toml:"dedup_ttl_minutes"`
}

// Load reads and parses the TOML config file at path, applies default values for
// missing fields, then applies environment overrides. A missing file is not an
// error: environment-only deployments are supported.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Gemini: GeminiConfig{
			Model:             DefaultGeminiModel,
			RequestsPerMinute: DefaultGeneratePerMin,
		},
		Search: SearchConfig{
			BaseURL:        DefaultSearchBaseURL,
			TimeoutSeconds: DefaultSearchTimeout,
		},
		Chat: ChatConfig{
			MaxHistory:      DefaultMaxHistory,
			Workers:         DefaultWorkers,
			QueueSize:       DefaultQueueSize,
			DedupTTLMinutes: DefaultDedupTTLMin,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides config fields from environment variables. Secrets are
// commonly injected this way on PaaS deployments.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"); v != "" {
		cfg.Line.ChannelAccessToken = v
	}
	if v := os.Getenv("LINE_CHANNEL_SECRET"); v != "" {
		cfg.Line.ChannelSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("GOOGLE_CSE_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("GOOGLE_CSE_CX"); v != "" {
		cfg.Search.EngineID = v
	}
	if v := os.Getenv("MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Chat.MaxHistory = n
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Addr = ":" + v
	}
}

// Validate checks that mandatory credentials are present. Called at startup so a
// misconfigured deployment fails fast with a clear diagnostic.
func (c Config) Validate() error {
	if c.Line.ChannelAccessToken == "" {
		return errors.New("line.channel_access_token (or LINE_CHANNEL_ACCESS_TOKEN) is required")
	}
	if c.Line.ChannelSecret == "" {
		return errors.New("line.channel_secret (or LINE_CHANNEL_SECRET) is required")
	}
	if c.Gemini.APIKey == "" {
		return errors.New("gemini.api_key (or GEMINI_API_KEY) is required")
	}
	return nil
}

// SearchEnabled reports whether the optional search enrichment is configured.
func (c Config) SearchEnabled() bool {
	return c.Search.APIKey != "" && c.Search.EngineID != ""
}
