package config

import (
	"time"

	"golang-stock-rater/pkg/config"
)

// Rater holds the batch scoring pipeline configuration.
type Rater struct {
	StockList         string        `mapstructure:"stock_list"`
	OutputDir         string        `mapstructure:"output_dir"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	Timeout           time.Duration `mapstructure:"timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// AI selects the model provider.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Ollama holds the configuration for a local Ollama server.
type Ollama struct {
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string  `mapstructure:"api_key"`
	BaseURL             string  `mapstructure:"base_url"`
	Model               string  `mapstructure:"model"`
	Temperature         float64 `mapstructure:"temperature"`
	MaxRequestPerMinute int     `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int     `mapstructure:"max_token_per_minute"`
}

// Quotes holds the market data client configuration.
type Quotes struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the rating service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Rater    Rater           `mapstructure:"rater"`
	AI       AI              `mapstructure:"ai"`
	Ollama   Ollama          `mapstructure:"ollama"`
	Gemini   Gemini          `mapstructure:"gemini"`
	Quotes   Quotes          `mapstructure:"quotes"`
	Telegram Telegram        `mapstructure:"telegram"`
}

// Load loads the rater configuration from the given path and applies
// defaults for unset fields.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}

	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Rater.OutputDir == "" {
		cfg.Rater.OutputDir = "report"
	}
	if cfg.Rater.MaxAttempts <= 0 {
		cfg.Rater.MaxAttempts = 3
	}
	if cfg.Rater.Timeout <= 0 {
		cfg.Rater.Timeout = 120 * time.Second
	}
	if cfg.Rater.PollInterval <= 0 {
		cfg.Rater.PollInterval = 200 * time.Millisecond
	}
	if cfg.Rater.HeartbeatInterval <= 0 {
		cfg.Rater.HeartbeatInterval = 5 * time.Second
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "ollama"
	}
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = "http://localhost:11434"
	}
	if cfg.Ollama.Model == "" {
		cfg.Ollama.Model = "deepseek-r1:8b"
	}
	if cfg.Ollama.Temperature == 0 {
		cfg.Ollama.Temperature = 0.7
	}
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	if cfg.Gemini.Temperature == 0 {
		cfg.Gemini.Temperature = 0.7
	}
	if cfg.Gemini.MaxRequestPerMinute <= 0 {
		cfg.Gemini.MaxRequestPerMinute = 10
	}
	if cfg.Gemini.MaxTokenPerMinute <= 0 {
		cfg.Gemini.MaxTokenPerMinute = 250000
	}
	if cfg.Quotes.CacheTTL <= 0 {
		cfg.Quotes.CacheTTL = time.Minute
	}

	return &cfg, nil
}
