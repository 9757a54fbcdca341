package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	AI         AIConfig         `yaml:"ai"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Extract    ExtractConfig    `yaml:"extract"`
	Enrich     EnrichConfig     `yaml:"enrich"`
	LogLevel   string           `yaml:"log_level"`
}

// DatabaseConfig configures the relational store. Driver is "sqlite" or
// "postgres"; Path is the sqlite file, DSN the postgres connection string.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int    `yaml:"port"`
	AuthSecret    string `yaml:"auth_secret"`
	WebhookSecret string `yaml:"webhook_secret"`
}

// AIConfig configures the summarization model.
type AIConfig struct {
	Provider string `yaml:"provider"` // "openai" or "anthropic"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"` // custom endpoint (optional)
}

// TranscribeConfig configures video transcription.
type TranscribeConfig struct {
	Enabled        bool   `yaml:"enabled"`
	WhisperModel   string `yaml:"whisper_model"`
	WhisperAPIKey  string `yaml:"whisper_api_key"`
	WhisperBaseURL string `yaml:"whisper_base_url"`
	CaptionBaseURL string `yaml:"caption_base_url"`
}

// ExtractConfig configures the server-side extraction fallback.
type ExtractConfig struct {
	NitterURL     string `yaml:"nitter_url"`
	FetchArticles bool   `yaml:"fetch_articles"`
}

// EnrichConfig configures the enrichment pipeline.
type EnrichConfig struct {
	Timeout       string `yaml:"timeout"`
	SweepInterval string `yaml:"sweep_interval"`
	SweepMinAge   string `yaml:"sweep_min_age"`
}

// ParseTimeout returns the per-run enrichment timeout.
func (e EnrichConfig) ParseTimeout() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// ParseSweepInterval returns the re-enrichment sweep interval. Zero disables
// the sweeper.
func (e EnrichConfig) ParseSweepInterval() time.Duration {
	d, err := time.ParseDuration(e.SweepInterval)
	if err != nil {
		return 0
	}
	return d
}

// ParseSweepMinAge returns how old a placeholder must be before the sweeper
// re-drives it.
func (e EnrichConfig) ParseSweepMinAge() time.Duration {
	d, err := time.ParseDuration(e.SweepMinAge)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./tweetstash.db",
		},
		Server: ServerConfig{Port: 8080},
		AI: AIConfig{
			Provider: "anthropic",
			Model:    "claude-3-5-haiku-20241022",
		},
		Transcribe: TranscribeConfig{
			Enabled:      true,
			WhisperModel: "whisper-1",
		},
		Extract: ExtractConfig{
			NitterURL:     "https://nitter.net",
			FetchArticles: true,
		},
		Enrich: EnrichConfig{
			Timeout:       "2m",
			SweepInterval: "15m",
			SweepMinAge:   "10m",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TWEETSTASH_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TWEETSTASH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("TWEETSTASH_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TWEETSTASH_AUTH_SECRET"); v != "" {
		cfg.Server.AuthSecret = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Server.WebhookSecret = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.AI.APIKey == "" {
			cfg.AI.APIKey = v
			cfg.AI.Provider = "openai"
		}
		cfg.Transcribe.WhisperAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AI.APIKey = v
		cfg.AI.Provider = "anthropic"
	}
}
