package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Store     StoreConfig     `yaml:"store"`
	Uploads   UploadsConfig   `yaml:"uploads"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	LogLevel  string          `yaml:"log_level"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int    `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Host           string `yaml:"host"`
}

// Timeout returns the configured request timeout as a duration
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// OpenAIConfig holds the optional answering-service configuration
type OpenAIConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// StoreConfig holds dataset handle store configuration
type StoreConfig struct {
	Type      string `yaml:"type"` // "memory" or "redis"
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// UploadsConfig holds stored-file and upload-index configuration
type UploadsConfig struct {
	Dir      string `yaml:"dir"`
	IndexCap int    `yaml:"index_cap"`
}

// AnalyticsConfig holds the metric window sizes and the anomaly threshold.
// Zero values take the standard defaults.
type AnalyticsConfig struct {
	WeeklyWeeks    int     `yaml:"weekly_weeks"`
	DailyDays      int     `yaml:"daily_days"`
	TrendingTop    int     `yaml:"trending_top"`
	ReorderTop     int     `yaml:"reorder_top"`
	AnomalyTop     int     `yaml:"anomaly_top"`
	AnomalySigma   float64 `yaml:"anomaly_sigma"`
	MinAnomalyDays int     `yaml:"min_anomaly_days"`
}

// Load reads and parses the configuration file. A missing file yields the
// defaults so the server can run with zero configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 60
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.TimeoutSeconds == 0 {
		cfg.OpenAI.TimeoutSeconds = 30
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "memory"
	}
	if cfg.Store.RedisAddr == "" {
		cfg.Store.RedisAddr = "localhost:6379"
	}
	if cfg.Uploads.Dir == "" {
		cfg.Uploads.Dir = "uploads"
	}
	if cfg.Uploads.IndexCap == 0 {
		cfg.Uploads.IndexCap = 50
	}
	if cfg.Analytics.WeeklyWeeks == 0 {
		cfg.Analytics.WeeklyWeeks = 6
	}
	if cfg.Analytics.DailyDays == 0 {
		cfg.Analytics.DailyDays = 14
	}
	if cfg.Analytics.TrendingTop == 0 {
		cfg.Analytics.TrendingTop = 8
	}
	if cfg.Analytics.ReorderTop == 0 {
		cfg.Analytics.ReorderTop = 10
	}
	if cfg.Analytics.AnomalyTop == 0 {
		cfg.Analytics.AnomalyTop = 5
	}
	if cfg.Analytics.AnomalySigma == 0 {
		cfg.Analytics.AnomalySigma = 2.0
	}
	if cfg.Analytics.MinAnomalyDays == 0 {
		cfg.Analytics.MinAnomalyDays = 7
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
		cfg.OpenAI.Enabled = true
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
		cfg.Store.Type = "redis"
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Uploads.Dir = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
