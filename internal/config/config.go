package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию позволяют запуститься локально без ключа LLM
const (
	DefaultPort        = "8080"
	DefaultDatabaseURL = "sqlite://kam_assistant.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
)

// Config - основная конфигурация приложения
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// ServerConfig - настройки HTTP-сервера
type ServerConfig struct {
	Port    string `yaml:"port"`
	GinMode string `yaml:"gin_mode"` // debug, release, test
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	URL          string `yaml:"url"` // postgres://... или sqlite://path
	MaxOpenConns int    `yaml:"max_open_conns"`
	LogSQL       bool   `yaml:"log_sql"`
}

// AnalysisConfig - настройки внешнего chat-completion API
type AnalysisConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	RateLimitPerHour int    `yaml:"rate_limit_per_hour"` // 0 - без ограничения
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    DefaultPort,
			GinMode: "release",
		},
		Database: DatabaseConfig{
			URL: DefaultDatabaseURL,
		},
		Analysis: AnalysisConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
		},
	}
}

// Load загружает конфигурацию из YAML-файла (если он есть),
// затем .env и переменные окружения
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("[Config] Файл %s не найден, используются значения по умолчанию", path)
		default:
			return nil, err
		}
	}

	// .env необязателен
	_ = godotenv.Load()

	applyEnv(cfg)
	cfg.fillDefaults()
	return cfg, nil
}

// applyEnv - переопределение из переменных окружения
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.GinMode = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Analysis.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Analysis.Model = v
	}
	if v := os.Getenv("OPENAI_API_URL"); v != "" {
		cfg.Analysis.BaseURL = v
	}
	if v := os.Getenv("ANALYSIS_RATE_LIMIT_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Analysis.RateLimitPerHour = n
		}
	}
}

// fillDefaults восстанавливает пустые значения, обнулённые YAML-файлом
func (c *Config) fillDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Database.URL == "" {
		c.Database.URL = DefaultDatabaseURL
	}
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = DefaultBaseURL
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = DefaultModel
	}
}
