package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Email       EmailConfig       `yaml:"email"`
	Application ApplicationConfig `yaml:"application"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// EmailConfig holds outbound email provider configuration
type EmailConfig struct {
	BaseURL        string `yaml:"base_url"`
	Sender         string `yaml:"sender"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c EmailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ApplicationConfig holds application-level settings
type ApplicationConfig struct {
	// BaseURL is the public URL confirmation links point back to.
	BaseURL     string `yaml:"base_url"`
	TemplateDir string `yaml:"template_dir"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Email.TimeoutSeconds == 0 {
		cfg.Email.TimeoutSeconds = 10
	}
	if cfg.Email.BaseURL == "" {
		cfg.Email.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.Application.TemplateDir == "" {
		cfg.Application.TemplateDir = "templates"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if apiKey := os.Getenv("EMAIL_API_KEY"); apiKey != "" {
		cfg.Email.APIKey = apiKey
	}
	if baseURL := os.Getenv("EMAIL_BASE_URL"); baseURL != "" {
		cfg.Email.BaseURL = baseURL
	}
	if sender := os.Getenv("EMAIL_SENDER"); sender != "" {
		cfg.Email.Sender = sender
	}
	if baseURL := os.Getenv("APP_BASE_URL"); baseURL != "" {
		cfg.Application.BaseURL = baseURL
	}

	return cfg, nil
}
