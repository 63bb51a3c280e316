// Package config provides YAML-based configuration loading for the chatbot.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level chatbot configuration, loaded from chatbot.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Database DatabaseConfig `yaml:"database"`
	Sessions SessionConfig  `yaml:"sessions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// WhatsAppConfig holds credentials for the WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken   string `yaml:"access_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	APIVersion    string `yaml:"api_version"`
	VerifyToken   string `yaml:"verify_token"`
}

// DatabaseConfig holds connection settings for the Postgres server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// SessionConfig tunes the in-memory session table sweeper.
type SessionConfig struct {
	MaxIdleMinutes int    `yaml:"max_idle_minutes"`
	SweepSchedule  string `yaml:"sweep_schedule"` // 5-field cron expression
}

// Load reads a YAML config file from path and returns a validated Config.
// Credentials left empty in the file fall back to environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.WhatsApp.AccessToken == "" {
		c.WhatsApp.AccessToken = os.Getenv("WHATSAPP_ACCESS_TOKEN")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		c.WhatsApp.PhoneNumberID = os.Getenv("WHATSAPP_PHONE_NUMBER_ID")
	}
	if c.WhatsApp.APIVersion == "" {
		c.WhatsApp.APIVersion = "v19.0"
	}
	if c.WhatsApp.VerifyToken == "" {
		c.WhatsApp.VerifyToken = os.Getenv("WHATSAPP_VERIFY_TOKEN")
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.Password == "" {
		c.Database.Password = os.Getenv("DB_PASSWORD")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Sessions.MaxIdleMinutes == 0 {
		c.Sessions.MaxIdleMinutes = 30
	}
	if c.Sessions.SweepSchedule == "" {
		c.Sessions.SweepSchedule = "*/15 * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.WhatsApp.AccessToken == "" {
		errs = append(errs, "whatsapp.access_token is required")
	}
	if c.WhatsApp.PhoneNumberID == "" {
		errs = append(errs, "whatsapp.phone_number_id is required")
	}
	if c.WhatsApp.VerifyToken == "" {
		errs = append(errs, "whatsapp.verify_token is required")
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.Name == "" {
		errs = append(errs, "database.name is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
