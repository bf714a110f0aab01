package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     Log     `yaml:"log"`
	HTTP    HTTP    `yaml:"http"`
	MCP     MCP     `yaml:"mcp"`
	Session Session `yaml:"session"`
}

type HTTP struct {
	// Listen address of the JSON API
	Listen string `yaml:"listen" example:"127.0.0.1:8080" validate:"required"`
	// Disable the HTTP API entirely
	Disabled bool `yaml:"disabled" example:"false"`
}

type MCP struct {
	// Serve chat tools over stdio
	Enabled bool `yaml:"enabled" example:"false"`
}

type Session struct {
	// Initially selected model id, defaults to the first catalog entry
	Model string `yaml:"model" example:"nova-3"`
	// Initial tone
	Tone string `yaml:"tone" example:"Balanced" validate:"omitempty,oneof=Balanced Concise Detailed Playful"`
	// Show message timestamps in the renderer
	ShowTimestamps *bool `yaml:"show_timestamps" example:"true"`
	// Simulate reply latency
	SimulateDelay *bool `yaml:"simulate_delay" example:"true"`
	// Replaces the built-in model catalog when set
	Catalog []Model `yaml:"catalog" validate:"dive"`
}

type Model struct {
	ID          string `yaml:"id" example:"nova-3" validate:"required"`
	Label       string `yaml:"label" example:"Nova 3" validate:"required"`
	Description string `yaml:"description" example:"Fast general-purpose assistant"`
}

type Log struct {
	// Minimal console level
	Level string `yaml:"level" example:"info" validate:"oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890" validate:"required_with=Token"`
}

// Load reads the YAML config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, oops.Errorf("failed to read config file: %w", err)
	default:
		if err = yaml.Unmarshal(data, &result); err != nil {
			return nil, oops.Errorf("failed to parse YAML config: %w", err)
		}
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.HTTP.Listen == "" {
		cfg.HTTP.Listen = "127.0.0.1:8080"
	}
	if cfg.Session.Tone == "" {
		cfg.Session.Tone = "Balanced"
	}
	if cfg.Session.ShowTimestamps == nil {
		cfg.Session.ShowTimestamps = ptr(true)
	}
	if cfg.Session.SimulateDelay == nil {
		cfg.Session.SimulateDelay = ptr(true)
	}
}

func ptr[T any](v T) *T {
	return &v
}
