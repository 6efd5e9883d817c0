package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	Storage   StorageConfig
	Apps      AppsConfig
	Window    WindowConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string   `envconfig:"PORT" default:"8000"`
	Host         string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// StorageConfig selects the session store backend.
type StorageConfig struct {
	Driver string `envconfig:"STORAGE_DRIVER" default:"memory"`
	Path   string `envconfig:"STORAGE_PATH" default:"./data"`
}

// AppsConfig locates app manifests.
type AppsConfig struct {
	Dir string `envconfig:"APPS_DIR" default:"./apps"`
}

// WindowConfig holds window manager tuning.
type WindowConfig struct {
	MinWidth       int           `envconfig:"WM_MIN_WIDTH" default:"200"`
	MinHeight      int           `envconfig:"WM_MIN_HEIGHT" default:"150"`
	CascadeBase    Offset        `envconfig:"WM_CASCADE_BASE" default:"50,50"`
	FrameInterval  time.Duration `envconfig:"WM_FRAME_INTERVAL" default:"16ms"`
	RestoreStagger time.Duration `envconfig:"WM_RESTORE_STAGGER" default:"50ms"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Offset is an "x,y" pair in pixels.
type Offset struct {
	X int
	Y int
}

// Decode implements envconfig.Decoder.
func (o *Offset) Decode(value string) error {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return fmt.Errorf("offset %q: want x,y", value)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return fmt.Errorf("offset %q: %w", value, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return fmt.Errorf("offset %q: %w", value, err)
	}
	o.X, o.Y = x, y
	return nil
}

// Validate rejects values the window manager cannot work with.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	if c.Window.MinWidth <= 0 || c.Window.MinHeight <= 0 {
		return fmt.Errorf("minimum window size must be positive, got %dx%d", c.Window.MinWidth, c.Window.MinHeight)
	}
	if c.Window.FrameInterval <= 0 {
		return errors.New("frame interval must be positive")
	}
	if c.Window.RestoreStagger < 0 {
		return errors.New("restore stagger must not be negative")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit rps and burst must be positive when enabled")
	}
	return nil
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8000",
			Host:         "0.0.0.0",
			AllowOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Path:   "./data",
		},
		Apps: AppsConfig{
			Dir: "./apps",
		},
		Window: WindowConfig{
			MinWidth:       200,
			MinHeight:      150,
			CascadeBase:    Offset{X: 50, Y: 50},
			FrameInterval:  16 * time.Millisecond,
			RestoreStagger: 50 * time.Millisecond,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
