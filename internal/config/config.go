// Package config loads application settings from environment variables with
// defaults, and validates them on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Upload  UploadConfig
	Preview PreviewConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings for `datasweeper serve`.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds a single request through chi's Timeout middleware (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig limits what a single request may carry.
type UploadConfig struct {
	// MaxFileSize is the maximum request body in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// MaxFiles is the maximum number of files per inspect request (default: 20)
	MaxFiles int `env:"UPLOAD_MAX_FILES" default:"20"`
}

// PreviewConfig controls what the shells show before converting.
type PreviewConfig struct {
	// Rows is the number of leading rows in a preview (default: 5)
	Rows int `env:"PREVIEW_ROWS" default:"5"`

	// ChartColumns is the number of numeric columns charted (default: 2)
	ChartColumns int `env:"CHART_COLUMNS" default:"2"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// SeqURL enables shipping logs to a Seq server when set
	SeqURL string `env:"LOG_SEQ_URL"`

	// File receives logs in the interactive shell, which owns the terminal
	File string `env:"LOG_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
