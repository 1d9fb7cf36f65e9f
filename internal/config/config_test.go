package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(104857600), cfg.Upload.MaxFileSize)
	assert.Equal(t, 20, cfg.Upload.MaxFiles)
	assert.Equal(t, 5, cfg.Preview.Rows)
	assert.Equal(t, 2, cfg.Preview.ChartColumns)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.SeqURL)
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SERVER_REQUEST_TIMEOUT", "5s")
	t.Setenv("PREVIEW_ROWS", "10")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_SEQ_URL", "http://localhost:5341")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10, cfg.Preview.Rows)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://localhost:5341", cfg.Logging.SeqURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"Non-numeric port", "SERVER_PORT", "http"},
		{"Bad duration", "SERVER_READ_TIMEOUT", "soon"},
		{"Port out of range", "SERVER_PORT", "70000"},
		{"Zero file size", "UPLOAD_MAX_FILE_SIZE", "0"},
		{"Unknown log level", "LOG_LEVEL", "loud"},
		{"Unknown log format", "LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "UPLOAD_MAX_FILE_SIZE")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestServerConfig_Addr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8080}
	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())

	cfg = ServerConfig{Port: 9000}
	assert.Equal(t, ":9000", cfg.Addr())
}

func TestMustLoad_Panics(t *testing.T) {
	t.Setenv("SERVER_PORT", "-1")
	assert.Panics(t, func() { MustLoad() })
}
