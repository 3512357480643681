package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "projects.csv", cfg.Dataset.FallbackFile)
	assert.Equal(t, int64(10<<20), cfg.Dataset.MaxUploadBytes)
	assert.Equal(t, "both", cfg.Logging.Output)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PMO_SERVER_PORT", "9191")
	t.Setenv("PMO_DATASET_DATA_DIR", "/var/lib/pmopulse")
	t.Setenv("PMO_DATASET_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("PMO_SECURITY_RATE_LIMIT_RPS", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "/var/lib/pmopulse", cfg.Dataset.DataDir)
	assert.Equal(t, int64(1<<20), cfg.Dataset.MaxUploadBytes)
	assert.Equal(t, float64(25), cfg.Security.RateLimit.RPS)

	// Untouched sections keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.WebSocket.PingPeriod)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	content := []byte("server:\n  port: 9000\ndataset:\n  fallback_file: register.csv\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	t.Setenv("PMO_SERVER_PORT", "9500")

	cfg, err := Load()
	require.NoError(t, err)

	// Env wins over file, file wins over defaults.
	assert.Equal(t, 9500, cfg.Server.Port)
	assert.Equal(t, "register.csv", cfg.Dataset.FallbackFile)
	assert.Equal(t, "data", cfg.Dataset.DataDir)
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port out of range", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "zero read timeout", mutate: func(c *Config) { c.Server.ReadTimeout = 0 }},
		{name: "no allowed origins", mutate: func(c *Config) { c.Security.AllowedOrigins = nil }},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "empty data dir", mutate: func(c *Config) { c.Dataset.DataDir = "" }},
		{name: "zero upload cap", mutate: func(c *Config) { c.Dataset.MaxUploadBytes = 0 }},
		{name: "file output without path", mutate: func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestFallbackPath(t *testing.T) {
	cfg := Default()
	cfg.Dataset.DataDir = "/srv/pmo/data"
	assert.Equal(t, filepath.Join("/srv/pmo/data", "projects.csv"), cfg.FallbackPath())

	cfg.Dataset.FallbackFile = "/mnt/share/register.csv"
	assert.Equal(t, "/mnt/share/register.csv", cfg.FallbackPath())
}
