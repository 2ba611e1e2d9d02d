package config

import (
	"path/filepath"
	"testing"
	"time"

	"blitzscan/pkg/errors"
	"blitzscan/pkg/testutil"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "blitzscan-config-")
	defer cleanup()
	t.Setenv("BLITZSCAN_CONFIG_PATH", dir)

	cfg, v, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "http://localhost:5000", cfg.Backend.URL)
	assert.Equal(t, "http://localhost:3001", cfg.Auth.URL)
	assert.Equal(t, 3, cfg.Whois.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Whois.BaseDelay)
	assert.False(t, cfg.Fuzz.PlaceholderFallback)
	assert.Equal(t, 4, cfg.Scan.MaxConcurrent)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, 5*time.Minute, cfg.Backend.Timeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "blitzscan-config-")
	defer cleanup()

	path := testutil.CreateTestFile(t, dir, "blitzscan.yaml", `
backend:
  url: http://scanner.internal:5000
whois:
  max_retries: 1
  base_delay: 500ms
fuzz:
  placeholder_fallback: true
  sensitive_patterns_file: /etc/blitzscan/patterns.txt
storage:
  driver: memory
`)
	t.Setenv("BLITZSCAN_SCAN_MAX_CONCURRENT", "8")
	t.Setenv("DISCORD_TOKEN", "token-123")

	cfg, _, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://scanner.internal:5000", cfg.Backend.URL)
	assert.Equal(t, 1, cfg.Whois.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.Whois.BaseDelay)
	assert.True(t, cfg.Fuzz.PlaceholderFallback)
	assert.Equal(t, "/etc/blitzscan/patterns.txt", cfg.Fuzz.SensitivePatternsFile)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 8, cfg.Scan.MaxConcurrent)
	assert.Equal(t, "token-123", cfg.Discord.Token)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "blitzscan-config-")
	defer cleanup()

	_, _, err := Load(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"relative backend url", "backend.url", "localhost:5000"},
		{"negative retries", "whois.max_retries", -1},
		{"zero concurrency", "scan.max_concurrent", 0},
		{"unknown storage", "storage.driver", "sqlite"},
		{"bad log level", "log.level", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for key, value := range Defaults() {
				v.SetDefault(key, value)
			}
			v.Set(tt.key, tt.value)

			_, err := FromViper(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)

			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.key, cfgErr.Field)
		})
	}
}

func TestLoggerOptionsAndDSN(t *testing.T) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.Set("log.level", "debug")
	v.Set("log.format", "json")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	opts := cfg.LoggerOptions()
	assert.Equal(t, logrus.DebugLevel, opts.Level)
	assert.Equal(t, "json", opts.Format)
	assert.Equal(t, "host=localhost port=5432 user=blitzscan password=blitzscan dbname=blitzscan sslmode=disable", cfg.Database.DSN())
}
