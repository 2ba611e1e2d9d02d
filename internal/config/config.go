// Package config loads blitzscan settings from defaults, an optional YAML
// file, .env files and BLITZSCAN_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"blitzscan/internal/utils"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	ConfigName = "blitzscan"
	EnvPrefix  = "BLITZSCAN"
)

type Config struct {
	Backend  BackendConfig
	Auth     AuthConfig
	Whois    WhoisConfig
	Fuzz     FuzzConfig
	Scan     ScanConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Log      LogConfig
	Events   EventsConfig
	Discord  DiscordConfig
	Server   ServerConfig
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type AuthConfig struct {
	URL     string
	Timeout time.Duration
}

type WhoisConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// FuzzConfig tunes directory fuzzing. SensitivePatternsFile replaces the
// built-in sensitive path catalogue with one regular expression per line.
type FuzzConfig struct {
	PlaceholderFallback   bool
	SensitivePatternsFile string
}

type ScanConfig struct {
	MaxConcurrent int
}

type StorageConfig struct {
	Driver string
	Path   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type EventsConfig struct {
	NATSURL string
	Subject string
}

type DiscordConfig struct {
	Token     string
	ChannelID string
}

type ServerConfig struct {
	Port int
	Mode string
}

// Defaults is the baseline every other source overrides.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"backend.url":                  "http://localhost:5000",
		"backend.timeout":              "5m",
		"auth.url":                     "http://localhost:3001",
		"auth.timeout":                 "30s",
		"whois.max_retries":            3,
		"whois.base_delay":             "2s",
		"fuzz.placeholder_fallback":    false,
		"fuzz.sensitive_patterns_file": "",
		"scan.max_concurrent":          4,
		"storage.driver":               "file",
		"storage.path":                 "",
		"redis.addr":                   "localhost:6379",
		"redis.password":               "",
		"redis.db":                     0,
		"redis.prefix":                 "blitzscan:",
		"database.enabled":             false,
		"database.host":                "localhost",
		"database.port":                5432,
		"database.user":                "blitzscan",
		"database.password":            "blitzscan",
		"database.name":                "blitzscan",
		"database.sslmode":             "disable",
		"log.level":                    "info",
		"log.format":                   "text",
		"log.file":                     "",
		"log.max_size_mb":              10,
		"log.max_backups":              3,
		"log.max_age_days":             28,
		"events.nats_url":              "",
		"events.subject":               "blitzscan.scan",
		"server.port":                  8080,
		"server.mode":                  "release",
	}
}

// legacyEnv maps keys to unprefixed variables that are also honoured.
var legacyEnv = map[string]string{
	"discord.token":      "DISCORD_TOKEN",
	"discord.channel_id": "DISCORD_CHANNEL_ID",
	"database.host":      "DB_HOST",
	"database.port":      "DB_PORT",
	"database.user":      "DB_USER",
	"database.password":  "DB_PASSWORD",
	"database.name":      "DB_NAME",
	"events.nats_url":    "NATS_URL",
}

// Load reads configuration. path may name a file or a directory; when empty
// the standard search paths are used and a missing file is not an error.
func Load(path string) (*Config, *viper.Viper, error) {
	if err := loadDotEnv(".env", ".env.local"); err != nil {
		return nil, nil, err
	}

	configPath := path
	if configPath == "" {
		configPath = utils.GetConfigPath()
	}

	v, err := utils.NewViperConfigWithOptions(utils.ConfigOptions{
		ConfigPath:  configPath,
		ConfigName:  ConfigName,
		ConfigType:  "yaml",
		EnvPrefix:   EnvPrefix,
		DefaultsMap: Defaults(),
		Optional:    path == "",
	})
	if err != nil {
		return nil, nil, err
	}

	for key, env := range legacyEnv {
		if err := v.BindEnv(key, EnvPrefix+"_"+envKey(key), env); err != nil {
			return nil, nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg, err := FromViper(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func envKey(key string) string {
	out := []byte(key)
	for i, c := range out {
		switch {
		case c == '.':
			out[i] = '_'
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		}
	}
	return string(out)
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Backend: BackendConfig{
			URL:     v.GetString("backend.url"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Auth: AuthConfig{
			URL:     v.GetString("auth.url"),
			Timeout: v.GetDuration("auth.timeout"),
		},
		Whois: WhoisConfig{
			MaxRetries: v.GetInt("whois.max_retries"),
			BaseDelay:  v.GetDuration("whois.base_delay"),
		},
		Fuzz: FuzzConfig{
			PlaceholderFallback:   v.GetBool("fuzz.placeholder_fallback"),
			SensitivePatternsFile: v.GetString("fuzz.sensitive_patterns_file"),
		},
		Scan: ScanConfig{
			MaxConcurrent: v.GetInt("scan.max_concurrent"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("storage.driver"),
			Path:   v.GetString("storage.path"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Prefix:   v.GetString("redis.prefix"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("database.enabled"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Events: EventsConfig{
			NATSURL: v.GetString("events.nats_url"),
			Subject: v.GetString("events.subject"),
		},
		Discord: DiscordConfig{
			Token:     v.GetString("discord.token"),
			ChannelID: v.GetString("discord.channel_id"),
		},
		Server: ServerConfig{
			Port: v.GetInt("server.port"),
			Mode: v.GetString("server.mode"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	for field, raw := range map[string]string{"backend.url": c.Backend.URL, "auth.url": c.Auth.URL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.NewConfigError(field, raw, "must be an absolute http(s) url")
		}
	}
	if c.Whois.MaxRetries < 0 {
		return errors.NewConfigError("whois.max_retries", c.Whois.MaxRetries, "must not be negative")
	}
	if c.Whois.BaseDelay < 0 {
		return errors.NewConfigError("whois.base_delay", c.Whois.BaseDelay, "must not be negative")
	}
	if c.Scan.MaxConcurrent < 1 {
		return errors.NewConfigError("scan.max_concurrent", c.Scan.MaxConcurrent, "must be at least 1")
	}
	switch c.Storage.Driver {
	case "file", "redis", "memory":
	default:
		return errors.NewConfigError("storage.driver", c.Storage.Driver, "must be one of file, redis, memory")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.NewConfigError("log.level", c.Log.Level, err.Error())
	}
	return nil
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// LoggerOptions translates the log section for logger.NewLoggerWithOptions.
func (c *Config) LoggerOptions() logger.Options {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	return logger.Options{
		Level:      level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// Watch reloads the configuration whenever the file backing v changes and
// hands the new value to onChange. Invalid edits are logged and skipped.
func Watch(v *viper.Viper, l *logger.Logger, onChange func(*Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := FromViper(v)
		if err != nil {
			l.WithError(err).WithField("file", e.Name).Warn("ignoring invalid configuration change")
			return
		}
		l.WithField("file", e.Name).Info("configuration reloaded")
		onChange(cfg)
	})
	v.WatchConfig()
}

// ApplyLogLevel is the usual Watch callback: it keeps l at the configured level.
func ApplyLogLevel(l *logger.Logger) func(*Config) {
	return func(cfg *Config) {
		l.SetLevel(cfg.LoggerOptions().Level)
	}
}
