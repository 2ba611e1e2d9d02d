// Package app assembles the components every command needs from the loaded
// configuration.
package app

import (
	"context"
	"fmt"
	"net/http"

	"blitzscan/internal/auth"
	"blitzscan/internal/backend"
	"blitzscan/internal/config"
	"blitzscan/internal/dao"
	"blitzscan/internal/database"
	"blitzscan/internal/events"
	"blitzscan/internal/history"
	"blitzscan/internal/notification"
	"blitzscan/internal/services"
	"blitzscan/internal/session"
	"blitzscan/internal/store"
	"blitzscan/pkg/engine"
	"blitzscan/pkg/errors"
	"blitzscan/pkg/hooks"
	"blitzscan/pkg/logger"
	"blitzscan/pkg/parsers"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Options are the global flags shared by all commands.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// App represents the main application
type App struct {
	Config  *config.Config
	Viper   *viper.Viper
	Logger  *logger.Logger
	Store   store.Store
	Session *session.Session
	Queue   *engine.ScanQueue
	Hooks   *hooks.Registry
	Scans   services.ScanServiceMethods
	Modules services.ConfigServiceMethods

	// Patterns is the sensitive path catalogue shared by hooks and reports.
	Patterns []parsers.SensitivePattern

	closers []func() error
}

// New loads the configuration and wires storage, session, backend client,
// engine, hooks and services. Optional integrations that fail to start are
// logged and skipped.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg, v, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logOpts := cfg.LoggerOptions()
	if opts.Verbose {
		logOpts.Level = logrus.DebugLevel
	}
	appLogger := logger.NewLoggerWithOptions(logOpts)
	logger.SetDefault(appLogger)

	a := &App{Config: cfg, Viper: v, Logger: appLogger}

	kv, err := store.New(ctx, store.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Driver, err)
	}
	a.Store = kv
	a.closers = append(a.closers, kv.Close)

	authClient := auth.NewClient(cfg.Auth.URL,
		auth.WithHTTPClient(&http.Client{Timeout: cfg.Auth.Timeout}),
		auth.WithLogger(appLogger))
	a.Session, err = session.Load(ctx, kv, authClient, appLogger)
	if err != nil {
		a.Close()
		return nil, err
	}

	recorder, err := a.recorder()
	if err != nil {
		a.Close()
		return nil, err
	}

	client := backend.NewClient(cfg.Backend.URL,
		backend.WithHTTPClient(backend.NewHTTPClient(cfg.Backend.Timeout)),
		backend.WithLogger(appLogger),
		backend.WithRetry(cfg.Whois.MaxRetries, cfg.Whois.BaseDelay))
	scanEngine := engine.NewScanEngine(client,
		engine.WithLogger(appLogger),
		engine.WithPlaceholderFallback(cfg.Fuzz.PlaceholderFallback))

	a.Patterns = a.loadPatterns()
	a.Queue = engine.NewScanQueue(cfg.Scan.MaxConcurrent, appLogger)
	a.Hooks = hooks.NewRegistry(appLogger)
	a.registerHooks()

	a.Scans = services.NewScanService(scanEngine, recorder,
		services.WithQueue(a.Queue),
		services.WithHooks(a.Hooks),
		services.WithPatterns(a.Patterns),
		services.WithLogger(appLogger))
	a.Modules = services.NewConfigService(cfg, appLogger)

	return a, nil
}

// recorder picks the database history when enabled and the key-value
// history otherwise.
func (a *App) recorder() (history.Recorder, error) {
	if !a.Config.Database.Enabled {
		return history.New(a.Store, history.WithLogger(a.Logger)), nil
	}

	db, err := database.Open(a.Config.Database, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sqlDB.Close)
	return history.NewDBRecorder(dao.NewScanDAO(db)), nil
}

// loadPatterns reads fuzz.sensitive_patterns_file. A file that cannot be
// used leaves the built-in catalogue in place.
func (a *App) loadPatterns() []parsers.SensitivePattern {
	path := a.Config.Fuzz.SensitivePatternsFile
	patterns, err := parsers.LoadPatterns(path)
	if err != nil {
		a.Logger.WithError(err).WithField("file", path).Warn("Failed to load sensitive patterns - using built-in catalogue")
		return patterns
	}
	if path != "" {
		a.Logger.WithFields(logger.Fields{"file": path, "patterns": len(patterns)}).Info("Sensitive patterns loaded")
	}
	return patterns
}

func (a *App) registerHooks() {
	cfg := a.Config

	if cfg.Discord.Token != "" && cfg.Discord.ChannelID != "" {
		discord, err := notification.NewNotificationClient(cfg.Discord.Token, cfg.Discord.ChannelID)
		if err != nil {
			a.Logger.WithError(err).Warn("Failed to initialize Discord client")
		} else {
			a.closers = append(a.closers, discord.Close)
			a.Hooks.Register(hooks.NewNotifierHook(discord))
			a.Hooks.Register(hooks.NewFindingsNotifierHook(discord,
				hooks.WithPatterns(a.Patterns),
				hooks.WithHookLogger(a.Logger)))
			a.Logger.Info("Discord notifications enabled")
		}
	} else {
		a.Logger.Debug("Discord not configured - notifications disabled")
	}

	if cfg.Events.NATSURL != "" {
		publisher, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject, a.Logger)
		if err != nil {
			a.Logger.WithError(err).Warn("Failed to connect to NATS - scan events disabled")
			return
		}
		a.closers = append(a.closers, func() error {
			publisher.Close()
			return nil
		})
		a.Hooks.Register(hooks.NewEventHook(publisher))
	}
}

// Owner is the history owner for commands run from this machine: the
// signed-in user's email, or empty when signed out.
func (a *App) Owner() string {
	return a.Session.Email()
}

// Close waits for dispatched hooks, then cleans up application resources in
// reverse order of creation.
func (a *App) Close() error {
	if a.Hooks != nil {
		a.Hooks.Wait()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
