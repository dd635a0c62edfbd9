// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/roadsafety/roadguard/adapters/clock"
	"github.com/roadsafety/roadguard/adapters/hasher"
	roadhttp "github.com/roadsafety/roadguard/adapters/http"
	"github.com/roadsafety/roadguard/adapters/idgen"
	"github.com/roadsafety/roadguard/adapters/memory"
	"github.com/roadsafety/roadguard/adapters/metrics"
	"github.com/roadsafety/roadguard/adapters/sqlite"
	"github.com/roadsafety/roadguard/app"
	"github.com/roadsafety/roadguard/config"
	_ "github.com/roadsafety/roadguard/docs/swagger"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector
	Gate       *app.Gate
	Accounts   *app.AccountService

	// Adapters needing cleanup
	recorder *LocalUsageRecorder
	quota    *memory.QuotaStore
	cache    *memory.KeyCache
}

// New creates and initializes the application. When the config file
// does not exist, configuration comes entirely from the environment.
func New(configPath string) (*App, error) {
	bootCfg, err := config.LoadWithFallback(configPath)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(bootCfg.Logging)

	var holder *config.Holder
	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			holder, err = config.NewHolder(configPath, logger)
			if err != nil {
				return nil, err
			}
		}
	}
	if holder == nil {
		holder = config.NewStaticHolder(bootCfg, logger)
	}

	cfg := holder.Get()

	a := &App{
		Logger: logger,
		Config: holder,
	}

	logger.Info().Msg("initializing roadguard")

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	accounts := sqlite.NewAccountStore(db)
	legacyKeys := sqlite.NewLegacyKeyStore(db)
	usageStore := sqlite.NewUsageStore(db)
	accidents := sqlite.NewAccidentStore(db)

	wallClock := clock.Real{}
	a.cache = memory.NewKeyCache(cfg.Auth.CacheTTL)
	a.quota = memory.NewQuotaStore(memory.QuotaStoreConfig{
		NumShards:     cfg.RateLimit.NumShards,
		SweepInterval: time.Duration(cfg.RateLimit.SweepSecs) * time.Second,
		Clock:         wallClock,
	})

	a.Gate = app.NewGate(app.GateDeps{
		Accounts:   accounts,
		LegacyKeys: legacyKeys,
		Cache:      a.cache,
		Quota:      a.quota,
		Clock:      wallClock,
	}, app.GateConfig{
		Window:     cfg.Window(),
		TierLimits: cfg.TierLimits(),
	})

	a.Accounts = app.NewAccountService(app.AccountDeps{
		Accounts: accounts,
		Usage:    usageStore,
		Hasher:   hasher.NewBcrypt(0),
		Clock:    wallClock,
		KeyGen:   idgen.APIKeys{},
		Gate:     a.Gate,
	})

	a.recorder = NewLocalUsageRecorder(usageStore, logger, a.Metrics,
		cfg.Usage.BatchSize, cfg.Usage.FlushInterval)

	// Reloads swap window and tier overrides into the gate atomically.
	holder.OnChange(func(c *config.Config) {
		a.Gate.UpdateConfig(app.GateConfig{
			Window:     c.Window(),
			TierLimits: c.TierLimits(),
		})
		if lvl, err := zerolog.ParseLevel(c.Logging.Level); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
		if a.Metrics != nil {
			a.Metrics.ConfigReloads.Inc()
			a.Metrics.ConfigLastReload.SetToCurrentTime()
		}
		logger.Info().
			Dur("window", c.Window()).
			Msg("admission config updated")
	})
	if err := holder.WatchFile(); err != nil {
		logger.Warn().Err(err).Msg("config file watch unavailable")
	}
	holder.WatchSignals()

	router := roadhttp.NewRouter(roadhttp.RouterConfig{
		Gate:              a.Gate,
		Accounts:          a.Accounts,
		AccountStore:      accounts,
		Usage:             usageStore,
		Accidents:         accidents,
		Recorder:          a.recorder,
		Clock:             wallClock,
		DB:                db.DB,
		Logger:            logger,
		Metrics:           a.Metrics,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
		MetricsEnabled:    cfg.Metrics.Enabled,
		MetricsPath:       cfg.Metrics.Path,
		DocsEnabled:       cfg.Docs.Enabled,
	})

	a.HTTPServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until interrupt or error.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application: stop accepting requests,
// drain the usage buffer, then close storage.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown failed")
		}
	}

	if a.Config != nil {
		a.Config.Stop()
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("usage recorder close failed")
		}
	}
	if a.quota != nil {
		a.quota.Close()
	}
	if a.cache != nil {
		a.cache.Close()
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close failed")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// setupLogger builds the root logger from the logging config.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
