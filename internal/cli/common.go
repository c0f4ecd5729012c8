package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lazypower/spacetime/internal/config"
	"github.com/lazypower/spacetime/internal/store"
)

func loadDotenv() error {
	if envFile == "" {
		return nil
	}
	return config.LoadDotenv(envFile)
}

// loadConfig reads the --config file (if any) plus environment overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openStore opens the configured database for commands.
func openStore(cfg config.DatabaseConfig) (*store.DB, error) {
	if cfg.Driver == store.DriverPostgres {
		return store.OpenDriver(cfg.Driver, cfg.URL)
	}
	dbPath := cfg.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.OpenDriver(store.DriverSQLite, dbPath)
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
