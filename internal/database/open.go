package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"visits/internal/config"
	"visits/internal/domain"
)

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *zerolog.Logger) (domain.Repository, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		db, err := NewDB(cfg.Path, logger, WithBusyTimeout(cfg.BusyTimeoutMS))
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		retry := RetryPolicy{
			MaxRetries:   cfg.Postgres.ConnectRetries,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		}
		db, err := NewPostgresDB(ctx, cfg.Postgres, logger, WithConnectRetry(retry))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
