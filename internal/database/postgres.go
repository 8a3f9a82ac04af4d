package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"visits/internal/config"
)

// PostgresDB is the PostgreSQL store. Admissions touching the same cells queue on
// per-cell advisory locks before picking free ordinals, so a free unit is never
// lost to a race. The booking_units unique constraint stays the final backstop:
// any insert that still collides gets SQLSTATE 23505 and becomes ErrConflict.
type PostgresDB struct {
	*store
}

func NewPostgresDB(ctx context.Context, cfg config.PostgresConfig, logger *zerolog.Logger, opts ...Option) (*PostgresDB, error) {
	o := buildOptions(opts)

	connector, err := pq.NewConnector(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}

	s := newStore(db, dialectPostgres, logger, o.now)
	err = o.connectRetry.do(ctx, func() error { return s.Ping(ctx) }, func(attempt int, delay time.Duration, err error) {
		s.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("postgres is not reachable yet")
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s.logger.Info().Str("host", cfg.Host).Str("dbname", cfg.DBName).Msg("database initialized")
	return &PostgresDB{store: s}, nil
}
