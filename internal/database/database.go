package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

const memoryPath = ":memory:"

// DB is the SQLite store.
type DB struct {
	*store
	path string
}

func NewDB(path string, logger *zerolog.Logger, opts ...Option) (*DB, error) {
	o := buildOptions(opts)

	// Создаем директорию для БД, если её нет
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path, o.busyTimeoutMS))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == memoryPath {
		// каждое соединение к :memory: видит свою базу
		db.SetMaxOpenConns(1)
	}

	s := newStore(db, dialectSQLite, logger, o.now)

	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("database initialized")
	return &DB{store: s, path: path}, nil
}

// sqliteDSN makes every transaction take the write lock up front, so concurrent
// admissions queue on the busy timeout instead of failing at commit.
func sqliteDSN(path string, busyTimeoutMS int) string {
	params := []string{
		"_txlock=immediate",
		fmt.Sprintf("_busy_timeout=%d", busyTimeoutMS),
		"_foreign_keys=on",
	}
	if path != memoryPath {
		params = append(params, "_journal_mode=WAL")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
