package database

import (
	"io"
	"path/filepath"
	"testing"

	"visits/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newMemDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newFileDB(t *testing.T, path string) *DB {
	t.Helper()
	if path == "" {
		path = filepath.Join(t.TempDir(), "visits.db")
	}
	logger := zerolog.New(io.Discard)
	db, err := NewDB(path, &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newBooking(t *testing.T, date, interval string, party, capacity int) models.NewBooking {
	t.Helper()
	iv, err := models.ParseInterval(interval)
	require.NoError(t, err)
	return models.NewBooking{
		Date:        mustDate(t, date),
		Interval:    iv,
		VisitorName: "Maria",
		Phone:       "+351 910 000 000",
		PartySize:   party,
		SlotStep:    30,
		Capacity:    capacity,
	}
}
