package domain

import (
	"context"
	"time"

	"visits/internal/models"
)

// Repository is the persistence collaborator. Implementations must enforce the
// capacity constraint at the storage layer and report violations as database.ErrConflict.
type Repository interface {
	ListBookings(ctx context.Context, date models.Date) ([]models.Booking, error)
	ListBookingsRange(ctx context.Context, from, to models.Date) ([]models.Booking, error)
	InsertBooking(ctx context.Context, booking models.NewBooking) (int64, error)
	DeleteBooking(ctx context.Context, id int64) error
	UpsertDutyContact(ctx context.Context, contact models.DutyContact) error
	ListDutyContacts(ctx context.Context, date models.Date) ([]models.DutyContact, error)
	Ping(ctx context.Context) error
	Close() error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// AttemptLimiter counts booking attempts per client key.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Clock supplies the current time; tests replace it.
type Clock func() time.Time
