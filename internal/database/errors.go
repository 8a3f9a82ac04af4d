package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConflict возвращается, когда вставка нарушает ограничение вместимости или уникальности
	ErrConflict = errors.New("database: capacity or uniqueness conflict")

	// ErrNotFound возвращается, когда запись не найдена
	ErrNotFound = errors.New("database: not found")

	// ErrInvalidBooking возвращается для бронирования, которое нельзя разложить по ячейкам
	ErrInvalidBooking = errors.New("database: invalid booking")
)

const pqUniqueViolation = "23505"

// isUniqueViolation recognizes unique-constraint failures from either driver.
// Unknown drivers fall back to the error text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique") || strings.Contains(msg, "conflict")
}
