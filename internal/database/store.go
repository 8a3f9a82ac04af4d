package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"visits/internal/models"
	"visits/internal/schedule"
)

var bookingColumns = []string{
	"id", "visit_date", "start_minute", "end_minute", "visitor_name", "phone", "party_size", "created_at",
}

// store holds the SQL shared by the SQLite and PostgreSQL backends.
type store struct {
	db      *sql.DB
	sb      sq.StatementBuilderType
	dialect string
	logger  zerolog.Logger
	now     func() time.Time
}

// Option tunes a store at construction time.
type Option func(*options)

type options struct {
	busyTimeoutMS int
	now           func() time.Time
	connectRetry  RetryPolicy
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(ms int) Option {
	return func(o *options) { o.busyTimeoutMS = ms }
}

// WithClock overrides the timestamp source for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithConnectRetry retries the initial PostgreSQL ping with backoff.
func WithConnectRetry(p RetryPolicy) Option {
	return func(o *options) { o.connectRetry = p }
}

func buildOptions(opts []Option) options {
	o := options{busyTimeoutMS: 5000, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newStore(db *sql.DB, dialect string, logger *zerolog.Logger, now func() time.Time) *store {
	var placeholder sq.PlaceholderFormat = sq.Question
	if dialect == dialectPostgres {
		placeholder = sq.Dollar
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "database").Str("dialect", dialect).Logger()
	}
	return &store{
		db:      db,
		sb:      sq.StatementBuilder.PlaceholderFormat(placeholder),
		dialect: dialect,
		logger:  l,
		now:     now,
	}
}

func (s *store) migrate(ctx context.Context) error {
	for _, query := range schemaFor(s.dialect) {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

func (s *store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *store) Close() error {
	return s.db.Close()
}

// ListBookings возвращает бронирования на дату, отсортированные по началу
func (s *store) ListBookings(ctx context.Context, date models.Date) ([]models.Booking, error) {
	query, args, err := s.sb.Select(bookingColumns...).
		From("bookings").
		Where(sq.Eq{"visit_date": date}).
		OrderBy("start_minute", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	return s.queryBookings(ctx, query, args...)
}

// ListBookingsRange возвращает бронирования за период включительно
func (s *store) ListBookingsRange(ctx context.Context, from, to models.Date) ([]models.Booking, error) {
	query, args, err := s.sb.Select(bookingColumns...).
		From("bookings").
		Where(sq.GtOrEq{"visit_date": from}).
		Where(sq.LtOrEq{"visit_date": to}).
		OrderBy("visit_date", "start_minute", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}
	return s.queryBookings(ctx, query, args...)
}

func (s *store) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.Date, &b.Start, &b.End, &b.VisitorName, &b.Phone, &b.PartySize, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// InsertBooking records the booking and claims PartySize capacity units in every
// grid cell the interval touches. All in one transaction: either the booking and
// all of its units are stored or nothing is.
func (s *store) InsertBooking(ctx context.Context, nb models.NewBooking) (int64, error) {
	cells := schedule.Cells(nb.Interval, nb.SlotStep)
	if len(cells) == 0 || nb.Capacity < 1 || nb.PartySize < 1 {
		return 0, fmt.Errorf("%w: interval %s step %d capacity %d party %d",
			ErrInvalidBooking, nb.Interval, nb.SlotStep, nb.Capacity, nb.PartySize)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.lockCells(ctx, tx, nb.Date, cells); err != nil {
		return 0, err
	}

	// 1. Подбираем свободные порядковые номера в каждой ячейке
	claims := make(map[models.TimeOfDay][]int, len(cells))
	for _, cell := range cells {
		used, err := s.usedOrdinals(ctx, tx, nb.Date, cell)
		if err != nil {
			return 0, err
		}
		free := freeOrdinals(used, nb.Capacity, nb.PartySize)
		if len(free) < nb.PartySize {
			return 0, fmt.Errorf("%w: cell %s on %s has %d of %d units free",
				ErrConflict, cell, nb.Date, len(free), nb.PartySize)
		}
		claims[cell] = free
	}

	// 2. Создаем бронирование
	createdAt := s.now()
	query, args, err := s.sb.Insert("bookings").
		Columns("visit_date", "start_minute", "end_minute", "visitor_name", "phone", "party_size", "created_at").
		Values(nb.Date, nb.Interval.Start, nb.Interval.End, nb.VisitorName, nb.Phone, nb.PartySize, createdAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert query: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, s.translateWriteErr("insert booking", err)
	}

	// 3. Занимаем единицы вместимости
	units := s.sb.Insert("booking_units").Columns("booking_id", "visit_date", "cell_start", "ordinal")
	for _, cell := range cells {
		for _, ordinal := range claims[cell] {
			units = units.Values(id, nb.Date, cell, ordinal)
		}
	}
	query, args, err = units.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build units query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, s.translateWriteErr("insert units", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, s.translateWriteErr("commit booking", err)
	}

	s.logger.Debug().Int64("booking_id", id).Str("date", nb.Date.String()).Str("interval", nb.Interval.String()).
		Int("cells", len(cells)).Msg("booking stored")
	return id, nil
}

// lockCells takes a transaction-scoped advisory lock per cell on PostgreSQL.
// Under READ COMMITTED two admissions would otherwise read the same used set and
// race for one ordinal while another is still free. Cells come in ascending
// order, so concurrent lockers cannot deadlock. SQLite already holds the write
// lock from BEGIN IMMEDIATE.
func (s *store) lockCells(ctx context.Context, tx *sql.Tx, date models.Date, cells []models.TimeOfDay) error {
	if s.dialect != dialectPostgres {
		return nil
	}
	for _, cell := range cells {
		dateKey, cellKey := cellLockKey(date, cell)
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", dateKey, cellKey); err != nil {
			return fmt.Errorf("lock cell %s on %s: %w", cell, date, err)
		}
	}
	return nil
}

// cellLockKey maps (date, cell) to the two int4 keys of pg_advisory_xact_lock.
func cellLockKey(date models.Date, cell models.TimeOfDay) (int32, int32) {
	return int32(date.Year*10000 + int(date.Month)*100 + date.Day), int32(cell)
}

func (s *store) usedOrdinals(ctx context.Context, tx *sql.Tx, date models.Date, cell models.TimeOfDay) (map[int]struct{}, error) {
	query, args, err := s.sb.Select("ordinal").
		From("booking_units").
		Where(sq.Eq{"visit_date": date, "cell_start": cell}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build units query: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	used := make(map[int]struct{})
	for rows.Next() {
		var ordinal int
		if err := rows.Scan(&ordinal); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		used[ordinal] = struct{}{}
	}
	return used, rows.Err()
}

// freeOrdinals returns up to want unused ordinals below capacity, lowest first.
func freeOrdinals(used map[int]struct{}, capacity, want int) []int {
	free := make([]int, 0, want)
	for o := 0; o < capacity && len(free) < want; o++ {
		if _, taken := used[o]; !taken {
			free = append(free, o)
		}
	}
	return free
}

func (s *store) translateWriteErr(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s: %v", ErrConflict, op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DeleteBooking удаляет бронирование и его единицы вместимости
func (s *store) DeleteBooking(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := s.sb.Delete("booking_units").Where(sq.Eq{"booking_id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete units query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete units: %w", err)
	}

	query, args, err = s.sb.Delete("bookings").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: booking %d", ErrNotFound, id)
	}

	return tx.Commit()
}

// UpsertDutyContact сохраняет дежурного, последняя запись побеждает
func (s *store) UpsertDutyContact(ctx context.Context, c models.DutyContact) error {
	updatedAt := c.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	query, args, err := s.sb.Insert("duty_contacts").
		Columns("visit_date", "period", "name", "phone", "updated_at").
		Values(c.Date, string(c.Period), c.Name, c.Phone, updatedAt).
		Suffix("ON CONFLICT (visit_date, period) DO UPDATE SET " +
			"name = excluded.name, phone = excluded.phone, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert duty contact: %w", err)
	}
	return nil
}

// ListDutyContacts возвращает дежурных на дату
func (s *store) ListDutyContacts(ctx context.Context, date models.Date) ([]models.DutyContact, error) {
	query, args, err := s.sb.Select("visit_date", "period", "name", "phone", "updated_at").
		From("duty_contacts").
		Where(sq.Eq{"visit_date": date}).
		OrderBy("period DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build duty query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query duty contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]models.DutyContact, 0, 2)
	for rows.Next() {
		var c models.DutyContact
		var period string
		if err := rows.Scan(&c.Date, &period, &c.Name, &c.Phone, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan duty contact: %w", err)
		}
		c.Period = models.Period(period)
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contacts, nil
}

// CountUnits returns how many capacity units are claimed in a cell.
func (s *store) CountUnits(ctx context.Context, date models.Date, cell models.TimeOfDay) (int, error) {
	query, args, err := s.sb.Select("COUNT(*)").
		From("booking_units").
		Where(sq.Eq{"visit_date": date, "cell_start": cell}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("count units: %w", err)
	}
	return n, nil
}
