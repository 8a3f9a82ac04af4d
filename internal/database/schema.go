package database

const (
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        visit_date TEXT NOT NULL,
        start_minute INTEGER NOT NULL,
        end_minute INTEGER NOT NULL,
        visitor_name TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        party_size INTEGER NOT NULL CHECK (party_size >= 1),
        created_at DATETIME NOT NULL,
        CHECK (start_minute < end_minute)
    )`,
	// Одна строка на единицу вместимости в ячейке сетки
	`CREATE TABLE IF NOT EXISTS booking_units (
        booking_id INTEGER NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
        visit_date TEXT NOT NULL,
        cell_start INTEGER NOT NULL,
        ordinal INTEGER NOT NULL,
        UNIQUE (visit_date, cell_start, ordinal)
    )`,
	`CREATE TABLE IF NOT EXISTS duty_contacts (
        visit_date TEXT NOT NULL,
        period TEXT NOT NULL,
        name TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (visit_date, period)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(visit_date, start_minute)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_units_booking ON booking_units(booking_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS bookings (
        id BIGSERIAL PRIMARY KEY,
        visit_date DATE NOT NULL,
        start_minute INTEGER NOT NULL,
        end_minute INTEGER NOT NULL,
        visitor_name TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        party_size INTEGER NOT NULL CHECK (party_size >= 1),
        created_at TIMESTAMPTZ NOT NULL,
        CHECK (start_minute < end_minute)
    )`,
	`CREATE TABLE IF NOT EXISTS booking_units (
        booking_id BIGINT NOT NULL REFERENCES bookings(id) ON DELETE CASCADE,
        visit_date DATE NOT NULL,
        cell_start INTEGER NOT NULL,
        ordinal INTEGER NOT NULL,
        UNIQUE (visit_date, cell_start, ordinal)
    )`,
	`CREATE TABLE IF NOT EXISTS duty_contacts (
        visit_date DATE NOT NULL,
        period TEXT NOT NULL CHECK (period IN ('morning', 'afternoon')),
        name TEXT NOT NULL,
        phone TEXT NOT NULL DEFAULT '',
        updated_at TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (visit_date, period)
    )`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(visit_date, start_minute)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_units_booking ON booking_units(booking_id)`,
}

func schemaFor(dialect string) []string {
	if dialect == dialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}
