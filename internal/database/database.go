package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection used for all durable state: farrier
// aggregates, bookings and the calendar sync queue.
type DB struct {
	*sql.DB
	log zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows one writer at a time; serializing the pool keeps the
	// overlap-check transaction free of SQLITE_BUSY upgrades.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "database").Logger()
	}
	log.Info().Str("path", path).Msg("database initialized")

	return &DB{DB: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS farriers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_name TEXT NOT NULL,
            business_name TEXT,
            phone TEXT,
            base_latitude REAL,
            base_longitude REAL,
            travel_radius_km INTEGER NOT NULL DEFAULT 50,
            average_rating REAL NOT NULL DEFAULT 0,
            total_reviews INTEGER NOT NULL DEFAULT 0,
            is_available BOOLEAN NOT NULL DEFAULT 1,
            telegram_chat_id INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS farrier_services (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            farrier_id INTEGER NOT NULL REFERENCES farriers(id),
            name TEXT NOT NULL,
            description TEXT,
            price REAL NOT NULL,
            duration_minutes INTEGER NOT NULL DEFAULT 60,
            is_active BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS farrier_schedules (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            farrier_id INTEGER NOT NULL REFERENCES farriers(id),
            day_of_week INTEGER NOT NULL,
            start_time TEXT NOT NULL,
            end_time TEXT NOT NULL,
            is_available BOOLEAN NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS farrier_areas (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            farrier_id INTEGER NOT NULL REFERENCES farriers(id),
            city TEXT NOT NULL,
            postal_code_prefix TEXT,
            travel_fee REAL NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS horses (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            name TEXT NOT NULL,
            last_farrier_visit DATETIME
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            farrier_id INTEGER NOT NULL REFERENCES farriers(id),
            horse_id INTEGER NOT NULL,
            service_type TEXT NOT NULL,
            scheduled_at DATETIME NOT NULL,
            duration_minutes INTEGER NOT NULL DEFAULT 60,
            location_address TEXT,
            location_city TEXT,
            location_latitude REAL,
            location_longitude REAL,
            service_price REAL NOT NULL,
            travel_fee REAL NOT NULL DEFAULT 0,
            total_price REAL NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            notes_from_owner TEXT,
            notes_from_farrier TEXT,
            cancelled_by TEXT,
            cancellation_reason TEXT,
            cancelled_at DATETIME,
            completed_at DATETIME,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            booking_id INTEGER NOT NULL,
            payload TEXT,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_farrier_id ON bookings(farrier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_scheduled_at ON bookings(scheduled_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_farrier_areas_farrier_id ON farrier_areas(farrier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_farrier_schedules_farrier_id ON farrier_schedules(farrier_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,

		// Second line of defense against concurrent double booking; the
		// overlap check itself runs inside the insert transaction.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_farrier_slot
            ON bookings(farrier_id, scheduled_at) WHERE status != 'cancelled'`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
