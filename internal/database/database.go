package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite handle. Time columns that participate in conditional
// updates (hold expiry, scheduled start) are stored as unix seconds so SQL
// comparisons are exact; money columns are stored as decimal strings.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: sqlDB, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            telegram_id INTEGER UNIQUE NOT NULL,
            username TEXT,
            display_name TEXT NOT NULL,
            tier TEXT NOT NULL DEFAULT 'free',
            age_confirmed BOOLEAN NOT NULL DEFAULT 0,
            is_admin BOOLEAN NOT NULL DEFAULT 0,
            is_blacklisted BOOLEAN NOT NULL DEFAULT 0,
            language_code TEXT,
            last_activity DATETIME NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS performers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL,
            stage_name TEXT UNIQUE NOT NULL,
            bio TEXT,
            rate_30 TEXT NOT NULL DEFAULT '0',
            rate_60 TEXT NOT NULL DEFAULT '0',
            rate_90 TEXT NOT NULL DEFAULT '0',
            workdays TEXT NOT NULL DEFAULT '[]',
            hour_from INTEGER NOT NULL DEFAULT 18,
            hour_to INTEGER NOT NULL DEFAULT 23,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            display_img TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS slots (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            performer_id INTEGER NOT NULL,
            start_at INTEGER NOT NULL,
            end_at INTEGER NOT NULL,
            duration_minutes INTEGER NOT NULL,
            state TEXT NOT NULL DEFAULT 'open',
            hold_user_id INTEGER NOT NULL DEFAULT 0,
            hold_expires_at INTEGER NOT NULL DEFAULT 0,
            booking_id INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            caller_id INTEGER NOT NULL,
            performer_id INTEGER NOT NULL,
            slot_id INTEGER NOT NULL,
            scheduled_at INTEGER NOT NULL,
            duration_minutes INTEGER NOT NULL,
            amount TEXT NOT NULL DEFAULT '0',
            currency TEXT NOT NULL DEFAULT 'USD',
            status TEXT NOT NULL DEFAULT 'pending',
            payment_ref TEXT,
            payment_method TEXT,
            room_url TEXT,
            refund_percentage INTEGER NOT NULL DEFAULT 0,
            cancelled_at INTEGER NOT NULL DEFAULT 0,
            cancelled_by INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS venues (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            address TEXT,
            city TEXT,
            latitude REAL NOT NULL,
            longitude REAL NOT NULL,
            category TEXT,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS listings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            submitter_id INTEGER NOT NULL,
            business_name TEXT NOT NULL,
            description TEXT,
            category TEXT,
            contact_phone TEXT,
            website TEXT,
            city TEXT,
            quality_score INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'submitted',
            reject_reason TEXT,
            reviewed_by INTEGER NOT NULL DEFAULT 0,
            reviewed_at INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS streams (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            performer_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            room_name TEXT NOT NULL,
            room_url TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'live',
            prime_only BOOLEAN NOT NULL DEFAULT 0,
            started_at INTEGER NOT NULL,
            ended_at INTEGER NOT NULL DEFAULT 0
        )`,

		`CREATE TABLE IF NOT EXISTS refund_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id INTEGER NOT NULL,
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		// Availability generation relies on this index being unique so
		// re-runs are no-ops.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_slots_performer_start_duration
            ON slots(performer_id, start_at, duration_minutes)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_state ON slots(state)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_performer_state ON slots(performer_id, state)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_caller ON bookings(caller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_performer ON bookings(performer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_scheduled ON bookings(scheduled_at)`,

		`CREATE INDEX IF NOT EXISTS idx_users_telegram_id ON users(telegram_id)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_streams_status ON streams(status)`,
		`CREATE INDEX IF NOT EXISTS idx_refund_queue_status ON refund_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("exec schema statement: %w", err)
		}
	}
	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
