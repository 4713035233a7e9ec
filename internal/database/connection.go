package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database backend
type Config struct {
	Driver string // sqlite3 or postgres
	DSN    string // file path for sqlite3, connection URL for postgres
}

// Open establishes a connection to the database and makes sure the schema exists
func Open(cfg Config) (*sqlx.DB, error) {
	driver := cfg.Driver
	if driver == "" || driver == "sqlite" {
		driver = DriverSQLite
	}

	if driver == DriverSQLite && isFilePath(cfg.DSN) {
		// Create data directory if it doesn't exist
		if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create data directory")
		}
	}

	db, err := sqlx.Connect(driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to %s database", driver)
	}

	if driver == DriverSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "failed to enable foreign keys")
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func isFilePath(dsn string) bool {
	return dsn != "" && dsn != ":memory:" && !strings.HasPrefix(dsn, "file:")
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema(db *sqlx.DB) error {
	statements := []struct {
		table string
		ddl   string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				notification_enabled BOOLEAN NOT NULL DEFAULT TRUE,
				notification_hour INTEGER NOT NULL DEFAULT 9,
				reviews_per_session INTEGER NOT NULL DEFAULT 20,
				created_at BIGINT NOT NULL DEFAULT 0
			)`},
		{"items", `
			CREATE TABLE IF NOT EXISTS items (
				id TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				term TEXT NOT NULL,
				meaning TEXT NOT NULL,
				reading TEXT NOT NULL DEFAULT '',
				deck TEXT NOT NULL DEFAULT '',
				position INTEGER NOT NULL DEFAULT 0
			)`},
		{"review_records", `
			CREATE TABLE IF NOT EXISTS review_records (
				user_id BIGINT NOT NULL,
				item_id TEXT NOT NULL,
				level INTEGER NOT NULL DEFAULT 0,
				ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
				next_review_at BIGINT NOT NULL DEFAULT 0,
				is_done BOOLEAN NOT NULL DEFAULT FALSE,
				updated_at BIGINT NOT NULL DEFAULT 0,
				PRIMARY KEY (user_id, item_id),
				FOREIGN KEY (user_id) REFERENCES users(telegram_id)
			)`},
	}

	for _, st := range statements {
		if _, err := db.Exec(st.ddl); err != nil {
			return errors.Wrapf(err, "failed to create %s table", st.table)
		}
	}
	return nil
}
