// Package db opens the archive database for the configured driver. Both
// engines are reached through database/sql; nothing above this package
// depends on which one is in use beyond the SQL dialect tag.
package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tkeffer/weewx-xaggs/internal/config"
)

// Open connects to the archive database per cfg, applies pool settings, and
// verifies connectivity with an early ping.
func Open(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "mysql":
		db, err = sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	default:
		dsn := cfg.DSN
		if dsn == "" {
			dsn, err = buildSQLiteDSN(cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
		}
		if cfg.LogSQL {
			connector, err := NewLoggingConnector(dsn, logger)
			if err != nil {
				return nil, fmt.Errorf("db open: %w", err)
			}
			db = sql.OpenDB(connector)
		} else {
			db, err = sql.Open("sqlite3", dsn)
			if err != nil {
				return nil, fmt.Errorf("db open: %w", err)
			}
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildSQLiteDSN(path string) (string, error) {
	// Ensure the directory exists for a file-backed database.
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// busy_timeout helps with "database is locked" when reports render
	// while ingest is writing; WAL lets those reads proceed concurrently.
	params := []string{
		"_foreign_keys=on",
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
