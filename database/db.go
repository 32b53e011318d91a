package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// DB bundles the two stores: DuckDB for the snapshot archive, SQLite for
// job tracking and the load journal.
type DB struct {
	Archive *sql.DB
	App     *sql.DB
}

// Initialize opens both stores, creating parent directories as needed.
// Empty paths open in-memory databases, which the tests rely on.
func Initialize(archivePath, appPath string, log *zap.Logger) (*DB, error) {
	if archivePath != "" {
		if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}
	if appPath != "" && appPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(appPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create app db directory: %w", err)
		}
	}

	archive, err := sql.Open("duckdb", archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive db: %w", err)
	}
	if _, err := archive.Exec("PRAGMA threads=4"); err != nil {
		log.Warn("failed to set archive threads", zap.Error(err))
	}
	if err := archive.Ping(); err != nil {
		archive.Close()
		return nil, fmt.Errorf("failed to ping archive db: %w", err)
	}

	app, err := sql.Open("sqlite3", appPath)
	if err != nil {
		archive.Close()
		return nil, fmt.Errorf("failed to open app db: %w", err)
	}
	if appPath == "" || appPath == ":memory:" {
		// Each pooled connection would otherwise get its own private
		// in-memory database.
		app.SetMaxOpenConns(1)
	}
	if _, err := app.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Warn("failed to set WAL mode", zap.Error(err))
	}
	if err := app.Ping(); err != nil {
		archive.Close()
		app.Close()
		return nil, fmt.Errorf("failed to ping app db: %w", err)
	}

	return &DB{Archive: archive, App: app}, nil
}

func (db *DB) Close() {
	if db.Archive != nil {
		db.Archive.Close()
	}
	if db.App != nil {
		db.App.Close()
	}
}
