package storage

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"meeting-attendance/internal/config"
)

type SQLiteProvider struct {
	*SQLProvider
}

// sqliteDSN enables foreign keys, WAL and immediate write transactions so
// concurrent writers queue on the busy timeout instead of failing.
func sqliteDSN(path string) string {
	params := url.Values{}
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	params.Set("_txlock", "immediate")
	return fmt.Sprintf("file:%s?%s", path, params.Encode())
}

func NewSQLiteProvider(cfg *config.Storage) (*SQLiteProvider, error) {
	dbPath := cfg.SQLite.Path
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	provider, err := NewSQLProvider(cfg, "sqlite3", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	// One writer at a time; sqlite serializes writes regardless.
	provider.db.SetMaxOpenConns(1)

	return &SQLiteProvider{SQLProvider: provider}, nil
}
