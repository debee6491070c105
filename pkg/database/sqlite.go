package database

import (
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/jmoiron/sqlx"
)

// NewSQLite opens (or creates) the embedded fallback database. The parent
// directory is created when missing so first use on a clean deployment
// provisions itself.
func NewSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		path = "./data/fallback.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// The sqlite3 driver serialises writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent handlers.
	db.SetMaxOpenConns(1)

	return db, nil
}
