package cache

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// accounting records cache hits and misses in a small SQLite database
// inside the cache directory. Accounting is best-effort: every method
// tolerates a nil receiver, and callers treat any failure as a no-op
// so the cache never becomes a correctness dependency.
type accounting struct {
	db *sql.DB
}

func openAccounting(cacheDir string) (*accounting, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	dbPath := filepath.Join(cacheDir, "accounting.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounting database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize accounting schema: %w", err)
	}

	return &accounting{db: db}, nil
}

func (a *accounting) record(key, event string) error {
	if a == nil {
		return nil
	}
	_, err := a.db.Exec("INSERT INTO access_log (key, event) VALUES (?, ?)", key, event)
	return err
}

// totals returns lifetime hit and miss counts.
func (a *accounting) totals() (hits, misses int, err error) {
	if a == nil {
		return 0, 0, nil
	}
	row := a.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN event = 'hit' THEN 1 END),
			COUNT(CASE WHEN event = 'miss' THEN 1 END)
		FROM access_log`)
	if err := row.Scan(&hits, &misses); err != nil {
		return 0, 0, err
	}
	return hits, misses, nil
}

func (a *accounting) close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}
