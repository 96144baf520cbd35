// Package cache stores generation results in SQLite, keyed by the content
// hash of a module's canonical wire encoding, so unchanged modules are not
// regenerated.
package cache

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/EchidnaHQ/robusta/bridge"
)

// ErrMiss indicates no cached result for the requested module hash.
var ErrMiss = errors.New("cache: miss")

// Entry is one cached generation result.
type Entry struct {
	RunID       string
	ModuleName  string
	Code        string
	Diagnostics []bridge.Diagnostic
	CreatedAt   time.Time
}

// Cache is a SQLite-backed generation cache.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS generations (
		hash TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		module TEXT NOT NULL,
		code TEXT NOT NULL,
		diagnostics JSON NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating generations table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached entry for a module hash, or ErrMiss.
func (c *Cache) Get(hash [32]byte) (*Entry, error) {
	row := c.db.QueryRow(
		`SELECT run_id, module, code, diagnostics, created_at FROM generations WHERE hash = ?`,
		hex.EncodeToString(hash[:]))

	var e Entry
	var diags string
	var created string
	if err := row.Scan(&e.RunID, &e.ModuleName, &e.Code, &diags, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	if err := json.Unmarshal([]byte(diags), &e.Diagnostics); err != nil {
		return nil, fmt.Errorf("decoding cached diagnostics: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		e.CreatedAt = t
	}
	return &e, nil
}

// Put stores a generation result, replacing any previous entry for the
// same hash, and returns the run id assigned to it.
func (c *Cache) Put(hash [32]byte, moduleName, code string, diags []bridge.Diagnostic) (string, error) {
	encoded, err := json.Marshal(diags)
	if err != nil {
		return "", fmt.Errorf("encoding diagnostics: %w", err)
	}

	runID := uuid.NewString()
	_, err = c.db.Exec(
		`INSERT OR REPLACE INTO generations (hash, run_id, module, code, diagnostics, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		hex.EncodeToString(hash[:]), runID, moduleName, code, string(encoded),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("writing cache entry: %w", err)
	}
	return runID, nil
}
