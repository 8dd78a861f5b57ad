// Package snapshot keeps the last successfully fetched lead collection in a
// local SQLite database so the viewer can start without the backend.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/phoenixcrm/leadview/pkg/model"

	_ "modernc.org/sqlite"
)

// ErrEmpty is returned by Load when no snapshot has been saved yet.
var ErrEmpty = errors.New("no lead snapshot saved")

// DB handles snapshot persistence.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates the snapshot database at the given path.
func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY between
	// our own goroutines.
	db.SetMaxOpenConns(1)

	sdb := &DB{db: db}
	if err := sdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return sdb, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lead_snapshot (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshot_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

// Save replaces the stored snapshot with leads, preserving their order.
func (d *DB) Save(ctx context.Context, leads []model.Lead, savedAt time.Time) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lead_snapshot`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO lead_snapshot (position, id, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, lead := range leads {
		payload, err := json.Marshal(lead)
		if err != nil {
			return fmt.Errorf("encode lead %s: %w", lead.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, lead.ID, string(payload)); err != nil {
			return fmt.Errorf("insert lead %s: %w", lead.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (key, value) VALUES ('saved_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, savedAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record saved_at: %w", err)
	}

	return tx.Commit()
}

// Load returns the stored leads in their saved order. It returns ErrEmpty
// if nothing was ever saved.
func (d *DB) Load(ctx context.Context) ([]model.Lead, error) {
	if _, err := d.SavedAt(ctx); err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, `SELECT payload FROM lead_snapshot ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []model.Lead{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var lead model.Lead
		if err := json.Unmarshal([]byte(payload), &lead); err != nil {
			return nil, fmt.Errorf("decode snapshot row: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// SavedAt reports when the snapshot was last written.
func (d *DB) SavedAt(ctx context.Context) (time.Time, error) {
	var value string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM snapshot_meta WHERE key = 'saved_at'`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrEmpty
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, value)
}

// Source serves the snapshot as a lead source for offline browsing.
type Source struct {
	db *DB
}

// NewSource wraps db as a lead source.
func NewSource(db *DB) *Source {
	return &Source{db: db}
}

// FetchLeads implements viewmodel.Fetcher.
func (s *Source) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	leads, err := s.db.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read offline snapshot: %w", err)
	}
	return leads, nil
}
