package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"packmule/internal/config"
)

// ErrNotFound indicates the pack has never been processed.
var ErrNotFound = errors.New("pack not in catalog")

// Record is one processed pack's history entry.
type Record struct {
	Name           string
	Title          string
	StickerCount   int
	ArchivePath    string
	Link           string
	FirstProcessed time.Time
	LastProcessed  time.Time
	TimesProcessed int
}

// Store persists the processed-pack catalog in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS packs (
    name            TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    sticker_count   INTEGER NOT NULL,
    archive_path    TEXT NOT NULL,
    link            TEXT NOT NULL DEFAULT '',
    first_processed TEXT NOT NULL,
    last_processed  TEXT NOT NULL,
    times_processed INTEGER NOT NULL DEFAULT 1
);
`

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.CatalogPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// RecordProcessed upserts a pack's history entry after a successful pipeline
// run, bumping the processed counter on repeats.
func (s *Store) RecordProcessed(ctx context.Context, name, title string, stickerCount int, archivePath string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("pack name cannot be empty")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO packs (name, title, sticker_count, archive_path, first_processed, last_processed)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET
             title = excluded.title,
             sticker_count = excluded.sticker_count,
             archive_path = excluded.archive_path,
             last_processed = excluded.last_processed,
             times_processed = times_processed + 1`,
		name, title, stickerCount, archivePath, now, now,
	)
	if err != nil {
		return fmt.Errorf("record pack: %w", err)
	}
	return nil
}

// SetLink stores the republish deep link for a processed pack.
func (s *Store) SetLink(ctx context.Context, name, link string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE packs SET link = ? WHERE name = ?`, link, name)
	if err != nil {
		return fmt.Errorf("set link: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set link: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get returns the catalog record for the named pack.
func (s *Store) Get(ctx context.Context, name string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT name, title, sticker_count, archive_path, link, first_processed, last_processed, times_processed
         FROM packs WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// List returns all records, most recently processed first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, title, sticker_count, archive_path, link, first_processed, last_processed, times_processed
         FROM packs ORDER BY last_processed DESC`)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var first, last string
	if err := row.Scan(&rec.Name, &rec.Title, &rec.StickerCount, &rec.ArchivePath, &rec.Link, &first, &last, &rec.TimesProcessed); err != nil {
		return Record{}, err
	}
	rec.FirstProcessed, _ = time.Parse(time.RFC3339Nano, first)
	rec.LastProcessed, _ = time.Parse(time.RFC3339Nano, last)
	return rec, nil
}
