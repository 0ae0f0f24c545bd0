package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"gallerydl/internal/config"
)

// Store manages download history persistence backed by SQLite. It holds the
// completed and resume tables keyed by gallery id, plus a single settings
// row used to persist runtime settings across restarts.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS completed (
    gallery_id TEXT PRIMARY KEY,
    ts TEXT NOT NULL,
    title TEXT,
    total INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS resume (
    gallery_id TEXT PRIMARY KEY,
    ts TEXT NOT NULL,
    stopped INTEGER NOT NULL DEFAULT 0,
    last_error INTEGER NOT NULL DEFAULT 0,
    last_error_msg TEXT,
    failed_index INTEGER
);
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    json TEXT NOT NULL
);
`

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
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

// Path returns the database file path.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// PutCompleted records a gallery as done, overwriting any prior record for
// the same gallery id.
func (s *Store) PutCompleted(ctx context.Context, rec CompletedRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO completed (gallery_id, ts, title, total) VALUES (?, ?, ?, ?)
         ON CONFLICT(gallery_id) DO UPDATE SET ts = excluded.ts, title = excluded.title, total = excluded.total`,
		rec.GalleryID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		nullableString(rec.Title),
		rec.Total,
	)
	if err != nil {
		return fmt.Errorf("put completed: %w", err)
	}
	return nil
}

// GetCompleted fetches a completed record by gallery id, or nil when absent.
func (s *Store) GetCompleted(ctx context.Context, galleryID string) (*CompletedRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT gallery_id, ts, title, total FROM completed WHERE gallery_id = ?`,
		galleryID,
	)
	rec, err := scanCompleted(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completed: %w", err)
	}
	return rec, nil
}

// ListCompleted returns all completed records ordered by completion time.
func (s *Store) ListCompleted(ctx context.Context) ([]CompletedRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gallery_id, ts, title, total FROM completed ORDER BY ts`)
	if err != nil {
		return nil, fmt.Errorf("list completed: %w", err)
	}
	defer rows.Close()

	var records []CompletedRecord
	for rows.Next() {
		rec, err := scanCompleted(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// CountFolderUses counts completed records whose title claimed the given
// folder base: an exact match, or the base followed by a " (n)" suffix.
func (s *Store) CountFolderUses(ctx context.Context, base string) (int, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM completed WHERE title = ? OR title LIKE ? ESCAPE '\'`,
		base,
		likeEscape(base)+" (%",
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count folder uses: %w", err)
	}
	return count, nil
}

// ClearCompleted removes every completed record.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM completed`)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ExportCompleted serializes the completed table as JSON to w.
func (s *Store) ExportCompleted(ctx context.Context, w io.Writer) error {
	records, err := s.ListCompleted(ctx)
	if err != nil {
		return err
	}
	export := Export{Timestamp: time.Now().UTC(), Completed: records}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// PutResume records a gallery as not cleanly finished, overwriting any
// prior record for the same gallery id.
func (s *Store) PutResume(ctx context.Context, rec ResumeRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO resume (gallery_id, ts, stopped, last_error, last_error_msg, failed_index)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(gallery_id) DO UPDATE SET
             ts = excluded.ts, stopped = excluded.stopped, last_error = excluded.last_error,
             last_error_msg = excluded.last_error_msg, failed_index = excluded.failed_index`,
		rec.GalleryID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		boolToInt(rec.Stopped),
		boolToInt(rec.LastError),
		nullableString(rec.LastErrorMsg),
		nullableInt(rec.FailedIndex),
	)
	if err != nil {
		return fmt.Errorf("put resume: %w", err)
	}
	return nil
}

// GetResume fetches a resume record by gallery id, or nil when absent.
func (s *Store) GetResume(ctx context.Context, galleryID string) (*ResumeRecord, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT gallery_id, ts, stopped, last_error, last_error_msg, failed_index FROM resume WHERE gallery_id = ?`,
		galleryID,
	)
	rec, err := scanResume(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	return rec, nil
}

// ListResume returns all resume records ordered by timestamp.
func (s *Store) ListResume(ctx context.Context) ([]ResumeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gallery_id, ts, stopped, last_error, last_error_msg, failed_index FROM resume ORDER BY ts`)
	if err != nil {
		return nil, fmt.Errorf("list resume: %w", err)
	}
	defer rows.Close()

	var records []ResumeRecord
	for rows.Next() {
		rec, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteResume removes the resume record for a gallery, if any.
func (s *Store) DeleteResume(ctx context.Context, galleryID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resume WHERE gallery_id = ?`, galleryID); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	return nil
}

// SaveSettings persists the runtime settings blob.
func (s *Store) SaveSettings(ctx context.Context, settings any) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO settings (id, json) VALUES (1, ?)
         ON CONFLICT(id) DO UPDATE SET json = excluded.json`,
		string(raw),
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadSettings decodes the persisted settings blob into out. Returns false
// when no settings have been saved yet.
func (s *Store) LoadSettings(ctx context.Context, out any) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT json FROM settings WHERE id = 1`)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("load settings: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode settings: %w", err)
	}
	return true, nil
}

func scanCompleted(scanner interface{ Scan(dest ...any) error }) (*CompletedRecord, error) {
	var (
		galleryID string
		tsRaw     string
		title     sql.NullString
		total     int
	)
	if err := scanner.Scan(&galleryID, &tsRaw, &title, &total); err != nil {
		return nil, err
	}
	rec := &CompletedRecord{GalleryID: galleryID, Title: title.String, Total: total}
	if ts, err := parseTimeString(tsRaw); err == nil {
		rec.Timestamp = ts
	}
	return rec, nil
}

func scanResume(scanner interface{ Scan(dest ...any) error }) (*ResumeRecord, error) {
	var (
		galleryID   string
		tsRaw       string
		stopped     int
		lastError   int
		lastErrMsg  sql.NullString
		failedIndex sql.NullInt64
	)
	if err := scanner.Scan(&galleryID, &tsRaw, &stopped, &lastError, &lastErrMsg, &failedIndex); err != nil {
		return nil, err
	}
	rec := &ResumeRecord{
		GalleryID:    galleryID,
		Stopped:      stopped != 0,
		LastError:    lastError != 0,
		LastErrorMsg: lastErrMsg.String,
	}
	if failedIndex.Valid {
		rec.FailedIndex = int(failedIndex.Int64)
	}
	if ts, err := parseTimeString(tsRaw); err == nil {
		rec.Timestamp = ts
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func likeEscape(value string) string {
	escaped := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		switch value[i] {
		case '%', '_', '\\':
			escaped = append(escaped, '\\')
		}
		escaped = append(escaped, value[i])
	}
	return string(escaped)
}
