package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/notesync/notesync/internal/db"
	"github.com/notesync/notesync/internal/target"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_records (
    path       TEXT NOT NULL,
    target     TEXT NOT NULL,
    hash       TEXT NOT NULL,
    remote_id  TEXT NOT NULL,
    remote_url TEXT NOT NULL DEFAULT '',
    synced_at  TEXT NOT NULL, -- RFC3339
    PRIMARY KEY (path, target)
);

CREATE INDEX IF NOT EXISTS idx_records_target ON sync_records(target);

CREATE TABLE IF NOT EXISTS target_runs (
    target    TEXT PRIMARY KEY,
    ran_at    TEXT NOT NULL, -- RFC3339
    succeeded INTEGER NOT NULL,
    failed    INTEGER NOT NULL,
    skipped   INTEGER NOT NULL
);
`

// RunStats is the outcome of the last sync run for one target.
type RunStats struct {
	Target    string    `db:"target"`
	RanAt     time.Time `db:"-"`
	Succeeded int       `db:"succeeded"`
	Failed    int       `db:"failed"`
	Skipped   int       `db:"skipped"`
}

// Store persists sync records in SQLite. One row per (path, target) pair,
// replaced in place on every successful upsert.
type Store struct {
	db *sqlx.DB
}

// Open creates or opens the store at dbPath.
func Open(dbPath string) (*Store, error) {
	database, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &Store{db: database}, nil
}

// OpenInMemory is used by tests.
func OpenInMemory() (*Store, error) {
	return Open(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

type recordRow struct {
	Path     string `db:"path"`
	Target   string `db:"target"`
	Hash     string `db:"hash"`
	RemoteID string `db:"remote_id"`
	URL      string `db:"remote_url"`
	SyncedAt string `db:"synced_at"`
}

func (r *recordRow) toRecord() (*target.Record, error) {
	syncedAt, err := time.Parse(time.RFC3339, r.SyncedAt)
	if err != nil {
		return nil, fmt.Errorf("parse synced_at for %s/%s: %w", r.Path, r.Target, err)
	}
	return &target.Record{
		Path:     r.Path,
		Target:   r.Target,
		Hash:     r.Hash,
		RemoteID: r.RemoteID,
		URL:      r.URL,
		SyncedAt: syncedAt,
	}, nil
}

// Get returns the record for a (path, target) pair, or nil when none exists.
func (s *Store) Get(path, targetName string) (*target.Record, error) {
	var row recordRow
	err := s.db.Get(&row,
		"SELECT path, target, hash, remote_id, remote_url, synced_at FROM sync_records WHERE path = ? AND target = ?",
		path, targetName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query record %s/%s: %w", path, targetName, err)
	}
	return row.toRecord()
}

// Set inserts or replaces the record for its (path, target) pair.
func (s *Store) Set(rec *target.Record) error {
	if rec == nil {
		return errors.New("cannot set nil record")
	}
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO sync_records (path, target, hash, remote_id, remote_url, synced_at) VALUES (?, ?, ?, ?, ?, ?)",
		rec.Path, rec.Target, rec.Hash, rec.RemoteID, rec.URL, rec.SyncedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set record %s/%s: %w", rec.Path, rec.Target, err)
	}
	return nil
}

// Delete removes the record for one (path, target) pair.
func (s *Store) Delete(path, targetName string) error {
	_, err := s.db.Exec("DELETE FROM sync_records WHERE path = ? AND target = ?", path, targetName)
	if err != nil {
		return fmt.Errorf("delete record %s/%s: %w", path, targetName, err)
	}
	return nil
}

// DeletePath removes every record for a path, across targets. Used by the
// best-effort cleanup when a local file disappeared.
func (s *Store) DeletePath(path string) error {
	_, err := s.db.Exec("DELETE FROM sync_records WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("delete records for %s: %w", path, err)
	}
	return nil
}

// Paths returns every distinct tracked path.
func (s *Store) Paths() ([]string, error) {
	var paths []string
	if err := s.db.Select(&paths, "SELECT DISTINCT path FROM sync_records ORDER BY path"); err != nil {
		return nil, fmt.Errorf("query paths: %w", err)
	}
	return paths, nil
}

// ForTarget returns all records for one target, keyed by path.
func (s *Store) ForTarget(targetName string) (map[string]*target.Record, error) {
	var rows []recordRow
	if err := s.db.Select(&rows,
		"SELECT path, target, hash, remote_id, remote_url, synced_at FROM sync_records WHERE target = ?",
		targetName); err != nil {
		return nil, fmt.Errorf("query records for %s: %w", targetName, err)
	}

	records := make(map[string]*target.Record, len(rows))
	for i := range rows {
		rec, err := rows[i].toRecord()
		if err != nil {
			return nil, err
		}
		records[rec.Path] = rec
	}
	return records, nil
}

// Count returns the number of distinct tracked paths.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.Get(&count, "SELECT COUNT(DISTINCT path) FROM sync_records"); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// LastSync returns the newest synced_at for a target, or the zero time when
// the target has never synced.
func (s *Store) LastSync(targetName string) (time.Time, error) {
	var ts sql.NullString
	err := s.db.Get(&ts, "SELECT MAX(synced_at) FROM sync_records WHERE target = ?", targetName)
	if err != nil {
		return time.Time{}, fmt.Errorf("query last sync for %s: %w", targetName, err)
	}
	if !ts.Valid || ts.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, ts.String)
}

// SetRunStats records the outcome of a run for one target.
func (s *Store) SetRunStats(stats *RunStats) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO target_runs (target, ran_at, succeeded, failed, skipped) VALUES (?, ?, ?, ?, ?)",
		stats.Target, stats.RanAt.Format(time.RFC3339), stats.Succeeded, stats.Failed, stats.Skipped)
	if err != nil {
		return fmt.Errorf("set run stats for %s: %w", stats.Target, err)
	}
	return nil
}

// RunStats returns the last run outcome for a target, or nil when the
// target has never run.
func (s *Store) RunStats(targetName string) (*RunStats, error) {
	var row struct {
		Target    string `db:"target"`
		RanAt     string `db:"ran_at"`
		Succeeded int    `db:"succeeded"`
		Failed    int    `db:"failed"`
		Skipped   int    `db:"skipped"`
	}
	err := s.db.Get(&row,
		"SELECT target, ran_at, succeeded, failed, skipped FROM target_runs WHERE target = ?", targetName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query run stats for %s: %w", targetName, err)
	}

	ranAt, err := time.Parse(time.RFC3339, row.RanAt)
	if err != nil {
		return nil, fmt.Errorf("parse ran_at for %s: %w", targetName, err)
	}
	return &RunStats{
		Target:    row.Target,
		RanAt:     ranAt,
		Succeeded: row.Succeeded,
		Failed:    row.Failed,
		Skipped:   row.Skipped,
	}, nil
}
