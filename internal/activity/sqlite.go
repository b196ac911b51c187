package activity

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the default single-file activity store.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS activity_log (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL,
	role       TEXT NOT NULL,
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);
`

// OpenSQLite opens (creating if needed) the activity database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "activity: open sqlite")
	}

	// Single writer; WAL keeps readers unblocked during appends.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "activity: %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "activity: create schema")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, e Entry) (Entry, error) {
	e = stamp(e)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (id, username, role, action, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.User, e.Role, e.Action, e.Detail, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Entry{}, eris.Wrap(err, "activity: insert entry")
	}
	return e, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, username, role, action, detail, created_at
		FROM activity_log WHERE 1=1`
	var args []any
	if f.User != "" {
		query += " AND username = ?"
		args = append(args, f.User)
	}
	if f.Action != "" {
		query += " AND action = ?"
		args = append(args, f.Action)
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "activity: list entries")
	}
	defer rows.Close() //nolint:errcheck

	var out []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.User, &e.Role, &e.Action, &e.Detail, &created); err != nil {
			return nil, eris.Wrap(err, "activity: scan entry")
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "activity: iterate entries")
	}
	return out, nil
}

func (s *SQLiteStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM activity_log WHERE created_at < ?`,
		olderThan.UnixNano(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "activity: purge entries")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "activity: purge rows affected")
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// stamp fills identity and timestamp on a new entry.
func stamp(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e
}
