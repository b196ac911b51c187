package voc

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the single-file VOC store.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS voc_requests (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	role          TEXT NOT NULL,
	region        TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL,
	content       TEXT NOT NULL,
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL,
	admin_comment TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_voc_created ON voc_requests(created_at);
`

// OpenSQLite opens (creating if needed) the VOC database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "voc: open sqlite")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "voc: %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "voc: create schema")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, r Request) (Request, error) {
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.Status = StatusNew
	r.AdminComment = ""
	if r.Priority == "" {
		r.Priority = "normal"
	}
	r.CreatedAt = now
	r.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voc_requests
		 (id, username, role, region, subject, content, priority, status, admin_comment, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.User, r.Role, r.Region, r.Subject, r.Content, r.Priority,
		string(r.Status), r.AdminComment, r.CreatedAt.UnixNano(), r.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return Request{}, eris.Wrap(err, "voc: insert request")
	}
	return r, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Request, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, region, subject, content, priority, status, admin_comment, created_at, updated_at
		 FROM voc_requests WHERE id = ?`, id)

	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, eris.Wrap(err, "voc: get request")
	}
	return r, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Request, error) {
	query := `SELECT id, username, role, region, subject, content, priority, status, admin_comment, created_at, updated_at
		FROM voc_requests WHERE 1=1`
	var args []any
	if f.User != "" {
		query += " AND username = ?"
		args = append(args, f.User)
	}
	if f.Status != "" {
		query += " AND status = ?"
		args = append(args, string(f.Status))
	}
	query += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "voc: list requests")
	}
	defer rows.Close() //nolint:errcheck

	var out []Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "voc: scan request")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "voc: iterate requests")
	}
	return out, nil
}

func (s *SQLiteStore) UpdateStatus(ctx context.Context, id string, status Status, adminComment string) (Request, error) {
	if !status.Valid() {
		return Request{}, eris.Errorf("voc: invalid status %q", status)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE voc_requests SET status = ?, admin_comment = ?, updated_at = ? WHERE id = ?`,
		string(status), adminComment, time.Now().UTC().UnixNano(), id,
	)
	if err != nil {
		return Request{}, eris.Wrap(err, "voc: update request")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Request{}, eris.Wrap(err, "voc: update rows affected")
	}
	if n == 0 {
		return Request{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM voc_requests WHERE id = ?`, id)
	if err != nil {
		return eris.Wrap(err, "voc: delete request")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "voc: delete rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRequest(scan func(dest ...any) error) (Request, error) {
	var r Request
	var status string
	var created, updated int64
	err := scan(&r.ID, &r.User, &r.Role, &r.Region, &r.Subject, &r.Content,
		&r.Priority, &status, &r.AdminComment, &created, &updated)
	if err != nil {
		return Request{}, err
	}
	r.Status = Status(status)
	r.CreatedAt = time.Unix(0, created).UTC()
	r.UpdatedAt = time.Unix(0, updated).UTC()
	return r, nil
}
