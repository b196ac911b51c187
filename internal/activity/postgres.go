package activity

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// pgxPool is the pool subset the store uses; pgxmock satisfies it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore backs the activity log with a shared Postgres database, for
// deployments where several dashboard instances share one log.
type PostgresStore struct {
	pool pgxPool
}

var _ Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS activity_log (
	id         UUID PRIMARY KEY,
	username   TEXT NOT NULL,
	role       TEXT NOT NULL,
	action     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_log(created_at);
`

// OpenPostgres connects a pool and ensures the schema exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, eris.New("activity: database_url is required for the postgres driver")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "activity: connect postgres")
	}
	store := NewPostgres(pool)
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "activity: create schema")
	}
	return store, nil
}

// NewPostgres wraps an existing pool (or a mock) without touching the schema.
func NewPostgres(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) (Entry, error) {
	e = stamp(e)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO activity_log (id, username, role, action, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.User, e.Role, e.Action, e.Detail, e.CreatedAt,
	)
	if err != nil {
		return Entry{}, eris.Wrap(err, "activity: insert entry")
	}
	return e, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := `SELECT id, username, role, action, detail, created_at
		FROM activity_log WHERE 1=1`
	var args []any
	if f.User != "" {
		args = append(args, f.User)
		query += ` AND username = $` + itoa(len(args))
	}
	if f.Action != "" {
		args = append(args, f.Action)
		query += ` AND action = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "activity: list entries")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.User, &e.Role, &e.Action, &e.Detail, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "activity: scan entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "activity: iterate entries")
	}
	return out, nil
}

func (s *PostgresStore) Purge(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM activity_log WHERE created_at < $1`, olderThan,
	)
	if err != nil {
		return 0, eris.Wrap(err, "activity: purge entries")
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
