// Package activity persists the append-only activity log behind the
// dashboard: who ran an ingest, who viewed which records, when.
package activity

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fieldops/territory-cli/internal/config"
)

// Entry is one activity log line.
type Entry struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Role      string    `json:"role"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter narrows a List call. Zero values mean "any".
type Filter struct {
	User   string
	Action string
	Limit  int
}

// Store is the activity log. Entries are append-only; the only mutation is
// the retention purge.
type Store interface {
	// Append records an entry, filling ID and CreatedAt when empty, and
	// returns the stored entry.
	Append(ctx context.Context, e Entry) (Entry, error)
	// List returns entries newest first.
	List(ctx context.Context, f Filter) ([]Entry, error)
	// Purge deletes entries older than the cutoff and reports the count.
	Purge(ctx context.Context, olderThan time.Time) (int64, error)
	Close() error
}

// Open selects and opens a store driver from configuration.
func Open(ctx context.Context, cfg config.ActivityConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return OpenSQLite(ctx, cfg.Path)
	case "postgres":
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("activity: unknown driver %q", cfg.Driver)
	}
}
