// Package voc persists field-sales VOC (voice of customer) requests: a
// manager files a request against their region, an admin works it through a
// new / in-progress / done flow and leaves a comment.
package voc

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fieldops/territory-cli/internal/config"
)

// Status is the request workflow state.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known workflow state.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Request is one VOC request.
type Request struct {
	ID           string    `json:"id"`
	User         string    `json:"user"`
	Role         string    `json:"role"`
	Region       string    `json:"region,omitempty"`
	Subject      string    `json:"subject"`
	Content      string    `json:"content"`
	Priority     string    `json:"priority"`
	Status       Status    `json:"status"`
	AdminComment string    `json:"admin_comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Filter narrows a List call. Zero values mean "any".
type Filter struct {
	User   string
	Status Status
	Limit  int
}

// ErrNotFound is returned when a request id does not exist.
var ErrNotFound = eris.New("voc: request not found")

// Store is the VOC request store.
type Store interface {
	// Create stores a new request, filling ID, Status (new), CreatedAt and
	// UpdatedAt, and returns the stored request.
	Create(ctx context.Context, r Request) (Request, error)
	// Get returns one request by id, or ErrNotFound.
	Get(ctx context.Context, id string) (Request, error)
	// List returns requests newest first.
	List(ctx context.Context, f Filter) ([]Request, error)
	// UpdateStatus moves a request through the workflow and records the
	// admin comment, returning the updated request or ErrNotFound.
	UpdateStatus(ctx context.Context, id string, status Status, adminComment string) (Request, error)
	// Delete removes a request, or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open opens the store from configuration.
func Open(ctx context.Context, cfg config.VOCConfig) (Store, error) {
	return OpenSQLite(ctx, cfg.Path)
}
