package repository

import (
	"context"

	"social-relay/domain/model"
)

// ISessionStore maps opaque session ids to server-side session records.
type ISessionStore interface {
	// NewID mints an id for a client that has no valid session cookie.
	NewID() string
	// Get returns a copy of the record, or model.ErrSessionNotFound.
	Get(ctx context.Context, id string) (*model.Session, error)
	// Mutate runs fn on the live record (created when absent) while holding the store lock.
	// Changes are kept only when fn returns nil.
	Mutate(ctx context.Context, id string, fn func(*model.Session) error) error
}
