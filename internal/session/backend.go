package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by backends when a session ID is unknown or expired
var ErrNotFound = errors.New("session not found")

// Backend holds encoded session values keyed by session ID
type Backend interface {
	Load(ctx context.Context, id string) (string, error)
	Store(ctx context.Context, id, data string, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
