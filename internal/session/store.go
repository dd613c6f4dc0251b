// Package session maps opaque cookie tokens to user ids.
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned for unknown or expired tokens.
var ErrNotFound = errors.New("session not found")

// Store issues and resolves login sessions.
type Store interface {
	Create(ctx context.Context, userID string) (string, error)
	Lookup(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}
