// Package identity resolves bearer credentials to stable user ids.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidToken covers malformed, expired and badly signed tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingToken means no credential was supplied
	ErrMissingToken = errors.New("missing token")
)

// Identity is what a verified credential tells us about the caller
type Identity struct {
	UID   string
	Email string
	Name  string
}

// Resolver verifies a credential
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}
