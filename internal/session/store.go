package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"gamehub-api/internal/model"
)

// TokenPrefix is the prefix for all session tokens.
const TokenPrefix = "ghs_"

// Store defines the session token store. Two implementations exist:
// memory (development, single instance) and redis (production), chosen
// by configuration without changing business logic.
type Store interface {
	// Create stores the session under a fresh opaque token and returns it.
	Create(ctx context.Context, data model.SessionData) (string, error)

	// Get retrieves a session by token. Returns ErrSessionNotFound when
	// the token is unknown or expired.
	Get(ctx context.Context, token string) (*model.SessionData, error)

	// Delete removes a session (logout).
	Delete(ctx context.Context, token string) error

	// Close releases store resources.
	Close() error
}

// StoreError is a sentinel error type for session store failures.
type StoreError string

func (e StoreError) Error() string { return string(e) }

const (
	// ErrSessionNotFound indicates the token is unknown or expired.
	ErrSessionNotFound StoreError = "session not found"
)

// newToken generates an opaque session token from 32 random bytes.
func newToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return TokenPrefix + hex.EncodeToString(tokenBytes), nil
}

// validToken checks the token shape before any store lookup.
func validToken(token string) bool {
	return len(token) > len(TokenPrefix) && token[:len(TokenPrefix)] == TokenPrefix
}
