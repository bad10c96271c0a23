package domain

import (
	"context"
	"errors"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already
// taken. Both backends enforce email uniqueness; the Postgres backend maps
// its unique-constraint violation to this error so a concurrent duplicate
// signup cannot race past the service-level pre-check.
var ErrDuplicateEmail = errors.New("email already registered")

// Store is the storage contract the auth logic depends on. Implementations
// live in internal/core/storage (in-memory and Postgres) and must be
// behaviorally interchangeable, including the lazy-expiry semantics of
// GetSessionByToken.
//
// Lookup methods return (nil, nil) when the record is absent; a non-nil
// error always means the backend itself failed.
type Store interface {
	// GetUser returns the user with the given id.
	GetUser(ctx context.Context, id int) (*User, error)

	// GetUserByEmail returns the user with the given email. Comparison is
	// exact-match, case-sensitive.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// CreateUser hashes the plaintext password and persists a new user,
	// assigning its id and creation timestamp. Returns ErrDuplicateEmail
	// when the email is already present.
	CreateUser(ctx context.Context, email, password, name string) (*User, error)

	// VerifyPassword reports whether the plaintext matches the stored hash.
	// A malformed hash verifies as false, never as an error.
	VerifyPassword(password, hash string) bool

	// CreateSession generates a fresh token and persists a session for the
	// user, expiring SessionLifetime from now.
	CreateSession(ctx context.Context, userID int) (*Session, error)

	// GetSessionByToken returns the session for the token only if it is
	// unexpired. A session found past its expiry is deleted as a side
	// effect and reported as absent.
	GetSessionByToken(ctx context.Context, token string) (*Session, error)

	// DeleteSession removes the session for the token. Deleting an absent
	// token is a no-op.
	DeleteSession(ctx context.Context, token string) error

	// GetUserBySessionToken composes GetSessionByToken and GetUser,
	// reporting absent if either step misses.
	GetUserBySessionToken(ctx context.Context, token string) (*User, error)
}
