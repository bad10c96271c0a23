// Package v1 provides authentication business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent common authentication
// failures. They are wrapped with context using fmt.Errorf("%w") when
// returned from business logic methods, and handlers map them back to HTTP
// statuses with errors.Is.
package v1

import "errors"

// Sentinel errors for authentication operations.
var (
	// ErrInvalidCredentials indicates the email or the password was wrong.
	// Deliberately one error for both cases so the boundary cannot leak
	// which one failed.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailExists indicates the email is already registered.
	// HTTP Status: 409 Conflict
	ErrEmailExists = errors.New("email already exists")

	// ErrNotAuthenticated indicates the session token is missing, unknown,
	// or expired.
	// HTTP Status: 401 Unauthorized
	ErrNotAuthenticated = errors.New("not authenticated")
)
