package domain

import "time"

// SessionLifetime is how long a freshly issued session stays valid.
const SessionLifetime = 30 * 24 * time.Hour

// Session is proof of an authenticated identity. The token is the sole
// lookup key and doubles as the bearer credential carried in the cookie.
// UserID is a weak reference to the owning user, not ownership.
type Session struct {
	ID        int
	UserID    int
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid reports whether the session has not yet expired at the given time.
func (s *Session) Valid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
