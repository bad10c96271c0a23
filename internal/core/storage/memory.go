// Package storage provides the two interchangeable domain.Store backends:
// a transient in-process store for development and testing, and a
// Postgres-backed store for production.
package storage

import (
	"context"
	"sync"
	"time"

	"github.com/webstack/auth-service/internal/core/credentials"
	"github.com/webstack/auth-service/internal/core/domain"
)

var _ domain.Store = (*Memory)(nil)

// Memory is the transient domain.Store. All data is lost on restart.
// Unlike the relational backend it is guarded by a mutex, since the server
// handles requests on concurrent goroutines.
type Memory struct {
	hasher credentials.Hasher
	tokens credentials.TokenSource

	mu            sync.RWMutex
	users         map[int]*domain.User
	usersByEmail  map[string]int
	sessions      map[string]*domain.Session
	nextUserID    int
	nextSessionID int

	lifetime time.Duration
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(hasher credentials.Hasher, tokens credentials.TokenSource) *Memory {
	return &Memory{
		hasher:        hasher,
		tokens:        tokens,
		users:         make(map[int]*domain.User),
		usersByEmail:  make(map[string]int),
		sessions:      make(map[string]*domain.Session),
		nextUserID:    1,
		nextSessionID: 1,
		lifetime:      domain.SessionLifetime,
		now:           time.Now,
	}
}

// SetClock overrides the time source, letting tests advance past expiry.
func (m *Memory) SetClock(now func() time.Time) { m.now = now }

// SetSessionLifetime overrides the default 30-day session lifetime.
func (m *Memory) SetSessionLifetime(d time.Duration) { m.lifetime = d }

// GetUser returns the user with the given id, or (nil, nil) when absent.
func (m *Memory) GetUser(_ context.Context, id int) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

// GetUserByEmail returns the user with the given email, exact match.
func (m *Memory) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, nil
	}
	u := *m.users[id]
	return &u, nil
}

// CreateUser hashes the password and inserts a new user. Returns
// domain.ErrDuplicateEmail when the email is already registered.
func (m *Memory) CreateUser(_ context.Context, email, password, name string) (*domain.User, error) {
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.usersByEmail[email]; taken {
		return nil, domain.ErrDuplicateEmail
	}

	user := &domain.User{
		ID:           m.nextUserID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    m.now(),
	}
	m.nextUserID++
	m.users[user.ID] = user
	m.usersByEmail[email] = user.ID

	u := *user
	return &u, nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func (m *Memory) VerifyPassword(password, hash string) bool {
	return m.hasher.Verify(password, hash)
}

// CreateSession issues a fresh token and stores a session for the user.
func (m *Memory) CreateSession(_ context.Context, userID int) (*domain.Session, error) {
	token, err := m.tokens.Token()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	session := &domain.Session{
		ID:        m.nextSessionID,
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(m.lifetime),
		CreatedAt: now,
	}
	m.nextSessionID++
	m.sessions[token] = session

	s := *session
	return &s, nil
}

// GetSessionByToken returns the session if it is unexpired. An expired
// session is deleted on this read and reported absent.
func (m *Memory) GetSessionByToken(_ context.Context, token string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	if !session.Valid(m.now()) {
		delete(m.sessions, token)
		return nil, nil
	}
	s := *session
	return &s, nil
}

// DeleteSession removes the session for the token; absent tokens are a no-op.
func (m *Memory) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

// GetUserBySessionToken resolves token to session to user, absent if either
// step misses.
func (m *Memory) GetUserBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	session, err := m.GetSessionByToken(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	return m.GetUser(ctx, session.UserID)
}
