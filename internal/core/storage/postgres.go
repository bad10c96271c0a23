package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webstack/auth-service/internal/core/credentials"
	"github.com/webstack/auth-service/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            SERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS sessions (
	id         SERIAL PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id),
	token      TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// pgPool is the slice of pgxpool.Pool the store uses. Declared as an
// interface so tests can substitute a pgxmock pool.
type pgPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

var _ domain.Store = (*Postgres)(nil)

// Postgres is the durable domain.Store, backed by a pgx connection pool.
// Consistency beyond single-statement atomicity is the database's job: the
// unique constraint on users.email is what makes concurrent duplicate
// signups safe, not the service-level pre-check.
type Postgres struct {
	pool     pgPool
	hasher   credentials.Hasher
	tokens   credentials.TokenSource
	lifetime time.Duration
	now      func() time.Time
}

// NewPostgres wraps an existing pool. Used directly by tests; production
// code goes through OpenPostgres.
func NewPostgres(pool pgPool, hasher credentials.Hasher, tokens credentials.TokenSource) *Postgres {
	return &Postgres{
		pool:     pool,
		hasher:   hasher,
		tokens:   tokens,
		lifetime: domain.SessionLifetime,
		now:      time.Now,
	}
}

// OpenPostgres connects to the database, verifies the connection, and
// creates the schema if it does not exist yet.
func OpenPostgres(ctx context.Context, dsn string, hasher credentials.Hasher, tokens credentials.TokenSource) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := NewPostgres(pool, hasher, tokens)
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() { p.pool.Close() }

// SetClock overrides the time source, letting tests advance past expiry.
func (p *Postgres) SetClock(now func() time.Time) { p.now = now }

// SetSessionLifetime overrides the default 30-day session lifetime.
func (p *Postgres) SetSessionLifetime(d time.Duration) { p.lifetime = d }

func (p *Postgres) ensureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetUser returns the user with the given id, or (nil, nil) when absent.
func (p *Postgres) GetUser(ctx context.Context, id int) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE id = $1`

	var u domain.User
	err := p.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id: %w", err)
	}
	return &u, nil
}

// GetUserByEmail returns the user with the given email, exact match.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`

	var u domain.User
	err := p.pool.QueryRow(ctx, query, email).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	return &u, nil
}

// CreateUser hashes the password and inserts a new user. A violation of the
// email unique constraint maps to domain.ErrDuplicateEmail.
func (p *Postgres) CreateUser(ctx context.Context, email, password, name string) (*domain.User, error) {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	user := &domain.User{Email: email, Name: name, PasswordHash: hash}
	err = p.pool.QueryRow(ctx, query, email, name, hash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func (p *Postgres) VerifyPassword(password, hash string) bool {
	return p.hasher.Verify(password, hash)
}

// CreateSession issues a fresh token and inserts a session for the user.
func (p *Postgres) CreateSession(ctx context.Context, userID int) (*domain.Session, error) {
	token, err := p.tokens.Token()
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO sessions (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	session := &domain.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: p.now().Add(p.lifetime),
	}
	err = p.pool.QueryRow(ctx, query, userID, token, session.ExpiresAt).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return session, nil
}

// GetSessionByToken returns the session if it is unexpired. An expired row
// is deleted on this read and reported absent; there is no background sweep.
func (p *Postgres) GetSessionByToken(ctx context.Context, token string) (*domain.Session, error) {
	query := `SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = $1`

	var s domain.Session
	err := p.pool.QueryRow(ctx, query, token).Scan(
		&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query session by token: %w", err)
	}

	if !s.Valid(p.now()) {
		if err := p.DeleteSession(ctx, token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &s, nil
}

// DeleteSession removes the session for the token; absent tokens are a no-op.
func (p *Postgres) DeleteSession(ctx context.Context, token string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetUserBySessionToken resolves token to session to user, absent if either
// step misses.
func (p *Postgres) GetUserBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	session, err := p.GetSessionByToken(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	return p.GetUser(ctx, session.UserID)
}
