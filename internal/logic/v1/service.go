package v1

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/webstack/auth-service/internal/core/domain"
	"github.com/webstack/auth-service/middleware"
)

// AuthResult is the success shape shared by Login and Signup: the
// authenticated user together with the session issued for them.
type AuthResult struct {
	User    *domain.User
	Session *domain.Session
}

// AuthService implements authentication business rules. It depends on the
// domain.Store interface (injected via constructor) and MUST NOT know which
// backend is behind it.
type AuthService struct {
	store domain.Store
}

// NewAuthService creates a new AuthService on top of the given store.
func NewAuthService(store domain.Store) *AuthService {
	return &AuthService{store: store}
}

// Login verifies the credentials and issues a new session. An unknown email
// and a wrong password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*AuthResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user by email: %w", err)
	}
	if user == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate %q: %w", req.Email, ErrInvalidCredentials)
	}

	if !s.store.VerifyPassword(req.Password, user.PasswordHash) {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate %q: %w", req.Email, ErrInvalidCredentials)
	}

	session, err := s.store.CreateSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")

	return &AuthResult{User: user, Session: session}, nil
}

// Signup registers a new user and logs them in, mirroring Login's success
// shape. A taken email returns ErrEmailExists.
func (s *AuthService) Signup(ctx context.Context, req domain.SignupRequest) (*AuthResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.signup", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	existing, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("signup.success", false))
		return nil, fmt.Errorf("signup %q: %w", req.Email, ErrEmailExists)
	}

	// The pre-check above can race with a concurrent signup; the store's
	// uniqueness constraint is the backstop.
	user, err := s.store.CreateUser(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			span.SetAttributes(attribute.Bool("signup.success", false))
			return nil, fmt.Errorf("signup %q: %w", req.Email, ErrEmailExists)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	session, err := s.store.CreateSession(ctx, user.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.Bool("signup.success", true),
	)
	span.AddEvent("user.registered")

	return &AuthResult{User: user, Session: session}, nil
}

// Logout deletes the session for the token. Unknown or already-deleted
// tokens succeed silently; only a storage failure propagates.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := middleware.StartSpan(ctx, "auth.logout", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete session: %w", err)
	}
	span.AddEvent("session.deleted")
	return nil
}

// WhoAmI resolves a session token to its user. Missing, unknown, and
// expired tokens all return ErrNotAuthenticated.
func (s *AuthService) WhoAmI(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.whoami", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if token == "" {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, ErrNotAuthenticated
	}

	user, err := s.store.GetUserBySessionToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if user == nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("lookup session: %w", ErrNotAuthenticated)
	}

	span.SetAttributes(
		attribute.Int("user.id", user.ID),
		attribute.Bool("session.valid", true),
	)
	return user, nil
}
