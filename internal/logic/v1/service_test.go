package v1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/webstack/auth-service/internal/core/credentials"
	"github.com/webstack/auth-service/internal/core/domain"
	"github.com/webstack/auth-service/internal/core/storage"
)

func newService(t *testing.T) (*AuthService, *storage.Memory) {
	t.Helper()
	store := storage.NewMemory(credentials.NewBcryptHasher(bcrypt.MinCost), credentials.NewRandomTokenSource())
	return NewAuthService(store), store
}

func signup(t *testing.T, s *AuthService, email, password, name string) *AuthResult {
	t.Helper()
	result, err := s.Signup(context.Background(), domain.SignupRequest{
		Email: email, Password: password, Name: name,
	})
	require.NoError(t, err)
	return result
}

func TestAuthService_Signup(t *testing.T) {
	svc, _ := newService(t)

	result := signup(t, svc, "a@x.com", "secret123", "A")
	assert.Equal(t, "a@x.com", result.User.Email)
	assert.Equal(t, "A", result.User.Name)
	require.NotNil(t, result.Session, "signup logs the user in")
	assert.Equal(t, result.User.ID, result.Session.UserID)
}

func TestAuthService_Signup_EmailExists(t *testing.T) {
	svc, _ := newService(t)
	signup(t, svc, "a@x.com", "secret123", "A")

	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "a@x.com", Password: "other-password", Name: "A2",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Signup_StoreDuplicateMapsToEmailExists(t *testing.T) {
	// A concurrent signup can slip past the pre-check; the store's
	// duplicate error must still surface as ErrEmailExists.
	svc := NewAuthService(&raceStore{})

	_, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email: "a@x.com", Password: "secret123", Name: "A",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAuthService_Login(t *testing.T) {
	svc, _ := newService(t)
	created := signup(t, svc, "a@x.com", "secret123", "A")

	result, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: "a@x.com", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, result.User.ID)
	assert.NotEqual(t, created.Session.Token, result.Session.Token, "each login issues a fresh session")
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _ := newService(t)
	signup(t, svc, "a@x.com", "secret123", "A")

	_, wrongPassword := svc.Login(context.Background(), domain.LoginRequest{
		Email: "a@x.com", Password: "wrong",
	})
	_, unknownEmail := svc.Login(context.Background(), domain.LoginRequest{
		Email: "nobody@x.com", Password: "secret123",
	})

	// Both failure modes collapse to the same sentinel so the HTTP layer
	// cannot distinguish them.
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
}

func TestAuthService_WhoAmI(t *testing.T) {
	svc, _ := newService(t)
	result := signup(t, svc, "a@x.com", "secret123", "A")

	user, err := svc.WhoAmI(context.Background(), result.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, user.ID)
}

func TestAuthService_WhoAmI_NotAuthenticated(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.WhoAmI(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.WhoAmI(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAuthService_WhoAmI_AfterLogout(t *testing.T) {
	svc, _ := newService(t)
	result := signup(t, svc, "a@x.com", "secret123", "A")

	require.NoError(t, svc.Logout(context.Background(), result.Session.Token))

	_, err := svc.WhoAmI(context.Background(), result.Session.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAuthService_WhoAmI_AfterExpiry(t *testing.T) {
	svc, store := newService(t)
	now := time.Now()
	store.SetClock(func() time.Time { return now })

	result := signup(t, svc, "a@x.com", "secret123", "A")

	now = now.Add(domain.SessionLifetime + time.Hour)
	_, err := svc.WhoAmI(context.Background(), result.Session.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestAuthService_Logout_UnknownTokenSucceeds(t *testing.T) {
	svc, _ := newService(t)

	assert.NoError(t, svc.Logout(context.Background(), ""))
	assert.NoError(t, svc.Logout(context.Background(), "no-such-token"))
	assert.NoError(t, svc.Logout(context.Background(), "no-such-token"), "repeat logout is a no-op")
}

func TestAuthService_Login_StoreError(t *testing.T) {
	svc := NewAuthService(&failingStore{err: errors.New("connection refused")})

	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: "a@x.com", Password: "secret123",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials, "backend failures are not credential failures")
}

// raceStore simulates the check-then-insert race: the pre-check sees no
// user, but the insert hits the uniqueness constraint.
type raceStore struct{ failingStore }

func (r *raceStore) GetUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, nil
}

func (r *raceStore) CreateUser(context.Context, string, string, string) (*domain.User, error) {
	return nil, domain.ErrDuplicateEmail
}

// failingStore returns its error from every storage operation.
type failingStore struct{ err error }

func (f *failingStore) GetUser(context.Context, int) (*domain.User, error) { return nil, f.err }
func (f *failingStore) GetUserByEmail(context.Context, string) (*domain.User, error) {
	return nil, f.err
}
func (f *failingStore) CreateUser(context.Context, string, string, string) (*domain.User, error) {
	return nil, f.err
}
func (f *failingStore) VerifyPassword(string, string) bool { return false }
func (f *failingStore) CreateSession(context.Context, int) (*domain.Session, error) {
	return nil, f.err
}
func (f *failingStore) GetSessionByToken(context.Context, string) (*domain.Session, error) {
	return nil, f.err
}
func (f *failingStore) DeleteSession(context.Context, string) error { return f.err }
func (f *failingStore) GetUserBySessionToken(context.Context, string) (*domain.User, error) {
	return nil, f.err
}
