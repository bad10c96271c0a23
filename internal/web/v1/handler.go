// Package v1 exposes the auth API over HTTP. Handlers are thin: they bind
// the request, call the logic layer, and translate sentinel errors into
// the documented status codes and messages.
package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/webstack/auth-service/internal/core/domain"
	logicv1 "github.com/webstack/auth-service/internal/logic/v1"
	"github.com/webstack/auth-service/middleware"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

const (
	msgInvalidRequest   = "Invalid request data"
	msgInvalidLogin     = "Invalid email or password"
	msgEmailExists      = "User with this email already exists"
	msgLoggedOut        = "Logged out successfully"
	msgNotAuthenticated = "Not authenticated"
	msgInvalidSession   = "Invalid session"
)

// Handler groups the HTTP handlers for the auth API.
// Dependencies are injected via the constructor — no global state.
type Handler struct {
	auth *logicv1.AuthService

	// secureCookie sets the Secure flag on the session cookie; on in
	// production so the token never rides a plaintext connection.
	secureCookie bool

	// lifetime is the cookie max-age, matching the session lifetime the
	// store issues.
	lifetime time.Duration
}

// NewHandler creates a Handler. secureCookie should be true in production.
func NewHandler(auth *logicv1.AuthService, secureCookie bool, lifetime time.Duration) *Handler {
	return &Handler{auth: auth, secureCookie: secureCookie, lifetime: lifetime}
}

// RegisterRoutes registers the auth routes on the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
	rg.POST("/auth/signup", h.Signup)
	rg.POST("/auth/logout", h.Logout)
	rg.GET("/auth/me", h.Me)
}

// setSessionCookie attaches the session token to the response. HttpOnly and
// SameSite=Lax are fixed; the cookie lives exactly as long as the session.
func (h *Handler) setSessionCookie(c *gin.Context, session *domain.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, session.Token, int(h.lifetime.Seconds()), "/", "", h.secureCookie, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", h.secureCookie, true)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn().Err(err).Msg("Invalid login request")
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrInvalidCredentials) {
			logger.Info().Msg("Login rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"message": msgInvalidLogin})
			return
		}
		logger.Error().Err(err).Msg("Login failed")
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
		return
	}

	h.setSessionCookie(c, result.Session)
	logger.Info().Int("user_id", result.User.ID).Msg("Login successful")
	c.JSON(http.StatusOK, gin.H{"user": result.User.Public()})
}

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		logger.Warn().Err(err).Msg("Invalid signup request")
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
		return
	}

	result, err := h.auth.Signup(ctx, req)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"message": msgEmailExists})
			return
		}
		logger.Error().Err(err).Msg("Signup failed")
		c.JSON(http.StatusBadRequest, gin.H{"message": msgInvalidRequest})
		return
	}

	h.setSessionCookie(c, result.Session)
	logger.Info().Int("user_id", result.User.ID).Msg("Signup successful")
	c.JSON(http.StatusCreated, gin.H{"user": result.User.Public()})
}

// Logout handles POST /api/auth/logout. It always answers 200, whatever the
// cookie held.
func (h *Handler) Logout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		if err := h.auth.Logout(ctx, token); err != nil {
			// Deliberately swallowed: logout never errors to the caller.
			span.RecordError(err)
			logger.Error().Err(err).Msg("Session delete failed during logout")
		}
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": msgLoggedOut})
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	token, err := c.Cookie(SessionCookie)
	if err != nil || token == "" {
		span.SetAttributes(attribute.Bool("auth.present", false))
		c.JSON(http.StatusUnauthorized, gin.H{"message": msgNotAuthenticated})
		return
	}

	user, err := h.auth.WhoAmI(ctx, token)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, logicv1.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": msgInvalidSession})
			return
		}
		logger.Error().Err(err).Msg("Session lookup failed")
		c.JSON(http.StatusUnauthorized, gin.H{"message": msgInvalidSession})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}
