package handler

import (
	"context"      // provides context with cancellation for DB calls
	"database/sql" // SQL database interactions
	"net/http"     // HTTP status codes and primitives
	"strconv"      // string-to-int conversion
	"strings"      // string manipulation utilities
	"time"         // timeouts for DB calls

	"github.com/google/uuid"      // audit event identifiers
	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/online-exam-platform/internal/config"     // app configuration
	"github.com/iliyamo/online-exam-platform/internal/middleware" // context keys set by JWTAuth
	"github.com/iliyamo/online-exam-platform/internal/queue"      // audit event payloads
	"github.com/iliyamo/online-exam-platform/internal/repository" // DB repositories
	"github.com/iliyamo/online-exam-platform/internal/service"    // token lifecycle + audit publisher
	"github.com/iliyamo/online-exam-platform/internal/utils"      // password verification
)

// refreshCookieName is the httpOnly cookie carrying the refresh token.  The
// refresh token travels in this cookie only; it never appears in response
// bodies.
const refreshCookieName = "refresh_token"

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *service.TokenService
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *service.TokenService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// clientMeta extracts the caller's address and agent for session records
// and audit events.
func clientMeta(c echo.Context) service.ClientMeta {
	return service.ClientMeta{IP: c.RealIP(), UserAgent: c.Request().UserAgent()}
}

// audit publishes a security event to the audit queue.  Failures are
// ignored on purpose: auditing must never break the request it describes.
func audit(c echo.Context, userID uint64, action string, meta map[string]interface{}) {
	_ = service.PublishAuditEvent(c.Request().Context(), queue.AuditEvent{
		EventID:    uuid.NewString(),
		UserID:     userID,
		Action:     action,
		Meta:       meta,
		IP:         c.RealIP(),
		UserAgent:  c.Request().UserAgent(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// userIDFromCtx reads the subject injected by the JWTAuth middleware.
func userIDFromCtx(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(middleware.CtxUserID).(uint64)
	return uid, ok
}

// setRefreshCookie writes the refresh token cookie scoped to the auth
// routes.  Secure is enabled outside of dev so the cookie only travels
// over TLS in production.
func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    raw,
		Path:     "/v1/auth",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
}

// clearRefreshCookie expires the refresh token cookie.
func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
}

// Register: create a student account.  Tokens are not issued here; the
// client logs in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, strings.TrimSpace(req.Name), req.Email, req.Password, "student", h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "user already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	audit(c, uid, "register", nil)
	return c.JSON(http.StatusOK, userPart{ID: uid, Name: req.Name, Email: req.Email, Role: "student"})
}

// Login: verify credentials, return an access token and set the refresh
// cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := h.Tokens.IssueAccessToken(u.ID, u.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := h.Tokens.IssueRefreshToken(ctx, u.ID, clientMeta(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}

	h.setRefreshCookie(c, refresh.Raw, refresh.Exp)
	audit(c, u.ID, "login", map[string]interface{}{"expires_at": refresh.Exp})
	return c.JSON(http.StatusOK, echo.Map{"token": access.Token, "expires": access.Exp})
}

// Refresh: rotate the refresh cookie and return a fresh access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no refresh token"})
	}
	raw := strings.TrimSpace(cookie.Value)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, next, err := h.Tokens.Rotate(ctx, raw, clientMeta(c))
	if err != nil {
		if err == repository.ErrInvalidRefresh {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	access, err := h.Tokens.IssueAccessToken(u.ID, u.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	h.setRefreshCookie(c, next.Raw, next.Exp)
	audit(c, u.ID, "refresh", nil)
	return c.JSON(http.StatusOK, echo.Map{"token": access.Token, "expires": access.Exp})
}

// Me: return the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, userPart{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// Sessions: list the caller's refresh-token sessions, marking the current one.
func (h *AuthHandler) Sessions(c echo.Context) error {
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	current := ""
	if cookie, err := c.Cookie(refreshCookieName); err == nil {
		current = cookie.Value
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.Tokens.Sessions(ctx, uid, current)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sessions failed"})
	}
	return c.JSON(http.StatusOK, sessions)
}

// RevokeSession: revoke one of the caller's active sessions by id.
func (h *AuthHandler) RevokeSession(c echo.Context) error {
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeSession(ctx, sessionID, uid); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}

	audit(c, uid, "revoke_session", map[string]interface{}{"session_id": sessionID})
	return c.JSON(http.StatusOK, echo.Map{"message": "session revoked"})
}

// RevokeAllSessions: revoke every active session of the caller.  Idempotent.
func (h *AuthHandler) RevokeAllSessions(c echo.Context) error {
	uid, ok := userIDFromCtx(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAll(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
	}

	audit(c, uid, "revoke_all_sessions", nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "all sessions revoked"})
}

// Logout: denylist the presented access token for its remaining lifetime,
// revoke the caller's refresh tokens and clear the cookie.  The token is
// read and verified here rather than by the JWTAuth middleware so that a
// request carrying no token at all answers 400, not 401.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := ""
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		raw = strings.TrimPrefix(auth, "Bearer ")
	} else if cookie, err := c.Cookie("token"); err == nil {
		raw = cookie.Value
	}
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no token provided"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Tokens.Logout(ctx, raw)
	if err != nil {
		if err == service.ErrTokenInvalid || err == service.ErrTokenExpired {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	h.clearRefreshCookie(c)
	audit(c, uid, "logout", nil)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
