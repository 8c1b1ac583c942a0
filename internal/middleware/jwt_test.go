package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-exam-platform/internal/config"
	"github.com/iliyamo/online-exam-platform/internal/repository"
	"github.com/iliyamo/online-exam-platform/internal/service"
	"github.com/iliyamo/online-exam-platform/internal/utils"
)

// nullRefreshStore satisfies service.RefreshStore; the middleware tests
// never touch refresh tokens.
type nullRefreshStore struct{}

func (nullRefreshStore) StoreRefresh(context.Context, uint64, string, time.Time, string, string) error {
	return nil
}
func (nullRefreshStore) Rotate(context.Context, string, string, time.Time, string, string) (uint64, error) {
	return 0, repository.ErrInvalidRefresh
}
func (nullRefreshStore) ValidateRefresh(context.Context, string) (repository.RefreshTokenRecord, error) {
	return repository.RefreshTokenRecord{}, repository.ErrInvalidRefresh
}
func (nullRefreshStore) RevokeByID(context.Context, uint64, uint64) error   { return nil }
func (nullRefreshStore) RevokeAllForUser(context.Context, uint64) error     { return nil }
func (nullRefreshStore) ListByUser(context.Context, uint64) ([]repository.RefreshTokenRecord, error) {
	return nil, nil
}

// memRevocationList is a map-backed revocation set.
type memRevocationList map[string]bool

func (m memRevocationList) Revoke(_ context.Context, hash string, _ time.Duration) error {
	m[hash] = true
	return nil
}
func (m memRevocationList) IsRevoked(_ context.Context, hash string) (bool, error) {
	return m[hash], nil
}

func newTestTokens(revoked memRevocationList) *service.TokenService {
	cfg := config.Config{JWTSecret: "middleware-test-secret", AccessTTLMin: 15, RefreshTTLDays: 7}
	return service.NewTokenService(cfg, nullRefreshStore{}, revoked)
}

// invoke runs the JWTAuth middleware around a probe handler that echoes the
// context values it received.
func invoke(t *testing.T, tokens *service.TokenService, decorate func(*http.Request)) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTAuth(tokens)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTAuthAcceptsBearerToken(t *testing.T) {
	tokens := newTestTokens(memRevocationList{})
	access, err := tokens.IssueAccessToken(11, "student")
	require.NoError(t, err)

	rec, c := invoke(t, tokens, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+access.Token)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(11), c.Get(CtxUserID))
	assert.Equal(t, "student", c.Get(CtxRole))
}

func TestJWTAuthAcceptsTokenCookie(t *testing.T) {
	tokens := newTestTokens(memRevocationList{})
	access, err := tokens.IssueAccessToken(12, "admin")
	require.NoError(t, err)

	rec, c := invoke(t, tokens, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "token", Value: access.Token})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(12), c.Get(CtxUserID))
	assert.Equal(t, "admin", c.Get(CtxRole))
}

func TestJWTAuthRejectsMissingToken(t *testing.T) {
	tokens := newTestTokens(memRevocationList{})

	rec, _ := invoke(t, tokens, func(*http.Request) {})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsRevokedToken(t *testing.T) {
	revoked := memRevocationList{}
	tokens := newTestTokens(revoked)
	access, err := tokens.IssueAccessToken(13, "student")
	require.NoError(t, err)
	revoked[utils.HashTokenRaw(access.Token)] = true

	// Signature and expiry are fine; the revocation set alone rejects it.
	rec, _ := invoke(t, tokens, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+access.Token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthRejectsForgedToken(t *testing.T) {
	tokens := newTestTokens(memRevocationList{})
	forged, err := utils.NewAccessToken("another-secret", 13, "admin", 15)
	require.NoError(t, err)

	rec, _ := invoke(t, tokens, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+forged.Token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	run := func(role interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/exams", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != nil {
			c.Set(CtxRole, role)
		}
		handler := RequireRole("admin")(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		require.NoError(t, handler(c))
		return rec
	}

	assert.Equal(t, http.StatusOK, run("admin").Code)
	assert.Equal(t, http.StatusForbidden, run("student").Code)
	assert.Equal(t, http.StatusForbidden, run(nil).Code)
}
