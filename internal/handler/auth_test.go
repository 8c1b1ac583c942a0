package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/online-exam-platform/internal/config"
	"github.com/iliyamo/online-exam-platform/internal/service"
)

// Logout rejects the request before touching any store, so the handler can
// be exercised without a database or Redis behind it.
func newLogoutHandler() *AuthHandler {
	tokens := service.NewTokenService(config.Config{JWTSecret: "handler-test-secret", AccessTTLMin: 15}, nil, nil)
	return &AuthHandler{Cfg: config.Config{}, Tokens: tokens}
}

func doLogout(t *testing.T, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	decorate(req)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, newLogoutHandler().Logout(c))
	return rec
}

func TestLogoutWithoutTokenIsBadRequest(t *testing.T) {
	rec := doLogout(t, func(*http.Request) {})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutWithMalformedTokenIsUnauthorized(t *testing.T) {
	rec := doLogout(t, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
