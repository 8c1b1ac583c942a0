package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"log"                   // log records the internal cause of rejected tokens
	"net/http"              // HTTP status codes for responses
	"strings"               // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/online-exam-platform/internal/service" // token verification
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates an access token and
// injects the verified subject and role claims into the request context.
// The token is read from the Authorization header ("Bearer <token>") or,
// failing that, from the "token" cookie.  Verification goes through the
// token service so that revoked tokens are rejected even while their
// signature and expiry are still valid.  All verification failures produce
// the same 401 response; the specific cause is only logged.
func JWTAuth(tokens *service.TokenService) echo.MiddlewareFunc {
	// The outer function returns a middleware function.  Echo executes this
	// once when registering the middleware.
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		// The returned handler is invoked for each incoming HTTP request.
		return func(c echo.Context) error {
			// Prefer the Authorization header.  A valid header starts with
			// "Bearer " followed by the JWT.
			raw := ""
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			} else if cookie, err := c.Cookie("token"); err == nil {
				// Fall back to the access token cookie for browser clients.
				raw = cookie.Value
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
			}

			claims, err := tokens.VerifyAccess(c.Request().Context(), raw)
			if err != nil {
				// Revoked, expired and invalid all collapse into the same 401.
				log.Printf("auth: token rejected: %v (ip=%s)", err, c.RealIP())
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			// Store the verified subject and role in the context.  Handlers
			// and downstream middleware access these via c.Get().
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxRole, claims.Role)
			// Call the next handler in the chain and return its result.
			return next(c)
		}
	}
}
