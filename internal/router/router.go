package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/online-exam-platform/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/online-exam-platform/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/online-exam-platform/internal/service"    // token service backing the JWT middleware
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under the same prefix behind JWTAuth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens *service.TokenService) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Refresh
	// authenticates with the httpOnly refresh cookie rather than a JWT.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to rotate the refresh cookie and mint a new
	// access token at /v1/auth/refresh.
	g.POST("/refresh", a.Refresh)
	// Log out: the handler reads and verifies the access token itself, so a
	// request without any token answers 400 rather than the middleware's 401.
	g.POST("/logout", a.Logout)

	// Create another group for auth routes that require a valid access
	// token.  All handlers registered on this group will execute the
	// JWTAuth middleware before being invoked.
	auth := e.Group("/v1/auth")
	// Apply the JWTAuth middleware to the protected group using the token
	// service; revoked tokens are rejected here even while their signature
	// is still valid.
	auth.Use(middleware.JWTAuth(tokens))
	// Apply the RequireRole middleware for any authenticated endpoint.  Both
	// students and admins may manage their own sessions.
	auth.Use(middleware.RequireRole("student", "admin"))
	// Register a GET endpoint at /v1/auth/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)
	// List the caller's sessions (active and revoked refresh tokens).
	auth.GET("/sessions", a.Sessions)
	// Revoke a single session by id.
	auth.DELETE("/sessions/:id", a.RevokeSession)
	// Revoke every active session of the caller.
	auth.DELETE("/sessions", a.RevokeAllSessions)
}

// RegisterExams registers exam authoring and retrieval endpoints.  Both
// require a valid access token.
func RegisterExams(e *echo.Echo, x *handler.ExamHandler, tokens *service.TokenService) {
	g := e.Group("/v1/exams")
	g.Use(middleware.JWTAuth(tokens))
	g.Use(middleware.RequireRole("student", "admin"))
	// Create an exam with encrypted questions.
	g.POST("", x.CreateExam)
	// Fetch an exam as its decrypted display projection.
	g.GET("/:id", x.GetExam)
}

// RegisterResults registers submission scoring and result listing routes.
func RegisterResults(e *echo.Echo, r *handler.ResultHandler, tokens *service.TokenService) {
	g := e.Group("/v1/results")
	g.Use(middleware.JWTAuth(tokens))
	g.Use(middleware.RequireRole("student", "admin"))
	// Grade a submission and persist the result.
	g.POST("/verify", r.Verify)
	// List the caller's own results.
	g.GET("/mine", r.Mine)
	// Top-10 best-score-per-user leaderboard.
	g.GET("/leaderboard", r.Leaderboard)
}
