package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"mymeals/internal/security"
	"mymeals/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const SessionContextKey ContextKey = "session"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	limiter     *security.RateLimiter
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, limiter *security.RateLimiter) *Middleware {
	return &Middleware{
		authService: authService,
		limiter:     limiter,
	}
}

// RequireSession is middleware that requires a valid household session. When
// no household password is configured the gate is open and requests pass
// through untouched.
func (m *Middleware) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !m.authService.Enabled() {
			next(w, r)
			return
		}

		cookie, err := r.Cookie("session_id")
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Login required", "", nil)
			return
		}

		session, err := m.authService.ValidateSession(cookie.Value)
		if err != nil {
			// Clear invalid cookie
			http.SetCookie(w, security.CreateDeleteCookie(r, "session_id"))
			respondWithError(w, http.StatusUnauthorized, "Login required", "", nil)
			return
		}

		ctx := context.WithValue(r.Context(), SessionContextKey, session)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles requests per client IP. Used on the login endpoint to
// slow down password guessing.
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !m.limiter.Allow(ip) {
			respondWithError(w, http.StatusTooManyRequests, "Too many attempts, try again later", "", nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// GetSessionFromContext retrieves the household session from the request
// context, or nil when the login gate is disabled.
func GetSessionFromContext(ctx context.Context) *service.Session {
	session, ok := ctx.Value(SessionContextKey).(*service.Session)
	if !ok {
		return nil
	}
	return session
}
