package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"ella/internal/identity"
	"ella/internal/metrics"
	"ella/internal/security"
	"ella/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const IdentityContextKey ContextKey = "identity"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, m *metrics.Metrics, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		metrics:     m,
		logger:      logger.Named("http"),
	}
}

// RequireAuth resolves the bearer token before the handler runs. Handlers
// read the caller with GetIdentityFromContext.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := security.BearerToken(r)
		if !ok {
			respondWithMessage(w, http.StatusUnauthorized, "No token provided")
			return
		}

		id, err := m.authService.Resolve(r.Context(), token)
		if err != nil {
			respondWithError(w, m.logger, "Token verification failed", err)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, id)
		next(w, r.WithContext(ctx))
	}
}

// GetIdentityFromContext retrieves the caller resolved by RequireAuth
func GetIdentityFromContext(ctx context.Context) *identity.Identity {
	id, ok := ctx.Value(IdentityContextKey).(*identity.Identity)
	if !ok {
		return nil
	}
	return id
}

// callerID is the uid of the authenticated caller
func callerID(r *http.Request) string {
	if id := GetIdentityFromContext(r.Context()); id != nil {
		return id.UID
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs each request and records its latency by route pattern
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.metrics.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())

		m.logger.Info("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
			zap.String("ip", security.GetClientIP(r)))
	})
}

// CORS allows browser clients from origins to call /api routes. "*"
// allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			if allowAll || allowed[origin] {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBytes caps request bodies at limit bytes
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects callers that exceed limiter. Requests are keyed by
// the authenticated uid, so it must be wrapped by RequireAuth.
func (m *Middleware) RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := callerID(r)
		if key == "" {
			key = security.GetClientIP(r)
		}
		if !limiter.Allow(key) {
			m.logger.Warn("Rate limit exceeded", zap.String("key", key), zap.String("path", r.URL.Path))
			respondWithMessage(w, http.StatusTooManyRequests, "Too many requests, please slow down")
			return
		}
		next(w, r)
	}
}
