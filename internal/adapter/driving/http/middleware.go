package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/finrelay/finrelay/internal/application"
	"github.com/finrelay/finrelay/internal/domain/model"
)

// sessionKey is the context key for the resolved session.
type sessionKey struct{}

// withSession attaches a resolved session to the request context.
func withSession(ctx context.Context, sess model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFromContext retrieves the session placed by requireAuth.
func sessionFromContext(ctx context.Context) (model.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(model.Session)
	return sess, ok
}

// statusWriter wraps http.ResponseWriter to capture the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the embedded writer.
func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware logs each request with a generated request id, method,
// path, status, and duration. Query strings are not logged; they carry
// authorization codes and tokens on this surface.
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		logger.Info("http request",
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// cacheControlMiddleware forbids caching on every response. Tokens transit
// this surface in URLs and bodies; nothing here may land in a shared cache.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from handler panics, logs them, and returns
// the generic 500 body.
func recoveryMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				logger.Error("panic recovered",
					"panic", v,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "An error occurred")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware rejects requests beyond the limiter's rate with 429.
func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth gates a handler behind bearer authentication. The resolved
// session lands in the request context; a missing or unresolvable credential
// is rejected with the same 401 either way. The provider token is never
// echoed back to the client.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.auth.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			if errors.Is(err, application.ErrUnauthenticated) {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			h.logger.Error("bearer resolution failed", "error", err)
			writeError(w, http.StatusInternalServerError, "An error occurred")
			return
		}

		next(w, r.WithContext(withSession(r.Context(), sess)))
	}
}
