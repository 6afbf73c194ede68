// Package httphandler is the HTTP driving adapter: the OAuth callback, the
// authenticated proxy routes, and session revocation.
package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/finrelay/finrelay/internal/application"
	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// Handler serves the relay's HTTP surface.
type Handler struct {
	exchange    *application.ExchangeService
	revoker     *application.RevocationService
	auth        *application.Authenticator
	provider    driven.ProviderClient
	callbackURL string
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. callbackURL
// is the fixed external redirect target that receives every outcome of the
// OAuth callback flow.
func NewHandler(
	exchange *application.ExchangeService,
	revoker *application.RevocationService,
	auth *application.Authenticator,
	provider driven.ProviderClient,
	callbackURL string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		exchange:    exchange,
		revoker:     revoker,
		auth:        auth,
		provider:    provider,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

// NewServeMux registers all routes and wraps them with the middleware chain.
// authLimiter rate-limits the OAuth callback when non-nil.
func NewServeMux(h *Handler, authLimiter *rate.Limiter, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	var callback http.Handler = http.HandlerFunc(h.AuthCallback)
	if authLimiter != nil {
		callback = rateLimitMiddleware(authLimiter, callback)
	}
	mux.Handle("GET /auth", callback)

	mux.HandleFunc("DELETE /auth", h.requireAuth(h.RevokeSession))
	mux.HandleFunc("GET /sync/accounts", h.requireAuth(h.Accounts))
	mux.HandleFunc("GET /sync/transactions", h.requireAuth(h.Transactions))
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("/", h.NotFound)

	// Recovery innermost so panics are caught before the outer layers log
	// and stamp cache headers.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = cacheControlMiddleware(wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// AuthCallback handles the provider's OAuth redirect. Every outcome is a
// redirect to the fixed callback URL: the consumer is a browser mid-redirect
// chain, so errors travel as query parameters rather than response bodies.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	code := query.Get("code")
	if code == "" {
		// Initial landing without a code: not an error, bounce the
		// original parameters through unchanged.
		h.redirectToCallback(w, r, query)
		return
	}

	state := query.Get("state")

	localToken, err := h.exchange.Exchange(r.Context(), code)
	if err != nil {
		params := url.Values{}
		if errors.Is(err, driven.ErrExchangeRejected) {
			params.Set("error", "unable_to_exchange_code")
			params.Set("error_description", "The provider did not accept the authorization code")
		} else {
			h.logger.Error("authorization code exchange failed", "error", err)
			params.Set("error", "unknown_error")
			params.Set("error_description", "An unexpected error occurred")
		}
		if state != "" {
			params.Set("state", state)
		}
		h.redirectToCallback(w, r, params)
		return
	}

	params := url.Values{}
	params.Set("token", localToken)
	if state != "" {
		params.Set("state", state)
	}
	h.redirectToCallback(w, r, params)
}

// redirectToCallback sends a 302 to the external callback URL with the given
// query parameters appended.
func (h *Handler) redirectToCallback(w http.ResponseWriter, r *http.Request, params url.Values) {
	target := h.callbackURL
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// RevokeSession revokes the authenticated session upstream, removes the
// pairing, and relays the provider's revoke response.
func (h *Handler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resp, err := h.revoker.Revoke(r.Context(), sess)
	if err != nil {
		h.logger.Error("session revocation failed", "error", err)
		if resp == nil {
			writeError(w, http.StatusInternalServerError, "An error occurred")
			return
		}
		// Remote outcome is known; relay it even though the local delete
		// reported a failure (already logged above).
	}

	relayProvider(w, resp)
}

// Accounts proxies the provider's account listing for the authenticated
// session and relays the response verbatim.
func (h *Handler) Accounts(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resp, err := h.provider.Accounts(r.Context(), sess.ProviderToken)
	if err != nil {
		h.logger.Error("accounts proxy call failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	relayProvider(w, resp)
}

// Transactions proxies the provider's transaction listing, forwarding the
// original query string. A cursor of the literal string "null" is the
// provider's end-of-pages marker; it is answered locally without a remote
// call.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if r.URL.Query().Get("cursor") == "null" {
		writeJSON(w, http.StatusOK, errorResponse{Success: false, Message: "No more results"})
		return
	}

	resp, err := h.provider.Transactions(r.Context(), sess.ProviderToken, r.URL.RawQuery)
	if err != nil {
		h.logger.Error("transactions proxy call failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred")
		return
	}

	relayProvider(w, resp)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// NotFound answers every unmatched route.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, notFoundResponse{Message: "Not found"})
}
