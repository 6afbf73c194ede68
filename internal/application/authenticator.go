package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/finrelay/finrelay/internal/domain/model"
	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// ErrUnauthenticated is returned by Resolve for a missing, malformed, or
// unregistered bearer credential. The three cases are deliberately not
// distinguished so callers cannot probe which tokens exist.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves inbound bearer credentials to provider credentials.
// It is the single resolution path shared by the auth middleware and the
// revocation handler.
type Authenticator struct {
	pairings driven.PairingStore
}

// NewAuthenticator creates an Authenticator over the given store.
func NewAuthenticator(pairings driven.PairingStore) *Authenticator {
	return &Authenticator{pairings: pairings}
}

// Resolve parses an Authorization header value, looks the bearer token up in
// the local -> provider direction, and returns the resolved session. Returns
// ErrUnauthenticated when the header is absent, not a bearer scheme, or the
// token has never been issued or was already revoked. Store failures are
// returned as-is; they are not authentication failures.
func (a *Authenticator) Resolve(ctx context.Context, authorization string) (model.Session, error) {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || token == "" {
		return model.Session{}, ErrUnauthenticated
	}

	providerToken, err := a.pairings.ProviderToken(ctx, token)
	if err != nil {
		return model.Session{}, fmt.Errorf("resolve bearer token: %w", err)
	}
	if providerToken == "" {
		return model.Session{}, ErrUnauthenticated
	}

	return model.Session{LocalToken: token, ProviderToken: providerToken}, nil
}
