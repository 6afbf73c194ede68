package driven

import (
	"context"
	"errors"

	"github.com/finrelay/finrelay/internal/domain/model"
)

// ErrExchangeRejected is returned by ExchangeCode when the provider responds
// without a success flag or without an access token. This is a recoverable
// outcome of the OAuth flow, not a transport failure; callers classify it
// separately from unexpected errors.
var ErrExchangeRejected = errors.New("provider rejected authorization code exchange")

// ProviderClient defines the driven port for the upstream financial-data
// provider: its OAuth token endpoint and its read-only resource API.
// Resource calls return the raw remote response for verbatim relay.
type ProviderClient interface {
	// ExchangeCode performs the one-time authorization-code exchange and
	// returns the provider access token. Returns ErrExchangeRejected when
	// the provider reports non-success or omits the token.
	ExchangeCode(ctx context.Context, code string) (string, error)

	// RevokeToken asks the provider to revoke the given access token and
	// returns the remote response regardless of its status code.
	RevokeToken(ctx context.Context, providerToken string) (*model.ProviderResponse, error)

	// Accounts fetches the caller's account list.
	Accounts(ctx context.Context, providerToken string) (*model.ProviderResponse, error)

	// Transactions fetches the caller's transaction list. rawQuery is the
	// original request query string, forwarded unmodified.
	Transactions(ctx context.Context, providerToken, rawQuery string) (*model.ProviderResponse, error)
}
