package driven

import "context"

// PairingStore defines the driven port for durable token-pairing persistence.
// A pairing occupies two logically independent namespaces (local -> provider
// and provider -> local); implementations must issue the two directional
// writes (or deletes) of a mutation concurrently and report a combined
// result. There is no cross-namespace transaction: a partial failure leaves
// the pairing half-created or half-deleted and must surface as an error.
type PairingStore interface {
	// CreatePairing records both directions of a new pairing. Returns an
	// error if either directional write fails.
	CreatePairing(ctx context.Context, localToken, providerToken string) error

	// ProviderToken resolves a local token to its provider token.
	// Returns ("", nil) when no pairing exists for the local token.
	ProviderToken(ctx context.Context, localToken string) (string, error)

	// LocalToken resolves a provider token to its local token.
	// Returns ("", nil) when no pairing exists for the provider token.
	LocalToken(ctx context.Context, providerToken string) (string, error)

	// DeletePairing removes both directions of a pairing. Deleting a pairing
	// that does not exist is not an error.
	DeletePairing(ctx context.Context, localToken, providerToken string) error
}
