// Package application holds the token-exchange, authentication, and
// revocation services over the driven ports.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// ExchangeService turns a provider authorization code into a locally issued
// session token, recording the pairing between the two credentials.
type ExchangeService struct {
	pairings driven.PairingStore
	provider driven.ProviderClient
	logger   *slog.Logger
}

// NewExchangeService creates an ExchangeService.
func NewExchangeService(pairings driven.PairingStore, provider driven.ProviderClient, logger *slog.Logger) *ExchangeService {
	return &ExchangeService{
		pairings: pairings,
		provider: provider,
		logger:   logger,
	}
}

// Exchange swaps the authorization code for a provider token, mints a new
// local token, and persists both directions of the pairing. The returned
// error is driven.ErrExchangeRejected when the provider turned the code
// down; any other error is unexpected.
func (s *ExchangeService) Exchange(ctx context.Context, code string) (string, error) {
	providerToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return "", err
	}

	localToken, err := NewLocalToken()
	if err != nil {
		return "", fmt.Errorf("mint local token: %w", err)
	}

	if err := s.pairings.CreatePairing(ctx, localToken, providerToken); err != nil {
		// The pairing may be half-created here; there is no compensating
		// rollback of the direction that succeeded.
		return "", fmt.Errorf("record pairing: %w", err)
	}

	s.logger.Info("session issued")
	return localToken, nil
}
