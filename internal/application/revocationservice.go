package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/finrelay/finrelay/internal/domain/model"
	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// RevocationService ends a session: it revokes the provider credential
// upstream and removes the local pairing.
type RevocationService struct {
	pairings driven.PairingStore
	provider driven.ProviderClient
	logger   *slog.Logger
}

// NewRevocationService creates a RevocationService.
func NewRevocationService(pairings driven.PairingStore, provider driven.ProviderClient, logger *slog.Logger) *RevocationService {
	return &RevocationService{
		pairings: pairings,
		provider: provider,
		logger:   logger,
	}
}

// Revoke calls the provider's revoke endpoint for the session's provider
// token and deletes both directions of the pairing whatever the remote
// outcome: a local credential must not stay valid against a provider token
// that may already be dead. The remote response is returned for verbatim
// relay and may be non-nil alongside an error when only the local delete
// failed.
func (s *RevocationService) Revoke(ctx context.Context, sess model.Session) (*model.ProviderResponse, error) {
	resp, err := s.provider.RevokeToken(ctx, sess.ProviderToken)
	if err != nil {
		s.logger.Error("provider revoke call failed", "error", err)
	}

	if delErr := s.pairings.DeletePairing(ctx, sess.LocalToken, sess.ProviderToken); delErr != nil {
		s.logger.Error("delete pairing", "error", delErr)
		if err == nil {
			err = fmt.Errorf("delete pairing: %w", delErr)
		}
	}

	if err != nil {
		return resp, err
	}

	s.logger.Info("session revoked", "provider_status", resp.StatusCode)
	return resp, nil
}
