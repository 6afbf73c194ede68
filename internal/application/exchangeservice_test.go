package application

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

func TestExchange_SuccessRecordsBothDirections(t *testing.T) {
	store := newMemPairingStore()
	provider := &mockProviderClient{exchangeToken: "PT1"}
	svc := NewExchangeService(store, provider, slog.Default())

	localToken, err := svc.Exchange(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, "ABC", provider.exchangedCode)

	got, err := store.ProviderToken(context.Background(), localToken)
	require.NoError(t, err)
	assert.Equal(t, "PT1", got)

	back, err := store.LocalToken(context.Background(), "PT1")
	require.NoError(t, err)
	assert.Equal(t, localToken, back)
}

func TestExchange_RejectedCodePropagatesSentinel(t *testing.T) {
	store := newMemPairingStore()
	provider := &mockProviderClient{exchangeErr: driven.ErrExchangeRejected}
	svc := NewExchangeService(store, provider, slog.Default())

	_, err := svc.Exchange(context.Background(), "BAD")
	assert.ErrorIs(t, err, driven.ErrExchangeRejected)
	assert.Empty(t, store.localToProvider, "no pairing recorded on rejection")
}

func TestExchange_StoreFailureSurfaces(t *testing.T) {
	store := newMemPairingStore()
	store.createErr = errors.New("disk full")
	provider := &mockProviderClient{exchangeToken: "PT1"}
	svc := NewExchangeService(store, provider, slog.Default())

	_, err := svc.Exchange(context.Background(), "ABC")
	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrExchangeRejected)
}

func TestNewLocalToken_Shape(t *testing.T) {
	seen := map[string]bool{}
	for range 16 {
		token, err := NewLocalToken()
		require.NoError(t, err)

		assert.GreaterOrEqual(t, len(token), 36)
		_, err = base64.RawURLEncoding.DecodeString(token)
		assert.NoError(t, err)

		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
