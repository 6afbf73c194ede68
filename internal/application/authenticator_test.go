package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_KnownToken(t *testing.T) {
	store := newMemPairingStore()
	require.NoError(t, store.CreatePairing(context.Background(), "LT1", "PT1"))
	auth := NewAuthenticator(store)

	sess, err := auth.Resolve(context.Background(), "Bearer LT1")
	require.NoError(t, err)
	assert.Equal(t, "LT1", sess.LocalToken)
	assert.Equal(t, "PT1", sess.ProviderToken)
}

func TestResolve_RejectionsAreIndistinguishable(t *testing.T) {
	store := newMemPairingStore()
	require.NoError(t, store.CreatePairing(context.Background(), "LT1", "PT1"))
	auth := NewAuthenticator(store)

	headers := map[string]string{
		"missing header":    "",
		"not bearer scheme": "Basic dXNlcjpwYXNz",
		"empty token":       "Bearer ",
		"unknown token":     "Bearer never-issued",
	}

	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			_, err := auth.Resolve(context.Background(), header)
			assert.ErrorIs(t, err, ErrUnauthenticated)
		})
	}
}

func TestResolve_StoreFailureIsNotAuthFailure(t *testing.T) {
	store := newMemPairingStore()
	store.lookupErr = errors.New("connection reset")
	auth := NewAuthenticator(store)

	_, err := auth.Resolve(context.Background(), "Bearer LT1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
