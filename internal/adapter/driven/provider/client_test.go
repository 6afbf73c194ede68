package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// newTestClient spins up an httptest server with the given handler and
// returns a Client pointed at it.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClientWithHTTPClient(srv.Client(), srv.URL, "app-id-1", "app-secret-1", "https://relay.example/auth")
}

func TestExchangeCode_Success(t *testing.T) {
	var got exchangeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"access_token":"PT1"}`))
	})

	token, err := client.ExchangeCode(context.Background(), "ABC")
	require.NoError(t, err)
	assert.Equal(t, "PT1", token)

	assert.Equal(t, "authorization_code", got.GrantType)
	assert.Equal(t, "ABC", got.Code)
	assert.Equal(t, "app-id-1", got.ClientID)
	assert.Equal(t, "app-secret-1", got.ClientSecret)
	assert.Equal(t, "https://relay.example/auth", got.RedirectURI)
}

func TestExchangeCode_ProviderReportsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	_, err := client.ExchangeCode(context.Background(), "BAD")
	assert.ErrorIs(t, err, driven.ErrExchangeRejected)
}

func TestExchangeCode_MissingAccessToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	_, err := client.ExchangeCode(context.Background(), "ABC")
	assert.ErrorIs(t, err, driven.ErrExchangeRejected)
}

func TestExchangeCode_MalformedResponseIsNotRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.ExchangeCode(context.Background(), "ABC")
	require.Error(t, err)
	assert.False(t, errors.Is(err, driven.ErrExchangeRejected))
}

func TestRevokeToken_RelaysStatusAndBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "Bearer PT1", r.Header.Get("Authorization"))
		assert.Equal(t, "app-id-1", r.Header.Get("X-App-Id"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false,"message":"token already revoked"}`))
	})

	resp, err := client.RevokeToken(context.Background(), "PT1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"message":"token already revoked"}`, string(resp.Body))
}

func TestAccounts_SendsAuthHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "Bearer PT1", r.Header.Get("Authorization"))
		assert.Equal(t, "app-id-1", r.Header.Get("X-App-Id"))
		assert.Empty(t, r.URL.RawQuery)

		_, _ = w.Write([]byte(`{"success":true,"items":[]}`))
	})

	resp, err := client.Accounts(context.Background(), "PT1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransactions_ForwardsRawQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "cursor=abc123&start=2026-01-01", r.URL.RawQuery)

		_, _ = w.Write([]byte(`{"success":true,"items":[]}`))
	})

	resp, err := client.Transactions(context.Background(), "PT1", "cursor=abc123&start=2026-01-01")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransactions_EmptyQueryOmitted(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"success":true,"items":[]}`))
	})

	_, err := client.Transactions(context.Background(), "PT1", "")
	require.NoError(t, err)
}
