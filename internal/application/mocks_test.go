package application

import (
	"context"

	"github.com/finrelay/finrelay/internal/domain/model"
)

// --- Mock implementations shared by the service tests ---

// memPairingStore is an in-memory PairingStore with injectable failures.
type memPairingStore struct {
	localToProvider map[string]string
	providerToLocal map[string]string

	createErr error
	lookupErr error
	deleteErr error
}

func newMemPairingStore() *memPairingStore {
	return &memPairingStore{
		localToProvider: map[string]string{},
		providerToLocal: map[string]string{},
	}
}

func (m *memPairingStore) CreatePairing(_ context.Context, localToken, providerToken string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.localToProvider[localToken] = providerToken
	m.providerToLocal[providerToken] = localToken
	return nil
}

func (m *memPairingStore) ProviderToken(_ context.Context, localToken string) (string, error) {
	return m.localToProvider[localToken], m.lookupErr
}

func (m *memPairingStore) LocalToken(_ context.Context, providerToken string) (string, error) {
	return m.providerToLocal[providerToken], m.lookupErr
}

func (m *memPairingStore) DeletePairing(_ context.Context, localToken, providerToken string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.localToProvider, localToken)
	delete(m.providerToLocal, providerToken)
	return nil
}

// mockProviderClient records calls and returns canned results.
type mockProviderClient struct {
	exchangeToken string
	exchangeErr   error
	exchangedCode string

	revokeResp  *model.ProviderResponse
	revokeErr   error
	revokedWith string

	accountsResp     *model.ProviderResponse
	accountsErr      error
	transactionsResp *model.ProviderResponse
	transactionsErr  error
	transactionsCall bool
	gotQuery         string
}

func (m *mockProviderClient) ExchangeCode(_ context.Context, code string) (string, error) {
	m.exchangedCode = code
	return m.exchangeToken, m.exchangeErr
}

func (m *mockProviderClient) RevokeToken(_ context.Context, providerToken string) (*model.ProviderResponse, error) {
	m.revokedWith = providerToken
	return m.revokeResp, m.revokeErr
}

func (m *mockProviderClient) Accounts(_ context.Context, _ string) (*model.ProviderResponse, error) {
	return m.accountsResp, m.accountsErr
}

func (m *mockProviderClient) Transactions(_ context.Context, _ string, rawQuery string) (*model.ProviderResponse, error) {
	m.transactionsCall = true
	m.gotQuery = rawQuery
	return m.transactionsResp, m.transactionsErr
}
