// Package provider implements the ProviderClient port against the upstream
// financial-data provider's OAuth token endpoint and resource API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/finrelay/finrelay/internal/domain/model"
	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProviderClient = (*Client)(nil)

// appIDHeader carries the application identifier on every provider call.
const appIDHeader = "X-App-Id"

// Client implements the driven.ProviderClient port over plain HTTP. The
// transport wraps an httpcache memory cache so conditional requests on the
// read-only resource GETs are honored; token POST/DELETE pass through
// uncached. No retries: every remote failure is terminal for the request.
type Client struct {
	http        *http.Client
	baseURL     string
	appID       string
	appSecret   string
	redirectURI string
}

// NewClient creates a provider client for the API rooted at baseURL.
// redirectURI is this service's own /auth callback, sent with every code
// exchange for the provider to compare against the registered one.
func NewClient(baseURL, appID, appSecret, redirectURI string) *Client {
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   30 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		appID:       appID,
		appSecret:   appSecret,
		redirectURI: redirectURI,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// Intended for testing against httptest servers.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, appID, appSecret, redirectURI string) *Client {
	return &Client{
		http:        httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		appID:       appID,
		appSecret:   appSecret,
		redirectURI: redirectURI,
	}
}

// exchangeRequest is the token endpoint request body.
type exchangeRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// exchangeResponse is the token endpoint response body. The provider signals
// the outcome with an explicit success flag rather than the HTTP status.
type exchangeResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
}

// ExchangeCode performs the authorization-code exchange. Success requires
// both a truthy success flag and a non-empty access token; anything else is
// driven.ErrExchangeRejected.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	body, err := json.Marshal(exchangeRequest{
		GrantType:    "authorization_code",
		Code:         code,
		ClientID:     c.appID,
		ClientSecret: c.appSecret,
		RedirectURI:  c.redirectURI,
	})
	if err != nil {
		return "", fmt.Errorf("encode exchange request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("exchange authorization code: %w", err)
	}
	defer resp.Body.Close()

	var out exchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode exchange response: %w", err)
	}

	if !out.Success || out.AccessToken == "" {
		return "", fmt.Errorf("exchange status %d: %w", resp.StatusCode, driven.ErrExchangeRejected)
	}

	return out.AccessToken, nil
}

// RevokeToken asks the provider to revoke the given access token. The remote
// response is returned whatever its status code, for verbatim relay.
func (c *Client) RevokeToken(ctx context.Context, providerToken string) (*model.ProviderResponse, error) {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/token", providerToken)
}

// Accounts fetches the caller's account list.
func (c *Client) Accounts(ctx context.Context, providerToken string) (*model.ProviderResponse, error) {
	return c.do(ctx, http.MethodGet, c.baseURL+"/accounts", providerToken)
}

// Transactions fetches the caller's transaction list, forwarding the original
// query string unmodified.
func (c *Client) Transactions(ctx context.Context, providerToken, rawQuery string) (*model.ProviderResponse, error) {
	url := c.baseURL + "/transactions"
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	return c.do(ctx, http.MethodGet, url, providerToken)
}

// do issues an authenticated request and captures the raw response.
func (c *Client) do(ctx context.Context, method, url, providerToken string) (*model.ProviderResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	req.Header.Set("Authorization", "Bearer "+providerToken)
	req.Header.Set(appIDHeader, c.appID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response of %s %s: %w", method, url, err)
	}

	return &model.ProviderResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
