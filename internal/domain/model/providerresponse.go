package model

// ProviderResponse captures a raw provider API response for verbatim relay.
// The relay performs no interpretation or shaping of proxied payloads; status
// code and body are passed to the caller exactly as received.
type ProviderResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}
