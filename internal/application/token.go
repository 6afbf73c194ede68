package application

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// localTokenBytes is the entropy of a freshly minted session token. 256 bits
// makes collisions a non-concern; no uniqueness check is performed on write.
const localTokenBytes = 32

// NewLocalToken mints a fresh opaque session token: crypto/rand bytes,
// base64 URL-encoded without padding (43 characters). The token is never
// derived from the provider credential.
func NewLocalToken() (string, error) {
	buf := make([]byte, localTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
