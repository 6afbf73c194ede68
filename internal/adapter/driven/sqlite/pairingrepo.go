package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PairingStore = (*PairingRepo)(nil)

// Table names for the two directional namespaces.
const (
	localTable    = "local_tokens"
	providerTable = "provider_tokens"
)

// PairingRepo is the SQLite implementation of the PairingStore port. Tokens
// are keyed by their hex SHA-256 digest; the paired value is encrypted with
// AES-256-GCM when a key is configured.
//
// The two directional writes of a pairing mutation run concurrently on the
// shared writer connection. There is no cross-table transaction: if one
// write fails the pairing is left half-mutated and the combined error is
// returned for the caller to surface.
type PairingRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil stores paired values in plaintext.
}

// NewPairingRepo creates a PairingRepo. key must be 32 bytes for AES-256-GCM,
// or nil to store paired values unencrypted.
func NewPairingRepo(db *DB, key []byte) *PairingRepo {
	return &PairingRepo{db: db, key: key}
}

// CreatePairing writes both directions of the pairing concurrently.
func (r *PairingRepo) CreatePairing(ctx context.Context, localToken, providerToken string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.put(gctx, localTable, localToken, providerToken) })
	g.Go(func() error { return r.put(gctx, providerTable, providerToken, localToken) })
	return g.Wait()
}

// ProviderToken resolves a local token to its provider token.
// Returns ("", nil) when the local token is not paired.
func (r *PairingRepo) ProviderToken(ctx context.Context, localToken string) (string, error) {
	return r.get(ctx, localTable, localToken)
}

// LocalToken resolves a provider token to its local token.
// Returns ("", nil) when the provider token is not paired.
func (r *PairingRepo) LocalToken(ctx context.Context, providerToken string) (string, error) {
	return r.get(ctx, providerTable, providerToken)
}

// DeletePairing removes both directions of the pairing concurrently.
// Deleting an absent pairing is a no-op.
func (r *PairingRepo) DeletePairing(ctx context.Context, localToken, providerToken string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.del(gctx, localTable, localToken) })
	g.Go(func() error { return r.del(gctx, providerTable, providerToken) })
	return g.Wait()
}

func (r *PairingRepo) put(ctx context.Context, table, token, value string) error {
	stored, err := r.seal(value)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (token_digest, paired_value, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, table)
	if _, err := r.db.Writer.ExecContext(ctx, query, digest(token), stored); err != nil {
		return fmt.Errorf("put %s entry: %w", table, err)
	}
	return nil
}

func (r *PairingRepo) get(ctx context.Context, table, token string) (string, error) {
	query := fmt.Sprintf(`SELECT paired_value FROM %s WHERE token_digest = ?`, table)

	var stored string
	err := r.db.Reader.QueryRowContext(ctx, query, digest(token)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %s entry: %w", table, err)
	}

	value, err := r.open(stored)
	if err != nil {
		return "", fmt.Errorf("decrypt %s entry: %w", table, err)
	}
	return value, nil
}

func (r *PairingRepo) del(ctx context.Context, table, token string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE token_digest = ?`, table)
	if _, err := r.db.Writer.ExecContext(ctx, query, digest(token)); err != nil {
		return fmt.Errorf("delete %s entry: %w", table, err)
	}
	return nil
}

// digest returns the hex SHA-256 digest used as the storage key, so raw
// bearer credentials never appear as primary keys.
func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// seal encrypts value with AES-256-GCM and returns base64(nonce || ciphertext).
// Without a key the value is stored as-is.
func (r *PairingRepo) seal(value string) (string, error) {
	if r.key == nil {
		return value, nil
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(value), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// open reverses seal.
func (r *PairingRepo) open(stored string) (string, error) {
	if r.key == nil {
		return stored, nil
	}

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	value, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(value), nil
}
