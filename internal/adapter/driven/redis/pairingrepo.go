// Package redis implements the PairingStore port on a Redis backend, for
// deployments where the relay runs as more than one replica.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PairingStore = (*PairingRepo)(nil)

// Key prefixes for the two directional namespaces.
const (
	localPrefix    = "finrelay:local:"
	providerPrefix = "finrelay:provider:"
)

// Connection timeouts.
const (
	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// PairingRepo is the Redis implementation of the PairingStore port. Each
// direction of a pairing is a plain string key under its own prefix; per-key
// atomicity and last-write-wins semantics come from Redis itself. Entries
// carry no TTL: pairings live until explicitly revoked.
type PairingRepo struct {
	client *goredis.Client
}

// NewPairingRepo connects to Redis at addr and verifies the connection with
// a ping before returning.
func NewPairingRepo(ctx context.Context, addr, password string, db int) (*PairingRepo, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &PairingRepo{client: client}, nil
}

// Close releases the underlying connection pool.
func (r *PairingRepo) Close() error {
	return r.client.Close()
}

// CreatePairing writes both directions of the pairing concurrently.
func (r *PairingRepo) CreatePairing(ctx context.Context, localToken, providerToken string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.put(gctx, localPrefix+localToken, providerToken) })
	g.Go(func() error { return r.put(gctx, providerPrefix+providerToken, localToken) })
	return g.Wait()
}

// ProviderToken resolves a local token to its provider token.
// Returns ("", nil) when the local token is not paired.
func (r *PairingRepo) ProviderToken(ctx context.Context, localToken string) (string, error) {
	return r.get(ctx, localPrefix+localToken)
}

// LocalToken resolves a provider token to its local token.
// Returns ("", nil) when the provider token is not paired.
func (r *PairingRepo) LocalToken(ctx context.Context, providerToken string) (string, error) {
	return r.get(ctx, providerPrefix+providerToken)
}

// DeletePairing removes both directions of the pairing concurrently.
// Deleting an absent pairing is a no-op.
func (r *PairingRepo) DeletePairing(ctx context.Context, localToken, providerToken string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.del(gctx, localPrefix+localToken) })
	g.Go(func() error { return r.del(gctx, providerPrefix+providerToken) })
	return g.Wait()
}

func (r *PairingRepo) put(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (r *PairingRepo) get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (r *PairingRepo) del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
