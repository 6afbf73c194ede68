package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/finrelay/finrelay/internal/adapter/driven/provider"
	redisadapter "github.com/finrelay/finrelay/internal/adapter/driven/redis"
	sqliteadapter "github.com/finrelay/finrelay/internal/adapter/driven/sqlite"
	httphandler "github.com/finrelay/finrelay/internal/adapter/driving/http"
	"github.com/finrelay/finrelay/internal/application"
	"github.com/finrelay/finrelay/internal/config"
	"github.com/finrelay/finrelay/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"store_backend", cfg.StoreBackend,
		"provider_base_url", cfg.ProviderBaseURL,
		"callback_url", cfg.CallbackURL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the pairing store backend.
	var pairings driven.PairingStore
	switch cfg.StoreBackend {
	case config.StoreRedis:
		repo, err := redisadapter.NewPairingRepo(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := repo.Close(); closeErr != nil {
				slog.Error("error closing redis client", "error", closeErr)
			}
		}()
		pairings = repo
		slog.Info("redis store connected", "addr", cfg.RedisAddr)

	default:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		pairings = sqliteadapter.NewPairingRepo(db, cfg.SecretKey)
		slog.Info("sqlite store opened", "path", cfg.DBPath, "encrypted_at_rest", cfg.SecretKey != nil)
	}

	// 4. Create the provider client.
	providerClient := provider.NewClient(cfg.ProviderBaseURL, cfg.AppID, cfg.AppSecret, cfg.RedirectURI())

	// 5. Wire application services.
	logger := slog.Default()
	exchangeSvc := application.NewExchangeService(pairings, providerClient, logger)
	revocationSvc := application.NewRevocationService(pairings, providerClient, logger)
	authenticator := application.NewAuthenticator(pairings)

	// 6. Create the HTTP handler and middleware chain.
	handler := httphandler.NewHandler(exchangeSvc, revocationSvc, authenticator, providerClient, cfg.CallbackURL, logger)

	var authLimiter *rate.Limiter
	if cfg.AuthRateLimit > 0 {
		authLimiter = rate.NewLimiter(rate.Limit(cfg.AuthRateLimit), 1)
	}
	mux := httphandler.NewServeMux(handler, authLimiter, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("finrelay started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 8. Graceful shutdown with a 10s drain window.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
