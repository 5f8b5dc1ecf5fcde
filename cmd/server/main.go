// @title        Storefront API
// @version      1.0
// @description  Accounts, cookie sessions and shopping carts for the vinyl storefront.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/vinylshop/storefront/docs"
	"github.com/vinylshop/storefront/internal/api"
	"github.com/vinylshop/storefront/internal/api/handler"
	"github.com/vinylshop/storefront/internal/core/service"
	"github.com/vinylshop/storefront/internal/infrastructure/db/mongo"
	"github.com/vinylshop/storefront/internal/infrastructure/db/redis"
	"github.com/vinylshop/storefront/internal/pkg/config"
	"github.com/vinylshop/storefront/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log := logger.Init(logger.Options{Service: "storefront"})
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Development(),
		Service: "storefront",
	})

	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.StorageTimeout,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Services ---
	credentials, err := service.NewCredentialService(
		mongo.NewUserRepository(db, cfg.StorageTimeout), cfg.Auth.BcryptCost, log.With().Str("component", "credentials").Logger())
	if err != nil {
		return err
	}
	sessions := service.NewSessionAuthority(
		redis.NewSessionStore(rdb), cfg.Session.Secret, cfg.Session.TTL, log.With().Str("component", "sessions").Logger())
	cart := service.NewCartService(
		mongo.NewCartRepository(db, cfg.StorageTimeout), cfg.StorageTimeout, log.With().Str("component", "cart").Logger())

	e, err := api.NewRouter(api.Deps{
		Credentials:     credentials,
		Sessions:        sessions,
		Cart:            cart,
		LoginLimiter:    redis.NewRateLimiter(rdb, "login", cfg.Auth.RateLimit, cfg.Auth.RateWindow),
		RegisterLimiter: redis.NewRateLimiter(rdb, "register", cfg.Auth.RateLimit, cfg.Auth.RateWindow),
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }),
			"redis":   handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		},
		Cookie: handler.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		},
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
		Log:        log,
	})
	if err != nil {
		return err
	}

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
