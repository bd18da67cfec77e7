package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/petermazzocco/precast-cms/internal/auth"
	"github.com/petermazzocco/precast-cms/internal/config"
	"github.com/petermazzocco/precast-cms/internal/handlers"
	"github.com/petermazzocco/precast-cms/internal/logger"
	"github.com/petermazzocco/precast-cms/internal/objectstore"
	"github.com/petermazzocco/precast-cms/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.LogLevel)
	logger.SetDebugAuth(cfg.DebugAuth)
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	ctx := context.Background()

	// Document store
	stores, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer stores.Close()
	logger.Info().Str("mode", string(stores.Mode())).Msg("document store ready")

	// Object storage
	bucket := openBucket(ctx, cfg)
	logger.Info().Str("mode", bucket.Mode()).Msg("object storage ready")

	// Session store, shared with the OAuth flow
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionMaxAge, cfg.SessionCookieSecure)
	if cfg.GoogleEnabled() {
		goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, cfg.GoogleCallbackURL, "email"))
		gothic.Store = sessions.Store()
	}

	h := handlers.New(cfg, stores, bucket, sessions)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("env", cfg.Environment).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openBucket returns the R2 bucket when it is configured and answers,
// otherwise the in-memory demo bucket.
func openBucket(ctx context.Context, cfg *config.Config) objectstore.Bucket {
	if !cfg.R2Enabled() {
		return objectstore.NewDemo()
	}

	client, err := objectstore.NewS3Client(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to configure R2 client, using demo storage")
		return objectstore.NewDemo()
	}
	r2 := objectstore.NewR2(client, cfg.R2BucketName, cfg.R2PublicURL)

	testCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := r2.TestConnection(testCtx); err != nil {
		logger.Warn().Err(err).Msg("R2 connection test failed, using demo storage")
		return objectstore.NewDemo()
	}
	return r2
}
