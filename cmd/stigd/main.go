// Command stigd is the runnable HTTP surface around the core engine:
// it loads configuration, connects to Postgres, replays the savefile
// journal, and serves the routes in package httpapi. The external
// stigctl CLI and YAML/Markdown batch loader are thin clients of this
// process, not part of it.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stigctl/engine/config"
	"github.com/stigctl/engine/httpapi"
	"github.com/stigctl/engine/pgstore"
	"github.com/stigctl/engine/savefile"
)

func main() {
	if err := run(); err != nil {
		zerolog.New(os.Stderr).With().Timestamp().Logger().Fatal().Err(err).Msg("stigd: fatal")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stderr).Level(cfg.LogLevel).With().Timestamp().Str("service", "stigd").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		return err
	}
	logger.Info().Msg("connected to storage backend")

	journal := savefile.New(cfg.SavefilePath)
	result, err := savefile.RestoreToStore(ctx, journal, pg)
	if err != nil {
		return err
	}
	logger.Info().
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("savefile replay complete")

	server := &httpapi.Server{Store: pg, Journal: journal, Logger: logger}
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
