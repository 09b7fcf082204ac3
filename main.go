package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kinotut-bot/internal/app"
	"kinotut-bot/internal/config"
	"kinotut-bot/internal/tg"
	"kinotut-bot/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())
	log.Infow("starting webhook server", "port", cfg.Port, "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if cfg.WebhookURL != "" {
		req := tg.SetWebhookRequest{URL: cfg.WebhookURL, SecretToken: cfg.WebhookSecret, AllowedUpdates: tg.AllowedUpdates}
		if err := a.Bot.SetWebhook(ctx, req); err != nil {
			return fmt.Errorf("set webhook: %w", err)
		}
		log.Infow("webhook registered", "url", cfg.WebhookURL)
	}

	srv := a.Server(true)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	return nil
}
