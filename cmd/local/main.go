// Command local runs the bot with long polling instead of a webhook.
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

	"golang.org/x/sync/errgroup"

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	// getUpdates is refused while a webhook is set.
	if err := a.Bot.DeleteWebhook(ctx, false); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}

	srv := a.Server(false)
	poller := &tg.Poller{
		Source: a.Bot,
		Handle: a.HandleUpdate,
		Log:    log.With("component", "poller"),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("polling started")
		return poller.Run(gctx)
	})
	g.Go(func() error {
		log.Infow("http listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Infow("stopped")
	return err
}
