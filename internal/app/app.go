// Package app wires configuration, storage and the Telegram side together
// for both the webhook and the polling entry points.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	handler "kinotut-bot/api"
	"kinotut-bot/internal/bot"
	"kinotut-bot/internal/catalog"
	"kinotut-bot/internal/config"
	"kinotut-bot/internal/gate"
	"kinotut-bot/internal/metadata"
	"kinotut-bot/internal/storage"
	"kinotut-bot/internal/tg"
	"kinotut-bot/pkg/logger"
)

type App struct {
	Config     *config.Config
	Log        *logger.Logger
	Store      storage.Backend
	Catalog    *catalog.Catalog
	Bot        *tg.Client
	Dispatcher *bot.Dispatcher
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	cat := catalog.New(store)
	if _, err := cat.Load(ctx); errors.Is(err, catalog.ErrNotInitialized) {
		log.Warnw("catalog is not initialized, run catalogctl init", "driver", cfg.StorageDriver)
	} else if err != nil {
		log.Errorw("catalog load failed", "driver", cfg.StorageDriver, "error", err)
	}

	opts := []tg.Option{tg.WithRateLimit(cfg.SendRate)}
	if cfg.TelegramAPIBase != "" {
		opts = append(opts, tg.WithAPIBase(cfg.TelegramAPIBase))
	}
	client := tg.NewClient(cfg.BotToken, opts...)

	dopts := bot.Options{AdminID: cfg.AdminID, AdminUsername: cfg.AdminUsername}
	if cfg.MetadataAPIBase != "" {
		dopts.Metadata = metadata.NewClient(cfg.MetadataAPIBase)
	}
	g := gate.New(client, cfg.Channels, log.With("component", "gate"))
	d := bot.New(cat, g, client, dopts, log.With("component", "dispatcher"))

	log.Infow("bot wired", "driver", cfg.StorageDriver, "channels", len(cfg.Channels), "metadata", dopts.Metadata != nil)
	return &App{Config: cfg, Log: log, Store: store, Catalog: cat, Bot: client, Dispatcher: d}, nil
}

// Server builds the HTTP server. withWebhook mounts the webhook route.
func (a *App) Server(withWebhook bool) *http.Server {
	deps := handler.Deps{
		Catalog:       a.Catalog,
		WebhookSecret: a.Config.WebhookSecret,
		Production:    !a.Config.IsDevelopment(),
		Log:           a.Log.With("component", "http"),
	}
	if withWebhook {
		deps.Updates = a.Dispatcher
	}
	return &http.Server{
		Addr:           ":" + a.Config.Port,
		Handler:        handler.NewRouter(deps),
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// HandleUpdate is the polling callback; errors are logged, never fatal.
func (a *App) HandleUpdate(ctx context.Context, upd tg.Update) {
	if err := a.Dispatcher.HandleUpdate(ctx, upd); err != nil {
		a.Log.Errorw("update handling failed", "update_id", upd.UpdateID, "error", err)
	}
}

func (a *App) Close(ctx context.Context) {
	if err := a.Store.Close(ctx); err != nil {
		a.Log.Errorw("storage close failed", "error", err)
	}
	a.Log.Sync()
}
