// Package main boots the storefront bot: catalog store, Bot API transport,
// navigator, dispatch workers and the HTTP surface.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gearbot/internal/bot"
	"gearbot/internal/catalog"
	"gearbot/internal/config"
	"gearbot/internal/dispatch"
	"gearbot/internal/httpapi"
	"gearbot/internal/obs"
	"gearbot/internal/scoring"
	"gearbot/internal/session"
	"gearbot/internal/telegram"
)

func main() {
	cfg := config.Load()
	obs.InitLogger(cfg.LogLevel)
	obs.Logger.Info("service_starting", "update_mode", cfg.UpdateMode, "catalog", cfg.CatalogPath)

	if cfg.BotToken == "" {
		obs.Logger.Error("config_invalid", "error", "BOT_TOKEN is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		obs.Logger.Error("catalog_store_failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	client := telegram.NewClient(telegram.ClientConfig{
		BaseURL:         cfg.TelegramAPIURL,
		Token:           cfg.BotToken,
		Timeout:         cfg.HTTPTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerOpen:     cfg.BreakerOpen,
	})
	nav := bot.NewNavigator(store, scoring.NewEngine(scoring.DefaultConfig()), telegram.NewPresenter(client))
	sessions := session.NewStore()

	dsp, err := dispatch.New(dispatch.Config{
		Shards:     cfg.WorkerShards,
		RatePerSec: cfg.RateLimitPerSec,
		Burst:      cfg.RateLimitBurst,
	}, nav, sessions)
	if err != nil {
		obs.Logger.Error("dispatch_init_failed", "error", err)
		os.Exit(1)
	}
	dsp.Start(ctx)
	intake := telegram.NewIntake(client, dsp)

	opts := httpapi.Options{Store: store, Dispatch: dsp, Sessions: sessions, Transport: client, WebhookSecret: cfg.WebhookSecret}
	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	pollDone := make(chan struct{})
	switch cfg.UpdateMode {
	case config.ModeWebhook:
		opts.Updates = intake
		close(pollDone)
		if cfg.WebhookURL != "" {
			if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
				obs.Logger.Error("set_webhook_failed", "error", err)
				os.Exit(1)
			}
			obs.Logger.Info("webhook_registered", "url", cfg.WebhookURL)
		}
	default:
		if err := client.DeleteWebhook(ctx); err != nil {
			obs.Logger.Warn("delete_webhook_failed", "error", err)
		}
		poller := telegram.NewPoller(client, intake, cfg.PollTimeout)
		go func() {
			defer close(pollDone)
			poller.Run(pollCtx)
		}()
	}

	e := httpapi.New(opts)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		obs.Logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	stopPolling()
	<-pollDone
	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}

	dsp.CloseIntake()
	enq, handled := dsp.Metrics()
	obs.Logger.Info("shutdown_drain_begin", "enqueued", enq, "handled", handled)
	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := dsp.DrainUntil(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout")
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}

	dsp.Stop()
	obs.Logger.Info("service_stopped")
}

// openStore picks the catalog store. The watched store also starts its
// watch loop on ctx.
func openStore(ctx context.Context, cfg config.Config) (catalog.Store, func(), error) {
	if !cfg.CatalogWatch {
		return catalog.NewFileStore(cfg.CatalogPath), func() {}, nil
	}
	ws, err := catalog.NewWatchedStore(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	go ws.Watch(ctx)
	return ws, func() {
		if err := ws.Close(); err != nil {
			obs.Logger.Warn("catalog_watcher_close_failed", "error", err)
		}
	}, nil
}
