/*
Package main is the entry point for the NeosVR Link bridge.

It is responsible for loading configuration, initializing the global logging system,
opening the registry store and the Discord session, serving link clients over
WebSocket, running the presence loop, and shutting everything down cleanly on
SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"neoslink/internal/app/chat"
	"neoslink/internal/app/discord"
	"neoslink/internal/app/format"
	"neoslink/internal/app/presence"
	"neoslink/internal/app/relay"
	"neoslink/internal/app/store"
	"neoslink/internal/app/user"
	"neoslink/internal/configs"
	"neoslink/internal/handler"
	"neoslink/internal/pkg/logx"
	"neoslink/internal/pkg/metrics"
)

func main() {
	// Load configuration from the environment and an optional .env file
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(logx.Options{
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
		Dir:         cfg.LogDir,
	})
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr()).
		Str("link_channel_id", cfg.LinkChannelID).
		Str("registry_backend", cfg.RegistryBackend).
		Int("history_limit", cfg.HistoryLimit).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logx.Fatal(err, "Bridge stopped with error")
	}

	logx.Info("Bridge gracefully stopped.")
}

func run(ctx context.Context, cfg *configs.AppConfig) error {
	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open registry store: %w", err)
	}
	defer backend.Close()

	registry := user.NewRegistry(backend)
	registry.Load(ctx)
	metrics.SetRegisteredUsers(registry.Len())

	dc, err := discord.New(cfg.DiscordToken, cfg.GuildID)
	if err != nil {
		return err
	}

	sessions := chat.NewManager()
	mentions := format.NewMentionResolver(dc.LookupMember, logx.Component("Mentions"))

	core := relay.New(dc, sessions, registry, mentions, relay.Options{
		LinkChannelID: cfg.LinkChannelID,
		WebhookURL:    cfg.WebhookURL,
		WebhookName:   cfg.WebhookName,
		HistoryLimit:  cfg.HistoryLimit,
	})

	if err := dc.Start(ctx, core); err != nil {
		return err
	}
	defer func() {
		if err := dc.Close(); err != nil {
			logx.Error(err, "Discord session close failed")
		}
	}()

	controller := presence.NewController(dc, sessions, cfg.PresenceInterval, cfg.PresenceStartupDelay)

	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      handler.Router(gctx, &handler.AppDeps{Bridge: core, Config: cfg}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		logx.Info("WS Started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", server.Addr, err)
		}
		return nil
	})

	g.Go(func() error {
		return controller.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logx.Info("Received shutdown signal. Starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		sessions.Shutdown()
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
