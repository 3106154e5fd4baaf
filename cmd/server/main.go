package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"ajopot/internal/api"
	"ajopot/internal/auth"
	"ajopot/internal/config"
	"ajopot/internal/cycle"
	"ajopot/internal/events"
	"ajopot/internal/gateway"
	"ajopot/internal/ledger"
	"ajopot/internal/membership"
	"ajopot/internal/service"
	"ajopot/internal/storage/sqlite"
	"ajopot/internal/wallet"
	"ajopot/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			slog.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		publisher = amqpPublisher
		slog.Info("Event publisher connected", "exchange", cfg.AMQPExchange)
	}
	defer publisher.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	provider := membership.NewStoreProvider(store)
	gw := gateway.NewHTTP(cfg.GatewayURL, cfg.GatewayAPIKey)

	wallets := wallet.NewService(store, provider, gw)
	cycles := cycle.NewManager(store, provider)
	ledgers := ledger.NewService(store, provider, wallets, cycles, publisher)
	groups := service.NewGroupService(store, cfg.MaxGroupMembers)
	auths := service.NewAuthService(authenticator, jwtManager)

	server := api.NewServer(auths, groups, cycles, ledgers, wallets, jwtManager)

	// h2c allows HTTP/2 without TLS for deployments behind a proxy.
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: h2c.NewHandler(server.Handler(), &http2.Server{}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
