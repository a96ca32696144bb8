package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"

	"newsroom/internal/config"
	"newsroom/internal/database"
	"newsroom/internal/engine"
	"newsroom/internal/events"
	"newsroom/internal/handlers"
	"newsroom/internal/middleware"
	"newsroom/internal/moderation"
	"newsroom/internal/utils"
	"newsroom/internal/viewtrack"
	"newsroom/internal/websocket"
)

// store is a document store that also keeps uploaded media.
type store interface {
	database.DBAdapter
	database.MediaStore
}

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(cfg.LogLevel),
		TimeFormat: time.Kitchen,
		AddSource:  cfg.Debug,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			slog.Warn("failed to close database", "error", err)
		}
	}()

	var tracker viewtrack.Tracker
	if cfg.Redis.Addr != "" {
		client, err := viewtrack.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		tracker = viewtrack.NewRedisTracker(client, db, cfg.Redis.ViewTTL)
		slog.Info("anonymous views deduplicated in redis", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.ViewTTL)
	}

	durable, err := openPublisher(cfg.Kafka)
	if err != nil {
		return err
	}
	hub := websocket.NewHub()
	go hub.Run()
	// The audit actor closes both publishers when the engine stops.
	publisher := events.Fanout{durable, hub}

	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, engine.Options{
		DB:              db,
		Metrics:         metrics,
		Tracker:         tracker,
		Publisher:       publisher,
		Policy:          moderation.Policy{TrendingIncludesPending: cfg.TrendingIncludePending},
		AdminEmails:     cfg.Auth.AdminEmails,
		Timeout:         cfg.Server.RequestTimeout,
		UserIdleTimeout: cfg.Server.UserIdleTimeout,
	})
	defer system.Shutdown()
	defer eng.Stop()

	server := handlers.NewServer(system, eng, handlers.Options{
		Metrics:        metrics,
		Tokens:         middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Media:          db,
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		AllowedOrigins: cfg.AllowedOrigins,
		Hub:            hub,
		TrustedProxies: cfg.Server.TrustedProxies,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", httpServer.Addr, "db", cfg.Database.Type)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.DatabaseConfig) (store, error) {
	if cfg.Type == "memory" {
		slog.Warn("using in-memory store; data is lost on restart")
		return database.NewMemoryDB(), nil
	}
	db, err := database.NewMongoDB(ctx, database.MongoOptions{
		URI:          cfg.URI,
		Database:     cfg.Name,
		Transactions: cfg.Transactions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	return db, nil
}

func openPublisher(cfg *config.KafkaConfig) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.NewLogPublisher(slog.Default()), nil
	}
	p, err := events.NewKafkaPublisher(events.KafkaConfig{Brokers: cfg.Brokers, Topic: cfg.Topic})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audit publisher: %w", err)
	}
	slog.Info("publishing audit events to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return p, nil
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
