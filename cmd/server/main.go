package main

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/attachment"
	"member-chat/auth"
	"member-chat/errors"
	"member-chat/infrastructure/grpc/chatapi"
	"member-chat/infrastructure/grpc/server"
	"member-chat/infrastructure/realtime"
	"member-chat/infrastructure/redis"
	"member-chat/internal"
	"member-chat/moderation"
	"member-chat/presence"
	"member-chat/repositories"
	"member-chat/runtime"
	"member-chat/runtime/workers"
	"member-chat/services"
	"member-chat/storage"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewDiskStore(config.ObjectStoreDir, config.PublicURL(), []byte(config.JwtSecret), log)
	if err != nil {
		return fmt.Errorf("object store failed: %w", err)
	}
	filter, err := contentFilter(config, charReplacement, log)
	if err != nil {
		return err
	}
	bus, err := presenceBus(ctx, config, log)
	if err != nil {
		return err
	}

	rooms := repositories.NewRoomRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	directory := repositories.NewProfileRepository(db, log)
	feed := runtime.NewChangeFeed(config.BufferSize, log)
	registry := runtime.NewRegistry()
	hydrator := services.NewHydrator(messages, directory, store, config.SignedURLTTL, log)
	gateway := runtime.NewGateway(feed.Events(), hydrator, registry, config.SinkTimeout, log)
	tracker := presence.NewTracker(config.TypingTimeout, gateway.BroadcastPresence, log)

	chat := services.NewChatService(services.Dependencies{
		Rooms:       rooms,
		Messages:    messages,
		Blocks:      repositories.NewBlockRepository(db, log),
		Reports:     repositories.NewReportRepository(db, log),
		Graph:       repositories.NewConnectionRepository(db, log),
		Directory:   directory,
		Store:       store,
		Feed:        feed,
		Registry:    registry,
		Bus:         bus,
		Presence:    tracker,
		Filter:      filter,
		Attachments: attachment.NewPolicy(),
		SignedURL:   config.SignedURLTTL,
		Limit:       config.Limit(),
	}, log)
	health := workers.NewHealthMonitoringWorker(log, registry, config.MetricInterval)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(gateway, presence.NewRelay(bus, tracker, log), health)
	go sup.Run(ctx)

	// gRPC
	tokens := auth.NewTokenManager(config.JwtSecret, config.AuthTokenDuration)
	grpcAddress := fmt.Sprintf("%s:%d", config.Host, config.GrpcPort)
	listener, err := net.Listen("tcp", grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", grpcAddress, err)
	}
	s := grpc.NewServer(
		grpc.UnaryInterceptor(auth.UnaryInterceptor(tokens)),
		grpc.StreamInterceptor(auth.StreamInterceptor(tokens)),
	)
	chatapi.RegisterChatServiceServer(s, server.NewChatServer(log, chat, config.ConnectionBufferSize))

	// HTTP: websocket, object downloads, health
	router := mux.NewRouter()
	store.Routes(router)
	realtime.NewHandler(chat, tokens, health, config.ConnectionBufferSize, log).Routes(router)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", config.Host, config.HttpPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 2)
	go func() {
		log.Info("Starting gRPC server", "address", grpcAddress, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && err != grpc.ErrServerStopped {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	s.GracefulStop()
	sup.Stop()
	log.Info("Program stopped cleanly")
	return nil
}

func contentFilter(config internal.Config, charReplacement rune, log *slog.Logger) (moderation.ContentFilter, error) {
	data, err := moderation.DefaultCensoredLoader().LoadAll("censored")
	if err != nil {
		return moderation.ContentFilter{}, fmt.Errorf("censored words loading failed: %w", err)
	}
	log.Info("Censored words loaded", "languages", data.Languages, "count", len(data.Words))
	moderator, err := moderation.NewModerator(data.Words, charReplacement, log)
	if err != nil {
		return moderation.ContentFilter{}, err
	}
	return moderation.NewContentFilter(moderator, config.MaxContentLength, log), nil
}

func presenceBus(ctx context.Context, config internal.Config, log *slog.Logger) (presence.Bus, error) {
	switch config.PresenceBackend {
	case internal.PresenceMemory:
		return presence.NewMemoryBus(config.BufferSize, log), nil
	case internal.PresenceRedis:
		return redis.NewBus(ctx, config.RedisURL, config.BufferSize, log)
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownBackend, config.PresenceBackend)
	}
}
