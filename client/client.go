package main

import (
	"bufio"
	"context"
	"fmt"
	"member-chat/infrastructure/grpc/chatapi"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress string `env:"CHAT_SERVER_ADDR,default=localhost:9090"`
	RoomID        string `env:"CHAT_ROOM_ID,required=true"`
	UserID        string `env:"CHAT_USER_ID,required=true"`
	Token         string `env:"CHAT_TOKEN,required=true"`
	LogLevel      string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run follows one room: it prints the timeline whenever it changes and sends
// every line typed on stdin.
func run() (int, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	roomID, err := chatapi.ParseID("room_id", config.RoomID)
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+config.Token)

	conn, err := grpc.NewClient(config.ServerAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	session := NewSession(chatapi.NewChatServiceClient(conn), config.UserID, roomID, func(lines []string) {
		fmt.Print("\033[H\033[2J")
		for _, line := range lines {
			fmt.Println(line)
		}
	})

	// Subscribe before loading history so nothing falls in between
	stream, err := session.Connect(ctx)
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open stream: %w", err)
	}
	if err := session.Sync(ctx); err != nil {
		return exitRuntime, fmt.Errorf("failed to load history: %w", err)
	}
	log.Info("Connected", "address", config.ServerAddress, "room_id", roomID)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := session.Send(ctx, scanner.Text()); err != nil {
				log.Warn("message not sent", "error", err)
			}
		}
	}()

	if err := session.Listen(ctx, stream); err != nil {
		if ctx.Err() != nil {
			return exitOK, nil
		}
		return exitRuntime, fmt.Errorf("stream error: %w", err)
	}
	return exitOK, nil
}
