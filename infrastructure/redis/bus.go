// Package redis carries presence updates between nodes over Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"member-chat/presence"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const channelPrefix = "presence:"

// Bus is the multi node presence.Bus. Each room publishes on its own
// channel; subscribers listen to all of them through a pattern.
type Bus struct {
	client     *redis.Client
	bufferSize int
	log        *slog.Logger
}

var _ presence.Bus = (*Bus)(nil)

// NewBus connects to the Redis server at url and checks it answers.
func NewBus(ctx context.Context, url string, bufferSize int, log *slog.Logger) (*Bus, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return NewBusWithClient(client, bufferSize, log), nil
}

func NewBusWithClient(client *redis.Client, bufferSize int, log *slog.Logger) *Bus {
	return &Bus{client: client, bufferSize: bufferSize, log: log}
}

func channel(u presence.Update) string { return channelPrefix + u.RoomID.String() }

func (b *Bus) Publish(ctx context.Context, u presence.Update) error {
	payload, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel(u), payload).Err()
}

// Subscribe decodes every presence message until ctx is done. Undecodable
// payloads are logged and skipped.
func (b *Bus) Subscribe(ctx context.Context) (<-chan presence.Update, error) {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis: subscribe: %w", err)
	}

	out := make(chan presence.Update, b.bufferSize)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var u presence.Update
				if err := json.Unmarshal([]byte(msg.Payload), &u); err != nil {
					b.log.Warn("Dropping malformed presence payload", "channel", msg.Channel, "error", err)
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *Bus) Close() error {
	return b.client.Close()
}
