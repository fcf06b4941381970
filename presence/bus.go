//go:generate go run go.uber.org/mock/mockgen -source=bus.go -destination=../mocks/mock_presence_bus.go -package=mocks
package presence

import (
	"context"
	"log/slog"
	"sync"
)

// Bus carries presence updates between nodes. Delivery is best effort.
type Bus interface {
	Publish(ctx context.Context, u Update) error
	// Subscribe streams updates of every room until ctx is done.
	Subscribe(ctx context.Context) (<-chan Update, error)
}

// MemoryBus is the single node Bus.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers map[chan Update]struct{}
	bufferSize  int
	log         *slog.Logger
}

func NewMemoryBus(bufferSize int, log *slog.Logger) *MemoryBus {
	return &MemoryBus{subscribers: make(map[chan Update]struct{}), bufferSize: bufferSize, log: log}
}

// Publish never blocks: a subscriber with a full buffer misses the update.
func (b *MemoryBus) Publish(ctx context.Context, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- u:
		default:
			b.log.Debug("Presence update lost", "room_id", u.RoomID, "user_id", u.State.UserID)
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context) (<-chan Update, error) {
	ch := make(chan Update, b.bufferSize)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
