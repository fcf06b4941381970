package runtime

import (
	"context"
	"log/slog"
	"member-chat/domain/event"
)

// ChangeFeed is the in-process change notification feed. A single consumer
// reads it, so events of one room come out in publish order.
type ChangeFeed struct {
	events chan event.ChangeEvent
	log    *slog.Logger
}

func NewChangeFeed(bufferSize int, log *slog.Logger) *ChangeFeed {
	return &ChangeFeed{events: make(chan event.ChangeEvent, bufferSize), log: log}
}

// Publish blocks while the buffer is full, until ctx is done.
func (f *ChangeFeed) Publish(ctx context.Context, e event.ChangeEvent) error {
	select {
	case f.events <- e:
		return nil
	case <-ctx.Done():
		f.log.Warn("Change event not published", "room_id", e.RoomID(), "kind", e.Kind(), "error", ctx.Err())
		return ctx.Err()
	}
}

func (f *ChangeFeed) Events() <-chan event.ChangeEvent {
	return f.events
}
