// Package sink holds the EventSink implementations plugged into the registry.
package sink

import (
	"context"
	"member-chat/domain/event"
	"member-chat/errors"
	"sync"
)

// ChannelSink hands deliveries to the goroutine owning a client connection
// (a gRPC stream or a websocket writer).
type ChannelSink struct {
	mu         sync.Mutex
	closed     bool
	Deliveries chan event.Delivery
}

func NewChannelSink(bufferSize int) *ChannelSink {
	return &ChannelSink{Deliveries: make(chan event.Delivery, bufferSize)}
}

// Consume is called by the gateway. It waits for buffer space until ctx is
// done, so a stalled client only delays its own deliveries.
func (s *ChannelSink) Consume(ctx context.Context, d event.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.ErrSinkClosed
	}
	select {
	case s.Deliveries <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting deliveries and closes the channel.
func (s *ChannelSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.Deliveries)
}
