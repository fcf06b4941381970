package runtime

import (
	"context"
	"log/slog"
	"member-chat/contract"
	"member-chat/domain"
	"member-chat/domain/event"
	"time"

	"github.com/google/uuid"
)

// Gateway drains the change feed, hydrates each row and pushes the result to
// every connection open on the room. Raw rows never reach a sink.
type Gateway struct {
	feed        <-chan event.ChangeEvent
	hydrator    contract.Hydrator
	registry    contract.IRegistry
	sinkTimeout time.Duration
	log         *slog.Logger
}

func NewGateway(feed <-chan event.ChangeEvent, hydrator contract.Hydrator, registry contract.IRegistry,
	sinkTimeout time.Duration, log *slog.Logger) *Gateway {
	return &Gateway{feed: feed, hydrator: hydrator, registry: registry, sinkTimeout: sinkTimeout, log: log}
}

func (g *Gateway) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			g.log.Debug("Context done, stopping gateway")
			return nil
		case e := <-g.feed:
			g.Handle(ctx, e)
		}
	}
}

// Handle hydrates one change event and fans it out. Hydration failures are
// logged: clients converge on their next listing.
func (g *Gateway) Handle(ctx context.Context, e event.ChangeEvent) {
	subscribers := g.registry.SubscribersForRoom(e.RoomID())
	if len(subscribers) == 0 {
		return
	}
	hydrated, err := g.hydrator.Hydrate(ctx, e)
	if err != nil {
		g.log.Error("Unable to hydrate change event", "room_id", e.RoomID(), "kind", e.Kind(), "error", err)
		return
	}
	for _, sub := range subscribers {
		view := hydrated.ForViewer(sub.UserID)
		g.deliver(ctx, sub, event.Delivery{Kind: e.Kind(), RoomID: e.RoomID(), Message: &view})
	}
}

// BroadcastPresence pushes the aggregated presence set of a room. It matches
// presence.NotifyFunc.
func (g *Gateway) BroadcastPresence(roomID uuid.UUID, states []domain.PresenceState) {
	ctx := context.Background()
	for _, sub := range g.registry.SubscribersForRoom(roomID) {
		g.deliver(ctx, sub, event.Delivery{Kind: event.PresenceChangedKind, RoomID: roomID, Presence: states})
	}
}

func (g *Gateway) deliver(ctx context.Context, sub contract.Subscriber, d event.Delivery) {
	sinkCtx, cancel := context.WithTimeout(ctx, g.sinkTimeout)
	defer cancel()
	if err := sub.Sink.Consume(sinkCtx, d); err != nil {
		g.log.Warn("Delivery dropped", "connection_id", sub.ConnectionID, "room_id", d.RoomID, "kind", d.Kind, "error", err)
	}
}
