package projection

import (
	"member-chat/domain"
	"member-chat/domain/event"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func view(roomID uuid.UUID, content string, at time.Time) domain.MessageView {
	msg := domain.NewUserMessage(roomID, "bob", lo.ToPtr(content), at)
	return domain.HydratedMessage{Message: msg}.ForViewer("alice")
}

func inserted(v domain.MessageView) event.Delivery {
	return event.Delivery{Kind: event.MessageInsertedKind, RoomID: v.Message.RoomID, Message: &v}
}

func contents(entries []Entry) []string {
	return lo.Map(entries, func(e Entry, _ int) string {
		if e.View.Message.Content == nil {
			return "<deleted>"
		}
		return *e.View.Message.Content
	})
}

func TestTimeline_Duplicate_Delivery_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)
	at := time.Now()
	first := view(roomID, "first", at)

	timeline.Apply(inserted(first))
	timeline.Apply(inserted(first))

	req.Len(timeline.Messages(), 1)
}

func TestTimeline_Out_Of_Order_Deliveries_Are_Sorted(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)
	at := time.Now()
	older := view(roomID, "older", at)
	newer := view(roomID, "newer", at.Add(time.Second))

	timeline.Apply(inserted(newer))
	timeline.Apply(inserted(older))

	req.Equal([]string{"older", "newer"}, contents(timeline.Messages()))
}

func TestTimeline_Update_Replaces_In_Place(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)
	at := time.Now()
	first := view(roomID, "first", at)
	second := view(roomID, "second", at.Add(time.Second))
	timeline.Apply(inserted(first))
	timeline.Apply(inserted(second))

	// When the first message is deleted
	deleted := first
	deleted.Message.SoftDelete(at.Add(time.Minute))
	timeline.Apply(event.Delivery{Kind: event.MessageUpdatedKind, RoomID: roomID, Message: &deleted})

	// Then it keeps its position
	req.Equal([]string{"<deleted>", "second"}, contents(timeline.Messages()))
}

func TestTimeline_Pending_Send_Replaced_By_Authoritative(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)
	at := time.Now()

	timeline.AddPending("tmp-1", PendingOp{Kind: PendingSend, Content: lo.ToPtr("hi"), At: at})
	entries := timeline.Messages()
	req.Len(entries, 1)
	req.True(entries[0].Pending)

	// When the server echoes the send with the client reference
	msg := domain.NewUserMessage(roomID, "alice", lo.ToPtr("hi"), at.Add(time.Millisecond))
	msg.ClientRef = "tmp-1"
	confirmed := domain.HydratedMessage{Message: msg}.ForViewer("alice")
	timeline.Apply(inserted(confirmed))

	// Then the message is shown once, authoritative
	entries = timeline.Messages()
	req.Len(entries, 1)
	req.False(entries[0].Pending)
	req.Equal(msg.ID, entries[0].View.Message.ID)

	// Resolving after the echo changes nothing
	timeline.Resolve("tmp-1")
	req.Len(timeline.Messages(), 1)
}

func TestTimeline_Pending_Operations_Overlay(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)
	at := time.Now()
	first := view(roomID, "first", at)
	second := view(roomID, "second", at.Add(time.Second))
	timeline.Apply(inserted(first))
	timeline.Apply(inserted(second))

	timeline.AddPending("edit", PendingOp{Kind: PendingEdit, MessageID: first.Message.ID, Content: lo.ToPtr("first!")})
	timeline.AddPending("delete", PendingOp{Kind: PendingDelete, MessageID: second.Message.ID})
	timeline.AddPending("react", PendingOp{Kind: PendingReact, MessageID: first.Message.ID, Emoji: "👍"})

	entries := timeline.Messages()
	req.Equal([]string{"first!", "<deleted>"}, contents(entries))
	req.Equal([]domain.ReactionTally{{Emoji: "👍", Count: 1, ReactedByMe: true}}, entries[0].View.Reactions)

	// When the operations fail
	timeline.Resolve("edit")
	timeline.Resolve("delete")
	timeline.Resolve("react")

	// Then the authoritative state shows again
	entries = timeline.Messages()
	req.Equal([]string{"first", "second"}, contents(entries))
	req.Empty(entries[0].View.Reactions)
}

func TestTimeline_Stale_Listing_Discarded(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)
	at := time.Now()

	stale := timeline.BeginLoad()
	current := timeline.BeginLoad()

	req.True(timeline.Load(current, []domain.MessageView{view(roomID, "fresh", at)}))
	req.False(timeline.Load(stale, []domain.MessageView{view(roomID, "stale", at)}))
	req.Equal([]string{"fresh"}, contents(timeline.Messages()))
}

func TestTimeline_Ignores_Other_Rooms_And_Tracks_Presence(t *testing.T) {
	req := require.New(t)
	roomID := uuid.New()
	timeline := NewTimeline("alice", roomID)

	req.False(timeline.Apply(inserted(view(uuid.New(), "elsewhere", time.Now()))))

	states := []domain.PresenceState{{UserID: "bob", Online: true, Typing: true}}
	req.True(timeline.Apply(event.Delivery{Kind: event.PresenceChangedKind, RoomID: roomID, Presence: states}))
	req.Equal(states, timeline.Presence())
}
