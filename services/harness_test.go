package services

import (
	"context"
	"log/slog"
	"member-chat/attachment"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/domain/event"
	"member-chat/moderation"
	"member-chat/presence"
	"member-chat/repositories"
	"member-chat/runtime"
	"member-chat/storage"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

type harness struct {
	chat     *ChatService
	rooms    *repositories.RoomRepository
	messages *repositories.MessageRepository
	conns    *repositories.ConnectionRepository
	feed     *runtime.ChangeFeed
	registry *runtime.Registry
	tracker  *presence.Tracker
	bus      *presence.MemoryBus
}

func newHarness(t *testing.T, limit int) *harness {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := storage.NewDiskStore(t.TempDir(), "http://localhost:8080", []byte("secret"), log)
	require.NoError(t, err)
	moderator, err := moderation.NewModerator([]string{"idiot"}, '*', log)
	require.NoError(t, err)

	h := &harness{
		rooms:    repositories.NewRoomRepository(db, log),
		messages: repositories.NewMessageRepository(db, log),
		conns:    repositories.NewConnectionRepository(db, log),
		feed:     runtime.NewChangeFeed(1024, log),
		registry: runtime.NewRegistry(),
		tracker:  presence.NewTracker(presence.DefaultTypingTimeout, nil, log),
		bus:      presence.NewMemoryBus(16, log),
	}
	h.chat = NewChatService(Dependencies{
		Rooms:       h.rooms,
		Messages:    h.messages,
		Blocks:      repositories.NewBlockRepository(db, log),
		Reports:     repositories.NewReportRepository(db, log),
		Graph:       h.conns,
		Directory:   repositories.NewProfileRepository(db, log),
		Store:       store,
		Feed:        h.feed,
		Registry:    h.registry,
		Bus:         h.bus,
		Presence:    h.tracker,
		Filter:      moderation.NewContentFilter(moderator, 4000, log),
		Attachments: attachment.NewPolicy(),
		SignedURL:   time.Minute,
		Limit:       limit,
	}, log)
	return h
}

func user(id string) auth.Identity {
	return auth.NewIdentity(id, nil)
}

func moderator(id string) auth.Identity {
	return auth.NewIdentity(id, []string{auth.RoleModerator})
}

func (h *harness) connect(t *testing.T, a, b string) {
	t.Helper()
	require.NoError(t, h.conns.Connect(context.Background(), a, b))
}

func (h *harness) group(t *testing.T, admin string, members ...string) domain.Room {
	t.Helper()
	room, err := h.chat.CreateGroupRoom(context.Background(), user(admin), domain.CreateGroupCommand{Name: "Launch Team", MemberIDs: members})
	require.NoError(t, err)
	return room
}

func (h *harness) send(t *testing.T, sender string, roomID uuid.UUID, content string) domain.Message {
	t.Helper()
	msg, err := h.chat.Send(context.Background(), user(sender), domain.SendMessageCommand{RoomID: roomID, Content: lo.ToPtr(content)})
	require.NoError(t, err)
	return msg
}

// admins returns the active admins of the room.
func (h *harness) admins(t *testing.T, roomID uuid.UUID) []string {
	t.Helper()
	members, err := h.rooms.ListMembers(context.Background(), roomID, true)
	require.NoError(t, err)
	return lo.FilterMap(members, func(m domain.Membership, _ int) (string, bool) { return m.UserID, m.IsAdmin() })
}

func (h *harness) activeCount(t *testing.T, roomID uuid.UUID) int {
	t.Helper()
	members, err := h.rooms.ListMembers(context.Background(), roomID, true)
	require.NoError(t, err)
	return len(members)
}

// userMessages lists the non-system messages of the room as seen by viewer.
func (h *harness) userMessages(t *testing.T, viewer string, roomID uuid.UUID) []domain.MessageView {
	t.Helper()
	page, err := h.chat.ListMessages(context.Background(), user(viewer), roomID, nil)
	require.NoError(t, err)
	return lo.Filter(page.Messages, func(v domain.MessageView, _ int) bool { return !v.Message.IsSystemMessage })
}

// drain returns every change event published so far.
func (h *harness) drain() []event.ChangeEvent {
	var events []event.ChangeEvent
	for {
		select {
		case e := <-h.feed.Events():
			events = append(events, e)
		default:
			return events
		}
	}
}
