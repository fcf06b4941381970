package repositories

import (
	"context"
	"log/slog"
	"member-chat/domain"
	"member-chat/errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newGroup(t *testing.T, repo *RoomRepository, at time.Time, admin string, members ...string) domain.Room {
	t.Helper()
	room := domain.NewGroupRoom(admin, "climbing", at)
	memberships := []domain.Membership{domain.NewMembership(room.ID, admin, domain.RoleAdmin, at)}
	for i, m := range members {
		memberships = append(memberships, domain.NewMembership(room.ID, m, domain.RoleMember, at.Add(time.Duration(i+1)*time.Second)))
	}
	require.NoError(t, repo.CreateRoom(context.Background(), room, memberships))
	return room
}

func Test_CreateRoom_And_List_Members(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewRoomRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()

	room := newGroup(t, repo, at, "alice", "bob", "clara")

	stored, err := repo.GetRoom(ctx, room.ID)
	req.NoError(err)
	req.Equal(room.ID, stored.ID)
	req.Equal(domain.GroupRoom, stored.Type)

	members, err := repo.ListMembers(ctx, room.ID, true)
	req.NoError(err)
	req.Equal([]string{"alice", "bob", "clara"}, lo.Map(members, func(m domain.Membership, _ int) string { return m.UserID }))
	req.True(members[0].IsAdmin())

	_, err = repo.GetRoom(ctx, uuid.New())
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repo.GetMembership(ctx, room.ID, "mallory")
	req.ErrorIs(err, errors.ErrMembershipNotFound)
}

func Test_AddMembers_Dedupes_And_Enforces_Capacity(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewRoomRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	room := newGroup(t, repo, at, "alice", "bob")

	// Given an invite containing an active member and a duplicate
	added, err := repo.AddMembers(ctx, room.ID, []string{"bob", "clara", "clara"}, at, 3)
	req.NoError(err)
	req.Len(added, 1)
	req.Equal("clara", added[0].UserID)

	// When the next invite would exceed the capacity
	_, err = repo.AddMembers(ctx, room.ID, []string{"dan", "eve"}, at, 4)

	// Then nothing is written
	req.ErrorIs(err, errors.ErrCapacity)
	members, err := repo.ListMembers(ctx, room.ID, true)
	req.NoError(err)
	req.Len(members, 3)
}

func Test_AddMembers_Reactivates_Departed_Member(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewRoomRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	room := newGroup(t, repo, at, "alice", "bob")

	_, err := repo.MarkLeft(ctx, room.ID, "bob", at.Add(time.Minute), true)
	req.NoError(err)
	rooms, err := repo.ListRoomsForUser(ctx, "bob")
	req.NoError(err)
	req.Empty(rooms)

	added, err := repo.AddMembers(ctx, room.ID, []string{"bob"}, at.Add(2*time.Minute), domain.MaxGroupSize)
	req.NoError(err)
	req.Len(added, 1)

	m, err := repo.GetMembership(ctx, room.ID, "bob")
	req.NoError(err)
	req.True(m.IsActive())
	req.Equal(domain.RoleMember, m.Role)
	rooms, err = repo.ListRoomsForUser(ctx, "bob")
	req.NoError(err)
	req.Len(rooms, 1)
}

func Test_MarkLeft_Promotes_Longest_Standing_Member(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewRoomRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	room := newGroup(t, repo, at, "alice", "bob", "clara")

	promoted, err := repo.MarkLeft(ctx, room.ID, "alice", at.Add(time.Hour), true)
	req.NoError(err)
	req.NotNil(promoted)
	req.Equal("bob", promoted.UserID)

	members, err := repo.ListMembers(ctx, room.ID, true)
	req.NoError(err)
	admins := lo.Filter(members, func(m domain.Membership, _ int) bool { return m.IsAdmin() })
	req.Len(admins, 1)
	req.Equal("bob", admins[0].UserID)

	// Leaving twice keeps the first departure date
	_, err = repo.MarkLeft(ctx, room.ID, "alice", at.Add(2*time.Hour), true)
	req.NoError(err)
	alice, err := repo.GetMembership(ctx, room.ID, "alice")
	req.NoError(err)
	req.True(alice.LeftAt.Equal(at.Add(time.Hour)))
}

func Test_TransferAdmin_Keeps_Exactly_One_Admin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewRoomRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	room := newGroup(t, repo, at, "alice", "bob")

	req.NoError(repo.TransferAdmin(ctx, room.ID, "bob"))

	members, err := repo.ListMembers(ctx, room.ID, true)
	req.NoError(err)
	admins := lo.Filter(members, func(m domain.Membership, _ int) bool { return m.IsAdmin() })
	req.Len(admins, 1)
	req.Equal("bob", admins[0].UserID)

	err = repo.TransferAdmin(ctx, room.ID, "mallory")
	req.ErrorIs(err, errors.ErrNotAMember)
}

func Test_GetMessages_Pages_Backwards_In_Ascending_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	roomID := uuid.New()
	at := time.Now().UTC()

	var stored []domain.Message
	for i := 0; i < 5; i++ {
		msg := domain.NewUserMessage(roomID, "alice", lo.ToPtr("hello"), at.Add(time.Duration(i)*time.Second))
		req.NoError(repo.StoreMessage(ctx, msg, nil))
		stored = append(stored, msg)
	}
	// Another room is never part of the page
	req.NoError(repo.StoreMessage(ctx, domain.NewUserMessage(uuid.New(), "bob", lo.ToPtr("elsewhere"), at), nil))

	// When reading the newest page
	page, cursor, err := repo.GetMessages(ctx, roomID, nil, 2)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]uuid.UUID{stored[3].ID, stored[4].ID}, ids(page))

	page, cursor, err = repo.GetMessages(ctx, roomID, cursor, 2)
	req.NoError(err)
	req.NotNil(cursor)
	req.Equal([]uuid.UUID{stored[1].ID, stored[2].ID}, ids(page))

	// Then the oldest page carries no cursor
	page, cursor, err = repo.GetMessages(ctx, roomID, cursor, 2)
	req.NoError(err)
	req.Nil(cursor)
	req.Equal([]uuid.UUID{stored[0].ID}, ids(page))

	_, _, err = repo.GetMessages(ctx, roomID, lo.ToPtr("garbage"), 2)
	req.ErrorIs(err, errors.ErrInvalidCursor)
}

func Test_GetMessages_Same_Timestamp_Ordered_By_ID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	roomID := uuid.New()
	at := time.Now().UTC()

	a := domain.NewUserMessage(roomID, "alice", lo.ToPtr("a"), at)
	b := domain.NewUserMessage(roomID, "bob", lo.ToPtr("b"), at)
	req.NoError(repo.StoreMessage(ctx, a, nil))
	req.NoError(repo.StoreMessage(ctx, b, nil))

	page, _, err := repo.GetMessages(ctx, roomID, nil, 10)
	req.NoError(err)
	req.Len(page, 2)
	req.True(page[0].Before(page[1]))
}

func Test_UpdateMessage_Keeps_Position(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	roomID := uuid.New()
	at := time.Now().UTC()

	first := domain.NewUserMessage(roomID, "alice", lo.ToPtr("first"), at)
	second := domain.NewUserMessage(roomID, "alice", lo.ToPtr("second"), at.Add(time.Second))
	req.NoError(repo.StoreMessage(ctx, first, nil))
	req.NoError(repo.StoreMessage(ctx, second, nil))

	first.SoftDelete(at.Add(time.Minute))
	req.NoError(repo.UpdateMessage(ctx, first))

	page, _, err := repo.GetMessages(ctx, roomID, nil, 10)
	req.NoError(err)
	req.Equal([]uuid.UUID{first.ID, second.ID}, ids(page))
	req.True(page[0].IsDeleted)
	req.Nil(page[0].Content)

	err = repo.UpdateMessage(ctx, domain.NewUserMessage(roomID, "alice", nil, at))
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_ToggleReaction_And_Receipts(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessageRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()
	msg := domain.NewUserMessage(uuid.New(), "alice", nil, at)
	attachment := domain.Attachment{ID: uuid.New(), MessageID: msg.ID, StoragePath: "rooms/x/y.png", MimeType: "image/png", FileSize: 10}
	req.NoError(repo.StoreMessage(ctx, msg, []domain.Attachment{attachment}))

	reaction := domain.Reaction{MessageID: msg.ID, UserID: "bob", Emoji: "👍", CreatedAt: at}
	added, err := repo.ToggleReaction(ctx, reaction)
	req.NoError(err)
	req.True(added)

	req.NoError(repo.UpsertReceipt(ctx, domain.ReadReceipt{MessageID: msg.ID, UserID: "bob", ReadAt: at}))
	req.NoError(repo.UpsertReceipt(ctx, domain.ReadReceipt{MessageID: msg.ID, UserID: "bob", ReadAt: at.Add(time.Minute)}))

	details, err := repo.Details(ctx, msg.ID)
	req.NoError(err)
	req.Len(details.Reactions, 1)
	req.Len(details.Attachments, 1)
	req.Len(details.Receipts, 1)
	req.True(details.Receipts[0].ReadAt.Equal(at.Add(time.Minute)))

	added, err = repo.ToggleReaction(ctx, reaction)
	req.NoError(err)
	req.False(added)
	details, err = repo.Details(ctx, msg.ID)
	req.NoError(err)
	req.Empty(details.Reactions)
}

func Test_Block_Is_Symmetric_And_Unblock_Is_Directional(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewBlockRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()

	req.NoError(repo.Block(ctx, domain.Block{BlockerID: "alice", BlockedID: "bob", CreatedAt: at}))
	req.NoError(repo.Block(ctx, domain.Block{BlockerID: "alice", BlockedID: "bob", CreatedAt: at}))
	req.NoError(repo.Block(ctx, domain.Block{BlockerID: "clara", BlockedID: "alice", CreatedAt: at}))

	blocked, err := repo.IsBlockedPair(ctx, "bob", "alice")
	req.NoError(err)
	req.True(blocked)

	with, err := repo.BlockedWith(ctx, "alice")
	req.NoError(err)
	req.Equal(map[string]bool{"bob": true, "clara": true}, with)

	// Bob cannot lift a block he did not create
	req.NoError(repo.Unblock(ctx, "bob", "alice"))
	blocked, err = repo.IsBlockedPair(ctx, "alice", "bob")
	req.NoError(err)
	req.True(blocked)

	req.NoError(repo.Unblock(ctx, "alice", "bob"))
	blocked, err = repo.IsBlockedPair(ctx, "alice", "bob")
	req.NoError(err)
	req.False(blocked)
}

func Test_Reports_Filtered_By_Status(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewReportRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	at := time.Now().UTC()

	first := domain.Report{ID: uuid.New(), ReporterID: "alice", ReportedUserID: lo.ToPtr("bob"), Category: domain.CategorySpam, Status: domain.ReportPending, CreatedAt: at}
	second := domain.Report{ID: uuid.New(), ReporterID: "clara", ReportedUserID: lo.ToPtr("bob"), Category: domain.CategoryOther, Status: domain.ReportPending, CreatedAt: at.Add(time.Second)}
	req.NoError(repo.StoreReport(ctx, first))
	req.NoError(repo.StoreReport(ctx, second))

	first.Status = domain.ReportDismissed
	req.NoError(repo.UpdateReport(ctx, first))

	pending, err := repo.ListReports(ctx, lo.ToPtr(domain.ReportPending))
	req.NoError(err)
	req.Len(pending, 1)
	req.Equal(second.ID, pending[0].ID)

	all, err := repo.ListReports(ctx, nil)
	req.NoError(err)
	req.Len(all, 2)

	_, err = repo.GetReport(ctx, uuid.New())
	req.ErrorIs(err, errors.ErrReportNotFound)
}

func Test_Connections_Are_Mutual(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewConnectionRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(repo.Connect(ctx, "bob", "alice"))
	connected, err := repo.AreConnected(ctx, "alice", "bob")
	req.NoError(err)
	req.True(connected)

	connected, err = repo.AreConnected(ctx, "alice", "clara")
	req.NoError(err)
	req.False(connected)
}

func Test_Profile_Lookup_Falls_Back_To_ID(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewProfileRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))

	req.NoError(repo.PutProfile(ctx, domain.Sender{ID: "alice", DisplayName: "Alice"}))
	sender, err := repo.Lookup(ctx, "alice")
	req.NoError(err)
	req.Equal("Alice", sender.DisplayName)

	sender, err = repo.Lookup(ctx, "bob")
	req.NoError(err)
	req.Equal("bob", sender.DisplayName)
}

func ids(messages []domain.Message) []uuid.UUID {
	return lo.Map(messages, func(m domain.Message, _ int) uuid.UUID { return m.ID })
}
