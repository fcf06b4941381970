package services

import (
	"bytes"
	"context"
	"member-chat/domain"
	"member-chat/domain/event"
	"log/slog"
	"member-chat/errors"
	"member-chat/mocks"
	"member-chat/runtime"
	"member-chat/sink"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestUploadAttachment_Then_Send(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")

	// Given a png declared with a misleading type
	ref, err := h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{
		RoomID:       room.ID,
		FileName:     "route.bin",
		DeclaredType: "application/octet-stream",
		Content:      pngHeader,
	})
	req.NoError(err)
	req.Equal("image/png", ref.MimeType)
	req.True(strings.HasPrefix(ref.StoragePath, "rooms/"+room.ID.String()+"/"))
	req.True(strings.HasSuffix(ref.StoragePath, ".png"))

	// When it is sent without text
	msg, err := h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{RoomID: room.ID, Attachments: []domain.AttachmentRef{ref}})
	req.NoError(err)
	req.Nil(msg.Content)

	// Then members get its metadata and a signed url
	views := h.userMessages(t, "bob", room.ID)
	req.Len(views, 1)
	req.Len(views[0].Attachments, 1)
	req.Equal("route.bin", views[0].Attachments[0].FileName)
	req.Contains(views[0].Attachments[0].URL, "/objects/"+ref.StoragePath+"?sig=")

	// Deleting hides the download but keeps the row
	_, err = h.chat.SoftDelete(ctx, user("alice"), msg.ID)
	req.NoError(err)
	req.Empty(h.userMessages(t, "bob", room.ID)[0].Attachments)
	stored, err := h.messages.ListAttachments(ctx, msg.ID)
	req.NoError(err)
	req.Len(stored, 1)
}

func TestSend_Attachment_Facts_Come_From_The_Store(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")

	// A ref to an object that was never uploaded is refused and nothing is stored
	forged := domain.AttachmentRef{
		StoragePath: "rooms/" + room.ID.String() + "/" + uuid.NewString() + ".png",
		FileName:    "a.png",
		MimeType:    "image/png",
		FileSize:    10,
	}
	_, err := h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{RoomID: room.ID, Attachments: []domain.AttachmentRef{forged}})
	req.ErrorIs(err, errors.ErrValidation)
	req.Empty(h.userMessages(t, "bob", room.ID))

	// An uploaded ref with an edited type and size keeps the stored values
	ref, err := h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{RoomID: room.ID, FileName: "a.png", Content: pngHeader})
	req.NoError(err)
	ref.MimeType = "application/pdf"
	ref.FileSize = 1
	msg, err := h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{RoomID: room.ID, Attachments: []domain.AttachmentRef{ref}})
	req.NoError(err)
	stored, err := h.messages.ListAttachments(ctx, msg.ID)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("image/png", stored[0].MimeType)
	req.Equal(int64(len(pngHeader)), stored[0].FileSize)
}

func TestUploadAttachment_Rejections(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")

	_, err := h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{
		RoomID:   room.ID,
		FileName: "huge.png",
		Content:  append(bytes.Clone(pngHeader), make([]byte, 6<<20)...),
	})
	req.ErrorIs(err, errors.ErrAttachmentTooLarge)

	_, err = h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{
		RoomID:   room.ID,
		FileName: "tool.exe",
		Content:  []byte("MZ\x90\x00\x03\x00\x00\x00"),
	})
	req.ErrorIs(err, errors.ErrUnsupportedAttachment)

	_, err = h.chat.UploadAttachment(ctx, user("mallory"), domain.UploadCommand{RoomID: room.ID, FileName: "a.png", Content: pngHeader})
	req.ErrorIs(err, errors.ErrNotAMember)

	_, err = h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{RoomID: room.ID, FileName: "a.png"})
	req.ErrorIs(err, errors.ErrValidation)
}

func TestSend_Attachment_Rules(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	other := h.group(t, "alice", "clara")

	foreign, err := h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{RoomID: other.ID, FileName: "a.png", Content: pngHeader})
	req.NoError(err)
	_, err = h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{RoomID: room.ID, Attachments: []domain.AttachmentRef{foreign}})
	req.ErrorIs(err, errors.ErrValidation)

	local, err := h.chat.UploadAttachment(ctx, user("alice"), domain.UploadCommand{RoomID: room.ID, FileName: "a.png", Content: pngHeader})
	req.NoError(err)
	_, err = h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{
		RoomID:      room.ID,
		Attachments: lo.Times(6, func(int) domain.AttachmentRef { return local }),
	})
	req.ErrorIs(err, errors.ErrTooManyAttachments)

	req.Empty(h.userMessages(t, "alice", room.ID))
}

func TestReport_Lifecycle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	msg := h.send(t, "bob", room.ID, "buy cheap followers")

	_, err := h.chat.Report(ctx, user("alice"), domain.ReportCommand{Category: domain.CategorySpam})
	req.ErrorIs(err, errors.ErrInvalidReport)
	_, err = h.chat.Report(ctx, user("alice"), domain.ReportCommand{ReportedMessageID: &msg.ID, Category: "rude"})
	req.ErrorIs(err, errors.ErrValidation)
	_, err = h.chat.Report(ctx, user("alice"), domain.ReportCommand{ReportedMessageID: &msg.ID, Category: domain.CategorySpam, FreeText: strings.Repeat("a", 1001)})
	req.ErrorIs(err, errors.ErrValidation)
	_, err = h.chat.Report(ctx, user("alice"), domain.ReportCommand{ReportedMessageID: lo.ToPtr(uuid.New()), Category: domain.CategorySpam})
	req.ErrorIs(err, errors.ErrMessageNotFound)

	report, err := h.chat.Report(ctx, user("alice"), domain.ReportCommand{
		ReportedMessageID: &msg.ID,
		ReportedUserID:    lo.ToPtr("bob"),
		Category:          domain.CategorySpam,
		FreeText:          "selling stuff",
	})
	req.NoError(err)
	req.Equal(domain.ReportPending, report.Status)

	// Only moderators review reports
	_, err = h.chat.ListReports(ctx, user("alice"), nil)
	req.ErrorIs(err, errors.ErrNotModerator)
	pending, err := h.chat.ListReports(ctx, moderator("mod"), lo.ToPtr(domain.ReportPending))
	req.NoError(err)
	req.Len(pending, 1)

	_, err = h.chat.ResolveReport(ctx, moderator("mod"), report.ID, domain.ReportPending)
	req.ErrorIs(err, errors.ErrInvalidReport)
	resolved, err := h.chat.ResolveReport(ctx, moderator("mod"), report.ID, domain.ReportDismissed)
	req.NoError(err)
	req.Equal(domain.ReportDismissed, resolved.Status)
	req.Equal("mod", *resolved.ResolvedBy)

	pending, err = h.chat.ListReports(ctx, moderator("mod"), lo.ToPtr(domain.ReportPending))
	req.NoError(err)
	req.Empty(pending)
}

func TestJoinRoom_Subscribes_And_Announces_Presence(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	updates, err := h.bus.Subscribe(ctx)
	req.NoError(err)

	// Non members never get a subscription
	s := sink.NewChannelSink(4)
	req.ErrorIs(h.chat.JoinRoom(ctx, user("mallory"), room.ID, "c0", s), errors.ErrNotAMember)
	req.Equal(0, h.registry.Count())

	// When alice joins from two tabs
	req.NoError(h.chat.JoinRoom(ctx, user("alice"), room.ID, "c1", s))
	req.NoError(h.chat.JoinRoom(ctx, user("alice"), room.ID, "c2", sink.NewChannelSink(4)))
	req.Equal(2, h.registry.Count())

	snapshot := <-s.Deliveries
	req.Equal(event.PresenceChangedKind, snapshot.Kind)
	online := <-updates
	req.Equal("alice", online.State.UserID)
	req.True(online.State.Online)
	<-updates

	req.NoError(h.chat.SetTyping(ctx, user("alice"), domain.PresenceCommand{RoomID: room.ID, Typing: true}))
	typing := <-updates
	req.True(typing.State.Typing)

	// Closing one tab keeps alice online, closing the last one does not
	req.NoError(h.chat.LeaveRealtime(ctx, user("alice"), room.ID, "c1"))
	select {
	case u := <-updates:
		req.Failf("unexpected presence update", "%+v", u)
	default:
	}
	req.NoError(h.chat.LeaveRealtime(ctx, user("alice"), room.ID, "c2"))
	offline := <-updates
	req.False(offline.State.Online)
	req.Equal(0, h.registry.Count())
}

// drainFeed hands every pending change event to the gateway.
func (h *harness) drainFeed(ctx context.Context, gateway *runtime.Gateway) {
	for {
		select {
		case e := <-h.feed.Events():
			gateway.Handle(ctx, e)
		default:
			return
		}
	}
}

func TestMembership_End_Closes_Realtime_Connections(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	gateway := runtime.NewGateway(h.feed.Events(), h.chat.Hydrator(), h.registry, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	room := h.group(t, "alice", "bob", "carol")
	h.drainFeed(ctx, gateway)

	carol := sink.NewChannelSink(16)
	bob := sink.NewChannelSink(16)
	req.NoError(h.chat.JoinRoom(ctx, user("carol"), room.ID, "carol-1", carol))
	req.NoError(h.chat.JoinRoom(ctx, user("bob"), room.ID, "bob-1", bob))

	// When alice removes carol, bob leaves, and alice keeps talking
	req.NoError(h.chat.RemoveMember(ctx, user("alice"), room.ID, "carol"))
	req.NoError(h.chat.LeaveRoom(ctx, user("bob"), room.ID))
	h.send(t, "alice", room.ID, "secret plan after carol left")
	h.drainFeed(ctx, gateway)

	// Then neither former member holds a subscription nor receives the message
	req.Empty(h.registry.SubscribersForRoom(room.ID))
	for _, deliveries := range []*sink.ChannelSink{carol, bob} {
		for d := range deliveries.Deliveries {
			req.NotEqual(event.MessageInsertedKind, d.Kind)
		}
	}
	_, err := h.chat.ListMessages(ctx, user("carol"), room.ID, nil)
	req.ErrorIs(err, errors.ErrNotAMember)
}

func TestJoinRoom_Failed_Delivery_Leaves_Nothing_Behind(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	h := newHarness(t, 0)
	room := h.group(t, "alice")
	updates, err := h.bus.Subscribe(ctx)
	req.NoError(err)

	// Given a connection that is already gone
	broken := mocks.NewMockEventSink(ctrl)
	broken.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(errors.ErrSinkClosed).Times(1)

	// When alice joins through it
	err = h.chat.JoinRoom(ctx, user("alice"), room.ID, "c1", broken)

	// Then the join fails without a subscription or a lasting online state
	req.ErrorIs(err, errors.ErrSinkClosed)
	req.Equal(0, h.registry.Count())
	req.True((<-updates).State.Online)
	req.False((<-updates).State.Online)
}
