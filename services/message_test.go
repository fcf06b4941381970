package services

import (
	"context"
	"fmt"
	"member-chat/domain"
	"member-chat/domain/event"
	"member-chat/errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestSend_Blank_Without_Attachment_Persists_Nothing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	h.drain()

	for _, content := range []*string{nil, lo.ToPtr(""), lo.ToPtr("  \n\t ")} {
		_, err := h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{RoomID: room.ID, Content: content})
		req.ErrorIs(err, errors.ErrEmptyMessage)
		req.ErrorIs(err, errors.ErrValidation)
	}

	req.Empty(h.userMessages(t, "alice", room.ID))
	req.Empty(h.drain())
}

func TestSend_Requires_Active_Membership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")

	_, err := h.chat.Send(ctx, user("mallory"), domain.SendMessageCommand{RoomID: room.ID, Content: lo.ToPtr("hi")})
	req.ErrorIs(err, errors.ErrNotAMember)
	req.ErrorIs(err, errors.ErrAuthorization)

	req.NoError(h.chat.LeaveRoom(ctx, user("bob"), room.ID))
	_, err = h.chat.Send(ctx, user("bob"), domain.SendMessageCommand{RoomID: room.ID, Content: lo.ToPtr("hi")})
	req.ErrorIs(err, errors.ErrNotAMember)
}

func TestSend_Publishes_Insert_And_Cleans_Content(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	h.drain()

	msg, err := h.chat.Send(ctx, user("alice"), domain.SendMessageCommand{
		RoomID:    room.ID,
		Content:   lo.ToPtr("Bob you are such an idiot, this is really not how we agreed to ship the release"),
		ClientRef: "tmp-1",
	})
	req.NoError(err)
	req.Equal("Bob you are such an *****, this is really not how we agreed to ship the release", *msg.Content)
	req.Equal("en", msg.Language)
	req.Equal("tmp-1", msg.ClientRef)

	events := h.drain()
	req.Len(events, 1)
	inserted, ok := events[0].(event.MessageInserted)
	req.True(ok)
	req.Equal(msg.ID, inserted.Row.ID)
}

func TestReact_Then_Unreact_Restores_Tally_And_Delete_Keeps_It(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "A", "B")

	// Given A sends "hi" and B reacts
	msg := h.send(t, "A", room.ID, "hi")
	added, err := h.chat.React(ctx, user("B"), msg.ID, "👍")
	req.NoError(err)
	req.True(added)

	views := h.userMessages(t, "A", room.ID)
	req.Len(views, 1)
	req.Equal([]domain.ReactionTally{{Emoji: "👍", Count: 1}}, views[0].Reactions)
	req.Equal([]domain.ReactionTally{{Emoji: "👍", Count: 1, ReactedByMe: true}}, h.userMessages(t, "B", room.ID)[0].Reactions)

	// Reacting twice with the same emoji toggles back
	added, err = h.chat.React(ctx, user("B"), msg.ID, "👍")
	req.NoError(err)
	req.False(added)
	req.Empty(h.userMessages(t, "A", room.ID)[0].Reactions)
	_, err = h.chat.React(ctx, user("B"), msg.ID, "👍")
	req.NoError(err)

	// When A deletes her message
	deleted, err := h.chat.SoftDelete(ctx, user("A"), msg.ID)
	req.NoError(err)
	req.True(deleted.IsDeleted)

	// Then it keeps its place and its tally
	views = h.userMessages(t, "A", room.ID)
	req.Len(views, 1)
	req.Equal(msg.ID, views[0].Message.ID)
	req.Nil(views[0].Message.Content)
	req.True(views[0].Message.IsDeleted)
	req.NotNil(views[0].Message.EditedAt)
	req.Equal([]domain.ReactionTally{{Emoji: "👍", Count: 1}}, views[0].Reactions)

	// And it can no longer get reactions
	_, err = h.chat.React(ctx, user("B"), msg.ID, "🎉")
	req.ErrorIs(err, errors.ErrMessageDeleted)
}

func TestReact_Validation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	msg := h.send(t, "alice", room.ID, "hi")

	for _, emoji := range []string{"", "not an emoji", "👍👍👍👍👍"} {
		_, err := h.chat.React(ctx, user("bob"), msg.ID, emoji)
		req.ErrorIs(err, errors.ErrInvalidEmoji, emoji)
	}
	_, err := h.chat.React(ctx, user("mallory"), msg.ID, "👍")
	req.ErrorIs(err, errors.ErrNotAMember)
	_, err = h.chat.React(ctx, user("bob"), uuid.New(), "👍")
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestEdit_Only_By_Sender_On_Visible_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	first := h.send(t, "alice", room.ID, "first")
	msg := h.send(t, "alice", room.ID, "helo")
	h.send(t, "bob", room.ID, "last")

	_, err := h.chat.Edit(ctx, user("bob"), msg.ID, "hijacked")
	req.ErrorIs(err, errors.ErrNotSender)
	_, err = h.chat.Edit(ctx, user("alice"), msg.ID, "   ")
	req.ErrorIs(err, errors.ErrEmptyMessage)

	edited, err := h.chat.Edit(ctx, user("alice"), msg.ID, "hello")
	req.NoError(err)
	req.Equal("hello", *edited.Content)
	req.NotNil(edited.EditedAt)

	// Then the edit does not move the message
	views := h.userMessages(t, "bob", room.ID)
	req.Equal([]string{"first", "hello", "last"}, lo.Map(views, func(v domain.MessageView, _ int) string { return *v.Message.Content }))
	req.Equal(first.ID, views[0].Message.ID)

	_, err = h.chat.SoftDelete(ctx, user("alice"), msg.ID)
	req.NoError(err)
	_, err = h.chat.Edit(ctx, user("alice"), msg.ID, "back")
	req.ErrorIs(err, errors.ErrNotEditable)
	req.ErrorIs(err, errors.ErrAuthorization)
}

func TestSoftDelete_Sender_Or_Moderator(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	msg := h.send(t, "alice", room.ID, "spam spam spam")
	h.drain()

	_, err := h.chat.SoftDelete(ctx, user("bob"), msg.ID)
	req.ErrorIs(err, errors.ErrNotSender)

	deleted, err := h.chat.SoftDelete(ctx, moderator("mod"), msg.ID)
	req.NoError(err)
	req.True(deleted.IsDeleted)

	// Deleting twice publishes nothing new
	_, err = h.chat.SoftDelete(ctx, user("alice"), msg.ID)
	req.NoError(err)
	events := h.drain()
	req.Len(events, 1)
	req.Equal(event.CauseDeleted, events[0].(event.MessageUpdated).Cause)
}

func TestListMessages_Pages_Walk_Back_In_Ascending_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 3)
	room := h.group(t, "alice", "bob")
	for i := range 7 {
		h.send(t, "alice", room.ID, fmt.Sprintf("message %d", i))
	}

	// 1 system message + 7 messages over pages of 3
	var all []domain.MessageView
	var cursor *string
	pages := 0
	for {
		page, err := h.chat.ListMessages(ctx, user("bob"), room.ID, cursor)
		req.NoError(err)
		req.True(sort.SliceIsSorted(page.Messages, func(i, j int) bool {
			return page.Messages[i].Message.Before(page.Messages[j].Message)
		}))
		all = append(page.Messages, all...)
		pages++
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}

	req.Equal(3, pages)
	req.Len(all, 8)
	req.True(all[0].Message.IsSystemMessage)
	for i := 1; i < len(all); i++ {
		req.False(all[i].Message.CreatedAt.Before(all[i-1].Message.CreatedAt))
		req.Equal(fmt.Sprintf("message %d", i-1), *all[i].Message.Content)
	}

	_, err := h.chat.ListMessages(ctx, user("mallory"), room.ID, nil)
	req.ErrorIs(err, errors.ErrAuthorization)
	_, err = h.chat.ListMessages(ctx, user("bob"), room.ID, lo.ToPtr("garbage"))
	req.ErrorIs(err, errors.ErrInvalidCursor)
}

func TestListMessages_Resolves_Sender_Identity(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 0)
	room := h.group(t, "alice", "bob")
	h.send(t, "alice", room.ID, "hi")

	views := h.userMessages(t, "bob", room.ID)
	req.Len(views, 1)
	req.NotNil(views[0].Sender)
	req.Equal("alice", views[0].Sender.ID)
	req.Equal("alice", views[0].Sender.DisplayName)
	req.NotNil(views[0].Attachments)
}

func TestMarkRead_Direct_Rooms_Only(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	h := newHarness(t, 0)
	h.connect(t, "alice", "bob")
	dm, err := h.chat.CreateDirectRoom(ctx, user("alice"), "bob")
	req.NoError(err)
	group := h.group(t, "alice", "bob")

	readAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	dmMsg := h.send(t, "alice", dm.ID, "ping")
	req.NoError(h.chat.MarkRead(ctx, user("bob"), dmMsg.ID, readAt))
	req.NoError(h.chat.MarkRead(ctx, user("bob"), dmMsg.ID, readAt.Add(time.Minute)))

	views := h.userMessages(t, "bob", dm.ID)
	req.NotNil(views[0].ReadAt)
	req.True(readAt.Add(time.Minute).Equal(*views[0].ReadAt))
	req.Nil(h.userMessages(t, "alice", dm.ID)[0].ReadAt)

	// Group rooms accept and ignore receipts
	groupMsg := h.send(t, "alice", group.ID, "ping")
	h.drain()
	req.NoError(h.chat.MarkRead(ctx, user("bob"), groupMsg.ID, readAt))
	req.Nil(h.userMessages(t, "bob", group.ID)[0].ReadAt)
	req.Empty(h.drain())

	req.ErrorIs(h.chat.MarkRead(ctx, user("mallory"), dmMsg.ID, readAt), errors.ErrNotAMember)
}
