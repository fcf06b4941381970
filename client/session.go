package main

import (
	"context"
	"fmt"
	"member-chat/domain"
	"member-chat/infrastructure/grpc/chatapi"
	"member-chat/projection"
	"member-chat/sink"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Session keeps a local timeline of one room in sync with the server.
type Session struct {
	client   *chatapi.ChatServiceClient
	timeline *projection.Timeline
	sink     *sink.TimelineSink
	render   func([]string)
}

func NewSession(client *chatapi.ChatServiceClient, userID string, roomID uuid.UUID, render func([]string)) *Session {
	s := &Session{client: client, timeline: projection.NewTimeline(userID, roomID), render: render}
	s.sink = sink.NewTimelineSink(s.timeline, s.redraw)
	return s
}

func (s *Session) Connect(ctx context.Context) (chatapi.ChatService_ConnectClient, error) {
	return s.client.Connect(ctx, &chatapi.RoomRequest{RoomID: s.timeline.RoomID.String()})
}

// Sync replaces the timeline with the latest page. A page answered after a
// newer Sync started is dropped by the timeline.
func (s *Session) Sync(ctx context.Context) error {
	tag := s.timeline.BeginLoad()
	res, err := s.client.ListMessages(ctx, &chatapi.ListMessagesRequest{RoomID: s.timeline.RoomID.String()})
	if err != nil {
		return err
	}
	views := make([]domain.MessageView, 0, len(res.Messages))
	for _, m := range res.Messages {
		view, err := chatapi.FromMessage(m)
		if err != nil {
			return err
		}
		views = append(views, view)
	}
	if s.timeline.Load(tag, views) {
		s.redraw()
	}
	return nil
}

// Send shows the message right away and replaces it when the server echoes
// it back with the same client ref.
func (s *Session) Send(ctx context.Context, content string) error {
	tempID := uuid.NewString()
	s.timeline.AddPending(tempID, projection.PendingOp{Kind: projection.PendingSend, Content: &content, At: time.Now().UTC()})
	s.redraw()
	defer func() {
		s.timeline.Resolve(tempID)
		s.redraw()
	}()
	_, err := s.client.SendMessage(ctx, &chatapi.SendMessageRequest{
		RoomID:    s.timeline.RoomID.String(),
		Content:   &content,
		ClientRef: tempID,
	})
	return err
}

func (s *Session) Listen(ctx context.Context, stream chatapi.ChatService_ConnectClient) error {
	for {
		e, err := stream.Recv()
		if err != nil {
			return err
		}
		d, err := chatapi.FromChatEvent(e)
		if err != nil {
			continue
		}
		_ = s.sink.Consume(ctx, d)
	}
}

func (s *Session) redraw() {
	s.render(Render(s.timeline.Messages(), s.timeline.Presence(), s.timeline.Owner))
}

// Render formats the timeline one line per message, followed by who is typing.
func Render(entries []projection.Entry, presence []domain.PresenceState, owner string) []string {
	lines := lo.Map(entries, func(e projection.Entry, _ int) string {
		v := e.View
		at := v.Message.CreatedAt.Format(time.TimeOnly)
		switch {
		case v.Message.IsSystemMessage:
			return fmt.Sprintf("[%s] * %s", at, lo.FromPtr(v.Message.Content))
		case v.Message.IsDeleted:
			return fmt.Sprintf("[%s] %s: (message deleted)", at, senderName(v))
		}
		line := fmt.Sprintf("[%s] %s: %s", at, senderName(v), lo.FromPtr(v.Message.Content))
		if e.Pending {
			line += " (sending)"
		}
		for _, r := range v.Reactions {
			line += fmt.Sprintf(" %s%d", r.Emoji, r.Count)
		}
		return line
	})
	typing := lo.FilterMap(presence, func(p domain.PresenceState, _ int) (string, bool) {
		return p.UserID, p.Typing && p.UserID != owner
	})
	if len(typing) > 0 {
		lines = append(lines, fmt.Sprintf("%v typing...", typing))
	}
	return lines
}

func senderName(v domain.MessageView) string {
	if v.Sender != nil && v.Sender.DisplayName != "" {
		return v.Sender.DisplayName
	}
	return lo.FromPtr(v.Message.SenderID)
}
