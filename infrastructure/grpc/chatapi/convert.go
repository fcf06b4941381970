package chatapi

import (
	"fmt"
	"member-chat/domain"
	"member-chat/domain/event"
	"member-chat/errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func timestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

func fromTimestamp(ts *timestamppb.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.AsTime()
	return &t
}

func ToRoom(r domain.Room) *Room {
	return &Room{
		ID:        r.ID.String(),
		Type:      string(r.Type),
		Name:      r.Name,
		CreatedBy: r.CreatedBy,
		CreatedAt: timestamppb.New(r.CreatedAt),
		UpdatedAt: timestamppb.New(r.UpdatedAt),
	}
}

func ToMembers(members []domain.Membership) []*Member {
	return lo.Map(members, func(m domain.Membership, _ int) *Member {
		return &Member{UserID: m.UserID, Role: string(m.Role), JoinedAt: timestamppb.New(m.JoinedAt)}
	})
}

func ToRoomSummaries(summaries []domain.RoomSummary) []*RoomSummary {
	return lo.Map(summaries, func(s domain.RoomSummary, _ int) *RoomSummary {
		summary := &RoomSummary{Room: ToRoom(s.Room), Members: ToMembers(s.Members)}
		if s.LastMessage != nil {
			summary.LastMessage = ToMessage(*s.LastMessage)
		}
		return summary
	})
}

// ToMessage converts a raw row, without hydration.
func ToMessage(m domain.Message) *Message {
	return &Message{
		ID:          m.ID.String(),
		RoomID:      m.RoomID.String(),
		SenderID:    m.SenderID,
		Content:     m.Content,
		Language:    m.Language,
		IsSystem:    m.IsSystemMessage,
		IsDeleted:   m.IsDeleted,
		EditedAt:    timestamp(m.EditedAt),
		CreatedAt:   timestamppb.New(m.CreatedAt),
		ClientRef:   m.ClientRef,
		Reactions:   []*Reaction{},
		Attachments: []*Attachment{},
	}
}

func ToMessageView(v domain.MessageView) *Message {
	msg := ToMessage(v.Message)
	if v.Sender != nil {
		msg.SenderName = v.Sender.DisplayName
	}
	msg.Reactions = lo.Map(v.Reactions, func(r domain.ReactionTally, _ int) *Reaction {
		return &Reaction{Emoji: r.Emoji, Count: int32(r.Count), ReactedByMe: r.ReactedByMe}
	})
	msg.Attachments = lo.Map(v.Attachments, func(a domain.AttachmentView, _ int) *Attachment {
		return &Attachment{ID: a.ID.String(), FileName: a.FileName, MimeType: a.MimeType, FileSize: a.FileSize, URL: a.URL}
	})
	msg.ReadAt = timestamp(v.ReadAt)
	return msg
}

func ToMessageViews(views []domain.MessageView) []*Message {
	return lo.Map(views, func(v domain.MessageView, _ int) *Message { return ToMessageView(v) })
}

func ToPresence(states []domain.PresenceState) []*PresenceState {
	return lo.Map(states, func(s domain.PresenceState, _ int) *PresenceState {
		return &PresenceState{UserID: s.UserID, Online: s.Online, Typing: s.Typing, At: timestamppb.New(s.At)}
	})
}

func ToChatEvent(d event.Delivery) *ChatEvent {
	e := &ChatEvent{Kind: string(d.Kind), RoomID: d.RoomID.String(), Presence: ToPresence(d.Presence)}
	if d.Message != nil {
		e.Message = ToMessageView(*d.Message)
	}
	return e
}

func ToReport(r domain.Report) *Report {
	report := &Report{
		ID:             r.ID.String(),
		ReporterID:     r.ReporterID,
		ReportedUserID: r.ReportedUserID,
		Category:       string(r.Category),
		FreeText:       r.FreeText,
		Status:         string(r.Status),
		CreatedAt:      timestamppb.New(r.CreatedAt),
		ResolvedBy:     r.ResolvedBy,
	}
	if r.ReportedMessageID != nil {
		report.ReportedMessageID = lo.ToPtr(r.ReportedMessageID.String())
	}
	return report
}

func ToAttachmentRef(ref domain.AttachmentRef) *AttachmentRef {
	return &AttachmentRef{StoragePath: ref.StoragePath, FileName: ref.FileName, MimeType: ref.MimeType, FileSize: ref.FileSize}
}

func FromAttachmentRefs(refs []*AttachmentRef) []domain.AttachmentRef {
	return lo.FilterMap(refs, func(r *AttachmentRef, _ int) (domain.AttachmentRef, bool) {
		if r == nil {
			return domain.AttachmentRef{}, false
		}
		return domain.AttachmentRef{StoragePath: r.StoragePath, FileName: r.FileName, MimeType: r.MimeType, FileSize: r.FileSize}, true
	})
}

// ParseID decodes an identifier received on the wire.
func ParseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", errors.ErrValidation, field)
	}
	return id, nil
}

// FromMessage rebuilds the view a client projects into its timeline.
func FromMessage(m *Message) (domain.MessageView, error) {
	id, err := ParseID("message_id", m.ID)
	if err != nil {
		return domain.MessageView{}, err
	}
	roomID, err := ParseID("room_id", m.RoomID)
	if err != nil {
		return domain.MessageView{}, err
	}
	view := domain.MessageView{
		Message: domain.Message{
			ID:              id,
			RoomID:          roomID,
			SenderID:        m.SenderID,
			Content:         m.Content,
			Language:        m.Language,
			IsSystemMessage: m.IsSystem,
			IsDeleted:       m.IsDeleted,
			EditedAt:        fromTimestamp(m.EditedAt),
			CreatedAt:       m.CreatedAt.AsTime(),
			ClientRef:       m.ClientRef,
		},
		Reactions: lo.Map(m.Reactions, func(r *Reaction, _ int) domain.ReactionTally {
			return domain.ReactionTally{Emoji: r.Emoji, Count: int(r.Count), ReactedByMe: r.ReactedByMe}
		}),
		Attachments: lo.Map(m.Attachments, func(a *Attachment, _ int) domain.AttachmentView {
			attID, _ := uuid.Parse(a.ID)
			return domain.AttachmentView{ID: attID, FileName: a.FileName, MimeType: a.MimeType, FileSize: a.FileSize, URL: a.URL}
		}),
		ReadAt: fromTimestamp(m.ReadAt),
	}
	if m.SenderID != nil {
		view.Sender = &domain.Sender{ID: *m.SenderID, DisplayName: m.SenderName}
	}
	return view, nil
}

func FromChatEvent(e *ChatEvent) (event.Delivery, error) {
	roomID, err := ParseID("room_id", e.RoomID)
	if err != nil {
		return event.Delivery{}, err
	}
	d := event.Delivery{
		Kind:   event.Kind(e.Kind),
		RoomID: roomID,
		Presence: lo.Map(e.Presence, func(s *PresenceState, _ int) domain.PresenceState {
			return domain.PresenceState{UserID: s.UserID, Online: s.Online, Typing: s.Typing, At: s.At.AsTime()}
		}),
	}
	if e.Message != nil {
		view, err := FromMessage(e.Message)
		if err != nil {
			return event.Delivery{}, err
		}
		d.Message = &view
	}
	return d, nil
}
