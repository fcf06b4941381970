package services

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/attachment"
	"member-chat/auth"
	"member-chat/contract"
	"member-chat/domain"
	"member-chat/domain/event"
	"member-chat/errors"
	"member-chat/moderation"
	"member-chat/policy"
	"member-chat/repositories"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const DefaultLimitMessages = 50

// MessagePage is one page of a room, ascending. A nil NextCursor marks the
// oldest page.
type MessagePage struct {
	Messages   []domain.MessageView
	NextCursor *string
}

type MessageService struct {
	rooms       repositories.IRoomRepository
	messages    repositories.IMessageRepository
	policy      policy.Policy
	filter      moderation.ContentFilter
	attachments attachment.Policy
	store       contract.ObjectStore
	hydrator    *Hydrator
	feed        contract.ChangePublisher
	limit       int
	log         *slog.Logger
}

func NewMessageService(
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	filter moderation.ContentFilter,
	attachments attachment.Policy,
	store contract.ObjectStore,
	hydrator *Hydrator,
	feed contract.ChangePublisher,
	limit int,
	log *slog.Logger,
) *MessageService {
	if limit <= 0 {
		limit = DefaultLimitMessages
	}
	return &MessageService{
		rooms:       rooms,
		messages:    messages,
		policy:      policy.New(rooms),
		filter:      filter,
		attachments: attachments,
		store:       store,
		hydrator:    hydrator,
		feed:        feed,
		limit:       limit,
		log:         log,
	}
}

// Send persists a message and its attachment rows in one transaction.
// Attachments must already be uploaded under the room's storage prefix; their
// type and size are read back from the store, never taken from the caller.
func (s *MessageService) Send(ctx context.Context, id auth.Identity, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := requireMember(ctx, s.policy, cmd.RoomID, id.UserID); err != nil {
		return domain.Message{}, err
	}
	if err := ValidateSend(cmd); err != nil {
		return domain.Message{}, err
	}
	if err := s.attachments.CheckRefs(cmd.Attachments); err != nil {
		return domain.Message{}, err
	}
	stored, err := s.storedAttachments(ctx, cmd.RoomID, cmd.Attachments)
	if err != nil {
		return domain.Message{}, err
	}

	var content *string
	var language string
	if !domain.IsBlank(cmd.Content) {
		cleaned, err := s.filter.Clean(*cmd.Content)
		if err != nil {
			return domain.Message{}, err
		}
		content, language = &cleaned.Content, cleaned.Language
		if len(cleaned.Censored) > 0 {
			s.log.Info("Censored words in message", "room_id", cmd.RoomID, "user_id", id.UserID, "count", len(cleaned.Censored))
		}
	}

	at := now()
	msg := domain.NewUserMessage(cmd.RoomID, id.UserID, content, at)
	msg.Language = language
	msg.ClientRef = cmd.ClientRef
	attachments := lo.Map(stored, func(a domain.Attachment, _ int) domain.Attachment {
		a.ID = uuid.New()
		a.MessageID = msg.ID
		return a
	})

	if err := s.messages.StoreMessage(ctx, msg, attachments); err != nil {
		return domain.Message{}, err
	}
	s.publish(ctx, event.MessageInserted{Row: msg, At: at})
	return msg, nil
}

// storedAttachments checks every ref against the object store. A ref to an
// object that was never uploaded is rejected.
func (s *MessageService) storedAttachments(ctx context.Context, roomID uuid.UUID, refs []domain.AttachmentRef) ([]domain.Attachment, error) {
	prefix := roomObjectPrefix(roomID)
	attachments := make([]domain.Attachment, 0, len(refs))
	for _, ref := range refs {
		if !strings.HasPrefix(ref.StoragePath, prefix) {
			return nil, fmt.Errorf("%w: attachment %q belongs to another room", errors.ErrValidation, ref.StoragePath)
		}
		contentType, size, err := s.store.StatObject(ctx, ref.StoragePath)
		if errors.Is(err, errors.ErrNotFound) {
			return nil, fmt.Errorf("%w: attachment %q was not uploaded", errors.ErrValidation, ref.StoragePath)
		}
		if err != nil {
			return nil, err
		}
		mime, err := s.attachments.CheckStored(ref.StoragePath, contentType, size)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, domain.Attachment{
			StoragePath: ref.StoragePath,
			FileName:    ref.FileName,
			MimeType:    string(mime),
			FileSize:    size,
		})
	}
	return attachments, nil
}

// PostSystem appends a system message, sender nil, to the room.
func (s *MessageService) PostSystem(ctx context.Context, roomID uuid.UUID, content string) (domain.Message, error) {
	at := now()
	msg := domain.NewSystemMessage(roomID, content, at)
	if err := s.messages.StoreMessage(ctx, msg, nil); err != nil {
		return domain.Message{}, err
	}
	s.publish(ctx, event.MessageInserted{Row: msg, At: at})
	return msg, nil
}

func (s *MessageService) Edit(ctx context.Context, id auth.Identity, messageID uuid.UUID, content string) (domain.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !policy.CanEdit(id, msg) {
		if policy.IsSender(msg, id.UserID) {
			return domain.Message{}, errors.ErrNotEditable
		}
		return domain.Message{}, errors.ErrNotSender
	}
	if err := requireMember(ctx, s.policy, msg.RoomID, id.UserID); err != nil {
		return domain.Message{}, err
	}
	cleaned, err := s.filter.Clean(content)
	if err != nil {
		return domain.Message{}, err
	}

	at := now()
	msg.Edit(cleaned.Content, cleaned.Language, at)
	if err := s.messages.UpdateMessage(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	s.publish(ctx, event.MessageUpdated{Row: msg, Cause: event.CauseEdited, At: at})
	return msg, nil
}

// SoftDelete clears the content of a message. Deleting twice is a no-op.
func (s *MessageService) SoftDelete(ctx context.Context, id auth.Identity, messageID uuid.UUID) (domain.Message, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !policy.CanDelete(id, msg) {
		return domain.Message{}, errors.ErrNotSender
	}
	if msg.IsDeleted {
		return msg, nil
	}

	at := now()
	msg.SoftDelete(at)
	if err := s.messages.UpdateMessage(ctx, msg); err != nil {
		return domain.Message{}, err
	}
	if !policy.IsSender(msg, id.UserID) {
		s.log.Info("Message deleted by moderator", "message_id", msg.ID, "moderator", id.UserID)
	}
	s.publish(ctx, event.MessageUpdated{Row: msg, Cause: event.CauseDeleted, At: at})
	return msg, nil
}

// React toggles emoji for the caller and reports whether it was added.
func (s *MessageService) React(ctx context.Context, id auth.Identity, messageID uuid.UUID, emoji string) (bool, error) {
	if err := ValidateEmoji(emoji); err != nil {
		return false, err
	}
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	if err := requireMember(ctx, s.policy, msg.RoomID, id.UserID); err != nil {
		return false, err
	}
	if msg.IsDeleted {
		return false, errors.ErrMessageDeleted
	}

	at := now()
	added, err := s.messages.ToggleReaction(ctx, domain.Reaction{
		MessageID: msg.ID,
		UserID:    id.UserID,
		Emoji:     emoji,
		CreatedAt: at,
	})
	if err != nil {
		return false, err
	}
	s.publish(ctx, event.MessageUpdated{Row: msg, Cause: event.CauseReaction, At: at})
	return added, nil
}

// MarkRead records the caller's receipt. Receipts are only kept for direct
// rooms; group rooms accept the call and ignore it.
func (s *MessageService) MarkRead(ctx context.Context, id auth.Identity, messageID uuid.UUID, readAt time.Time) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err := requireMember(ctx, s.policy, msg.RoomID, id.UserID); err != nil {
		return err
	}
	room, err := s.rooms.GetRoom(ctx, msg.RoomID)
	if err != nil {
		return err
	}
	if !room.IsDirect() {
		return nil
	}
	if readAt.IsZero() {
		readAt = now()
	}

	if err := s.messages.UpsertReceipt(ctx, domain.ReadReceipt{MessageID: msg.ID, UserID: id.UserID, ReadAt: readAt}); err != nil {
		return err
	}
	s.publish(ctx, event.MessageUpdated{Row: msg, Cause: event.CauseRead, At: readAt})
	return nil
}

// ListMessages returns one hydrated page of the room as seen by the caller.
func (s *MessageService) ListMessages(ctx context.Context, id auth.Identity, roomID uuid.UUID, cursor *string) (MessagePage, error) {
	if err := requireMember(ctx, s.policy, roomID, id.UserID); err != nil {
		return MessagePage{}, err
	}
	rows, next, err := s.messages.GetMessages(ctx, roomID, cursor, s.limit)
	if err != nil {
		return MessagePage{}, err
	}

	views := make([]domain.MessageView, 0, len(rows))
	for _, row := range rows {
		hydrated, err := s.hydrator.HydrateMessage(ctx, row)
		if err != nil {
			return MessagePage{}, err
		}
		views = append(views, hydrated.ForViewer(id.UserID))
	}
	return MessagePage{Messages: views, NextCursor: next}, nil
}

// publish never fails a mutation: the row is durable, clients catch up on
// the next listing.
func (s *MessageService) publish(ctx context.Context, e event.ChangeEvent) {
	if err := s.feed.Publish(ctx, e); err != nil {
		s.log.Warn("Unable to publish change event", "room_id", e.RoomID(), "kind", e.Kind(), "error", err)
	}
}

func roomObjectPrefix(roomID uuid.UUID) string {
	return fmt.Sprintf("rooms/%s/", roomID)
}
