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
	"member-chat/domain/mimetypes"
	"member-chat/moderation"
	"member-chat/policy"
	"member-chat/presence"
	"member-chat/repositories"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IChatService interface {
	CreateDirectRoom(ctx context.Context, id auth.Identity, otherID string) (domain.Room, error)
	CreateGroupRoom(ctx context.Context, id auth.Identity, cmd domain.CreateGroupCommand) (domain.Room, error)
	InviteMembers(ctx context.Context, id auth.Identity, roomID uuid.UUID, userIDs []string) ([]domain.Membership, error)
	RemoveMember(ctx context.Context, id auth.Identity, roomID uuid.UUID, userID string) error
	LeaveRoom(ctx context.Context, id auth.Identity, roomID uuid.UUID) error
	TransferAdmin(ctx context.Context, id auth.Identity, roomID uuid.UUID, newAdminID string) error
	RenameRoom(ctx context.Context, id auth.Identity, roomID uuid.UUID, name string) (domain.Room, error)
	ListRooms(ctx context.Context, id auth.Identity) ([]domain.RoomSummary, error)
	ListMembers(ctx context.Context, id auth.Identity, roomID uuid.UUID) ([]domain.Membership, error)

	Send(ctx context.Context, id auth.Identity, cmd domain.SendMessageCommand) (domain.Message, error)
	Edit(ctx context.Context, id auth.Identity, messageID uuid.UUID, content string) (domain.Message, error)
	SoftDelete(ctx context.Context, id auth.Identity, messageID uuid.UUID) (domain.Message, error)
	React(ctx context.Context, id auth.Identity, messageID uuid.UUID, emoji string) (bool, error)
	MarkRead(ctx context.Context, id auth.Identity, messageID uuid.UUID, readAt time.Time) error
	ListMessages(ctx context.Context, id auth.Identity, roomID uuid.UUID, cursor *string) (MessagePage, error)
	UploadAttachment(ctx context.Context, id auth.Identity, cmd domain.UploadCommand) (domain.AttachmentRef, error)

	Block(ctx context.Context, id auth.Identity, blockedID string) error
	Unblock(ctx context.Context, id auth.Identity, blockedID string) error
	Report(ctx context.Context, id auth.Identity, cmd domain.ReportCommand) (domain.Report, error)
	ListReports(ctx context.Context, id auth.Identity, status *domain.ReportStatus) ([]domain.Report, error)
	ResolveReport(ctx context.Context, id auth.Identity, reportID uuid.UUID, status domain.ReportStatus) (domain.Report, error)

	JoinRoom(ctx context.Context, id auth.Identity, roomID uuid.UUID, connectionID string, sink contract.EventSink) error
	SetTyping(ctx context.Context, id auth.Identity, cmd domain.PresenceCommand) error
	LeaveRealtime(ctx context.Context, id auth.Identity, roomID uuid.UUID, connectionID string) error
}

// PresenceView exposes the current presence set of a room.
type PresenceView interface {
	Snapshot(roomID uuid.UUID) []domain.PresenceState
}

// ChatService is the single entry point used by the transports. It holds
// no state of its own.
type ChatService struct {
	*MembershipService
	*MessageService
	*BlockService
	*ReportService

	store       contract.ObjectStore
	attachments attachment.Policy
	registry    contract.IRegistry
	bus         presence.Bus
	presence    PresenceView
	members     policy.Policy
	log         *slog.Logger
}

// Dependencies groups what NewChatService wires together.
type Dependencies struct {
	Rooms       repositories.IRoomRepository
	Messages    repositories.IMessageRepository
	Blocks      repositories.IBlockRepository
	Reports     repositories.IReportRepository
	Graph       contract.ConnectionGraph
	Directory   contract.Directory
	Store       contract.ObjectStore
	Feed        contract.ChangePublisher
	Registry    contract.IRegistry
	Bus         presence.Bus
	Presence    PresenceView
	Filter      moderation.ContentFilter
	Attachments attachment.Policy
	SignedURL   time.Duration
	Limit       int
}

func NewChatService(deps Dependencies, log *slog.Logger) *ChatService {
	hydrator := NewHydrator(deps.Messages, deps.Directory, deps.Store, deps.SignedURL, log)
	messages := NewMessageService(deps.Rooms, deps.Messages, deps.Filter, deps.Attachments, deps.Store, hydrator, deps.Feed, deps.Limit, log)
	return &ChatService{
		MembershipService: NewMembershipService(deps.Rooms, deps.Blocks, deps.Messages, deps.Graph, messages, deps.Registry, deps.Bus, log),
		MessageService:    messages,
		BlockService:      NewBlockService(deps.Blocks, log),
		ReportService:     NewReportService(deps.Reports, deps.Messages, log),
		store:             deps.Store,
		attachments:       deps.Attachments,
		registry:          deps.Registry,
		bus:               deps.Bus,
		presence:          deps.Presence,
		members:           policy.New(deps.Rooms),
		log:               log,
	}
}

// Hydrator returns the hydrator backing the realtime gateway.
func (s *ChatService) Hydrator() *Hydrator {
	return s.MessageService.hydrator
}

// UploadAttachment checks the file against the attachment policy and stores
// it under the room prefix. Nothing is written when the file is rejected.
func (s *ChatService) UploadAttachment(ctx context.Context, id auth.Identity, cmd domain.UploadCommand) (domain.AttachmentRef, error) {
	if err := ValidateUpload(cmd); err != nil {
		return domain.AttachmentRef{}, err
	}
	if err := requireMember(ctx, s.members, cmd.RoomID, id.UserID); err != nil {
		return domain.AttachmentRef{}, err
	}
	mime, err := s.attachments.Resolve(attachment.Candidate{
		FileName:     cmd.FileName,
		DeclaredType: cmd.DeclaredType,
		Size:         int64(len(cmd.Content)),
		Head:         cmd.Content,
	})
	if err != nil {
		return domain.AttachmentRef{}, err
	}

	path := fmt.Sprintf("%s%s%s", roomObjectPrefix(cmd.RoomID), uuid.New(), mimetypes.Extension(mime))
	if err := s.store.PutObject(ctx, path, cmd.Content, string(mime)); err != nil {
		return domain.AttachmentRef{}, err
	}
	s.log.Debug("Attachment uploaded", "room_id", cmd.RoomID, "path", path, "mime", mime)
	return domain.AttachmentRef{
		StoragePath: path,
		FileName:    cmd.FileName,
		MimeType:    string(mime),
		FileSize:    int64(len(cmd.Content)),
	}, nil
}

// JoinRoom subscribes a connection to the room's change feed, announces the
// caller online and hands the connection the current presence set.
func (s *ChatService) JoinRoom(ctx context.Context, id auth.Identity, roomID uuid.UUID, connectionID string, sink contract.EventSink) error {
	if err := requireMember(ctx, s.members, roomID, id.UserID); err != nil {
		return err
	}
	s.registry.Subscribe(contract.Subscriber{ConnectionID: connectionID, UserID: id.UserID, RoomID: roomID, Sink: sink})
	if err := s.bus.Publish(ctx, presence.Update{
		RoomID: roomID,
		State:  domain.PresenceState{UserID: id.UserID, Online: true, At: now()},
	}); err != nil {
		s.log.Warn("Unable to publish presence", "room_id", roomID, "user_id", id.UserID, "error", err)
	}
	err := sink.Consume(ctx, event.Delivery{
		Kind:     event.PresenceChangedKind,
		RoomID:   roomID,
		Presence: s.presence.Snapshot(roomID),
	})
	if err != nil {
		// The caller only leaves a room it joined
		if leaveErr := s.LeaveRealtime(context.WithoutCancel(ctx), id, roomID, connectionID); leaveErr != nil {
			s.log.Warn("Unable to leave room", "room_id", roomID, "user_id", id.UserID, "error", leaveErr)
		}
		return err
	}
	return nil
}

// SetTyping publishes a typing transition. Every presence update is stamped
// with server time so joins, typing and disconnects order on one clock.
func (s *ChatService) SetTyping(ctx context.Context, id auth.Identity, cmd domain.PresenceCommand) error {
	if err := requireMember(ctx, s.members, cmd.RoomID, id.UserID); err != nil {
		return err
	}
	return s.bus.Publish(ctx, presence.Update{
		RoomID: cmd.RoomID,
		State:  domain.PresenceState{UserID: id.UserID, Online: true, Typing: cmd.Typing, At: now()},
	})
}

// LeaveRealtime closes one connection. The caller goes offline once none
// of their connections remain in the room.
func (s *ChatService) LeaveRealtime(ctx context.Context, id auth.Identity, roomID uuid.UUID, connectionID string) error {
	s.registry.Unsubscribe(connectionID)
	stillOnline := lo.ContainsBy(s.registry.SubscribersForRoom(roomID), func(sub contract.Subscriber) bool {
		return sub.UserID == id.UserID
	})
	if stillOnline {
		return nil
	}
	return s.bus.Publish(ctx, presence.Update{
		RoomID: roomID,
		State:  domain.PresenceState{UserID: id.UserID, At: now()},
	})
}
