package server

import (
	"context"
	"log/slog"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/errors"
	"member-chat/infrastructure/grpc/chatapi"
	"member-chat/services"
	"member-chat/sink"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ChatServer exposes IChatService over gRPC. It only translates: the caller
// identity comes from the auth interceptors, every rule lives in the service.
type ChatServer struct {
	chatService          services.IChatService
	connectionBufferSize int
	log                  *slog.Logger
}

func NewChatServer(log *slog.Logger, chatService services.IChatService, connectionBufferSize int) *ChatServer {
	return &ChatServer{chatService: chatService, connectionBufferSize: connectionBufferSize, log: log}
}

func (s *ChatServer) CreateDirectRoom(ctx context.Context, req *chatapi.CreateDirectRoomRequest) (*chatapi.RoomResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	room, err := s.chatService.CreateDirectRoom(ctx, id, req.OtherUserID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.RoomResponse{Room: chatapi.ToRoom(room)}, nil
}

func (s *ChatServer) CreateGroupRoom(ctx context.Context, req *chatapi.CreateGroupRoomRequest) (*chatapi.RoomResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	room, err := s.chatService.CreateGroupRoom(ctx, id, domain.CreateGroupCommand{Name: req.Name, MemberIDs: req.MemberIDs})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.RoomResponse{Room: chatapi.ToRoom(room)}, nil
}

func (s *ChatServer) InviteMembers(ctx context.Context, req *chatapi.InviteMembersRequest) (*chatapi.MembersResponse, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	members, err := s.chatService.InviteMembers(ctx, id, roomID, req.UserIDs)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.MembersResponse{Members: chatapi.ToMembers(members)}, nil
}

func (s *ChatServer) RemoveMember(ctx context.Context, req *chatapi.MemberRequest) (*chatapi.Empty, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	return empty(s.chatService.RemoveMember(ctx, id, roomID, req.UserID))
}

func (s *ChatServer) LeaveRoom(ctx context.Context, req *chatapi.RoomRequest) (*chatapi.Empty, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	return empty(s.chatService.LeaveRoom(ctx, id, roomID))
}

func (s *ChatServer) TransferAdmin(ctx context.Context, req *chatapi.MemberRequest) (*chatapi.Empty, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	return empty(s.chatService.TransferAdmin(ctx, id, roomID, req.UserID))
}

func (s *ChatServer) RenameRoom(ctx context.Context, req *chatapi.RenameRoomRequest) (*chatapi.RoomResponse, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	room, err := s.chatService.RenameRoom(ctx, id, roomID, req.Name)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.RoomResponse{Room: chatapi.ToRoom(room)}, nil
}

func (s *ChatServer) ListRooms(ctx context.Context, _ *chatapi.Empty) (*chatapi.RoomsResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	rooms, err := s.chatService.ListRooms(ctx, id)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.RoomsResponse{Rooms: chatapi.ToRoomSummaries(rooms)}, nil
}

func (s *ChatServer) ListMembers(ctx context.Context, req *chatapi.RoomRequest) (*chatapi.MembersResponse, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	members, err := s.chatService.ListMembers(ctx, id, roomID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.MembersResponse{Members: chatapi.ToMembers(members)}, nil
}

// SendMessage stores the message and returns the raw row. The hydrated
// version reaches every member, the sender included, through Connect.
func (s *ChatServer) SendMessage(ctx context.Context, req *chatapi.SendMessageRequest) (*chatapi.MessageResponse, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	msg, err := s.chatService.Send(ctx, id, domain.SendMessageCommand{
		RoomID:      roomID,
		Content:     req.Content,
		Attachments: chatapi.FromAttachmentRefs(req.Attachments),
		ClientRef:   req.ClientRef,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.MessageResponse{Message: chatapi.ToMessage(msg)}, nil
}

func (s *ChatServer) EditMessage(ctx context.Context, req *chatapi.EditMessageRequest) (*chatapi.MessageResponse, error) {
	id, messageID, err := s.identityAndMessage(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}
	msg, err := s.chatService.Edit(ctx, id, messageID, req.Content)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.MessageResponse{Message: chatapi.ToMessage(msg)}, nil
}

func (s *ChatServer) DeleteMessage(ctx context.Context, req *chatapi.MessageRequest) (*chatapi.MessageResponse, error) {
	id, messageID, err := s.identityAndMessage(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}
	msg, err := s.chatService.SoftDelete(ctx, id, messageID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.MessageResponse{Message: chatapi.ToMessage(msg)}, nil
}

func (s *ChatServer) React(ctx context.Context, req *chatapi.ReactRequest) (*chatapi.ReactResponse, error) {
	id, messageID, err := s.identityAndMessage(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}
	added, err := s.chatService.React(ctx, id, messageID, req.Emoji)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.ReactResponse{Added: added}, nil
}

func (s *ChatServer) MarkRead(ctx context.Context, req *chatapi.MarkReadRequest) (*chatapi.Empty, error) {
	id, messageID, err := s.identityAndMessage(ctx, req.MessageID)
	if err != nil {
		return nil, err
	}
	var readAt time.Time
	if req.ReadAt != nil {
		readAt = req.ReadAt.AsTime()
	}
	return empty(s.chatService.MarkRead(ctx, id, messageID, readAt))
}

func (s *ChatServer) ListMessages(ctx context.Context, req *chatapi.ListMessagesRequest) (*chatapi.ListMessagesResponse, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	page, err := s.chatService.ListMessages(ctx, id, roomID, req.Cursor)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.ListMessagesResponse{Messages: chatapi.ToMessageViews(page.Messages), NextCursor: page.NextCursor}, nil
}

func (s *ChatServer) UploadAttachment(ctx context.Context, req *chatapi.UploadAttachmentRequest) (*chatapi.AttachmentRef, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	ref, err := s.chatService.UploadAttachment(ctx, id, domain.UploadCommand{
		RoomID:       roomID,
		FileName:     req.FileName,
		DeclaredType: req.MimeType,
		Content:      req.Content,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return chatapi.ToAttachmentRef(ref), nil
}

func (s *ChatServer) Block(ctx context.Context, req *chatapi.UserRequest) (*chatapi.Empty, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return empty(s.chatService.Block(ctx, id, req.UserID))
}

func (s *ChatServer) Unblock(ctx context.Context, req *chatapi.UserRequest) (*chatapi.Empty, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return empty(s.chatService.Unblock(ctx, id, req.UserID))
}

func (s *ChatServer) Report(ctx context.Context, req *chatapi.ReportRequest) (*chatapi.ReportResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	cmd := domain.ReportCommand{
		ReportedUserID: req.UserID,
		Category:       domain.ReportCategory(req.Category),
		FreeText:       req.FreeText,
	}
	if req.MessageID != nil {
		messageID, err := chatapi.ParseID("message_id", *req.MessageID)
		if err != nil {
			return nil, errors.MapToGRPCError(err)
		}
		cmd.ReportedMessageID = &messageID
	}
	report, err := s.chatService.Report(ctx, id, cmd)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.ReportResponse{Report: chatapi.ToReport(report)}, nil
}

func (s *ChatServer) ListReports(ctx context.Context, req *chatapi.ListReportsRequest) (*chatapi.ReportsResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	var status *domain.ReportStatus
	if req.Status != nil {
		status = lo.ToPtr(domain.ReportStatus(*req.Status))
	}
	reports, err := s.chatService.ListReports(ctx, id, status)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.ReportsResponse{Reports: lo.Map(reports, func(r domain.Report, _ int) *chatapi.Report { return chatapi.ToReport(r) })}, nil
}

func (s *ChatServer) ResolveReport(ctx context.Context, req *chatapi.ResolveReportRequest) (*chatapi.ReportResponse, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	reportID, err := chatapi.ParseID("report_id", req.ReportID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	report, err := s.chatService.ResolveReport(ctx, id, reportID, domain.ReportStatus(req.Status))
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.ReportResponse{Report: chatapi.ToReport(report)}, nil
}

func (s *ChatServer) SetTyping(ctx context.Context, req *chatapi.TypingRequest) (*chatapi.Empty, error) {
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	return empty(s.chatService.SetTyping(ctx, id, domain.PresenceCommand{RoomID: roomID, Typing: req.Typing}))
}

// Connect subscribes the stream to a room and pushes deliveries until the
// client goes away. Each stream is its own connection, so several tabs of
// the same member are tracked separately.
func (s *ChatServer) Connect(req *chatapi.RoomRequest, stream chatapi.ChatService_ConnectServer) error {
	ctx := stream.Context()
	id, roomID, err := s.identityAndRoom(ctx, req.RoomID)
	if err != nil {
		return err
	}
	connectionID := uuid.NewString()
	deliveries := sink.NewChannelSink(s.connectionBufferSize)
	if err := s.chatService.JoinRoom(ctx, id, roomID, connectionID, deliveries); err != nil {
		return errors.MapToGRPCError(err)
	}
	defer func() {
		// The stream context is already done here
		if err := s.chatService.LeaveRealtime(context.Background(), id, roomID, connectionID); err != nil {
			s.log.Warn("failed to leave room", "room_id", roomID, "user_id", id.UserID, "error", err)
		}
		deliveries.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("client disconnected", "room_id", roomID, "user_id", id.UserID, "connection_id", connectionID)
			return nil
		case d, ok := <-deliveries.Deliveries:
			if !ok {
				return nil
			}
			if err := stream.Send(chatapi.ToChatEvent(d)); err != nil {
				s.log.Error("failed to push event to stream",
					"user_id", id.UserID,
					"room_id", roomID,
					"error", err)
				return err
			}
		}
	}
}

func (s *ChatServer) identityAndRoom(ctx context.Context, rawRoomID string) (auth.Identity, uuid.UUID, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return auth.Identity{}, uuid.Nil, errors.MapToGRPCError(err)
	}
	roomID, err := chatapi.ParseID("room_id", rawRoomID)
	if err != nil {
		return auth.Identity{}, uuid.Nil, errors.MapToGRPCError(err)
	}
	return id, roomID, nil
}

func (s *ChatServer) identityAndMessage(ctx context.Context, rawMessageID string) (auth.Identity, uuid.UUID, error) {
	id, err := auth.FromContext(ctx)
	if err != nil {
		return auth.Identity{}, uuid.Nil, errors.MapToGRPCError(err)
	}
	messageID, err := chatapi.ParseID("message_id", rawMessageID)
	if err != nil {
		return auth.Identity{}, uuid.Nil, errors.MapToGRPCError(err)
	}
	return id, messageID, nil
}

func empty(err error) (*chatapi.Empty, error) {
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &chatapi.Empty{}, nil
}
