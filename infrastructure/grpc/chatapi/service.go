package chatapi

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "memberchat.v1.ChatService"

type ChatServiceServer interface {
	CreateDirectRoom(context.Context, *CreateDirectRoomRequest) (*RoomResponse, error)
	CreateGroupRoom(context.Context, *CreateGroupRoomRequest) (*RoomResponse, error)
	InviteMembers(context.Context, *InviteMembersRequest) (*MembersResponse, error)
	RemoveMember(context.Context, *MemberRequest) (*Empty, error)
	LeaveRoom(context.Context, *RoomRequest) (*Empty, error)
	TransferAdmin(context.Context, *MemberRequest) (*Empty, error)
	RenameRoom(context.Context, *RenameRoomRequest) (*RoomResponse, error)
	ListRooms(context.Context, *Empty) (*RoomsResponse, error)
	ListMembers(context.Context, *RoomRequest) (*MembersResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*MessageResponse, error)
	EditMessage(context.Context, *EditMessageRequest) (*MessageResponse, error)
	DeleteMessage(context.Context, *MessageRequest) (*MessageResponse, error)
	React(context.Context, *ReactRequest) (*ReactResponse, error)
	MarkRead(context.Context, *MarkReadRequest) (*Empty, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	UploadAttachment(context.Context, *UploadAttachmentRequest) (*AttachmentRef, error)
	Block(context.Context, *UserRequest) (*Empty, error)
	Unblock(context.Context, *UserRequest) (*Empty, error)
	Report(context.Context, *ReportRequest) (*ReportResponse, error)
	ListReports(context.Context, *ListReportsRequest) (*ReportsResponse, error)
	ResolveReport(context.Context, *ResolveReportRequest) (*ReportResponse, error)
	SetTyping(context.Context, *TypingRequest) (*Empty, error)
	Connect(*RoomRequest, ChatService_ConnectServer) error
}

type ChatService_ConnectServer interface {
	Send(*ChatEvent) error
	grpc.ServerStream
}

type connectServer struct {
	grpc.ServerStream
}

func (s *connectServer) Send(e *ChatEvent) error {
	return s.ServerStream.SendMsg(e)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary builds the descriptor of a request/response method.
func unary[Req, Resp any](name string, call func(ChatServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatServiceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}, handler)
		},
	}
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	in := new(RoomRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Connect(in, &connectServer{stream})
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateDirectRoom", ChatServiceServer.CreateDirectRoom),
		unary("CreateGroupRoom", ChatServiceServer.CreateGroupRoom),
		unary("InviteMembers", ChatServiceServer.InviteMembers),
		unary("RemoveMember", ChatServiceServer.RemoveMember),
		unary("LeaveRoom", ChatServiceServer.LeaveRoom),
		unary("TransferAdmin", ChatServiceServer.TransferAdmin),
		unary("RenameRoom", ChatServiceServer.RenameRoom),
		unary("ListRooms", ChatServiceServer.ListRooms),
		unary("ListMembers", ChatServiceServer.ListMembers),
		unary("SendMessage", ChatServiceServer.SendMessage),
		unary("EditMessage", ChatServiceServer.EditMessage),
		unary("DeleteMessage", ChatServiceServer.DeleteMessage),
		unary("React", ChatServiceServer.React),
		unary("MarkRead", ChatServiceServer.MarkRead),
		unary("ListMessages", ChatServiceServer.ListMessages),
		unary("UploadAttachment", ChatServiceServer.UploadAttachment),
		unary("Block", ChatServiceServer.Block),
		unary("Unblock", ChatServiceServer.Unblock),
		unary("Report", ChatServiceServer.Report),
		unary("ListReports", ChatServiceServer.ListReports),
		unary("ResolveReport", ChatServiceServer.ResolveReport),
		unary("SetTyping", ChatServiceServer.SetTyping),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
		},
	},
	Metadata: "memberchat/v1/chat.json",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
