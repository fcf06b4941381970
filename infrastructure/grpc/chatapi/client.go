package chatapi

import (
	"context"

	"google.golang.org/grpc"
)

type ChatService_ConnectClient interface {
	Recv() (*ChatEvent, error)
	grpc.ClientStream
}

type connectClient struct {
	grpc.ClientStream
}

func (c *connectClient) Recv() (*ChatEvent, error) {
	e := new(ChatEvent)
	if err := c.ClientStream.RecvMsg(e); err != nil {
		return nil, err
	}
	return e, nil
}

// ChatServiceClient calls the chat service with the JSON codec.
type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, append([]grpc.CallOption{CallOption()}, opts...)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChatServiceClient) CreateDirectRoom(ctx context.Context, in *CreateDirectRoomRequest, opts ...grpc.CallOption) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, "CreateDirectRoom", in, opts)
}

func (c *ChatServiceClient) CreateGroupRoom(ctx context.Context, in *CreateGroupRoomRequest, opts ...grpc.CallOption) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, "CreateGroupRoom", in, opts)
}

func (c *ChatServiceClient) InviteMembers(ctx context.Context, in *InviteMembersRequest, opts ...grpc.CallOption) (*MembersResponse, error) {
	return invoke[MembersResponse](ctx, c.cc, "InviteMembers", in, opts)
}

func (c *ChatServiceClient) RemoveMember(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "RemoveMember", in, opts)
}

func (c *ChatServiceClient) LeaveRoom(ctx context.Context, in *RoomRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "LeaveRoom", in, opts)
}

func (c *ChatServiceClient) TransferAdmin(ctx context.Context, in *MemberRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "TransferAdmin", in, opts)
}

func (c *ChatServiceClient) RenameRoom(ctx context.Context, in *RenameRoomRequest, opts ...grpc.CallOption) (*RoomResponse, error) {
	return invoke[RoomResponse](ctx, c.cc, "RenameRoom", in, opts)
}

func (c *ChatServiceClient) ListRooms(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*RoomsResponse, error) {
	return invoke[RoomsResponse](ctx, c.cc, "ListRooms", in, opts)
}

func (c *ChatServiceClient) ListMembers(ctx context.Context, in *RoomRequest, opts ...grpc.CallOption) (*MembersResponse, error) {
	return invoke[MembersResponse](ctx, c.cc, "ListMembers", in, opts)
}

func (c *ChatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "SendMessage", in, opts)
}

func (c *ChatServiceClient) EditMessage(ctx context.Context, in *EditMessageRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "EditMessage", in, opts)
}

func (c *ChatServiceClient) DeleteMessage(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "DeleteMessage", in, opts)
}

func (c *ChatServiceClient) React(ctx context.Context, in *ReactRequest, opts ...grpc.CallOption) (*ReactResponse, error) {
	return invoke[ReactResponse](ctx, c.cc, "React", in, opts)
}

func (c *ChatServiceClient) MarkRead(ctx context.Context, in *MarkReadRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "MarkRead", in, opts)
}

func (c *ChatServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, "ListMessages", in, opts)
}

func (c *ChatServiceClient) UploadAttachment(ctx context.Context, in *UploadAttachmentRequest, opts ...grpc.CallOption) (*AttachmentRef, error) {
	return invoke[AttachmentRef](ctx, c.cc, "UploadAttachment", in, opts)
}

func (c *ChatServiceClient) Block(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "Block", in, opts)
}

func (c *ChatServiceClient) Unblock(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "Unblock", in, opts)
}

func (c *ChatServiceClient) Report(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	return invoke[ReportResponse](ctx, c.cc, "Report", in, opts)
}

func (c *ChatServiceClient) ListReports(ctx context.Context, in *ListReportsRequest, opts ...grpc.CallOption) (*ReportsResponse, error) {
	return invoke[ReportsResponse](ctx, c.cc, "ListReports", in, opts)
}

func (c *ChatServiceClient) ResolveReport(ctx context.Context, in *ResolveReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	return invoke[ReportResponse](ctx, c.cc, "ResolveReport", in, opts)
}

func (c *ChatServiceClient) SetTyping(ctx context.Context, in *TypingRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, "SetTyping", in, opts)
}

// Connect opens the realtime stream of a room.
func (c *ChatServiceClient) Connect(ctx context.Context, in *RoomRequest, opts ...grpc.CallOption) (ChatService_ConnectClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], fullMethod("Connect"), append([]grpc.CallOption{CallOption()}, opts...)...)
	if err != nil {
		return nil, err
	}
	client := &connectClient{stream}
	if err := client.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := client.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return client, nil
}
