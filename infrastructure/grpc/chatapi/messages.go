package chatapi

import "google.golang.org/protobuf/types/known/timestamppb"

type Empty struct{}

type Room struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Name      *string                `json:"name,omitempty"`
	CreatedBy string                 `json:"created_by"`
	CreatedAt *timestamppb.Timestamp `json:"created_at"`
	UpdatedAt *timestamppb.Timestamp `json:"updated_at"`
}

type Member struct {
	UserID   string                 `json:"user_id"`
	Role     string                 `json:"role"`
	JoinedAt *timestamppb.Timestamp `json:"joined_at"`
}

type RoomSummary struct {
	Room        *Room     `json:"room"`
	Members     []*Member `json:"members"`
	LastMessage *Message  `json:"last_message,omitempty"`
}

type Reaction struct {
	Emoji       string `json:"emoji"`
	Count       int32  `json:"count"`
	ReactedByMe bool   `json:"reacted_by_me"`
}

type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
	URL      string `json:"url"`
}

type AttachmentRef struct {
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	FileSize    int64  `json:"file_size"`
}

type Message struct {
	ID          string                 `json:"id"`
	RoomID      string                 `json:"room_id"`
	SenderID    *string                `json:"sender_id,omitempty"`
	SenderName  string                 `json:"sender_name,omitempty"`
	Content     *string                `json:"content,omitempty"`
	Language    string                 `json:"language,omitempty"`
	IsSystem    bool                   `json:"is_system"`
	IsDeleted   bool                   `json:"is_deleted"`
	EditedAt    *timestamppb.Timestamp `json:"edited_at,omitempty"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at"`
	ClientRef   string                 `json:"client_ref,omitempty"`
	Reactions   []*Reaction            `json:"reactions"`
	Attachments []*Attachment          `json:"attachments"`
	ReadAt      *timestamppb.Timestamp `json:"read_at,omitempty"`
}

type PresenceState struct {
	UserID string                 `json:"user_id"`
	Online bool                   `json:"online"`
	Typing bool                   `json:"typing"`
	At     *timestamppb.Timestamp `json:"at"`
}

// ChatEvent is one item of the Connect stream.
type ChatEvent struct {
	Kind     string           `json:"kind"`
	RoomID   string           `json:"room_id"`
	Message  *Message         `json:"message,omitempty"`
	Presence []*PresenceState `json:"presence,omitempty"`
}

type Report struct {
	ID                string                 `json:"id"`
	ReporterID        string                 `json:"reporter_id"`
	ReportedMessageID *string                `json:"reported_message_id,omitempty"`
	ReportedUserID    *string                `json:"reported_user_id,omitempty"`
	Category          string                 `json:"category"`
	FreeText          string                 `json:"free_text"`
	Status            string                 `json:"status"`
	CreatedAt         *timestamppb.Timestamp `json:"created_at"`
	ResolvedBy        *string                `json:"resolved_by,omitempty"`
}

type CreateDirectRoomRequest struct {
	OtherUserID string `json:"other_user_id"`
}

type CreateGroupRoomRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

type RoomRequest struct {
	RoomID string `json:"room_id"`
}

type MemberRequest struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type InviteMembersRequest struct {
	RoomID  string   `json:"room_id"`
	UserIDs []string `json:"user_ids"`
}

type RenameRoomRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

type RoomResponse struct {
	Room *Room `json:"room"`
}

type RoomsResponse struct {
	Rooms []*RoomSummary `json:"rooms"`
}

type MembersResponse struct {
	Members []*Member `json:"members"`
}

type SendMessageRequest struct {
	RoomID      string           `json:"room_id"`
	Content     *string          `json:"content,omitempty"`
	Attachments []*AttachmentRef `json:"attachments,omitempty"`
	ClientRef   string           `json:"client_ref,omitempty"`
}

type EditMessageRequest struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type MessageRequest struct {
	MessageID string `json:"message_id"`
}

type MessageResponse struct {
	Message *Message `json:"message"`
}

type ReactRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type ReactResponse struct {
	Added bool `json:"added"`
}

type MarkReadRequest struct {
	MessageID string                 `json:"message_id"`
	ReadAt    *timestamppb.Timestamp `json:"read_at,omitempty"`
}

type ListMessagesRequest struct {
	RoomID string  `json:"room_id"`
	Cursor *string `json:"cursor,omitempty"`
}

type ListMessagesResponse struct {
	Messages   []*Message `json:"messages"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

type UploadAttachmentRequest struct {
	RoomID   string `json:"room_id"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Content  []byte `json:"content"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type ReportRequest struct {
	MessageID *string `json:"message_id,omitempty"`
	UserID    *string `json:"user_id,omitempty"`
	Category  string  `json:"category"`
	FreeText  string  `json:"free_text"`
}

type ReportResponse struct {
	Report *Report `json:"report"`
}

type ListReportsRequest struct {
	Status *string `json:"status,omitempty"`
}

type ReportsResponse struct {
	Reports []*Report `json:"reports"`
}

type ResolveReportRequest struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
}

type TypingRequest struct {
	RoomID string `json:"room_id"`
	Typing bool   `json:"typing"`
}
