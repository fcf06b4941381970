// Package domain contains core concepts of the chat system.
// This file defines Message records and the rows attached to them.
// Messages are append-only: edits and deletions mutate a row, never remove it.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID              uuid.UUID  `json:"id"`
	RoomID          uuid.UUID  `json:"room_id"`
	SenderID        *string    `json:"sender_id,omitempty"` // nil for system messages
	Content         *string    `json:"content,omitempty"`   // nil once deleted or when only attachments were sent
	Language        string     `json:"language,omitempty"`
	IsSystemMessage bool       `json:"is_system_message"`
	IsDeleted       bool       `json:"is_deleted"`
	EditedAt        *time.Time `json:"edited_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	// ClientRef is the temporary id a client attached to an optimistic send.
	ClientRef string `json:"client_ref,omitempty"`
}

func NewUserMessage(roomID uuid.UUID, senderID string, content *string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		RoomID:    roomID,
		SenderID:  &senderID,
		Content:   content,
		CreatedAt: at,
	}
}

func NewSystemMessage(roomID uuid.UUID, content string, at time.Time) Message {
	return Message{
		ID:              uuid.New(),
		RoomID:          roomID,
		Content:         &content,
		IsSystemMessage: true,
		CreatedAt:       at,
	}
}

// IsSentBy reports whether userID is the original sender.
func (m Message) IsSentBy(userID string) bool {
	return m.SenderID != nil && *m.SenderID == userID
}

func (m *Message) Edit(content, language string, at time.Time) {
	m.Content = &content
	m.Language = language
	m.EditedAt = &at
}

// SoftDelete clears the content but keeps identity and timestamps so the
// message keeps its position in the room.
func (m *Message) SoftDelete(at time.Time) {
	m.Content = nil
	m.Language = ""
	m.IsDeleted = true
	m.EditedAt = &at
}

// IsBlank reports whether content carries no visible text.
func IsBlank(content *string) bool {
	return content == nil || strings.TrimSpace(*content) == ""
}

type Reaction struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

type Attachment struct {
	ID          uuid.UUID `json:"id"`
	MessageID   uuid.UUID `json:"message_id"`
	StoragePath string    `json:"storage_path"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	FileSize    int64     `json:"file_size"`
}

// AttachmentRef points at an object that has already been uploaded.
type AttachmentRef struct {
	StoragePath string `json:"storage_path"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	FileSize    int64  `json:"file_size"`
}

type ReadReceipt struct {
	MessageID uuid.UUID `json:"message_id"`
	UserID    string    `json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}
