package domain

import (
	"github.com/google/uuid"
)

type CreateGroupCommand struct {
	Name      string   `validate:"required,max=100"`
	MemberIDs []string `validate:"dive,required,excludes=:"`
}

type SendMessageCommand struct {
	RoomID      uuid.UUID
	Content     *string
	Attachments []AttachmentRef `validate:"dive"`
	// ClientRef echoes the temporary id of an optimistic send.
	ClientRef string `validate:"max=64"`
}

type ReportCommand struct {
	ReportedMessageID *uuid.UUID
	ReportedUserID    *string        `validate:"omitempty,min=1,excludes=:"`
	Category          ReportCategory `validate:"required,oneof=spam harassment hate nudity violence other"`
	FreeText          string         `validate:"max=1000"`
}

type UploadCommand struct {
	RoomID       uuid.UUID
	FileName     string `validate:"required,max=255"`
	DeclaredType string
	Content      []byte `validate:"required"`
}

type PresenceCommand struct {
	RoomID uuid.UUID
	Typing bool
}
