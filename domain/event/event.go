package event

import (
	"member-chat/domain"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	MessageInsertedKind Kind = "message_inserted"
	MessageUpdatedKind  Kind = "message_updated"
	PresenceChangedKind Kind = "presence_changed"
)

// ChangeEvent is a row mutation published on the change feed.
// Payloads are raw rows and must be hydrated before reaching a client.
type ChangeEvent interface {
	RoomID() uuid.UUID
	Kind() Kind
}

type MessageInserted struct {
	Row domain.Message
	At  time.Time
}

func (m MessageInserted) RoomID() uuid.UUID { return m.Row.RoomID }

func (m MessageInserted) Kind() Kind { return MessageInsertedKind }

type UpdateCause string

const (
	CauseEdited   UpdateCause = "edited"
	CauseDeleted  UpdateCause = "deleted"
	CauseReaction UpdateCause = "reaction"
	CauseRead     UpdateCause = "read"
)

type MessageUpdated struct {
	Row   domain.Message
	Cause UpdateCause
	At    time.Time
}

func (m MessageUpdated) RoomID() uuid.UUID { return m.Row.RoomID }

func (m MessageUpdated) Kind() Kind { return MessageUpdatedKind }

// Delivery is what a connected client receives: a hydrated message or the
// aggregated presence set of the room.
type Delivery struct {
	Kind     Kind                   `json:"kind"`
	RoomID   uuid.UUID              `json:"room_id"`
	Message  *domain.MessageView    `json:"message,omitempty"`
	Presence []domain.PresenceState `json:"presence,omitempty"`
}

func (d Delivery) MessageID() (uuid.UUID, bool) {
	if d.Message == nil {
		return uuid.Nil, false
	}
	return d.Message.Message.ID, true
}
