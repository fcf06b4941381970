package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomType string

const (
	DirectRoom RoomType = "dm"
	GroupRoom  RoomType = "group"
)

// MaxGroupSize is the maximum number of active memberships in a group room.
const MaxGroupSize = 100

type Room struct {
	ID        uuid.UUID `json:"id"`
	Type      RoomType  `json:"type"`
	Name      *string   `json:"name,omitempty"` // always nil for dm rooms
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewDirectRoom(createdBy string, at time.Time) Room {
	return Room{
		ID:        uuid.New(),
		Type:      DirectRoom,
		CreatedBy: createdBy,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func NewGroupRoom(createdBy, name string, at time.Time) Room {
	return Room{
		ID:        uuid.New(),
		Type:      GroupRoom,
		Name:      &name,
		CreatedBy: createdBy,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (r Room) IsDirect() bool { return r.Type == DirectRoom }

func (r Room) IsGroup() bool { return r.Type == GroupRoom }

// RoomSummary is one entry of a member's room list.
type RoomSummary struct {
	Room        Room
	Members     []Membership // active memberships only
	LastMessage *Message
}
