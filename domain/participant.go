// Package domain contains core concepts of the chat system.
// This file defines Membership entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserIDSeparator separates the segments of storage keys built from user ids,
// so a user id never contains it.
const UserIDSeparator = ":"

// ValidUserID reports whether id can name a user.
func ValidUserID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, UserIDSeparator)
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership is a user's participation record in a room.
// A nil LeftAt means the membership is active; once set it is terminal
// until an admin invites the user again.
type Membership struct {
	RoomID   uuid.UUID  `json:"room_id"`
	UserID   string     `json:"user_id"`
	Role     Role       `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
}

func NewMembership(roomID uuid.UUID, userID string, role Role, at time.Time) Membership {
	return Membership{RoomID: roomID, UserID: userID, Role: role, JoinedAt: at}
}

func (m Membership) IsActive() bool { return m.LeftAt == nil }

func (m Membership) IsAdmin() bool { return m.IsActive() && m.Role == RoleAdmin }

// Leave marks the membership as departed. Leaving twice keeps the first date.
func (m *Membership) Leave(at time.Time) {
	if m.LeftAt != nil {
		return
	}
	m.LeftAt = &at
	m.Role = RoleMember
}

// Rejoin starts a new active stint on an existing membership row.
func (m *Membership) Rejoin(at time.Time) {
	m.LeftAt = nil
	m.Role = RoleMember
	m.JoinedAt = at
}
