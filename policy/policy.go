// Package policy centralises the capability checks of the chat core.
// Checks answer yes or no; call sites decide which error to report.
package policy

import (
	"context"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/errors"

	"github.com/google/uuid"
)

// MembershipReader is the slice of the room repository the checks need.
type MembershipReader interface {
	GetMembership(ctx context.Context, roomID uuid.UUID, userID string) (domain.Membership, error)
}

type Policy struct {
	memberships MembershipReader
}

func New(memberships MembershipReader) Policy {
	return Policy{memberships: memberships}
}

// IsActiveMember reports whether userID currently belongs to the room.
// A missing membership is a "no", not an error.
func (p Policy) IsActiveMember(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	m, err := p.membership(ctx, roomID, userID)
	if err != nil || m == nil {
		return false, err
	}
	return m.IsActive(), nil
}

// IsRoomAdmin reports whether userID is the active admin of the room.
func (p Policy) IsRoomAdmin(ctx context.Context, roomID uuid.UUID, userID string) (bool, error) {
	m, err := p.membership(ctx, roomID, userID)
	if err != nil || m == nil {
		return false, err
	}
	return m.IsAdmin(), nil
}

func (p Policy) membership(ctx context.Context, roomID uuid.UUID, userID string) (*domain.Membership, error) {
	m, err := p.memberships.GetMembership(ctx, roomID, userID)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CanModerate reports whether the caller holds the moderator capability.
func CanModerate(id auth.Identity) bool {
	return id.Moderator
}

// IsSender reports whether the caller wrote the message.
func IsSender(msg domain.Message, userID string) bool {
	return msg.IsSentBy(userID)
}

// CanDelete allows the original sender or a moderator.
func CanDelete(id auth.Identity, msg domain.Message) bool {
	return IsSender(msg, id.UserID) || CanModerate(id)
}

// CanEdit allows only the original sender on a message still visible.
func CanEdit(id auth.Identity, msg domain.Message) bool {
	return IsSender(msg, id.UserID) && !msg.IsDeleted
}
