package policy

import (
	"context"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memberships map[string]domain.Membership

func (m memberships) GetMembership(_ context.Context, roomID uuid.UUID, userID string) (domain.Membership, error) {
	ms, ok := m[userID]
	if !ok || ms.RoomID != roomID {
		return domain.Membership{}, errors.ErrMembershipNotFound
	}
	return ms, nil
}

func TestPolicy_MembershipChecks(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	roomID := uuid.New()
	at := time.Now().UTC()
	departed := domain.NewMembership(roomID, "carol", domain.RoleMember, at)
	departed.Leave(at)
	p := New(memberships{
		"alice": domain.NewMembership(roomID, "alice", domain.RoleAdmin, at),
		"bob":   domain.NewMembership(roomID, "bob", domain.RoleMember, at),
		"carol": departed,
	})

	tests := []struct {
		user   string
		active bool
		admin  bool
	}{
		{"alice", true, true},
		{"bob", true, false},
		{"carol", false, false},
		{"dave", false, false},
	}
	for _, tt := range tests {
		active, err := p.IsActiveMember(ctx, roomID, tt.user)
		req.NoError(err)
		req.Equal(tt.active, active, tt.user)

		admin, err := p.IsRoomAdmin(ctx, roomID, tt.user)
		req.NoError(err)
		req.Equal(tt.admin, admin, tt.user)
	}
}

func TestPolicy_MessageCapabilities(t *testing.T) {
	req := require.New(t)
	content := "hello"
	msg := domain.NewUserMessage(uuid.New(), "alice", &content, time.Now().UTC())
	alice := auth.NewIdentity("alice", nil)
	bob := auth.NewIdentity("bob", nil)
	mod := auth.NewIdentity("mod", []string{auth.RoleModerator})

	req.True(CanEdit(alice, msg))
	req.False(CanEdit(bob, msg))
	req.False(CanEdit(mod, msg))

	req.True(CanDelete(alice, msg))
	req.False(CanDelete(bob, msg))
	req.True(CanDelete(mod, msg))

	msg.SoftDelete(time.Now().UTC())
	req.False(CanEdit(alice, msg))
}
