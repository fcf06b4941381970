package auth

import (
	"context"
	"member-chat/errors"
	"slices"
)

const RoleModerator = "moderator"

// Identity is the authenticated caller of a chat operation. It is passed
// explicitly to every service call.
type Identity struct {
	UserID    string
	Roles     []string
	Moderator bool
}

func NewIdentity(userID string, roles []string) Identity {
	return Identity{
		UserID:    userID,
		Roles:     roles,
		Moderator: slices.Contains(roles, RoleModerator),
	}
}

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the identity injected by the interceptors.
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, errors.ErrMissingIdentity
	}
	return id, nil
}
