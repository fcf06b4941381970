package services

import (
	"context"
	"member-chat/errors"
	"member-chat/policy"
	"time"

	"github.com/google/uuid"
)

func now() time.Time {
	return time.Now().UTC()
}

func requireMember(ctx context.Context, p policy.Policy, roomID uuid.UUID, userID string) error {
	ok, err := p.IsActiveMember(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotAMember
	}
	return nil
}

func requireAdmin(ctx context.Context, p policy.Policy, roomID uuid.UUID, userID string) error {
	ok, err := p.IsRoomAdmin(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotRoomAdmin
	}
	return nil
}
