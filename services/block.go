package services

import (
	"context"
	"log/slog"
	"member-chat/auth"
	"member-chat/domain"
	"member-chat/errors"
	"member-chat/repositories"
)

type BlockService struct {
	blocks repositories.IBlockRepository
	log    *slog.Logger
}

func NewBlockService(blocks repositories.IBlockRepository, log *slog.Logger) *BlockService {
	return &BlockService{blocks: blocks, log: log}
}

// Block is idempotent.
func (s *BlockService) Block(ctx context.Context, id auth.Identity, blockedID string) error {
	if err := ValidateUserIDs(blockedID); err != nil {
		return err
	}
	if blockedID == id.UserID {
		return errors.ErrSelfAction
	}
	if err := s.blocks.Block(ctx, domain.Block{BlockerID: id.UserID, BlockedID: blockedID, CreatedAt: now()}); err != nil {
		return err
	}
	s.log.Debug("User blocked", "blocker", id.UserID, "blocked", blockedID)
	return nil
}

// Unblock removes the caller's own block only. A block placed by the other
// user stays in force.
func (s *BlockService) Unblock(ctx context.Context, id auth.Identity, blockedID string) error {
	if err := ValidateUserIDs(blockedID); err != nil {
		return err
	}
	return s.blocks.Unblock(ctx, id.UserID, blockedID)
}

func (s *BlockService) IsBlockedPair(ctx context.Context, a, b string) (bool, error) {
	return s.blocks.IsBlockedPair(ctx, a, b)
}
