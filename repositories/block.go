//go:generate go run go.uber.org/mock/mockgen -source=block.go -destination=../mocks/mock_block_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/domain"

	"github.com/dgraph-io/badger/v4"
)

type IBlockRepository interface {
	Block(ctx context.Context, block domain.Block) error
	Unblock(ctx context.Context, blockerID, blockedID string) error
	IsBlockedPair(ctx context.Context, a, b string) (bool, error)
	BlockedWith(ctx context.Context, userID string) (map[string]bool, error)
}

// BlockRepository stores directional blocks. Each block is written twice,
// under "block:{blocker}:{blocked}" and "blockrev:{blocked}:{blocker}", so
// both sides of a user's blocked pairs are a prefix scan away.
type BlockRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBlockRepository(db *badger.DB, log *slog.Logger) *BlockRepository {
	return &BlockRepository{db: db, log: log}
}

func blockKey(blocker, blocked string) string { return fmt.Sprintf("block:%s:%s", blocker, blocked) }

func blockReverseKey(blocker, blocked string) string {
	return fmt.Sprintf("blockrev:%s:%s", blocked, blocker)
}

// Block is idempotent: blocking twice keeps the first creation date.
func (r *BlockRepository) Block(ctx context.Context, block domain.Block) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		found, err := exists(txn, blockKey(block.BlockerID, block.BlockedID))
		if err != nil || found {
			return err
		}
		if err := setJSON(txn, blockKey(block.BlockerID, block.BlockedID), block); err != nil {
			return err
		}
		return txn.Set([]byte(blockReverseKey(block.BlockerID, block.BlockedID)), nil)
	})
}

// Unblock removes only the blocker's own row. A block in the other direction
// stays in place.
func (r *BlockRepository) Unblock(ctx context.Context, blockerID, blockedID string) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(blockKey(blockerID, blockedID))); err != nil {
			return err
		}
		return txn.Delete([]byte(blockReverseKey(blockerID, blockedID)))
	})
}

func (r *BlockRepository) IsBlockedPair(ctx context.Context, a, b string) (bool, error) {
	var blocked bool
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		for _, key := range []string{blockKey(a, b), blockKey(b, a)} {
			found, err := exists(txn, key)
			if err != nil {
				return err
			}
			if found {
				blocked = true
				return nil
			}
		}
		return nil
	})
	return blocked, err
}

// BlockedWith returns every user sharing a blocked pair with userID,
// whichever side created the block.
func (r *BlockRepository) BlockedWith(ctx context.Context, userID string) (map[string]bool, error) {
	users := make(map[string]bool)
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		for _, other := range scanKeys(txn, fmt.Sprintf("block:%s:", userID)) {
			users[other] = true
		}
		for _, other := range scanKeys(txn, fmt.Sprintf("blockrev:%s:", userID)) {
			users[other] = true
		}
		return nil
	})
	return users, err
}
