package repositories

import (
	"context"
	"log/slog"
	"member-chat/domain"
	"member-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

// ProfileRepository resolves user ids to display names. Users without a
// stored profile are shown under their id.
type ProfileRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewProfileRepository(db *badger.DB, log *slog.Logger) *ProfileRepository {
	return &ProfileRepository{db: db, log: log}
}

func profileKey(userID string) string { return "profile:" + userID }

func (r *ProfileRepository) PutProfile(ctx context.Context, sender domain.Sender) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		return setJSON(txn, profileKey(sender.ID), sender)
	})
}

func (r *ProfileRepository) Lookup(ctx context.Context, userID string) (domain.Sender, error) {
	sender := domain.Sender{ID: userID, DisplayName: userID}
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		err := getJSON(txn, profileKey(userID), &sender)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	return sender, err
}
