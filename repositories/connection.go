package repositories

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// ConnectionRepository is the local connection graph. Connections are
// mutual, so a pair is stored once under its ordered form.
type ConnectionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConnectionRepository(db *badger.DB, log *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, log: log}
}

func connectionKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return fmt.Sprintf("conn:%s:%s", a, b)
}

func (r *ConnectionRepository) Connect(ctx context.Context, a, b string) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		return txn.Set([]byte(connectionKey(a, b)), nil)
	})
}

func (r *ConnectionRepository) Disconnect(ctx context.Context, a, b string) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		return txn.Delete([]byte(connectionKey(a, b)))
	})
}

func (r *ConnectionRepository) AreConnected(ctx context.Context, a, b string) (bool, error) {
	var connected bool
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		var err error
		connected, err = exists(txn, connectionKey(a, b))
		return err
	})
	return connected, err
}
