//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/domain"
	"member-chat/errors"
	"regexp"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	StoreMessage(ctx context.Context, message domain.Message, attachments []domain.Attachment) error
	GetMessage(ctx context.Context, messageID uuid.UUID) (domain.Message, error)
	UpdateMessage(ctx context.Context, message domain.Message) error
	GetMessages(ctx context.Context, roomID uuid.UUID, cursor *string, limit int) ([]domain.Message, *string, error)
	LastMessage(ctx context.Context, roomID uuid.UUID) (*domain.Message, error)
	ToggleReaction(ctx context.Context, reaction domain.Reaction) (bool, error)
	UpsertReceipt(ctx context.Context, receipt domain.ReadReceipt) error
	ListAttachments(ctx context.Context, messageID uuid.UUID) ([]domain.Attachment, error)
	Details(ctx context.Context, messageID uuid.UUID) (MessageDetails, error)
}

// MessageDetails groups the rows hanging off a message.
type MessageDetails struct {
	Reactions   []domain.Reaction
	Attachments []domain.Attachment
	Receipts    []domain.ReadReceipt
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

var cursorPattern = regexp.MustCompile(`^\d{19}:[0-9a-f-]{36}$`)

func messagePrefix(roomID uuid.UUID) string { return fmt.Sprintf("msg:%s:", roomID) }

// messageKey is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" so a
// prefix scan returns a room in (created_at, id) order. The 19 digit padding
// keeps lexicographical and chronological order aligned.
func messageKey(m domain.Message) string {
	return fmt.Sprintf("%s%019d:%s", messagePrefix(m.RoomID), m.CreatedAt.UnixNano(), m.ID)
}

func messageIndexKey(id uuid.UUID) string { return "msgidx:" + id.String() }

func reactionPrefix(id uuid.UUID) string { return fmt.Sprintf("react:%s:", id) }

func attachmentPrefix(id uuid.UUID) string { return fmt.Sprintf("att:%s:", id) }

func receiptPrefix(id uuid.UUID) string { return fmt.Sprintf("read:%s:", id) }

// StoreMessage persists a message and its attachment rows in one transaction.
func (m *MessageRepository) StoreMessage(ctx context.Context, message domain.Message, attachments []domain.Attachment) error {
	key := messageKey(message)
	return update(ctx, m.db, func(txn *badger.Txn) error {
		if err := setJSON(txn, key, message); err != nil {
			return err
		}
		if err := txn.Set([]byte(messageIndexKey(message.ID)), []byte(key)); err != nil {
			return err
		}
		for _, a := range attachments {
			if err := setJSON(txn, attachmentPrefix(message.ID)+a.ID.String(), a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *MessageRepository) GetMessage(ctx context.Context, messageID uuid.UUID) (domain.Message, error) {
	var msg domain.Message
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		key, err := lookupMessageKey(txn, messageID)
		if err != nil {
			return err
		}
		return getJSON(txn, key, &msg)
	})
	return msg, err
}

// UpdateMessage rewrites a message in place. The key never changes, so edits
// and deletions keep the message at its original position.
func (m *MessageRepository) UpdateMessage(ctx context.Context, message domain.Message) error {
	return update(ctx, m.db, func(txn *badger.Txn) error {
		key, err := lookupMessageKey(txn, message.ID)
		if err != nil {
			return err
		}
		return setJSON(txn, key, message)
	})
}

// GetMessages returns one page of a room. Without cursor the page holds the
// newest messages; with a cursor, the messages right before it. Each page is
// ascending. The returned cursor is nil once the oldest message was reached.
func (m *MessageRepository) GetMessages(ctx context.Context, roomID uuid.UUID, cursor *string, limit int) ([]domain.Message, *string, error) {
	if cursor != nil && !cursorPattern.MatchString(*cursor) {
		return nil, nil, errors.ErrInvalidCursor
	}
	if limit <= 0 {
		return nil, nil, fmt.Errorf("%w: limit must be positive", errors.ErrValidation)
	}

	var messages []domain.Message
	var suffixes []string
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(roomID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			seekKey = append(append([]byte{}, prefix...), 0xff)
		default:
			seekKey = append(append([]byte{}, prefix...), []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		// One extra row tells whether an older page exists.
		for ; it.ValidForPrefix(prefix) && len(messages) <= limit; it.Next() {
			item := it.Item()
			var msg domain.Message
			if err := item.Value(func(val []byte) error { return unmarshal(val, &msg) }); err != nil {
				return err
			}
			messages = append(messages, msg)
			suffixes = append(suffixes, string(item.KeyCopy(nil)[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(messages) > limit {
		messages = messages[:limit]
		next = lo.ToPtr(suffixes[limit-1])
		m.log.Debug(fmt.Sprintf("Maximum of %d message reached", limit), "room_id", roomID)
	}
	return lo.Reverse(messages), next, nil
}

func (m *MessageRepository) LastMessage(ctx context.Context, roomID uuid.UUID) (*domain.Message, error) {
	messages, _, err := m.GetMessages(ctx, roomID, nil, 1)
	if err != nil || len(messages) == 0 {
		return nil, err
	}
	return &messages[0], nil
}

// ToggleReaction adds the reaction, or removes it when the same user already
// reacted with the same emoji. It reports whether the reaction is now present.
func (m *MessageRepository) ToggleReaction(ctx context.Context, reaction domain.Reaction) (bool, error) {
	key := fmt.Sprintf("%s%s:%s", reactionPrefix(reaction.MessageID), reaction.UserID, reaction.Emoji)
	var added bool
	err := update(ctx, m.db, func(txn *badger.Txn) error {
		found, err := exists(txn, key)
		if err != nil {
			return err
		}
		added = !found
		if found {
			return txn.Delete([]byte(key))
		}
		return setJSON(txn, key, reaction)
	})
	return added, err
}

// UpsertReceipt records that the user read the message. One row per
// (message, user) pair; a later read overwrites the date.
func (m *MessageRepository) UpsertReceipt(ctx context.Context, receipt domain.ReadReceipt) error {
	return update(ctx, m.db, func(txn *badger.Txn) error {
		return setJSON(txn, receiptPrefix(receipt.MessageID)+receipt.UserID, receipt)
	})
}

func (m *MessageRepository) ListAttachments(ctx context.Context, messageID uuid.UUID) ([]domain.Attachment, error) {
	var attachments []domain.Attachment
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		var err error
		attachments, err = scanJSON[domain.Attachment](txn, attachmentPrefix(messageID))
		return err
	})
	return attachments, err
}

// Details loads reactions, attachments and receipts of a message in one read.
func (m *MessageRepository) Details(ctx context.Context, messageID uuid.UUID) (MessageDetails, error) {
	var details MessageDetails
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		var err error
		if details.Reactions, err = scanJSON[domain.Reaction](txn, reactionPrefix(messageID)); err != nil {
			return err
		}
		if details.Attachments, err = scanJSON[domain.Attachment](txn, attachmentPrefix(messageID)); err != nil {
			return err
		}
		details.Receipts, err = scanJSON[domain.ReadReceipt](txn, receiptPrefix(messageID))
		return err
	})
	return details, err
}

func lookupMessageKey(txn *badger.Txn, id uuid.UUID) (string, error) {
	item, err := txn.Get([]byte(messageIndexKey(id)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", errors.ErrMessageNotFound
	}
	if err != nil {
		return "", err
	}
	key, err := item.ValueCopy(nil)
	return string(key), err
}
