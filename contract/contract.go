//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"member-chat/domain"
	"member-chat/domain/event"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need for
// manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives hydrated deliveries for one connected client.
type EventSink interface {
	Consume(ctx context.Context, d event.Delivery) error
}

// Subscriber is one open realtime connection to a room.
type Subscriber struct {
	ConnectionID string
	UserID       string
	RoomID       uuid.UUID
	Sink         EventSink
}

type IRegistry interface {
	SubscribersForRoom(roomID uuid.UUID) []Subscriber
	Subscribe(sub Subscriber)
	Unsubscribe(connectionID string)
	// UnsubscribeUser drops every connection userID holds on roomID and
	// returns them.
	UnsubscribeUser(roomID uuid.UUID, userID string) []Subscriber
}

// ChangePublisher is the write side of the change feed.
type ChangePublisher interface {
	Publish(ctx context.Context, e event.ChangeEvent) error
}

// ConnectionGraph answers whether two users are mutual connections.
type ConnectionGraph interface {
	AreConnected(ctx context.Context, a, b string) (bool, error)
}

// ObjectStore holds attachment bytes. Objects are immutable once written.
type ObjectStore interface {
	PutObject(ctx context.Context, path string, data []byte, contentType string) error
	SignedURL(path string, ttl time.Duration) (string, error)
	// StatObject returns the stored content type and size of path, or
	// ErrNotFound when nothing was uploaded there.
	StatObject(ctx context.Context, path string) (contentType string, size int64, err error)
}

// Directory resolves a user id into the identity shown next to messages.
type Directory interface {
	Lookup(ctx context.Context, userID string) (domain.Sender, error)
}

// Hydrator turns a raw change event into a message every member can render.
type Hydrator interface {
	Hydrate(ctx context.Context, e event.ChangeEvent) (domain.HydratedMessage, error)
}
