// Package projection builds the client-held timeline of one room from
// listings and realtime deliveries.
// Handles ordering, deduplication, and optimistic overlays.
// Does not emit events or interact with UI directly.
package projection

import (
	"member-chat/domain"
	"member-chat/domain/event"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type PendingKind string

const (
	PendingSend   PendingKind = "send"
	PendingEdit   PendingKind = "edit"
	PendingDelete PendingKind = "delete"
	PendingReact  PendingKind = "react"
)

// PendingOp is a mutation shown before the server confirmed it.
type PendingOp struct {
	Kind      PendingKind
	MessageID uuid.UUID // target of edit, delete and react
	Content   *string
	Emoji     string
	At        time.Time
}

// Entry is one rendered line of the timeline.
type Entry struct {
	View    domain.MessageView
	Pending bool
	TempID  string // set on pending sends only
}

// Timeline keeps authoritative messages sorted by (created_at, id) and an
// overlay of pending operations keyed by the temporary id the client chose.
// Applying the same delivery twice is a no-op, and an authoritative message
// carrying a pending send's ClientRef replaces it so it is never shown twice.
type Timeline struct {
	mu         sync.RWMutex
	Owner      string
	RoomID     uuid.UUID
	messages   []domain.MessageView
	pending    map[string]PendingOp
	order      []string // pending temp ids in insertion order
	presence   []domain.PresenceState
	generation Generation
}

func NewTimeline(owner string, roomID uuid.UUID) *Timeline {
	return &Timeline{Owner: owner, RoomID: roomID, pending: make(map[string]PendingOp)}
}

// BeginLoad tags a listing request. Only the response of the latest tag is
// applied by Load.
func (t *Timeline) BeginLoad() uint64 {
	return t.generation.Next()
}

// Load merges a listing page. It reports false when a newer listing was
// started after tag, in which case the page is discarded.
func (t *Timeline) Load(tag uint64, page []domain.MessageView) bool {
	if !t.generation.IsCurrent(tag) {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, view := range page {
		t.upsertLocked(view)
	}
	return true
}

// Apply merges one realtime delivery and reports whether the timeline changed.
func (t *Timeline) Apply(d event.Delivery) bool {
	if d.RoomID != t.RoomID {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if d.Kind == event.PresenceChangedKind {
		t.presence = d.Presence
		return true
	}
	if d.Message == nil {
		return false
	}
	return t.upsertLocked(*d.Message)
}

// AddPending shows op immediately. tempID must be unique per client.
func (t *Timeline) AddPending(tempID string, op PendingOp) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.pending[tempID]; !exists {
		t.order = append(t.order, tempID)
	}
	t.pending[tempID] = op
}

// Resolve drops the overlay of tempID, once the server answered (success or
// failure). Resolving twice is harmless.
func (t *Timeline) Resolve(tempID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolveLocked(tempID)
}

// Messages renders authoritative messages with pending operations applied,
// pending sends last.
func (t *Timeline) Messages() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := lo.Map(t.messages, func(view domain.MessageView, _ int) Entry {
		return Entry{View: cloneView(view)}
	})
	index := make(map[uuid.UUID]int, len(entries))
	for i, e := range entries {
		index[e.View.Message.ID] = i
	}

	for _, tempID := range t.order {
		op := t.pending[tempID]
		if op.Kind == PendingSend {
			entries = append(entries, Entry{
				View: domain.MessageView{
					Message: domain.Message{
						RoomID:    t.RoomID,
						SenderID:  lo.ToPtr(t.Owner),
						Content:   op.Content,
						CreatedAt: op.At,
						ClientRef: tempID,
					},
					Reactions:   []domain.ReactionTally{},
					Attachments: []domain.AttachmentView{},
				},
				Pending: true,
				TempID:  tempID,
			})
			continue
		}
		i, ok := index[op.MessageID]
		if !ok {
			continue
		}
		entry := &entries[i]
		entry.Pending = true
		switch op.Kind {
		case PendingEdit:
			entry.View.Message.Content = op.Content
		case PendingDelete:
			entry.View.Message.Content = nil
			entry.View.Message.IsDeleted = true
		case PendingReact:
			entry.View.Reactions = toggleTally(entry.View.Reactions, op.Emoji)
		}
	}
	return entries
}

// Presence returns the last presence set received for the room.
func (t *Timeline) Presence() []domain.PresenceState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.presence
}

func (t *Timeline) upsertLocked(view domain.MessageView) bool {
	if view.Message.ClientRef != "" {
		if op, ok := t.pending[view.Message.ClientRef]; ok && op.Kind == PendingSend {
			t.resolveLocked(view.Message.ClientRef)
		}
	}

	i := sort.Search(len(t.messages), func(i int) bool {
		return !t.messages[i].Message.Before(view.Message)
	})
	if i < len(t.messages) && t.messages[i].Message.ID == view.Message.ID {
		t.messages[i] = view
		return true
	}
	t.messages = append(t.messages, domain.MessageView{})
	copy(t.messages[i+1:], t.messages[i:])
	t.messages[i] = view
	return true
}

func (t *Timeline) resolveLocked(tempID string) {
	if _, ok := t.pending[tempID]; !ok {
		return
	}
	delete(t.pending, tempID)
	t.order = lo.Without(t.order, tempID)
}

func cloneView(view domain.MessageView) domain.MessageView {
	view.Reactions = append([]domain.ReactionTally{}, view.Reactions...)
	view.Attachments = append([]domain.AttachmentView{}, view.Attachments...)
	return view
}

// toggleTally flips the viewer's own reaction, the way the server will.
func toggleTally(tallies []domain.ReactionTally, emoji string) []domain.ReactionTally {
	for i, tally := range tallies {
		if tally.Emoji != emoji {
			continue
		}
		if tally.ReactedByMe {
			tally.Count--
			tally.ReactedByMe = false
		} else {
			tally.Count++
			tally.ReactedByMe = true
		}
		if tally.Count == 0 {
			return append(tallies[:i:i], tallies[i+1:]...)
		}
		tallies[i] = tally
		return tallies
	}
	return append(tallies, domain.ReactionTally{Emoji: emoji, Count: 1, ReactedByMe: true})
}
