// Package presence keeps the ephemeral online/typing state of room members.
// Nothing here is persisted: state lives in memory and is rebuilt from the
// bus as clients publish.
package presence

import (
	"log/slog"
	"member-chat/domain"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// DefaultTypingTimeout clears a typing flag that was not refreshed.
const DefaultTypingTimeout = 3 * time.Second

// Update is one client publish on a room channel.
type Update struct {
	RoomID uuid.UUID            `json:"room_id"`
	State  domain.PresenceState `json:"state"`
}

// NotifyFunc receives the aggregated presence set of a room after it changed.
type NotifyFunc func(roomID uuid.UUID, states []domain.PresenceState)

type entry struct {
	state domain.PresenceState
	timer *time.Timer
}

// Tracker applies updates last-write-wins per (room, user): an update older
// than the stored one is dropped.
type Tracker struct {
	mu            sync.Mutex
	rooms         map[uuid.UUID]map[string]*entry
	typingTimeout time.Duration
	notify        NotifyFunc
	log           *slog.Logger
	now           func() time.Time
}

func NewTracker(typingTimeout time.Duration, notify NotifyFunc, log *slog.Logger) *Tracker {
	if typingTimeout <= 0 {
		typingTimeout = DefaultTypingTimeout
	}
	if notify == nil {
		notify = func(uuid.UUID, []domain.PresenceState) {}
	}
	return &Tracker{
		rooms:         make(map[uuid.UUID]map[string]*entry),
		typingTimeout: typingTimeout,
		notify:        notify,
		log:           log,
		now:           time.Now,
	}
}

// Apply records u and reports whether the room's presence set changed.
// An online update older than the stored state is dropped. Offline updates
// always apply: they remove the user from the set and leave a tombstone, so
// a late online update from before the disconnection stays dropped until
// the tombstone is pruned.
func (t *Tracker) Apply(u Update) bool {
	t.mu.Lock()
	room, ok := t.rooms[u.RoomID]
	if !ok {
		room = make(map[string]*entry)
		t.rooms[u.RoomID] = room
	}
	current, ok := room[u.State.UserID]
	if ok && u.State.Online && u.State.At.Before(current.state.At) {
		t.mu.Unlock()
		t.log.Debug("Dropping stale presence update", "room_id", u.RoomID, "user_id", u.State.UserID)
		return false
	}
	if !ok {
		current = &entry{}
		room[u.State.UserID] = current
	}
	changed := current.state.Online != u.State.Online || current.state.Typing != u.State.Typing
	state := u.State
	if !state.Online {
		state.Typing = false
		if state.At.Before(current.state.At) {
			state.At = current.state.At
		}
	}
	current.state = state
	if current.timer != nil {
		current.timer.Stop()
		current.timer = nil
	}
	roomID, userID, at := u.RoomID, state.UserID, state.At
	switch {
	case state.Typing:
		current.timer = time.AfterFunc(t.typingTimeout, func() { t.expireTyping(roomID, userID, at) })
	case !state.Online:
		current.timer = time.AfterFunc(t.typingTimeout, func() { t.prune(roomID, userID, at) })
	}
	snapshot := t.snapshotLocked(u.RoomID)
	t.mu.Unlock()

	if changed {
		t.notify(u.RoomID, snapshot)
	}
	return changed
}

// Snapshot returns the online members of a room sorted by user id.
func (t *Tracker) Snapshot(roomID uuid.UUID) []domain.PresenceState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(roomID)
}

// Size returns the number of rooms with at least one tracked user.
func (t *Tracker) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rooms)
}

// prune drops the tombstone of an offline user, and the room once empty.
func (t *Tracker) prune(roomID uuid.UUID, userID string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	room := t.rooms[roomID]
	current, ok := room[userID]
	if !ok || current.state.Online || !current.state.At.Equal(at) {
		return
	}
	delete(room, userID)
	if len(room) == 0 {
		delete(t.rooms, roomID)
	}
}

func (t *Tracker) expireTyping(roomID uuid.UUID, userID string, at time.Time) {
	t.mu.Lock()
	current, ok := t.rooms[roomID][userID]
	// A newer update replaced the one that armed this timer
	if !ok || !current.state.Typing || !current.state.At.Equal(at) {
		t.mu.Unlock()
		return
	}
	current.state.Typing = false
	current.timer = nil
	snapshot := t.snapshotLocked(roomID)
	t.mu.Unlock()

	t.log.Debug("Typing expired", "room_id", roomID, "user_id", userID)
	t.notify(roomID, snapshot)
}

func (t *Tracker) snapshotLocked(roomID uuid.UUID) []domain.PresenceState {
	states := lo.FilterMap(lo.Values(t.rooms[roomID]), func(e *entry, _ int) (domain.PresenceState, bool) {
		return e.state, e.state.Online
	})
	sort.Slice(states, func(i, j int) bool { return states[i].UserID < states[j].UserID })
	return states
}
