//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/domain"
	"member-chat/errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IRoomRepository interface {
	CreateRoom(ctx context.Context, room domain.Room, members []domain.Membership) error
	GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	UpdateRoom(ctx context.Context, room domain.Room) error
	GetMembership(ctx context.Context, roomID uuid.UUID, userID string) (domain.Membership, error)
	ListMembers(ctx context.Context, roomID uuid.UUID, activeOnly bool) ([]domain.Membership, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error)
	AddMembers(ctx context.Context, roomID uuid.UUID, userIDs []string, at time.Time, capacity int) ([]domain.Membership, error)
	MarkLeft(ctx context.Context, roomID uuid.UUID, userID string, at time.Time, keepAdmin bool) (*domain.Membership, error)
	TransferAdmin(ctx context.Context, roomID uuid.UUID, newAdminID string) error
}

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) *RoomRepository {
	return &RoomRepository{db: db, log: log}
}

func roomKey(roomID uuid.UUID) string { return "room:" + roomID.String() }

func memberPrefix(roomID uuid.UUID) string { return fmt.Sprintf("member:%s:", roomID) }

func memberKey(roomID uuid.UUID, userID string) string { return memberPrefix(roomID) + userID }

func userRoomKey(userID string, roomID uuid.UUID) string {
	return fmt.Sprintf("umember:%s:%s", userID, roomID)
}

// CreateRoom persists the room and all its initial memberships atomically.
func (r *RoomRepository) CreateRoom(ctx context.Context, room domain.Room, members []domain.Membership) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		if err := setJSON(txn, roomKey(room.ID), room); err != nil {
			return err
		}
		for _, m := range members {
			if err := putMembership(txn, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RoomRepository) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	var room domain.Room
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		return getRoom(txn, roomID, &room)
	})
	return room, err
}

func (r *RoomRepository) UpdateRoom(ctx context.Context, room domain.Room) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		var stored domain.Room
		if err := getRoom(txn, room.ID, &stored); err != nil {
			return err
		}
		return setJSON(txn, roomKey(room.ID), room)
	})
}

func (r *RoomRepository) GetMembership(ctx context.Context, roomID uuid.UUID, userID string) (domain.Membership, error) {
	var m domain.Membership
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		err := getJSON(txn, memberKey(roomID, userID), &m)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrMembershipNotFound
		}
		return err
	})
	return m, err
}

func (r *RoomRepository) ListMembers(ctx context.Context, roomID uuid.UUID, activeOnly bool) ([]domain.Membership, error) {
	var members []domain.Membership
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		all, err := scanJSON[domain.Membership](txn, memberPrefix(roomID))
		if err != nil {
			return err
		}
		members = all
		return nil
	})
	if err != nil {
		return nil, err
	}
	if activeOnly {
		members = lo.Filter(members, func(m domain.Membership, _ int) bool { return m.IsActive() })
	}
	sortByJoin(members)
	return members, nil
}

// ListRoomsForUser returns the rooms where userID holds an active membership,
// most recently updated first.
func (r *RoomRepository) ListRoomsForUser(ctx context.Context, userID string) ([]domain.Room, error) {
	var rooms []domain.Room
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		rooms = nil
		for _, suffix := range scanKeys(txn, "umember:"+userID+":") {
			roomID, err := uuid.Parse(suffix)
			if err != nil {
				r.log.Warn("Skipping malformed room index", "user_id", userID, "suffix", suffix)
				continue
			}
			var m domain.Membership
			if err := getJSON(txn, memberKey(roomID, userID), &m); err != nil {
				return err
			}
			if !m.IsActive() {
				continue
			}
			var room domain.Room
			if err := getRoom(txn, roomID, &room); err != nil {
				return err
			}
			rooms = append(rooms, room)
		}
		return nil
	})
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms, err
}

// AddMembers activates userIDs in the room, all or nothing.
// Already active users are skipped, departed ones start a new stint.
// It fails with ErrCapacity when the active count would exceed capacity.
func (r *RoomRepository) AddMembers(ctx context.Context, roomID uuid.UUID, userIDs []string, at time.Time, capacity int) ([]domain.Membership, error) {
	var added []domain.Membership
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		added = nil
		var room domain.Room
		if err := getRoom(txn, roomID, &room); err != nil {
			return err
		}
		existing, err := scanJSON[domain.Membership](txn, memberPrefix(roomID))
		if err != nil {
			return err
		}
		byUser := lo.KeyBy(existing, func(m domain.Membership) string { return m.UserID })
		active := lo.CountBy(existing, func(m domain.Membership) bool { return m.IsActive() })

		for _, userID := range lo.Uniq(userIDs) {
			m, ok := byUser[userID]
			switch {
			case ok && m.IsActive():
				continue
			case ok:
				m.Rejoin(at)
			default:
				m = domain.NewMembership(roomID, userID, domain.RoleMember, at)
			}
			added = append(added, m)
		}

		if active+len(added) > capacity {
			return fmt.Errorf("%w: %d active, %d invited, limit is %d", errors.ErrCapacity, active, len(added), capacity)
		}
		for _, m := range added {
			if err := putMembership(txn, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// MarkLeft ends the user's active stint. When keepAdmin is set and the
// departing user was the admin, the longest-standing remaining member is
// promoted in the same transaction and returned.
func (r *RoomRepository) MarkLeft(ctx context.Context, roomID uuid.UUID, userID string, at time.Time, keepAdmin bool) (*domain.Membership, error) {
	var promoted *domain.Membership
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		promoted = nil
		members, err := scanJSON[domain.Membership](txn, memberPrefix(roomID))
		if err != nil {
			return err
		}
		i := lo.IndexOf(lo.Map(members, func(m domain.Membership, _ int) string { return m.UserID }), userID)
		if i < 0 {
			return errors.ErrMembershipNotFound
		}
		leaving := members[i]
		if !leaving.IsActive() {
			return nil
		}
		wasAdmin := leaving.IsAdmin()
		leaving.Leave(at)
		if err := setJSON(txn, memberKey(roomID, userID), leaving); err != nil {
			return err
		}
		if !wasAdmin || !keepAdmin {
			return nil
		}

		remaining := lo.Filter(members, func(m domain.Membership, _ int) bool {
			return m.IsActive() && m.UserID != userID
		})
		if len(remaining) == 0 {
			return nil
		}
		sortByJoin(remaining)
		next := remaining[0]
		next.Role = domain.RoleAdmin
		promoted = &next
		return setJSON(txn, memberKey(roomID, next.UserID), next)
	})
	return promoted, err
}

// TransferAdmin demotes every current admin and promotes newAdminID in a
// single transaction, so the room is never observed with zero or two admins.
func (r *RoomRepository) TransferAdmin(ctx context.Context, roomID uuid.UUID, newAdminID string) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		members, err := scanJSON[domain.Membership](txn, memberPrefix(roomID))
		if err != nil {
			return err
		}
		target, ok := lo.Find(members, func(m domain.Membership) bool { return m.UserID == newAdminID })
		if !ok || !target.IsActive() {
			return errors.ErrNotAMember
		}
		for _, m := range members {
			if m.UserID == newAdminID || !m.IsAdmin() {
				continue
			}
			m.Role = domain.RoleMember
			if err := setJSON(txn, memberKey(roomID, m.UserID), m); err != nil {
				return err
			}
		}
		target.Role = domain.RoleAdmin
		return setJSON(txn, memberKey(roomID, newAdminID), target)
	})
}

func getRoom(txn *badger.Txn, roomID uuid.UUID, room *domain.Room) error {
	err := getJSON(txn, roomKey(roomID), room)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrRoomNotFound
	}
	return err
}

func putMembership(txn *badger.Txn, m domain.Membership) error {
	if err := setJSON(txn, memberKey(m.RoomID, m.UserID), m); err != nil {
		return err
	}
	return txn.Set([]byte(userRoomKey(m.UserID, m.RoomID)), nil)
}

func sortByJoin(members []domain.Membership) {
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].JoinedAt.Before(members[j].JoinedAt)
		}
		return members[i].UserID < members[j].UserID
	})
}
