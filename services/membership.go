package services

import (
	"context"
	"fmt"
	"log/slog"
	"member-chat/auth"
	"member-chat/contract"
	"member-chat/domain"
	"member-chat/errors"
	"member-chat/policy"
	"member-chat/presence"
	"member-chat/repositories"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const maxRoomNameLength = 100

// MembershipService owns rooms and who belongs to them. Every mutation
// leaves a system message in the room.
type MembershipService struct {
	rooms    repositories.IRoomRepository
	blocks   repositories.IBlockRepository
	messages repositories.IMessageRepository
	graph    contract.ConnectionGraph
	policy   policy.Policy
	system   *MessageService
	registry contract.IRegistry
	bus      presence.Bus
	log      *slog.Logger
}

func NewMembershipService(
	rooms repositories.IRoomRepository,
	blocks repositories.IBlockRepository,
	messages repositories.IMessageRepository,
	graph contract.ConnectionGraph,
	system *MessageService,
	registry contract.IRegistry,
	bus presence.Bus,
	log *slog.Logger,
) *MembershipService {
	return &MembershipService{
		rooms:    rooms,
		blocks:   blocks,
		messages: messages,
		graph:    graph,
		policy:   policy.New(rooms),
		system:   system,
		registry: registry,
		bus:      bus,
		log:      log,
	}
}

// CreateDirectRoom opens a dm between the caller and otherID. Two dm rooms
// for the same pair may coexist.
func (s *MembershipService) CreateDirectRoom(ctx context.Context, id auth.Identity, otherID string) (domain.Room, error) {
	if err := ValidateUserIDs(otherID); err != nil {
		return domain.Room{}, err
	}
	if otherID == id.UserID {
		return domain.Room{}, errors.ErrSelfAction
	}
	blocked, err := s.blocks.IsBlockedPair(ctx, id.UserID, otherID)
	if err != nil {
		return domain.Room{}, err
	}
	if blocked {
		return domain.Room{}, errors.ErrBlocked
	}
	connected, err := s.graph.AreConnected(ctx, id.UserID, otherID)
	if err != nil {
		return domain.Room{}, err
	}
	if !connected {
		return domain.Room{}, errors.ErrNotConnected
	}

	at := now()
	room := domain.NewDirectRoom(id.UserID, at)
	members := []domain.Membership{
		domain.NewMembership(room.ID, id.UserID, domain.RoleAdmin, at),
		domain.NewMembership(room.ID, otherID, domain.RoleMember, at),
	}
	if err := s.rooms.CreateRoom(ctx, room, members); err != nil {
		return domain.Room{}, err
	}
	s.log.Debug("Direct room created", "room_id", room.ID, "created_by", id.UserID)
	s.postSystem(ctx, room.ID, fmt.Sprintf("%s started the conversation", id.UserID))
	return room, nil
}

func (s *MembershipService) CreateGroupRoom(ctx context.Context, id auth.Identity, cmd domain.CreateGroupCommand) (domain.Room, error) {
	if err := ValidateCreateGroup(cmd); err != nil {
		return domain.Room{}, err
	}
	others := lo.Without(lo.Uniq(cmd.MemberIDs), id.UserID)
	if len(others)+1 > domain.MaxGroupSize {
		return domain.Room{}, fmt.Errorf("%w: %d members, limit is %d", errors.ErrGroupTooLarge, len(others)+1, domain.MaxGroupSize)
	}

	at := now()
	room := domain.NewGroupRoom(id.UserID, strings.TrimSpace(cmd.Name), at)
	members := append(
		[]domain.Membership{domain.NewMembership(room.ID, id.UserID, domain.RoleAdmin, at)},
		lo.Map(others, func(userID string, _ int) domain.Membership {
			return domain.NewMembership(room.ID, userID, domain.RoleMember, at)
		})...,
	)
	if err := s.rooms.CreateRoom(ctx, room, members); err != nil {
		return domain.Room{}, err
	}
	s.log.Debug("Group room created", "room_id", room.ID, "created_by", id.UserID, "members", len(members))
	s.postSystem(ctx, room.ID, fmt.Sprintf("%s created the group %q", id.UserID, *room.Name))
	return room, nil
}

// InviteMembers adds userIDs to a group. Already-active ids are skipped,
// departed ones start a new stint. Either every id is added or none.
func (s *MembershipService) InviteMembers(ctx context.Context, id auth.Identity, roomID uuid.UUID, userIDs []string) ([]domain.Membership, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(ctx, s.policy, roomID, id.UserID); err != nil {
		return nil, err
	}
	if !room.IsGroup() {
		return nil, errors.ErrNotAGroup
	}
	ids := lo.Filter(userIDs, func(userID string, _ int) bool { return strings.TrimSpace(userID) != "" })
	if len(ids) == 0 {
		return nil, nil
	}
	if err := ValidateUserIDs(ids...); err != nil {
		return nil, err
	}

	added, err := s.rooms.AddMembers(ctx, roomID, ids, now(), domain.MaxGroupSize)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 {
		names := lo.Map(added, func(m domain.Membership, _ int) string { return m.UserID })
		s.postSystem(ctx, roomID, fmt.Sprintf("%s added %s", id.UserID, strings.Join(names, ", ")))
	}
	return added, nil
}

func (s *MembershipService) RemoveMember(ctx context.Context, id auth.Identity, roomID uuid.UUID, userID string) error {
	if err := ValidateUserIDs(userID); err != nil {
		return err
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := requireAdmin(ctx, s.policy, roomID, id.UserID); err != nil {
		return err
	}
	if !room.IsGroup() {
		return errors.ErrNotAGroup
	}
	if userID == id.UserID {
		return errors.ErrSelfAction
	}
	target, err := s.rooms.GetMembership(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !target.IsActive() {
		return nil
	}

	if _, err := s.rooms.MarkLeft(ctx, roomID, userID, now(), false); err != nil {
		return err
	}
	s.evict(ctx, roomID, userID)
	s.postSystem(ctx, roomID, fmt.Sprintf("%s removed %s", id.UserID, userID))
	return nil
}

// LeaveRoom ends the caller's membership. When the admin of a group leaves,
// the longest-standing active member becomes admin.
func (s *MembershipService) LeaveRoom(ctx context.Context, id auth.Identity, roomID uuid.UUID) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	membership, err := s.rooms.GetMembership(ctx, roomID, id.UserID)
	if err != nil {
		return err
	}
	if !membership.IsActive() {
		return nil
	}

	promoted, err := s.rooms.MarkLeft(ctx, roomID, id.UserID, now(), room.IsGroup())
	if err != nil {
		return err
	}
	s.evict(ctx, roomID, id.UserID)
	s.postSystem(ctx, roomID, fmt.Sprintf("%s left", id.UserID))
	if promoted != nil {
		s.postSystem(ctx, roomID, fmt.Sprintf("%s is now admin", promoted.UserID))
	}
	return nil
}

func (s *MembershipService) TransferAdmin(ctx context.Context, id auth.Identity, roomID uuid.UUID, newAdminID string) error {
	if err := ValidateUserIDs(newAdminID); err != nil {
		return err
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		return err
	}
	if err := requireAdmin(ctx, s.policy, roomID, id.UserID); err != nil {
		return err
	}
	if newAdminID == id.UserID {
		return nil
	}
	if err := s.rooms.TransferAdmin(ctx, roomID, newAdminID); err != nil {
		return err
	}
	s.postSystem(ctx, roomID, fmt.Sprintf("%s made %s admin", id.UserID, newAdminID))
	return nil
}

func (s *MembershipService) RenameRoom(ctx context.Context, id auth.Identity, roomID uuid.UUID, name string) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Room{}, errors.ErrEmptyRoomName
	}
	if utf8.RuneCountInString(name) > maxRoomNameLength {
		return domain.Room{}, fmt.Errorf("%w: room name is longer than %d characters", errors.ErrValidation, maxRoomNameLength)
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return domain.Room{}, err
	}
	if err := requireAdmin(ctx, s.policy, roomID, id.UserID); err != nil {
		return domain.Room{}, err
	}
	if !room.IsGroup() {
		return domain.Room{}, errors.ErrNotAGroup
	}

	room.Name = &name
	room.UpdatedAt = now()
	if err := s.rooms.UpdateRoom(ctx, room); err != nil {
		return domain.Room{}, err
	}
	s.postSystem(ctx, roomID, fmt.Sprintf("%s renamed the group to %q", id.UserID, name))
	return room, nil
}

// ListRooms returns the caller's active rooms, most recent activity first.
// A dm whose counterpart is in a blocked pair with the caller is hidden.
func (s *MembershipService) ListRooms(ctx context.Context, id auth.Identity) ([]domain.RoomSummary, error) {
	rooms, err := s.rooms.ListRoomsForUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	blocked, err := s.blocks.BlockedWith(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		members, err := s.rooms.ListMembers(ctx, room.ID, false)
		if err != nil {
			return nil, err
		}
		if room.IsDirect() && lo.ContainsBy(members, func(m domain.Membership) bool {
			return m.UserID != id.UserID && blocked[m.UserID]
		}) {
			continue
		}
		last, err := s.messages.LastMessage(ctx, room.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, domain.RoomSummary{
			Room:        room,
			Members:     lo.Filter(members, func(m domain.Membership, _ int) bool { return m.IsActive() }),
			LastMessage: last,
		})
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return lastActivity(summaries[i]).After(lastActivity(summaries[j]))
	})
	return summaries, nil
}

func (s *MembershipService) ListMembers(ctx context.Context, id auth.Identity, roomID uuid.UUID) ([]domain.Membership, error) {
	if err := requireMember(ctx, s.policy, roomID, id.UserID); err != nil {
		return nil, err
	}
	return s.rooms.ListMembers(ctx, roomID, true)
}

// postSystem does not fail the membership change it describes.
func (s *MembershipService) postSystem(ctx context.Context, roomID uuid.UUID, content string) {
	if _, err := s.system.PostSystem(ctx, roomID, content); err != nil {
		s.log.Warn("Unable to post system message", "room_id", roomID, "error", err)
	}
}

func lastActivity(summary domain.RoomSummary) time.Time {
	if summary.LastMessage != nil && summary.LastMessage.CreatedAt.After(summary.Room.UpdatedAt) {
		return summary.LastMessage.CreatedAt
	}
	return summary.Room.UpdatedAt
}

type closableSink interface {
	Close()
}

// evict closes the realtime connections of a user whose membership ended and
// announces them offline.
func (s *MembershipService) evict(ctx context.Context, roomID uuid.UUID, userID string) {
	removed := s.registry.UnsubscribeUser(roomID, userID)
	if len(removed) == 0 {
		return
	}
	for _, sub := range removed {
		if c, ok := sub.Sink.(closableSink); ok {
			c.Close()
		}
	}
	if err := s.bus.Publish(ctx, presence.Update{
		RoomID: roomID,
		State:  domain.PresenceState{UserID: userID, At: now()},
	}); err != nil {
		s.log.Warn("Unable to publish presence", "room_id", roomID, "user_id", userID, "error", err)
	}
	s.log.Debug("Realtime connections closed", "room_id", roomID, "user_id", userID, "count", len(removed))
}
