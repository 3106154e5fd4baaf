package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"ajopot/internal/apperr"
	"ajopot/internal/models"
	"ajopot/internal/storage"
)

// GroupService manages circle creation and membership. The cycle,
// ledger and wallet services own everything that happens after a
// circle starts.
type GroupService struct {
	store      storage.Store
	maxMembers int
}

// NewGroupService creates a group service. maxMembers bounds every
// circle's member set.
func NewGroupService(store storage.Store, maxMembers int) *GroupService {
	return &GroupService{store: store, maxMembers: maxMembers}
}

// CreateGroup creates a circle owned by the caller, who becomes its
// first member. An invite code is generated for others to join.
func (s *GroupService) CreateGroup(ctx context.Context, ownerUID, name string, contribution float64, interval models.Interval) (*models.Group, error) {
	if name == "" {
		return nil, apperr.BadRequest("group name is required")
	}
	if contribution <= 0 {
		return nil, apperr.BadRequest("contribution must be positive")
	}
	if !interval.Valid() {
		return nil, apperr.BadRequest("interval must be weekly or monthly")
	}

	group := &models.Group{
		Name:         name,
		OwnerID:      ownerUID,
		Contribution: contribution,
		Interval:     interval,
		MaxMembers:   s.maxMembers,
		InviteCode:   newInviteCode(),
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "owner_id", ownerUID, "name", name)
	return group, nil
}

// GetGroup returns a group visible to its members.
func (s *GroupService) GetGroup(ctx context.Context, groupID, callerUID string) (*models.Group, []models.Membership, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	ok, err := s.store.IsGroupMember(ctx, group.ID, callerUID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperr.Forbidden("caller is not a member of the group")
	}
	members, err := s.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, nil, err
	}
	return group, members, nil
}

// JoinGroup enrolls the caller via an invite code. Joining is closed
// once the cycle starts or the circle is full.
func (s *GroupService) JoinGroup(ctx context.Context, callerUID, inviteCode string) (*models.Group, error) {
	group, err := s.store.GetGroupByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	if group.Started {
		return nil, apperr.Conflict("the cycle has already started")
	}

	members, err := s.store.ListGroupMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	if len(members) >= group.MaxMembers {
		return nil, apperr.Conflict("the group is full")
	}

	if err := s.store.AddGroupMember(ctx, group.ID, callerUID); err != nil {
		return nil, err
	}

	slog.Info("Member joined group", "group_id", group.ID, "user_id", callerUID)
	return group, nil
}

// newInviteCode returns a short, URL-safe invite code.
func newInviteCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
