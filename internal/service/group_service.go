package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tabtally/tally/internal/membership"
	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/policy"
	"github.com/tabtally/tally/internal/storage"
)

// GroupService coordinates group and membership mutations. Every multi-entity
// write runs inside one atomic unit of work; policy and state-machine checks
// happen before any write.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// GroupDetail is a group with its active members.
type GroupDetail struct {
	Group   models.Group
	Members []models.Membership
}

func validateGroupFields(name, description *string) error {
	if name != nil && (len(*name) < 1 || len(*name) > 50) {
		return fmt.Errorf("%w: group name must be between 1 and 50 characters", ErrInvalidInput)
	}
	if description != nil && len(*description) > 255 {
		return fmt.Errorf("%w: group description must be at most 255 characters", ErrInvalidInput)
	}
	return nil
}

// resolve loads the group and the requester's membership row (nil when the
// requester has none).
func (s *GroupService) resolve(ctx context.Context, st storage.Store, groupID int64, requesterID string) (*models.Group, *models.Membership, error) {
	group, err := st.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, mapStorageErr(err, "group")
	}
	member, err := st.GetMembership(ctx, groupID, requesterID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}
	return group, member, nil
}

// CreateGroup creates the group and its creator membership (joined, admin) as
// one unit.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID, name, description string) (*models.Group, error) {
	if err := validateGroupFields(&name, &description); err != nil {
		return nil, err
	}

	group := &models.Group{Name: name, Description: description, CreatedBy: creatorID}
	err := s.store.InUnit(ctx, func(st storage.Store) error {
		if err := st.CreateGroup(ctx, group); err != nil {
			return err
		}
		return st.UpsertMembership(ctx, &models.Membership{
			GroupID:   group.ID,
			UserID:    creatorID,
			IsAdmin:   true,
			Status:    models.StatusJoined,
			InvitedBy: creatorID,
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "created_by", creatorID)
	return group, nil
}

// GetGroup returns the group and its joined members. The requester must be an
// active member.
func (s *GroupService) GetGroup(ctx context.Context, requesterID string, groupID int64) (*GroupDetail, error) {
	group, member, err := s.resolve(ctx, s.store, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: member}, policy.ActionViewGroup)
	if !d.Allowed() {
		return nil, denied(d)
	}

	all, err := s.store.ListMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var joined []models.Membership
	for _, m := range all {
		if m.Status == models.StatusJoined {
			joined = append(joined, m)
		}
	}
	return &GroupDetail{Group: *group, Members: joined}, nil
}

// ListMembers returns every membership row of the group, all statuses. The
// requester must be an active member.
func (s *GroupService) ListMembers(ctx context.Context, requesterID string, groupID int64) ([]models.Membership, error) {
	group, member, err := s.resolve(ctx, s.store, groupID, requesterID)
	if err != nil {
		return nil, err
	}
	d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: member}, policy.ActionViewGroup)
	if !d.Allowed() {
		return nil, denied(d)
	}
	return s.store.ListMemberships(ctx, groupID)
}

// ListUserGroups returns every group the user has a membership row in.
func (s *GroupService) ListUserGroups(ctx context.Context, userID string) ([]models.Group, error) {
	return s.store.ListGroupsByUser(ctx, userID)
}

// UpdateGroup changes the group's name and/or description. Admin or creator
// only; nil fields are left untouched.
func (s *GroupService) UpdateGroup(ctx context.Context, requesterID string, groupID int64, name, description *string) error {
	if name == nil && description == nil {
		return fmt.Errorf("%w: provide a name or description to update", ErrInvalidInput)
	}
	if err := validateGroupFields(name, description); err != nil {
		return err
	}

	group, member, err := s.resolve(ctx, s.store, groupID, requesterID)
	if err != nil {
		return err
	}
	d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: member}, policy.ActionUpdateGroup)
	if !d.Allowed() {
		return denied(d)
	}

	if name != nil {
		group.Name = *name
	}
	if description != nil {
		group.Description = *description
	}
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return err
	}
	slog.Info("group updated", "group_id", groupID, "requester", requesterID)
	return nil
}

// DeleteGroup removes the group and all of its memberships as one unit. Only
// the creator may delete. Transactions and splits are left orphaned by
// group_id.
func (s *GroupService) DeleteGroup(ctx context.Context, requesterID string, groupID int64) error {
	group, member, err := s.resolve(ctx, s.store, groupID, requesterID)
	if err != nil {
		return err
	}
	d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: member}, policy.ActionDeleteGroup)
	if !d.Allowed() {
		return denied(d)
	}

	err = s.store.InUnit(ctx, func(st storage.Store) error {
		if err := st.DeleteMemberships(ctx, groupID); err != nil {
			return err
		}
		return st.DeleteGroup(ctx, groupID)
	})
	if err != nil {
		return err
	}
	slog.Info("group deleted", "group_id", groupID, "requester", requesterID)
	return nil
}

// InviteMembers invites each listed user as one atomic batch. Re-invites
// reuse the existing membership row; joined, already-invited, and banned
// users reject the whole batch.
func (s *GroupService) InviteMembers(ctx context.Context, requesterID string, groupID int64, userIDs []string) error {
	if len(userIDs) == 0 {
		return fmt.Errorf("%w: provide at least one user to invite", ErrInvalidInput)
	}

	return s.store.InUnit(ctx, func(st storage.Store) error {
		group, member, err := s.resolve(ctx, st, groupID, requesterID)
		if err != nil {
			return err
		}
		d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: member}, policy.ActionInviteMembers)
		if !d.Allowed() {
			return denied(d)
		}

		for _, userID := range userIDs {
			if _, err := st.GetUser(ctx, userID); err != nil {
				return mapStorageErr(err, fmt.Sprintf("user %s", userID))
			}

			existing, err := st.GetMembership(ctx, groupID, userID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			row := &models.Membership{
				GroupID:   groupID,
				UserID:    userID,
				IsAdmin:   false,
				Status:    models.StatusInvited,
				InvitedBy: requesterID,
			}
			if existing != nil {
				switch {
				case existing.Status == models.StatusJoined:
					return fmt.Errorf("%w: user %s is already in the group", ErrConflict, userID)
				case existing.Status == models.StatusInvited:
					return fmt.Errorf("%w: user %s has already been invited", ErrConflict, userID)
				case !membership.CanReinvite(existing.Status):
					return fmt.Errorf("%w: user %s is banned from the group", ErrConflict, userID)
				}
				row.CreatedAt = existing.CreatedAt
			}
			if err := st.UpsertMembership(ctx, row); err != nil {
				return err
			}
		}

		slog.Info("members invited", "group_id", groupID, "requester", requesterID, "count", len(userIDs))
		return nil
	})
}

// Leave exits the group for the requester and anonymizes their ledger
// references, as one unit. The creator must transfer ownership first; the
// last admin must promote someone first.
func (s *GroupService) Leave(ctx context.Context, requesterID string, groupID int64) error {
	return s.store.InUnit(ctx, func(st storage.Store) error {
		group, member, err := s.resolve(ctx, st, groupID, requesterID)
		if err != nil {
			return err
		}
		admins, err := st.CountJoinedAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		d := policy.CanPerform(policy.Input{
			CreatorID:    group.CreatedBy,
			Requester:    member,
			JoinedAdmins: admins,
		}, policy.ActionLeaveGroup)
		if !d.Allowed() {
			return denied(d)
		}

		newStatus, err := membership.Apply(member.Status, models.StatusLeft)
		if err != nil {
			return err
		}
		member.Status = newStatus
		member.IsAdmin = false
		if err := st.UpsertMembership(ctx, member); err != nil {
			return err
		}
		if err := st.AnonymizeMember(ctx, groupID, requesterID); err != nil {
			return err
		}

		slog.Info("member left group", "group_id", groupID, "user_id", requesterID)
		return nil
	})
}

// statusChangeAction maps a requested status change onto the policy action it
// represents.
func statusChangeAction(requesterID, targetID string, targetStatus, newStatus models.MemberStatus) (policy.Action, error) {
	if requesterID == targetID {
		switch newStatus {
		case models.StatusJoined:
			return policy.ActionAcceptInvite, nil
		case models.StatusDeclined:
			return policy.ActionDeclineInvite, nil
		}
		return 0, fmt.Errorf("%w: you cannot change your own status; leave the group instead", ErrForbidden)
	}
	switch newStatus {
	case models.StatusKicked:
		switch targetStatus {
		case models.StatusInvited:
			return policy.ActionRevokeInvite, nil
		case models.StatusBanned:
			return policy.ActionUnbanMember, nil
		}
		return policy.ActionKickMember, nil
	case models.StatusBanned:
		return policy.ActionBanMember, nil
	}
	return 0, fmt.Errorf("%w: you can only kick or ban another member", ErrForbidden)
}

// ChangeMemberStatus applies a membership transition: accept/decline of one's
// own invite, or kick/ban/unban/invite-revocation of another member. Entering
// a removed status strips the admin flag and anonymizes the member's ledger
// references in the same unit.
func (s *GroupService) ChangeMemberStatus(ctx context.Context, requesterID string, groupID int64, targetID string, newStatus models.MemberStatus) error {
	if !newStatus.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	return s.store.InUnit(ctx, func(st storage.Store) error {
		group, requester, err := s.resolve(ctx, st, groupID, requesterID)
		if err != nil {
			return err
		}
		target, err := st.GetMembership(ctx, groupID, targetID)
		if err != nil {
			return mapStorageErr(err, "user is not in this group")
		}
		admins, err := st.CountJoinedAdmins(ctx, groupID)
		if err != nil {
			return err
		}

		action, err := statusChangeAction(requesterID, targetID, target.Status, newStatus)
		if err != nil {
			return err
		}
		d := policy.CanPerform(policy.Input{
			CreatorID:    group.CreatedBy,
			Requester:    requester,
			Target:       target,
			JoinedAdmins: admins,
		}, action)
		if !d.Allowed() {
			return denied(d)
		}

		applied, err := membership.Apply(target.Status, newStatus)
		if err != nil {
			return err
		}
		target.Status = applied
		if membership.Removed(applied) {
			target.IsAdmin = false
		}
		if err := st.UpsertMembership(ctx, target); err != nil {
			return err
		}
		if membership.Removed(applied) {
			if err := st.AnonymizeMember(ctx, groupID, targetID); err != nil {
				return err
			}
		}

		slog.Info("member status changed",
			"group_id", groupID,
			"requester", requesterID,
			"target", targetID,
			"status", string(applied),
		)
		return nil
	})
}

// Promote grants the admin flag to a joined member. Admin or creator only.
func (s *GroupService) Promote(ctx context.Context, requesterID string, groupID int64, targetID string) error {
	return s.store.InUnit(ctx, func(st storage.Store) error {
		group, requester, err := s.resolve(ctx, st, groupID, requesterID)
		if err != nil {
			return err
		}
		target, err := st.GetMembership(ctx, groupID, targetID)
		if err != nil {
			return mapStorageErr(err, "user is not in this group")
		}
		d := policy.CanPerform(policy.Input{
			CreatorID: group.CreatedBy,
			Requester: requester,
			Target:    target,
		}, policy.ActionPromoteMember)
		if !d.Allowed() {
			return denied(d)
		}

		target.IsAdmin = true
		if err := st.UpsertMembership(ctx, target); err != nil {
			return err
		}
		slog.Info("member promoted", "group_id", groupID, "target", targetID, "requester", requesterID)
		return nil
	})
}

// Demote removes the admin flag from an admin. Creator only; demoting the
// last remaining admin is a conflict.
func (s *GroupService) Demote(ctx context.Context, requesterID string, groupID int64, targetID string) error {
	return s.store.InUnit(ctx, func(st storage.Store) error {
		group, requester, err := s.resolve(ctx, st, groupID, requesterID)
		if err != nil {
			return err
		}
		target, err := st.GetMembership(ctx, groupID, targetID)
		if err != nil {
			return mapStorageErr(err, "user is not in this group")
		}
		admins, err := st.CountJoinedAdmins(ctx, groupID)
		if err != nil {
			return err
		}
		d := policy.CanPerform(policy.Input{
			CreatorID:    group.CreatedBy,
			Requester:    requester,
			Target:       target,
			JoinedAdmins: admins,
		}, policy.ActionDemoteAdmin)
		if !d.Allowed() {
			return denied(d)
		}
		if !target.IsAdmin {
			return fmt.Errorf("%w: user is not an admin", ErrConflict)
		}

		target.IsAdmin = false
		if err := st.UpsertMembership(ctx, target); err != nil {
			return err
		}
		slog.Info("admin demoted", "group_id", groupID, "target", targetID, "requester", requesterID)
		return nil
	})
}

// TransferOwnership reassigns the group's creator to a joined member and
// grants them the admin flag, as one unit. Creator only.
func (s *GroupService) TransferOwnership(ctx context.Context, requesterID string, groupID int64, newOwnerID string) error {
	return s.store.InUnit(ctx, func(st storage.Store) error {
		group, requester, err := s.resolve(ctx, st, groupID, requesterID)
		if err != nil {
			return err
		}
		d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: requester}, policy.ActionTransferOwnership)
		if !d.Allowed() {
			return denied(d)
		}
		if newOwnerID == group.CreatedBy {
			return fmt.Errorf("%w: user already owns the group", ErrConflict)
		}
		newOwner, err := st.GetMembership(ctx, groupID, newOwnerID)
		if err != nil {
			return mapStorageErr(err, "user is not in this group")
		}
		if newOwner.Status != models.StatusJoined {
			return fmt.Errorf("%w: user is not an active member of this group", ErrForbidden)
		}

		group.CreatedBy = newOwnerID
		if err := st.UpdateGroup(ctx, group); err != nil {
			return err
		}
		newOwner.IsAdmin = true
		if err := st.UpsertMembership(ctx, newOwner); err != nil {
			return err
		}

		slog.Info("ownership transferred", "group_id", groupID, "from", requesterID, "to", newOwnerID)
		return nil
	})
}
