// Package policy decides whether a requester may perform an action on a group
// or on another member. It is a pure function of the state it is given: no
// I/O, no ambient request context. Callers resolve memberships and admin
// counts first and pass them in.
package policy

import "github.com/tabtally/tally/internal/models"

// Action is a group- or member-targeted operation subject to authorization.
type Action int

const (
	ActionViewGroup Action = iota
	ActionUpdateGroup
	ActionDeleteGroup
	ActionTransferOwnership
	ActionInviteMembers
	ActionPromoteMember
	ActionDemoteAdmin
	ActionKickMember
	ActionBanMember
	ActionUnbanMember
	ActionRevokeInvite
	ActionLeaveGroup
	ActionAcceptInvite
	ActionDeclineInvite
	ActionCreateTransaction
	ActionViewTransactions
	ActionEditTransaction
	ActionDeleteTransaction
)

// memberTargeted reports whether the action acts on another membership row.
func (a Action) memberTargeted() bool {
	switch a {
	case ActionPromoteMember, ActionDemoteAdmin, ActionKickMember,
		ActionBanMember, ActionUnbanMember, ActionRevokeInvite:
		return true
	}
	return false
}

// Effect is the outcome class of a decision.
type Effect int

const (
	// Allow: the action may proceed.
	Allow Effect = iota
	// Forbid: the requester lacks permission.
	Forbid
	// Conflict: the action is blocked by group state (last admin, creator
	// obligations) rather than by the requester's role.
	Conflict
)

// Decision is the policy's answer. Reason is a stable, human-readable string
// set on every denial.
type Decision struct {
	Effect Effect
	Reason string
}

// Allowed is a convenience for Effect == Allow.
func (d Decision) Allowed() bool { return d.Effect == Allow }

func allow() Decision                 { return Decision{Effect: Allow} }
func forbid(reason string) Decision   { return Decision{Effect: Forbid, Reason: reason} }
func conflict(reason string) Decision { return Decision{Effect: Conflict, Reason: reason} }

// Input carries the resolved state a decision is made from.
type Input struct {
	// CreatorID is the group's current owner.
	CreatorID string

	// Requester is the requester's membership row in the group, or nil if
	// no row exists.
	Requester *models.Membership

	// Target is the membership being acted on, for member-targeted actions.
	Target *models.Membership

	// JoinedAdmins is the number of members with status joined and the admin
	// flag set, including the creator.
	JoinedAdmins int

	// Transaction is the transaction being acted on, for transaction-targeted
	// actions (edit, delete).
	Transaction *models.Transaction
}

// CanPerform decides whether the requester may perform action given the
// resolved input. Rules are evaluated in precedence order: active-membership
// gate, creator protections, creator/admin/member capabilities, and finally
// target-state checks.
func CanPerform(in Input, action Action) Decision {
	// Rule 1: a requester who is not joined may only act on their own
	// pending invite.
	if in.Requester == nil {
		return forbid("you are not a member of this group")
	}
	if in.Requester.Status != models.StatusJoined {
		if in.Requester.Status == models.StatusInvited &&
			(action == ActionAcceptInvite || action == ActionDeclineInvite) {
			return allow()
		}
		if in.Requester.Status == models.StatusBanned {
			return forbid("you are banned from this group")
		}
		return forbid("you are not an active member of this group")
	}

	isCreator := in.Requester.UserID == in.CreatorID
	isAdmin := in.Requester.IsAdmin

	// Rule 2: the creator may never be the target of a member-targeted action.
	if action.memberTargeted() {
		if in.Target == nil {
			return forbid("user is not in this group")
		}
		if in.Target.UserID == in.CreatorID {
			return forbid("the group creator cannot be targeted; transfer ownership first")
		}
	}

	switch action {
	case ActionViewGroup, ActionViewTransactions, ActionCreateTransaction:
		// Any joined member.
		return allow()

	case ActionAcceptInvite, ActionDeclineInvite:
		// Already joined; there is no pending invite to act on.
		return forbid("you do not have a pending invite for this group")

	case ActionUpdateGroup, ActionInviteMembers:
		if isCreator || isAdmin {
			return allow()
		}
		return forbid("you must be an admin of this group")

	case ActionDeleteGroup:
		if isCreator {
			return allow()
		}
		return forbid("you must be the creator of this group")

	case ActionTransferOwnership:
		if !isCreator {
			return forbid("you must be the creator of this group")
		}
		return allow()

	case ActionDemoteAdmin:
		if !isCreator {
			return forbid("you must be the creator of this group to demote an admin")
		}
		if in.Target.Status != models.StatusJoined {
			return forbid("user is not active in this group")
		}
		if in.Target.IsAdmin && in.JoinedAdmins <= 1 {
			return conflict("cannot demote the last remaining admin")
		}
		return allow()

	case ActionPromoteMember:
		if !isCreator && !isAdmin {
			return forbid("you must be an admin of this group")
		}
		if in.Target.Status != models.StatusJoined {
			return forbid("user is not active in this group")
		}
		return allow()

	case ActionKickMember, ActionBanMember:
		if !isCreator && !isAdmin {
			return forbid("you must be an admin of this group")
		}
		if in.Target.UserID == in.Requester.UserID {
			return forbid("you cannot remove yourself; leave the group instead")
		}
		if in.Target.Status != models.StatusJoined {
			return forbid("user is not active in this group")
		}
		if in.Target.IsAdmin && !isCreator {
			return forbid("only the creator can remove another admin")
		}
		if in.Target.IsAdmin && in.JoinedAdmins <= 1 {
			return conflict("cannot remove the last remaining admin")
		}
		return allow()

	case ActionUnbanMember:
		if !isCreator && !isAdmin {
			return forbid("you must be an admin of this group")
		}
		if in.Target.Status != models.StatusBanned {
			return forbid("user is not banned from this group")
		}
		return allow()

	case ActionRevokeInvite:
		if in.Target.Status != models.StatusInvited {
			return forbid("user does not have a pending invite")
		}
		// Admins, the creator, and the member who issued the invite.
		if isCreator || isAdmin || in.Target.InvitedBy == in.Requester.UserID {
			return allow()
		}
		return forbid("only an admin or the inviter can revoke an invite")

	case ActionLeaveGroup:
		if isCreator {
			return conflict("the creator cannot leave; transfer ownership first")
		}
		if isAdmin && in.JoinedAdmins <= 1 {
			return conflict("you are the last admin; promote another member first")
		}
		return allow()

	case ActionEditTransaction, ActionDeleteTransaction:
		if in.Transaction == nil {
			return forbid("no transaction to act on")
		}
		if isCreator || isAdmin {
			return allow()
		}
		uid := in.Requester.UserID
		if refEquals(in.Transaction.CreatedBy, uid) || refEquals(in.Transaction.PayerID, uid) {
			return allow()
		}
		return forbid("you must be the transaction's creator, its payer, or a group admin")
	}

	return forbid("unknown action")
}

func refEquals(ref *string, id string) bool {
	return ref != nil && *ref == id
}
