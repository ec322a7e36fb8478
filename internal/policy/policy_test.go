package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabtally/tally/internal/models"
)

func member(userID string, status models.MemberStatus, admin bool) *models.Membership {
	return &models.Membership{GroupID: 1, UserID: userID, Status: status, IsAdmin: admin}
}

func TestCanPerform_MembershipGate(t *testing.T) {
	t.Run("non-member is forbidden everything", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: nil}
		d := CanPerform(in, ActionViewGroup)
		assert.Equal(t, Forbid, d.Effect)
	})

	t.Run("invited member may accept own invite", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusInvited, false)}
		assert.True(t, CanPerform(in, ActionAcceptInvite).Allowed())
		assert.True(t, CanPerform(in, ActionDeclineInvite).Allowed())
	})

	t.Run("invited member may not view the group", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusInvited, false)}
		assert.Equal(t, Forbid, CanPerform(in, ActionViewGroup).Effect)
	})

	t.Run("banned member gets a distinct denial", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusBanned, false)}
		d := CanPerform(in, ActionViewGroup)
		assert.Equal(t, Forbid, d.Effect)
		assert.Contains(t, d.Reason, "banned")
	})

	t.Run("joined member has no pending invite to accept", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusJoined, false)}
		assert.Equal(t, Forbid, CanPerform(in, ActionAcceptInvite).Effect)
	})
}

func TestCanPerform_CreatorProtections(t *testing.T) {
	t.Run("admin cannot kick the creator", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: member("admin", models.StatusJoined, true),
			Target:    member("creator", models.StatusJoined, true),
		}
		d := CanPerform(in, ActionKickMember)
		assert.Equal(t, Forbid, d.Effect)
		assert.Contains(t, d.Reason, "creator")
	})

	t.Run("plain member cannot kick the creator", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: member("bob", models.StatusJoined, false),
			Target:    member("creator", models.StatusJoined, true),
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionKickMember).Effect)
	})

	t.Run("creator cannot be banned or demoted", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    member("admin", models.StatusJoined, true),
			Target:       member("creator", models.StatusJoined, true),
			JoinedAdmins: 2,
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionBanMember).Effect)
		assert.Equal(t, Forbid, CanPerform(in, ActionDemoteAdmin).Effect)
	})

	t.Run("creator leave is a conflict, not a forbid", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    member("creator", models.StatusJoined, true),
			JoinedAdmins: 3,
		}
		d := CanPerform(in, ActionLeaveGroup)
		assert.Equal(t, Conflict, d.Effect)
		assert.Contains(t, d.Reason, "transfer ownership")
	})
}

func TestCanPerform_AdminCapabilities(t *testing.T) {
	admin := member("admin", models.StatusJoined, true)
	plain := member("bob", models.StatusJoined, false)

	t.Run("admin may update group and invite", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: admin}
		assert.True(t, CanPerform(in, ActionUpdateGroup).Allowed())
		assert.True(t, CanPerform(in, ActionInviteMembers).Allowed())
	})

	t.Run("plain member may not update group or invite", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: plain}
		assert.Equal(t, Forbid, CanPerform(in, ActionUpdateGroup).Effect)
		assert.Equal(t, Forbid, CanPerform(in, ActionInviteMembers).Effect)
	})

	t.Run("only the creator deletes or transfers the group", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: admin}
		assert.Equal(t, Forbid, CanPerform(in, ActionDeleteGroup).Effect)
		assert.Equal(t, Forbid, CanPerform(in, ActionTransferOwnership).Effect)

		in.Requester = member("creator", models.StatusJoined, true)
		assert.True(t, CanPerform(in, ActionDeleteGroup).Allowed())
		assert.True(t, CanPerform(in, ActionTransferOwnership).Allowed())
	})

	t.Run("only the creator demotes admins", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    admin,
			Target:       member("other", models.StatusJoined, true),
			JoinedAdmins: 3,
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionDemoteAdmin).Effect)

		in.Requester = member("creator", models.StatusJoined, true)
		assert.True(t, CanPerform(in, ActionDemoteAdmin).Allowed())
	})

	t.Run("only the creator kicks another admin", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    admin,
			Target:       member("other", models.StatusJoined, true),
			JoinedAdmins: 3,
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionKickMember).Effect)

		in.Requester = member("creator", models.StatusJoined, true)
		assert.True(t, CanPerform(in, ActionKickMember).Allowed())
	})
}

func TestCanPerform_LastAdmin(t *testing.T) {
	t.Run("demoting the sole admin is a conflict", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    member("creator", models.StatusJoined, true),
			Target:       member("admin", models.StatusJoined, true),
			JoinedAdmins: 1,
		}
		assert.Equal(t, Conflict, CanPerform(in, ActionDemoteAdmin).Effect)
	})

	t.Run("last admin leaving is a conflict", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    member("admin", models.StatusJoined, true),
			JoinedAdmins: 1,
		}
		d := CanPerform(in, ActionLeaveGroup)
		assert.Equal(t, Conflict, d.Effect)
		assert.Contains(t, d.Reason, "last admin")
	})

	t.Run("plain member may leave freely", func(t *testing.T) {
		in := Input{
			CreatorID:    "creator",
			Requester:    member("bob", models.StatusJoined, false),
			JoinedAdmins: 1,
		}
		assert.True(t, CanPerform(in, ActionLeaveGroup).Allowed())
	})
}

func TestCanPerform_KickBanTargetState(t *testing.T) {
	admin := member("admin", models.StatusJoined, true)

	t.Run("cannot kick yourself", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: admin,
			Target:    member("admin", models.StatusJoined, true),
		}
		d := CanPerform(in, ActionKickMember)
		assert.Equal(t, Forbid, d.Effect)
		assert.Contains(t, d.Reason, "leave the group instead")
	})

	t.Run("cannot kick someone who already left", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: admin,
			Target:    member("bob", models.StatusLeft, false),
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionKickMember).Effect)
	})

	t.Run("unban requires a banned target", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: admin,
			Target:    member("bob", models.StatusJoined, false),
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionUnbanMember).Effect)

		in.Target = member("bob", models.StatusBanned, false)
		assert.True(t, CanPerform(in, ActionUnbanMember).Allowed())
	})
}

func TestCanPerform_RevokeInvite(t *testing.T) {
	invited := func(invitedBy string) *models.Membership {
		m := member("candidate", models.StatusInvited, false)
		m.InvitedBy = invitedBy
		return m
	}

	t.Run("inviter may revoke their own invite without being admin", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: member("bob", models.StatusJoined, false),
			Target:    invited("bob"),
		}
		assert.True(t, CanPerform(in, ActionRevokeInvite).Allowed())
	})

	t.Run("unrelated plain member may not revoke", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: member("carol", models.StatusJoined, false),
			Target:    invited("bob"),
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionRevokeInvite).Effect)
	})

	t.Run("admin may revoke any invite", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: member("admin", models.StatusJoined, true),
			Target:    invited("bob"),
		}
		assert.True(t, CanPerform(in, ActionRevokeInvite).Allowed())
	})

	t.Run("revoke requires a pending invite", func(t *testing.T) {
		in := Input{
			CreatorID: "creator",
			Requester: member("admin", models.StatusJoined, true),
			Target:    member("bob", models.StatusJoined, false),
		}
		assert.Equal(t, Forbid, CanPerform(in, ActionRevokeInvite).Effect)
	})
}

func TestCanPerform_Transactions(t *testing.T) {
	payer := "payer"
	recorder := "recorder"
	txn := &models.Transaction{ID: 7, GroupID: 1, CreatedBy: &recorder, PayerID: &payer}

	t.Run("any joined member records and views", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusJoined, false)}
		assert.True(t, CanPerform(in, ActionCreateTransaction).Allowed())
		assert.True(t, CanPerform(in, ActionViewTransactions).Allowed())
	})

	t.Run("recorder and payer may edit", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member(recorder, models.StatusJoined, false), Transaction: txn}
		assert.True(t, CanPerform(in, ActionEditTransaction).Allowed())

		in.Requester = member(payer, models.StatusJoined, false)
		assert.True(t, CanPerform(in, ActionDeleteTransaction).Allowed())
	})

	t.Run("uninvolved plain member may not edit", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusJoined, false), Transaction: txn}
		assert.Equal(t, Forbid, CanPerform(in, ActionEditTransaction).Effect)
	})

	t.Run("admin may edit any transaction", func(t *testing.T) {
		in := Input{CreatorID: "creator", Requester: member("admin", models.StatusJoined, true), Transaction: txn}
		assert.True(t, CanPerform(in, ActionEditTransaction).Allowed())
	})

	t.Run("anonymized transaction falls back to admin-only", func(t *testing.T) {
		orphan := &models.Transaction{ID: 8, GroupID: 1}
		in := Input{CreatorID: "creator", Requester: member("bob", models.StatusJoined, false), Transaction: orphan}
		assert.Equal(t, Forbid, CanPerform(in, ActionEditTransaction).Effect)

		in.Requester = member("admin", models.StatusJoined, true)
		assert.True(t, CanPerform(in, ActionEditTransaction).Allowed())
	})
}
