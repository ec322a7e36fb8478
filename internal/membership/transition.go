// Package membership defines the lifecycle state machine for a (group, user)
// pair. All status changes go through Apply; call sites never re-derive the
// transition rules.
package membership

import (
	"errors"
	"fmt"

	"github.com/tabtally/tally/internal/models"
)

// ErrInvalidTransition is returned when a requested status change is not in
// the transition table. The source status is left unchanged.
var ErrInvalidTransition = errors.New("invalid membership transition")

// transitions is the closed table of legal status changes.
//
//	invited -> joined   (invitee accepts)
//	invited -> declined (invitee declines)
//	invited -> kicked   (inviter or admin revokes the invite)
//	joined  -> left     (self-initiated exit)
//	joined  -> kicked   (admin/creator removal)
//	joined  -> banned   (admin/creator ban)
//	banned  -> kicked   (unban; moves to the removed state, not back to joined)
var transitions = map[models.MemberStatus][]models.MemberStatus{
	models.StatusInvited: {models.StatusJoined, models.StatusDeclined, models.StatusKicked},
	models.StatusJoined:  {models.StatusLeft, models.StatusKicked, models.StatusBanned},
	models.StatusBanned:  {models.StatusKicked},
}

// Apply validates the transition from current to requested and returns the
// new status. Any pair not in the table is rejected with ErrInvalidTransition,
// including re-applying an already-applied terminal status.
func Apply(current, requested models.MemberStatus) (models.MemberStatus, error) {
	if !current.Valid() || !requested.Valid() {
		return current, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, current, requested)
	}
	for _, next := range transitions[current] {
		if next == requested {
			return requested, nil
		}
	}
	return current, fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, current, requested)
}

// IsTerminal reports whether s ends the membership's current cycle. A user in
// a terminal status cannot be moved directly to joined; re-entry requires a
// fresh invite.
func IsTerminal(s models.MemberStatus) bool {
	switch s {
	case models.StatusDeclined, models.StatusLeft, models.StatusKicked, models.StatusBanned:
		return true
	}
	return false
}

// Removed reports whether s is a terminal-removed status whose entry must
// trigger anonymization of the user's ledger references in that group.
func Removed(s models.MemberStatus) bool {
	switch s {
	case models.StatusLeft, models.StatusKicked, models.StatusBanned:
		return true
	}
	return false
}

// CanReinvite reports whether a membership in status s may start a fresh
// invite cycle. Banned is the one terminal status that blocks re-invites.
func CanReinvite(s models.MemberStatus) bool {
	return IsTerminal(s) && s != models.StatusBanned
}
