package models

// MemberStatus is the lifecycle state of one user within one group.
// The legal transitions between statuses are defined in the membership package.
type MemberStatus string

const (
	// StatusInvited: the user has a pending invite they can accept or decline.
	StatusInvited MemberStatus = "invited"

	// StatusJoined: the user is an active member of the group.
	StatusJoined MemberStatus = "joined"

	// StatusDeclined: the user turned down their invite.
	StatusDeclined MemberStatus = "declined"

	// StatusLeft: the user exited the group on their own.
	StatusLeft MemberStatus = "left"

	// StatusKicked: the user was removed by an admin, had their invite
	// revoked, or was unbanned into the removed state.
	StatusKicked MemberStatus = "kicked"

	// StatusBanned: the user was removed and may not be re-invited.
	StatusBanned MemberStatus = "banned"
)

// Valid reports whether s is one of the defined statuses.
func (s MemberStatus) Valid() bool {
	switch s {
	case StatusInvited, StatusJoined, StatusDeclined, StatusLeft, StatusKicked, StatusBanned:
		return true
	}
	return false
}

// Membership is the relationship record between one user and one group.
// There is exactly one row per (group, user) pair; re-inviting reuses the
// existing row rather than duplicating it.
type Membership struct {
	// GroupID and UserID form the composite key.
	GroupID int64
	UserID  string

	// IsAdmin grants group-management permissions while Status is joined.
	IsAdmin bool

	// Status is the current lifecycle state.
	Status MemberStatus

	// InvitedBy is the user ID of whoever issued the most recent invite.
	// For the group creator it is their own ID.
	InvitedBy string

	// CreatedAt is the Unix timestamp when the row was first created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status or role change.
	UpdatedAt int64
}
