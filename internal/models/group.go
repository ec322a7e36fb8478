package models

// Group represents a set of users sharing expenses.
//
// Invariant: CreatedBy always refers to an active (Joined, admin) member.
// Ownership can be transferred but never left vacant.
type Group struct {
	// ID is the unique identifier for the group.
	ID int64

	// Name is the display name of the group (1-50 characters).
	Name string

	// Description is an optional free-text description (up to 255 characters).
	Description string

	// CreatedBy is the user ID of the group's current owner.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last metadata change.
	UpdatedAt int64
}
