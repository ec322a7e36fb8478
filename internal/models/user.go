package models

import "time"

// User is the local mirror of an account owned by the identity provider.
type User struct {
	// ID is the stable, provider-issued user identifier.
	ID string

	// Email is the user's email address (unique).
	Email string

	// DisplayName is the name shown to other group members.
	DisplayName string

	// PasswordHash is set only for accounts created through the built-in
	// password provider. Externally-authenticated mirrors leave it empty.
	PasswordHash string

	// CreatedAt is the Unix timestamp when the mirror row was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}

// NewUser builds a user mirror with timestamps set to now.
func NewUser(id, email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           id,
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
