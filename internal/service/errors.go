package service

import (
	"errors"
	"fmt"

	"github.com/tabtally/tally/internal/policy"
	"github.com/tabtally/tally/internal/storage"
)

var (
	// ErrNotFound: a referenced group, user, transaction, or membership does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the policy denied the action. The wrapped message carries
	// the denial reason.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: the action is blocked by group state, e.g. removing the
	// last admin or deleting the creator.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput: a field failed basic validation (lengths, zero
	// amounts, empty batches).
	ErrInvalidInput = errors.New("invalid input")
)

// denied converts a policy denial into the matching typed error.
func denied(d policy.Decision) error {
	if d.Effect == policy.Conflict {
		return fmt.Errorf("%w: %s", ErrConflict, d.Reason)
	}
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// mapStorageErr rewrites the storage layer's not-found sentinel; anything
// else passes through as an internal failure.
func mapStorageErr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound(what)
	}
	return err
}
