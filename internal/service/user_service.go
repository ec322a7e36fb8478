package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/storage"
)

// UserService maintains the local mirror of identity-provider accounts.
type UserService struct {
	store storage.Store
}

// NewUserService creates a new UserService with the given storage backend.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// FindOrCreate returns the mirror row for the external user id, creating it
// on first sight. Called on every authenticated request.
func (s *UserService) FindOrCreate(ctx context.Context, id, email, displayName string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	user = models.NewUser(id, email, displayName, "")
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user mirror created", "user_id", id)
	return user, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err, "user")
	}
	return user, nil
}

// Delete removes the requester's own mirror row, their membership rows, and
// anonymizes their ledger references in every group. Denied while the user
// still owns any group: ownership must be transferred first.
func (s *UserService) Delete(ctx context.Context, requesterID, targetID string) error {
	if requesterID != targetID {
		return fmt.Errorf("%w: you can only delete your own account", ErrForbidden)
	}

	return s.store.InUnit(ctx, func(st storage.Store) error {
		owned, err := st.CountGroupsCreatedBy(ctx, targetID)
		if err != nil {
			return err
		}
		if owned > 0 {
			return fmt.Errorf("%w: transfer ownership of your groups before deleting your account", ErrConflict)
		}

		groups, err := st.ListGroupsByUser(ctx, targetID)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if err := st.AnonymizeMember(ctx, g.ID, targetID); err != nil {
				return err
			}
			if err := st.DeleteMembership(ctx, g.ID, targetID); err != nil {
				return err
			}
		}

		if err := st.DeleteUser(ctx, targetID); err != nil {
			return mapStorageErr(err, "user")
		}
		slog.Info("user deleted", "user_id", targetID, "groups_departed", len(groups))
		return nil
	})
}
