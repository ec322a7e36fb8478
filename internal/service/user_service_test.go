package service

import (
	"context"
	"errors"
	"testing"
)

func TestFindOrCreate(t *testing.T) {
	store := newTestStore(t)
	svc := NewUserService(store)
	ctx := context.Background()

	t.Run("first sight creates the mirror row", func(t *testing.T) {
		user, err := svc.FindOrCreate(ctx, "ext-123", "alice@example.com", "Alice")
		if err != nil {
			t.Fatalf("FindOrCreate failed: %v", err)
		}
		if user.ID != "ext-123" || user.Email != "alice@example.com" {
			t.Errorf("mirror row = %+v", user)
		}
		if user.PasswordHash != "" {
			t.Error("mirror row should not carry a password hash")
		}
	})

	t.Run("second sight returns the existing row", func(t *testing.T) {
		first, err := svc.FindOrCreate(ctx, "ext-456", "bob@example.com", "Bob")
		if err != nil {
			t.Fatalf("FindOrCreate failed: %v", err)
		}
		second, err := svc.FindOrCreate(ctx, "ext-456", "bob@elsewhere.com", "Bobby")
		if err != nil {
			t.Fatalf("FindOrCreate failed: %v", err)
		}
		if second.Email != first.Email || second.DisplayName != first.DisplayName {
			t.Errorf("existing row was altered: %+v", second)
		}
	})
}

func TestUserDelete(t *testing.T) {
	store := newTestStore(t)
	users := NewUserService(store)
	groups := NewGroupService(store)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob")

	t.Run("cannot delete another user's account", func(t *testing.T) {
		if err := users.Delete(ctx, "alice", "bob"); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("group owner must transfer ownership first", func(t *testing.T) {
		groupID := seedGroup(t, groups, store, "alice", "bob")
		if err := users.Delete(ctx, "alice", "alice"); !errors.Is(err, ErrConflict) {
			t.Errorf("expected ErrConflict while owning a group, got %v", err)
		}

		if err := groups.TransferOwnership(ctx, "alice", groupID, "bob"); err != nil {
			t.Fatalf("TransferOwnership failed: %v", err)
		}
		if err := users.Delete(ctx, "alice", "alice"); err != nil {
			t.Fatalf("Delete after transfer failed: %v", err)
		}
		if _, err := users.Get(ctx, "alice"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}
