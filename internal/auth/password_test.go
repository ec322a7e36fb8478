package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/storage"
)

// memoryUsers is a minimal in-memory UserStorage for authenticator tests.
type memoryUsers struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *memoryUsers) CreateUser(_ context.Context, user *models.User) error {
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *memoryUsers) GetUser(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with a hashed password and uuid id", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUsers())
		user, err := a.Register(ctx, "alice@example.com", "Alice", "correct horse battery")
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.ID == "" {
			t.Error("expected a generated user ID")
		}
		if user.PasswordHash == "" || user.PasswordHash == "correct horse battery" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUsers())
		if _, err := a.Register(ctx, "alice@example.com", "Alice", "short"); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("expected ErrWeakPassword, got %v", err)
		}
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		a := NewPasswordAuthenticator(newMemoryUsers())
		if _, err := a.Register(ctx, "alice@example.com", "Alice", "correct horse battery"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if _, err := a.Register(ctx, "alice@example.com", "Alice2", "correct horse battery"); !errors.Is(err, ErrEmailExists) {
			t.Errorf("expected ErrEmailExists, got %v", err)
		}
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	a := NewPasswordAuthenticator(newMemoryUsers())
	registered, err := a.Register(ctx, "alice@example.com", "Alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	t.Run("valid credentials return the user", func(t *testing.T) {
		user, err := a.Authenticate(ctx, "alice@example.com", "correct horse battery")
		if err != nil {
			t.Fatalf("Authenticate failed: %v", err)
		}
		if user.ID != registered.ID {
			t.Errorf("ID = %s, want %s", user.ID, registered.ID)
		}
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "alice@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email is rejected", func(t *testing.T) {
		if _, err := a.Authenticate(ctx, "nobody@example.com", "whatever password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}
