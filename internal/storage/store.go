// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/tabtally/tally/internal/models"
)

// ErrNotFound is returned by get-by-key operations when no row exists.
var ErrNotFound = errors.New("not found")

// Store defines the persistence operations over users, groups, memberships,
// transactions, and splits. This abstraction allows swapping storage backends
// (SQLite, PostgreSQL, etc.) without changing the service layer.
//
// Multi-entity writes compose inside InUnit; individual operations outside a
// unit auto-commit.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	// Groups
	CreateGroup(ctx context.Context, group *models.Group) error
	GetGroup(ctx context.Context, id int64) (*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	DeleteGroup(ctx context.Context, id int64) error
	ListGroupsByUser(ctx context.Context, userID string) ([]models.Group, error)
	CountGroupsCreatedBy(ctx context.Context, userID string) (int, error)

	// Memberships
	UpsertMembership(ctx context.Context, m *models.Membership) error
	GetMembership(ctx context.Context, groupID int64, userID string) (*models.Membership, error)
	ListMemberships(ctx context.Context, groupID int64) ([]models.Membership, error)
	CountJoinedAdmins(ctx context.Context, groupID int64) (int, error)
	DeleteMembership(ctx context.Context, groupID int64, userID string) error
	DeleteMemberships(ctx context.Context, groupID int64) error

	// Transactions and splits
	InsertTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, t *models.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	ListTransactionsByGroup(ctx context.Context, groupID int64) ([]models.Transaction, error)
	InsertSplits(ctx context.Context, splits []models.Split) error
	ListSplits(ctx context.Context, transactionID int64) ([]models.Split, error)
	DeleteSplits(ctx context.Context, transactionID int64) error

	// AnonymizeMember nulls every reference to userID on groupID's
	// transactions (payer, creator) and splits (recipient). Amounts are
	// never touched.
	AnonymizeMember(ctx context.Context, groupID int64, userID string) error

	// InUnit runs fn inside a single atomic unit of work. Every write fn
	// performs through the passed Store commits or rolls back as a whole.
	// Calls nested inside a unit join the enclosing one.
	InUnit(ctx context.Context, fn func(Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
