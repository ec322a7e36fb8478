package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/storage"
)

// CreateGroup inserts a new group and populates its generated ID.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.UpdatedAt == 0 {
		group.UpdatedAt = group.CreatedAt
	}

	res, err := s.q.ExecContext(ctx,
		"INSERT INTO groups (name, description, created_by, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		group.Name, group.Description, group.CreatedBy, group.CreatedAt, group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}

	group.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read group id: %w", err)
	}
	return nil
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, id int64) (*models.Group, error) {
	group := &models.Group{}
	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, description, created_by, created_at, updated_at FROM groups WHERE id = ?",
		id,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}

// UpdateGroup persists the group's name, description, owner, and updated_at.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().Unix()
	res, err := s.q.ExecContext(ctx,
		"UPDATE groups SET name = ?, description = ?, created_by = ?, updated_at = ? WHERE id = ?",
		group.Name, group.Description, group.CreatedBy, group.UpdatedAt, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteGroup removes the group row. Memberships cascade via foreign key;
// transactions and splits are intentionally left orphaned by group_id.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListGroupsByUser returns every group where the user holds a membership row,
// regardless of status.
func (s *SQLiteStore) ListGroupsByUser(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT g.id, g.name, g.description, g.created_by, g.created_at, g.updated_at
		FROM groups g
		JOIN memberships m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// CountGroupsCreatedBy returns how many groups the user currently owns.
func (s *SQLiteStore) CountGroupsCreatedBy(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM groups WHERE created_by = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count owned groups: %w", err)
	}
	return n, nil
}
