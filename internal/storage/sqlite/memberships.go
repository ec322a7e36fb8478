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

// UpsertMembership inserts the membership row, or overwrites the existing
// (group, user) row. Re-inviting reuses the row rather than duplicating it.
func (s *SQLiteStore) UpsertMembership(ctx context.Context, m *models.Membership) error {
	now := time.Now().Unix()
	if m.CreatedAt == 0 {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO memberships (group_id, user_id, is_admin, status, invited_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (group_id, user_id) DO UPDATE SET
			is_admin = excluded.is_admin,
			status = excluded.status,
			invited_by = excluded.invited_by,
			updated_at = excluded.updated_at
	`, m.GroupID, m.UserID, m.IsAdmin, string(m.Status), m.InvitedBy, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}
	return nil
}

// GetMembership retrieves the (group, user) membership row.
func (s *SQLiteStore) GetMembership(ctx context.Context, groupID int64, userID string) (*models.Membership, error) {
	m := &models.Membership{}
	var status string
	err := s.q.QueryRowContext(ctx, `
		SELECT group_id, user_id, is_admin, status, invited_by, created_at, updated_at
		FROM memberships
		WHERE group_id = ? AND user_id = ?
	`, groupID, userID).Scan(&m.GroupID, &m.UserID, &m.IsAdmin, &status, &m.InvitedBy, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	m.Status = models.MemberStatus(status)
	return m, nil
}

// ListMemberships returns every membership row in the group, all statuses.
func (s *SQLiteStore) ListMemberships(ctx context.Context, groupID int64) ([]models.Membership, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT group_id, user_id, is_admin, status, invited_by, created_at, updated_at
		FROM memberships
		WHERE group_id = ?
		ORDER BY user_id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []models.Membership
	for rows.Next() {
		var m models.Membership
		var status string
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.IsAdmin, &status, &m.InvitedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Status = models.MemberStatus(status)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}
	return members, nil
}

// CountJoinedAdmins returns the number of joined members holding the admin
// flag, including the creator.
func (s *SQLiteStore) CountJoinedAdmins(ctx context.Context, groupID int64) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM memberships WHERE group_id = ? AND status = ? AND is_admin = 1",
		groupID, string(models.StatusJoined),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

// DeleteMembership removes one (group, user) membership row. Only used by
// account deletion; departures keep the row under a terminal status.
func (s *SQLiteStore) DeleteMembership(ctx context.Context, groupID int64, userID string) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM memberships WHERE group_id = ? AND user_id = ?", groupID, userID); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

// DeleteMemberships removes every membership row of the group. Only used by
// group deletion.
func (s *SQLiteStore) DeleteMemberships(ctx context.Context, groupID int64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM memberships WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to delete memberships: %w", err)
	}
	return nil
}
