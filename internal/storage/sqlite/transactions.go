package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/storage"
)

// InsertTransaction inserts a new transaction and populates its generated ID.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, t *models.Transaction) error {
	now := time.Now().Unix()
	if t.CreatedAt == 0 {
		t.CreatedAt = now
	}
	if t.UpdatedAt == 0 {
		t.UpdatedAt = now
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO transactions (group_id, created_by, payer_id, amount, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.GroupID, t.CreatedBy, t.PayerID, t.Amount.String(), t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStore) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	t := &models.Transaction{}
	var amount string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, group_id, created_by, payer_id, amount, description, created_at, updated_at
		FROM transactions
		WHERE id = ?
	`, id).Scan(&t.ID, &t.GroupID, &t.CreatedBy, &t.PayerID, &amount, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	t.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction amount %q: %w", amount, err)
	}
	return t, nil
}

// UpdateTransaction persists payer, amount, description, and updated_at.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t *models.Transaction) error {
	t.UpdatedAt = time.Now().Unix()
	res, err := s.q.ExecContext(ctx, `
		UPDATE transactions SET payer_id = ?, amount = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, t.PayerID, t.Amount.String(), t.Description, t.UpdatedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes the transaction and its splits.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM splits WHERE transaction_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	res, err := s.q.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListTransactionsByGroup returns all of the group's transactions.
func (s *SQLiteStore) ListTransactionsByGroup(ctx context.Context, groupID int64) ([]models.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, group_id, created_by, payer_id, amount, description, created_at, updated_at
		FROM transactions
		WHERE group_id = ?
		ORDER BY id
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var amount string
		if err := rows.Scan(&t.ID, &t.GroupID, &t.CreatedBy, &t.PayerID, &amount, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction amount %q: %w", amount, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txns, nil
}

// InsertSplits inserts the split rows and populates their generated IDs.
func (s *SQLiteStore) InsertSplits(ctx context.Context, splits []models.Split) error {
	for i := range splits {
		sp := &splits[i]
		res, err := s.q.ExecContext(ctx, `
			INSERT INTO splits (transaction_id, group_id, recipient_id, amount)
			VALUES (?, ?, ?, ?)
		`, sp.TransactionID, sp.GroupID, sp.RecipientID, sp.Amount.String())
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
		sp.ID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read split id: %w", err)
		}
	}
	return nil
}

// ListSplits returns the transaction's splits in insertion order.
func (s *SQLiteStore) ListSplits(ctx context.Context, transactionID int64) ([]models.Split, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, transaction_id, group_id, recipient_id, amount
		FROM splits
		WHERE transaction_id = ?
		ORDER BY id
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		var sp models.Split
		var amount string
		if err := rows.Scan(&sp.ID, &sp.TransactionID, &sp.GroupID, &sp.RecipientID, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		sp.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse split amount %q: %w", amount, err)
		}
		splits = append(splits, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// DeleteSplits removes every split of the transaction.
func (s *SQLiteStore) DeleteSplits(ctx context.Context, transactionID int64) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM splits WHERE transaction_id = ?", transactionID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}
	return nil
}

// AnonymizeMember nulls the user's references on the group's transactions and
// splits. Amounts are untouched so ledger totals never change.
func (s *SQLiteStore) AnonymizeMember(ctx context.Context, groupID int64, userID string) error {
	if _, err := s.q.ExecContext(ctx,
		"UPDATE transactions SET payer_id = NULL WHERE group_id = ? AND payer_id = ?",
		groupID, userID,
	); err != nil {
		return fmt.Errorf("failed to anonymize payer references: %w", err)
	}
	if _, err := s.q.ExecContext(ctx,
		"UPDATE transactions SET created_by = NULL WHERE group_id = ? AND created_by = ?",
		groupID, userID,
	); err != nil {
		return fmt.Errorf("failed to anonymize creator references: %w", err)
	}
	if _, err := s.q.ExecContext(ctx,
		"UPDATE splits SET recipient_id = NULL WHERE group_id = ? AND recipient_id = ?",
		groupID, userID,
	); err != nil {
		return fmt.Errorf("failed to anonymize recipient references: %w", err)
	}
	return nil
}
