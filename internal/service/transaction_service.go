package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tabtally/tally/internal/ledger"
	"github.com/tabtally/tally/internal/models"
	"github.com/tabtally/tally/internal/policy"
	"github.com/tabtally/tally/internal/storage"
)

// TransactionService coordinates transaction and split mutations. Policy and
// consistency validation run before any write; every multi-entity write is
// one atomic unit.
type TransactionService struct {
	store storage.Store
}

// NewTransactionService creates a new TransactionService with the given
// storage backend.
func NewTransactionService(store storage.Store) *TransactionService {
	return &TransactionService{store: store}
}

// TransactionDetail is a transaction with its splits.
type TransactionDetail struct {
	Transaction models.Transaction
	Splits      []models.Split
}

// joinedLookup preloads the group's memberships into a pure lookup for the
// ledger validator.
func joinedLookup(ctx context.Context, st storage.Store, groupID int64) (ledger.StatusLookup, error) {
	members, err := st.ListMemberships(ctx, groupID)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]models.MemberStatus, len(members))
	for _, m := range members {
		statuses[m.UserID] = m.Status
	}
	return func(userID string) (models.MemberStatus, bool) {
		s, ok := statuses[userID]
		return s, ok
	}, nil
}

// Create records a new transaction with its splits as one unit. The
// requester must be an active member of the group, and the proposal must
// pass the consistency invariants.
func (s *TransactionService) Create(ctx context.Context, requesterID string, p ledger.ProposedTransaction) (*TransactionDetail, error) {
	if p.Amount.IsZero() {
		return nil, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	if len(p.Splits) == 0 {
		return nil, fmt.Errorf("%w: at least one split is required", ErrInvalidInput)
	}
	if len(p.Description) > 255 {
		return nil, fmt.Errorf("%w: description must be at most 255 characters", ErrInvalidInput)
	}

	var detail *TransactionDetail
	err := s.store.InUnit(ctx, func(st storage.Store) error {
		group, err := st.GetGroup(ctx, p.GroupID)
		if err != nil {
			return mapStorageErr(err, "group")
		}
		requester, err := st.GetMembership(ctx, p.GroupID, requesterID)
		if err != nil {
			return mapStorageErr(err, "you are not a member of this group")
		}
		d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: requester}, policy.ActionCreateTransaction)
		if !d.Allowed() {
			return denied(d)
		}

		joined, err := joinedLookup(ctx, st, p.GroupID)
		if err != nil {
			return err
		}
		if err := ledger.ValidateCreate(p, requesterID, joined); err != nil {
			return err
		}

		creator, payer := requesterID, p.PayerID
		txn := &models.Transaction{
			GroupID:     p.GroupID,
			CreatedBy:   &creator,
			PayerID:     &payer,
			Amount:      p.Amount,
			Description: p.Description,
		}
		if err := st.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		splits := make([]models.Split, len(p.Splits))
		for i, sp := range p.Splits {
			recipient := sp.RecipientID
			splits[i] = models.Split{
				TransactionID: txn.ID,
				GroupID:       p.GroupID,
				RecipientID:   &recipient,
				Amount:        sp.Amount,
			}
		}
		if err := st.InsertSplits(ctx, splits); err != nil {
			return err
		}

		detail = &TransactionDetail{Transaction: *txn, Splits: splits}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("transaction created",
		"transaction_id", detail.Transaction.ID,
		"group_id", p.GroupID,
		"amount", p.Amount.String(),
		"splits", len(detail.Splits),
	)
	return detail, nil
}

// Get returns a transaction with its splits. The requester must be an active
// member of its group.
func (s *TransactionService) Get(ctx context.Context, requesterID string, id int64) (*TransactionDetail, error) {
	txn, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err, "transaction")
	}
	if err := s.requireViewer(ctx, requesterID, txn.GroupID); err != nil {
		return nil, err
	}
	splits, err := s.store.ListSplits(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TransactionDetail{Transaction: *txn, Splits: splits}, nil
}

// ListByGroup returns all of the group's transactions with their splits. The
// requester must be an active member.
func (s *TransactionService) ListByGroup(ctx context.Context, requesterID string, groupID int64) ([]TransactionDetail, error) {
	if err := s.requireViewer(ctx, requesterID, groupID); err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactionsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	details := make([]TransactionDetail, len(txns))
	for i, txn := range txns {
		splits, err := s.store.ListSplits(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		details[i] = TransactionDetail{Transaction: txn, Splits: splits}
	}
	return details, nil
}

func (s *TransactionService) requireViewer(ctx context.Context, requesterID string, groupID int64) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return mapStorageErr(err, "group")
	}
	member, err := s.store.GetMembership(ctx, groupID, requesterID)
	if err != nil {
		return mapStorageErr(err, "you are not a member of this group")
	}
	d := policy.CanPerform(policy.Input{CreatorID: group.CreatedBy, Requester: member}, policy.ActionViewTransactions)
	if !d.Allowed() {
		return denied(d)
	}
	return nil
}

// Edit applies a partial update to a transaction. Supplied splits replace the
// prior set wholesale; validation runs against current state before any
// write.
func (s *TransactionService) Edit(ctx context.Context, requesterID string, id int64, patch ledger.Patch) error {
	if patch.Amount != nil && patch.Amount.IsZero() {
		return fmt.Errorf("%w: amount cannot be zero", ErrInvalidInput)
	}
	if patch.Description != nil && len(*patch.Description) > 255 {
		return fmt.Errorf("%w: description must be at most 255 characters", ErrInvalidInput)
	}

	return s.store.InUnit(ctx, func(st storage.Store) error {
		txn, err := st.GetTransaction(ctx, id)
		if err != nil {
			return mapStorageErr(err, "transaction")
		}
		group, err := st.GetGroup(ctx, txn.GroupID)
		if err != nil {
			return mapStorageErr(err, "group")
		}
		requester, err := st.GetMembership(ctx, txn.GroupID, requesterID)
		if err != nil {
			return mapStorageErr(err, "you are not a member of this group")
		}
		d := policy.CanPerform(policy.Input{
			CreatorID:   group.CreatedBy,
			Requester:   requester,
			Transaction: txn,
		}, policy.ActionEditTransaction)
		if !d.Allowed() {
			return denied(d)
		}

		currentSplits, err := st.ListSplits(ctx, id)
		if err != nil {
			return err
		}
		joined, err := joinedLookup(ctx, st, txn.GroupID)
		if err != nil {
			return err
		}
		if err := ledger.ValidateEdit(*txn, len(currentSplits), patch, joined); err != nil {
			return err
		}

		if patch.Amount != nil {
			txn.Amount = *patch.Amount
		}
		if patch.PayerID != nil {
			txn.PayerID = patch.PayerID
		}
		if patch.Description != nil {
			txn.Description = *patch.Description
		}
		if err := st.UpdateTransaction(ctx, txn); err != nil {
			return err
		}

		if patch.Splits != nil {
			if err := st.DeleteSplits(ctx, id); err != nil {
				return err
			}
			splits := make([]models.Split, len(patch.Splits))
			for i, sp := range patch.Splits {
				recipient := sp.RecipientID
				splits[i] = models.Split{
					TransactionID: id,
					GroupID:       txn.GroupID,
					RecipientID:   &recipient,
					Amount:        sp.Amount,
				}
			}
			if err := st.InsertSplits(ctx, splits); err != nil {
				return err
			}
		}

		slog.Info("transaction updated", "transaction_id", id, "requester", requesterID)
		return nil
	})
}

// Delete removes a transaction and its splits. Permitted to the transaction's
// creator, its payer, or a group admin/creator; once authorized the deletion
// is unconditional.
func (s *TransactionService) Delete(ctx context.Context, requesterID string, id int64) error {
	return s.store.InUnit(ctx, func(st storage.Store) error {
		txn, err := st.GetTransaction(ctx, id)
		if err != nil {
			return mapStorageErr(err, "transaction")
		}
		group, err := st.GetGroup(ctx, txn.GroupID)
		if err != nil {
			return mapStorageErr(err, "group")
		}
		requester, err := st.GetMembership(ctx, txn.GroupID, requesterID)
		if err != nil {
			return mapStorageErr(err, "you are not a member of this group")
		}
		d := policy.CanPerform(policy.Input{
			CreatorID:   group.CreatedBy,
			Requester:   requester,
			Transaction: txn,
		}, policy.ActionDeleteTransaction)
		if !d.Allowed() {
			return denied(d)
		}

		if err := st.DeleteTransaction(ctx, id); err != nil {
			return err
		}
		slog.Info("transaction deleted", "transaction_id", id, "requester", requesterID)
		return nil
	})
}
