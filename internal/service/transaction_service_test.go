package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tabtally/tally/internal/ledger"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func proposed(t *testing.T, groupID int64, payer, amount string, splits map[string]string) ledger.ProposedTransaction {
	t.Helper()
	p := ledger.ProposedTransaction{GroupID: groupID, PayerID: payer, Amount: dec(t, amount)}
	for recipient, share := range splits {
		p.Splits = append(p.Splits, ledger.ProposedSplit{RecipientID: recipient, Amount: dec(t, share)})
	}
	return p
}

func TestTransactionCreate(t *testing.T) {
	store := newTestStore(t)
	groups := NewGroupService(store)
	svc := NewTransactionService(store)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob", "carol")
	groupID := seedGroup(t, groups, store, "alice", "bob", "carol")

	t.Run("balanced expense is recorded with its splits", func(t *testing.T) {
		detail, err := svc.Create(ctx, "alice", proposed(t, groupID, "alice", "100",
			map[string]string{"bob": "60", "carol": "40"}))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if detail.Transaction.ID == 0 {
			t.Error("expected transaction ID assigned")
		}
		if len(detail.Splits) != 2 {
			t.Errorf("expected 2 splits, got %d", len(detail.Splits))
		}
		if detail.Transaction.CreatedBy == nil || *detail.Transaction.CreatedBy != "alice" {
			t.Errorf("CreatedBy = %v, want alice", detail.Transaction.CreatedBy)
		}
	})

	t.Run("unbalanced splits are rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", proposed(t, groupID, "alice", "100",
			map[string]string{"bob": "60", "carol": "39"}))
		if !errors.Is(err, ledger.ErrUnbalancedSplit) {
			t.Errorf("expected ErrUnbalancedSplit, got %v", err)
		}
	})

	t.Run("zero amount is invalid input", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", proposed(t, groupID, "alice", "0",
			map[string]string{"bob": "0"}))
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("non-member recipient is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, "alice", proposed(t, groupID, "alice", "10",
			map[string]string{"mallory": "10"}))
		if !errors.Is(err, ledger.ErrParticipantNotInGroup) {
			t.Errorf("expected ErrParticipantNotInGroup, got %v", err)
		}
	})

	t.Run("non-member requester is rejected before validation", func(t *testing.T) {
		_, err := svc.Create(ctx, "mallory", proposed(t, groupID, "alice", "10",
			map[string]string{"bob": "10"}))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("repayment must be recorded by the payer", func(t *testing.T) {
		if _, err := svc.Create(ctx, "bob", proposed(t, groupID, "bob", "-25",
			map[string]string{"alice": "-25"})); err != nil {
			t.Fatalf("repayment by payer failed: %v", err)
		}
		_, err := svc.Create(ctx, "alice", proposed(t, groupID, "bob", "-25",
			map[string]string{"alice": "-25"}))
		if !errors.Is(err, ledger.ErrInvalidRepayment) {
			t.Errorf("expected ErrInvalidRepayment, got %v", err)
		}
	})
}

func TestTransactionEdit(t *testing.T) {
	store := newTestStore(t)
	groups := NewGroupService(store)
	svc := NewTransactionService(store)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob", "carol")
	groupID := seedGroup(t, groups, store, "alice", "bob", "carol")

	record := func(t *testing.T, requester, payer, amount string, splits map[string]string) int64 {
		t.Helper()
		detail, err := svc.Create(ctx, requester, proposed(t, groupID, payer, amount, splits))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return detail.Transaction.ID
	}

	t.Run("splits are replaced wholesale", func(t *testing.T) {
		id := record(t, "bob", "bob", "90", map[string]string{"alice": "45", "carol": "45"})

		amount := dec(t, "120")
		err := svc.Edit(ctx, "bob", id, ledger.Patch{
			Amount: &amount,
			Splits: []ledger.ProposedSplit{
				{RecipientID: "alice", Amount: dec(t, "40")},
				{RecipientID: "bob", Amount: dec(t, "40")},
				{RecipientID: "carol", Amount: dec(t, "40")},
			},
		})
		if err != nil {
			t.Fatalf("Edit failed: %v", err)
		}

		detail, err := svc.Get(ctx, "bob", id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !detail.Transaction.Amount.Equal(dec(t, "120")) {
			t.Errorf("Amount = %s, want 120", detail.Transaction.Amount)
		}
		if len(detail.Splits) != 3 {
			t.Errorf("expected 3 splits after replacement, got %d", len(detail.Splits))
		}
		total := decimal.Zero
		for _, sp := range detail.Splits {
			total = total.Add(sp.Amount)
		}
		if !total.Equal(detail.Transaction.Amount) {
			t.Errorf("splits total %s, amount %s", total, detail.Transaction.Amount)
		}
	})

	t.Run("amount change without splits is rejected", func(t *testing.T) {
		id := record(t, "bob", "bob", "30", map[string]string{"alice": "30"})
		amount := dec(t, "50")
		err := svc.Edit(ctx, "bob", id, ledger.Patch{Amount: &amount})
		if !errors.Is(err, ledger.ErrSplitsRequiredForAmountChange) {
			t.Errorf("expected ErrSplitsRequiredForAmountChange, got %v", err)
		}
	})

	t.Run("expense cannot become a repayment", func(t *testing.T) {
		id := record(t, "bob", "bob", "30", map[string]string{"alice": "30"})
		amount := dec(t, "-30")
		err := svc.Edit(ctx, "bob", id, ledger.Patch{
			Amount: &amount,
			Splits: []ledger.ProposedSplit{{RecipientID: "alice", Amount: dec(t, "-30")}},
		})
		if !errors.Is(err, ledger.ErrRepaymentKindChange) {
			t.Errorf("expected ErrRepaymentKindChange, got %v", err)
		}
	})

	t.Run("uninvolved plain member cannot edit", func(t *testing.T) {
		id := record(t, "bob", "bob", "30", map[string]string{"alice": "30"})
		desc := "sneaky"
		err := svc.Edit(ctx, "carol", id, ledger.Patch{Description: &desc})
		if !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("group admin may edit any transaction", func(t *testing.T) {
		id := record(t, "bob", "bob", "30", map[string]string{"alice": "30"})
		desc := "corrected"
		if err := svc.Edit(ctx, "alice", id, ledger.Patch{Description: &desc}); err != nil {
			t.Fatalf("Edit by group creator failed: %v", err)
		}
		detail, err := svc.Get(ctx, "alice", id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if detail.Transaction.Description != "corrected" {
			t.Errorf("Description = %q", detail.Transaction.Description)
		}
	})
}

func TestTransactionDelete(t *testing.T) {
	store := newTestStore(t)
	groups := NewGroupService(store)
	svc := NewTransactionService(store)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob", "carol")
	groupID := seedGroup(t, groups, store, "alice", "bob", "carol")

	t.Run("payer deletes their own transaction", func(t *testing.T) {
		detail, err := svc.Create(ctx, "bob", proposed(t, groupID, "bob", "20",
			map[string]string{"carol": "20"}))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := svc.Delete(ctx, "bob", detail.Transaction.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := svc.Get(ctx, "bob", detail.Transaction.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("uninvolved plain member cannot delete", func(t *testing.T) {
		detail, err := svc.Create(ctx, "bob", proposed(t, groupID, "bob", "20",
			map[string]string{"alice": "20"}))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := svc.Delete(ctx, "carol", detail.Transaction.ID); !errors.Is(err, ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestAnonymizationPreservesLedger(t *testing.T) {
	store := newTestStore(t)
	groups := NewGroupService(store)
	svc := NewTransactionService(store)
	ctx := context.Background()
	seedUsers(t, store, "alice", "bob", "carol")
	groupID := seedGroup(t, groups, store, "alice", "bob", "carol")

	detail, err := svc.Create(ctx, "bob", proposed(t, groupID, "bob", "60",
		map[string]string{"alice": "20", "bob": "40"}))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := groups.Leave(ctx, "bob", groupID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	got, err := svc.Get(ctx, "alice", detail.Transaction.ID)
	if err != nil {
		t.Fatalf("Get after departure failed: %v", err)
	}
	if got.Transaction.PayerID != nil || got.Transaction.CreatedBy != nil {
		t.Errorf("expected payer and creator anonymized, got %+v", got.Transaction)
	}
	if !got.Transaction.Amount.Equal(dec(t, "60")) {
		t.Errorf("Amount = %s, want 60 after anonymization", got.Transaction.Amount)
	}
	total := decimal.Zero
	for _, sp := range got.Splits {
		total = total.Add(sp.Amount)
	}
	if !total.Equal(got.Transaction.Amount) {
		t.Errorf("splits total %s no longer balances amount %s", total, got.Transaction.Amount)
	}

	// The departed member's split share survives; only the reference is gone.
	var anonymizedShare *decimal.Decimal
	for i, sp := range got.Splits {
		if sp.RecipientID == nil {
			anonymizedShare = &got.Splits[i].Amount
		}
	}
	if anonymizedShare == nil {
		t.Fatal("expected bob's split recipient to be anonymized")
	}
	if !anonymizedShare.Equal(dec(t, "40")) {
		t.Errorf("anonymized share = %s, want 40", anonymizedShare)
	}
}
