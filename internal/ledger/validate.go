// Package ledger enforces the consistency invariants on a transaction and its
// splits: exact balance, participant membership, and repayment shape. It is
// pure: membership state arrives through a resolved lookup function and no
// I/O happens here.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tabtally/tally/internal/models"
)

var (
	// ErrUnbalancedSplit: the split amounts do not sum to the transaction
	// amount with exact decimal equality.
	ErrUnbalancedSplit = errors.New("splits do not balance against the transaction amount")

	// ErrParticipantNotInGroup: the payer or a split recipient does not hold
	// joined status in the transaction's group.
	ErrParticipantNotInGroup = errors.New("participant is not an active member of the group")

	// ErrInvalidRepayment: a negative-amount transaction violates the
	// repayment shape (exactly one split, recorded by the payer).
	ErrInvalidRepayment = errors.New("invalid repayment")

	// ErrRepaymentKindChange: an edit would flip a transaction between
	// repayment and non-repayment.
	ErrRepaymentKindChange = errors.New("a transaction cannot change between repayment and expense")

	// ErrSplitsRequiredForAmountChange: an amount change was requested
	// without re-supplying the full split set (or vice versa).
	ErrSplitsRequiredForAmountChange = errors.New("amount and splits must be updated together")
)

// StatusLookup resolves a user's membership status within the group under
// validation. The second return is false when no membership row exists.
type StatusLookup func(userID string) (models.MemberStatus, bool)

// ProposedSplit is one recipient share in a proposed transaction.
type ProposedSplit struct {
	RecipientID string
	Amount      decimal.Decimal
}

// ProposedTransaction is a fully-specified transaction awaiting validation.
type ProposedTransaction struct {
	GroupID     int64
	PayerID     string
	Amount      decimal.Decimal
	Description string
	Splits      []ProposedSplit
}

// Patch carries the independently-optional fields of a transaction edit.
// Nil means "not supplied". Splits, when supplied, fully replace the prior
// set.
type Patch struct {
	Amount      *decimal.Decimal
	PayerID     *string
	Description *string
	Splits      []ProposedSplit
}

// IsRepayment classifies a transaction: negative amount with exactly one
// split.
func IsRepayment(amount decimal.Decimal, splitCount int) bool {
	return amount.IsNegative() && splitCount == 1
}

// ValidateCreate checks a proposed transaction against the balance,
// membership, and repayment invariants. requesterID is the user recording the
// transaction; joined resolves statuses in p's group.
func ValidateCreate(p ProposedTransaction, requesterID string, joined StatusLookup) error {
	if err := checkBalance(p.Amount, p.Splits); err != nil {
		return err
	}
	if err := checkJoined(p.PayerID, joined); err != nil {
		return err
	}
	for _, s := range p.Splits {
		if err := checkJoined(s.RecipientID, joined); err != nil {
			return err
		}
	}
	if p.Amount.IsNegative() {
		if len(p.Splits) != 1 {
			return fmt.Errorf("%w: repayments must have exactly one recipient", ErrInvalidRepayment)
		}
		if p.PayerID != requesterID {
			return fmt.Errorf("%w: cannot record a repayment on another user's behalf", ErrInvalidRepayment)
		}
	}
	return nil
}

// ValidateEdit checks a partial update against the current transaction and
// split set. Only supplied fields are validated; if splits are supplied the
// amount must be too, and an amount change always requires the full new split
// set.
func ValidateEdit(current models.Transaction, currentSplitCount int, patch Patch, joined StatusLookup) error {
	amountChanging := patch.Amount != nil && !patch.Amount.Equal(current.Amount)
	if amountChanging && patch.Splits == nil {
		return fmt.Errorf("%w: the prior split set cannot be assumed to still balance", ErrSplitsRequiredForAmountChange)
	}
	if patch.Splits != nil && patch.Amount == nil {
		return fmt.Errorf("%w: supply the amount the new splits balance against", ErrSplitsRequiredForAmountChange)
	}
	if patch.Splits != nil {
		if err := checkBalance(*patch.Amount, patch.Splits); err != nil {
			return err
		}
		for _, s := range patch.Splits {
			if err := checkJoined(s.RecipientID, joined); err != nil {
				return err
			}
		}
	}
	if patch.PayerID != nil {
		if err := checkJoined(*patch.PayerID, joined); err != nil {
			return err
		}
	}

	newAmount := current.Amount
	if patch.Amount != nil {
		newAmount = *patch.Amount
	}
	newSplitCount := currentSplitCount
	if patch.Splits != nil {
		newSplitCount = len(patch.Splits)
	}
	was := IsRepayment(current.Amount, currentSplitCount)
	is := IsRepayment(newAmount, newSplitCount)
	if was != is {
		return ErrRepaymentKindChange
	}
	return nil
}

// checkBalance enforces sum(splits) == amount, exact decimal equality.
func checkBalance(amount decimal.Decimal, splits []ProposedSplit) error {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}
	if !total.Equal(amount) {
		return fmt.Errorf("%w: splits total %s, transaction amount %s",
			ErrUnbalancedSplit, total.String(), amount.String())
	}
	return nil
}

func checkJoined(userID string, joined StatusLookup) error {
	status, ok := joined(userID)
	if !ok || status != models.StatusJoined {
		return fmt.Errorf("%w: %s", ErrParticipantNotInGroup, userID)
	}
	return nil
}
