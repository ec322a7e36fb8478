package models

import "github.com/shopspring/decimal"

// Transaction is one recorded expense (or repayment) within a group.
//
// Invariant: the sum of the transaction's split amounts equals Amount with
// exact decimal equality. A negative Amount is only legal for a repayment,
// which has exactly one split.
type Transaction struct {
	// ID is the unique identifier for the transaction.
	ID int64

	// GroupID is the group this transaction belongs to.
	GroupID int64

	// CreatedBy is the user who recorded the transaction.
	// Nil after that user departs the group (anonymized).
	CreatedBy *string

	// PayerID is the user who fronted the money.
	// Nil after that user departs the group (anonymized).
	PayerID *string

	// Amount is the signed total. Negative only for repayments.
	Amount decimal.Decimal

	// Description is an optional note (up to 255 characters).
	Description string

	// CreatedAt is the Unix timestamp when the transaction was recorded.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last edit.
	UpdatedAt int64
}

// Split is one recipient's share of a transaction's amount.
type Split struct {
	// ID is the unique identifier for the split.
	ID int64

	// TransactionID is the parent transaction.
	TransactionID int64

	// GroupID is denormalized from the parent transaction and must equal it.
	GroupID int64

	// RecipientID is the user who owes this share.
	// Nil after that user departs the group (anonymized).
	RecipientID *string

	// Amount is this recipient's share of the transaction amount.
	Amount decimal.Decimal
}
