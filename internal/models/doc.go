// Package models defines the core domain models for Tally.
//
// # Models
//
//   - User: local mirror of an identity-provider account
//   - Group: a set of users sharing expenses
//   - Membership: the (group, user) relationship, carrying status and admin flag
//   - Transaction: one recorded expense or repayment within a group
//   - Split: one recipient's share of a transaction's amount
//
// # Design Principles
//
//  1. **External identity**: user IDs are provider-issued strings; Tally only
//     stores a local mirror row, never credentials for externally-managed users.
//  2. **Status over deletion**: memberships are never hard-deleted while the
//     group exists; the status field encodes removal.
//  3. **Exact money**: all amounts are decimal.Decimal and compared with exact
//     equality, never floats.
//  4. **Avoid circular references**: models reference each other by ID, not by
//     pointer.
package models
