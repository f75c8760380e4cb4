// Package ledger defines the per-user credit balance store contract and
// provides an in-memory implementation. Production deployments use the
// MongoDB-backed store from the db package.
package ledger

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidAmount is returned by Credit and Debit when amount < 1.
var ErrInvalidAmount = errors.New("amount must be a positive integer")

// InsufficientFundsError is returned by Debit when the requested amount
// exceeds the current balance. It carries the balance observed at the
// time of the failed debit so the caller can build an actionable response.
type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d", e.Balance, e.Required)
}

// Store is the authoritative mapping from user identifier to credit balance.
// Accounts are created implicitly on first mutation with balance 0 and a
// balance never goes negative. All three operations on the same user are
// linearizable with respect to each other.
type Store interface {
	// Balance returns the current balance for the user. Never-seen users
	// have balance 0.
	Balance(ctx context.Context, userID string) (int64, error)
	// Credit adds amount to the user's balance and returns the new balance.
	Credit(ctx context.Context, userID string, amount int64) (int64, error)
	// Debit subtracts amount from the user's balance and returns the new
	// balance. It fails with *InsufficientFundsError when amount exceeds
	// the current balance, without partially applying.
	Debit(ctx context.Context, userID string, amount int64) (int64, error)
}
