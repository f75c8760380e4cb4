package ledger

import (
	"context"
	"sync"
)

// MemoryStore is a simple in-memory implementation of Store. Balances are
// lost on restart, so it is only suitable for tests and local development.
// A single mutex covers every read-check-write cycle, which is the whole
// concurrency discipline at this scale.
type MemoryStore struct {
	mutex    sync.Mutex
	balances map[string]int64
}

// NewMemoryStore creates a new in-memory credit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[string]int64),
	}
}

// Balance returns the current balance for the user, 0 for unseen users.
func (m *MemoryStore) Balance(_ context.Context, userID string) (int64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.balances[userID], nil
}

// Credit adds amount to the user's balance and returns the new balance.
func (m *MemoryStore) Credit(_ context.Context, userID string, amount int64) (int64, error) {
	if amount < 1 {
		return 0, ErrInvalidAmount
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.balances[userID] += amount
	return m.balances[userID], nil
}

// Debit subtracts amount from the user's balance. The check and the write
// happen under the same critical section, so two concurrent debits of the
// whole balance cannot both succeed.
func (m *MemoryStore) Debit(_ context.Context, userID string, amount int64) (int64, error) {
	if amount < 1 {
		return 0, ErrInvalidAmount
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()
	balance := m.balances[userID]
	if amount > balance {
		return 0, &InsufficientFundsError{Balance: balance, Required: amount}
	}
	m.balances[userID] = balance - amount
	return m.balances[userID], nil
}
