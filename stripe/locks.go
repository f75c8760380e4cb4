package stripe

import (
	"sync"
)

// LockManager manages per-user locks to prevent concurrent webhook processing
// for the same user while allowing parallel processing for different users.
type LockManager struct {
	locks sync.Map // map[string]*sync.Mutex
}

// NewLockManager creates a new lock manager
func NewLockManager() *LockManager {
	return &LockManager{}
}

// LockUser acquires the lock for the given user identifier.
// Returns a function that must be called to release the lock.
func (lm *LockManager) LockUser(userID string) func() {
	lockInterface, _ := lm.locks.LoadOrStore(userID, &sync.Mutex{})
	lock, ok := lockInterface.(*sync.Mutex)
	if !ok {
		// This should never happen if we only store *sync.Mutex values
		panic("unexpected type in lock manager")
	}

	lock.Lock()
	return func() {
		lock.Unlock()
	}
}

// CleanupLocks removes locks that are not currently held. Can be called
// periodically to prevent growth from inactive users.
func (lm *LockManager) CleanupLocks() {
	lm.locks.Range(func(key, value any) bool {
		lock, ok := value.(*sync.Mutex)
		if !ok {
			return true
		}
		if lock.TryLock() {
			lock.Unlock()
			lm.locks.Delete(key)
		}
		return true
	})
}
