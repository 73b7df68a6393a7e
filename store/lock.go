package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quarryhq/quarry/types"
)

// LockManager hands out advisory, in-process, per-path mutual-exclusion
// tokens. Locks are cooperative: they serialize repository operations
// within one process and offer no cross-process protection.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

// pathLock is a channel-based mutex with a waiter refcount so idle
// entries can be removed from the table. holder records the current
// owner's token so contention failures can name it.
type pathLock struct {
	ch     chan struct{}
	refs   int
	holder string
}

// NewLockManager creates an empty lock table.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*pathLock)}
}

// Acquire takes the lock for path, waiting up to timeout if it is
// already held. It fails with an error matching types.ErrLockTimeout,
// naming the current holder's token, when the budget is exhausted. A
// non-positive timeout makes the acquisition non-blocking.
func (m *LockManager) Acquire(path string, timeout time.Duration) (*LockHandle, error) {
	m.mu.Lock()
	pl, ok := m.locks[path]
	if !ok {
		pl = &pathLock{ch: make(chan struct{}, 1)}
		m.locks[path] = pl
	}
	pl.refs++
	m.mu.Unlock()

	if timeout <= 0 {
		select {
		case pl.ch <- struct{}{}:
			return m.claimed(pl, path), nil
		default:
			holder := m.holderOf(pl)
			m.drop(path, pl)
			return nil, fmt.Errorf("lock %s held by %s: %w", path, holder, types.ErrLockTimeout)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case pl.ch <- struct{}{}:
		return m.claimed(pl, path), nil
	case <-timer.C:
		holder := m.holderOf(pl)
		m.drop(path, pl)
		return nil, fmt.Errorf("lock %s held by %s after %s: %w", path, holder, timeout, types.ErrLockTimeout)
	}
}

// claimed mints a handle for a freshly won lock and records its token as
// the path's current holder.
func (m *LockManager) claimed(pl *pathLock, path string) *LockHandle {
	token := uuid.NewString()
	m.mu.Lock()
	pl.holder = token
	m.mu.Unlock()
	return &LockHandle{m: m, pl: pl, path: path, token: token}
}

func (m *LockManager) holderOf(pl *pathLock) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pl.holder
}

// drop decrements a path's refcount and removes the table entry once no
// holder or waiter remains.
func (m *LockManager) drop(path string, pl *pathLock) {
	m.mu.Lock()
	pl.refs--
	if pl.refs == 0 {
		delete(m.locks, path)
	}
	m.mu.Unlock()
}

// LockHandle is the release token returned by Acquire.
type LockHandle struct {
	m     *LockManager
	pl    *pathLock
	path  string
	token string
	once  sync.Once
}

// Token identifies this acquisition; useful in diagnostics.
func (h *LockHandle) Token() string { return h.token }

// Path returns the locked path.
func (h *LockHandle) Path() string { return h.path }

// Release frees the lock. It is idempotent.
func (h *LockHandle) Release() {
	h.once.Do(func() {
		h.m.mu.Lock()
		h.pl.holder = ""
		h.m.mu.Unlock()
		<-h.pl.ch
		h.m.drop(h.path, h.pl)
	})
}
