// Package locks provides the collaboration lock used while editing response
// plans. It is an in-memory map with a timeout: a single-instance
// approximation that does not survive restarts and is unsuitable for
// multi-instance deployments.
package locks

import (
	"sync"
	"time"
)

type lock struct {
	holderID  string
	expiresAt time.Time
}

type Manager struct {
	ttl   time.Duration
	mu    sync.Mutex
	locks map[string]lock
	now   func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:   ttl,
		locks: make(map[string]lock),
		now:   time.Now,
	}
}

// Acquire takes or refreshes the lock on recordID for holderID. It reports
// false with the current holder when someone else holds an unexpired lock.
func (m *Manager) Acquire(recordID, holderID string) (ok bool, holder string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if l, exists := m.locks[recordID]; exists && l.holderID != holderID && now.Before(l.expiresAt) {
		return false, l.holderID, l.expiresAt
	}

	l := lock{holderID: holderID, expiresAt: now.Add(m.ttl)}
	m.locks[recordID] = l
	return true, holderID, l.expiresAt
}

// Release drops the lock if holderID still holds it.
func (m *Manager) Release(recordID, holderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.locks[recordID]
	if !exists || l.holderID != holderID {
		return false
	}
	delete(m.locks, recordID)
	return true
}

// Holder returns the current unexpired holder of recordID, if any.
func (m *Manager) Holder(recordID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, exists := m.locks[recordID]
	if !exists || m.now().After(l.expiresAt) {
		return "", false
	}
	return l.holderID, true
}

// Sweep removes expired locks and returns how many were dropped.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	dropped := 0
	for id, l := range m.locks {
		if now.After(l.expiresAt) {
			delete(m.locks, id)
			dropped++
		}
	}
	return dropped
}
