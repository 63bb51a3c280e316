// Package session holds in-progress multi-step interaction state, keyed by
// WhatsApp user identity. State lives only in process memory: a restart drops
// any in-flight flow and the user simply lands back on the menu.
package session

import (
	"sync"
	"time"
)

// Flow actions.
const (
	ActionCollectingOrder = "collecting_order_data"
)

// Order collection steps, in sequence.
const (
	StepAwaitingName    = "awaiting_name"
	StepAwaitingAddress = "awaiting_address"
	StepAwaitingPayment = "awaiting_payment_method"
)

// OrderDraft accumulates order fields as the flow advances.
type OrderDraft struct {
	Product       string
	Name          string
	Address       string
	PaymentMethod string
}

// State is one user's in-progress flow. A user with no State has no flow in
// progress and gets menu routing.
type State struct {
	Action    string
	Step      string
	Draft     OrderDraft
	UpdatedAt time.Time
}

// Store is the session table contract. It is injected rather than ambient so
// a distributed cache can replace the in-memory table if the bridge ever runs
// multi-instance.
type Store interface {
	// Get returns the state for a user, if any.
	Get(userID string) (State, bool)
	// Put creates or replaces the state for a user.
	Put(userID string, st State)
	// Delete removes the state for a user. Deleting a missing key is a no-op.
	Delete(userID string)
}

// MemoryStore is the process-local Store implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Get(userID string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[userID]
	return st, ok
}

func (m *MemoryStore) Put(userID string, st State) {
	st.UpdatedAt = time.Now()
	m.mu.Lock()
	m.states[userID] = st
	m.mu.Unlock()
}

func (m *MemoryStore) Delete(userID string) {
	m.mu.Lock()
	delete(m.states, userID)
	m.mu.Unlock()
}

// Len returns the number of active sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}

// Sweep removes sessions idle longer than maxIdle and returns how many were
// dropped. An abandoned order collection swept here just means the user's
// next message routes through the menu again.
func (m *MemoryStore) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, st := range m.states {
		if st.UpdatedAt.Before(cutoff) {
			delete(m.states, id)
			removed++
		}
	}
	return removed
}
