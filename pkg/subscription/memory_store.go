package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and single-process use.
// A per-company mutex provides the single-writer discipline; mutations are
// applied to a copy and swapped in only on success, so a failed mutation
// never leaves partial state behind.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*Snapshot
	locks     map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[uuid.UUID]*Snapshot),
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (m *MemoryStore) Create(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := snap.Subscription.CompanyID
	if _, exists := m.snapshots[id]; exists {
		return ErrAlreadyExists
	}
	m.snapshots[id] = snap.Clone()
	m.locks[id] = &sync.Mutex{}
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, companyID uuid.UUID) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[companyID]
	if !ok {
		return nil, ErrNotFound
	}
	return snap.Clone(), nil
}

func (m *MemoryStore) Mutate(ctx context.Context, companyID uuid.UUID, fn func(ctx context.Context, snap *Snapshot) error) error {
	m.mu.RLock()
	lock, ok := m.locks[companyID]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()

	m.mu.RLock()
	current := m.snapshots[companyID]
	m.mu.RUnlock()

	working := current.Clone()
	if err := fn(ctx, working); err != nil {
		return err
	}

	m.mu.Lock()
	m.snapshots[companyID] = working
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) CompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ Store = (*MemoryStore)(nil)
