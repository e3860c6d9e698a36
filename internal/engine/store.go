package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// Store is the durable home of vault snapshots.
//
// Update hands fn a private copy of the vault's state. When fn returns nil the
// store persists the copy and its drained outbox atomically; when fn fails
// nothing is written. Locate* map an entity id to the vault that owns it and
// fail with errs.NotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, st *vault.State) error
	VaultIDs(ctx context.Context) ([]string, error)
	View(ctx context.Context, vaultID string) (*vault.State, error)
	Update(ctx context.Context, vaultID string, fn func(*vault.State) error) error

	LocateDweller(ctx context.Context, id string) (string, error)
	LocateExploration(ctx context.Context, id string) (string, error)
	LocatePregnancy(ctx context.Context, id string) (string, error)
	LocateRoom(ctx context.Context, id string) (string, error)
}

// MemoryStore keeps snapshots in process. Used by tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*vault.State
	events map[string][]vault.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*vault.State),
		events: make(map[string][]vault.Event),
	}
}

func (m *MemoryStore) Create(ctx context.Context, st *vault.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.states[st.Vault.ID]; ok {
		return errs.Invalidf("vault %s already exists", st.Vault.ID)
	}
	c := st.Clone()
	m.events[c.Vault.ID] = append(m.events[c.Vault.ID], c.DrainOutbox()...)
	m.states[c.Vault.ID] = c
	return nil
}

func (m *MemoryStore) VaultIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) View(ctx context.Context, vaultID string) (*vault.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.states[vaultID]
	if !ok {
		return nil, errs.NotFoundf("vault %s not found", vaultID)
	}
	return st.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, vaultID string, fn func(*vault.State) error) error {
	m.mu.RLock()
	st, ok := m.states[vaultID]
	var work *vault.State
	if ok {
		work = st.Clone()
	}
	m.mu.RUnlock()
	if !ok {
		return errs.NotFoundf("vault %s not found", vaultID)
	}

	if err := fn(work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[vaultID] = append(m.events[vaultID], work.DrainOutbox()...)
	m.states[vaultID] = work
	return nil
}

// Events returns every committed event of a vault, oldest first.
func (m *MemoryStore) Events(vaultID string) []vault.Event {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]vault.Event(nil), m.events[vaultID]...)
}

func (m *MemoryStore) LocateDweller(ctx context.Context, id string) (string, error) {
	return m.locate("dweller", id, func(st *vault.State) bool { return st.Dweller(id) != nil })
}

func (m *MemoryStore) LocateExploration(ctx context.Context, id string) (string, error) {
	return m.locate("exploration", id, func(st *vault.State) bool { return st.Exploration(id) != nil })
}

func (m *MemoryStore) LocatePregnancy(ctx context.Context, id string) (string, error) {
	return m.locate("pregnancy", id, func(st *vault.State) bool { return st.Pregnancy(id) != nil })
}

func (m *MemoryStore) LocateRoom(ctx context.Context, id string) (string, error) {
	return m.locate("room", id, func(st *vault.State) bool { return st.Room(id) != nil })
}

func (m *MemoryStore) locate(kind, id string, has func(*vault.State) bool) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for vid, st := range m.states {
		if has(st) {
			return vid, nil
		}
	}
	return "", errs.NotFoundf("%s %s not found", kind, id)
}

// vaultLocks serialises ticks and commands per vault.
type vaultLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *vaultLocks) lock(vaultID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[vaultID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[vaultID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
