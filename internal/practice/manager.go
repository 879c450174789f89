package practice

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown practice IDs.
var ErrNotFound = errors.New("practice session not found")

// Manager tracks the live practice machines, one per browser tab.
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
	deps     Deps
	newID    func() string
}

// NewManager creates an empty registry.
func NewManager(deps Deps) *Manager {
	return &Manager{
		machines: make(map[string]*Machine),
		deps:     deps.withDefaults(),
		newID:    uuid.NewString,
	}
}

// Create registers a new machine and selects its first scenario.
func (m *Manager) Create(opts RegenerateOptions) (*Machine, Snapshot, error) {
	machine := NewMachine(m.newID(), m.deps)
	snap, err := machine.Regenerate(opts)
	if err != nil {
		return nil, snap, err
	}

	m.mu.Lock()
	m.machines[machine.ID()] = machine
	count := len(m.machines)
	m.mu.Unlock()

	m.deps.Logger.Info("Practice session registered", "practice_id", machine.ID(), "active", count)
	return machine, snap, nil
}

// Get returns the machine for id and marks it as used.
func (m *Manager) Get(id string) (*Machine, error) {
	m.mu.RLock()
	machine, ok := m.machines[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	machine.Touch()
	return machine, nil
}

// Remove closes and forgets the machine for id.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	machine, ok := m.machines[id]
	if ok {
		delete(m.machines, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	machine.Close()
	m.deps.Logger.Info("Practice session removed", "practice_id", id)
	return nil
}

// Len returns the number of live machines.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.machines)
}

// CloseAll disconnects every observer and empties the registry.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	machines := m.machines
	m.machines = make(map[string]*Machine)
	m.mu.Unlock()

	for _, machine := range machines {
		machine.Close()
	}
}
