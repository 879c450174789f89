package practice

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often idle machines are looked for.
const DefaultSweepInterval = time.Minute

// RunSweeper evicts machines untouched for longer than ttl until ctx is done.
// Machines waiting on a collaborator are never evicted.
func (m *Manager) RunSweeper(ctx context.Context, interval, ttl time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.deps.Logger.Info("Practice sweeper started", "interval", interval, "ttl", ttl)

	for {
		select {
		case <-ticker.C:
			m.Sweep(ttl)
		case <-ctx.Done():
			m.deps.Logger.Info("Practice sweeper shutting down", "reason", ctx.Err())
			return nil
		}
	}
}

// Sweep evicts expired machines once and returns how many were removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.deps.Now().Add(-ttl)

	m.mu.RLock()
	var expired []*Machine
	for _, machine := range m.machines {
		if !machine.Busy() && machine.LastActive().Before(cutoff) {
			expired = append(expired, machine)
		}
	}
	m.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	removed := 0
	for _, machine := range expired {
		if err := m.Remove(machine.ID()); err == nil {
			removed++
		}
	}
	m.deps.Logger.Info("Practice sweeper cleanup completed", "cleaned", removed)
	return removed
}
