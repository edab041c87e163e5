package persist

import (
	"context"
	"sync"
)

// Memory is an in-process adapter. Besides backing tests, it is the model
// for caller-supplied custom adapters: anything with Save/Load plugs in.
type Memory struct {
	mu        sync.Mutex
	snaps     map[string][]byte
	saveCalls int
}

// NewMemory creates an empty in-memory adapter.
func NewMemory() *Memory {
	return &Memory{snaps: map[string][]byte{}}
}

// Save implements Adapter. Snapshots are stored serialized so later
// mutation of the caller's structures cannot leak into the stored copy.
func (m *Memory) Save(_ context.Context, tableID string, snap *Snapshot) error {
	payload, err := snap.Marshal()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[tableID] = payload
	m.saveCalls++
	return nil
}

// Load implements Adapter. Returns (nil, nil) when no snapshot exists.
func (m *Memory) Load(_ context.Context, tableID string) (*Snapshot, error) {
	m.mu.Lock()
	payload, ok := m.snaps[tableID]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return ParseSnapshot(payload)
}

// Saves returns how many Save calls have been made, for debounce
// assertions in tests.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveCalls
}
