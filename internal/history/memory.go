package history

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store used in tests and redis-less development
// runs. Each session has its own ring guarded by its own mutex so appends
// for different sessions do not contend.
type Memory struct {
	mu    sync.RWMutex
	rings map[string]*ring
	size  int
}

type ring struct {
	mu      sync.Mutex
	entries [][]byte // newest first
}

// NewMemory creates an in-memory store with the given ring size.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultSize
	}
	return &Memory{rings: make(map[string]*ring), size: size}
}

func (m *Memory) ring(sessionID string) *ring {
	m.mu.RLock()
	r, ok := m.rings[sessionID]
	m.mu.RUnlock()
	if ok {
		return r
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok = m.rings[sessionID]; ok {
		return r
	}
	r = &ring{}
	m.rings[sessionID] = r
	return r
}

// Append pushes raw to the front and trims in one critical section.
func (m *Memory) Append(_ context.Context, sessionID string, raw []byte) error {
	cp := make([]byte, len(raw))
	copy(cp, raw)

	r := m.ring(sessionID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([][]byte{cp}, r.entries...)
	if len(r.entries) > m.size {
		r.entries = r.entries[:m.size]
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *Memory) Recent(_ context.Context, sessionID string, limit int) ([]json.RawMessage, error) {
	if limit <= 0 || limit > m.size {
		limit = m.size
	}
	m.mu.RLock()
	r, ok := m.rings[sessionID]
	m.mu.RUnlock()
	if !ok {
		return []json.RawMessage{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := limit
	if n > len(r.entries) {
		n = len(r.entries)
	}
	out := make([]json.RawMessage, 0, n)
	for _, e := range r.entries[:n] {
		out = append(out, json.RawMessage(e))
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
