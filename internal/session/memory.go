package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moyam/chatbot/internal/domain"
)

// Memory implements Store in process memory. Sessions do not survive a
// server restart; a reconnecting client always gets a fresh session.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state domain.SessionState
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]*entry)}
}

// newSessionID builds a time-prefixed id with a random suffix. Collision
// probability is negligible, and Create re-rolls on the off chance.
func newSessionID(now time.Time) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("sess_%d_%s", now.UnixMilli(), suffix)
}

// Create allocates a fresh session and returns its id.
func (m *Memory) Create(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	id := newSessionID(now)
	for _, exists := m.sessions[id]; exists; _, exists = m.sessions[id] {
		id = newSessionID(now)
	}

	m.sessions[id] = &entry{state: domain.SessionState{
		ID:          id,
		Vars:        make(map[string]domain.Value),
		ConnectedAt: now,
		LastActive:  now,
	}}
	return id, nil
}

func (m *Memory) entry(sessionID string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return e, nil
}

// Get returns a copy of a session's state.
func (m *Memory) Get(_ context.Context, sessionID string) (domain.SessionState, error) {
	e, err := m.entry(sessionID)
	if err != nil {
		return domain.SessionState{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return copyState(&e.state), nil
}

// Update runs fn against the session's state under the entry lock.
func (m *Memory) Update(_ context.Context, sessionID string, fn func(*domain.SessionState) error) error {
	e, err := m.entry(sessionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Mutate a copy so a failing mutator leaves the session untouched.
	next := copyState(&e.state)
	if err := fn(&next); err != nil {
		return err
	}
	next.LastActive = time.Now()
	e.state = next
	return nil
}

// Remove discards a session's state.
func (m *Memory) Remove(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrSessionNotFound)
	}
	delete(m.sessions, sessionID)
	return nil
}

// EvictIdle removes sessions idle for longer than olderThan.
func (m *Memory) EvictIdle(_ context.Context, olderThan time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-olderThan)

	m.mu.Lock()
	defer m.mu.Unlock()

	var evicted []string
	for id, e := range m.sessions {
		e.mu.Lock()
		idle := e.state.LastActive.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			evicted = append(evicted, id)
		}
	}
	return evicted, nil
}

// Len reports the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func copyState(s *domain.SessionState) domain.SessionState {
	out := *s
	out.Vars = domain.CopyVars(s.Vars)
	if out.Vars == nil {
		out.Vars = make(map[string]domain.Value)
	}
	out.History = append([]domain.Message(nil), s.History...)
	return out
}
