// Package chat bridges WebSocket connections to the scenario engine.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// Manager tracks the active WebSocket connection per session and
// publishes frames onto it. Each session has exactly one connection; a
// session id is never reused across connects.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*websocket.Conn
}

// NewManager creates an empty connection registry.
func NewManager() *Manager {
	return &Manager{active: make(map[string]*websocket.Conn)}
}

// Register adds the connection for a session.
func (m *Manager) Register(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.active[sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}
	m.active[sessionID] = conn
	slog.Info("Chat session registered", "session_id", sessionID)
}

// Unregister removes the connection for a session if it is still the
// registered one.
func (m *Manager) Unregister(sessionID string, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.active[sessionID]; exists && current == conn {
		delete(m.active, sessionID)
		slog.Info("Chat session unregistered", "session_id", sessionID)
	}
}

// Active returns the registered connection for a session, or nil.
func (m *Manager) Active(sessionID string) *websocket.Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// CloseSession forcefully terminates a session's connection. Used by the
// TTL worker when an idle session is evicted.
func (m *Manager) CloseSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, ok := m.active[sessionID]; ok {
		_ = conn.Close(websocket.StatusNormalClosure, "session expired")
		delete(m.active, sessionID)
		slog.Info("Chat session closed", "session_id", sessionID)
	}
}

// Publish serializes a frame and writes it to the session's connection.
func (m *Manager) Publish(sessionID string, frame ServerFrame) error {
	conn := m.Active(sessionID)
	if conn == nil {
		return fmt.Errorf("publish to session %s: no active connection", sessionID)
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal server frame: %w", err)
	}
	if err := conn.Write(context.Background(), websocket.MessageText, data); err != nil {
		return fmt.Errorf("write server frame: %w", err)
	}
	return nil
}
