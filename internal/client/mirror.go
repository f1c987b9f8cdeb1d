// Package client keeps a local mirror of a chat session over WebSocket.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/moyam/chatbot/internal/chat"
	"github.com/moyam/chatbot/internal/domain"
)

// Mirror is a client-side copy of one chat session: the server-issued
// session id, the visible transcript, and a typing indicator. Each
// Mirror owns one connection; there is no shared state across mirrors.
type Mirror struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	sessionID string
	connected bool
	typing    bool
	history   []domain.Message
	variables map[string]domain.Value
	choices   []chat.ChoiceFrame
	lastError string

	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to the chat endpoint and waits for the server to
// announce the session id before returning.
func Dial(ctx context.Context, url string) (*Mirror, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial chat endpoint: %w", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "no session announcement")
		return nil, fmt.Errorf("read session announcement: %w", err)
	}

	var frame chat.ServerFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.Type != chat.FrameSession || frame.SessionID == "" {
		_ = conn.Close(websocket.StatusProtocolError, "bad session announcement")
		return nil, fmt.Errorf("expected session announcement, got %q", frame.Type)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m := &Mirror{
		conn:      conn,
		sessionID: frame.SessionID,
		connected: true,
		variables: make(map[string]domain.Value),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go m.readLoop(loopCtx)
	return m, nil
}

// SessionID returns the server-issued session id.
func (m *Mirror) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Connected reports whether the read loop is still alive.
func (m *Mirror) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// IsTyping reports whether a response is pending for a sent event.
func (m *Mirror) IsTyping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing
}

// History returns a copy of the mirrored transcript.
func (m *Mirror) History() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, len(m.history))
	copy(out, m.history)
	return out
}

// Choices returns the choices offered by the latest bot message.
func (m *Mirror) Choices() []chat.ChoiceFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]chat.ChoiceFrame, len(m.choices))
	copy(out, m.choices)
	return out
}

// Variable returns the last known value of a session variable.
func (m *Mirror) Variable(name string) (domain.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variables[name]
	return v, ok
}

// LastError returns the error code of the most recent error frame.
func (m *Mirror) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// SendText sends a typed message. It shows up in the local transcript
// immediately; the bot's reply arrives asynchronously.
func (m *Mirror) SendText(ctx context.Context, text string) error {
	m.mu.Lock()
	m.appendLocked(domain.Message{
		Origin:    domain.OriginUser,
		Text:      text,
		Type:      domain.TypeText,
		Timestamp: time.Now(),
	})
	m.typing = true
	m.mu.Unlock()

	return m.send(ctx, chat.ClientFrame{
		Type:            chat.FrameMessage,
		Text:            text,
		SessionID:       m.SessionID(),
		ClientTimestamp: time.Now(),
	})
}

// ClickChoice sends a choice selection. The click itself is suppressed
// from the local transcript; only the bot's reaction is shown.
func (m *Mirror) ClickChoice(ctx context.Context, choice chat.ChoiceFrame) error {
	m.mu.Lock()
	m.typing = true
	m.mu.Unlock()

	return m.send(ctx, chat.ClientFrame{
		Type:            chat.FrameMessage,
		Text:            choice.Value,
		SessionID:       m.SessionID(),
		Click:           true,
		ClientTimestamp: time.Now(),
	})
}

// StartScenario asks the server to begin a scenario.
func (m *Mirror) StartScenario(ctx context.Context, scenarioID int64) error {
	m.mu.Lock()
	m.typing = true
	m.mu.Unlock()

	return m.send(ctx, chat.ClientFrame{
		Type:            chat.FrameStart,
		SessionID:       m.SessionID(),
		ScenarioID:      scenarioID,
		ClientTimestamp: time.Now(),
	})
}

// Close tears down the connection and waits for the read loop to exit.
func (m *Mirror) Close() error {
	m.cancel()
	err := m.conn.Close(websocket.StatusNormalClosure, "client closed")
	<-m.done

	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return err
}

func (m *Mirror) send(ctx context.Context, frame chat.ClientFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal client frame: %w", err)
	}
	if err := m.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("write client frame: %w", err)
	}
	return nil
}

func (m *Mirror) readLoop(ctx context.Context) {
	defer close(m.done)
	defer func() {
		m.mu.Lock()
		m.connected = false
		m.typing = false
		m.mu.Unlock()
	}()

	for {
		_, data, err := m.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				slog.Warn("Chat mirror read error", "session_id", m.sessionID, "error", err)
			}
			return
		}

		var frame chat.ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Warn("Chat mirror dropping malformed frame", "session_id", m.sessionID, "error", err)
			continue
		}
		m.apply(frame)
	}
}

// apply folds one server frame into the mirrored state.
func (m *Mirror) apply(frame chat.ServerFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame.Type == chat.FrameSession {
		// Late re-announcement; nothing to mirror.
		return
	}

	msgType := classify(frame)
	m.appendLocked(domain.Message{
		Origin:     domain.OriginBot,
		Text:       frame.Text,
		Type:       msgType,
		Timestamp:  frame.ServerTimestamp,
		StepID:     frame.NextStepID,
		ScenarioID: frame.ScenarioID,
	})

	m.choices = frame.Choices
	m.typing = false
	if msgType == domain.TypeError {
		m.lastError = frame.Error
	} else {
		m.lastError = ""
	}
	for name, v := range frame.Variables {
		m.variables[name] = v
	}
}

// appendLocked grows the transcript under the same cap the server
// applies, so both sides converge on the same window.
func (m *Mirror) appendLocked(msg domain.Message) {
	if len(m.history) >= domain.HistoryMax {
		m.history = append(m.history[:0:0], m.history[len(m.history)-domain.HistoryKeep:]...)
	}
	m.history = append(m.history, msg)
}

// classify trusts a declared message type and falls back on shape.
func classify(frame chat.ServerFrame) domain.MessageType {
	switch domain.MessageType(frame.Type) {
	case domain.TypeText, domain.TypeChoice, domain.TypeInfo, domain.TypeError:
		return domain.MessageType(frame.Type)
	}
	if len(frame.Choices) > 0 {
		return domain.TypeChoice
	}
	return domain.TypeText
}
