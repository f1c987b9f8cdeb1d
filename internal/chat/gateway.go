package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/moyam/chatbot/internal/domain"
	"github.com/moyam/chatbot/internal/engine"
	"github.com/moyam/chatbot/internal/notify"
	"github.com/moyam/chatbot/internal/session"
)

// Gateway owns the WebSocket endpoint. It allocates a session per
// connection, feeds inbound frames through the engine, and publishes
// responses back on the session's connection.
type Gateway struct {
	store         session.Store
	engine        *engine.Engine
	mgr           *Manager
	notifier      notify.Notifier
	allowedOrigin string
	isDev         bool
}

// NewGateway creates the WebSocket gateway.
func NewGateway(store session.Store, eng *engine.Engine, mgr *Manager, notifier notify.Notifier, allowedOrigin string, isDev bool) *Gateway {
	return &Gateway{
		store:         store,
		engine:        eng,
		mgr:           mgr,
		notifier:      notifier,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	slog.Info("Chat connection request", "ip", r.RemoteAddr)

	if !g.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err)
		return
	}
	defer func() {
		_ = ws.Close(websocket.StatusNormalClosure, "session ended")
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// The server is the source of truth for session identity. No
	// scenario auto-starts; the first move belongs to the client.
	sessionID, err := g.store.Create(ctx)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		return
	}

	g.mgr.Register(sessionID, ws)
	defer g.mgr.Unregister(sessionID, ws)
	defer g.teardown(sessionID)

	if err := g.mgr.Publish(sessionID, sessionFrame(sessionID)); err != nil {
		slog.Warn("Failed to announce session", "session_id", sessionID, "error", err)
		return
	}

	g.readLoop(ctx, ws, sessionID)
	slog.Info("Chat session ended", "session_id", sessionID)
}

func (g *Gateway) checkOrigin(r *http.Request) bool {
	if g.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || g.allowedOrigin == "*" || origin == g.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", g.allowedOrigin)
	return false
}

// readLoop processes inbound frames sequentially, which gives each
// session in-order responses for its own events.
func (g *Gateway) readLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "session_id", sessionID)
			} else {
				slog.Warn("WebSocket read error", "session_id", sessionID, "error", err)
			}
			return
		}

		frame, err := parseFrame(data, sessionID)
		if errors.Is(err, domain.ErrInvalidFrame) {
			if isCrossSession(data, sessionID) {
				// Fails closed: no cross-session message injection.
				slog.Warn("Cross-session frame, closing connection", "session_id", sessionID)
				_ = ws.Close(websocket.StatusPolicyViolation, "session id mismatch")
				return
			}
			slog.Warn("Dropping invalid frame", "session_id", sessionID, "error", err)
			continue
		}

		g.process(ctx, sessionID, frame)
	}
}

func parseFrame(data []byte, sessionID string) (ClientFrame, error) {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ClientFrame{}, domain.ErrInvalidFrame
	}
	if frame.SessionID != sessionID {
		return ClientFrame{}, domain.ErrInvalidFrame
	}
	if frame.Type != FrameMessage && frame.Type != FrameStart {
		return ClientFrame{}, domain.ErrInvalidFrame
	}
	return frame, nil
}

func isCrossSession(data []byte, sessionID string) bool {
	var frame ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return false
	}
	return frame.SessionID != "" && frame.SessionID != sessionID
}

func (g *Gateway) process(ctx context.Context, sessionID string, frame ClientFrame) {
	var ev engine.Event
	switch frame.Type {
	case FrameStart:
		ev = engine.Event{Kind: engine.EventStart, ScenarioID: frame.ScenarioID}
	default:
		if strings.TrimSpace(frame.Text) == "" {
			g.publish(sessionID, infoFrame(sessionID, "Please enter a message."))
			return
		}
		ev = engine.Event{Kind: engine.EventMessage, Text: frame.Text}
	}

	var resp engine.Response
	err := g.store.Update(ctx, sessionID, func(s *domain.SessionState) error {
		r, err := g.engine.Transition(ctx, s, ev)
		if err != nil {
			return err
		}
		if ev.Kind == engine.EventMessage {
			s.Append(domain.Message{
				Origin:    domain.OriginUser,
				Text:      frame.Text,
				Type:      domain.TypeText,
				Timestamp: time.Now(),
			})
		}
		s.Append(domain.Message{
			Origin:     domain.OriginBot,
			Text:       r.Text,
			Type:       r.Type,
			Timestamp:  r.Timestamp,
			StepID:     r.StepID,
			ScenarioID: r.ScenarioID,
		})
		resp = r
		return nil
	})

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		// Stale client after TTL eviction: tell it to reconnect, not a
		// raw failure.
		g.publish(sessionID, errorFrame(sessionID, ErrCodeSessionExpired,
			"Your session has expired. Please reconnect to start over."))
	case err != nil:
		slog.Error("Session update failed", "session_id", sessionID, "error", err)
		g.publish(sessionID, errorFrame(sessionID, ErrCodeStoreUnavailable,
			"Something went wrong on our side. Please try again."))
	default:
		g.publish(sessionID, responseFrame(sessionID, resp))
	}
}

func (g *Gateway) publish(sessionID string, frame ServerFrame) {
	if err := g.mgr.Publish(sessionID, frame); err != nil {
		slog.Warn("Failed to publish frame", "session_id", sessionID, "error", err)
	}
}

// teardown releases the session and hands its transcript to the
// notifier. Runs on every disconnect; the session is gone afterwards.
func (g *Gateway) teardown(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := g.store.Get(ctx, sessionID)
	if err == nil && len(state.History) > 0 {
		if err := g.notifier.Deliver(ctx, sessionID, state.Transcript()); err != nil {
			slog.Warn("Transcript delivery failed", "session_id", sessionID, "error", err)
		}
	}

	if err := g.store.Remove(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		slog.Warn("Failed to remove session", "session_id", sessionID, "error", err)
	}
}
