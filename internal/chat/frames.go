package chat

import (
	"time"

	"github.com/moyam/chatbot/internal/domain"
	"github.com/moyam/chatbot/internal/engine"
)

// Client -> server frame types.
const (
	FrameMessage = "message"
	FrameStart   = "start"
)

// Server -> client frame type announcing the allocated session id. All
// other server frames use the response's message type as their type.
const FrameSession = "session"

// Error codes carried on error frames.
const (
	ErrCodeSessionExpired   = "session_expired"
	ErrCodeStoreUnavailable = "store_unavailable"
)

// ClientFrame is the inbound envelope. Text frames carry the user's
// message; start frames carry the scenario to begin. The session id must
// match the id allocated for the connection.
type ClientFrame struct {
	Type            string    `json:"type"`
	Text            string    `json:"text,omitempty"`
	SessionID       string    `json:"sessionId"`
	StepID          int64     `json:"stepId,omitempty"`
	ScenarioID      int64     `json:"scenarioId,omitempty"`
	Click           bool      `json:"click,omitempty"`
	ClientTimestamp time.Time `json:"clientTimestamp,omitempty"`
}

// ChoiceFrame is a choice as rendered on the wire.
type ChoiceFrame struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ServerFrame is the outbound envelope published on a session's
// connection.
type ServerFrame struct {
	Type            string                  `json:"type"`
	Text            string                  `json:"text,omitempty"`
	SessionID       string                  `json:"sessionId"`
	Choices         []ChoiceFrame           `json:"choices,omitempty"`
	NextStepID      int64                   `json:"nextStepId,omitempty"`
	ScenarioID      int64                   `json:"scenarioId,omitempty"`
	Variables       map[string]domain.Value `json:"variables,omitempty"`
	Error           string                  `json:"error,omitempty"`
	ServerTimestamp time.Time               `json:"serverTimestamp"`
}

func sessionFrame(sessionID string) ServerFrame {
	return ServerFrame{
		Type:            FrameSession,
		SessionID:       sessionID,
		ServerTimestamp: time.Now(),
	}
}

func responseFrame(sessionID string, resp engine.Response) ServerFrame {
	choices := make([]ChoiceFrame, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		choices = append(choices, ChoiceFrame{Label: c.Label, Value: c.Value})
	}

	return ServerFrame{
		Type:            string(resp.Type),
		Text:            resp.Text,
		SessionID:       sessionID,
		Choices:         choices,
		NextStepID:      resp.StepID,
		ScenarioID:      resp.ScenarioID,
		Variables:       resp.Vars,
		ServerTimestamp: resp.Timestamp,
	}
}

func errorFrame(sessionID, code, text string) ServerFrame {
	return ServerFrame{
		Type:            string(domain.TypeError),
		Text:            text,
		SessionID:       sessionID,
		Error:           code,
		ServerTimestamp: time.Now(),
	}
}

func infoFrame(sessionID, text string) ServerFrame {
	return ServerFrame{
		Type:            string(domain.TypeInfo),
		Text:            text,
		SessionID:       sessionID,
		ServerTimestamp: time.Now(),
	}
}
