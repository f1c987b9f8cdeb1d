package domain

import "time"

// MessageType classifies a chat message for rendering.
type MessageType string

const (
	TypeText   MessageType = "text"
	TypeChoice MessageType = "choice"
	TypeInfo   MessageType = "info"
	TypeError  MessageType = "error"
)

// Origin identifies who produced a message.
type Origin string

const (
	OriginUser Origin = "user"
	OriginBot  Origin = "bot"
)

// Message is one unit of exchanged conversation history. Messages are
// append-only and never mutated after creation.
type Message struct {
	Origin     Origin      `json:"origin"`
	Text       string      `json:"text"`
	Type       MessageType `json:"type"`
	Timestamp  time.Time   `json:"timestamp"`
	StepID     int64       `json:"stepId,omitempty"`
	ScenarioID int64       `json:"scenarioId,omitempty"`
}
