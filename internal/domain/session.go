package domain

import "time"

const (
	// HistoryMax is the history capacity. Appending beyond it first
	// truncates to HistoryKeep, so history never exceeds HistoryMax and
	// truncation does not happen on every message.
	HistoryMax = 100
	// HistoryKeep is how many recent entries survive a truncation.
	HistoryKeep = 50
)

// SessionState is one client's conversation state, scoped to a single
// connection lifetime. It lives only in the session store and is
// discarded on disconnect.
type SessionState struct {
	ID string

	// ScenarioID and StepID are zero while no scenario is active.
	// When set, StepID always belongs to ScenarioID.
	ScenarioID int64
	StepID     int64

	Vars map[string]Value

	History      []Message
	MessageCount int

	ConnectedAt time.Time
	LastActive  time.Time
}

// Append adds a message to the history, truncating to the most recent
// HistoryKeep entries first when the history is at capacity.
func (s *SessionState) Append(m Message) {
	if len(s.History) >= HistoryMax {
		s.History = append(s.History[:0:0], s.History[len(s.History)-HistoryKeep:]...)
	}
	s.History = append(s.History, m)
	s.MessageCount++
}

// Transcript returns a copy of the history for handoff to collaborators
// that outlive the session.
func (s *SessionState) Transcript() []Message {
	out := make([]Message, len(s.History))
	copy(out, s.History)
	return out
}
