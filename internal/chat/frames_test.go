package chat

import (
	"testing"
	"time"

	"github.com/moyam/chatbot/internal/domain"
	"github.com/moyam/chatbot/internal/engine"
)

func TestResponseFrameMapping(t *testing.T) {
	now := time.Now()
	resp := engine.Response{
		Text: "Pick one:",
		Type: domain.TypeChoice,
		Choices: []domain.Choice{
			{Label: "Schedule", Value: "schedule", NextStepID: 10},
			{Label: "Memo", Value: "memo", NextStepID: 20},
		},
		StepID:     1,
		ScenarioID: 1,
		Vars:       map[string]domain.Value{"userName": domain.StringValue("Alice")},
		Timestamp:  now,
	}

	frame := responseFrame("sess-1", resp)

	if frame.Type != string(domain.TypeChoice) {
		t.Errorf("Expected type %q, got %q", domain.TypeChoice, frame.Type)
	}
	if frame.SessionID != "sess-1" {
		t.Errorf("Expected session id sess-1, got %q", frame.SessionID)
	}
	if frame.NextStepID != 1 || frame.ScenarioID != 1 {
		t.Errorf("Expected step 1 in scenario 1, got step %d scenario %d", frame.NextStepID, frame.ScenarioID)
	}
	if len(frame.Choices) != 2 {
		t.Fatalf("Expected 2 choices, got %d", len(frame.Choices))
	}
	if frame.Choices[0].Label != "Schedule" || frame.Choices[0].Value != "schedule" {
		t.Errorf("Unexpected first choice: %+v", frame.Choices[0])
	}
	if !frame.ServerTimestamp.Equal(now) {
		t.Errorf("Expected server timestamp %v, got %v", now, frame.ServerTimestamp)
	}
	if frame.Variables["userName"].String() != "Alice" {
		t.Errorf("Expected userName variable to carry over, got %+v", frame.Variables)
	}
}

func TestErrorFrameCarriesCode(t *testing.T) {
	frame := errorFrame("sess-1", ErrCodeSessionExpired, "expired")

	if frame.Type != string(domain.TypeError) {
		t.Errorf("Expected error type, got %q", frame.Type)
	}
	if frame.Error != ErrCodeSessionExpired {
		t.Errorf("Expected error code %q, got %q", ErrCodeSessionExpired, frame.Error)
	}
	if frame.Text != "expired" {
		t.Errorf("Expected text to survive, got %q", frame.Text)
	}
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"valid message", `{"type":"message","text":"hi","sessionId":"sess-1"}`, false},
		{"valid start", `{"type":"start","scenarioId":1,"sessionId":"sess-1"}`, false},
		{"malformed json", `{"type":`, true},
		{"wrong session", `{"type":"message","text":"hi","sessionId":"sess-2"}`, true},
		{"missing session", `{"type":"message","text":"hi"}`, true},
		{"unknown type", `{"type":"subscribe","sessionId":"sess-1"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFrame([]byte(tt.data), "sess-1")
			if (err != nil) != tt.wantErr {
				t.Errorf("parseFrame(%s) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
		})
	}
}

func TestIsCrossSession(t *testing.T) {
	if !isCrossSession([]byte(`{"type":"message","sessionId":"sess-2"}`), "sess-1") {
		t.Errorf("Expected frame with foreign session id to be cross-session")
	}
	if isCrossSession([]byte(`{"type":"message"}`), "sess-1") {
		t.Errorf("Frame with no session id is malformed, not cross-session")
	}
	if isCrossSession([]byte(`{"type":`), "sess-1") {
		t.Errorf("Malformed JSON is not cross-session")
	}
}
