// Package engine implements the per-session conversational state
// machine: (current state, inbound event) -> (next state, response).
//
// The engine is stateless and reentrant. All mutable state lives in the
// session store; Transition is meant to run inside the store's atomic
// Update so a session never transitions on two messages at once.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moyam/chatbot/internal/catalog"
	"github.com/moyam/chatbot/internal/domain"
)

// EventKind discriminates inbound events.
type EventKind int

const (
	// EventMessage carries free text or a choice token from the user.
	EventMessage EventKind = iota
	// EventStart requests starting a scenario by id.
	EventStart
)

// Event is one inbound user event.
type Event struct {
	Kind       EventKind
	ScenarioID int64 // set for EventStart
	Text       string
}

// Response is the engine's outbound response descriptor.
type Response struct {
	Text       string
	Type       domain.MessageType
	Choices    []domain.Choice
	StepID     int64
	ScenarioID int64
	Vars       map[string]domain.Value
	Timestamp  time.Time
}

// Engine resolves transitions against a scenario catalog.
type Engine struct {
	catalog catalog.Catalog
}

// New creates an engine over the given catalog.
func New(c catalog.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Transition resolves one inbound event against the session state,
// mutating the state in place on success. Catalog lookup failures are
// recovered into an error-typed response and leave the state untouched;
// only infrastructure failures return a non-nil error.
func (e *Engine) Transition(ctx context.Context, s *domain.SessionState, ev Event) (Response, error) {
	switch ev.Kind {
	case EventStart:
		return e.startScenario(ctx, s, ev.ScenarioID)
	default:
		return e.handleMessage(ctx, s, ev.Text)
	}
}

func (e *Engine) startScenario(ctx context.Context, s *domain.SessionState, scenarioID int64) (Response, error) {
	start, err := e.catalog.StartStep(ctx, scenarioID)
	if isNotFound(err) {
		slog.Warn("Start requested for unknown scenario", "session_id", s.ID, "scenario_id", scenarioID)
		return e.errorResponse(s, "That scenario doesn't exist. Pick one from the menu and try again."), nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("look up start step of scenario %d: %w", scenarioID, err)
	}

	slog.Info("Scenario started", "session_id", s.ID, "scenario_id", scenarioID, "step_id", start.ID)
	return e.enter(s, start, ""), nil
}

func (e *Engine) handleMessage(ctx context.Context, s *domain.SessionState, text string) (Response, error) {
	input := strings.TrimSpace(text)

	// No active scenario: the system still has to reach a defined state.
	if s.StepID == 0 {
		return e.menuFallback(ctx, s), nil
	}

	current, err := e.catalog.Step(ctx, s.ScenarioID, s.StepID)
	if isNotFound(err) {
		slog.Error("Session points at a missing step", "session_id", s.ID,
			"scenario_id", s.ScenarioID, "step_id", s.StepID)
		return e.errorResponse(s, "Something went wrong with this conversation. Please start a scenario again."), nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("look up current step %d: %w", s.StepID, err)
	}

	// Choice tokens are only valid transition triggers while their
	// owning step is current, and matching is exact.
	targetID := int64(0)
	for _, c := range current.Choices {
		if c.Value == input {
			targetID = c.NextStepID
			break
		}
	}
	if targetID == 0 {
		targetID = current.DefaultNextStepID
	}

	if targetID == 0 {
		// Re-prompt: render the current step unchanged, annotated. The
		// step's variable writes are not re-applied; an unmatched input
		// must not clobber previously collected variables.
		resp := e.renderStep(s, current)
		resp.Text = "Sorry, I didn't catch that.\n\n" + resp.Text
		if resp.Type == domain.TypeText {
			resp.Type = domain.TypeInfo
		}
		return resp, nil
	}

	target, err := e.catalog.Step(ctx, s.ScenarioID, targetID)
	if isNotFound(err) {
		slog.Error("Step transition target missing", "session_id", s.ID,
			"scenario_id", s.ScenarioID, "step_id", targetID)
		return e.errorResponse(s, "Something went wrong with this conversation. Please start a scenario again."), nil
	}
	if err != nil {
		return Response{}, fmt.Errorf("look up target step %d: %w", targetID, err)
	}

	return e.enter(s, target, input), nil
}

// enter applies the target step's variable writes, interpolates its
// template, and advances the session to it.
func (e *Engine) enter(s *domain.SessionState, step domain.Step, input string) Response {
	if s.Vars == nil {
		s.Vars = make(map[string]domain.Value)
	}
	if input != "" {
		s.Vars["lastInput"] = domain.StringValue(input)
	}

	for _, w := range step.Writes {
		switch w.Source {
		case domain.SourceInput:
			s.Vars[w.Name] = domain.StringValue(input)
		case domain.SourceTemplate:
			s.Vars[w.Name] = domain.StringValue(Render(w.Value, s.Vars))
		default:
			s.Vars[w.Name] = domain.StringValue(w.Value)
		}
	}

	s.ScenarioID = step.ScenarioID
	s.StepID = step.ID

	return e.renderStep(s, step)
}

// renderStep produces the response descriptor for a step against the
// session's current variables, without applying writes or moving state.
func (e *Engine) renderStep(s *domain.SessionState, step domain.Step) Response {
	typ := domain.TypeText
	if len(step.Choices) > 0 {
		typ = domain.TypeChoice
	}

	return Response{
		Text:       Render(step.Content, s.Vars),
		Type:       typ,
		Choices:    append([]domain.Choice(nil), step.Choices...),
		StepID:     step.ID,
		ScenarioID: step.ScenarioID,
		Vars:       domain.CopyVars(s.Vars),
		Timestamp:  time.Now(),
	}
}

// menuFallback answers input that arrives with no active scenario.
func (e *Engine) menuFallback(ctx context.Context, s *domain.SessionState) Response {
	var b strings.Builder
	b.WriteString("There's no active conversation yet. Start one of these scenarios:\n")

	scenarios, err := e.catalog.Scenarios(ctx)
	if err != nil {
		slog.Warn("Failed to list scenarios for menu fallback", "session_id", s.ID, "error", err)
	}
	for _, sc := range scenarios {
		fmt.Fprintf(&b, "\n%d. %s — %s", sc.ID, sc.Name, sc.Description)
	}

	return Response{
		Text:       b.String(),
		Type:       domain.TypeInfo,
		StepID:     s.StepID,
		ScenarioID: s.ScenarioID,
		Vars:       domain.CopyVars(s.Vars),
		Timestamp:  time.Now(),
	}
}

// errorResponse renders a recoverable failure as a bot message without
// touching session state.
func (e *Engine) errorResponse(s *domain.SessionState, msg string) Response {
	return Response{
		Text:       msg,
		Type:       domain.TypeError,
		StepID:     s.StepID,
		ScenarioID: s.ScenarioID,
		Vars:       domain.CopyVars(s.Vars),
		Timestamp:  time.Now(),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrScenarioNotFound) || errors.Is(err, domain.ErrStepNotFound)
}
