package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/moyam/chatbot/internal/domain"
)

// Memory implements Catalog from in-memory definitions. Immutable after
// construction, so lookups need no synchronization.
type Memory struct {
	scenarios map[int64]domain.Scenario
	steps     map[int64]map[int64]domain.Step
}

// NewMemory builds an in-memory catalog from scenario and step
// definitions.
func NewMemory(scenarios []domain.Scenario, steps []domain.Step) *Memory {
	m := &Memory{
		scenarios: make(map[int64]domain.Scenario, len(scenarios)),
		steps:     make(map[int64]map[int64]domain.Step, len(scenarios)),
	}
	for _, sc := range scenarios {
		m.scenarios[sc.ID] = sc
	}
	for _, st := range steps {
		if m.steps[st.ScenarioID] == nil {
			m.steps[st.ScenarioID] = make(map[int64]domain.Step)
		}
		m.steps[st.ScenarioID][st.ID] = st
	}
	return m
}

// NewDemo returns an in-memory catalog with the built-in demo scenarios.
func NewDemo() *Memory {
	return NewMemory(seedScenarios(), seedSteps())
}

// Step retrieves one step of a scenario.
func (m *Memory) Step(_ context.Context, scenarioID, stepID int64) (domain.Step, error) {
	if st, ok := m.steps[scenarioID][stepID]; ok {
		return st, nil
	}
	return domain.Step{}, fmt.Errorf("scenario %d step %d: %w", scenarioID, stepID, domain.ErrStepNotFound)
}

// StartStep retrieves the declared start step of a scenario.
func (m *Memory) StartStep(ctx context.Context, scenarioID int64) (domain.Step, error) {
	sc, ok := m.scenarios[scenarioID]
	if !ok {
		return domain.Step{}, fmt.Errorf("scenario %d: %w", scenarioID, domain.ErrScenarioNotFound)
	}
	st, err := m.Step(ctx, scenarioID, sc.StartStepID)
	if err != nil {
		return domain.Step{}, fmt.Errorf("scenario %d: %w", scenarioID, domain.ErrScenarioNotFound)
	}
	return st, nil
}

// Scenarios lists all scenarios, ordered by id.
func (m *Memory) Scenarios(_ context.Context) ([]domain.Scenario, error) {
	out := make([]domain.Scenario, 0, len(m.scenarios))
	for _, sc := range m.scenarios {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
