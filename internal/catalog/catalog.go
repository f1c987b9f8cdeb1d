// Package catalog provides read-only scenario definition lookup.
//
// Catalog content is invariant for the process lifetime: it is loaded at
// startup and never mutated mid-session, so lookups are safe for
// concurrent use from every connection goroutine.
package catalog

import (
	"context"

	"github.com/moyam/chatbot/internal/domain"
)

// Catalog defines scenario and step lookup.
type Catalog interface {
	// Step retrieves one step of a scenario. Returns
	// domain.ErrStepNotFound if the step does not exist in that scenario.
	Step(ctx context.Context, scenarioID, stepID int64) (domain.Step, error)

	// StartStep retrieves the declared start step of a scenario. Returns
	// domain.ErrScenarioNotFound if the scenario is unknown or has no
	// steps.
	StartStep(ctx context.Context, scenarioID int64) (domain.Step, error)

	// Scenarios lists all scenarios, ordered by id.
	Scenarios(ctx context.Context) ([]domain.Scenario, error)
}
