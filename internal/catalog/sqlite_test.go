package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/moyam/chatbot/internal/domain"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()

	c, err := NewSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Seed(context.Background()); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	return c
}

func TestSQLiteStepRoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	step, err := c.Step(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if step.ScenarioID != 1 || step.ID != 1 {
		t.Errorf("unexpected step identity: scenario=%d id=%d", step.ScenarioID, step.ID)
	}
	if len(step.Choices) != 3 {
		t.Fatalf("expected 3 choices, got %d", len(step.Choices))
	}
	if step.Choices[0].Value != "schedule" || step.Choices[0].NextStepID != 10 {
		t.Errorf("unexpected first choice: %+v", step.Choices[0])
	}
}

func TestSQLiteStepPreservesWrites(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	step, err := c.Step(context.Background(), 1, 31)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(step.Writes) != 2 {
		t.Fatalf("expected 2 variable writes, got %d", len(step.Writes))
	}
	if step.Writes[0].Name != "userName" || step.Writes[0].Source != domain.SourceInput {
		t.Errorf("unexpected first write: %+v", step.Writes[0])
	}
}

func TestSQLiteStepNotFound(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	_, err := c.Step(context.Background(), 1, 9999)
	if !errors.Is(err, domain.ErrStepNotFound) {
		t.Errorf("expected ErrStepNotFound, got %v", err)
	}

	// A step id that exists in scenario 1 must not resolve in scenario 2.
	_, err = c.Step(context.Background(), 2, 1)
	if !errors.Is(err, domain.ErrStepNotFound) {
		t.Errorf("expected ErrStepNotFound for wrong scenario, got %v", err)
	}
}

func TestSQLiteStartStep(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	step, err := c.StartStep(context.Background(), 1)
	if err != nil {
		t.Fatalf("StartStep failed: %v", err)
	}
	if step.ID != 1 {
		t.Errorf("expected start step 1, got %d", step.ID)
	}

	_, err = c.StartStep(context.Background(), 999)
	if !errors.Is(err, domain.ErrScenarioNotFound) {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestSQLiteSeedIsIdempotent(t *testing.T) {
	t.Parallel()
	c := newTestCatalog(t)

	if err := c.Seed(context.Background()); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	scenarios, err := c.Scenarios(context.Background())
	if err != nil {
		t.Fatalf("Scenarios failed: %v", err)
	}
	if len(scenarios) != 2 {
		t.Errorf("expected 2 scenarios after reseeding, got %d", len(scenarios))
	}
}

func TestMemoryCatalogMatchesSeed(t *testing.T) {
	t.Parallel()
	m := NewDemo()

	scenarios, err := m.Scenarios(context.Background())
	if err != nil {
		t.Fatalf("Scenarios failed: %v", err)
	}
	if len(scenarios) != 2 || scenarios[0].ID != 1 {
		t.Fatalf("unexpected scenario list: %+v", scenarios)
	}

	if _, err := m.StartStep(context.Background(), 999); !errors.Is(err, domain.ErrScenarioNotFound) {
		t.Errorf("expected ErrScenarioNotFound, got %v", err)
	}
}
