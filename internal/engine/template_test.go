package engine

import (
	"testing"

	"github.com/moyam/chatbot/internal/domain"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	t.Parallel()
	vars := map[string]domain.Value{
		"userName": domain.StringValue("Alice"),
		"count":    domain.NumberValue(3),
		"premium":  domain.BoolValue(true),
	}

	got := Render("${userName} has ${count} memos (premium: ${premium})", vars)
	want := "Alice has 3 memos (premium: true)"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderUnresolvedIsEmpty(t *testing.T) {
	t.Parallel()

	got := Render("Hello ${nobody}!", map[string]domain.Value{})
	if got != "Hello !" {
		t.Errorf("unresolved reference should render empty, got %q", got)
	}

	got = Render("Hello ${gone}!", map[string]domain.Value{"gone": {}})
	if got != "Hello !" {
		t.Errorf("absent value should render empty, got %q", got)
	}
}

func TestRenderSystemVariables(t *testing.T) {
	t.Parallel()

	got := Render("Today is ${today} at ${now}", nil)
	if len(got) <= len("Today is  at ") {
		t.Errorf("system variables did not render: %q", got)
	}
}

func TestRenderUserVariableShadowsSystem(t *testing.T) {
	t.Parallel()
	vars := map[string]domain.Value{"today": domain.StringValue("someday")}

	if got := Render("${today}", vars); got != "someday" {
		t.Errorf("user variable should shadow system variable, got %q", got)
	}
}

func TestRenderEmptyTemplate(t *testing.T) {
	t.Parallel()
	if got := Render("", nil); got != "" {
		t.Errorf("empty template should render empty, got %q", got)
	}
}
