// Package domain holds the core chatbot types shared across packages.
package domain

// Scenario is a named conversation tree composed of steps.
type Scenario struct {
	ID          int64
	Name        string
	Description string
	StartStepID int64
}

// Step is one node in a scenario: a message template plus optional
// choices, variable writes, and a default next step.
type Step struct {
	ID         int64
	ScenarioID int64

	// Content is the message template. References like ${name} are
	// interpolated against the session's variable bag.
	Content string

	Choices []Choice
	Writes  []VarWrite

	// DefaultNextStepID is followed when user input matches no choice.
	// Zero means there is no default; a step with no choices and no
	// default is terminal and can only be left by starting a scenario.
	DefaultNextStepID int64
}

// Choice is a selectable option on a step. Value is an opaque token,
// unique within its owning step, that triggers the transition to
// NextStepID when sent while that step is current.
type Choice struct {
	Label      string `json:"label"`
	Value      string `json:"value"`
	NextStepID int64  `json:"nextStepId,omitempty"`
}

// VarSource selects where a variable write takes its value from.
type VarSource string

const (
	// SourceLiteral sets the variable to the directive's fixed value.
	SourceLiteral VarSource = "literal"
	// SourceInput copies the raw user input text.
	SourceInput VarSource = "input"
	// SourceTemplate interpolates the directive's value against the
	// current variable bag.
	SourceTemplate VarSource = "template"
)

// VarWrite is a variable-write directive attached to a step. It is
// applied when the step is entered.
type VarWrite struct {
	Name   string    `json:"name"`
	Source VarSource `json:"source"`
	Value  string    `json:"value,omitempty"`
}
