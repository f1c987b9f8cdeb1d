package catalog

import "github.com/moyam/chatbot/internal/domain"

// Built-in demo content, installed when the catalog is empty.

func seedScenarios() []domain.Scenario {
	return []domain.Scenario{
		{
			ID:          1,
			Name:        "Personal Assistant",
			Description: "Schedule, memos, and settings walkthrough",
			StartStepID: 1,
		},
		{
			ID:          2,
			Name:        "About",
			Description: "What this assistant can do",
			StartStepID: 100,
		},
	}
}

func seedSteps() []domain.Step {
	return []domain.Step{
		{
			ScenarioID: 1, ID: 1,
			Content: "Hello! What can I do for you today?",
			Choices: []domain.Choice{
				{Label: "View schedule", Value: "schedule", NextStepID: 10},
				{Label: "Write a memo", Value: "memo", NextStepID: 20},
				{Label: "Settings", Value: "settings", NextStepID: 30},
			},
		},
		{
			ScenarioID: 1, ID: 10,
			Content: "Your schedule for ${today}:\n- 10:00 standup\n- 14:00 design review",
			Choices: []domain.Choice{
				{Label: "Add an item", Value: "add_item", NextStepID: 11},
				{Label: "Back to menu", Value: "back_to_menu", NextStepID: 1},
			},
		},
		{
			ScenarioID: 1, ID: 11,
			Content:           "What should I add to your schedule?",
			DefaultNextStepID: 12,
		},
		{
			ScenarioID: 1, ID: 12,
			Content: "Added \"${scheduleItem}\" to your schedule.",
			Writes: []domain.VarWrite{
				{Name: "scheduleItem", Source: domain.SourceInput},
			},
			Choices: []domain.Choice{
				{Label: "Back to menu", Value: "back_to_menu", NextStepID: 1},
			},
		},
		{
			ScenarioID: 1, ID: 20,
			Content:           "What would you like me to remember?",
			DefaultNextStepID: 21,
		},
		{
			ScenarioID: 1, ID: 21,
			Content: "Saved: \"${memo}\"",
			Writes: []domain.VarWrite{
				{Name: "memo", Source: domain.SourceInput},
			},
			Choices: []domain.Choice{
				{Label: "Add another", Value: "add_more", NextStepID: 20},
				{Label: "Back to menu", Value: "back_to_menu", NextStepID: 1},
			},
		},
		{
			ScenarioID: 1, ID: 30,
			Content:           "What's your name?",
			DefaultNextStepID: 31,
		},
		{
			ScenarioID: 1, ID: 31,
			Content: "${greeting} I'll remember that.",
			Writes: []domain.VarWrite{
				{Name: "userName", Source: domain.SourceInput},
				{Name: "greeting", Source: domain.SourceTemplate, Value: "Nice to meet you, ${userName}!"},
			},
			Choices: []domain.Choice{
				{Label: "Back to menu", Value: "back_to_menu", NextStepID: 1},
			},
		},
		{
			ScenarioID: 2, ID: 100,
			Content: "This assistant walks you through scripted conversations. Start the Personal Assistant scenario to try it out.",
		},
	}
}
