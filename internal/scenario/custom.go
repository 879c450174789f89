package scenario

import "github.com/ashureev/feedback-coach/internal/domain"

// CustomScenarioID identifies scenarios built from user input.
const CustomScenarioID = "custom"

// Placeholders used when a custom scenario field is left blank.
const (
	PlaceholderTitle         = "Custom Scenario"
	PlaceholderEmployeeName  = "The Employee"
	PlaceholderEmployeeRole  = "Team Member"
	PlaceholderContext       = "A private one-on-one conversation between you and a direct report."
	PlaceholderIssue         = "Please describe the issue you want to address with this employee."
	PlaceholderPersonaTraits = "Professional, but may become defensive if the feedback feels unfair."
)

// Placeholders returns the placeholder text for every custom field.
func Placeholders() domain.CustomScenarioDetails {
	return domain.CustomScenarioDetails{
		Title:         PlaceholderTitle,
		EmployeeName:  PlaceholderEmployeeName,
		EmployeeRole:  PlaceholderEmployeeRole,
		Context:       PlaceholderContext,
		Issue:         PlaceholderIssue,
		PersonaTraits: PlaceholderPersonaTraits,
	}
}

// FillBlanks trims details and replaces any blank field with its placeholder.
func FillBlanks(details domain.CustomScenarioDetails) domain.CustomScenarioDetails {
	return details.MergeOver(Placeholders())
}

// BuildCustom turns form input into a Scenario. Every field of the result is
// non-empty regardless of input. A non-concrete difficulty falls back to Basic;
// callers resolve Random with Catalog.ResolveDifficulty first.
func BuildCustom(details domain.CustomScenarioDetails, difficulty domain.Difficulty) domain.Scenario {
	if !difficulty.IsConcrete() {
		difficulty = domain.DifficultyBasic
	}
	f := FillBlanks(details)
	return domain.Scenario{
		ID:            CustomScenarioID,
		Title:         f.Title,
		Difficulty:    difficulty,
		Context:       f.Context,
		EmployeeName:  f.EmployeeName,
		EmployeeRole:  f.EmployeeRole,
		Issue:         f.Issue,
		PersonaTraits: f.PersonaTraits,
	}
}
