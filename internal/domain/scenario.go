package domain

import "strings"

// Scenario describes one roleplay situation used to prime the employee persona.
type Scenario struct {
	ID            string     `json:"id" yaml:"id"`
	Title         string     `json:"title" yaml:"title"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty"`
	Context       string     `json:"context" yaml:"context"`
	EmployeeName  string     `json:"employeeName" yaml:"employeeName"`
	EmployeeRole  string     `json:"employeeRole" yaml:"employeeRole"`
	Issue         string     `json:"issue" yaml:"issue"`
	PersonaTraits string     `json:"personaTraits" yaml:"personaTraits"`
}

// Complete reports whether every field is non-blank and the difficulty is concrete.
func (s Scenario) Complete() bool {
	for _, v := range []string{s.ID, s.Title, s.Context, s.EmployeeName, s.EmployeeRole, s.Issue, s.PersonaTraits} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return s.Difficulty.IsConcrete()
}

// CustomScenarioDetails holds the user-editable fields of a custom scenario.
// It is also the input and output shape of scenario auto-fill.
type CustomScenarioDetails struct {
	Title         string `json:"title"`
	EmployeeName  string `json:"employeeName"`
	EmployeeRole  string `json:"employeeRole"`
	Context       string `json:"context"`
	Issue         string `json:"issue"`
	PersonaTraits string `json:"personaTraits"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (d CustomScenarioDetails) Trimmed() CustomScenarioDetails {
	return CustomScenarioDetails{
		Title:         strings.TrimSpace(d.Title),
		EmployeeName:  strings.TrimSpace(d.EmployeeName),
		EmployeeRole:  strings.TrimSpace(d.EmployeeRole),
		Context:       strings.TrimSpace(d.Context),
		Issue:         strings.TrimSpace(d.Issue),
		PersonaTraits: strings.TrimSpace(d.PersonaTraits),
	}
}

// HasRequired reports whether employee name, context and issue are all filled in.
func (d CustomScenarioDetails) HasRequired() bool {
	t := d.Trimmed()
	return t.EmployeeName != "" && t.Context != "" && t.Issue != ""
}

// MissingAny reports whether any field is blank.
func (d CustomScenarioDetails) MissingAny() bool {
	t := d.Trimmed()
	return t.Title == "" || t.EmployeeName == "" || t.EmployeeRole == "" ||
		t.Context == "" || t.Issue == "" || t.PersonaTraits == ""
}

// MergeOver returns d with every blank field taken from fill.
func (d CustomScenarioDetails) MergeOver(fill CustomScenarioDetails) CustomScenarioDetails {
	d = d.Trimmed()
	fill = fill.Trimmed()
	pick := func(own, other string) string {
		if own != "" {
			return own
		}
		return other
	}
	return CustomScenarioDetails{
		Title:         pick(d.Title, fill.Title),
		EmployeeName:  pick(d.EmployeeName, fill.EmployeeName),
		EmployeeRole:  pick(d.EmployeeRole, fill.EmployeeRole),
		Context:       pick(d.Context, fill.Context),
		Issue:         pick(d.Issue, fill.Issue),
		PersonaTraits: pick(d.PersonaTraits, fill.PersonaTraits),
	}
}
