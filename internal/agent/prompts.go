package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashureev/feedback-coach/internal/domain"
)

const difficultyRubric = `- Basic: You are calm and professional. You take feedback well, even when it is negative, and you are willing to improve. You rarely get defensive.
- Moderate: You are somewhat defensive and irritable. You may question whether the feedback is fair or feel singled out, and you offer excuses. You are not hostile, but you are hard to reach.
- Advanced: You are an extremely difficult employee. Open calmly with a suspicious edge, then escalate. Blame colleagues, management or the system, threaten legal action, and behave unpredictably. Escalate slowly or snap quickly depending on the manager's tone.`

func employeeSystemPrompt(s domain.Scenario, difficulty domain.Difficulty) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are roleplaying as %s, who works as a %s.\n", s.EmployeeName, s.EmployeeRole)
	fmt.Fprintf(&b, "Your manager wants to talk to you about this issue: %q.\n", s.Issue)
	fmt.Fprintf(&b, "Context: %s\n\n", s.Context)
	fmt.Fprintf(&b, "Persona traits: %s\n\n", s.PersonaTraits)
	fmt.Fprintf(&b, "Difficulty level: %s\n%s\n\n", difficulty, difficultyRubric)
	b.WriteString("The user is your manager. Reply naturally as the employee, usually in one to three sentences.\n")
	b.WriteString("Stay in character at all times and never mention being an AI.\n")
	return b.String()
}

func coachingSystemPrompt(s domain.Scenario, difficulty domain.Difficulty) string {
	var b strings.Builder
	b.WriteString("You are an experienced leadership coach.\n")
	b.WriteString("Review the conversation between a manager (the user) and an employee (the assistant). The manager was practicing how to give feedback.\n\n")
	fmt.Fprintf(&b, "Scenario: %s\nIssue: %s\nDifficulty: %s\n\n", s.Title, s.Issue, difficulty)
	b.WriteString(`Respond with a JSON object with these fields:
- "summary": a 2-3 sentence summary of the conversation.
- "strengths": 2-3 things the manager did well.
- "improvements": 2-3 specific areas to improve.
- "suggestedPhrases": 2-3 better phrases the manager could have used.

Assess clarity of expectations, empathy and active listening, balance of praise and critique, and progress toward a solution.
`)
	return b.String()
}

// transcript renders history as "Manager:"/"Employee:" lines.
func transcript(history []domain.Message) string {
	lines := make([]string, 0, len(history))
	for _, m := range history {
		if m.Role == domain.RoleSystem {
			continue
		}
		speaker := "Employee"
		if m.Role == domain.RoleUser {
			speaker = "Manager"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func scenarioSystemPrompt(partial domain.CustomScenarioDetails) (string, error) {
	existing, err := json.MarshalIndent(partial.Trimmed(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode partial scenario: %w", err)
	}

	var b strings.Builder
	b.WriteString("You write realistic workplace roleplay scenarios for leadership coaching.\n")
	b.WriteString("The user filled in some scenario fields and left others blank. Fill in only the blank fields so the scenario is coherent, realistic and challenging.\n\n")
	fmt.Fprintf(&b, "Current fields:\n%s\n\n", existing)
	b.WriteString(`Guidelines:
- Fields: title, employeeName, employeeRole, context, issue, personaTraits.
- A missing employeeName should be a realistic first name.
- A missing issue should be a realistic management problem such as performance, behavior or attitude.
- context describes the setting, for example "Weekly 1:1 meeting".
- personaTraits describes how the employee behaves, for example "Defensive but polite".

Return only a JSON object of the form:
{"title": "", "employeeName": "", "employeeRole": "", "context": "", "issue": "", "personaTraits": ""}
`)
	return b.String(), nil
}

// stripCodeFence removes a surrounding markdown code fence some providers
// add around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
