package scenario

import "github.com/ashureev/feedback-coach/internal/domain"

// DefaultPresets returns the built-in scenario pool, two per difficulty.
func DefaultPresets() []domain.Scenario {
	return []domain.Scenario{
		{
			ID:            "1",
			Title:         "Missed Deadlines",
			Difficulty:    domain.DifficultyBasic,
			Context:       "You are the engineering manager. The project is two weeks behind schedule.",
			EmployeeName:  "Jordan",
			EmployeeRole:  "Software Engineer",
			Issue:         "Jordan has missed the last two sprint deadlines without communicating beforehand.",
			PersonaTraits: "Generally reliable but currently overwhelmed. Avoids conflict. Will apologize readily.",
		},
		{
			ID:            "2",
			Title:         "Code Quality Issues",
			Difficulty:    domain.DifficultyBasic,
			Context:       "You are the tech lead. The team is complaining about bugs in recent features.",
			EmployeeName:  "Alex",
			EmployeeRole:  "Junior Developer",
			Issue:         "Alex is merging code without sufficient testing, causing regressions.",
			PersonaTraits: "Eager to please but lacks attention to detail. Needs clear, specific guidance.",
		},
		{
			ID:            "3",
			Title:         "Resistance to New Process",
			Difficulty:    domain.DifficultyModerate,
			Context:       "You are the team lead. The company has adopted a new project management tool.",
			EmployeeName:  "Casey",
			EmployeeRole:  "Senior Designer",
			Issue:         "Casey refuses to use the new tool, claiming it slows them down, and is tracking work in a spreadsheet instead.",
			PersonaTraits: `Opinionated, values efficiency. Skeptical of "management fads". Needs to understand the "why".`,
		},
		{
			ID:            "4",
			Title:         "Interpersonal Conflict",
			Difficulty:    domain.DifficultyModerate,
			Context:       "You are the department head. Two of your direct reports are not getting along.",
			EmployeeName:  "Taylor",
			EmployeeRole:  "Product Manager",
			Issue:         `Taylor was rude to a developer in the standup meeting, calling their idea "stupid".`,
			PersonaTraits: `High performer but abrasive. Thinks they are just being "honest". Defensiveness is likely.`,
		},
		{
			ID:            "5",
			Title:         "Scope Creep",
			Difficulty:    domain.DifficultyAdvanced,
			Context:       "You are the project manager. The client is asking for more features.",
			EmployeeName:  "Morgan",
			EmployeeRole:  "Account Manager",
			Issue:         "Morgan keeps promising new features to the client without consulting the dev team, causing burnout.",
			PersonaTraits: `Charming, sales-focused. Feels the dev team is "too slow" and "blockers". Will try to charm their way out of it or blame the client.`,
		},
		{
			ID:            "6",
			Title:         "Chronic Lateness",
			Difficulty:    domain.DifficultyAdvanced,
			Context:       "You are the operations manager. Shift start times are critical.",
			EmployeeName:  "Riley",
			EmployeeRole:  "Support Specialist",
			Issue:         "Riley has been late 3 times this week. They have a valid personal reason but it is impacting the team.",
			PersonaTraits: "Stressed, defensive about personal life. Feels the policy is too rigid. May cry or get angry if pushed too hard.",
		},
	}
}
