package agent

import (
	"context"

	"github.com/ashureev/feedback-coach/internal/domain"
)

// Collaborator defines the language-model backed operations of a practice session.
// This interface is implemented by Service.
type Collaborator interface {
	// EmployeeReply returns the simulated employee's next line for the transcript.
	EmployeeReply(ctx context.Context, scenario domain.Scenario, history []domain.Message, difficulty domain.Difficulty) (string, error)

	// Coaching reviews a finished transcript.
	Coaching(ctx context.Context, scenario domain.Scenario, history []domain.Message, difficulty domain.Difficulty) (domain.CoachingResult, error)

	// CompleteScenario fills the blank fields of a custom scenario. Fields the
	// caller already filled in are returned unchanged.
	CompleteScenario(ctx context.Context, partial domain.CustomScenarioDetails) (domain.CustomScenarioDetails, error)
}

// Ensure Service implements Collaborator.
var _ Collaborator = (*Service)(nil)
