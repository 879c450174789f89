// Package agent implements the language-model collaborators: the simulated
// employee, the coach and scenario auto-fill.
package agent

import (
	"errors"

	"github.com/ashureev/feedback-coach/internal/domain"
)

var (
	// ErrInvalidCoaching is returned when the model's coaching output cannot be used.
	ErrInvalidCoaching = errors.New("agent: invalid coaching response")
	// ErrInvalidScenario is returned when the model's scenario output cannot be parsed.
	ErrInvalidScenario = errors.New("agent: invalid scenario response")
)

// EmptyReply stands in for a blank employee reply.
const EmptyReply = "..."

// ChatRequest is the body of POST /api/chat and POST /api/coaching.
type ChatRequest struct {
	Scenario   *domain.Scenario `json:"scenario"`
	History    []domain.Message `json:"history"`
	Difficulty string           `json:"difficulty"`
}

// ChatResponse is returned by POST /api/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// GenerateScenarioRequest is the body of POST /api/generate-scenario.
type GenerateScenarioRequest struct {
	PartialScenario *domain.CustomScenarioDetails `json:"partialScenario"`
}
