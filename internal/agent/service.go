package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/llm"
	"github.com/ashureev/feedback-coach/internal/observability/metrics"
	"github.com/ashureev/feedback-coach/internal/scenario"
)

// Service implements Collaborator over a language-model client.
type Service struct {
	client  llm.Client
	metrics *metrics.Metrics
	timeout time.Duration
	logger  *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMetrics records collaborator calls.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout bounds every model call.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a collaborator service backed by client.
func NewService(client llm.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) complete(ctx context.Context, kind string, req llm.Request) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := s.client.Complete(ctx, req)
	elapsed := time.Since(start)
	s.metrics.ObserveCollaborator(kind, err, elapsed)
	if err != nil {
		s.logger.Error("Collaborator call failed", "kind", kind, "elapsed", elapsed, "error", err)
		return "", err
	}
	s.logger.Debug("Collaborator call finished",
		"kind", kind,
		"elapsed", elapsed,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return resp.Text, nil
}

func toLLMMessages(history []domain.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		role := llm.RoleAssistant
		switch m.Role {
		case domain.RoleUser:
			role = llm.RoleUser
		case domain.RoleSystem:
			role = llm.RoleSystem
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

// EmployeeReply asks the model to continue the conversation as the employee.
func (s *Service) EmployeeReply(ctx context.Context, sc domain.Scenario, history []domain.Message, difficulty domain.Difficulty) (string, error) {
	text, err := s.complete(ctx, metrics.KindEmployeeReply, llm.Request{
		System:   []string{employeeSystemPrompt(sc, difficulty)},
		Messages: toLLMMessages(history),
	})
	if err != nil {
		return "", fmt.Errorf("generate employee reply: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return EmptyReply, nil
	}
	return text, nil
}

// Coaching asks the model for structured feedback on the transcript.
func (s *Service) Coaching(ctx context.Context, sc domain.Scenario, history []domain.Message, difficulty domain.Difficulty) (domain.CoachingResult, error) {
	text, err := s.complete(ctx, metrics.KindCoaching, llm.Request{
		System: []string{coachingSystemPrompt(sc, difficulty)},
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: "Here is the conversation transcript:\n\n" + transcript(history),
		}},
		JSON: true,
	})
	if err != nil {
		return domain.CoachingResult{}, fmt.Errorf("generate coaching: %w", err)
	}

	var result domain.CoachingResult
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &result); err != nil {
		return domain.CoachingResult{}, fmt.Errorf("%w: %v", ErrInvalidCoaching, err)
	}
	if strings.TrimSpace(result.Summary) == "" {
		return domain.CoachingResult{}, fmt.Errorf("%w: missing summary", ErrInvalidCoaching)
	}
	return result.Normalized(), nil
}

// CompleteScenario asks the model to fill in blank custom scenario fields.
// Non-blank input fields always win and anything still blank afterwards gets
// a placeholder, so the result can go straight into the review form.
func (s *Service) CompleteScenario(ctx context.Context, partial domain.CustomScenarioDetails) (domain.CustomScenarioDetails, error) {
	system, err := scenarioSystemPrompt(partial)
	if err != nil {
		return domain.CustomScenarioDetails{}, err
	}

	text, err := s.complete(ctx, metrics.KindScenarioFill, llm.Request{
		System:   []string{system},
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "Generate the complete scenario details."}},
		JSON:     true,
	})
	if err != nil {
		return domain.CustomScenarioDetails{}, fmt.Errorf("generate scenario: %w", err)
	}

	var generated domain.CustomScenarioDetails
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &generated); err != nil {
		return domain.CustomScenarioDetails{}, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	return scenario.FillBlanks(partial.MergeOver(generated)), nil
}
