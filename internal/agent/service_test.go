package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/llm"
	"github.com/ashureev/feedback-coach/internal/scenario"
)

type fakeLLM struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []llm.Request
}

func (f *fakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Text: f.text}, nil
}

func (f *fakeLLM) last(t *testing.T) llm.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func jamie() domain.Scenario {
	return domain.Scenario{
		ID:            "custom",
		Title:         "Late to standup",
		Difficulty:    domain.DifficultyBasic,
		Context:       "Weekly 1:1",
		EmployeeName:  "Jamie",
		EmployeeRole:  "Designer",
		Issue:         "Late to standup three times this week",
		PersonaTraits: "Friendly, a little scattered",
	}
}

func TestEmployeeReply_PromptCarriesScenarioAndHistory(t *testing.T) {
	client := &fakeLLM{text: "Sorry, the bus was late."}
	svc := NewService(client)
	history := []domain.Message{{Role: domain.RoleUser, Content: "Hi Jamie, got a minute?"}}

	reply, err := svc.EmployeeReply(context.Background(), jamie(), history, domain.DifficultyModerate)
	require.NoError(t, err)
	assert.Equal(t, "Sorry, the bus was late.", reply)

	req := client.last(t)
	require.Len(t, req.System, 1)
	assert.Contains(t, req.System[0], "Jamie")
	assert.Contains(t, req.System[0], "Designer")
	assert.Contains(t, req.System[0], "Difficulty level: Moderate")
	assert.False(t, req.JSON)
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "Hi Jamie, got a minute?"}}, req.Messages)
}

func TestEmployeeReply_BlankBecomesEllipsis(t *testing.T) {
	svc := NewService(&fakeLLM{text: "   "})
	reply, err := svc.EmployeeReply(context.Background(), jamie(), []domain.Message{}, domain.DifficultyBasic)
	require.NoError(t, err)
	assert.Equal(t, EmptyReply, reply)
}

func TestEmployeeReply_PropagatesError(t *testing.T) {
	boom := errors.New("upstream 503")
	svc := NewService(&fakeLLM{err: boom})
	_, err := svc.EmployeeReply(context.Background(), jamie(), nil, domain.DifficultyBasic)
	assert.ErrorIs(t, err, boom)
}

func TestCoaching_ParsesJSON(t *testing.T) {
	client := &fakeLLM{text: "```json\n{\"summary\":\"Good start.\",\"strengths\":[\"Calm\"],\"improvements\":[\"Be specific\"]}\n```"}
	svc := NewService(client)
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "Let's talk about standup."},
		{Role: domain.RoleAssistant, Content: "Sure."},
	}

	result, err := svc.Coaching(context.Background(), jamie(), history, domain.DifficultyBasic)
	require.NoError(t, err)
	assert.Equal(t, "Good start.", result.Summary)
	assert.Equal(t, []string{"Calm"}, result.Strengths)
	assert.NotNil(t, result.SuggestedPhrases)

	req := client.last(t)
	assert.True(t, req.JSON)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Manager: Let's talk about standup.\nEmployee: Sure.")
}

func TestCoaching_InvalidOutputIsError(t *testing.T) {
	for name, text := range map[string]string{
		"not json":      "great job!",
		"empty summary": `{"summary":"","strengths":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			svc := NewService(&fakeLLM{text: text})
			_, err := svc.Coaching(context.Background(), jamie(), nil, domain.DifficultyBasic)
			assert.ErrorIs(t, err, ErrInvalidCoaching)
		})
	}
}

func TestCompleteScenario_UserFieldsWin(t *testing.T) {
	client := &fakeLLM{text: `{"title":"Gen title","employeeName":"Casey","employeeRole":"Analyst","context":"Gen context","issue":"Gen issue","personaTraits":""}`}
	svc := NewService(client)
	partial := domain.CustomScenarioDetails{EmployeeName: " Jamie ", Issue: "Late to standup"}

	filled, err := svc.CompleteScenario(context.Background(), partial)
	require.NoError(t, err)
	assert.Equal(t, "Jamie", filled.EmployeeName)
	assert.Equal(t, "Late to standup", filled.Issue)
	assert.Equal(t, "Gen title", filled.Title)
	assert.Equal(t, "Analyst", filled.EmployeeRole)
	assert.Equal(t, scenario.PlaceholderPersonaTraits, filled.PersonaTraits)
	assert.False(t, filled.MissingAny())

	req := client.last(t)
	assert.True(t, req.JSON)
	assert.Contains(t, req.System[0], `"employeeName": "Jamie"`)
}

func TestCompleteScenario_InvalidJSON(t *testing.T) {
	svc := NewService(&fakeLLM{text: "no"})
	_, err := svc.CompleteScenario(context.Background(), domain.CustomScenarioDetails{})
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
