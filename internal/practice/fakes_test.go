package practice

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/scenario"
)

type fakeCollaborator struct {
	mu            sync.Mutex
	replies       []string
	replyErr      error
	replyGate     chan struct{} // when set, EmployeeReply blocks until closed
	coaching      domain.CoachingResult
	coachingErr   error
	coachingCalls int
	coachHistory  []domain.Message
	replyHistory  [][]domain.Message
}

func (f *fakeCollaborator) EmployeeReply(_ context.Context, _ domain.Scenario, history []domain.Message, _ domain.Difficulty) (string, error) {
	f.mu.Lock()
	gate := f.replyGate
	f.replyHistory = append(f.replyHistory, history)
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyErr != nil {
		return "", f.replyErr
	}
	if len(f.replies) == 0 {
		return "Okay.", nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func (f *fakeCollaborator) Coaching(_ context.Context, _ domain.Scenario, history []domain.Message, _ domain.Difficulty) (domain.CoachingResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coachingCalls++
	f.coachHistory = history
	if f.coachingErr != nil {
		return domain.CoachingResult{}, f.coachingErr
	}
	return f.coaching, nil
}

func (f *fakeCollaborator) CompleteScenario(_ context.Context, partial domain.CustomScenarioDetails) (domain.CustomScenarioDetails, error) {
	return scenario.FillBlanks(partial), nil
}

func (f *fakeCollaborator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coachingCalls
}

type memoryStore struct {
	mu       sync.Mutex
	sessions []domain.Session
	err      error
}

func (s *memoryStore) List(context.Context) []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Session(nil), s.sessions...)
}

func (s *memoryStore) Append(_ context.Context, draft domain.SessionDraft) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := domain.NewSession(fmt.Sprintf("saved-%d", len(s.sessions)+1), time.Now(), draft)
	if s.err != nil {
		return session, s.err
	}
	s.sessions = append([]domain.Session{session}, s.sessions...)
	return session, nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
	return nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }
func (s *memoryStore) Close() error               { return nil }

var errUpstream = errors.New("upstream unavailable")

type harness struct {
	collab *fakeCollaborator
	store  *memoryStore
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		collab: &fakeCollaborator{coaching: domain.CoachingResult{Summary: "Clear and kind."}},
		store:  &memoryStore{},
	}
	h.deps = Deps{
		Scenarios:    scenario.NewCatalog(),
		Collaborator: h.collab,
		Store:        h.store,
	}
	return h
}

func jamieDetails() domain.CustomScenarioDetails {
	return domain.CustomScenarioDetails{
		EmployeeName: "Jamie",
		Context:      "Weekly 1:1",
		Issue:        "Late to standup three times this week",
	}
}

// activeMachine returns a started preset machine.
func (h *harness) activeMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine("test", h.deps)
	_, err := m.Regenerate(RegenerateOptions{Difficulty: domain.DifficultyBasic})
	require.NoError(t, err)
	_, err = m.Start()
	require.NoError(t, err)
	return m
}
