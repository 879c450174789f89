package domain

import (
	"time"
)

// FallbackCoachingSummary is attached when the coaching collaborator fails.
const FallbackCoachingSummary = "Could not generate coaching feedback at this time."

// CoachingResult is the structured feedback produced once per completed session.
type CoachingResult struct {
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	SuggestedPhrases []string `json:"suggestedPhrases"`
}

// FallbackCoaching returns the neutral result used when coaching could not be generated.
func FallbackCoaching() CoachingResult {
	return CoachingResult{
		Summary:          FallbackCoachingSummary,
		Strengths:        []string{},
		Improvements:     []string{},
		SuggestedPhrases: []string{},
	}
}

// Normalized replaces nil lists with empty ones so they serialize as [].
func (c CoachingResult) Normalized() CoachingResult {
	if c.Strengths == nil {
		c.Strengths = []string{}
	}
	if c.Improvements == nil {
		c.Improvements = []string{}
	}
	if c.SuggestedPhrases == nil {
		c.SuggestedPhrases = []string{}
	}
	return c
}

// SessionDraft is a completed practice run before it has been persisted.
type SessionDraft struct {
	Scenario Scenario       `json:"scenario"`
	Messages []Message      `json:"messages"`
	Coaching CoachingResult `json:"coaching"`
}

// Session is one persisted practice run. It embeds full copies of the
// scenario and transcript and is never mutated after creation.
type Session struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Scenario  Scenario       `json:"scenario"`
	Messages  []Message      `json:"messages"`
	Coaching  CoachingResult `json:"coaching"`
}

// NewSession stamps a draft with an identifier and creation time.
func NewSession(id string, ts time.Time, draft SessionDraft) Session {
	msgs := draft.Messages
	if msgs == nil {
		msgs = []Message{}
	}
	return Session{
		ID:        id,
		Timestamp: ts.UTC(),
		Scenario:  draft.Scenario,
		Messages:  CloneMessages(msgs),
		Coaching:  draft.Coaching.Normalized(),
	}
}
