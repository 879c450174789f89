package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in   string
		want Difficulty
	}{
		{"Basic", DifficultyBasic},
		{"moderate", DifficultyModerate},
		{" ADVANCED ", DifficultyAdvanced},
		{"random", DifficultyRandom},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if err != nil {
			t.Fatalf("ParseDifficulty(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDifficulty("extreme"); !errors.Is(err, ErrInvalidDifficulty) {
		t.Errorf("expected ErrInvalidDifficulty, got %v", err)
	}
}

func TestDifficultyIsConcrete(t *testing.T) {
	for _, d := range ConcreteDifficulties {
		if !d.IsConcrete() {
			t.Errorf("%q should be concrete", d)
		}
	}
	if DifficultyRandom.IsConcrete() {
		t.Error("Random must not be concrete")
	}
}

func TestCustomScenarioDetailsMergeOverKeepsUserFields(t *testing.T) {
	user := CustomScenarioDetails{EmployeeName: "  Jamie ", Issue: "missed deadlines"}
	fill := CustomScenarioDetails{
		Title:         "Deadlines",
		EmployeeName:  "Sam",
		EmployeeRole:  "Engineer",
		Context:       "Weekly 1:1",
		Issue:         "something else",
		PersonaTraits: "Quiet",
	}

	got := user.MergeOver(fill)
	if got.EmployeeName != "Jamie" {
		t.Errorf("expected user name to win, got %q", got.EmployeeName)
	}
	if got.Issue != "missed deadlines" {
		t.Errorf("expected user issue to win, got %q", got.Issue)
	}
	if got.Context != "Weekly 1:1" || got.PersonaTraits != "Quiet" {
		t.Errorf("expected blanks to be filled, got %+v", got)
	}
	if got.MissingAny() {
		t.Errorf("merged details should be complete: %+v", got)
	}
}

func TestCustomScenarioDetailsHasRequired(t *testing.T) {
	d := CustomScenarioDetails{EmployeeName: "Jamie", Context: "1:1", Issue: "   "}
	if d.HasRequired() {
		t.Fatal("blank issue should fail the required check")
	}
	d.Issue = "late"
	if !d.HasRequired() {
		t.Fatal("expected required fields to be satisfied")
	}
}

func TestNewSessionNormalizes(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600))
	s := NewSession("abc", ts, SessionDraft{Coaching: CoachingResult{Summary: "ok"}})

	if s.Timestamp.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", s.Timestamp.Location())
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"messages":[]`, `"strengths":[]`, `"suggestedPhrases":[]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}
}

func TestFallbackCoaching(t *testing.T) {
	fb := FallbackCoaching()
	if fb.Summary != FallbackCoachingSummary {
		t.Errorf("unexpected summary %q", fb.Summary)
	}
	if len(fb.Strengths)+len(fb.Improvements)+len(fb.SuggestedPhrases) != 0 {
		t.Errorf("fallback lists must be empty: %+v", fb)
	}
}
