package practice

import (
	"errors"
	"strings"

	"github.com/ashureev/feedback-coach/internal/domain"
)

// ErrNothingToExport is returned when there is no scenario or transcript yet.
var ErrNothingToExport = errors.New("nothing to export")

// Export renders a snapshot as the plain-text transcript users copy out.
// System messages are omitted.
func Export(snap Snapshot) (string, error) {
	if snap.Scenario == nil || len(snap.Messages) == 0 {
		return "", ErrNothingToExport
	}
	sc := snap.Scenario

	var b strings.Builder
	b.WriteString("\nSCENARIO: " + sc.Title + "\n")
	b.WriteString("DIFFICULTY: " + string(sc.Difficulty) + "\n")
	b.WriteString("ISSUE: " + sc.Issue + "\n\n")
	b.WriteString("TRANSCRIPT\n==========\n")

	lines := make([]string, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		speaker := sc.EmployeeName
		if m.Role == domain.RoleUser {
			speaker = "Manager"
		}
		lines = append(lines, speaker+": "+m.Content)
	}
	b.WriteString(strings.Join(lines, "\n\n"))
	b.WriteString("\n\n")

	if c := snap.Coaching; c != nil {
		b.WriteString("\nCOACHING FEEDBACK\n=================\n")
		b.WriteString("Summary: " + c.Summary + "\n\n")
		writeList(&b, "Strengths:", c.Strengths)
		b.WriteString("\n")
		writeList(&b, "Improvements:", c.Improvements)
		b.WriteString("\n")
		writeList(&b, "Suggested Phrases:", c.SuggestedPhrases)
	}
	b.WriteString("\n")
	return b.String(), nil
}

func writeList(b *strings.Builder, heading string, items []string) {
	b.WriteString(heading + "\n")
	bullets := make([]string, len(items))
	for i, item := range items {
		bullets[i] = "- " + item
	}
	b.WriteString(strings.Join(bullets, "\n"))
	b.WriteString("\n")
}
