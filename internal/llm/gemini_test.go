package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiTurnsEmptyHistoryUsesOpeningPrompt(t *testing.T) {
	system, history, prompt := geminiTurns(Request{System: []string{"You are Jordan."}})

	assert.Equal(t, "You are Jordan.", system)
	assert.Empty(t, history)
	assert.Equal(t, openingPrompt, prompt)
}

func TestGeminiTurnsSplitsHistory(t *testing.T) {
	system, history, prompt := geminiTurns(Request{
		System: []string{"rubric"},
		Messages: []Message{
			{Role: RoleUser, Content: "Hi Jordan"},
			{Role: RoleSystem, Content: "stay in character"},
			{Role: RoleAssistant, Content: "Hey."},
			{Role: RoleUser, Content: "  "},
			{Role: RoleUser, Content: "About the deadlines..."},
		},
	})

	assert.Equal(t, "rubric\n\nstay in character", system)
	assert.Equal(t, "About the deadlines...", prompt)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("Hey."), history[1].Parts[0])
}
