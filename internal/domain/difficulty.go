// Package domain contains core domain types for the feedback coach.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Difficulty is the behavior band of the simulated employee.
type Difficulty string

const (
	DifficultyBasic    Difficulty = "Basic"
	DifficultyModerate Difficulty = "Moderate"
	DifficultyAdvanced Difficulty = "Advanced"

	// DifficultyRandom is a selector value only. It is resolved to a concrete
	// difficulty before it is attached to a Scenario or sent to a collaborator.
	DifficultyRandom Difficulty = "Random"
)

// ErrInvalidDifficulty is returned when a difficulty string is not recognized.
var ErrInvalidDifficulty = errors.New("invalid difficulty")

// ConcreteDifficulties lists the difficulties a Scenario can carry.
var ConcreteDifficulties = []Difficulty{DifficultyBasic, DifficultyModerate, DifficultyAdvanced}

// ParseDifficulty parses a difficulty selector, case-insensitively.
// Random is accepted; use IsConcrete to reject it where a resolved value is required.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic":
		return DifficultyBasic, nil
	case "moderate":
		return DifficultyModerate, nil
	case "advanced":
		return DifficultyAdvanced, nil
	case "random":
		return DifficultyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
}

// IsConcrete reports whether d is one of Basic, Moderate or Advanced.
func (d Difficulty) IsConcrete() bool {
	switch d {
	case DifficultyBasic, DifficultyModerate, DifficultyAdvanced:
		return true
	}
	return false
}
