// Package game holds the collaborator value types the challenge engine
// consumes: the player, rooms, monsters, and session-wide settings. Map
// generation, navigation, and inventory bookkeeping live outside the
// engine; these types only carry the state the engine reads and the
// consequences it applies.
package game

import "errors"

// Difficulty is the session-wide game difficulty.
type Difficulty int

const (
	// DifficultyUnspecified represents an invalid difficulty value.
	DifficultyUnspecified Difficulty = iota
	// DifficultyEasy is the forgiving tier.
	DifficultyEasy
	// DifficultyMedium is the balanced tier.
	DifficultyMedium
	// DifficultyHard is the punishing tier.
	DifficultyHard
	// DifficultyUltra is the hardest tier. Hints are disabled here.
	DifficultyUltra
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	case DifficultyUltra:
		return "Ultra"
	default:
		return "Unspecified"
	}
}

// ErrInvalidDifficulty indicates an unknown game difficulty value.
var ErrInvalidDifficulty = errors.New("game difficulty is invalid")

// ParseDifficulty maps a difficulty label back to its value.
func ParseDifficulty(value string) (Difficulty, error) {
	switch value {
	case "Easy":
		return DifficultyEasy, nil
	case "Medium":
		return DifficultyMedium, nil
	case "Hard":
		return DifficultyHard, nil
	case "Ultra":
		return DifficultyUltra, nil
	default:
		return DifficultyUnspecified, ErrInvalidDifficulty
	}
}

// State is the session state the engine reads: who is playing, where,
// and at what difficulty.
type State struct {
	Difficulty  Difficulty
	Player      *Player
	CurrentRoom *Room
}
