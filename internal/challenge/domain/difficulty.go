package domain

import (
	"errors"

	"github.com/haverlock/undercroft/internal/game"
)

// Difficulty is the per-challenge difficulty tier. It scales rewards,
// damage, hint costs, and drop chances.
type Difficulty int

const (
	// DifficultyEasy is the lowest tier.
	DifficultyEasy Difficulty = iota
	// DifficultyMedium requires thought.
	DifficultyMedium
	// DifficultyHard requires creativity.
	DifficultyHard
	// DifficultyUltra demands obscure knowledge.
	DifficultyUltra
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	case DifficultyUltra:
		return "Ultra"
	default:
		return "Easy"
	}
}

// ErrInvalidDifficulty indicates an unknown difficulty label.
var ErrInvalidDifficulty = errors.New("challenge difficulty is invalid")

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
		return DifficultyEasy, ErrInvalidDifficulty
	}
}

// xpMultipliers scales the base reward pool per tier.
var xpMultipliers = map[Difficulty]float64{
	DifficultyEasy:   1.5,
	DifficultyMedium: 1.75,
	DifficultyHard:   2.0,
	DifficultyUltra:  2.5,
}

// BaseRewardXP returns the starting reward pool for the tier.
func (d Difficulty) BaseRewardXP() float64 {
	return xpMultipliers[d] * 50
}

// DifficultyForGame maps the session difficulty to the challenge tier.
func DifficultyForGame(gd game.Difficulty) Difficulty {
	switch gd {
	case game.DifficultyMedium:
		return DifficultyMedium
	case game.DifficultyHard:
		return DifficultyHard
	case game.DifficultyUltra:
		return DifficultyUltra
	default:
		return DifficultyEasy
	}
}
