package domain

import "github.com/haverlock/undercroft/internal/game"

// Result is the ephemeral outcome of one evaluation. It is consumed by
// consequence application and never persisted.
type Result struct {
	Success       bool
	Effectiveness int
	Feedback      string

	XPAwarded   int
	DamageDealt int
	DamageTaken int
	Items       []game.Item

	UnlocksPath      bool
	StoryProgression string

	EvaluationMethod string
}
