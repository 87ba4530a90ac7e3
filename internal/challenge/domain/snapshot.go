package domain

import "time"

// Snapshot is a flat, fully-populated mirror of every Challenge field,
// used for save/restore. It round-trips losslessly; elapsed time is
// recomputed against the wall clock at load time by the orchestrator.
type Snapshot struct {
	ID    string
	Type  Type
	State State

	Prompt          string
	Description     string
	ExpectedPattern string

	Difficulty   Difficulty
	BaseRewardXP float64
	TimeLimit    time.Duration

	MaxAttempts       int
	AttemptsRemaining int
	Responses         []string
	HintsUsed         int

	Metadata map[string]string

	Completed     bool
	Successful    bool
	FinalFeedback string

	StartedAt time.Time
	EndedAt   time.Time
}

// Snapshot captures every field of the challenge. Slices and maps are
// copied so later mutation cannot leak into the saved record.
func (c *Challenge) Snapshot() Snapshot {
	responses := make([]string, len(c.Responses))
	copy(responses, c.Responses)

	metadata := make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		metadata[k] = v
	}

	return Snapshot{
		ID:                c.ID,
		Type:              c.Type,
		State:             c.State,
		Prompt:            c.Prompt,
		Description:       c.Description,
		ExpectedPattern:   c.ExpectedPattern,
		Difficulty:        c.Difficulty,
		BaseRewardXP:      c.BaseRewardXP,
		TimeLimit:         c.TimeLimit,
		MaxAttempts:       c.MaxAttempts,
		AttemptsRemaining: c.AttemptsRemaining,
		Responses:         responses,
		HintsUsed:         c.HintsUsed,
		Metadata:          metadata,
		Completed:         c.Completed,
		Successful:        c.Successful,
		FinalFeedback:     c.FinalFeedback,
		StartedAt:         c.StartedAt,
		EndedAt:           c.EndedAt,
	}
}

// FromSnapshot reconstructs a challenge from a saved record.
func FromSnapshot(s Snapshot) *Challenge {
	responses := make([]string, len(s.Responses))
	copy(responses, s.Responses)

	metadata := make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		metadata[k] = v
	}

	return &Challenge{
		ID:                s.ID,
		Type:              s.Type,
		State:             s.State,
		Prompt:            s.Prompt,
		Description:       s.Description,
		ExpectedPattern:   s.ExpectedPattern,
		Difficulty:        s.Difficulty,
		BaseRewardXP:      s.BaseRewardXP,
		TimeLimit:         s.TimeLimit,
		MaxAttempts:       s.MaxAttempts,
		AttemptsRemaining: s.AttemptsRemaining,
		Responses:         responses,
		HintsUsed:         s.HintsUsed,
		Metadata:          metadata,
		Completed:         s.Completed,
		Successful:        s.Successful,
		FinalFeedback:     s.FinalFeedback,
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
	}
}
