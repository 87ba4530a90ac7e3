// Package domain models a single in-flight trial: its lifecycle state
// machine, per-type policy, and the bookkeeping that evaluation and
// reward application read.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/haverlock/undercroft/internal/platform/id"
)

var (
	// ErrEmptyPrompt indicates generation produced no prompt text.
	ErrEmptyPrompt = errors.New("challenge prompt is required")
	// ErrNoAttemptsRemaining indicates the attempt budget is spent.
	ErrNoAttemptsRemaining = errors.New("no attempts remaining")
	// ErrNotAcceptingInput indicates the state disallows player input.
	ErrNotAcceptingInput = errors.New("challenge is not accepting input")
)

// Metadata keys populated from generation output.
const (
	MetaHint1           = "hint1"
	MetaHint2           = "hint2"
	MetaHint3           = "hint3"
	MetaCorrectAnswer   = "correctAnswer"
	MetaExpectedPattern = "expectedPattern"
	MetaAlternates      = "alternateAnswers"
)

// Challenge is the mutable record of one in-flight trial. It is owned
// and mutated by the orchestrator only.
type Challenge struct {
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

// NewInput carries the generation output a challenge is built from.
type NewInput struct {
	Type            Type
	Difficulty      Difficulty
	Prompt          string
	Description     string
	ExpectedPattern string
}

// New builds a challenge from generation output. The per-type policy
// fixes the time limit and attempt budget; the tier fixes the reward
// pool. The challenge starts in the Generating state and must be
// activated to start its countdown.
func New(input NewInput, now func() time.Time, idGenerator func() (string, error)) (*Challenge, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidType
	}
	if input.Prompt == "" {
		return nil, ErrEmptyPrompt
	}

	challengeID, err := idGenerator()
	if err != nil {
		return nil, fmt.Errorf("generate challenge id: %w", err)
	}

	policy := input.Type.Policy()
	return &Challenge{
		ID:                challengeID,
		Type:              input.Type,
		State:             StateGenerating,
		Prompt:            input.Prompt,
		Description:       input.Description,
		ExpectedPattern:   input.ExpectedPattern,
		Difficulty:        input.Difficulty,
		BaseRewardXP:      input.Difficulty.BaseRewardXP(),
		TimeLimit:         policy.TimeLimit,
		MaxAttempts:       policy.MaxAttempts,
		AttemptsRemaining: policy.MaxAttempts,
		Metadata:          map[string]string{},
		StartedAt:         now().UTC(),
	}, nil
}

// Activate starts the countdown and opens the challenge for input.
func (c *Challenge) Activate(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	c.State = StateActive
	c.StartedAt = now().UTC()
}

// BeginEvaluation marks a response as being judged.
func (c *Challenge) BeginEvaluation() error {
	if !c.State.CanAcceptInput() {
		return ErrNotAcceptingInput
	}
	c.State = StateEvaluating
	return nil
}

// ResumeInput returns an unresolved challenge to the Active state after a
// failed evaluation with attempts remaining.
func (c *Challenge) ResumeInput() {
	c.State = StateActive
}

// OfferHint marks that a hint was served. Input is still accepted.
func (c *Challenge) OfferHint() {
	if c.State == StateActive {
		c.State = StateHintOffered
	}
}

// Complete decides the outcome. Consequences are applied afterwards;
// Resolve ends the lifecycle.
func (c *Challenge) Complete(success bool, feedback string, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	c.State = StateCompleted
	c.Completed = true
	c.Successful = success
	c.FinalFeedback = feedback
	c.EndedAt = now().UTC()
}

// Resolve marks the terminal state once consequences were applied.
func (c *Challenge) Resolve() {
	c.State = StateResolved
}

// RecordResponse appends a player response. Order is preserved.
func (c *Challenge) RecordResponse(text string) error {
	if !c.State.CanAcceptInput() {
		return ErrNotAcceptingInput
	}
	c.Responses = append(c.Responses, text)
	return nil
}

// ConsumeAttempt decrements the attempt budget.
func (c *Challenge) ConsumeAttempt() error {
	if c.AttemptsRemaining <= 0 {
		return ErrNoAttemptsRemaining
	}
	c.AttemptsRemaining--
	return nil
}

// HasAttemptsRemaining reports whether another attempt is allowed.
func (c *Challenge) HasAttemptsRemaining() bool {
	return c.AttemptsRemaining > 0
}

// ConsumeHint counts a hint and shrinks the remaining reward pool by the
// given fraction of its current value. The pool never goes negative.
func (c *Challenge) ConsumeHint(poolPenalty float64) {
	c.HintsUsed++
	c.BaseRewardXP -= c.BaseRewardXP * poolPenalty
	if c.BaseRewardXP < 0 {
		c.BaseRewardXP = 0
	}
}

// Elapsed returns how long the challenge has been running.
func (c *Challenge) Elapsed(now func() time.Time) time.Duration {
	if now == nil {
		now = time.Now
	}
	return now().UTC().Sub(c.StartedAt)
}

// Remaining returns the time left on the countdown.
func (c *Challenge) Remaining(now func() time.Time) time.Duration {
	return c.TimeLimit - c.Elapsed(now)
}

// TimedOut reports whether the countdown has expired.
func (c *Challenge) TimedOut(now func() time.Time) bool {
	return c.Elapsed(now) > c.TimeLimit
}

// SetMetadata stores a generation-supplied value under key.
func (c *Challenge) SetMetadata(key, value string) {
	if c.Metadata == nil {
		c.Metadata = map[string]string{}
	}
	c.Metadata[key] = value
}

// MetadataValue returns the stored value for key, or "".
func (c *Challenge) MetadataValue(key string) string {
	return c.Metadata[key]
}
