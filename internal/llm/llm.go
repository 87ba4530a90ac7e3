// Package llm is the boundary to the external text-generation service.
//
// The contract is deliberately forgiving: transport problems never
// surface as errors. Each call retries up to a bounded ceiling — except
// when the endpoint refuses the connection outright, which fails fast —
// and reports absence through its ok result. Callers treat a false ok as
// "feature unavailable this turn".
package llm

import "context"

// Service generates challenges, judges answers, and produces hints.
type Service interface {
	// GenerateChallenge returns the raw model reply for a generation
	// prompt. ok is false when the service is unreachable or the retry
	// budget is spent.
	GenerateChallenge(ctx context.Context, prompt string) (raw string, ok bool)

	// EvaluateResponse returns the raw model verdict for a player
	// response judged against the expected pattern.
	EvaluateResponse(ctx context.Context, response, expectedPattern, challengeContext string) (raw string, ok bool)

	// GenerateHint returns plain hint text at the given intensity level
	// (1-3).
	GenerateHint(ctx context.Context, prompt, expectedAnswer string, level int) (hint string, ok bool)

	// IsAvailable probes reachability with a short timeout.
	IsAvailable(ctx context.Context) bool
}
