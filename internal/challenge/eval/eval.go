// Package eval turns raw model verdicts and local rule checks into
// effectiveness ratings.
package eval

import (
	"math"
	"strings"

	"github.com/haverlock/undercroft/internal/llm/extract"
)

// Verdict is the structured form of a model evaluation reply.
type Verdict struct {
	IsCorrect     bool
	Confidence    float64
	Reasoning     string
	Effectiveness string
}

// ParseVerdict recovers a verdict from a raw model reply. Missing fields
// default rather than failing the parse.
func ParseVerdict(raw string) Verdict {
	if strings.TrimSpace(raw) == "" {
		return Verdict{}
	}
	object := extract.Object(raw)
	return Verdict{
		IsCorrect:     extract.Bool(object, "isCorrect"),
		Confidence:    extract.Float(object, "confidence"),
		Reasoning:     extract.String(object, "reasoning"),
		Effectiveness: extract.String(object, "effectiveness"),
	}
}

// Rating maps a verdict to an effectiveness rating in [0,100]. The
// qualitative tag sets a floor; confidence raises the result within the
// tag's band. An unrecognized or absent tag falls back to confidence
// alone.
func Rating(v Verdict) int {
	switch strings.ToUpper(v.Effectiveness) {
	case "FULL":
		return int(100 * math.Max(v.Confidence, 0.8))
	case "PARTIAL":
		return int(50 * math.Max(v.Confidence, 0.5))
	case "NONE":
		return 0
	default:
		return int(v.Confidence * 100)
	}
}

// Feedback returns the reasoning, or a terse verdict line when the model
// gave none.
func Feedback(v Verdict) string {
	if v.Reasoning != "" {
		return v.Reasoning
	}
	if v.IsCorrect {
		return "Correct!"
	}
	return "Incorrect."
}
