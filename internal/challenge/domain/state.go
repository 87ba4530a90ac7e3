package domain

import "errors"

// State tracks where a challenge is in its lifecycle.
type State int

const (
	// StateNone means no challenge exists yet.
	StateNone State = iota
	// StateGenerating means a generation call is in flight.
	StateGenerating
	// StateActive means the countdown is running and input is accepted.
	StateActive
	// StateEvaluating means a submitted response is being judged.
	StateEvaluating
	// StateHintOffered means a hint was served; input is still accepted.
	StateHintOffered
	// StateCompleted means the outcome is decided but not yet applied.
	StateCompleted
	// StateResolved means consequences were applied. Terminal.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateGenerating:
		return "Generating"
	case StateActive:
		return "Active"
	case StateEvaluating:
		return "Evaluating"
	case StateHintOffered:
		return "HintOffered"
	case StateCompleted:
		return "Completed"
	case StateResolved:
		return "Resolved"
	default:
		return "Unknown"
	}
}

// ErrInvalidState indicates an unknown lifecycle state label.
var ErrInvalidState = errors.New("challenge state is invalid")

// ParseState maps a state label back to its value.
func ParseState(value string) (State, error) {
	switch value {
	case "None":
		return StateNone, nil
	case "Generating":
		return StateGenerating, nil
	case "Active":
		return StateActive, nil
	case "Evaluating":
		return StateEvaluating, nil
	case "HintOffered":
		return StateHintOffered, nil
	case "Completed":
		return StateCompleted, nil
	case "Resolved":
		return StateResolved, nil
	default:
		return StateNone, ErrInvalidState
	}
}

// CanAcceptInput reports whether player input is accepted in this state.
func (s State) CanAcceptInput() bool {
	return s == StateActive || s == StateHintOffered
}

// Terminal reports whether the lifecycle has ended.
func (s State) Terminal() bool {
	return s == StateResolved
}
