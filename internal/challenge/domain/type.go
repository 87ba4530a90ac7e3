package domain

import (
	"errors"
	"time"
)

// Type identifies the kind of trial presented to the player.
type Type int

const (
	// TypeUnspecified represents an invalid challenge type value.
	TypeUnspecified Type = iota
	// TypeRiddle is a knowledge riddle.
	TypeRiddle
	// TypeCombatCreative is combat resolved by creative description.
	TypeCombatCreative
	// TypeCombatStandard is a plain combat check resolved locally.
	TypeCombatStandard
	// TypeNegotiation is a social encounter.
	TypeNegotiation
	// TypePuzzle is a logic puzzle.
	TypePuzzle
	// TypeMoralDilemma is an open-ended moral choice.
	TypeMoralDilemma
)

func (t Type) String() string {
	switch t {
	case TypeRiddle:
		return "Riddle"
	case TypeCombatCreative:
		return "Creative Combat"
	case TypeCombatStandard:
		return "Standard Combat"
	case TypeNegotiation:
		return "Negotiation"
	case TypePuzzle:
		return "Puzzle"
	case TypeMoralDilemma:
		return "Moral Dilemma"
	default:
		return "Unspecified"
	}
}

// ErrInvalidType indicates an unknown challenge type label.
var ErrInvalidType = errors.New("challenge type is invalid")

// ParseType maps a type label back to its value.
func ParseType(value string) (Type, error) {
	switch value {
	case "Riddle":
		return TypeRiddle, nil
	case "Creative Combat":
		return TypeCombatCreative, nil
	case "Standard Combat":
		return TypeCombatStandard, nil
	case "Negotiation":
		return TypeNegotiation, nil
	case "Puzzle":
		return TypePuzzle, nil
	case "Moral Dilemma":
		return TypeMoralDilemma, nil
	default:
		return TypeUnspecified, ErrInvalidType
	}
}

// Policy is the fixed per-type rule set: whether answers need the model
// to judge them, how long the player has, and how many attempts.
type Policy struct {
	RequiresModelEvaluation bool
	TimeLimit               time.Duration
	MaxAttempts             int
}

// policies keys per-type policy by the variant so the rules are data,
// not conditional dispatch.
var policies = map[Type]Policy{
	TypeRiddle:         {RequiresModelEvaluation: true, TimeLimit: 120 * time.Second, MaxAttempts: 3},
	TypeCombatCreative: {RequiresModelEvaluation: true, TimeLimit: 60 * time.Second, MaxAttempts: 2},
	TypeCombatStandard: {RequiresModelEvaluation: false, TimeLimit: 10 * time.Second, MaxAttempts: 2},
	TypeNegotiation:    {RequiresModelEvaluation: true, TimeLimit: 90 * time.Second, MaxAttempts: 2},
	TypePuzzle:         {RequiresModelEvaluation: true, TimeLimit: 120 * time.Second, MaxAttempts: 3},
	TypeMoralDilemma:   {RequiresModelEvaluation: true, TimeLimit: 120 * time.Second, MaxAttempts: 3},
}

// Policy returns the fixed rule set for the type.
func (t Type) Policy() Policy {
	return policies[t]
}

// Valid reports whether the type is a known variant.
func (t Type) Valid() bool {
	_, ok := policies[t]
	return ok
}
