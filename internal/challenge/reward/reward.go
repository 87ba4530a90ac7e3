// Package reward maps challenge outcomes to numeric game consequences.
// Every function is pure; randomness is supplied by the caller.
package reward

import (
	"github.com/haverlock/undercroft/internal/challenge/domain"
	"github.com/haverlock/undercroft/internal/game"
)

// hintPenaltyPerUse is the XP multiplier reduction per hint consumed.
const hintPenaltyPerUse = 0.15

// hintPenaltyFloor is the lowest the hint multiplier can fall.
const hintPenaltyFloor = 0.4

// tierDamage is the base damage per difficulty tier.
var tierDamage = map[domain.Difficulty]int{
	domain.DifficultyEasy:   10,
	domain.DifficultyMedium: 20,
	domain.DifficultyHard:   35,
	domain.DifficultyUltra:  50,
}

// dropChance gates a single random item reward per tier.
var dropChance = map[domain.Difficulty]float64{
	domain.DifficultyEasy:   0.10,
	domain.DifficultyMedium: 0.20,
	domain.DifficultyHard:   0.35,
	domain.DifficultyUltra:  0.50,
}

// hintBaseCost is the XP cost per hint level. Unknown levels use the
// default cost.
var hintBaseCost = map[int]float64{
	1: 5,
	2: 15,
	3: 30,
}

// hintDefaultCost applies to hint levels outside 1-3.
const hintDefaultCost = 10

// hintDifficultyMultiplier scales hint cost per tier.
var hintDifficultyMultiplier = map[domain.Difficulty]float64{
	domain.DifficultyEasy:   0.5,
	domain.DifficultyMedium: 1.0,
	domain.DifficultyHard:   1.5,
	domain.DifficultyUltra:  2.0,
}

// poolPenalty is the fraction of the remaining reward pool deducted per
// hint, keyed by game difficulty. Deductions compound.
var poolPenalty = map[game.Difficulty]float64{
	game.DifficultyEasy:   0.05,
	game.DifficultyMedium: 0.08,
	game.DifficultyHard:   0.12,
	game.DifficultyUltra:  0.18,
}

// XP returns the experience award for a completed challenge. Hints erode
// the award by 15% each, floored at 40% of the effectiveness-scaled base.
func XP(baseXP float64, effectiveness, hintsUsed int) float64 {
	multiplier := 1 - float64(hintsUsed)*hintPenaltyPerUse
	if multiplier < hintPenaltyFloor {
		multiplier = hintPenaltyFloor
	}
	return baseXP * float64(effectiveness) / 100 * multiplier
}

// DamageDealt returns the damage inflicted on the opposing party by a
// successful response.
func DamageDealt(tier domain.Difficulty, effectiveness int) int {
	return tierDamage[tier] * effectiveness / 100
}

// DamageTaken returns the damage the player suffers. A fully effective
// response takes none; a failed one (effectiveness 0) takes the full
// tier damage.
func DamageTaken(tier domain.Difficulty, effectiveness int) int {
	return tierDamage[tier] * (100 - effectiveness) / 100
}

// AbortDamage returns the halved penalty for walking away.
func AbortDamage(tier domain.Difficulty) int {
	return DamageTaken(tier, 0) / 2
}

// DropsItem reports whether roll (uniform in [0,1)) wins the tier's item
// drop. Success only; the caller gates on outcome.
func DropsItem(tier domain.Difficulty, roll float64) bool {
	return roll < dropChance[tier]
}

// HintCost returns the XP price of a hint at the given level and tier.
func HintCost(level int, tier domain.Difficulty) float64 {
	base, ok := hintBaseCost[level]
	if !ok {
		base = hintDefaultCost
	}
	return base * hintDifficultyMultiplier[tier]
}

// PoolPenalty returns the compounding reward-pool deduction fraction for
// the game difficulty.
func PoolPenalty(gd game.Difficulty) float64 {
	return poolPenalty[gd]
}

// HintsAllowed reports whether hints are available at the game
// difficulty. The hardest tier disables them entirely.
func HintsAllowed(gd game.Difficulty) bool {
	return gd != game.DifficultyUltra
}
