package domain

import "time"

// Scoring constants. A correct answer always earns the base; the speed bonus
// scales linearly with the time remaining when the answer arrived.
const (
	BasePoints     = 500
	MaxSpeedBonus  = 500
	TimedOutAnswer = -1
)

// Score computes the points for one answer. Incorrect and timed-out answers
// score zero. remaining is clamped to [0, limit] before use, so the result for
// a correct answer is always within [BasePoints, BasePoints+MaxSpeedBonus].
func Score(correct bool, remaining, limit time.Duration) int {
	if !correct || limit <= 0 {
		return 0
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > limit {
		remaining = limit
	}
	bonus := int(float64(remaining) / float64(limit) * MaxSpeedBonus)
	return BasePoints + bonus
}

// HealthDelta returns the signed health change for an answer outcome.
func HealthDelta(correct bool, gainOnCorrect, lossOnWrong int) int {
	if correct {
		return gainOnCorrect
	}
	return -lossOnWrong
}

// ClampHealth bounds a health value to [0, maxHealth].
func ClampHealth(health, maxHealth int) int {
	if health < 0 {
		return 0
	}
	if health > maxHealth {
		return maxHealth
	}
	return health
}
