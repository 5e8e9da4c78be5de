package services

import "math"

// Level curve: XP needed to go from level L to L+1 is floor(BaseXPPerLevel * LevelMultiplier^(L-1))
const (
	BaseXPPerLevel  = 100
	LevelMultiplier = 1.5
)

// XPRequired returns XP required to reach level+1 from level.
// e.g., XPRequired(1) = 100, XPRequired(2) = 150, XPRequired(3) = 225
func XPRequired(level int) int64 {
	if level < 1 {
		level = 1
	}
	v := math.Floor(float64(BaseXPPerLevel) * math.Pow(LevelMultiplier, float64(level-1)))
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

// LevelFor returns the level reached with totalXP, by iterative subtraction.
// Always >= 1.
func LevelFor(totalXP int64) int {
	level := 1
	remaining := totalXP
	for remaining > 0 {
		need := XPRequired(level)
		if remaining < need {
			break
		}
		remaining -= need
		level++
	}
	return level
}

// CumulativeXPForLevel returns total XP needed to reach level (0 for level <= 1).
// Saturates at math.MaxInt64.
func CumulativeXPForLevel(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		step := XPRequired(l)
		if total > math.MaxInt64-step {
			return math.MaxInt64
		}
		total += step
	}
	return total
}
