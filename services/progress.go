package services

import "math"

// LevelProgress describes where a total XP value sits inside its level band
type LevelProgress struct {
	CurrentLevel           int     `json:"current_level"`
	TotalXP                int64   `json:"total_xp"`
	ProgressInCurrentLevel int64   `json:"progress_in_current_level"`
	XPNeededForNextLevel   int64   `json:"xp_needed_for_next_level"`
	ProgressPercentage     float64 `json:"progress_percentage"`
	CurrentLevelThreshold  int64   `json:"current_level_threshold"`
	NextLevelThreshold     int64   `json:"next_level_threshold"`
}

// CalculateLevelProgress builds the progress report for totalXP. Pure.
func CalculateLevelProgress(totalXP int64) LevelProgress {
	level := LevelFor(totalXP)
	current := CumulativeXPForLevel(level)
	next := CumulativeXPForLevel(level + 1)

	p := LevelProgress{
		CurrentLevel:           level,
		TotalXP:                totalXP,
		ProgressInCurrentLevel: totalXP - current,
		XPNeededForNextLevel:   next - totalXP,
		CurrentLevelThreshold:  current,
		NextLevelThreshold:     next,
	}
	if band := next - current; band > 0 {
		p.ProgressPercentage = round2(float64(p.ProgressInCurrentLevel) / float64(band) * 100)
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
