package models

import "strings"

// Level is a named tier derived from a point total.
type Level struct {
	Key             string `json:"key"`
	Rank            int    `json:"rank"`
	MinPoints       int64  `json:"min_points"`
	RequiredCorrect int64  `json:"required_correct"`
}

const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"
)

// Levels is ordered by rank.
var Levels = []Level{
	{Key: LevelBeginner, Rank: 0, MinPoints: 0, RequiredCorrect: 0},
	{Key: LevelIntermediate, Rank: 1, MinPoints: 50, RequiredCorrect: 5},
	{Key: LevelAdvanced, Rank: 2, MinPoints: 150, RequiredCorrect: 10},
	{Key: LevelExpert, Rank: 3, MinPoints: 300, RequiredCorrect: 20},
}

// LevelForPoints returns the highest level whose threshold is <= points.
func LevelForPoints(points int64) Level {
	current := Levels[0]
	for _, l := range Levels {
		if points >= l.MinPoints {
			current = l
		}
	}
	return current
}

// LevelByKey matches case-insensitively.
func LevelByKey(key string) (Level, bool) {
	for _, l := range Levels {
		if strings.EqualFold(l.Key, strings.TrimSpace(key)) {
			return l, true
		}
	}
	return Level{}, false
}

// NextLevel returns the level after l, false at the top.
func NextLevel(l Level) (Level, bool) {
	if l.Rank+1 >= len(Levels) {
		return Level{}, false
	}
	return Levels[l.Rank+1], true
}

// Difficulty is the challenge difficulty that feeds this level's quota.
func (l Level) Difficulty() Difficulty {
	return Difficulty(strings.ToLower(l.Key))
}
