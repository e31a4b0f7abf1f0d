package progression

import (
	"math"

	"github.com/genyouth/wellness/internal/domain"
)

// MaxLevel caps the level curve.
const MaxLevel = 100

// PointsForLevel returns the balance required to reach a given level.
// Uses an exponential curve: 100 * 1.2^(level-1) for level >= 2.
func PointsForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(100 * math.Pow(1.2, float64(level-1)))
}

// LevelForPoints returns the level for a given balance.
func LevelForPoints(points int64) int {
	level := 1
	for level < MaxLevel {
		if points < PointsForLevel(level+1) {
			return level
		}
		level++
	}
	return MaxLevel
}

// LevelProgress derives the level view shown next to the balance.
func LevelProgress(points int64) domain.Level {
	lvl := LevelForPoints(points)
	if lvl >= MaxLevel {
		return domain.Level{Level: MaxLevel, NextLevelPoints: PointsForLevel(MaxLevel), ProgressPct: 100}
	}

	this := PointsForLevel(lvl)
	next := PointsForLevel(lvl + 1)
	out := domain.Level{
		Level:           lvl,
		NextLevelPoints: next,
		PointsToNext:    max(next-points, 0),
	}
	if span := next - this; span > 0 {
		out.ProgressPct = math.Min(100, math.Max(0, float64(points-this)/float64(span)*100))
	}
	return out
}
