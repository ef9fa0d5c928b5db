package service

import (
	"math"

	"mindtracking/internal/model"
)

// Level band upper edges on the normalized scale
const (
	poorCeiling    = 4.9
	neutralCeiling = 7.4
)

// ComputeScore turns the point values of a set of answers into a Score.
// An empty set yields the zero Score with Answered false.
func ComputeScore(points []int) model.Score {
	raw := 0
	for _, p := range points {
		raw += p
	}
	return ScoreFromTotals(raw, len(points))
}

// ScoreFromTotals scores a raw sum over questionCount answers
func ScoreFromTotals(raw, questionCount int) model.Score {
	if questionCount <= 0 {
		return model.Score{}
	}
	maxPoints := questionCount * model.MaxAlternativePoints
	normalized := round2(float64(raw) / float64(maxPoints) * 10)
	if normalized > 10 {
		normalized = 10
	}
	if normalized < 0 {
		normalized = 0
	}
	return model.Score{
		Raw:           raw,
		QuestionCount: questionCount,
		MaxPoints:     maxPoints,
		Normalized:    normalized,
		Level:         LevelFor(normalized),
		Answered:      true,
	}
}

// LevelFor maps a normalized score onto its band.
// 4.9 is the first Neutral value and 7.4 the last one.
func LevelFor(normalized float64) model.Level {
	switch {
	case normalized < poorCeiling:
		return model.LevelPoor
	case normalized <= neutralCeiling:
		return model.LevelNeutral
	default:
		return model.LevelGood
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
