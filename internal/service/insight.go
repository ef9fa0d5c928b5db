package service

import (
	"math"
	"sort"
	"time"

	"mindtracking/internal/model"
)

// trendEpsilon is the smallest slope, in units per day, reported as a direction
const trendEpsilon = 0.01

// PairSameDay joins each questionnaire score with the diary entry written on
// the same calendar day. When a day has several entries the one closest in
// time to the submission wins. Days without an entry are dropped; values are
// never interpolated across days. The result is ordered by day.
func PairSameDay(scores []model.ScorePoint, diary []model.IntensityPoint) []model.PairedPoint {
	byDay := make(map[string][]model.IntensityPoint, len(diary))
	for _, d := range diary {
		if _, ok := d.Intensity.Weight(); !ok {
			continue
		}
		byDay[d.Day] = append(byDay[d.Day], d)
	}

	pairs := make([]model.PairedPoint, 0, len(scores))
	for _, s := range scores {
		candidates := byDay[s.Day]
		if len(candidates) == 0 {
			continue
		}
		best := candidates[0]
		bestGap := absDuration(best.At.Sub(s.SubmittedAt))
		for _, c := range candidates[1:] {
			gap := absDuration(c.At.Sub(s.SubmittedAt))
			if gap < bestGap || (gap == bestGap && c.At.Before(best.At)) {
				best, bestGap = c, gap
			}
		}
		w, _ := best.Intensity.Weight()
		pairs = append(pairs, model.PairedPoint{Day: s.Day, Score: s.Normalized, Intensity: w})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Day < pairs[j].Day })
	return pairs
}

// Correlate computes the Pearson coefficient of score against intensity.
// Fewer than two pairs is reported as insufficient data with a zero coefficient.
func Correlate(pairs []model.PairedPoint) model.Correlation {
	if len(pairs) < 2 {
		return model.Correlation{Status: model.InsightInsufficient, Coefficient: 0, Pairs: len(pairs)}
	}
	xs := make([]float64, len(pairs))
	ys := make([]float64, len(pairs))
	for i, p := range pairs {
		xs[i], ys[i] = p.Score, p.Intensity
	}
	return model.Correlation{
		Status:      model.InsightOK,
		Coefficient: round4(Pearson(xs, ys)),
		Pairs:       len(pairs),
	}
}

// Pearson returns the correlation of xs and ys. Mismatched or short input
// and zero variance on either side yield 0.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// LinearTrend fits y = a + b*x by least squares and classifies the slope b
func LinearTrend(xs, ys []float64) model.Trend {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return model.Trend{Direction: model.TrendStable, Points: n}
	}
	mx, my := mean(xs), mean(ys)
	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - mx
		sxy += dx * (ys[i] - my)
		sxx += dx * dx
	}
	if sxx == 0 {
		return model.Trend{Direction: model.TrendStable, Points: n}
	}
	slope := sxy / sxx

	dir := model.TrendStable
	switch {
	case slope > trendEpsilon:
		dir = model.TrendUp
	case slope < -trendEpsilon:
		dir = model.TrendDown
	}
	return model.Trend{Slope: round4(slope), Direction: dir, Points: n}
}

// ScoreTrend fits the score series against day offsets from the first point
func ScoreTrend(scores []model.ScorePoint) model.Trend {
	days := make([]string, len(scores))
	vals := make([]float64, len(scores))
	for i, s := range scores {
		days[i], vals[i] = s.Day, s.Normalized
	}
	return LinearTrend(dayOffsets(days), vals)
}

// IntensityTrend fits the diary intensity series against day offsets
func IntensityTrend(diary []model.IntensityPoint) model.Trend {
	var days []string
	var vals []float64
	for _, d := range diary {
		w, ok := d.Intensity.Weight()
		if !ok {
			continue
		}
		days = append(days, d.Day)
		vals = append(vals, w)
	}
	return LinearTrend(dayOffsets(days), vals)
}

// dayOffsets converts YYYY-MM-DD days into whole days after the earliest one.
// Unparseable days count as offset 0.
func dayOffsets(days []string) []float64 {
	parsed := make([]time.Time, len(days))
	var first time.Time
	for i, d := range days {
		t, err := time.Parse(dayLayout, d)
		if err != nil {
			continue
		}
		parsed[i] = t
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	out := make([]float64, len(days))
	for i, t := range parsed {
		if t.IsZero() {
			continue
		}
		out[i] = math.Round(t.Sub(first).Hours() / 24)
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
