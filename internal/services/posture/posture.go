package posture

import (
	"math"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
	"VolPosture/pkg/util"
)

// Posture labels.
const (
	TrendConfirm = "TREND_CONFIRM"
	Countertrend = "COUNTERTREND"
	OneDayShock  = "ONE_DAY_SHOCK"
	Chop         = "CHOP"
)

// Strength buckets.
const (
	StrengthStrong = "strong"
	StrengthMedium = "medium"
	StrengthWeak   = "weak"
)

// Consistency is the mean sign of the most recent scores, in [-1, 1].
// history is newest-first; only the first days entries count.
func Consistency(history []float64, days int) float64 {
	if days <= 0 || len(history) == 0 {
		return 0
	}
	n := days
	if len(history) < n {
		n = len(history)
	}
	sum := 0.0
	for _, v := range history[:n] {
		sum += sign(v)
	}
	return util.Clamp(sum/float64(n), -1, 1)
}

// Assess classifies today's direction score against recent history.
func Assess(direction float64, history []float64, th config.Thresholds) models.PostureAssessment {
	c := Consistency(history, th.ConsistencyDays)
	strength := strengthBucket(math.Abs(direction), th)
	todaySign := sign(direction)
	trendSign := sign(c)

	label := Chop
	switch {
	case math.Abs(c) >= th.PostureConsistencyStrong && todaySign != 0 && todaySign == trendSign:
		label = TrendConfirm
	case math.Abs(c) >= th.PostureConsistencyStrong && todaySign != 0 && trendSign != 0 && todaySign != trendSign:
		label = Countertrend
	case math.Abs(c) <= th.PostureConsistencyWeak && strength == StrengthStrong:
		label = OneDayShock
	}

	a := models.PostureAssessment{
		Label:       label,
		Strength:    strength,
		Consistency: c,
		Confidence:  postureConfidence(label, strength),
	}
	a.Reasons, a.ReasonCodes = describe(label, strength, c)
	return a
}

// Trend fits an OLS slope through the last trend_days direction scores
// in chronological order. history is newest-first.
func Trend(history []float64, th config.Thresholds) models.TrendAssessment {
	k := th.TrendDays
	if len(history) < k {
		k = len(history)
	}
	out := models.TrendAssessment{Label: "横盘", Days: k}
	if k <= 1 {
		return out
	}

	// Oldest first so a positive slope means an improving score.
	xs := make([]float64, 0, k)
	ys := make([]float64, 0, k)
	for i := k - 1; i >= 0; i-- {
		v := history[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, float64(len(xs)))
		ys = append(ys, v)
	}
	if len(xs) <= 1 {
		return out
	}

	out.Slope = olsSlope(xs, ys)
	switch {
	case out.Slope > th.TrendSlopeUp:
		out.Label = "上行"
	case out.Slope < -th.TrendSlopeDown:
		out.Label = "下行"
	}
	return out
}

func olsSlope(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sx, sy, sxy, sxx float64
	for i := range xs {
		sx += xs[i]
		sy += ys[i]
		sxy += xs[i] * ys[i]
		sxx += xs[i] * xs[i]
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func strengthBucket(abs float64, th config.Thresholds) string {
	switch {
	case abs >= th.PostureDirectionStrong:
		return StrengthStrong
	case abs >= th.PostureDirectionMed:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

func postureConfidence(label, strength string) models.Grade {
	switch label {
	case TrendConfirm:
		if strength == StrengthStrong {
			return models.GradeHigh
		}
		return models.GradeMed
	case OneDayShock, Countertrend:
		return models.GradeLow
	default:
		return models.GradeLow
	}
}

func describe(label, strength string, c float64) (reasons, codes []string) {
	switch label {
	case TrendConfirm:
		reasons = []string{"today's direction agrees with a consistent multi-day trend"}
		codes = []string{"POSTURE_TREND_CONFIRM"}
	case Countertrend:
		reasons = []string{"today's direction opposes a consistent multi-day trend"}
		codes = []string{"POSTURE_COUNTERTREND"}
	case OneDayShock:
		reasons = []string{"strong single-day move without trend support"}
		codes = []string{"POSTURE_ONE_DAY_SHOCK"}
	default:
		reasons = []string{"no consistent trend and no decisive move"}
		codes = []string{"POSTURE_CHOP"}
	}
	if strength == StrengthStrong {
		codes = append(codes, "POSTURE_STRONG_MOVE")
	}
	if math.Abs(c) >= 0.99 {
		codes = append(codes, "POSTURE_UNANIMOUS_HISTORY")
	}
	return reasons, codes
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
