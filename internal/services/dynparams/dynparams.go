package dynparams

import (
	"math"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
	"VolPosture/pkg/util"
)

// Inputs carries the rolling histories and current observations the
// engine standardizes, plus the previous EMA state (nil on first use).
type Inputs struct {
	RelVolHist []float64
	OIRankHist []float64
	IV30Hist   []float64
	HV20Hist   []float64
	VIXHist    []float64

	RelVol float64
	OIRank float64
	IV30   float64
	HV20   float64
	VIX    float64

	PrevBeta   *float64
	PrevLambda *float64
	PrevAlpha  *float64
}

// ZScore standardizes x against history using the sample standard
// deviation. Degenerate histories (too short, near-zero spread) return
// 0.0 so downstream math stays at the static baseline; never NaN.
func ZScore(history []float64, x float64, minSamples int) float64 {
	n := len(history)
	if n < minSamples {
		return 0
	}
	var sum float64
	for _, v := range history {
		sum += v
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range history {
		d := v - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(n-1))
	if std < 1e-6 {
		return 0
	}
	return util.Clamp((x-mean)/std, -3, 3)
}

// EMA advances an exponential moving average with span-derived alpha.
// The first observation seeds the average directly.
func EMA(prev *float64, value float64, span int) float64 {
	if prev == nil {
		return value
	}
	a := 2.0 / (float64(span) + 1)
	return *prev + a*(value-*prev)
}

// Compute derives the adaptive parameters for one analysis. Raw values
// are band-clipped, EMA-smoothed, then validated; any invalid output
// drops the whole set back to the static bases.
func Compute(in Inputs, th config.Thresholds) models.DynamicParamsSnapshot {
	zRelVol := ZScore(in.RelVolHist, in.RelVol, th.ZScoreMinSamples)
	zOIRank := ZScore(in.OIRankHist, in.OIRank, th.ZScoreMinSamples)
	zIV30 := ZScore(in.IV30Hist, in.IV30, th.ZScoreMinSamples)
	zHV20 := ZScore(in.HV20Hist, in.HV20, th.ZScoreMinSamples)
	zVIX := ZScore(in.VIXHist, in.VIX, th.ZScoreMinSamples)

	betaRaw := th.BetaBase * (1 + 0.15*zRelVol + 0.10*zOIRank)
	lambdaRaw := th.LambdaBase * (1 + 0.25*zIV30 - 0.10*zHV20)
	alphaRaw := th.AlphaBase * (1 + 0.4*zVIX)

	beta := EMA(in.PrevBeta, util.Clamp(betaRaw, th.BetaMin, th.BetaMax), th.BetaEMASpan)
	lambda := EMA(in.PrevLambda, util.Clamp(lambdaRaw, th.LambdaMin, th.LambdaMax), th.LambdaEMASpan)
	alpha := EMA(in.PrevAlpha, util.Clamp(alphaRaw, th.AlphaMin, th.AlphaMax), th.AlphaEMASpan)

	enabled := th.EnableDynamicParams
	if !valid(beta) || !valid(lambda) || !valid(alpha) {
		beta = util.Clamp(th.BetaBase, th.BetaMin, th.BetaMax)
		lambda = util.Clamp(th.LambdaBase, th.LambdaMin, th.LambdaMax)
		alpha = util.Clamp(th.AlphaBase, th.AlphaMin, th.AlphaMax)
		enabled = false
	}

	return models.DynamicParamsSnapshot{
		Enabled:   enabled,
		VIX:       in.VIX,
		BetaT:     beta,
		LambdaT:   lambda,
		AlphaT:    alpha,
		BetaRaw:   betaRaw,
		LambdaRaw: lambdaRaw,
		AlphaRaw:  alphaRaw,
	}
}

// Static returns the baseline parameter set used when adaptation is
// disabled or inputs are unusable.
func Static(th config.Thresholds, vix float64) models.DynamicParamsSnapshot {
	return models.DynamicParamsSnapshot{
		Enabled:   false,
		VIX:       vix,
		BetaT:     util.Clamp(th.BetaBase, th.BetaMin, th.BetaMax),
		LambdaT:   util.Clamp(th.LambdaBase, th.LambdaMin, th.LambdaMax),
		AlphaT:    util.Clamp(th.AlphaBase, th.AlphaMin, th.AlphaMax),
		BetaRaw:   th.BetaBase,
		LambdaRaw: th.LambdaBase,
		AlphaRaw:  th.AlphaBase,
	}
}

func valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}
