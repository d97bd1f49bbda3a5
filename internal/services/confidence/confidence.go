package confidence

import (
	"math"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
	"VolPosture/pkg/util"
)

// Liquidity scores tradability in [0, 1] from five participation
// signals. Volume-like inputs ramp on a log scale so a 10x volume gap
// matters more than a 10% one; missing inputs contribute zero.
func Liquidity(rec *models.Record, f models.Features, th config.Thresholds) (float64, models.Grade) {
	volume := models.FloatOr(rec.Volume, f.TotalVolume)

	score := th.LiqWeightVolume*logRamp(volume, th.AbsVolumeMin, th.AbsVolumeMin*50) +
		th.LiqWeightNotional*logRamp(f.TotalNotional, th.DirIntensityNotionalBase, th.DirIntensityNotionalBase*1000) +
		th.LiqWeightOIRank*rampOrZero(rec.OIPctRank, th.LiqMedOIRank, 90) +
		th.LiqWeightTradeCnt*logRamp(models.FloatOr(rec.TradeCount, 0), th.LiqTradeCountMin, th.LiqTradeCountMin*50) +
		th.LiqWeightRelVol*rampOrZero(rec.RelVolTo90D, th.RelVolCold, 2.2)
	score = util.Clamp(score, 0, 1)

	switch {
	case score >= th.LiqHighScore:
		return score, models.GradeHigh
	case score >= th.LiqMedScore:
		return score, models.GradeMed
	default:
		return score, models.GradeLow
	}
}

// Inputs collects everything confidence weighs besides the record.
type Inputs struct {
	Direction       float64
	Vol             float64
	Liquidity       models.Grade
	FearActive      bool
	MissingCount    int
	OIDataAvailable bool
	ActiveOpenRatio float64
	Consistency     float64
	Penalized       bool
	Quality         models.QualityLevel
}

// Evaluate computes the confidence strength and grade. Additive terms
// first, then multiplicative factors, then the data-quality gate, which
// can only downgrade.
func Evaluate(rec *models.Record, f models.Features, in Inputs, th config.Thresholds) (float64, models.Grade) {
	conf := 0.0

	switch abs := math.Abs(in.Direction); {
	case abs >= th.DirectionScoreThreshold:
		conf += 0.6
	case abs >= th.PostureDirectionMed:
		conf += 0.3
	}
	switch abs := math.Abs(in.Vol); {
	case abs >= th.PenaltyVolPctThresh+0.4:
		conf += 0.6
	case abs >= th.PenaltyVolPctThresh:
		conf += 0.3
	}

	switch in.Liquidity {
	case models.GradeHigh:
		conf += 0.5
	case models.GradeMed:
		conf += 0.25
	}

	if in.FearActive {
		conf -= th.FearConfPenalty
	}
	conf -= th.MissingFieldPenalty * float64(in.MissingCount)
	if in.Penalized {
		conf -= th.ExtremeMovePenalty
	}
	if !in.OIDataAvailable {
		conf -= th.MissingOIPenalty
	}

	conf *= structureFactor(rec, th)
	conf *= consistencyFactor(in.Consistency, th)

	if rec.OIPctRank != nil && *rec.OIPctRank >= th.LiqHighOIRank {
		conf *= 1.2
	}
	if rec.RelVolTo90D != nil && *rec.RelVolTo90D >= th.RelVolHot {
		conf *= 1.1
	}
	if in.OIDataAvailable && in.ActiveOpenRatio < th.ActiveOpenRatioBear {
		conf *= 0.8
	}

	if conf < 0 {
		conf = 0
	}

	grade := models.GradeLow
	switch {
	case conf >= th.ConfidenceHigh:
		grade = models.GradeHigh
	case conf >= th.ConfidenceMed:
		grade = models.GradeMed
	}

	// Data quality gates the grade downward only.
	switch in.Quality {
	case models.QualityLow:
		grade = models.GradeLow
	case models.QualityMed:
		if grade == models.GradeHigh {
			grade = models.GradeMed
		}
	}

	return conf, grade
}

// PenalizeExtremeMove flags outsized price moves that lack volume
// participation or come with IV crush; those days mislead flow metrics.
func PenalizeExtremeMove(rec *models.Record, th config.Thresholds) bool {
	if rec.PriceChgPct == nil || math.Abs(*rec.PriceChgPct) < th.PenaltyExtremeChg {
		return false
	}
	lowVol := rec.RelVolTo90D != nil && *rec.RelVolTo90D <= th.RelVolCold
	ivCrush := rec.IV30ChgPct != nil && *rec.IV30ChgPct <= th.IVPopDown
	return lowVol || ivCrush
}

func structureFactor(rec *models.Record, th config.Thresholds) float64 {
	if rec.MultiLegPct != nil && *rec.MultiLegPct >= th.MultiLegConfThresh {
		return 0.8
	}
	if rec.SingleLegPct != nil && *rec.SingleLegPct >= th.SingleLegConfThresh {
		return 1.1
	}
	if rec.ContingentPct != nil && *rec.ContingentPct >= th.ContingentConfThresh {
		return 0.9
	}
	return 1.0
}

func consistencyFactor(c float64, th config.Thresholds) float64 {
	if c > th.ConsistencyStrong {
		return 1 + th.ConsistencyWeight*c
	}
	if c < -th.ConsistencyStrong {
		return math.Max(0.1, 1-th.ConsistencyWeight*math.Abs(c))
	}
	return 1.0
}

func logRamp(v, lo, hi float64) float64 {
	if v <= 0 {
		return 0
	}
	return util.Ramp(math.Log10(v+1), math.Log10(lo+1), math.Log10(hi+1))
}

func rampOrZero(p *float64, lo, hi float64) float64 {
	if p == nil {
		return 0
	}
	return util.Ramp(*p, lo, hi)
}
