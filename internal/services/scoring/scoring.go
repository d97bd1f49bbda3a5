package scoring

import (
	"math"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
	"VolPosture/pkg/util"
)

// Options tune a single scoring pass.
type Options struct {
	// SkipOI bypasses the active-open-ratio gate when delta-OI data is
	// known stale.
	SkipOI bool
	// IgnoreEarnings drops the earnings proximity boost.
	IgnoreEarnings bool
}

// Direction computes the directional score with a full term breakdown.
func Direction(rec *models.Record, f models.Features, dyn models.DynamicParamsSnapshot, th config.Thresholds, opts Options) models.DirectionBreakdown {
	var b models.DirectionBreakdown

	price := models.FloatOr(rec.PriceChgPct, 0)
	b.PriceTerm = 0.90 * math.Tanh(price/1.75)

	b.IntensityMult = util.Clamp(
		1+th.DirIntensityGain*math.Log10(math.Max(0, f.TotalNotional)/th.DirIntensityNotionalBase+1),
		th.DirIntensityFloor, th.DirIntensityCeil,
	)
	b.NotionalTerm = 0.60 * f.NotionalBias * b.IntensityMult
	b.VolBiasTerm = 0.35 * f.VolumeBias * b.IntensityMult

	if rec.RelVolTo90D != nil {
		switch {
		case *rec.RelVolTo90D >= th.RelVolHot:
			b.RelVolTerm = 0.18
		case *rec.RelVolTo90D <= th.RelVolCold:
			b.RelVolTerm = -0.05
		}
	}

	switch {
	case f.CPRatio >= th.CallPutRatioBull:
		b.CPRTerm = 0.30
	case f.CPRatio <= th.CallPutRatioBear:
		b.CPRTerm = -0.30
	}

	if rec.PutPct != nil {
		switch {
		case *rec.PutPct >= th.PutPctBear:
			b.PutPctTerm = -0.20
		case *rec.PutPct <= th.PutPctBull:
			b.PutPctTerm = 0.20
		default:
			b.PutPctTerm = 0.20 * (50 - *rec.PutPct) / 50
		}
	}

	b.SpotVolTerm = f.SpotVolSignal

	b.Raw = b.PriceTerm + b.NotionalTerm + b.VolBiasTerm + b.RelVolTerm + b.CPRTerm + b.PutPctTerm + b.SpotVolTerm

	b.StructureAmp = util.Clamp(
		th.StructureAmpBase+th.StructureAmpGain*f.StructurePurity,
		th.StructureAmpFloor, th.StructureAmpCeil,
	)

	b.AORGate = 1.0
	if !opts.SkipOI && f.OIDataAvailable {
		beta := th.ActiveOpenRatioBeta
		if dyn.Enabled {
			beta = dyn.BetaT
		}
		b.AORGate = 1 + beta*math.Tanh(3*f.ActiveOpenRatio)
	}

	b.Final = b.Raw * b.StructureAmp * b.AORGate
	return b
}

// Vol computes the volatility score: positive favors owning volatility,
// negative favors selling it.
func Vol(rec *models.Record, f models.Features, term models.TermStructure, dyn models.DynamicParamsSnapshot, fearActive bool, th config.Thresholds, opts Options) models.VolBreakdown {
	var b models.VolBreakdown

	ivr := models.FloatOr(rec.IVR, 0)
	ivChg := models.FloatOr(rec.IV30ChgPct, 0)

	// Sell side: rich IV relative to its own history and to realized.
	sell := 0.0
	if rec.IVR != nil {
		sell += 1.2 * (ivr - 50) / 50
	}
	sell += 1.2 * f.IVRVLog
	if (rec.IVR != nil && ivr >= th.IVShortRichRank) || f.IVRatio >= th.IVShortRichRatio {
		sell += 0.6
	}
	if rec.IV30ChgPct != nil && ivChg <= th.IVPopDown {
		sell += 0.5
	}
	if fearActive {
		sell += 0.4
	}
	b.SellScore = sell

	// Buy side: cheap IV, pops, and event proximity.
	buy := 0.0
	if rec.HV20 != nil && rec.IV30 != nil && *rec.HV20 > 0 {
		buy += 0.8 * math.Max(0, (*rec.HV20-*rec.IV30) / *rec.HV20)
	}
	if rec.IV30ChgPct != nil && ivChg >= th.IVPopUp {
		buy += 0.5
	}
	if (rec.IVR != nil && ivr <= th.IVLongCheapRank) || f.IVRatio <= th.IVLongCheapRatio {
		buy += 0.6
	}
	b.EarningsBoost = earningsBoost(f.DaysToEarnings, th, opts)
	buy += b.EarningsBoost
	b.BuyScore = buy

	switch {
	case f.RegimeRatio >= th.RegimeHot:
		b.RegimeTerm = 0.2
	case f.RegimeRatio <= th.RegimeCalm:
		b.RegimeTerm = -0.2
	}

	b.TermAdjustment = term.Adjustment
	b.Raw = b.BuyScore - b.SellScore + b.RegimeTerm + b.TermAdjustment

	b.MultiLegGate = 1.0
	if rec.MultiLegPct != nil && *rec.MultiLegPct > th.MultiLegConfThresh && rec.IVR != nil {
		if ivr > th.IVShortRichRank {
			b.MultiLegGate = 0.8
		} else if ivr < th.IVLongCheapRank {
			b.MultiLegGate = 0.9
		}
	}

	b.DynamicGate = 1.0
	if dyn.Enabled {
		b.DynamicGate = 1 + dyn.AlphaT*dyn.LambdaT
	}

	b.Final = b.Raw * b.MultiLegGate * b.DynamicGate
	return b
}

func earningsBoost(days *int, th config.Thresholds, opts Options) float64 {
	if opts.IgnoreEarnings || days == nil || *days <= 0 {
		return 0
	}
	switch d := *days; {
	case d <= 2:
		return 0.8
	case d <= 7:
		return 0.4
	case d <= th.EarningsWindowDays:
		return 0.2
	default:
		return 0
	}
}
