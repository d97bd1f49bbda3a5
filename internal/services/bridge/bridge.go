package bridge

import (
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
)

// Build condenses one analysis into the downstream-facing snapshot.
// It is derived strictly from the result, so rebuilding from a stored
// result yields the identical snapshot.
func Build(res *models.Result, rec *models.Record, isIndex bool, microTemplate string, th config.Thresholds, asOf time.Time) models.BridgeSnapshot {
	return models.BridgeSnapshot{
		Symbol: res.Symbol,
		AsOf:   asOf,
		MarketState: models.MarketState{
			VIX:            res.DynamicParams.VIX,
			IVR:            rec.IVR,
			IV30:           rec.IV30,
			HV20:           rec.HV20,
			HV1Y:           rec.HV1Y,
			TermLabel:      res.TermStructure.Label,
			TermAdjustment: res.TermStructure.Adjustment,
		},
		EventState: models.EventState{
			EarningsDate:     rec.EarningsDate,
			DaysToEarnings:   res.Features.DaysToEarnings,
			IsEarningsWindow: inEarningsWindow(res.Features.DaysToEarnings, th),
			IsIndex:          isIndex,
			IsSqueeze:        res.Squeeze.Triggered,
		},
		ExecutionState: models.ExecutionState{
			Quadrant:        res.Quadrant,
			DirectionScore:  res.DirectionScore,
			VolScore:        res.VolScore,
			VolumeBias:      res.Features.VolumeBias,
			NotionalBias:    res.Features.NotionalBias,
			Confidence:      res.Confidence,
			Liquidity:       res.Liquidity,
			ActiveOpenRatio: res.Features.ActiveOpenRatio,
			OIDataAvailable: res.Features.OIDataAvailable,
			Penalized:       res.Penalized,
			FlowBias:        flowBias(res.Features),
		},
		TermStructure: res.TermStructure,
		MicroTemplate: microTemplate,
	}
}

func inEarningsWindow(days *int, th config.Thresholds) bool {
	return days != nil && *days >= 0 && *days <= th.EarningsWindowDays
}

func flowBias(f models.Features) string {
	switch {
	case f.NotionalBias >= 0.15 || f.VolumeBias >= 0.15:
		return "call_heavy"
	case f.NotionalBias <= -0.15 || f.VolumeBias <= -0.15:
		return "put_heavy"
	default:
		return "balanced"
	}
}
