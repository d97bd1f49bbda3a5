package bridge

import (
	"testing"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
)

func TestBuildSnapshot(t *testing.T) {
	th := config.DefaultScoring().Thresholds
	asOf := time.Date(2026, 2, 10, 21, 0, 0, 0, time.UTC)

	days := 5
	rec := &models.Record{
		Symbol:       "NVDA",
		IVR:          models.Float(62),
		IV30:         models.Float(45),
		HV20:         models.Float(38),
		EarningsDate: "25-Feb-2026",
	}
	res := &models.Result{
		Symbol:         "NVDA",
		DirectionScore: 1.42,
		VolScore:       2.33,
		Quadrant:       models.QuadrantBullLongVol,
		Confidence:     models.GradeHigh,
		Liquidity:      models.GradeMed,
		TermStructure:  models.TermStructure{Label: "normal_steep", Adjustment: -0.06},
		Squeeze:        models.SqueezeSignal{Triggered: true},
		DynamicParams:  models.DynamicParamsSnapshot{VIX: 17.5},
		Features: models.Features{
			VolumeBias:      0.6,
			NotionalBias:    0.5,
			ActiveOpenRatio: 0.02,
			OIDataAvailable: true,
			DaysToEarnings:  &days,
		},
	}

	snap := Build(res, rec, false, "bull_long_vol", th, asOf)

	if snap.Symbol != "NVDA" || !snap.AsOf.Equal(asOf) {
		t.Fatalf("identity fields wrong: %+v", snap)
	}
	if snap.MarketState.VIX != 17.5 || *snap.MarketState.IVR != 62 {
		t.Fatalf("market state wrong: %+v", snap.MarketState)
	}
	if snap.MarketState.TermLabel != "normal_steep" {
		t.Fatalf("term label = %s", snap.MarketState.TermLabel)
	}
	if !snap.EventState.IsEarningsWindow {
		t.Fatalf("5 days out is inside the earnings window")
	}
	if !snap.EventState.IsSqueeze || snap.EventState.IsIndex {
		t.Fatalf("event state wrong: %+v", snap.EventState)
	}
	if snap.ExecutionState.Quadrant != models.QuadrantBullLongVol {
		t.Fatalf("quadrant = %s", snap.ExecutionState.Quadrant)
	}
	if snap.ExecutionState.FlowBias != "call_heavy" {
		t.Fatalf("flow bias = %s", snap.ExecutionState.FlowBias)
	}
	if snap.MicroTemplate != "bull_long_vol" {
		t.Fatalf("micro template = %s", snap.MicroTemplate)
	}
}

func TestBuildSnapshotEdges(t *testing.T) {
	th := config.DefaultScoring().Thresholds
	rec := &models.Record{Symbol: "SPY"}
	res := &models.Result{
		Symbol:   "SPY",
		Quadrant: models.QuadrantNeutralWatch,
		Features: models.Features{VolumeBias: -0.4, NotionalBias: -0.2},
	}

	snap := Build(res, rec, true, "generic_micro", th, time.Now())
	if !snap.EventState.IsIndex {
		t.Fatalf("index flag lost")
	}
	if snap.EventState.IsEarningsWindow {
		t.Fatalf("no earnings date means no window")
	}
	if snap.ExecutionState.FlowBias != "put_heavy" {
		t.Fatalf("flow bias = %s", snap.ExecutionState.FlowBias)
	}

	past := -2
	res.Features.DaysToEarnings = &past
	snap = Build(res, rec, true, "generic_micro", th, time.Now())
	if snap.EventState.IsEarningsWindow {
		t.Fatalf("past earnings date is not a window")
	}

	res.Features.VolumeBias, res.Features.NotionalBias = 0.05, -0.05
	snap = Build(res, rec, true, "generic_micro", th, time.Now())
	if snap.ExecutionState.FlowBias != "balanced" {
		t.Fatalf("flow bias = %s", snap.ExecutionState.FlowBias)
	}
}
