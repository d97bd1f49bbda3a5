package features

import (
	"math"
	"testing"
	"time"

	"VolPosture/internal/domain/models"
)

var now = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

func TestBuildFlowBiases(t *testing.T) {
	rec := &models.Record{
		Symbol:       "AAA",
		CallVolume:   models.Float(8000),
		PutVolume:    models.Float(2000),
		CallNotional: models.Float(3e6),
		PutNotional:  models.Float(1e6),
	}
	f := Build(rec, now)
	if math.Abs(f.VolumeBias-0.6) > 1e-9 {
		t.Fatalf("VolumeBias = %v, want 0.6", f.VolumeBias)
	}
	if math.Abs(f.NotionalBias-0.5) > 1e-9 {
		t.Fatalf("NotionalBias = %v, want 0.5", f.NotionalBias)
	}
	if math.Abs(f.CPRatio-3.0) > 1e-9 {
		t.Fatalf("CPRatio should prefer notional, got %v", f.CPRatio)
	}
}

func TestBuildCPRatioFallsBackToVolume(t *testing.T) {
	rec := &models.Record{
		CallVolume: models.Float(6000),
		PutVolume:  models.Float(3000),
	}
	f := Build(rec, now)
	if math.Abs(f.CPRatio-2.0) > 1e-9 {
		t.Fatalf("CPRatio = %v, want 2.0", f.CPRatio)
	}
	if Build(&models.Record{}, now).CPRatio != 1.0 {
		t.Fatalf("empty record should default CPRatio to 1.0")
	}
}

func TestBuildVolRelations(t *testing.T) {
	rec := &models.Record{
		IV30: models.Float(18),
		HV20: models.Float(25),
		HV1Y: models.Float(20),
	}
	f := Build(rec, now)
	if math.Abs(f.IVRVLog-math.Log(18.0/25.0)) > 1e-9 {
		t.Fatalf("IVRVLog = %v", f.IVRVLog)
	}
	if math.Abs(f.IVRatio-0.72) > 1e-9 {
		t.Fatalf("IVRatio = %v", f.IVRatio)
	}
	if math.Abs(f.RegimeRatio-1.25) > 1e-9 {
		t.Fatalf("RegimeRatio = %v", f.RegimeRatio)
	}

	empty := Build(&models.Record{}, now)
	if empty.IVRVLog != 0 || empty.IVRatio != 1.0 || empty.RegimeRatio != 1.0 {
		t.Fatalf("defaults wrong: %+v", empty)
	}
}

func TestSpotVolSignal(t *testing.T) {
	cases := []struct {
		price, iv, want float64
	}{
		{1.0, 3.0, 0.4},
		{-1.0, 3.0, -0.5},
		{0.3, -3.0, 0.2},
		{0.0, 0.0, 0.0},
		{0.4, 3.0, 0.0}, // below the 0.5 move threshold
	}
	for _, c := range cases {
		if got := spotVolSignal(c.price, c.iv); got != c.want {
			t.Fatalf("spotVolSignal(%v,%v) = %v, want %v", c.price, c.iv, got, c.want)
		}
	}
}

func TestStructurePurityBounds(t *testing.T) {
	rec := &models.Record{
		SingleLegPct:  models.Float(95),
		MultiLegPct:   models.Float(3),
		ContingentPct: models.Float(2),
	}
	f := Build(rec, now)
	if f.StructurePurity < -1 || f.StructurePurity > 1 {
		t.Fatalf("purity out of bounds: %v", f.StructurePurity)
	}
	if math.Abs(f.StructurePurity-0.91) > 1e-9 {
		t.Fatalf("purity = %v, want 0.91", f.StructurePurity)
	}
}

func TestActiveOpenRatioAvailability(t *testing.T) {
	// No delta-OI: unavailable, ratio must be the neutral zero.
	f := Build(&models.Record{Volume: models.Float(10000)}, now)
	if f.OIDataAvailable {
		t.Fatalf("OI should be unavailable")
	}
	if f.ActiveOpenRatio != 0 {
		t.Fatalf("ratio should be 0 when unavailable")
	}

	// Delta-OI of zero is available data, still distinguishable.
	f = Build(&models.Record{Volume: models.Float(10000), DeltaOI1D: models.Float(0)}, now)
	if !f.OIDataAvailable {
		t.Fatalf("zero delta-OI must still count as available")
	}

	// Denominator falls back to call+put volume, then 1.
	f = Build(&models.Record{
		DeltaOI1D:  models.Float(500),
		CallVolume: models.Float(800),
		PutVolume:  models.Float(200),
	}, now)
	if math.Abs(f.ActiveOpenRatio-0.5) > 1e-9 {
		t.Fatalf("ratio = %v, want 0.5", f.ActiveOpenRatio)
	}
}

func TestEarningsDays(t *testing.T) {
	rec := &models.Record{EarningsDate: "12-Feb-2026 AMC"}
	f := Build(rec, now)
	if f.DaysToEarnings == nil || *f.DaysToEarnings != 2 {
		t.Fatalf("DaysToEarnings = %v, want 2", f.DaysToEarnings)
	}
	if Build(&models.Record{}, now).DaysToEarnings != nil {
		t.Fatalf("missing earnings date should stay nil")
	}
}

func TestMissingKeyFields(t *testing.T) {
	rec := &models.Record{
		PriceChgPct: models.Float(1),
		IV30:        models.Float(20),
		HV20:        models.Float(22),
	}
	f := Build(rec, now)
	want := []string{"RelVolTo90D", "CallVolume", "PutVolume", "IVR"}
	if len(f.MissingFields) != len(want) {
		t.Fatalf("missing = %v, want %v", f.MissingFields, want)
	}
	for i, name := range want {
		if f.MissingFields[i] != name {
			t.Fatalf("missing[%d] = %s, want %s", i, f.MissingFields[i], name)
		}
	}
}
