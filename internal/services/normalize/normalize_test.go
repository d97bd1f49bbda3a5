package normalize

import (
	"math"
	"testing"

	"VolPosture/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCleanPercent(t *testing.T) {
	cases := []struct {
		in   any
		want *float64
	}{
		{"+3.1%", models.Float(3.1)},
		{"58.2", models.Float(58.2)},
		{"-12.5%", models.Float(-12.5)},
		{"1,234.5%", models.Float(1234.5)},
		{2.5, models.Float(2.5)},
		{"n/a", nil},
		{"-", nil},
		{"", nil},
		{nil, nil},
		{"garbage", nil},
	}
	for _, c := range cases {
		got := CleanPercent(c.in)
		if (got == nil) != (c.want == nil) {
			t.Fatalf("CleanPercent(%v) = %v, want %v", c.in, got, c.want)
		}
		if got != nil && !almostEqual(*got, *c.want) {
			t.Fatalf("CleanPercent(%v) = %v, want %v", c.in, *got, *c.want)
		}
	}
}

func TestCleanNumber(t *testing.T) {
	if got := CleanNumber("1,234,567"); got == nil || *got != 1234567 {
		t.Fatalf("CleanNumber comma-separated: got %v", got)
	}
	if got := CleanNumber("+42"); got == nil || *got != 42 {
		t.Fatalf("CleanNumber plus-prefixed: got %v", got)
	}
	if got := CleanNumber("NaN"); got != nil {
		t.Fatalf("CleanNumber(NaN) should be nil, got %v", *got)
	}
}

func TestCleanNotional(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2.5M", 2.5e6},
		{"980K", 980e3},
		{"1.2B", 1.2e9},
		{"750", 750},
		{"-1.5M", -1.5e6},
		{"3.4m", 3.4e6},
	}
	for _, c := range cases {
		got := CleanNotional(c.in)
		if got == nil || !almostEqual(*got, c.want) {
			t.Fatalf("CleanNotional(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if got := CleanNotional("??"); got != nil {
		t.Fatalf("CleanNotional(??) should be nil")
	}
}

func TestNormalizeBatchFractionScale(t *testing.T) {
	raws := []models.RawRecord{
		{"Symbol": "AAA", "PutPct": 0.55, "IVR": 0.80},
		{"Symbol": "BBB", "PutPct": 0.42, "IVR": 0.35},
		{"Symbol": "CCC", "PutPct": 0.61, "IVR": 0.90},
	}
	recs := NormalizeBatch(raws)
	if got := *recs[0].PutPct; !almostEqual(got, 55) {
		t.Fatalf("PutPct should be rescaled to percent, got %v", got)
	}
	if got := *recs[1].IVR; !almostEqual(got, 35) {
		t.Fatalf("IVR should be rescaled to percent, got %v", got)
	}
}

func TestNormalizeBatchPercentScaleKept(t *testing.T) {
	raws := []models.RawRecord{
		{"Symbol": "AAA", "PutPct": "55%"},
		{"Symbol": "BBB", "PutPct": "42%"},
	}
	recs := NormalizeBatch(raws)
	if got := *recs[0].PutPct; !almostEqual(got, 55) {
		t.Fatalf("already-percent column must not be rescaled, got %v", got)
	}
}

func TestNormalizeRankClamp(t *testing.T) {
	rec := NormalizeOne(models.RawRecord{"Symbol": "AAA", "IVR": 150.0, "OI_PctRank": -5.0})
	if *rec.IVR != 100 {
		t.Fatalf("IVR should clamp to 100, got %v", *rec.IVR)
	}
	if *rec.OIPctRank != 0 {
		t.Fatalf("OI_PctRank should clamp to 0, got %v", *rec.OIPctRank)
	}
}

func TestNormalizeDeltaOIAlias(t *testing.T) {
	rec := NormalizeOne(models.RawRecord{"Symbol": "AAA", "ΔOI_1D": "12,000"})
	if rec.DeltaOI1D == nil || *rec.DeltaOI1D != 12000 {
		t.Fatalf("unicode delta alias not parsed: %v", rec.DeltaOI1D)
	}
}

func TestNormalizeUnparsableBecomesNil(t *testing.T) {
	rec := NormalizeOne(models.RawRecord{"Symbol": "AAA", "IV30": "oops", "HV20": 25.0})
	if rec.IV30 != nil {
		t.Fatalf("unparsable IV30 should be nil")
	}
	if rec.HV20 == nil || *rec.HV20 != 25 {
		t.Fatalf("HV20 lost: %v", rec.HV20)
	}
}
