package dynparams

import (
	"math"
	"testing"

	"VolPosture/pkg/config"
)

var th = config.DefaultScoring().Thresholds

func TestZScoreShortHistory(t *testing.T) {
	if z := ZScore([]float64{1, 2, 3}, 2, 10); z != 0 {
		t.Fatalf("short history must yield 0, got %v", z)
	}
}

func TestZScoreZeroSpread(t *testing.T) {
	hist := make([]float64, 20)
	for i := range hist {
		hist[i] = 5.0
	}
	if z := ZScore(hist, 9.0, 10); z != 0 {
		t.Fatalf("constant history must yield 0, got %v", z)
	}
}

func TestZScoreClipped(t *testing.T) {
	hist := []float64{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2}
	if z := ZScore(hist, 1000, 10); z != 3 {
		t.Fatalf("z must clip at +3, got %v", z)
	}
	if z := ZScore(hist, -1000, 10); z != -3 {
		t.Fatalf("z must clip at -3, got %v", z)
	}
}

func TestZScoreNeverNaN(t *testing.T) {
	cases := [][]float64{nil, {}, {1}, make([]float64, 50)}
	for _, hist := range cases {
		if z := ZScore(hist, 1, 10); math.IsNaN(z) {
			t.Fatalf("NaN for history %v", hist)
		}
	}
}

func TestEMASeedsFromFirstObservation(t *testing.T) {
	if got := EMA(nil, 0.3, 10); got != 0.3 {
		t.Fatalf("first observation should seed directly, got %v", got)
	}
	prev := 0.3
	got := EMA(&prev, 0.5, 10)
	want := 0.3 + (2.0/11.0)*(0.5-0.3)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("EMA = %v, want %v", got, want)
	}
}

func TestComputeStaysInBands(t *testing.T) {
	long := make([]float64, 30)
	for i := range long {
		long[i] = float64(i % 7)
	}
	in := Inputs{
		RelVolHist: long, OIRankHist: long, IV30Hist: long, HV20Hist: long, VIXHist: long,
		RelVol: 100, OIRank: 100, IV30: 100, HV20: -100, VIX: 100,
	}
	p := Compute(in, th)
	if p.BetaT < th.BetaMin || p.BetaT > th.BetaMax {
		t.Fatalf("beta %v out of band", p.BetaT)
	}
	if p.LambdaT < th.LambdaMin || p.LambdaT > th.LambdaMax {
		t.Fatalf("lambda %v out of band", p.LambdaT)
	}
	if p.AlphaT < th.AlphaMin || p.AlphaT > th.AlphaMax {
		t.Fatalf("alpha %v out of band", p.AlphaT)
	}
}

func TestComputeEmptyHistoryIsStaticBaseline(t *testing.T) {
	p := Compute(Inputs{VIX: 18}, th)
	if p.BetaT != th.BetaBase || p.LambdaT != th.LambdaBase || p.AlphaT != th.AlphaBase {
		t.Fatalf("no history should give base values: %+v", p)
	}
}

func TestComputeEMAConvergence(t *testing.T) {
	// Repeated identical targets converge the EMA toward the target.
	prev := th.BetaMin
	var p float64 = prev
	in := Inputs{VIX: 18}
	for i := 0; i < 200; i++ {
		in.PrevBeta = &p
		out := Compute(in, th)
		p = out.BetaT
	}
	if math.Abs(p-th.BetaBase) > 1e-6 {
		t.Fatalf("EMA should converge to base %v, got %v", th.BetaBase, p)
	}
}

func TestComputeInvalidFallsBackDisabled(t *testing.T) {
	bad := th
	bad.AlphaBase, bad.AlphaMin, bad.AlphaMax = 1.5, 1.2, 1.8
	p := Compute(Inputs{VIX: 18}, bad)
	if p.Enabled {
		t.Fatalf("invalid alpha must disable the adaptive set")
	}
	if p.BetaT != bad.BetaBase || p.LambdaT != bad.LambdaBase {
		t.Fatalf("fallback should hand back base values: %+v", p)
	}
}

func TestStaticDisabled(t *testing.T) {
	p := Static(th, 18)
	if p.Enabled {
		t.Fatalf("static params must report disabled")
	}
	if p.BetaT != th.BetaBase {
		t.Fatalf("static beta = %v", p.BetaT)
	}
}
