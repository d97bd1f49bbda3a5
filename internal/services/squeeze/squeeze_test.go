package squeeze

import (
	"testing"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/services/features"
	"VolPosture/pkg/config"
)

var th = config.DefaultScoring().Thresholds

func detect(rec *models.Record, priceZ *float64) models.SqueezeSignal {
	f := features.Build(rec, time.Now())
	return Detect(rec, f, priceZ, th)
}

func TestScoreBounded(t *testing.T) {
	hot := &models.Record{
		IV30:         models.Float(15),
		HV20:         models.Float(30),
		OIPctRank:    models.Float(95),
		RelVolTo90D:  models.Float(3.0),
		PriceChgPct:  models.Float(6.0),
		CallVolume:   models.Float(90000),
		PutVolume:    models.Float(5000),
		CallNotional: models.Float(9e6),
		PutNotional:  models.Float(4e5),
		SingleLegPct: models.Float(95),
	}
	sig := detect(hot, models.Float(3.0))
	if sig.Score < 0 || sig.Score > 1 {
		t.Fatalf("score out of bounds: %v", sig.Score)
	}
	if !sig.Triggered {
		t.Fatalf("saturated setup should trigger, score %v", sig.Score)
	}

	cold := detect(&models.Record{}, nil)
	if cold.Score < 0 || cold.Score > 1 {
		t.Fatalf("score out of bounds: %v", cold.Score)
	}
	if cold.Triggered {
		t.Fatalf("empty record must not trigger, score %v", cold.Score)
	}
}

func TestReasonsOrderedAndDeduped(t *testing.T) {
	rec := &models.Record{
		IV30:         models.Float(15),
		HV20:         models.Float(30),
		OIPctRank:    models.Float(80),
		RelVolTo90D:  models.Float(2.0),
		PriceChgPct:  models.Float(3.0),
		CallVolume:   models.Float(90000),
		PutVolume:    models.Float(5000),
		SingleLegPct: models.Float(95),
	}
	sig := detect(rec, models.Float(2.0))
	want := []string{
		ReasonLowIVvsHV, ReasonHighOIRank, ReasonHighRelVolume,
		ReasonHighMomentum, ReasonHighCallBias, ReasonCleanSingleLeg,
	}
	if len(sig.Reasons) != len(want) {
		t.Fatalf("reasons = %v, want %v", sig.Reasons, want)
	}
	for i := range want {
		if sig.Reasons[i] != want[i] {
			t.Fatalf("reasons[%d] = %s, want %s", i, sig.Reasons[i], want[i])
		}
	}
	seen := map[string]bool{}
	for _, r := range sig.Reasons {
		if seen[r] {
			t.Fatalf("duplicate reason %s", r)
		}
		seen[r] = true
	}
}

func TestNegativeMoveNoMomentum(t *testing.T) {
	rec := &models.Record{PriceChgPct: models.Float(-5.0)}
	sig := detect(rec, nil)
	for _, r := range sig.Reasons {
		if r == ReasonHighMomentum {
			t.Fatalf("down move must not read as momentum")
		}
	}
}

func TestPriceZSubstitute(t *testing.T) {
	// Without a history z-score, z falls back to chg/scale: 3.0/2.0 = 1.5,
	// above the 1.0 threshold, so momentum still fires.
	rec := &models.Record{PriceChgPct: models.Float(3.0)}
	sig := detect(rec, nil)
	found := false
	for _, r := range sig.Reasons {
		if r == ReasonHighMomentum {
			found = true
		}
	}
	if !found {
		t.Fatalf("substitute z-score should allow momentum, reasons %v", sig.Reasons)
	}
}
