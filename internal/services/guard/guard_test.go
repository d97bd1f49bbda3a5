package guard

import (
	"testing"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/services/features"
	"VolPosture/internal/services/posture"
	"VolPosture/internal/services/termstructure"
	"VolPosture/pkg/config"
)

var (
	th  = config.DefaultScoring().Thresholds
	now = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
)

func TestDetectFearRegime(t *testing.T) {
	rec := &models.Record{
		IVR:  models.Float(85),
		IV30: models.Float(40),
		HV20: models.Float(25),
		HV1Y: models.Float(30),
	}
	f := features.Build(rec, now)
	term := termstructure.Classify(rec, th, nil)

	fr := DetectFearRegime(rec, f, term, 18, th)
	if !fr.Active {
		t.Fatalf("rich IV over calm realized should trigger fear")
	}
	if fr.Reasons[0] != ReasonFearSellPressure {
		t.Fatalf("reasons = %v", fr.Reasons)
	}

	fr = DetectFearRegime(rec, f, term, 30, th)
	if len(fr.Reasons) != 2 {
		t.Fatalf("high VIX should add a reason, got %v", fr.Reasons)
	}

	calm := &models.Record{IVR: models.Float(30)}
	cf := features.Build(calm, now)
	fr = DetectFearRegime(calm, cf, termstructure.Classify(calm, th, nil), 15, th)
	if fr.Active {
		t.Fatalf("calm setup should not trigger fear: %v", fr.Reasons)
	}
}

func TestDetectFearRegimeInversion(t *testing.T) {
	iv7, iv30 := 26.0, 22.0
	rec := &models.Record{IV7: &iv7, IV30: &iv30}
	f := features.Build(rec, now)
	term := termstructure.Classify(rec, th, nil)
	fr := DetectFearRegime(rec, f, term, 15, th)
	found := false
	for _, r := range fr.Reasons {
		if r == ReasonTermInversion {
			found = true
		}
	}
	if !found {
		t.Fatalf("inverted term structure should register, got %v", fr.Reasons)
	}
}

func TestEvaluateLowQualityShortCircuits(t *testing.T) {
	p := Evaluate(Inputs{
		Quadrant:   models.QuadrantBullLongVol,
		Confidence: models.GradeHigh,
		Quality:    models.QualityLow,
	}, th)
	if p.Verdict != models.VerdictNoTrade {
		t.Fatalf("LOW quality must force NO_TRADE, got %s", p.Verdict)
	}
	if len(p.DisabledStructures) != 5 {
		t.Fatalf("all short-vol structures must be disabled, got %v", p.DisabledStructures)
	}
	if len(p.Reasons) != 1 || p.Reasons[0] != ReasonDataQualityLow {
		t.Fatalf("short circuit must not accumulate other reasons: %v", p.Reasons)
	}
}

func TestEvaluateShortVolChecks(t *testing.T) {
	d := 3
	p := Evaluate(Inputs{
		Quadrant:       models.QuadrantBullShortVol,
		Confidence:     models.GradeLow,
		Quality:        models.QualityHigh,
		DaysToEarnings: &d,
		Fear:           models.FearRegime{Active: true, Reasons: []string{ReasonHighVIX}},
	}, th)
	if p.Verdict != models.VerdictDefinedRiskOnly {
		t.Fatalf("verdict = %s", p.Verdict)
	}
	wantReasons := []string{
		ReasonEarningsShortVol,
		ReasonLowConfidenceShort,
		"FEAR_REGIME_" + ReasonHighVIX,
	}
	if len(p.Reasons) != len(wantReasons) {
		t.Fatalf("reasons = %v, want %v", p.Reasons, wantReasons)
	}
	for i := range wantReasons {
		if p.Reasons[i] != wantReasons[i] {
			t.Fatalf("reasons[%d] = %s, want %s", i, p.Reasons[i], wantReasons[i])
		}
	}
	if len(p.DisabledStructures) != 3 {
		t.Fatalf("defined-risk-only disables the base set, got %v", p.DisabledStructures)
	}
}

func TestEvaluateLongVolSkipsShortVolChecks(t *testing.T) {
	d := 3
	p := Evaluate(Inputs{
		Quadrant:       models.QuadrantBullLongVol,
		Confidence:     models.GradeLow,
		Quality:        models.QualityHigh,
		DaysToEarnings: &d,
		Fear:           models.FearRegime{Active: true, Reasons: []string{ReasonHighVIX}},
	}, th)
	if p.Verdict != models.VerdictNormal {
		t.Fatalf("long-vol posture should stay NORMAL, got %s (%v)", p.Verdict, p.Reasons)
	}
	if len(p.DisabledStructures) != 0 {
		t.Fatalf("nothing should be disabled: %v", p.DisabledStructures)
	}
}

func TestVerdictMonotonic(t *testing.T) {
	p := models.Permission{Verdict: models.VerdictNoTrade}
	elevate(&p, models.VerdictDefinedRiskOnly, "whatever")
	if p.Verdict != models.VerdictNoTrade {
		t.Fatalf("elevate must never lower the verdict")
	}
}

func TestPostureOverlayOnlyElevates(t *testing.T) {
	base := models.Permission{Verdict: models.VerdictNormal}

	p, tmpl, dte := ApplyPostureOverlay(base, models.PostureAssessment{Label: posture.TrendConfirm}, models.QuadrantBullLongVol)
	if p.Verdict != models.VerdictNormal {
		t.Fatalf("trend confirm must not elevate, got %s", p.Verdict)
	}
	if tmpl != "bull_long_vol" || dte != "systematic_mid_dte" {
		t.Fatalf("template/dte = %s/%s", tmpl, dte)
	}

	p, _, _ = ApplyPostureOverlay(base, models.PostureAssessment{Label: posture.Countertrend}, models.QuadrantBullShortVol)
	if p.Verdict != models.VerdictDefinedRiskOnly {
		t.Fatalf("countertrend should elevate to ADR, got %s", p.Verdict)
	}
	if len(p.DisabledStructures) != 5 {
		t.Fatalf("countertrend disables all five, got %v", p.DisabledStructures)
	}

	p, _, dte = ApplyPostureOverlay(base, models.PostureAssessment{Label: posture.Chop}, models.QuadrantNeutralWatch)
	if p.Verdict != models.VerdictNoTrade {
		t.Fatalf("chop should elevate to NO_TRADE, got %s", p.Verdict)
	}
	if dte != "wait_and_see" {
		t.Fatalf("dte = %s", dte)
	}

	// A NO_TRADE verdict survives a benign overlay.
	hard := models.Permission{Verdict: models.VerdictNoTrade, DisabledStructures: models.HardDisabledStructures()}
	p, _, _ = ApplyPostureOverlay(hard, models.PostureAssessment{Label: posture.TrendConfirm}, models.QuadrantBullLongVol)
	if p.Verdict != models.VerdictNoTrade {
		t.Fatalf("overlay must never relax, got %s", p.Verdict)
	}
}

func TestBuildWatchlist(t *testing.T) {
	w := BuildWatchlist(0.5, 0.2, th)
	if len(w.Triggers) == 0 || len(w.MonitorPoints) == 0 {
		t.Fatalf("watchlist should carry triggers and monitor points")
	}
}
