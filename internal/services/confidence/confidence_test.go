package confidence

import (
	"testing"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/services/features"
	"VolPosture/pkg/config"
)

var (
	th  = config.DefaultScoring().Thresholds
	now = time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
)

func feats(rec *models.Record) models.Features {
	return features.Build(rec, now)
}

func TestLiquidityGrades(t *testing.T) {
	deep := &models.Record{
		Volume:       models.Float(900000),
		CallNotional: models.Float(4e8),
		PutNotional:  models.Float(3e8),
		OIPctRank:    models.Float(85),
		TradeCount:   models.Float(800000),
		RelVolTo90D:  models.Float(2.0),
	}
	score, grade := Liquidity(deep, feats(deep), th)
	if grade != models.GradeHigh {
		t.Fatalf("deep book should grade 高, got %s (score %v)", grade, score)
	}

	thin := &models.Record{Volume: models.Float(500)}
	score, grade = Liquidity(thin, feats(thin), th)
	if grade != models.GradeLow {
		t.Fatalf("thin book should grade 低, got %s (score %v)", grade, score)
	}
	if score < 0 || score > 1 {
		t.Fatalf("score out of bounds: %v", score)
	}
}

func TestLiquidityVolumeFallsBackToCallPut(t *testing.T) {
	rec := &models.Record{
		CallVolume: models.Float(500000),
		PutVolume:  models.Float(400000),
	}
	score, _ := Liquidity(rec, feats(rec), th)
	if score <= 0 {
		t.Fatalf("call+put volume should contribute, got %v", score)
	}
}

func TestEvaluateStrongSetup(t *testing.T) {
	rec := &models.Record{
		SingleLegPct: models.Float(85),
		OIPctRank:    models.Float(75),
		RelVolTo90D:  models.Float(1.5),
	}
	in := Inputs{
		Direction:       1.4,
		Vol:             0.9,
		Liquidity:       models.GradeHigh,
		OIDataAvailable: true,
		Consistency:     0.8,
		Quality:         models.QualityHigh,
	}
	conf, grade := Evaluate(rec, feats(rec), in, th)
	if grade != models.GradeHigh {
		t.Fatalf("strong setup should grade 高, got %s (%v)", grade, conf)
	}
}

func TestEvaluateMissingOIPenalty(t *testing.T) {
	rec := &models.Record{}
	base := Inputs{
		Direction: 1.4, Vol: 0.9, Liquidity: models.GradeHigh,
		OIDataAvailable: true, Quality: models.QualityHigh,
	}
	withOI, _ := Evaluate(rec, feats(rec), base, th)
	base.OIDataAvailable = false
	withoutOI, _ := Evaluate(rec, feats(rec), base, th)
	if withOI-withoutOI < th.MissingOIPenalty-1e-9 {
		t.Fatalf("missing OI should cost at least %v, got diff %v", th.MissingOIPenalty, withOI-withoutOI)
	}
}

func TestEvaluateNeverNegative(t *testing.T) {
	rec := &models.Record{MultiLegPct: models.Float(60)}
	in := Inputs{
		Liquidity:    models.GradeLow,
		FearActive:   true,
		MissingCount: 7,
		Penalized:    true,
		Consistency:  -0.9,
		Quality:      models.QualityHigh,
	}
	conf, grade := Evaluate(rec, feats(rec), in, th)
	if conf < 0 {
		t.Fatalf("confidence must floor at 0, got %v", conf)
	}
	if grade != models.GradeLow {
		t.Fatalf("hopeless setup should grade 低")
	}
}

func TestQualityGateOnlyDowngrades(t *testing.T) {
	rec := &models.Record{SingleLegPct: models.Float(85), OIPctRank: models.Float(75)}
	in := Inputs{
		Direction: 1.4, Vol: 0.9, Liquidity: models.GradeHigh,
		OIDataAvailable: true, Consistency: 0.8,
	}

	in.Quality = models.QualityHigh
	_, high := Evaluate(rec, feats(rec), in, th)
	if high != models.GradeHigh {
		t.Fatalf("precondition: want 高, got %s", high)
	}

	in.Quality = models.QualityMed
	_, med := Evaluate(rec, feats(rec), in, th)
	if med != models.GradeMed {
		t.Fatalf("MED quality should cap at 中, got %s", med)
	}

	in.Quality = models.QualityLow
	_, low := Evaluate(rec, feats(rec), in, th)
	if low != models.GradeLow {
		t.Fatalf("LOW quality must force 低, got %s", low)
	}

	// And the gate never upgrades: a weak setup stays 低 on HIGH quality.
	weak := Inputs{Liquidity: models.GradeLow, Quality: models.QualityHigh, OIDataAvailable: true}
	if _, g := Evaluate(&models.Record{}, feats(&models.Record{}), weak, th); g != models.GradeLow {
		t.Fatalf("quality gate must not upgrade, got %s", g)
	}
}

func TestVolStrengthUsesPenaltyThreshold(t *testing.T) {
	rec := &models.Record{}
	custom := th
	custom.VolScoreThreshold = 5.0 // quadrant-mapping knob, not a strength input
	in := Inputs{
		Vol: custom.PenaltyVolPctThresh + 0.01, Liquidity: models.GradeLow,
		OIDataAvailable: true, Quality: models.QualityHigh,
	}
	conf, _ := Evaluate(rec, feats(rec), in, custom)
	if conf != 0.3 {
		t.Fatalf("vol strength should read penalty_vol_pct_thresh, got %v", conf)
	}

	in.Vol = custom.PenaltyVolPctThresh + 0.41
	conf, _ = Evaluate(rec, feats(rec), in, custom)
	if conf != 0.6 {
		t.Fatalf("strong vol strength = %v, want 0.6", conf)
	}
}

func TestConsistencyFactor(t *testing.T) {
	if f := consistencyFactor(0.8, th); f != 1+th.ConsistencyWeight*0.8 {
		t.Fatalf("strong consistency factor = %v", f)
	}
	if f := consistencyFactor(-0.8, th); f != 1-th.ConsistencyWeight*0.8 {
		t.Fatalf("contrarian consistency factor = %v", f)
	}
	if f := consistencyFactor(0.2, th); f != 1.0 {
		t.Fatalf("weak consistency should be neutral, got %v", f)
	}
}

func TestPenalizeExtremeMove(t *testing.T) {
	rec := &models.Record{
		PriceChgPct: models.Float(25),
		RelVolTo90D: models.Float(0.5),
	}
	if !PenalizeExtremeMove(rec, th) {
		t.Fatalf("huge move on dead volume should be penalized")
	}

	rec.RelVolTo90D = models.Float(2.5)
	if PenalizeExtremeMove(rec, th) {
		t.Fatalf("huge move with participation is fine")
	}

	rec.IV30ChgPct = models.Float(-15)
	if !PenalizeExtremeMove(rec, th) {
		t.Fatalf("huge move with IV crush should be penalized")
	}

	rec = &models.Record{PriceChgPct: models.Float(5), RelVolTo90D: models.Float(0.5)}
	if PenalizeExtremeMove(rec, th) {
		t.Fatalf("ordinary move should not be penalized")
	}
}
