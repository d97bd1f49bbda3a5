package quality

import (
	"testing"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
)

var th = config.DefaultScoring().Thresholds

func fullRecord() *models.Record {
	return &models.Record{
		Symbol:       "AAPL",
		PriceChgPct:  models.Float(1.5),
		IV30ChgPct:   models.Float(2.0),
		IVR:          models.Float(45),
		IV30:         models.Float(25),
		HV20:         models.Float(22),
		Volume:       models.Float(100000),
		RelVolTo90D:  models.Float(1.1),
		CallVolume:   models.Float(60000),
		PutVolume:    models.Float(40000),
		PutPct:       models.Float(40),
		OIPctRank:    models.Float(55),
		CallNotional: models.Float(5e6),
		PutNotional:  models.Float(3e6),
	}
}

func TestCleanRecordIsHigh(t *testing.T) {
	rep := Validate(fullRecord(), th)
	if rep.Level != models.QualityHigh {
		t.Fatalf("level = %s, issues %v, missing %v", rep.Level, rep.Issues, rep.MissingFields)
	}
}

func TestMissingFieldGrading(t *testing.T) {
	rec := fullRecord()
	rec.IVR = nil
	rec.PutPct = nil
	rep := Validate(rec, th)
	if rep.Level != models.QualityMed {
		t.Fatalf("2 missing should be MED, got %s", rep.Level)
	}

	rec.IV30 = nil
	rec.HV20 = nil
	rep = Validate(rec, th)
	if rep.Level != models.QualityLow {
		t.Fatalf("4 missing should be LOW, got %s", rep.Level)
	}
}

func TestVolumeSplitMismatch(t *testing.T) {
	rec := fullRecord()
	rec.Volume = models.Float(100000)
	rec.CallVolume = models.Float(50000)
	rec.PutVolume = models.Float(25000) // split is 25% off

	rep := Validate(rec, th)
	found := false
	for _, is := range rep.Issues {
		if is.Code == CodeVolumeSplit && is.Severity == SeverityWarn {
			found = true
		}
	}
	if !found {
		t.Fatalf("25%% gap should warn, issues %v", rep.Issues)
	}

	rec.PutVolume = models.Float(5000) // 45% off: beyond 2x tolerance
	rep = Validate(rec, th)
	if rep.Level != models.QualityLow {
		t.Fatalf("hard split mismatch should be LOW, got %s", rep.Level)
	}
}

func TestPutPctCrossCheck(t *testing.T) {
	rec := fullRecord()
	rec.PutPct = models.Float(90) // implied is 40%
	rep := Validate(rec, th)
	if rep.Level != models.QualityLow {
		t.Fatalf("wild PutPct should be LOW, got %s (%v)", rep.Level, rep.Issues)
	}
}

func TestRankOutOfRangeFails(t *testing.T) {
	rec := fullRecord()
	rec.OIPctRank = models.Float(140)
	rep := Validate(rec, th)
	if rep.Level != models.QualityLow {
		t.Fatalf("rank 140 should be LOW, got %s", rep.Level)
	}
}

func TestNegativeVolumeFails(t *testing.T) {
	rec := fullRecord()
	rec.PutVolume = models.Float(-10)
	rep := Validate(rec, th)
	if rep.Level != models.QualityLow {
		t.Fatalf("negative volume should be LOW, got %s", rep.Level)
	}
}

func TestCeilingsWarnOnly(t *testing.T) {
	rec := fullRecord()
	rec.Volume = models.Float(9e7)
	rec.CallVolume = models.Float(5.4e7)
	rec.PutVolume = models.Float(3.6e7)
	rep := Validate(rec, th)
	if rep.Level != models.QualityMed {
		t.Fatalf("ceiling breach alone should be MED, got %s (%v)", rep.Level, rep.Issues)
	}
}
