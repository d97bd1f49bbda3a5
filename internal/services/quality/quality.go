package quality

import (
	"fmt"
	"math"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
)

// Issue severities.
const (
	SeverityWarn = 1
	SeverityFail = 2
)

// Issue codes.
const (
	CodeVolumeSplit    = "VOLUME_SPLIT_MISMATCH"
	CodePutPct         = "PUTPCT_INCONSISTENT"
	CodeRankRange      = "RANK_OUT_OF_RANGE"
	CodeNegativeValue  = "NEGATIVE_VALUE"
	CodeVolumeCeiling  = "VOLUME_CEILING"
	CodeNotionalCeiling = "NOTIONAL_CEILING"
	CodeIVCeiling      = "IV_CEILING"
)

var keyFields = []string{
	"PriceChgPct", "IV30ChgPct", "IVR", "IV30", "HV20",
	"Volume", "RelVolTo90D", "CallVolume", "PutVolume",
	"PutPct", "OI_PctRank", "CallNotional", "PutNotional",
}

// Validate cross-checks a record's internal consistency and grades it
// HIGH, MED, or LOW. It never rejects: scoring proceeds regardless and
// the confidence gate consumes the grade.
func Validate(rec *models.Record, th config.Thresholds) models.DataQualityReport {
	rep := models.DataQualityReport{Level: models.QualityHigh}
	rep.MissingFields = missing(rec)

	checkVolumeSplit(rec, th, &rep)
	checkPutPct(rec, th, &rep)
	checkRanks(rec, &rep)
	checkNegatives(rec, &rep)
	checkCeilings(rec, th, &rep)

	failed := false
	for _, is := range rep.Issues {
		if is.Severity >= SeverityFail {
			failed = true
			break
		}
	}

	switch {
	case failed || len(rep.MissingFields) >= th.DataQualityMissingFail:
		rep.Level = models.QualityLow
	case len(rep.Issues) > 0 || len(rep.MissingFields) >= th.DataQualityMissingWarn:
		rep.Level = models.QualityMed
	}
	return rep
}

func checkVolumeSplit(rec *models.Record, th config.Thresholds, rep *models.DataQualityReport) {
	if rec.Volume == nil || rec.CallVolume == nil || rec.PutVolume == nil || *rec.Volume <= 0 {
		return
	}
	split := *rec.CallVolume + *rec.PutVolume
	diff := math.Abs(*rec.Volume-split) / *rec.Volume
	switch {
	case diff <= th.DataQualityVolumeTolerance:
	case diff <= 2*th.DataQualityVolumeTolerance:
		warn(rep, CodeVolumeSplit, fmt.Sprintf("call+put volume differs from total by %.0f%%", diff*100))
	default:
		fail(rep, CodeVolumeSplit, fmt.Sprintf("call+put volume differs from total by %.0f%%", diff*100))
	}
}

func checkPutPct(rec *models.Record, th config.Thresholds, rep *models.DataQualityReport) {
	if rec.PutPct == nil || rec.CallVolume == nil || rec.PutVolume == nil {
		return
	}
	total := *rec.CallVolume + *rec.PutVolume
	if total <= 0 {
		return
	}
	implied := *rec.PutVolume / total
	diff := math.Abs(*rec.PutPct/100 - implied)
	switch {
	case diff <= th.DataQualityPutPctTolerance:
	case diff <= 1.5*th.DataQualityPutPctTolerance:
		warn(rep, CodePutPct, fmt.Sprintf("PutPct %.1f%% vs implied %.1f%%", *rec.PutPct, implied*100))
	default:
		fail(rep, CodePutPct, fmt.Sprintf("PutPct %.1f%% vs implied %.1f%%", *rec.PutPct, implied*100))
	}
}

func checkRanks(rec *models.Record, rep *models.DataQualityReport) {
	for name, p := range map[string]*float64{
		"IVR": rec.IVR, "IV_52W_P": rec.IV52WPct, "OI_PctRank": rec.OIPctRank,
	} {
		if p != nil && (*p < 0 || *p > 100) {
			fail(rep, CodeRankRange, fmt.Sprintf("%s = %.1f outside [0, 100]", name, *p))
		}
	}
}

func checkNegatives(rec *models.Record, rep *models.DataQualityReport) {
	for name, p := range map[string]*float64{
		"Volume": rec.Volume, "CallVolume": rec.CallVolume, "PutVolume": rec.PutVolume,
		"CallNotional": rec.CallNotional, "PutNotional": rec.PutNotional,
		"IV7": rec.IV7, "IV30": rec.IV30, "IV60": rec.IV60, "IV90": rec.IV90,
		"HV20": rec.HV20, "HV1Y": rec.HV1Y, "TotalOI": rec.TotalOI,
	} {
		if p != nil && *p < 0 {
			fail(rep, CodeNegativeValue, fmt.Sprintf("%s = %.2f is negative", name, *p))
		}
	}
}

func checkCeilings(rec *models.Record, th config.Thresholds, rep *models.DataQualityReport) {
	if rec.Volume != nil && *rec.Volume > th.DataQualityVolumeCeiling {
		warn(rep, CodeVolumeCeiling, "volume above plausibility ceiling")
	}
	total := models.FloatOr(rec.CallNotional, 0) + models.FloatOr(rec.PutNotional, 0)
	if total > th.DataQualityNotionalCeiling {
		warn(rep, CodeNotionalCeiling, "notional above plausibility ceiling")
	}
	for _, p := range []*float64{rec.IV7, rec.IV30, rec.IV60, rec.IV90} {
		if p != nil && *p > th.DataQualityIVCeiling {
			warn(rep, CodeIVCeiling, "implied volatility above plausibility ceiling")
			break
		}
	}
}

func missing(rec *models.Record) []string {
	byName := map[string]*float64{
		"PriceChgPct": rec.PriceChgPct, "IV30ChgPct": rec.IV30ChgPct, "IVR": rec.IVR,
		"IV30": rec.IV30, "HV20": rec.HV20, "Volume": rec.Volume,
		"RelVolTo90D": rec.RelVolTo90D, "CallVolume": rec.CallVolume, "PutVolume": rec.PutVolume,
		"PutPct": rec.PutPct, "OI_PctRank": rec.OIPctRank,
		"CallNotional": rec.CallNotional, "PutNotional": rec.PutNotional,
	}
	var out []string
	for _, name := range keyFields {
		if byName[name] == nil {
			out = append(out, name)
		}
	}
	return out
}

func warn(rep *models.DataQualityReport, code, msg string) {
	rep.Issues = append(rep.Issues, models.QualityIssue{Severity: SeverityWarn, Code: code, Message: msg})
}

func fail(rep *models.DataQualityReport, code, msg string) {
	rep.Issues = append(rep.Issues, models.QualityIssue{Severity: SeverityFail, Code: code, Message: msg})
}
