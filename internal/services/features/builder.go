package features

import (
	"math"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/util"
)

// Key fields whose absence degrades scoring quality.
var keyFields = []string{
	"PriceChgPct", "RelVolTo90D", "CallVolume", "PutVolume", "IV30", "HV20", "IVR",
}

// Build derives every scalar the scorers consume from one record.
// It never fails: unknown inputs fall back to neutral defaults and are
// listed in MissingFields.
func Build(rec *models.Record, now time.Time) models.Features {
	cv := models.FloatOr(rec.CallVolume, 0)
	pv := models.FloatOr(rec.PutVolume, 0)
	cn := models.FloatOr(rec.CallNotional, 0)
	pn := models.FloatOr(rec.PutNotional, 0)

	f := models.Features{
		VolumeBias:   util.SafeDiv(cv-pv, cv+pv, 0),
		NotionalBias: util.SafeDiv(cn-pn, cn+pn, 0),
		CPRatio:      cpRatio(cv, pv, cn, pn),
		TotalVolume:  cv + pv,
		TotalNotional: cn + pn,
	}

	iv30 := models.FloatOr(rec.IV30, 0)
	hv20 := models.FloatOr(rec.HV20, 0)
	hv1y := models.FloatOr(rec.HV1Y, 0)
	if iv30 > 0 && hv20 > 0 {
		f.IVRVLog = math.Log(iv30 / hv20)
		f.IVRatio = iv30 / hv20
	} else {
		f.IVRatio = 1.0
	}
	if hv20 > 0 && hv1y > 0 {
		f.RegimeRatio = hv20 / hv1y
	} else {
		f.RegimeRatio = 1.0
	}

	f.SpotVolSignal = spotVolSignal(
		models.FloatOr(rec.PriceChgPct, 0),
		models.FloatOr(rec.IV30ChgPct, 0),
	)

	single := models.FloatOr(rec.SingleLegPct, 0)
	multi := models.FloatOr(rec.MultiLegPct, 0)
	cont := models.FloatOr(rec.ContingentPct, 0)
	f.StructurePurity = util.Clamp((single-multi-0.5*cont)/100, -1, 1)
	f.NotionalIntensity = math.Log10(math.Max(0, f.TotalNotional)/1e6 + 1)

	f.ActiveOpenRatio, f.OIDataAvailable = activeOpenRatio(rec, f.TotalVolume)

	if rec.DeltaOI1D != nil && rec.TotalOI != nil && *rec.TotalOI > 0 {
		v := *rec.DeltaOI1D / *rec.TotalOI
		f.DeltaOIPct = &v
	}
	if rec.Volume != nil && rec.TotalOI != nil && *rec.TotalOI > 0 {
		v := *rec.Volume / *rec.TotalOI
		f.OITurnover = &v
	}

	if d, ok := util.ParseEarningsDate(rec.EarningsDate); ok {
		days := util.DaysUntil(d, now)
		f.DaysToEarnings = &days
	}

	f.MissingFields = missingKeyFields(rec)
	return f
}

func cpRatio(cv, pv, cn, pn float64) float64 {
	if cn > 0 && pn > 0 {
		return cn / pn
	}
	if pv > 0 {
		return cv / pv
	}
	return 1.0
}

// spotVolSignal scores the joint spot and IV move: up moves with IV
// expansion read bullish continuation, down moves with IV expansion
// read fear, up moves with IV crush read melt-up.
func spotVolSignal(priceChg, ivChg float64) float64 {
	switch {
	case priceChg > 0.5 && ivChg > 2:
		return 0.4
	case priceChg < -0.5 && ivChg > 2:
		return -0.5
	case priceChg > 0 && ivChg < -2:
		return 0.2
	default:
		return 0
	}
}

// activeOpenRatio returns the delta-OI / volume ratio and whether OI
// data was available at all. The two are kept separate: a ratio of 0.0
// with available data means balanced flow, not missing data.
func activeOpenRatio(rec *models.Record, totalVolume float64) (float64, bool) {
	if rec.DeltaOI1D == nil {
		return 0, false
	}
	denom := models.FloatOr(rec.Volume, 0)
	if denom <= 0 {
		denom = totalVolume
	}
	if denom <= 0 {
		denom = 1
	}
	return *rec.DeltaOI1D / denom, true
}

func missingKeyFields(rec *models.Record) []string {
	byName := map[string]*float64{
		"PriceChgPct": rec.PriceChgPct,
		"RelVolTo90D": rec.RelVolTo90D,
		"CallVolume":  rec.CallVolume,
		"PutVolume":   rec.PutVolume,
		"IV30":        rec.IV30,
		"HV20":        rec.HV20,
		"IVR":         rec.IVR,
	}
	var missing []string
	for _, name := range keyFields {
		if byName[name] == nil {
			missing = append(missing, name)
		}
	}
	return missing
}
