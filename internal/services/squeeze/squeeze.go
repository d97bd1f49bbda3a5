package squeeze

import (
	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
	"VolPosture/pkg/util"
)

// Reason codes, in emission order.
const (
	ReasonLowIVvsHV      = "LOW_IV_VS_HV"
	ReasonHighOIRank     = "HIGH_OI_RANK"
	ReasonHighRelVolume  = "HIGH_REL_VOLUME"
	ReasonHighMomentum   = "HIGH_PRICE_MOMENTUM"
	ReasonHighCallBias   = "HIGH_CALL_BIAS"
	ReasonCleanSingleLeg = "CLEAN_SINGLE_LEG_STRUCTURE"
)

// Detect computes the squeeze composite in [0, 1]. priceZ is the
// standardized price move from rolling history; when nil, a crude
// substitute of priceChg/scale is used.
func Detect(rec *models.Record, f models.Features, priceZ *float64, th config.Thresholds) models.SqueezeSignal {
	ivRatio := f.IVRatio
	oiRank := models.FloatOr(rec.OIPctRank, 0)
	relVol := models.FloatOr(rec.RelVolTo90D, 0)
	priceChg := models.FloatOr(rec.PriceChgPct, 0)

	z := priceChg / th.SqueezePriceZScale
	if priceZ != nil {
		z = *priceZ
	}

	priceMove := 0.0
	if priceChg > 0 {
		priceMove = util.Ramp(priceChg, 0.5, 4.0) * util.Ramp(z, 1.0, 2.0)
	}

	callBias := (util.Ramp(f.NotionalBias, 0.05, 0.6) +
		util.Ramp(f.VolumeBias, 0.05, 0.6) +
		util.Ramp(f.CPRatio, 1.0, 2.2)) / 3

	score := 0.23*(1-util.Ramp(ivRatio, 0.8, 1.2)) +
		0.20*util.Ramp(oiRank, 40, 90) +
		0.17*util.Ramp(relVol, 1.0, 2.2) +
		0.15*priceMove +
		0.15*callBias +
		0.10*util.Ramp(f.StructurePurity, 0.1, 0.9)
	score = util.Clamp(score, 0, 1)

	var reasons []string
	if ivRatio <= 0.95 {
		reasons = append(reasons, ReasonLowIVvsHV)
	}
	if oiRank >= 70 {
		reasons = append(reasons, ReasonHighOIRank)
	}
	if relVol >= 1.3 {
		reasons = append(reasons, ReasonHighRelVolume)
	}
	if priceChg >= 1.0 && z >= th.SqueezePriceZThresh {
		reasons = append(reasons, ReasonHighMomentum)
	}
	if callBias >= 0.55 {
		reasons = append(reasons, ReasonHighCallBias)
	}
	if f.StructurePurity >= 0.5 {
		reasons = append(reasons, ReasonCleanSingleLeg)
	}

	return models.SqueezeSignal{
		Score:     score,
		Triggered: score >= th.SqueezeScoreTrigger,
		Reasons:   dedupe(reasons),
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
