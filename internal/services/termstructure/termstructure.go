package termstructure

import (
	"math"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
	"VolPosture/pkg/util"
)

// Term structure labels.
const (
	LabelFullInversion  = "full_inversion"
	LabelShortInversion = "short_inversion"
	LabelMidBulge       = "mid_bulge"
	LabelFarElevated    = "far_elevated"
	LabelShortLow       = "short_low"
	LabelFlat           = "flat"
	LabelNormalSteep    = "normal_steep"
)

var labelBonus = map[string]float64{
	LabelFullInversion:  0.10,
	LabelShortInversion: 0.07,
	LabelMidBulge:       0.04,
	LabelFarElevated:    -0.10,
	LabelShortLow:       -0.05,
	LabelNormalSteep:    -0.06,
	LabelFlat:           0,
}

var defaultHorizonBias = map[string]string{
	LabelFullInversion:  "short",
	LabelShortInversion: "short",
	LabelMidBulge:       "mid",
	LabelFarElevated:    "long",
	LabelShortLow:       "long",
	LabelFlat:           "neutral",
	LabelNormalSteep:    "neutral",
}

// shape carries the three adjacent ratios with missing ones defaulted
// to the neutral 1.0, so every classification predicate is total.
type shape struct {
	short, mid, long float64
}

// rule pairs a predicate with its label. Rules are evaluated strictly
// in order; the first match wins.
type rule struct {
	label string
	match func(s shape, th config.Thresholds) bool
}

var rules = []rule{
	{LabelFullInversion, func(s shape, th config.Thresholds) bool {
		return s.short >= th.TermInversionThreshold && s.mid >= th.TermInversionThreshold && s.long >= 1.0
	}},
	{LabelShortInversion, func(s shape, th config.Thresholds) bool {
		return s.short >= th.TermInversionThreshold
	}},
	{LabelMidBulge, func(s shape, th config.Thresholds) bool {
		return s.mid >= th.TermInversionThreshold && s.short <= 1.02 && s.long <= 1.02
	}},
	{LabelFarElevated, func(s shape, th config.Thresholds) bool {
		return s.long <= 0.95 && s.short <= 1.02 && s.mid <= 1.02
	}},
	{LabelShortLow, func(s shape, th config.Thresholds) bool {
		return s.short <= 0.90 && s.mid >= 0.95
	}},
	{LabelFlat, func(s shape, th config.Thresholds) bool {
		tol := th.TermFlatTolerance
		return math.Abs(s.short-1) <= tol && math.Abs(s.mid-1) <= tol && math.Abs(s.long-1) <= tol
	}},
	{LabelNormalSteep, func(s shape, th config.Thresholds) bool {
		return s.short < 1.0 && s.mid < 1.0 && s.long < 1.0
	}},
}

// Ratios computes adjacent-tenor IV ratios. A ratio is nil when either
// leg is missing or non-positive.
func Ratios(rec *models.Record) models.TermRatios {
	return models.TermRatios{
		Short: ratio(rec.IV7, rec.IV30),
		Mid:   ratio(rec.IV30, rec.IV60),
		Long:  ratio(rec.IV60, rec.IV90),
		Broad: ratio(rec.IV30, rec.IV90),
	}
}

// Classify labels the term structure and computes the vol-score
// adjustment. horizonOverride (from config) takes precedence over the
// default label -> horizon table.
func Classify(rec *models.Record, th config.Thresholds, horizonOverride map[string]string) models.TermStructure {
	r := Ratios(rec)
	s := shape{
		short: models.FloatOr(r.Short, 1.0),
		mid:   models.FloatOr(r.Mid, 1.0),
		long:  models.FloatOr(r.Long, 1.0),
	}

	label := LabelFlat
	for _, rl := range rules {
		if rl.match(s, th) {
			label = rl.label
			break
		}
	}

	adj := 0.0
	if r.Short != nil {
		adj += th.TermShortWeight * (*r.Short - 1)
	}
	if r.Mid != nil {
		adj += th.TermMidWeight * (*r.Mid - 1)
	}
	if r.Long != nil {
		adj += th.TermLongWeight * (*r.Long - 1)
	}
	adj += labelBonus[label]
	adj = util.Clamp(adj, -th.TermAdjustCap, th.TermAdjustCap)

	return models.TermStructure{
		Ratios:      r,
		Label:       label,
		HorizonBias: horizonFor(label, horizonOverride),
		Adjustment:  adj,
	}
}

// IsInversion reports whether a label describes an inverted structure.
func IsInversion(label string) bool {
	return label == LabelFullInversion || label == LabelShortInversion
}

func horizonFor(label string, override map[string]string) string {
	if h, ok := override[label]; ok {
		return h
	}
	if h, ok := defaultHorizonBias[label]; ok {
		return h
	}
	return "neutral"
}

func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *num <= 0 || *den <= 0 {
		return nil
	}
	v := *num / *den
	return &v
}
