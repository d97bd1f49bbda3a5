package guard

import (
	"fmt"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/services/posture"
	"VolPosture/internal/services/termstructure"
	"VolPosture/pkg/config"
)

// Fear regime reason codes.
const (
	ReasonFearSellPressure = "FEAR_SELL_PRESSURE"
	ReasonTermInversion    = "TERM_STRUCTURE_INVERSION"
	ReasonHighVIX          = "HIGH_VIX_ENV"
)

// Permission reason codes.
const (
	ReasonDataQualityLow       = "DATA_QUALITY_LOW"
	ReasonDataQualityMed       = "DATA_QUALITY_MED_SHORT_VOL"
	ReasonEarningsShortVol     = "EARNINGS_WINDOW_SHORT_VOL"
	ReasonLowConfidenceShort   = "LOW_CONFIDENCE_SHORT_VOL"
	fearReasonPrefix           = "FEAR_REGIME_"
)

// DetectFearRegime checks for a broad sell-pressure environment: rich
// IV being bid while realized stays calm, an inverted term structure,
// or an elevated VIX.
func DetectFearRegime(rec *models.Record, f models.Features, term models.TermStructure, vix float64, th config.Thresholds) models.FearRegime {
	var fr models.FearRegime

	if rec.IVR != nil && *rec.IVR >= th.FearIVRankMin &&
		f.IVRatio >= th.FearIVRVRatioMin &&
		f.RegimeRatio <= th.FearRegimeMax {
		fr.Reasons = append(fr.Reasons, ReasonFearSellPressure)
	}
	if termstructure.IsInversion(term.Label) {
		fr.Reasons = append(fr.Reasons, ReasonTermInversion)
	}
	if vix >= th.FearVIXHigh {
		fr.Reasons = append(fr.Reasons, ReasonHighVIX)
	}

	fr.Active = len(fr.Reasons) > 0
	return fr
}

// Inputs collects what the permission evaluation weighs.
type Inputs struct {
	Quadrant       models.Quadrant
	Confidence     models.Grade
	Quality        models.QualityLevel
	Fear           models.FearRegime
	DaysToEarnings *int
}

// Evaluate runs the trade-permission state machine. The verdict only
// moves upward; every elevation leaves a reason.
func Evaluate(in Inputs, th config.Thresholds) models.Permission {
	p := models.Permission{Verdict: models.VerdictNormal}

	// Unusable data short-circuits everything.
	if in.Quality == models.QualityLow {
		elevate(&p, models.VerdictNoTrade, ReasonDataQualityLow)
		p.DisabledStructures = models.HardDisabledStructures()
		return p
	}

	shortVol := in.Quadrant.IsShortVol()

	if in.Quality == models.QualityMed && shortVol {
		elevate(&p, models.VerdictDefinedRiskOnly, ReasonDataQualityMed)
	}

	if shortVol {
		if d := in.DaysToEarnings; d != nil && *d >= 0 && *d <= 7 {
			elevate(&p, models.VerdictDefinedRiskOnly, ReasonEarningsShortVol)
		}
		if in.Confidence == models.GradeLow {
			elevate(&p, models.VerdictDefinedRiskOnly, ReasonLowConfidenceShort)
		}
		for _, r := range in.Fear.Reasons {
			elevate(&p, models.VerdictDefinedRiskOnly, fearReasonPrefix+r)
		}
	}

	p.DisabledStructures = disabledFor(p.Verdict)
	return p
}

// ApplyPostureOverlay is the second guard pass: the posture can tighten
// the verdict but never relax it. Returns the adjusted permission and
// the execution micro template to use.
func ApplyPostureOverlay(p models.Permission, assessment models.PostureAssessment, quadrant models.Quadrant) (models.Permission, string, string) {
	template := microTemplate(quadrant)
	dteBias := ""

	switch assessment.Label {
	case posture.TrendConfirm:
		dteBias = "systematic_mid_dte"
	case posture.Countertrend:
		elevate(&p, models.VerdictDefinedRiskOnly, "POSTURE_COUNTERTREND_OVERLAY")
		p.DisabledStructures = models.HardDisabledStructures()
		dteBias = "shorter_defined_risk"
	case posture.OneDayShock:
		elevate(&p, models.VerdictDefinedRiskOnly, "POSTURE_ONE_DAY_SHOCK_OVERLAY")
		dteBias = "conservative_short_dte"
	case posture.Chop:
		elevate(&p, models.VerdictNoTrade, "POSTURE_CHOP_OVERLAY")
		dteBias = "wait_and_see"
	}

	if p.Verdict != models.VerdictNormal && len(p.DisabledStructures) == 0 {
		p.DisabledStructures = disabledFor(p.Verdict)
	}
	if p.Verdict == models.VerdictNoTrade {
		p.DisabledStructures = models.HardDisabledStructures()
	}
	return p, template, dteBias
}

// BuildWatchlist emits guidance when the quadrant is neutral: what
// would flip the posture to actionable and what to monitor meanwhile.
func BuildWatchlist(direction, vol float64, th config.Thresholds) *models.WatchlistGuidance {
	return &models.WatchlistGuidance{
		Triggers: []string{
			fmt.Sprintf("direction score crosses ±%.2f (now %.2f)", th.WatchDirectionTrigger, direction),
			fmt.Sprintf("vol score crosses ±%.2f (now %.2f)", th.PenaltyVolPctThresh, vol),
		},
		MonitorPoints: []string{
			"relative volume vs 90-day average",
			"IV30 day-over-day change",
			"term structure label flips",
			"put percentage drift",
		},
	}
}

func elevate(p *models.Permission, to models.Verdict, reason string) {
	if to > p.Verdict {
		p.Verdict = to
	}
	p.Reasons = append(p.Reasons, reason)
}

func disabledFor(v models.Verdict) []string {
	switch v {
	case models.VerdictNoTrade:
		return models.HardDisabledStructures()
	case models.VerdictDefinedRiskOnly:
		return models.BaseDisabledStructures()
	default:
		return nil
	}
}

func microTemplate(q models.Quadrant) string {
	switch q {
	case models.QuadrantBullLongVol:
		return "bull_long_vol"
	case models.QuadrantBullShortVol:
		return "bull_short_vol"
	case models.QuadrantBearLongVol:
		return "bear_long_vol"
	case models.QuadrantBearShortVol:
		return "bear_short_vol"
	default:
		return "generic_micro"
	}
}
