package config

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
)

// Canonical quadrant keys. Any spelling arriving via config aliases is
// resolved to one of these at load time.
const (
	QuadrantBullLongVol  = "bull_long_vol"
	QuadrantBullShortVol = "bull_short_vol"
	QuadrantBearLongVol  = "bear_long_vol"
	QuadrantBearShortVol = "bear_short_vol"
	QuadrantNeutralWatch = "neutral_watch"
)

var canonicalQuadrants = map[string]bool{
	QuadrantBullLongVol:  true,
	QuadrantBullShortVol: true,
	QuadrantBearLongVol:  true,
	QuadrantBearShortVol: true,
	QuadrantNeutralWatch: true,
}

// ScoringConfig groups everything the scoring pipeline reads:
// the threshold table, the index ticker list with its overrides,
// and quadrant alias spellings from older config files.
type ScoringConfig struct {
	Thresholds   Thresholds `yaml:"thresholds"`
	IndexTickers []string   `yaml:"index_tickers" default:"[\"SPY\",\"QQQ\",\"IWM\",\"DIA\"]"`
	Index        struct {
		PutPctBear       float64 `yaml:"putpct_bear" default:"65"`
		PutPctBull       float64 `yaml:"putpct_bull" default:"50"`
		CallPutRatioBull float64 `yaml:"callput_ratio_bull" default:"1.0"`
	} `yaml:"index_overrides"`
	// QuadrantAliases maps legacy quadrant spellings to canonical keys.
	QuadrantAliases map[string]string `yaml:"quadrant_aliases"`
	// TermHorizonBias overrides the default term-structure label -> horizon map.
	TermHorizonBias map[string]string `yaml:"term_horizon_bias"`
}

// Thresholds is the flat table of scoring knobs. Every field carries the
// production default; a config file only needs to name what it changes.
type Thresholds struct {
	// Earnings / events
	EarningsWindowDays int `yaml:"earnings_window_days" default:"14"`

	// Liquidity
	AbsVolumeMin       float64 `yaml:"abs_volume_min" default:"20000"`
	LiqTradeCountMin   float64 `yaml:"liq_tradecount_min" default:"20000"`
	LiqHighOIRank      float64 `yaml:"liq_high_oi_rank" default:"60"`
	LiqMedOIRank       float64 `yaml:"liq_med_oi_rank" default:"40"`
	LiqWeightVolume    float64 `yaml:"liq_weight_volume" default:"0.30"`
	LiqWeightNotional  float64 `yaml:"liq_weight_notional" default:"0.30"`
	LiqWeightOIRank    float64 `yaml:"liq_weight_oi_rank" default:"0.15"`
	LiqWeightTradeCnt  float64 `yaml:"liq_weight_tradecount" default:"0.15"`
	LiqWeightRelVol    float64 `yaml:"liq_weight_relvol" default:"0.10"`
	LiqHighScore       float64 `yaml:"liq_high_score" default:"0.72"`
	LiqMedScore        float64 `yaml:"liq_med_score" default:"0.40"`

	// Fear regime
	FearIVRankMin    float64 `yaml:"fear_ivrank_min" default:"75"`
	FearIVRVRatioMin float64 `yaml:"fear_ivrv_ratio_min" default:"1.30"`
	FearRegimeMax    float64 `yaml:"fear_regime_max" default:"1.05"`
	FearVIXHigh      float64 `yaml:"fear_vix_high" default:"25.0"`

	// IV rich / cheap
	IVLongCheapRank  float64 `yaml:"iv_longcheap_rank" default:"30"`
	IVLongCheapRatio float64 `yaml:"iv_longcheap_ratio" default:"0.95"`
	IVShortRichRank  float64 `yaml:"iv_shortrich_rank" default:"70"`
	IVShortRichRatio float64 `yaml:"iv_shortrich_ratio" default:"1.15"`
	IVPopUp          float64 `yaml:"iv_pop_up" default:"10.0"`
	IVPopDown        float64 `yaml:"iv_pop_down" default:"-10.0"`

	// Term structure
	TermShortWeight        float64 `yaml:"term_short_weight" default:"0.35"`
	TermMidWeight          float64 `yaml:"term_mid_weight" default:"0.25"`
	TermLongWeight         float64 `yaml:"term_long_weight" default:"0.15"`
	TermAdjustCap          float64 `yaml:"term_adjust_cap" default:"0.6"`
	TermInversionThreshold float64 `yaml:"term_inversion_threshold" default:"1.05"`
	TermFlatTolerance      float64 `yaml:"term_flat_tolerance" default:"0.025"`

	// Volatility regime / relative volume
	RegimeHot  float64 `yaml:"regime_hot" default:"1.20"`
	RegimeCalm float64 `yaml:"regime_calm" default:"0.80"`
	RelVolHot  float64 `yaml:"relvol_hot" default:"1.20"`
	RelVolCold float64 `yaml:"relvol_cold" default:"0.80"`

	// Flow
	CallPutRatioBull float64 `yaml:"callput_ratio_bull" default:"1.30"`
	CallPutRatioBear float64 `yaml:"callput_ratio_bear" default:"0.77"`
	PutPctBear       float64 `yaml:"putpct_bear" default:"55.0"`
	PutPctBull       float64 `yaml:"putpct_bull" default:"45.0"`

	// Structure mix
	MultiLegConfThresh   float64 `yaml:"multileg_conf_thresh" default:"40.0"`
	SingleLegConfThresh  float64 `yaml:"singleleg_conf_thresh" default:"70.0"`
	ContingentConfThresh float64 `yaml:"contingent_conf_thresh" default:"10.0"`

	// Extreme move penalty
	PenaltyExtremeChg    float64 `yaml:"penalty_extreme_chg" default:"20.0"`
	PenaltyVolPctThresh  float64 `yaml:"penalty_vol_pct_thresh" default:"0.40"`

	// Active-open ratio
	ActiveOpenRatioBear float64 `yaml:"active_open_ratio_bear" default:"-0.05"`
	ActiveOpenRatioBeta float64 `yaml:"active_open_ratio_beta" default:"0.5"`

	// Multi-day consistency
	ConsistencyStrong float64 `yaml:"consistency_strong" default:"0.6"`
	ConsistencyDays   int     `yaml:"consistency_days" default:"5"`
	ConsistencyWeight float64 `yaml:"consistency_weight" default:"0.3"`

	// Adaptive parameters
	EnableDynamicParams bool    `yaml:"enable_dynamic_params" default:"true"`
	BetaBase            float64 `yaml:"beta_base" default:"0.25"`
	BetaMin             float64 `yaml:"beta_min" default:"0.20"`
	BetaMax             float64 `yaml:"beta_max" default:"0.40"`
	BetaEMASpan         int     `yaml:"beta_ema_span" default:"10"`
	LambdaBase          float64 `yaml:"lambda_base" default:"0.45"`
	LambdaMin           float64 `yaml:"lambda_min" default:"0.35"`
	LambdaMax           float64 `yaml:"lambda_max" default:"0.55"`
	LambdaEMASpan       int     `yaml:"lambda_ema_span" default:"10"`
	AlphaBase           float64 `yaml:"alpha_base" default:"0.45"`
	AlphaMin            float64 `yaml:"alpha_min" default:"0.35"`
	AlphaMax            float64 `yaml:"alpha_max" default:"0.60"`
	AlphaEMASpan        int     `yaml:"alpha_ema_span" default:"20"`
	ZScoreMinSamples    int     `yaml:"zscore_min_samples" default:"10"`
	VIXFallbackValue    float64 `yaml:"vix_fallback_value" default:"18.0"`

	// Squeeze detector
	SqueezeScoreTrigger float64 `yaml:"squeeze_score_trigger" default:"0.70"`
	SqueezePriceZScale  float64 `yaml:"squeeze_price_z_scale" default:"2.0"`
	SqueezePriceZThresh float64 `yaml:"squeeze_price_z_thresh" default:"1.0"`

	// Direction score intensity / structure amplifier
	DirIntensityNotionalBase float64 `yaml:"dir_intensity_notional_base" default:"1000000"`
	DirIntensityGain         float64 `yaml:"dir_intensity_gain" default:"0.10"`
	DirIntensityFloor        float64 `yaml:"dir_intensity_floor" default:"0.80"`
	DirIntensityCeil         float64 `yaml:"dir_intensity_ceil" default:"1.30"`
	StructureAmpBase         float64 `yaml:"structure_amp_base" default:"1.0"`
	StructureAmpGain         float64 `yaml:"structure_amp_gain" default:"0.25"`
	StructureAmpFloor        float64 `yaml:"structure_amp_floor" default:"0.7"`
	StructureAmpCeil         float64 `yaml:"structure_amp_ceil" default:"1.3"`

	// Quadrant mapping
	DirectionScoreThreshold float64 `yaml:"direction_score_threshold" default:"1.0"`
	VolScoreThreshold       float64 `yaml:"vol_score_threshold" default:"0.4"`

	// Confidence
	ConfidenceHigh      float64 `yaml:"confidence_high" default:"1.5"`
	ConfidenceMed       float64 `yaml:"confidence_med" default:"0.75"`
	MissingFieldPenalty float64 `yaml:"missing_field_penalty" default:"0.1"`
	MissingOIPenalty    float64 `yaml:"missing_oi_penalty" default:"0.2"`
	ExtremeMovePenalty  float64 `yaml:"extreme_move_penalty" default:"0.3"`
	FearConfPenalty     float64 `yaml:"fear_conf_penalty" default:"0.2"`

	// Posture
	PostureDirectionStrong   float64 `yaml:"posture_direction_strong_threshold" default:"1.0"`
	PostureDirectionMed      float64 `yaml:"posture_direction_med_threshold" default:"0.6"`
	PostureConsistencyStrong float64 `yaml:"posture_consistency_strong_threshold" default:"0.6"`
	PostureConsistencyWeak   float64 `yaml:"posture_consistency_weak_threshold" default:"0.2"`

	// Trend
	TrendDays      int     `yaml:"trend_days" default:"5"`
	TrendSlopeUp   float64 `yaml:"trend_slope_up" default:"0.10"`
	TrendSlopeDown float64 `yaml:"trend_slope_down" default:"0.10"`

	// Watchlist guidance
	WatchDirectionTrigger float64 `yaml:"watch_direction_trigger" default:"0.8"`

	// Data quality
	DataQualityMissingWarn      int     `yaml:"data_quality_missing_warn" default:"2"`
	DataQualityMissingFail      int     `yaml:"data_quality_missing_fail" default:"4"`
	DataQualityVolumeTolerance  float64 `yaml:"data_quality_volume_tolerance" default:"0.15"`
	DataQualityPutPctTolerance  float64 `yaml:"data_quality_putpct_tolerance" default:"0.12"`
	DataQualityVolumeCeiling    float64 `yaml:"data_quality_volume_ceiling" default:"50000000"`
	DataQualityNotionalCeiling  float64 `yaml:"data_quality_notional_ceiling" default:"5000000000"`
	DataQualityIVCeiling        float64 `yaml:"data_quality_iv_ceiling" default:"300"`
}

// DefaultScoring returns a ScoringConfig populated with production
// defaults, as if loaded from an empty config file.
func DefaultScoring() ScoringConfig {
	var s ScoringConfig
	_ = defaults.Set(&s)
	return s
}

// IsIndex reports whether the symbol is configured as an index ticker.
func (s *ScoringConfig) IsIndex(symbol string) bool {
	u := strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range s.IndexTickers {
		if strings.ToUpper(t) == u {
			return true
		}
	}
	return false
}

// Effective returns the threshold table in effect for a symbol. Index
// tickers get looser flow thresholds since index put flow is dominated
// by hedging.
func (s *ScoringConfig) Effective(symbol string) Thresholds {
	t := s.Thresholds
	if s.IsIndex(symbol) {
		t.PutPctBear = s.Index.PutPctBear
		t.PutPctBull = s.Index.PutPctBull
		t.CallPutRatioBull = s.Index.CallPutRatioBull
	}
	return t
}

// ResolveQuadrant maps a possibly aliased quadrant spelling to its
// canonical key. Unknown spellings return ok=false.
func (s *ScoringConfig) ResolveQuadrant(name string) (string, bool) {
	if canonicalQuadrants[name] {
		return name, true
	}
	if c, ok := s.QuadrantAliases[name]; ok {
		return c, true
	}
	return "", false
}

func (s *ScoringConfig) resolveAliases() error {
	for alias, target := range s.QuadrantAliases {
		if !canonicalQuadrants[target] {
			return fmt.Errorf("alias %q points to unknown quadrant %q", alias, target)
		}
	}
	for label, horizon := range s.TermHorizonBias {
		switch horizon {
		case "short", "mid", "long", "neutral":
		default:
			return fmt.Errorf("term_horizon_bias[%q] must be short|mid|long|neutral, got %q", label, horizon)
		}
	}
	return nil
}

// Validate sanity checks the threshold table.
func (s *ScoringConfig) Validate() error {
	t := s.Thresholds
	if t.ConsistencyDays <= 0 || t.TrendDays <= 0 {
		return fmt.Errorf("scoring window days must be positive")
	}
	if t.BetaMin > t.BetaMax || t.LambdaMin > t.LambdaMax || t.AlphaMin > t.AlphaMax {
		return fmt.Errorf("adaptive parameter bands are inverted")
	}
	if t.TermAdjustCap < 0 {
		return fmt.Errorf("term_adjust_cap must be non-negative")
	}
	if t.ZScoreMinSamples < 2 {
		return fmt.Errorf("zscore_min_samples must be at least 2")
	}
	return nil
}
