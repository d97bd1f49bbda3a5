package models

import "time"

// DirectionBreakdown names every term of the direction score so the
// final number is reconstructable.
type DirectionBreakdown struct {
	PriceTerm     float64 `json:"price_term"`
	NotionalTerm  float64 `json:"notional_term"`
	VolBiasTerm   float64 `json:"vol_bias_term"`
	IntensityMult float64 `json:"intensity_mult"`
	RelVolTerm    float64 `json:"relvol_term"`
	CPRTerm       float64 `json:"cpr_term"`
	PutPctTerm    float64 `json:"putpct_term"`
	SpotVolTerm   float64 `json:"spot_vol_term"`
	StructureAmp  float64 `json:"structure_amp"`
	AORGate       float64 `json:"aor_gate"`
	Raw           float64 `json:"raw"`
	Final         float64 `json:"final"`
}

// VolBreakdown names every term of the volatility score.
type VolBreakdown struct {
	BuyScore       float64 `json:"buy_score"`
	SellScore      float64 `json:"sell_score"`
	EarningsBoost  float64 `json:"earnings_boost"`
	RegimeTerm     float64 `json:"regime_term"`
	TermAdjustment float64 `json:"term_adjustment"`
	MultiLegGate   float64 `json:"multileg_gate"`
	DynamicGate    float64 `json:"dynamic_gate"`
	Raw            float64 `json:"raw"`
	Final          float64 `json:"final"`
}

// TermRatios are adjacent-tenor IV ratios; nil when an input tenor is
// missing or non-positive.
type TermRatios struct {
	Short *float64 `json:"ratio_7_30,omitempty"`
	Mid   *float64 `json:"ratio_30_60,omitempty"`
	Long  *float64 `json:"ratio_60_90,omitempty"`
	Broad *float64 `json:"ratio_30_90,omitempty"`
}

// TermStructure is the classified IV term-structure state.
type TermStructure struct {
	Ratios      TermRatios `json:"ratios"`
	Label       string     `json:"label"`
	HorizonBias string     `json:"horizon_bias"`
	Adjustment  float64    `json:"adjustment"`
}

// SqueezeSignal is the short-squeeze composite.
type SqueezeSignal struct {
	Score     float64  `json:"score"`
	Triggered bool     `json:"triggered"`
	Reasons   []string `json:"reasons,omitempty"`
}

// DynamicParamsSnapshot records the adaptive parameters used for one
// analysis, with the pre-clip raw values for audit.
type DynamicParamsSnapshot struct {
	Enabled   bool    `json:"enabled"`
	VIX       float64 `json:"vix"`
	BetaT     float64 `json:"beta_t"`
	LambdaT   float64 `json:"lambda_t"`
	AlphaT    float64 `json:"alpha_t"`
	BetaRaw   float64 `json:"beta_raw"`
	LambdaRaw float64 `json:"lambda_raw"`
	AlphaRaw  float64 `json:"alpha_raw"`
}

// QualityIssue is one data-quality finding.
type QualityIssue struct {
	Severity int    `json:"severity"` // 1 = warn, 2 = fail
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// DataQualityReport grades the input record before scoring.
type DataQualityReport struct {
	Level         QualityLevel   `json:"level"`
	MissingFields []string       `json:"missing_fields,omitempty"`
	Issues        []QualityIssue `json:"issues,omitempty"`
}

// PostureAssessment classifies today's move against recent history.
type PostureAssessment struct {
	Label       string   `json:"label"`
	Strength    string   `json:"strength"`
	Consistency float64  `json:"consistency"`
	Reasons     []string `json:"reasons,omitempty"`
	ReasonCodes []string `json:"reason_codes,omitempty"`
	Confidence  Grade    `json:"confidence"`
}

// TrendAssessment is the OLS slope over recent direction scores.
type TrendAssessment struct {
	Slope float64 `json:"slope"`
	Label string  `json:"label"`
	Days  int     `json:"days"`
}

// Permission is the trade-permission verdict with its audit trail.
type Permission struct {
	Verdict            Verdict  `json:"verdict"`
	Reasons            []string `json:"reasons,omitempty"`
	DisabledStructures []string `json:"disabled_structures,omitempty"`
}

// FearRegime is the sell-pressure environment assessment.
type FearRegime struct {
	Active  bool     `json:"active"`
	Reasons []string `json:"reasons,omitempty"`
}

// StrategyStructure is one candidate option structure. Disabled
// structures stay in the list with Enabled=false so the caller sees
// what was ruled out and why.
type StrategyStructure struct {
	Name        string `json:"name"`
	RiskDefined bool   `json:"risk_defined"`
	Direction   string `json:"direction"`
	VolBias     string `json:"vol_bias"`
	DTEHint     string `json:"dte_hint"`
	DeltaHint   string `json:"delta_hint,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// Playbook is the per-quadrant prose guidance.
type Playbook struct {
	Strategy string `json:"strategy"`
	Risk     string `json:"risk"`
	DTEBias  string `json:"dte_bias,omitempty"`
}

// WatchlistGuidance is emitted for neutral quadrants: what would flip
// the posture and what to monitor meanwhile.
type WatchlistGuidance struct {
	Triggers      []string `json:"triggers,omitempty"`
	MonitorPoints []string `json:"monitor_points,omitempty"`
}

// MarketState is the volatility environment part of the bridge snapshot.
type MarketState struct {
	VIX            float64  `json:"vix"`
	IVR            *float64 `json:"ivr,omitempty"`
	IV30           *float64 `json:"iv30,omitempty"`
	HV20           *float64 `json:"hv20,omitempty"`
	HV1Y           *float64 `json:"hv1y,omitempty"`
	TermLabel      string   `json:"term_label"`
	TermAdjustment float64  `json:"term_adjustment"`
}

// EventState carries event-risk context.
type EventState struct {
	EarningsDate     string `json:"earnings_date,omitempty"`
	DaysToEarnings   *int   `json:"days_to_earnings,omitempty"`
	IsEarningsWindow bool   `json:"is_earnings_window"`
	IsIndex          bool   `json:"is_index"`
	IsSqueeze        bool   `json:"is_squeeze"`
}

// ExecutionState carries everything an execution layer needs to size
// and select a structure.
type ExecutionState struct {
	Quadrant        Quadrant `json:"quadrant"`
	DirectionScore  float64  `json:"direction_score"`
	VolScore        float64  `json:"vol_score"`
	VolumeBias      float64  `json:"volume_bias"`
	NotionalBias    float64  `json:"notional_bias"`
	Confidence      Grade    `json:"confidence"`
	Liquidity       Grade    `json:"liquidity"`
	ActiveOpenRatio float64  `json:"active_open_ratio"`
	OIDataAvailable bool     `json:"oi_data_available"`
	Penalized       bool     `json:"penalized"`
	FlowBias        string   `json:"flow_bias"`
}

// BridgeSnapshot is the downstream-facing condensed view of one analysis.
type BridgeSnapshot struct {
	Symbol         string         `json:"symbol"`
	AsOf           time.Time      `json:"as_of"`
	MarketState    MarketState    `json:"market_state"`
	EventState     EventState     `json:"event_state"`
	ExecutionState ExecutionState `json:"execution_state"`
	TermStructure  TermStructure  `json:"term_structure"`
	MicroTemplate  string         `json:"micro_template"`
}

// Result is the full outcome of scoring one record.
type Result struct {
	Symbol    string    `json:"symbol"`
	TradeDate string    `json:"trade_date"`
	AsOf      time.Time `json:"as_of"`

	DirectionScore float64            `json:"direction_score"`
	Direction      DirectionBreakdown `json:"direction"`
	VolScore       float64            `json:"vol_score"`
	Vol            VolBreakdown       `json:"vol"`

	Quadrant      Quadrant `json:"quadrant"`
	QuadrantLabel string   `json:"quadrant_label"`

	Confidence    Grade   `json:"confidence"`
	ConfidenceVal float64 `json:"confidence_value"`
	Liquidity     Grade   `json:"liquidity"`
	LiquidityVal  float64 `json:"liquidity_value"`
	Penalized     bool    `json:"penalized"`

	TermStructure TermStructure         `json:"term_structure"`
	Squeeze       SqueezeSignal         `json:"squeeze"`
	DynamicParams DynamicParamsSnapshot `json:"dynamic_params"`
	DataQuality   DataQualityReport     `json:"data_quality"`
	FearRegime    FearRegime            `json:"fear_regime"`

	Posture PostureAssessment `json:"posture"`
	Trend   TrendAssessment   `json:"trend"`

	Permission Permission          `json:"permission"`
	Playbook   Playbook            `json:"playbook"`
	Structures []StrategyStructure `json:"structures"`
	Watchlist  *WatchlistGuidance  `json:"watchlist,omitempty"`

	DirectionFactors []string `json:"direction_factors,omitempty"`
	VolFactors       []string `json:"vol_factors,omitempty"`

	Features Features       `json:"features"`
	Bridge   BridgeSnapshot `json:"bridge"`
}
