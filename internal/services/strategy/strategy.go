package strategy

import (
	"strings"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/config"
)

// Selector maps scores to a quadrant and produces the playbook and
// candidate structures for it.
type Selector struct {
	cfg *config.ScoringConfig
}

func NewSelector(cfg *config.ScoringConfig) *Selector {
	return &Selector{cfg: cfg}
}

// MapQuadrant combines the direction and vol preferences. Either side
// being indecisive collapses to the neutral watch quadrant.
func (s *Selector) MapQuadrant(direction, vol float64, th config.Thresholds) models.Quadrant {
	bull := direction >= th.DirectionScoreThreshold
	bear := direction <= -th.DirectionScoreThreshold
	longVol := vol >= th.VolScoreThreshold
	shortVol := vol <= -th.VolScoreThreshold

	switch {
	case bull && longVol:
		return models.QuadrantBullLongVol
	case bull && shortVol:
		return models.QuadrantBullShortVol
	case bear && longVol:
		return models.QuadrantBearLongVol
	case bear && shortVol:
		return models.QuadrantBearShortVol
	default:
		return models.QuadrantNeutralWatch
	}
}

var playbooks = map[models.Quadrant]models.Playbook{
	models.QuadrantBullLongVol: {
		Strategy: "顺势买入看涨期权或牛市价差,优先 30-60 DTE",
		Risk:     "IV 回落会侵蚀权利金;严格控制单笔仓位",
	},
	models.QuadrantBullShortVol: {
		Strategy: "卖出看跌期权或牛市看跌价差收取权利金",
		Risk:     "急跌风险;预设止损与保证金缓冲",
	},
	models.QuadrantBearLongVol: {
		Strategy: "买入看跌期权或熊市价差,关注事件窗口",
		Risk:     "反弹挤压;避免追高已抬升的波动率",
	},
	models.QuadrantBearShortVol: {
		Strategy: "卖出看涨期权或熊市看涨价差",
		Risk:     "逼空风险;杜绝无限损失敞口",
	},
	models.QuadrantNeutralWatch: {
		Strategy: "观望;等待方向或波动率信号明确",
		Risk:     "提前进场易被震荡磨损",
	},
}

// Playbook returns the per-quadrant prose guidance, annotated with the
// squeeze warning and a low-liquidity caveat when applicable.
func (s *Selector) Playbook(q models.Quadrant, squeeze models.SqueezeSignal, liquidity models.Grade, dteBias string) models.Playbook {
	pb := playbooks[q]
	if squeeze.Triggered {
		pb.Strategy = "[挤压预警] " + pb.Strategy
	}
	if liquidity == models.GradeLow {
		pb.Strategy += "(流动性偏低,注意滑点与仓位)"
	}
	pb.DTEBias = dteBias
	return pb
}

type structureSpec struct {
	name        string
	riskDefined bool
	direction   string
	volBias     string
	dteHint     string
	deltaHint   string
	notes       string
}

var structureCatalog = map[models.Quadrant][]structureSpec{
	models.QuadrantBullLongVol: {
		{"long_call", true, "bull", "long", "30-60", "0.30-0.45", ""},
		{"bull_call_spread", true, "bull", "long", "30-60", "0.35/0.20", ""},
		{"call_calendar", true, "bull", "long", "front 14 / back 45", "0.35", ""},
	},
	models.QuadrantBullShortVol: {
		{models.StructNakedShortPut, false, "bull", "short", "21-45", "0.20-0.30", ""},
		{"bull_put_spread", true, "bull", "short", "21-45", "0.25/0.12", ""},
		{models.StructShortPutRatio, false, "bull", "short", "21-45", "0.25", ""},
	},
	models.QuadrantBearLongVol: {
		{"long_put", true, "bear", "long", "30-60", "0.30-0.45", ""},
		{"bear_put_spread", true, "bear", "long", "30-60", "0.35/0.20", ""},
		{"put_backspread", true, "bear", "long", "30-60", "short 0.35 / long 2x0.20", ""},
	},
	models.QuadrantBearShortVol: {
		{models.StructNakedShortCall, false, "bear", "short", "21-45", "0.20-0.30", ""},
		{"bear_call_spread", true, "bear", "short", "21-45", "0.25/0.12", ""},
		{models.StructShortCallRatio, false, "bear", "short", "21-45", "0.25", ""},
	},
	models.QuadrantNeutralWatch: {
		{"iron_condor", true, "neutral", "short", "30-45", "0.16 wings", ""},
		{models.StructShortStrangle, false, "neutral", "short", "30-45", "0.16", ""},
		{"double_calendar", true, "neutral", "long", "front 14 / back 45", "", ""},
	},
}

// Structures lists the quadrant's candidate structures. Structures the
// guard disabled stay in the list flagged Enabled=false with the
// disabling reasons in the notes, so callers see what was ruled out.
func (s *Selector) Structures(q models.Quadrant, p models.Permission) []models.StrategyStructure {
	disabled := make(map[string]bool, len(p.DisabledStructures))
	for _, name := range p.DisabledStructures {
		disabled[name] = true
	}

	specs := structureCatalog[q]
	out := make([]models.StrategyStructure, 0, len(specs))
	for _, sp := range specs {
		st := models.StrategyStructure{
			Name:        sp.name,
			RiskDefined: sp.riskDefined,
			Direction:   sp.direction,
			VolBias:     sp.volBias,
			DTEHint:     sp.dteHint,
			DeltaHint:   sp.deltaHint,
			Notes:       sp.notes,
			Enabled:     true,
		}
		if disabled[sp.name] {
			st.Enabled = false
			st.Notes = "disabled: " + strings.Join(p.Reasons, ", ")
		}
		out = append(out, st)
	}
	return out
}
