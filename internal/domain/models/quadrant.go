package models

import (
	"encoding/json"
	"fmt"
)

// Quadrant is the closed set of direction/volatility postures.
type Quadrant int

const (
	QuadrantNeutralWatch Quadrant = iota
	QuadrantBullLongVol
	QuadrantBullShortVol
	QuadrantBearLongVol
	QuadrantBearShortVol
)

var quadrantKeys = map[Quadrant]string{
	QuadrantNeutralWatch: "neutral_watch",
	QuadrantBullLongVol:  "bull_long_vol",
	QuadrantBullShortVol: "bull_short_vol",
	QuadrantBearLongVol:  "bear_long_vol",
	QuadrantBearShortVol: "bear_short_vol",
}

var quadrantLabels = map[Quadrant]string{
	QuadrantNeutralWatch: "中性/待观察",
	QuadrantBullLongVol:  "偏多—买波",
	QuadrantBullShortVol: "偏多—卖波",
	QuadrantBearLongVol:  "偏空—买波",
	QuadrantBearShortVol: "偏空—卖波",
}

// Key returns the canonical config key for the quadrant.
func (q Quadrant) Key() string { return quadrantKeys[q] }

// Label returns the display label.
func (q Quadrant) Label() string { return quadrantLabels[q] }

func (q Quadrant) String() string { return q.Key() }

// IsShortVol reports whether the posture sells volatility.
func (q Quadrant) IsShortVol() bool {
	return q == QuadrantBullShortVol || q == QuadrantBearShortVol
}

// IsNeutral reports whether no actionable posture was reached.
func (q Quadrant) IsNeutral() bool { return q == QuadrantNeutralWatch }

// QuadrantFromKey resolves a canonical key back to the enum.
func QuadrantFromKey(key string) (Quadrant, bool) {
	for q, k := range quadrantKeys {
		if k == key {
			return q, true
		}
	}
	return QuadrantNeutralWatch, false
}

func (q Quadrant) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Key())
}

func (q *Quadrant) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, ok := QuadrantFromKey(s)
	if !ok {
		return fmt.Errorf("unknown quadrant %q", s)
	}
	*q = v
	return nil
}

// Grade is a three-level label used for confidence and liquidity.
type Grade string

const (
	GradeHigh Grade = "高"
	GradeMed  Grade = "中"
	GradeLow  Grade = "低"
)

// QualityLevel grades input data quality.
type QualityLevel string

const (
	QualityHigh QualityLevel = "HIGH"
	QualityMed  QualityLevel = "MED"
	QualityLow  QualityLevel = "LOW"
)

// Verdict is the trade-permission outcome. Higher values are stricter;
// the guard only ever moves the verdict upward.
type Verdict int

const (
	VerdictNormal Verdict = iota
	VerdictDefinedRiskOnly
	VerdictNoTrade
)

var verdictNames = map[Verdict]string{
	VerdictNormal:          "NORMAL",
	VerdictDefinedRiskOnly: "ALLOW_DEFINED_RISK_ONLY",
	VerdictNoTrade:         "NO_TRADE",
}

func (v Verdict) String() string { return verdictNames[v] }

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verdict) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for k, n := range verdictNames {
		if n == s {
			*v = k
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", s)
}
