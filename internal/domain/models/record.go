package models

import "time"

// RawRecord is one scanner row as exported: values may be numbers or
// decorated strings ("+3.1%", "1,234", "2.5M"). The normalizer turns
// a batch of these into typed Records.
type RawRecord map[string]any

// Record is a normalized daily options-flow snapshot for one symbol.
// Optional fields are nil when the source omitted them or the value
// could not be parsed; the pipeline treats nil as "unknown", never zero.
type Record struct {
	Symbol    string    `json:"Symbol"`
	TradeDate string    `json:"TradeDate,omitempty"`
	Timestamp time.Time `json:"Timestamp,omitempty"`

	PriceChgPct *float64 `json:"PriceChgPct,omitempty"`
	IV30ChgPct  *float64 `json:"IV30ChgPct,omitempty"`

	IVR      *float64 `json:"IVR,omitempty"`
	IV52WPct *float64 `json:"IV_52W_P,omitempty"`

	IV7  *float64 `json:"IV7,omitempty"`
	IV30 *float64 `json:"IV30,omitempty"`
	IV60 *float64 `json:"IV60,omitempty"`
	IV90 *float64 `json:"IV90,omitempty"`

	HV20 *float64 `json:"HV20,omitempty"`
	HV1Y *float64 `json:"HV1Y,omitempty"`

	Volume      *float64 `json:"Volume,omitempty"`
	RelVolTo90D *float64 `json:"RelVolTo90D,omitempty"`
	CallVolume  *float64 `json:"CallVolume,omitempty"`
	PutVolume   *float64 `json:"PutVolume,omitempty"`
	TradeCount  *float64 `json:"TradeCount,omitempty"`

	CallNotional *float64 `json:"CallNotional,omitempty"`
	PutNotional  *float64 `json:"PutNotional,omitempty"`

	PutPct        *float64 `json:"PutPct,omitempty"`
	SingleLegPct  *float64 `json:"SingleLegPct,omitempty"`
	MultiLegPct   *float64 `json:"MultiLegPct,omitempty"`
	ContingentPct *float64 `json:"ContingentPct,omitempty"`

	OIPctRank *float64 `json:"OI_PctRank,omitempty"`
	DeltaOI1D *float64 `json:"DeltaOI_1D,omitempty"`
	TotalOI   *float64 `json:"TotalOI,omitempty"`

	EarningsDate string `json:"EarningsDate,omitempty"`
}

// Float returns a pointer to v. Handy for building records in code.
func Float(v float64) *float64 { return &v }

// FloatOr dereferences p, falling back to def when nil.
func FloatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
