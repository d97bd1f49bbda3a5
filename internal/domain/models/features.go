package models

// Features holds every derived scalar the scorers consume. It is built
// once per record so each downstream stage reads the same numbers.
type Features struct {
	// Flow biases in [-1, 1].
	VolumeBias   float64 `json:"volume_bias"`
	NotionalBias float64 `json:"notional_bias"`
	// Call/put ratio, notional-based when both sides are present.
	CPRatio float64 `json:"cp_ratio"`

	// Volatility relations.
	IVRVLog     float64 `json:"ivrv_log"`
	IVRatio     float64 `json:"iv_ratio"`
	RegimeRatio float64 `json:"regime_ratio"`

	// Joint spot/vol move signal.
	SpotVolSignal float64 `json:"spot_vol_signal"`

	// Structure mix purity in [-1, 1] and log-scale notional intensity.
	StructurePurity   float64 `json:"structure_purity"`
	NotionalIntensity float64 `json:"notional_intensity"`

	TotalNotional float64 `json:"total_notional"`
	TotalVolume   float64 `json:"total_volume"`

	// ActiveOpenRatio is the delta-OI / volume magnitude. It is only
	// meaningful when OIDataAvailable is true; callers must gate on the
	// flag, never on the value.
	ActiveOpenRatio float64 `json:"active_open_ratio"`
	OIDataAvailable bool    `json:"oi_data_available"`

	DeltaOIPct *float64 `json:"delta_oi_pct,omitempty"`
	OITurnover *float64 `json:"oi_turnover,omitempty"`

	DaysToEarnings *int `json:"days_to_earnings,omitempty"`

	// Names of key fields the record was missing.
	MissingFields []string `json:"missing_fields,omitempty"`
}

// MissingCount returns how many key fields were absent.
func (f *Features) MissingCount() int { return len(f.MissingFields) }
