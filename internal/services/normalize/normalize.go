package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"VolPosture/internal/domain/models"
)

// Field groups drive how raw values are cleaned and whether the batch
// fraction-vs-percent scale check applies.
var (
	percentFields = []string{
		"PriceChgPct", "IV30ChgPct", "IVR", "IV_52W_P", "OI_PctRank",
		"PutPct", "SingleLegPct", "MultiLegPct", "ContingentPct",
	}
	numberFields = []string{
		"IV7", "IV30", "IV60", "IV90", "HV20", "HV1Y",
		"Volume", "RelVolTo90D", "CallVolume", "PutVolume",
		"TradeCount", "TotalOI", "DeltaOI_1D",
	}
	notionalFields = []string{"CallNotional", "PutNotional"}

	// Rank-style fields are clamped to [0, 100] after scaling.
	rankFields = map[string]bool{"IVR": true, "IV_52W_P": true, "OI_PctRank": true}

	// Percent fields whose batch median magnitude decides fraction vs
	// percent scale. Signed change fields are excluded: small medians
	// there are normal, not a scale artifact.
	scaleCheckedFields = map[string]bool{
		"IVR": true, "IV_52W_P": true, "OI_PctRank": true,
		"PutPct": true, "SingleLegPct": true, "MultiLegPct": true, "ContingentPct": true,
	}

	notionalRe = regexp.MustCompile(`([0-9.]+)\s*([KMBkmb]?)`)
)

// CleanPercent parses a percent-decorated value ("+3.1%", "58.2") into
// a float. Returns nil when the value is absent or unparsable.
func CleanPercent(v any) *float64 {
	s, f, ok := coerce(v)
	if !ok {
		return nil
	}
	if f != nil {
		return f
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	return parseFloat(s)
}

// CleanNumber parses a plain numeric value, tolerating thousands
// separators and a leading plus sign.
func CleanNumber(v any) *float64 {
	s, f, ok := coerce(v)
	if !ok {
		return nil
	}
	if f != nil {
		return f
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "+"))
	s = strings.ReplaceAll(s, ",", "")
	return parseFloat(s)
}

// CleanNotional parses compact notional strings ("2.5M", "980K", "1.2B")
// into dollar amounts.
func CleanNotional(v any) *float64 {
	s, f, ok := coerce(v)
	if !ok {
		return nil
	}
	if f != nil {
		return f
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	neg := strings.HasPrefix(s, "-")
	m := notionalRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	base := parseFloat(m[1])
	if base == nil {
		return nil
	}
	mult := 1.0
	switch strings.ToUpper(m[2]) {
	case "K":
		mult = 1e3
	case "M":
		mult = 1e6
	case "B":
		mult = 1e9
	}
	out := *base * mult
	if neg {
		out = -out
	}
	return &out
}

// NormalizeBatch turns raw scanner rows into typed records. Scale
// detection is batch-wide: if a percent column's median magnitude sits
// in (0, 1], the whole column is treated as fractions and scaled x100.
func NormalizeBatch(raws []models.RawRecord) []*models.Record {
	parsed := make([]map[string]*float64, len(raws))
	for i, raw := range raws {
		vals := make(map[string]*float64)
		for _, k := range percentFields {
			vals[k] = CleanPercent(rawValue(raw, k))
		}
		for _, k := range numberFields {
			vals[k] = CleanNumber(rawValue(raw, k))
		}
		for _, k := range notionalFields {
			vals[k] = CleanNotional(rawValue(raw, k))
		}
		parsed[i] = vals
	}

	for _, k := range percentFields {
		if !scaleCheckedFields[k] {
			continue
		}
		if isFractionScale(column(parsed, k)) {
			for _, vals := range parsed {
				if p := vals[k]; p != nil {
					*p *= 100
				}
			}
		}
	}

	out := make([]*models.Record, len(raws))
	for i, raw := range raws {
		vals := parsed[i]
		for k := range rankFields {
			if p := vals[k]; p != nil {
				*p = clamp(*p, 0, 100)
			}
		}
		out[i] = assemble(raw, vals)
	}
	return out
}

// NormalizeOne is NormalizeBatch for a single row. Scale detection
// still applies, degraded to a single sample.
func NormalizeOne(raw models.RawRecord) *models.Record {
	return NormalizeBatch([]models.RawRecord{raw})[0]
}

func assemble(raw models.RawRecord, v map[string]*float64) *models.Record {
	r := &models.Record{
		Symbol:       rawString(raw, "Symbol"),
		TradeDate:    rawString(raw, "TradeDate"),
		EarningsDate: rawString(raw, "EarningsDate"),

		PriceChgPct: v["PriceChgPct"],
		IV30ChgPct:  v["IV30ChgPct"],
		IVR:         v["IVR"],
		IV52WPct:    v["IV_52W_P"],

		IV7:  v["IV7"],
		IV30: v["IV30"],
		IV60: v["IV60"],
		IV90: v["IV90"],
		HV20: v["HV20"],
		HV1Y: v["HV1Y"],

		Volume:      v["Volume"],
		RelVolTo90D: v["RelVolTo90D"],
		CallVolume:  v["CallVolume"],
		PutVolume:   v["PutVolume"],
		TradeCount:  v["TradeCount"],

		CallNotional: v["CallNotional"],
		PutNotional:  v["PutNotional"],

		PutPct:        v["PutPct"],
		SingleLegPct:  v["SingleLegPct"],
		MultiLegPct:   v["MultiLegPct"],
		ContingentPct: v["ContingentPct"],

		OIPctRank: v["OI_PctRank"],
		DeltaOI1D: v["DeltaOI_1D"],
		TotalOI:   v["TotalOI"],
	}
	return r
}

func rawValue(raw models.RawRecord, key string) any {
	if v, ok := raw[key]; ok {
		return v
	}
	// Legacy export spells the OI delta with a unicode delta.
	if key == "DeltaOI_1D" {
		if v, ok := raw["ΔOI_1D"]; ok {
			return v
		}
	}
	return nil
}

func rawString(raw models.RawRecord, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func coerce(v any) (s string, f *float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return "", nil, false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", nil, false
		}
		return "", &x, true
	case float32:
		f64 := float64(x)
		return "", &f64, true
	case int:
		f64 := float64(x)
		return "", &f64, true
	case int64:
		f64 := float64(x)
		return "", &f64, true
	case json.Number:
		if n, err := x.Float64(); err == nil {
			return "", &n, true
		}
		return "", nil, false
	case string:
		x = strings.TrimSpace(x)
		if x == "" || x == "-" || strings.EqualFold(x, "n/a") || strings.EqualFold(x, "null") {
			return "", nil, false
		}
		return x, nil, true
	default:
		return "", nil, false
	}
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func column(parsed []map[string]*float64, key string) []float64 {
	var out []float64
	for _, vals := range parsed {
		if p := vals[key]; p != nil {
			out = append(out, math.Abs(*p))
		}
	}
	return out
}

func isFractionScale(absVals []float64) bool {
	if len(absVals) == 0 {
		return false
	}
	sort.Float64s(absVals)
	med := absVals[len(absVals)/2]
	if len(absVals)%2 == 0 {
		med = (absVals[len(absVals)/2-1] + absVals[len(absVals)/2]) / 2
	}
	return med > 0 && med <= 1.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
