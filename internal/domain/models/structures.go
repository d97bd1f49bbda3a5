package models

// Short-vol structure names the guard can disable.
const (
	StructNakedShortPut  = "naked_short_put"
	StructNakedShortCall = "naked_short_call"
	StructShortStrangle  = "short_strangle"
	StructShortPutRatio  = "short_put_ratio"
	StructShortCallRatio = "short_call_ratio"
)

// BaseDisabledStructures are switched off whenever the verdict rises to
// defined-risk-only.
func BaseDisabledStructures() []string {
	return []string{StructNakedShortPut, StructNakedShortCall, StructShortStrangle}
}

// HardDisabledStructures extends the base set under a no-trade verdict.
func HardDisabledStructures() []string {
	return []string{
		StructNakedShortPut, StructNakedShortCall, StructShortStrangle,
		StructShortPutRatio, StructShortCallRatio,
	}
}
