package models

// AnalyzeOptions tune a single scoring call.
type AnalyzeOptions struct {
	// SkipOI disables the open-interest gate when delta-OI data is stale.
	SkipOI bool `json:"skip_oi"`
	// IgnoreEarnings drops the earnings proximity boost.
	IgnoreEarnings bool `json:"ignore_earnings"`
	// VIXOverride bypasses the VIX provider when set.
	VIXOverride *float64 `json:"vix,omitempty" validate:"omitempty,gt=0"`
	// History is the most-recent-first list of prior direction scores.
	// When nil, it is loaded from the records repository.
	History []float64 `json:"history,omitempty"`
}

// AnalyzeRequest scores one raw record.
type AnalyzeRequest struct {
	Record  RawRecord      `json:"record" validate:"required"`
	Options AnalyzeOptions `json:"options"`
	// Persist writes the result to the records repository (default true).
	Persist *bool `json:"persist,omitempty"`
}

// BatchAnalyzeRequest scores a batch of raw records. With Async=true the
// batch runs as a background task and the response carries a task id.
type BatchAnalyzeRequest struct {
	Records []RawRecord    `json:"records" validate:"required,min=1,max=500"`
	Options AnalyzeOptions `json:"options"`
	Async   bool           `json:"async"`
}

// BatchAnalyzeResponse summarizes a synchronous batch run.
type BatchAnalyzeResponse struct {
	Total   int       `json:"total"`
	Scored  int       `json:"scored"`
	Failed  int       `json:"failed"`
	Results []*Result `json:"results"`
	Errors  []string  `json:"errors,omitempty"`
}

// ListRecordsRequest filters stored analysis rows.
type ListRecordsRequest struct {
	Date       string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Quadrant   string `query:"quadrant"`
	Confidence string `query:"confidence" validate:"omitempty,oneof=高 中 低"`
	Limit      int    `query:"limit" default:"100" validate:"min=1,max=1000"`
	Offset     int    `query:"offset" validate:"min=0"`
}

// FetchRequest runs a bulk provider fetch (IV terms, delta OI) for a
// symbol list as a background task.
type FetchRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=500"`
}

// HistoryScoresRequest fetches recent daily direction scores for a symbol.
type HistoryScoresRequest struct {
	Symbol string `param:"symbol" validate:"required"`
	Days   int    `query:"days" default:"5" validate:"min=1,max=60"`
}
