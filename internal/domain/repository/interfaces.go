package repository

import (
	"context"

	"VolPosture/internal/domain/models"
)

// ResultFilter narrows ListResults.
type ResultFilter struct {
	Date       string
	Quadrant   string
	Confidence string
	Limit      int
	Offset     int
}

// RecordsRepository stores and retrieves analysis results. Writes are
// daily-latest: a second result for the same (symbol, trade_date) wins.
type RecordsRepository interface {
	Init(ctx context.Context) error // ensure tables, health checks
	SaveResult(ctx context.Context, r *models.Result) error
	ListResults(ctx context.Context, f ResultFilter) ([]*models.Result, error)
	ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.Result, error)
	LatestBySymbol(ctx context.Context, symbol string) (*models.Result, error)
	// HistoryScores returns the newest-first daily-latest direction
	// scores for a symbol, at most days entries.
	HistoryScores(ctx context.Context, symbol string, days int) ([]float64, error)
	Symbols(ctx context.Context) ([]string, error)
	Dates(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
	Close() error
}

// ResultPublisher hands finished results to downstream consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, r *models.Result) error
	PublishBatch(ctx context.Context, rs []*models.Result) error
	Close() error
}

// VIXProvider returns the current VIX level.
type VIXProvider interface {
	GetVIX(ctx context.Context) (float64, error)
}

// IVTerms is one symbol's IV term points as fetched from a provider.
type IVTerms struct {
	IV7  *float64 `json:"iv7,omitempty"`
	IV30 *float64 `json:"iv30,omitempty"`
	IV60 *float64 `json:"iv60,omitempty"`
	IV90 *float64 `json:"iv90,omitempty"`
}

// ProgressFunc reports batch fetch progress.
type ProgressFunc func(done, total int)

// IVTermsProvider bulk-fetches IV term points.
type IVTermsProvider interface {
	FetchIVTerms(ctx context.Context, symbols []string, progress ProgressFunc) (map[string]IVTerms, error)
}

// DeltaOIProvider bulk-fetches 1-day open-interest deltas.
type DeltaOIProvider interface {
	FetchDeltaOI(ctx context.Context, symbols []string, progress ProgressFunc) (map[string]float64, error)
}

// Metrics records pipeline observations.
type Metrics interface {
	RecordAnalysis(quadrant, verdict string)
	RecordError(kind string)
	RecordScores(symbol string, direction, vol float64)
	RecordLatency(op string, seconds float64)
}
