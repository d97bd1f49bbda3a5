package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VolPosture/internal/domain/models"
	internalrepo "VolPosture/internal/repository"
	"VolPosture/internal/rollingcache"
	"VolPosture/pkg/config"
	applogger "VolPosture/pkg/logger"
)

type stubVIX struct{ v float64 }

func (s stubVIX) GetVIX(ctx context.Context) (float64, error) { return s.v, nil }

type noopMetrics struct{}

func (noopMetrics) RecordAnalysis(string, string)          {}
func (noopMetrics) RecordError(string)                     {}
func (noopMetrics) RecordScores(string, float64, float64)  {}
func (noopMetrics) RecordLatency(string, float64)          {}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	log, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	require.NoError(t, err)

	cache, err := rollingcache.New(filepath.Join(t.TempDir(), "rolling.json"), 60, 20, log)
	require.NoError(t, err)

	cfg := config.DefaultScoring()
	return NewAnalyzer(&cfg, cache, internalrepo.NewMemoryRecordsRepository(), nil,
		stubVIX{v: 17.5}, noopMetrics{}, log)
}

func bullRecord() models.RawRecord {
	return models.RawRecord{
		"Symbol":      "NVDA",
		"TradeDate":   "2026-02-10",
		"PriceChgPct": 2.0,
		"RelVolTo90D": 1.3,
		"CallVolume":  8000.0,
		"PutVolume":   2000.0,
		"IVR":         20.0,
		"IV30":        18.0,
		"HV20":        25.0,
	}
}

func TestAnalyzeBullLongVol(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	res, err := a.AnalyzeRaw(ctx, bullRecord(), models.AnalyzeOptions{
		SkipOI:  true,
		History: []float64{},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "偏多—买波", res.QuadrantLabel)
	assert.Equal(t, models.QuadrantBullLongVol, res.Quadrant)
	assert.Greater(t, res.DirectionScore, 1.0)
	assert.Greater(t, res.VolScore, 0.4)
	assert.Equal(t, "2026-02-10", res.TradeDate)
	assert.Equal(t, res.Quadrant, res.Bridge.ExecutionState.Quadrant)
	assert.NotEmpty(t, res.DirectionFactors)
	assert.NotEmpty(t, res.Structures)
	assert.Nil(t, res.Watchlist)

	// OI gate must stay neutral when skipped.
	assert.Equal(t, 1.0, res.Direction.AORGate)
}

func TestAnalyzePersistsDailyLatest(t *testing.T) {
	a := newTestAnalyzer(t)
	ctx := context.Background()

	_, err := a.AnalyzeRaw(ctx, bullRecord(), models.AnalyzeOptions{SkipOI: true, History: []float64{}}, true)
	require.NoError(t, err)
	_, err = a.AnalyzeRaw(ctx, bullRecord(), models.AnalyzeOptions{SkipOI: true, History: []float64{}}, true)
	require.NoError(t, err)

	rs, err := a.repo.ListBySymbol(ctx, "NVDA", 10)
	require.NoError(t, err)
	assert.Len(t, rs, 1, "same trade date must overwrite, not accumulate")
}

func TestAnalyzeVIXOverride(t *testing.T) {
	a := newTestAnalyzer(t)
	vix := 42.0

	res, err := a.AnalyzeRaw(context.Background(), bullRecord(), models.AnalyzeOptions{
		SkipOI:      true,
		History:     []float64{},
		VIXOverride: &vix,
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 42.0, res.DynamicParams.VIX)
	assert.True(t, res.FearRegime.Active, "VIX 42 is a fear environment")
}

func TestAnalyzeNeutralGetsWatchlist(t *testing.T) {
	a := newTestAnalyzer(t)

	res, err := a.AnalyzeRaw(context.Background(), models.RawRecord{
		"Symbol":      "KO",
		"TradeDate":   "2026-02-10",
		"PriceChgPct": 0.1,
		"CallVolume":  5000.0,
		"PutVolume":   5000.0,
		"IV30":        18.0,
		"HV20":        18.0,
	}, models.AnalyzeOptions{SkipOI: true, History: []float64{}}, false)
	require.NoError(t, err)

	assert.Equal(t, models.QuadrantNeutralWatch, res.Quadrant)
	require.NotNil(t, res.Watchlist)
	assert.NotEmpty(t, res.Watchlist.Triggers)
}

func TestAnalyzeRejectsMissingSymbol(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.Analyze(context.Background(), &models.Record{}, models.AnalyzeOptions{}, false)
	require.Error(t, err)
}

func TestAnalyzeBatchCollectsErrors(t *testing.T) {
	a := newTestAnalyzer(t)

	var seen []int
	resp, err := a.AnalyzeBatch(context.Background(), []models.RawRecord{
		bullRecord(),
		{"PriceChgPct": 1.0}, // no symbol
	}, models.AnalyzeOptions{SkipOI: true, History: []float64{}}, false, func(done, total int) {
		seen = append(seen, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Scored)
	assert.Equal(t, 1, resp.Failed)
	assert.Len(t, resp.Errors, 1)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestAnalyzeIndexThresholds(t *testing.T) {
	a := newTestAnalyzer(t)

	// 60% put flow is hedging on an index, bearish on a single name.
	raw := models.RawRecord{
		"Symbol":      "SPY",
		"TradeDate":   "2026-02-10",
		"PriceChgPct": -0.2,
		"CallVolume":  4000.0,
		"PutVolume":   6000.0,
		"PutPct":      60.0,
		"IV30":        15.0,
		"HV20":        14.0,
	}
	res, err := a.AnalyzeRaw(context.Background(), raw, models.AnalyzeOptions{SkipOI: true, History: []float64{}}, false)
	require.NoError(t, err)

	assert.True(t, res.Bridge.EventState.IsIndex)
	// Single-name thresholds would hit the -0.20 bearish bucket; the
	// looser index band interpolates instead.
	assert.InDelta(t, -0.04, res.Direction.PutPctTerm, 1e-9)
}
