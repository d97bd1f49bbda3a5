package repository

import (
	"context"
	"testing"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/domain/repository"
)

func result(symbol, date string, dir float64, asOf time.Time) *models.Result {
	return &models.Result{
		Symbol:         symbol,
		TradeDate:      date,
		AsOf:           asOf,
		DirectionScore: dir,
		Quadrant:       models.QuadrantBullLongVol,
		Confidence:     models.GradeHigh,
	}
}

func TestMemoryRepoDailyLatest(t *testing.T) {
	repo := NewMemoryRecordsRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	if err := repo.SaveResult(ctx, result("NVDA", "2026-02-10", 1.0, t0)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveResult(ctx, result("NVDA", "2026-02-10", 2.0, t0.Add(time.Hour))); err != nil {
		t.Fatalf("save: %v", err)
	}

	rs, err := repo.ListBySymbol(ctx, "NVDA", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("rows = %d, want 1", len(rs))
	}
	if rs[0].DirectionScore != 2.0 {
		t.Fatalf("later write must win, got %.1f", rs[0].DirectionScore)
	}

	// A stale timestamp never clobbers a newer row.
	if err := repo.SaveResult(ctx, result("NVDA", "2026-02-10", 0.5, t0.Add(-time.Hour))); err != nil {
		t.Fatalf("save: %v", err)
	}
	latest, err := repo.LatestBySymbol(ctx, "NVDA")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.DirectionScore != 2.0 {
		t.Fatalf("stale write clobbered newer row: %.1f", latest.DirectionScore)
	}
}

func TestMemoryRepoHistoryScoresNewestFirst(t *testing.T) {
	repo := NewMemoryRecordsRepository()
	ctx := context.Background()
	t0 := time.Date(2026, 2, 1, 15, 0, 0, 0, time.UTC)

	for i, d := range []string{"2026-02-09", "2026-02-10", "2026-02-06"} {
		if err := repo.SaveResult(ctx, result("NVDA", d, float64(i+1), t0)); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	scores, err := repo.HistoryScores(ctx, "NVDA", 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// Newest first: 02-10 then 02-09.
	if len(scores) != 2 || scores[0] != 2.0 || scores[1] != 1.0 {
		t.Fatalf("scores = %v", scores)
	}
}

func TestMemoryRepoFilters(t *testing.T) {
	repo := NewMemoryRecordsRepository()
	ctx := context.Background()
	t0 := time.Now()

	a := result("A", "2026-02-10", 1, t0)
	b := result("B", "2026-02-10", 1, t0)
	b.Quadrant = models.QuadrantBearShortVol
	b.Confidence = models.GradeLow
	c := result("C", "2026-02-09", 1, t0)
	for _, r := range []*models.Result{a, b, c} {
		if err := repo.SaveResult(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rs, err := repo.ListResults(ctx, repository.ResultFilter{Date: "2026-02-10", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("date filter rows = %d", len(rs))
	}

	rs, _ = repo.ListResults(ctx, repository.ResultFilter{Quadrant: "bear_short_vol", Limit: 10})
	if len(rs) != 1 || rs[0].Symbol != "B" {
		t.Fatalf("quadrant filter rows = %v", rs)
	}

	rs, _ = repo.ListResults(ctx, repository.ResultFilter{Confidence: "低", Limit: 10})
	if len(rs) != 1 || rs[0].Symbol != "B" {
		t.Fatalf("confidence filter rows = %v", rs)
	}

	rs, _ = repo.ListResults(ctx, repository.ResultFilter{Limit: 2, Offset: 2})
	if len(rs) != 1 {
		t.Fatalf("pagination rows = %d", len(rs))
	}

	syms, _ := repo.Symbols(ctx)
	if len(syms) != 3 || syms[0] != "A" {
		t.Fatalf("symbols = %v", syms)
	}
	dates, _ := repo.Dates(ctx)
	if len(dates) != 2 || dates[0] != "2026-02-10" {
		t.Fatalf("dates = %v", dates)
	}
}
