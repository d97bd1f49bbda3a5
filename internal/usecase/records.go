package usecase

import (
	"context"
	"fmt"

	"VolPosture/internal/domain/models"
	domrepo "VolPosture/internal/domain/repository"
)

// RecordsUseCase is the read side over stored analysis results.
type RecordsUseCase struct {
	repo domrepo.RecordsRepository
}

func NewRecordsUseCase(repo domrepo.RecordsRepository) *RecordsUseCase {
	return &RecordsUseCase{repo: repo}
}

func (uc *RecordsUseCase) List(ctx context.Context, req models.ListRecordsRequest) ([]*models.Result, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}
	return uc.repo.ListResults(ctx, domrepo.ResultFilter{
		Date:       req.Date,
		Quadrant:   req.Quadrant,
		Confidence: req.Confidence,
		Limit:      limit,
		Offset:     req.Offset,
	})
}

func (uc *RecordsUseCase) BySymbol(ctx context.Context, symbol string, limit int) ([]*models.Result, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if limit <= 0 {
		limit = 30
	}
	return uc.repo.ListBySymbol(ctx, symbol, limit)
}

func (uc *RecordsUseCase) Latest(ctx context.Context, symbol string) (*models.Result, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	return uc.repo.LatestBySymbol(ctx, symbol)
}

// HistoryScores returns newest-first daily-latest direction scores.
func (uc *RecordsUseCase) HistoryScores(ctx context.Context, req models.HistoryScoresRequest) ([]float64, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	days := req.Days
	if days <= 0 {
		days = 5
	}
	return uc.repo.HistoryScores(ctx, req.Symbol, days)
}

func (uc *RecordsUseCase) Symbols(ctx context.Context) ([]string, error) {
	return uc.repo.Symbols(ctx)
}

func (uc *RecordsUseCase) Dates(ctx context.Context) ([]string, error) {
	return uc.repo.Dates(ctx)
}
