package repository

import (
	"context"
	"sort"
	"sync"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/domain/repository"
)

// MemoryRecordsRepository keeps results in process memory. Used for
// tests and storage.type=memory deployments; semantics mirror the
// ClickHouse repository, including daily-latest overwrite.
type MemoryRecordsRepository struct {
	mu sync.RWMutex
	// (symbol, trade_date) -> latest result
	rows map[string]map[string]*models.Result
}

func NewMemoryRecordsRepository() repository.RecordsRepository {
	return &MemoryRecordsRepository{rows: make(map[string]map[string]*models.Result)}
}

func (m *MemoryRecordsRepository) Init(ctx context.Context) error { return nil }

func (m *MemoryRecordsRepository) SaveResult(ctx context.Context, r *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDate := m.rows[r.Symbol]
	if byDate == nil {
		byDate = make(map[string]*models.Result)
		m.rows[r.Symbol] = byDate
	}
	if prev, ok := byDate[r.TradeDate]; ok && prev.AsOf.After(r.AsOf) {
		return nil // last write by timestamp wins
	}
	byDate[r.TradeDate] = r
	return nil
}

func (m *MemoryRecordsRepository) ListResults(ctx context.Context, f repository.ResultFilter) ([]*models.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Result
	for _, byDate := range m.rows {
		for date, r := range byDate {
			if f.Date != "" && date != f.Date {
				continue
			}
			if f.Quadrant != "" && r.Quadrant.Key() != f.Quadrant {
				continue
			}
			if f.Confidence != "" && string(r.Confidence) != f.Confidence {
				continue
			}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TradeDate != out[j].TradeDate {
			return out[i].TradeDate > out[j].TradeDate
		}
		return out[i].Symbol < out[j].Symbol
	})
	return page(out, f.Limit, f.Offset), nil
}

func (m *MemoryRecordsRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Result, 0, len(m.rows[symbol]))
	for _, r := range m.rows[symbol] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TradeDate > out[j].TradeDate })
	return page(out, limit, 0), nil
}

func (m *MemoryRecordsRepository) LatestBySymbol(ctx context.Context, symbol string) (*models.Result, error) {
	rs, err := m.ListBySymbol(ctx, symbol, 1)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return rs[0], nil
}

func (m *MemoryRecordsRepository) HistoryScores(ctx context.Context, symbol string, days int) ([]float64, error) {
	rs, err := m.ListBySymbol(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	scores := make([]float64, 0, len(rs))
	for _, r := range rs {
		scores = append(scores, r.DirectionScore)
	}
	return scores, nil
}

func (m *MemoryRecordsRepository) Symbols(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.rows))
	for s := range m.rows {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryRecordsRepository) Dates(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	for _, byDate := range m.rows {
		for d := range byDate {
			seen[d] = true
		}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

func (m *MemoryRecordsRepository) Health(ctx context.Context) error { return nil }
func (m *MemoryRecordsRepository) Close() error                     { return nil }

func page(rs []*models.Result, limit, offset int) []*models.Result {
	if offset >= len(rs) {
		return nil
	}
	rs = rs[offset:]
	if limit > 0 && len(rs) > limit {
		rs = rs[:limit]
	}
	return rs
}
