package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/internal/domain/repository"
	pkgch "VolPosture/pkg/clickhouse"
)

const resultsTable = "posture_results"

// ClickHouseRecordsRepository stores one row per analysis in a
// ReplacingMergeTree keyed by (symbol, trade_date). Reads collapse to
// the daily-latest row with argMax on the insert timestamp, so reruns
// of the same trading day overwrite rather than accumulate.
type ClickHouseRecordsRepository struct {
	client *pkgch.Client
	db     *sql.DB
}

func NewClickHouseRecordsRepository(client *pkgch.Client) repository.RecordsRepository {
	return &ClickHouseRecordsRepository{client: client, db: client.DB()}
}

func (r *ClickHouseRecordsRepository) Init(ctx context.Context) error {
	return r.client.InitSchema(ctx, []string{fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			symbol          LowCardinality(String),
			trade_date      Date,
			ts              DateTime64(3),
			quadrant        LowCardinality(String),
			confidence      LowCardinality(String),
			verdict         LowCardinality(String),
			direction_score Float64,
			vol_score       Float64,
			payload         String CODEC(ZSTD(3))
		)
		ENGINE = ReplacingMergeTree(ts)
		ORDER BY (symbol, trade_date)`, resultsTable),
	})
}

func (r *ClickHouseRecordsRepository) SaveResult(ctx context.Context, res *models.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	date, err := time.Parse("2006-01-02", res.TradeDate)
	if err != nil {
		return fmt.Errorf("trade date %q: %w", res.TradeDate, err)
	}

	q := fmt.Sprintf(`INSERT INTO %s
		(symbol, trade_date, ts, quadrant, confidence, verdict, direction_score, vol_score, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, resultsTable)
	_, err = r.db.ExecContext(ctx, q,
		res.Symbol, date, res.AsOf,
		res.Quadrant.Key(), string(res.Confidence), res.Permission.Verdict.String(),
		res.DirectionScore, res.VolScore, string(payload),
	)
	return err
}

func (r *ClickHouseRecordsRepository) ListResults(ctx context.Context, f repository.ResultFilter) ([]*models.Result, error) {
	var (
		where  []string
		having []string
		args   []any
	)
	if f.Date != "" {
		where = append(where, "trade_date = ?")
		args = append(args, f.Date)
	}
	if f.Quadrant != "" {
		having = append(having, "q = ?")
		args = append(args, f.Quadrant)
	}
	if f.Confidence != "" {
		having = append(having, "c = ?")
		args = append(args, f.Confidence)
	}

	q := fmt.Sprintf(`SELECT argMax(payload, ts) AS p,
			argMax(quadrant, ts) AS q, argMax(confidence, ts) AS c
		FROM %s`, resultsTable)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " GROUP BY symbol, trade_date"
	if len(having) > 0 {
		q += " HAVING " + strings.Join(having, " AND ")
	}
	q += " ORDER BY trade_date DESC, symbol ASC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	return r.queryResults(ctx, q, args...)
}

func (r *ClickHouseRecordsRepository) ListBySymbol(ctx context.Context, symbol string, limit int) ([]*models.Result, error) {
	q := fmt.Sprintf(`SELECT argMax(payload, ts)
		FROM %s WHERE symbol = ?
		GROUP BY trade_date
		ORDER BY trade_date DESC LIMIT ?`, resultsTable)
	return r.queryResults(ctx, q, symbol, limit)
}

func (r *ClickHouseRecordsRepository) LatestBySymbol(ctx context.Context, symbol string) (*models.Result, error) {
	rs, err := r.ListBySymbol(ctx, symbol, 1)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return rs[0], nil
}

func (r *ClickHouseRecordsRepository) HistoryScores(ctx context.Context, symbol string, days int) ([]float64, error) {
	q := fmt.Sprintf(`SELECT argMax(direction_score, ts)
		FROM %s WHERE symbol = ?
		GROUP BY trade_date
		ORDER BY trade_date DESC LIMIT ?`, resultsTable)
	rows, err := r.db.QueryContext(ctx, q, symbol, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *ClickHouseRecordsRepository) Symbols(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, fmt.Sprintf(
		"SELECT DISTINCT symbol FROM %s ORDER BY symbol", resultsTable))
}

func (r *ClickHouseRecordsRepository) Dates(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf(
		"SELECT DISTINCT toString(trade_date) FROM %s ORDER BY trade_date DESC", resultsTable)
	return r.queryStrings(ctx, q)
}

func (r *ClickHouseRecordsRepository) Health(ctx context.Context) error {
	return r.client.Health(ctx)
}

func (r *ClickHouseRecordsRepository) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

func (r *ClickHouseRecordsRepository) queryResults(ctx context.Context, q string, args ...any) ([]*models.Result, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []*models.Result
	for rows.Next() {
		var payload string
		dest := make([]any, len(cols))
		dest[0] = &payload
		for i := 1; i < len(cols); i++ {
			dest[i] = new(string)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		var res models.Result
		if err := json.Unmarshal([]byte(payload), &res); err != nil {
			return nil, fmt.Errorf("decode stored result: %w", err)
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

func (r *ClickHouseRecordsRepository) queryStrings(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
