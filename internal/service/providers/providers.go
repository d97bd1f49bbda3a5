package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"VolPosture/internal/domain/repository"
	"VolPosture/pkg/config"
	pkghttp "VolPosture/pkg/http"
	"VolPosture/pkg/logger"
)

// Fetcher bulk-fetches per-symbol supplements (IV term points, 1-day
// OI deltas) from HTTP endpoints. A shared token bucket paces every
// worker; per-symbol failures are logged and skipped so one bad symbol
// never sinks the batch.
type Fetcher struct {
	cfg     config.ProvidersConfig
	client  *pkghttp.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func NewFetcher(cfg config.ProvidersConfig, log *logger.Logger) *Fetcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RatePerSec)
	}
	return &Fetcher{
		cfg:     cfg,
		client:  pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		log:     log,
	}
}

// FetchIVTerms fetches IV term points for each symbol.
func (f *Fetcher) FetchIVTerms(ctx context.Context, symbols []string, progress repository.ProgressFunc) (map[string]repository.IVTerms, error) {
	if f.cfg.IVTermsURL == "" {
		return nil, fmt.Errorf("iv terms provider not configured")
	}
	out := make(map[string]repository.IVTerms, len(symbols))
	var mu sync.Mutex

	err := f.fanOut(ctx, symbols, progress, func(ctx context.Context, symbol string) error {
		var resp repository.IVTerms
		if err := f.getJSON(ctx, f.cfg.IVTermsURL, symbol, &resp); err != nil {
			return err
		}
		mu.Lock()
		out[symbol] = resp
		mu.Unlock()
		return nil
	})
	return out, err
}

// FetchDeltaOI fetches 1-day open-interest deltas for each symbol.
func (f *Fetcher) FetchDeltaOI(ctx context.Context, symbols []string, progress repository.ProgressFunc) (map[string]float64, error) {
	if f.cfg.DeltaOIURL == "" {
		return nil, fmt.Errorf("delta oi provider not configured")
	}
	out := make(map[string]float64, len(symbols))
	var mu sync.Mutex

	err := f.fanOut(ctx, symbols, progress, func(ctx context.Context, symbol string) error {
		var resp struct {
			DeltaOI1D *float64 `json:"delta_oi_1d"`
		}
		if err := f.getJSON(ctx, f.cfg.DeltaOIURL, symbol, &resp); err != nil {
			return err
		}
		if resp.DeltaOI1D == nil {
			return fmt.Errorf("no delta_oi_1d in response")
		}
		mu.Lock()
		out[symbol] = *resp.DeltaOI1D
		mu.Unlock()
		return nil
	})
	return out, err
}

// fanOut runs fn for every symbol on a fixed worker pool. Each attempt
// first waits on the shared rate limiter; failed symbols retry up to
// RetryMax times with a fixed delay.
func (f *Fetcher) fanOut(ctx context.Context, symbols []string, progress repository.ProgressFunc, fn func(context.Context, string) error) error {
	jobs := make(chan string)
	var wg sync.WaitGroup
	var done int64
	var mu sync.Mutex

	for i := 0; i < f.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if err := f.withRetry(ctx, symbol, fn); err != nil {
					f.log.Warn("provider fetch failed",
						logger.String("symbol", symbol), logger.Error(err))
				}
				mu.Lock()
				done++
				n := int(done)
				mu.Unlock()
				if progress != nil {
					progress(n, len(symbols))
				}
			}
		}()
	}

	var sendErr error
	for _, s := range symbols {
		select {
		case jobs <- s:
		case <-ctx.Done():
			sendErr = ctx.Err()
		}
		if sendErr != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
	return sendErr
}

func (f *Fetcher) withRetry(ctx context.Context, symbol string, fn func(context.Context, string) error) error {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}
		if lastErr = fn(ctx, symbol); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (f *Fetcher) getJSON(ctx context.Context, baseURL, symbol string, dest any) error {
	return f.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         baseURL,
		QueryParams: map[string][]string{"symbol": {symbol}},
	}, dest)
}
