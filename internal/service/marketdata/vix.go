package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"VolPosture/internal/service/cache"
	"VolPosture/pkg/config"
	pkghttp "VolPosture/pkg/http"
	"VolPosture/pkg/logger"
)

const vixCacheKey = "marketdata:vix"

// Sanity band for a VIX quote. Values outside it are treated as bad
// provider data, not as market state.
const (
	vixMin = 5.0
	vixMax = 100.0
)

// VIXService quotes the VIX with a primary and a fallback provider,
// caching the level so a batch of analyses shares one quote.
type VIXService struct {
	cfg    config.MarketDataConfig
	client *pkghttp.Client
	cache  cache.BytesCache
	log    *logger.Logger
}

func NewVIXService(cfg config.MarketDataConfig, c cache.BytesCache, log *logger.Logger) *VIXService {
	return &VIXService{
		cfg:    cfg,
		client: pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		cache:  c,
		log:    log,
	}
}

// GetVIX returns the cached quote when fresh, otherwise Alpha Vantage
// first and the Yahoo chart endpoint as fallback.
func (s *VIXService) GetVIX(ctx context.Context) (float64, error) {
	if b, ok, _ := s.cache.GetBytes(vixCacheKey); ok {
		if v, err := strconv.ParseFloat(string(b), 64); err == nil {
			return v, nil
		}
	}

	v, primaryErr := s.fromAlphaVantage(ctx)
	if primaryErr != nil {
		s.log.Debug("alpha vantage vix failed, trying yahoo", logger.Error(primaryErr))
		var fallbackErr error
		v, fallbackErr = s.fromYahoo(ctx)
		if fallbackErr != nil {
			return 0, fmt.Errorf("vix: primary: %v; fallback: %w", primaryErr, fallbackErr)
		}
	}

	ttl := s.cfg.VIXCacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	_ = s.cache.SetBytes(vixCacheKey, []byte(strconv.FormatFloat(v, 'f', -1, 64)), ttl)
	return v, nil
}

func (s *VIXService) fromAlphaVantage(ctx context.Context) (float64, error) {
	if s.cfg.AlphaVantageKey == "" {
		return 0, fmt.Errorf("no api key configured")
	}
	var resp struct {
		GlobalQuote struct {
			Price string `json:"05. price"`
		} `json:"Global Quote"`
	}
	err := s.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    s.cfg.AlphaVantageURL,
		QueryParams: map[string][]string{
			"function": {"GLOBAL_QUOTE"},
			"symbol":   {"VIX"},
			"apikey":   {s.cfg.AlphaVantageKey},
		},
	}, &resp)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("bad quote %q", resp.GlobalQuote.Price)
	}
	return validate(v)
}

func (s *VIXService) fromYahoo(ctx context.Context) (float64, error) {
	var resp struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	err := s.client.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodGet,
		URL:    s.cfg.YahooChartURL + "/%5EVIX",
		QueryParams: map[string][]string{
			"range":    {"1d"},
			"interval": {"1d"},
		},
	}, &resp)
	if err != nil {
		return 0, err
	}
	if len(resp.Chart.Result) == 0 {
		return 0, fmt.Errorf("empty chart result")
	}
	return validate(resp.Chart.Result[0].Meta.RegularMarketPrice)
}

func validate(v float64) (float64, error) {
	if v < vixMin || v > vixMax {
		return 0, fmt.Errorf("vix %.2f outside [%.0f, %.0f]", v, vixMin, vixMax)
	}
	return v, nil
}
