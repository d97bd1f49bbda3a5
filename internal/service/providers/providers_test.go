package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"VolPosture/pkg/config"
	"VolPosture/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testCfg(ivURL, oiURL string) config.ProvidersConfig {
	return config.ProvidersConfig{
		IVTermsURL: ivURL,
		DeltaOIURL: oiURL,
		Timeout:    2 * time.Second,
		Workers:    3,
		RatePerSec: 1000,
		Burst:      1000,
		RetryMax:   1,
		RetryDelay: time.Millisecond,
	}
}

func TestFetchIVTerms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sym := r.URL.Query().Get("symbol")
		fmt.Fprintf(w, `{"iv7": 30.0, "iv30": 26.0, "iv60": 25.0, "iv90": 24.5, "symbol": %q}`, sym)
	}))
	defer srv.Close()

	f := NewFetcher(testCfg(srv.URL, ""), testLogger(t))
	var mu sync.Mutex
	var progress []int
	out, err := f.FetchIVTerms(context.Background(), []string{"NVDA", "AMD", "TSLA"}, func(done, total int) {
		mu.Lock()
		progress = append(progress, done)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("results = %d", len(out))
	}
	if *out["NVDA"].IV7 != 30.0 || *out["NVDA"].IV90 != 24.5 {
		t.Fatalf("terms = %+v", out["NVDA"])
	}
	if len(progress) != 3 || progress[len(progress)-1] != 3 {
		t.Fatalf("progress = %v", progress)
	}
}

func TestFetchDeltaOISkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "BAD" {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"delta_oi_1d": 3.5}`)
	}))
	defer srv.Close()

	f := NewFetcher(testCfg("", srv.URL), testLogger(t))
	out, err := f.FetchDeltaOI(context.Background(), []string{"NVDA", "BAD"}, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 1 || out["NVDA"] != 3.5 {
		t.Fatalf("results = %v", out)
	}
}

func TestFetchRetries(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		first := attempts == 1
		mu.Unlock()
		if first {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"delta_oi_1d": 1.0}`)
	}))
	defer srv.Close()

	f := NewFetcher(testCfg("", srv.URL), testLogger(t))
	out, err := f.FetchDeltaOI(context.Background(), []string{"NVDA"}, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if out["NVDA"] != 1.0 {
		t.Fatalf("results = %v", out)
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d", attempts)
	}
}

func TestFetchUnconfigured(t *testing.T) {
	f := NewFetcher(config.ProvidersConfig{}, testLogger(t))
	if _, err := f.FetchIVTerms(context.Background(), []string{"A"}, nil); err == nil {
		t.Fatalf("unconfigured iv terms must error")
	}
	if _, err := f.FetchDeltaOI(context.Background(), []string{"A"}, nil); err == nil {
		t.Fatalf("unconfigured delta oi must error")
	}
}
