package rollingcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"VolPosture/internal/domain/models"
	"VolPosture/pkg/logger"
	"VolPosture/pkg/util"
)

const fileVersion = 1

// GlobalKey is where symbol-independent EMA state (alpha) lives.
const GlobalKey = "_global"

type symbolSeries struct {
	RelVol     []float64 `json:"RelVolTo90D"`
	OIRank     []float64 `json:"OI_PctRank"`
	IV30       []float64 `json:"IV30"`
	HV20       []float64 `json:"HV20"`
	Timestamps []string  `json:"timestamps"`
}

type paramState struct {
	Beta   *float64 `json:"beta_t,omitempty"`
	Lambda *float64 `json:"lambda_t,omitempty"`
	Alpha  *float64 `json:"alpha_t,omitempty"`
}

type vixSeries struct {
	Values     []float64 `json:"values"`
	Timestamps []string  `json:"timestamps"`
}

type fileData struct {
	Symbols map[string]*symbolSeries `json:"symbols"`
	VIX     vixSeries                `json:"vix"`
	Params  map[string]*paramState   `json:"params"`
	Meta    struct {
		LastUpdate string `json:"last_update"`
		Version    int    `json:"version"`
	} `json:"meta"`
}

// Cache is the rolling per-symbol history store backing the adaptive
// parameter engine. It is constructor-injected and safe for concurrent
// use; every successful update persists the whole file.
type Cache struct {
	mu           sync.Mutex
	path         string
	symbolWindow int
	vixWindow    int
	log          *logger.Logger
	data         fileData
}

// New loads the cache file at path, starting empty when it is absent.
func New(path string, symbolWindow, vixWindow int, log *logger.Logger) (*Cache, error) {
	c := &Cache{
		path:         path,
		symbolWindow: symbolWindow,
		vixWindow:    vixWindow,
		log:          log,
	}
	c.data.Symbols = make(map[string]*symbolSeries)
	c.data.Params = make(map[string]*paramState)
	c.data.Meta.Version = fileVersion

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rolling cache: %w", err)
	}
	if err := json.Unmarshal(b, &c.data); err != nil {
		// A corrupt cache only costs adaptation warm-up; start fresh.
		log.Warn("rolling cache unreadable, starting empty", logger.String("path", path), logger.Error(err))
		c.data = fileData{}
		c.data.Symbols = make(map[string]*symbolSeries)
		c.data.Params = make(map[string]*paramState)
		c.data.Meta.Version = fileVersion
		return c, nil
	}
	if c.data.Symbols == nil {
		c.data.Symbols = make(map[string]*symbolSeries)
	}
	if c.data.Params == nil {
		c.data.Params = make(map[string]*paramState)
	}
	return c, nil
}

// SymbolHistory returns copies of the rolling series for a symbol.
func (c *Cache) SymbolHistory(symbol string) (relVol, oiRank, iv30, hv20 []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.data.Symbols[symbol]
	if !ok {
		return nil, nil, nil, nil
	}
	return copyFloats(s.RelVol), copyFloats(s.OIRank), copyFloats(s.IV30), copyFloats(s.HV20)
}

// VIXHistory returns a copy of the rolling VIX series.
func (c *Cache) VIXHistory() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyFloats(c.data.VIX.Values)
}

// Params returns the EMA state for a symbol: beta and lambda are
// per-symbol, alpha is global. Nil pointers mean no state yet.
func (c *Cache) Params(symbol string) (beta, lambda, alpha *float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.data.Params[symbol]; ok {
		beta = copyFloat(p.Beta)
		lambda = copyFloat(p.Lambda)
	}
	if g, ok := c.data.Params[GlobalKey]; ok {
		alpha = copyFloat(g.Alpha)
	}
	return beta, lambda, alpha
}

// Update appends one observation set and persists. Per-series values
// are only appended when present in the record, so a patchy record
// cannot poison the z-score statistics with placeholder zeros.
func (c *Cache) Update(symbol string, rec *models.Record, vix float64, p models.DynamicParamsSnapshot, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.data.Symbols[symbol]
	if !ok {
		s = &symbolSeries{}
		c.data.Symbols[symbol] = s
	}
	if rec.RelVolTo90D != nil {
		s.RelVol = trim(append(s.RelVol, *rec.RelVolTo90D), c.symbolWindow)
	}
	if rec.OIPctRank != nil {
		s.OIRank = trim(append(s.OIRank, *rec.OIPctRank), c.symbolWindow)
	}
	if rec.IV30 != nil {
		s.IV30 = trim(append(s.IV30, *rec.IV30), c.symbolWindow)
	}
	if rec.HV20 != nil {
		s.HV20 = trim(append(s.HV20, *rec.HV20), c.symbolWindow)
	}
	s.Timestamps = trimStrings(append(s.Timestamps, now.UTC().Format(time.RFC3339)), c.symbolWindow)

	c.updateVIXLocked(vix, now)

	ps, ok := c.data.Params[symbol]
	if !ok {
		ps = &paramState{}
		c.data.Params[symbol] = ps
	}
	ps.Beta = models.Float(p.BetaT)
	ps.Lambda = models.Float(p.LambdaT)
	g, ok := c.data.Params[GlobalKey]
	if !ok {
		g = &paramState{}
		c.data.Params[GlobalKey] = g
	}
	g.Alpha = models.Float(p.AlphaT)

	c.data.Meta.LastUpdate = now.UTC().Format(time.RFC3339)
	c.data.Meta.Version = fileVersion
	return c.saveLocked()
}

// updateVIXLocked appends a VIX observation, overwriting in place when
// the last sample is from the same calendar day.
func (c *Cache) updateVIXLocked(vix float64, now time.Time) {
	n := len(c.data.VIX.Timestamps)
	if n > 0 {
		if last, ok := util.ParseTime(c.data.VIX.Timestamps[n-1]); ok && util.SameDay(last, now.UTC()) {
			c.data.VIX.Values[n-1] = vix
			c.data.VIX.Timestamps[n-1] = now.UTC().Format(time.RFC3339)
			return
		}
	}
	c.data.VIX.Values = trim(append(c.data.VIX.Values, vix), c.vixWindow)
	c.data.VIX.Timestamps = trimStrings(append(c.data.VIX.Timestamps, now.UTC().Format(time.RFC3339)), c.vixWindow)
}

// Cleanup drops symbols whose newest observation is older than maxAge.
// Returns how many symbols were removed.
func (c *Cache) Cleanup(maxAge time.Duration, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for sym, s := range c.data.Symbols {
		if len(s.Timestamps) == 0 {
			delete(c.data.Symbols, sym)
			delete(c.data.Params, sym)
			removed++
			continue
		}
		last, ok := util.ParseTime(s.Timestamps[len(s.Timestamps)-1])
		if !ok || now.Sub(last) > maxAge {
			delete(c.data.Symbols, sym)
			delete(c.data.Params, sym)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, c.saveLocked()
}

// Symbols returns the tracked symbol set.
func (c *Cache) Symbols() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.data.Symbols))
	for sym := range c.data.Symbols {
		out = append(out, sym)
	}
	return out
}

func (c *Cache) saveLocked() error {
	b, err := json.MarshalIndent(&c.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rolling cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write rolling cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace rolling cache: %w", err)
	}
	return nil
}

func trim(s []float64, window int) []float64 {
	if len(s) > window {
		return append([]float64(nil), s[len(s)-window:]...)
	}
	return s
}

func trimStrings(s []string, window int) []string {
	if len(s) > window {
		return append([]string(nil), s[len(s)-window:]...)
	}
	return s
}

func copyFloats(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
