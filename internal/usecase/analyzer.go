package usecase

import (
	"context"
	"fmt"
	"time"

	"VolPosture/internal/domain/models"
	domrepo "VolPosture/internal/domain/repository"
	"VolPosture/internal/rollingcache"
	"VolPosture/internal/services/bridge"
	"VolPosture/internal/services/confidence"
	"VolPosture/internal/services/dynparams"
	"VolPosture/internal/services/features"
	"VolPosture/internal/services/guard"
	"VolPosture/internal/services/normalize"
	"VolPosture/internal/services/posture"
	"VolPosture/internal/services/quality"
	"VolPosture/internal/services/scoring"
	"VolPosture/internal/services/squeeze"
	"VolPosture/internal/services/strategy"
	"VolPosture/internal/services/termstructure"
	"VolPosture/pkg/config"
	"VolPosture/pkg/logger"
	"VolPosture/pkg/util"
)

// Analyzer runs the full scoring pipeline for one record: features,
// adaptive parameters, term structure, scores, grades, permission and
// the bridge snapshot. The rolling cache is written back exactly once
// per successful call, so re-running the same input is idempotent.
type Analyzer struct {
	cfg       *config.ScoringConfig
	cache     *rollingcache.Cache
	repo      domrepo.RecordsRepository
	publisher domrepo.ResultPublisher // nil when publishing is disabled
	vix       domrepo.VIXProvider
	selector  *strategy.Selector
	metrics   domrepo.Metrics
	log       *logger.Logger
	now       func() time.Time
}

func NewAnalyzer(
	cfg *config.ScoringConfig,
	cache *rollingcache.Cache,
	repo domrepo.RecordsRepository,
	publisher domrepo.ResultPublisher,
	vix domrepo.VIXProvider,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *Analyzer {
	return &Analyzer{
		cfg:       cfg,
		cache:     cache,
		repo:      repo,
		publisher: publisher,
		vix:       vix,
		selector:  strategy.NewSelector(cfg),
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Analyze scores one normalized record. persist controls whether the
// result is written to the repository and published downstream.
func (a *Analyzer) Analyze(ctx context.Context, rec *models.Record, opts models.AnalyzeOptions, persist bool) (*models.Result, error) {
	if rec == nil || rec.Symbol == "" {
		return nil, fmt.Errorf("analyze: record symbol required")
	}
	started := a.now()

	th := a.cfg.Effective(rec.Symbol)
	tradeDate := rec.TradeDate
	if tradeDate == "" {
		tradeDate = started.Format("2006-01-02")
	}

	f := features.Build(rec, started)
	dq := quality.Validate(rec, th)
	vix := a.resolveVIX(ctx, opts)
	dyn := a.adaptiveParams(rec, vix, th)

	term := termstructure.Classify(rec, th, a.cfg.TermHorizonBias)
	fear := guard.DetectFearRegime(rec, f, term, vix, th)

	sopts := scoring.Options{SkipOI: opts.SkipOI, IgnoreEarnings: opts.IgnoreEarnings}
	dir := scoring.Direction(rec, f, dyn, th, sopts)
	vol := scoring.Vol(rec, f, term, dyn, fear.Active, th, sopts)
	sq := squeeze.Detect(rec, f, nil, th)

	quadrant := a.selector.MapQuadrant(dir.Final, vol.Final, th)

	liqVal, liqGrade := confidence.Liquidity(rec, f, th)
	history := a.loadHistory(ctx, rec.Symbol, opts, th)
	consistency := posture.Consistency(history, th.ConsistencyDays)
	penalized := confidence.PenalizeExtremeMove(rec, th)

	confVal, confGrade := confidence.Evaluate(rec, f, confidence.Inputs{
		Direction:       dir.Final,
		Vol:             vol.Final,
		Liquidity:       liqGrade,
		FearActive:      fear.Active,
		MissingCount:    f.MissingCount(),
		OIDataAvailable: f.OIDataAvailable,
		ActiveOpenRatio: f.ActiveOpenRatio,
		Consistency:     consistency,
		Penalized:       penalized,
		Quality:         dq.Level,
	}, th)

	post := posture.Assess(dir.Final, history, th)
	trend := posture.Trend(history, th)

	perm := guard.Evaluate(guard.Inputs{
		Quadrant:       quadrant,
		Confidence:     confGrade,
		Quality:        dq.Level,
		Fear:           fear,
		DaysToEarnings: f.DaysToEarnings,
	}, th)
	perm, microTemplate, dteBias := guard.ApplyPostureOverlay(perm, post, quadrant)

	res := &models.Result{
		Symbol:         rec.Symbol,
		TradeDate:      tradeDate,
		AsOf:           started,
		DirectionScore: dir.Final,
		Direction:      dir,
		VolScore:       vol.Final,
		Vol:            vol,
		Quadrant:       quadrant,
		QuadrantLabel:  quadrant.Label(),
		Confidence:     confGrade,
		ConfidenceVal:  confVal,
		Liquidity:      liqGrade,
		LiquidityVal:   liqVal,
		Penalized:      penalized,
		TermStructure:  term,
		Squeeze:        sq,
		DynamicParams:  dyn,
		DataQuality:    dq,
		FearRegime:     fear,
		Posture:        post,
		Trend:          trend,
		Permission:     perm,
		Playbook:       a.selector.Playbook(quadrant, sq, liqGrade, dteBias),
		Structures:     a.selector.Structures(quadrant, perm),
		Features:       f,
	}
	if quadrant.IsNeutral() {
		res.Watchlist = guard.BuildWatchlist(dir.Final, vol.Final, th)
	}
	res.DirectionFactors = directionFactors(rec, dir)
	res.VolFactors = volFactors(vol, fear)
	res.Bridge = bridge.Build(res, rec, a.cfg.IsIndex(rec.Symbol), microTemplate, th, started)

	if persist {
		if err := a.repo.SaveResult(ctx, res); err != nil {
			a.metrics.RecordError("persist")
			return nil, fmt.Errorf("analyze %s: save result: %w", rec.Symbol, err)
		}
		if a.publisher != nil {
			if err := a.publisher.Publish(ctx, res); err != nil {
				// Downstream consumers can replay from storage, so a
				// publish failure does not fail the analysis.
				a.metrics.RecordError("publish")
				a.log.Warn("result publish failed",
					logger.String("symbol", rec.Symbol), logger.Error(err))
			}
		}
	}

	a.metrics.RecordAnalysis(quadrant.Key(), perm.Verdict.String())
	a.metrics.RecordScores(rec.Symbol, dir.Final, vol.Final)
	a.metrics.RecordLatency("analyze", time.Since(started).Seconds())

	if err := a.cache.Update(rec.Symbol, rec, vix, dyn, started); err != nil {
		a.log.Warn("rolling cache update failed",
			logger.String("symbol", rec.Symbol), logger.Error(err))
	}
	return res, nil
}

// AnalyzeBatch normalizes a batch of raw rows together (scale detection
// needs the whole batch) and scores each. Row failures are collected,
// never fatal for the batch.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, raws []models.RawRecord, opts models.AnalyzeOptions, persist bool, progress domrepo.ProgressFunc) (*models.BatchAnalyzeResponse, error) {
	recs := normalize.NormalizeBatch(raws)
	resp := &models.BatchAnalyzeResponse{Total: len(recs)}

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		r, err := a.Analyze(ctx, rec, opts, persist)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s: %v", rec.Symbol, err))
		} else {
			resp.Scored++
			resp.Results = append(resp.Results, r)
		}
		if progress != nil {
			progress(i+1, len(recs))
		}
	}
	return resp, nil
}

// AnalyzeRaw normalizes one raw row on its own and scores it.
func (a *Analyzer) AnalyzeRaw(ctx context.Context, raw models.RawRecord, opts models.AnalyzeOptions, persist bool) (*models.Result, error) {
	return a.Analyze(ctx, normalize.NormalizeOne(raw), opts, persist)
}

func (a *Analyzer) resolveVIX(ctx context.Context, opts models.AnalyzeOptions) float64 {
	if opts.VIXOverride != nil {
		return *opts.VIXOverride
	}
	th := a.cfg.Thresholds
	v, err := a.vix.GetVIX(ctx)
	if err != nil {
		a.metrics.RecordError("vix")
		a.log.Warn("vix fetch failed, using fallback",
			logger.Float64("fallback", th.VIXFallbackValue), logger.Error(err))
		return th.VIXFallbackValue
	}
	return v
}

func (a *Analyzer) adaptiveParams(rec *models.Record, vix float64, th config.Thresholds) models.DynamicParamsSnapshot {
	if !th.EnableDynamicParams {
		return dynparams.Static(th, vix)
	}
	relVol, oiRank, iv30, hv20 := a.cache.SymbolHistory(rec.Symbol)
	prevBeta, prevLambda, _ := a.cache.Params(rec.Symbol)
	_, _, prevAlpha := a.cache.Params(rollingcache.GlobalKey)

	return dynparams.Compute(dynparams.Inputs{
		RelVolHist: relVol,
		OIRankHist: oiRank,
		IV30Hist:   iv30,
		HV20Hist:   hv20,
		VIXHist:    a.cache.VIXHistory(),

		RelVol: models.FloatOr(rec.RelVolTo90D, 1.0),
		OIRank: models.FloatOr(rec.OIPctRank, 50),
		IV30:   models.FloatOr(rec.IV30, vix),
		HV20:   models.FloatOr(rec.HV20, models.FloatOr(rec.IV30, vix)),
		VIX:    vix,

		PrevBeta:   prevBeta,
		PrevLambda: prevLambda,
		PrevAlpha:  prevAlpha,
	}, th)
}

func (a *Analyzer) loadHistory(ctx context.Context, symbol string, opts models.AnalyzeOptions, th config.Thresholds) []float64 {
	if opts.History != nil {
		return opts.History
	}
	days := util.MaxInt(th.ConsistencyDays, th.TrendDays)
	history, err := a.repo.HistoryScores(ctx, symbol, days)
	if err != nil {
		a.log.Warn("history load failed, posture runs without context",
			logger.String("symbol", symbol), logger.Error(err))
		return nil
	}
	return history
}

// directionFactors renders the non-zero direction terms as short
// human-readable strings, largest contributors first in fixed order.
func directionFactors(rec *models.Record, b models.DirectionBreakdown) []string {
	var out []string
	if rec.PriceChgPct != nil {
		out = append(out, fmt.Sprintf("价格变动 %+.2f%% 贡献 %+.2f", *rec.PriceChgPct, b.PriceTerm))
	}
	if b.NotionalTerm != 0 {
		out = append(out, fmt.Sprintf("名义资金偏向贡献 %+.2f", b.NotionalTerm))
	}
	if b.VolBiasTerm != 0 {
		out = append(out, fmt.Sprintf("成交量偏向贡献 %+.2f", b.VolBiasTerm))
	}
	if b.RelVolTerm != 0 {
		out = append(out, fmt.Sprintf("相对成交量贡献 %+.2f", b.RelVolTerm))
	}
	if b.CPRTerm != 0 {
		out = append(out, fmt.Sprintf("C/P 比贡献 %+.2f", b.CPRTerm))
	}
	if b.PutPctTerm != 0 {
		out = append(out, fmt.Sprintf("Put 占比贡献 %+.2f", b.PutPctTerm))
	}
	if b.SpotVolTerm != 0 {
		out = append(out, fmt.Sprintf("现货/波动联动贡献 %+.2f", b.SpotVolTerm))
	}
	if b.StructureAmp != 1 {
		out = append(out, fmt.Sprintf("结构纯度放大 x%.2f", b.StructureAmp))
	}
	if b.AORGate != 1 {
		out = append(out, fmt.Sprintf("主动开仓闸门 x%.2f", b.AORGate))
	}
	return out
}

func volFactors(b models.VolBreakdown, fear models.FearRegime) []string {
	var out []string
	if b.BuyScore != 0 {
		out = append(out, fmt.Sprintf("买波压力 %+.2f", b.BuyScore))
	}
	if b.SellScore != 0 {
		out = append(out, fmt.Sprintf("卖波压力 %-.2f", -b.SellScore))
	}
	if b.EarningsBoost != 0 {
		out = append(out, fmt.Sprintf("财报临近加成 %+.2f", b.EarningsBoost))
	}
	if b.RegimeTerm != 0 {
		out = append(out, fmt.Sprintf("波动率 regime %+.2f", b.RegimeTerm))
	}
	if b.TermAdjustment != 0 {
		out = append(out, fmt.Sprintf("期限结构调整 %+.2f", b.TermAdjustment))
	}
	if b.MultiLegGate != 1 {
		out = append(out, fmt.Sprintf("多腿闸门 x%.2f", b.MultiLegGate))
	}
	if b.DynamicGate != 1 {
		out = append(out, fmt.Sprintf("动态参数闸门 x%.2f", b.DynamicGate))
	}
	if fear.Active {
		out = append(out, "恐慌环境生效")
	}
	return out
}
