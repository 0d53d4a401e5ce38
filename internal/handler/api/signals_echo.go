package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/labstack/echo/v4"

	"SmartFlow/internal/domain/models"
	domrepo "SmartFlow/internal/domain/repository"
	apimetrics "SmartFlow/internal/service/metrics"
	"SmartFlow/internal/usecase"
	pkgcache "SmartFlow/pkg/cache"
	xhttp "SmartFlow/pkg/http"
	xlogger "SmartFlow/pkg/logger"
	"SmartFlow/pkg/util"
)

const listCacheTTL = 30 * time.Second

// SignalsEchoHandler exposes the signal API over Echo.
type SignalsEchoHandler struct {
	logger     *xlogger.Logger
	store      domrepo.SignalStore
	disclosure domrepo.DisclosureStore
	scanner    *usecase.Scanner
	backtester *usecase.Backtester
	cache      pkgcache.Service
}

func NewSignalsEchoHandler(logger *xlogger.Logger, store domrepo.SignalStore, disclosure domrepo.DisclosureStore, scanner *usecase.Scanner, backtester *usecase.Backtester) *SignalsEchoHandler {
	apimetrics.Register()
	return &SignalsEchoHandler{
		logger:     logger,
		store:      store,
		disclosure: disclosure,
		scanner:    scanner,
		backtester: backtester,
	}
}

// WithCache enables response caching for signal listings.
func (h *SignalsEchoHandler) WithCache(c pkgcache.Service) *SignalsEchoHandler {
	h.cache = c
	return h
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/signals", h.ListSignals)
	g.POST("/scan", h.Scan)
	g.POST("/backtest", h.Backtest)
	g.GET("/summary", h.Summary)
	g.GET("/health", h.Health)
}

func (h *SignalsEchoHandler) ListSignals(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("signals").Observe(time.Since(start).Seconds()) }()

	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ticker := util.NormalizeTicker(req.Ticker)

	key := pkgcache.GenerateKeyWithParams("signals:list", ticker, req.MinConfidence, req.Limit)
	if cached, ok := h.cachedList(c.Request().Context(), key); ok {
		c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
		return xhttp.ListResponse(c, cached, int64(len(cached)))
	}

	signals, err := h.store.List(c.Request().Context(), ticker, req.MinConfidence, req.Limit)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("signals").Inc()
		h.logger.Error("list signals", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.cacheList(c.Request().Context(), key, signals)
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

func (h *SignalsEchoHandler) Scan(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("scan").Observe(time.Since(start).Seconds()) }()

	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if len(req.Tickers) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("tickers are required"))
	}

	ranked, err := h.scanner.Scan(c.Request().Context(), req.Tickers, req.LookbackDays, req.TopN)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("scan").Inc()
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// Fresh signals invalidate cached listings.
	if h.cache != nil && len(ranked) > 0 {
		_ = h.cache.DeleteByPattern(c.Request().Context(), pkgcache.BuildPattern("signals:list"))
	}
	return xhttp.ListResponse(c, ranked, int64(len(ranked)))
}

// BacktestResponse bundles per-signal results with the aggregate view.
type BacktestResponse struct {
	Results []*models.BacktestResult `json:"results"`
	Summary *models.BacktestSummary  `json:"summary"`
}

func (h *SignalsEchoHandler) Backtest(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("backtest").Observe(time.Since(start).Seconds()) }()

	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.loadBacktestSignals(c.Request().Context(), req)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("backtest").Inc()
		h.logger.Error("load backtest signals", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if len(signals) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no stored signals match"))
	}

	results := h.backtester.BacktestBatch(c.Request().Context(), signals)
	summary := h.backtester.Summarize(results)

	return xhttp.SuccessResponse(c, &BacktestResponse{Results: results, Summary: summary})
}

// SignalsSummary aggregates the most recent stored signals into the
// dashboard-style overview.
type SignalsSummary struct {
	TotalSignals  int     `json:"total_signals"`
	BuySignals    int     `json:"buy_signals"`
	SellSignals   int     `json:"sell_signals"`
	StrongSignals int     `json:"strong_signals"`
	AvgConfidence float64 `json:"avg_confidence"`
	TopTicker     string  `json:"top_ticker,omitempty"`
}

const summaryWindow = 500

func (h *SignalsEchoHandler) Summary(c echo.Context) error {
	start := time.Now()
	defer func() { apimetrics.APILatency.WithLabelValues("summary").Observe(time.Since(start).Seconds()) }()

	signals, err := h.store.List(c.Request().Context(), "", 0, summaryWindow)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("summary").Inc()
		h.logger.Error("summary query", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, buildSummary(signals))
}

func buildSummary(signals []*models.TradingSignal) *SignalsSummary {
	s := &SignalsSummary{TotalSignals: len(signals)}
	if len(signals) == 0 {
		return s
	}

	var confSum, topConf float64
	for _, sig := range signals {
		switch sig.Direction {
		case models.DirectionBuy:
			s.BuySignals++
		case models.DirectionSell:
			s.SellSignals++
		}
		if sig.Strength == models.StrengthStrong {
			s.StrongSignals++
		}
		confSum += sig.Confidence
		if sig.Confidence > topConf {
			topConf = sig.Confidence
			s.TopTicker = sig.Ticker
		}
	}
	s.AvgConfidence = confSum / float64(len(signals))
	return s
}

func (h *SignalsEchoHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()
	status := map[string]string{"signals": "ok", "disclosures": "ok"}

	if err := h.store.Health(ctx); err != nil {
		status["signals"] = err.Error()
	}
	if h.disclosure != nil {
		if err := h.disclosure.Health(ctx); err != nil {
			status["disclosures"] = err.Error()
		}
	}
	return xhttp.SuccessResponse(c, status)
}

func (h *SignalsEchoHandler) loadBacktestSignals(ctx context.Context, req *models.BacktestRequest) ([]*models.TradingSignal, error) {
	var out []*models.TradingSignal
	if len(req.Tickers) == 0 {
		signals, err := h.store.List(ctx, "", req.MinConfidence, req.Limit)
		if err != nil {
			return nil, err
		}
		out = signals
	} else {
		for _, t := range req.Tickers {
			signals, err := h.store.List(ctx, util.NormalizeTicker(t), req.MinConfidence, req.Limit)
			if err != nil {
				return nil, err
			}
			out = append(out, signals...)
			if len(out) >= req.Limit {
				out = out[:req.Limit]
				break
			}
		}
	}

	if since, ok := util.ParseTime(req.Since); ok {
		kept := out[:0]
		for _, s := range out {
			if !s.GeneratedAt.Before(since) {
				kept = append(kept, s)
			}
		}
		out = kept
	}
	return out, nil
}

func (h *SignalsEchoHandler) cachedList(ctx context.Context, key string) ([]*models.TradingSignal, bool) {
	if h.cache == nil {
		return nil, false
	}
	var raw string
	if err := h.cache.Get(ctx, key, &raw); err != nil {
		return nil, false
	}
	var signals []*models.TradingSignal
	if err := json.Unmarshal([]byte(raw), &signals); err != nil {
		return nil, false
	}
	return signals, true
}

func (h *SignalsEchoHandler) cacheList(ctx context.Context, key string, signals []*models.TradingSignal) {
	if h.cache == nil || len(signals) == 0 {
		return
	}
	b, err := json.Marshal(signals)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, string(b), listCacheTTL); err != nil {
		h.logger.Debug("cache set failed", xlogger.Error(err))
	}
}
