package usecase

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
	"SmartFlow/internal/domain/service"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/logger"
	"SmartFlow/pkg/util"
)

// Backtester evaluates historical signals against daily price series.
// Price series are cached per (ticker, range) for the lifetime of one
// Backtester instance; concurrent requests for the same key share a
// single fetch.
type Backtester struct {
	prices  service.PriceProvider
	cfg     *config.BacktestConfig
	logger  *logger.Logger
	metrics repository.Metrics

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string][]models.PricePoint
}

func NewBacktester(prices service.PriceProvider, cfg *config.BacktestConfig, lgr *logger.Logger) *Backtester {
	return &Backtester{
		prices: prices,
		cfg:    cfg,
		logger: lgr,
		cache:  make(map[string][]models.PricePoint),
	}
}

// WithMetrics enables per-run outcome counters. Safe to skip.
func (b *Backtester) WithMetrics(m repository.Metrics) *Backtester {
	b.metrics = m
	return b
}

func (b *Backtester) recordRun(outcome string) {
	if b.metrics != nil {
		b.metrics.RecordBacktestRun(outcome)
	}
}

func (b *Backtester) fetchSeries(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	key := fmt.Sprintf("%s|%s|%s", ticker, from.Format("2006-01-02"), to.Format("2006-01-02"))

	b.mu.RLock()
	series, ok := b.cache[key]
	b.mu.RUnlock()
	if ok {
		return series, nil
	}

	v, err, _ := b.group.Do(key, func() (interface{}, error) {
		fetched, err := b.prices.DailyCloses(ctx, ticker, from, to)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.cache[key] = fetched
		b.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.PricePoint), nil
}

// BacktestSignal evaluates one signal. A nil result with nil error
// means the signal cannot be backtested (no price data, or no trading
// day on/after the signal date).
func (b *Backtester) BacktestSignal(ctx context.Context, signal *models.TradingSignal) (*models.BacktestResult, error) {
	from := signal.GeneratedAt.AddDate(0, 0, -b.cfg.LeadDays)
	to := time.Now()

	series, err := b.fetchSeries(ctx, signal.Ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("price data for %s: %w", signal.Ticker, err)
	}
	if len(series) == 0 {
		return nil, nil
	}

	// Anchor day: first trading day on/after the signal date.
	anchorIdx := -1
	for i, p := range series {
		if util.SameOrAfterDay(p.Date, signal.GeneratedAt) {
			anchorIdx = i
			break
		}
	}
	if anchorIdx < 0 {
		return nil, nil
	}

	priceAtSignal := series[anchorIdx].Close

	result := &models.BacktestResult{
		Ticker:        signal.Ticker,
		SignalDate:    signal.GeneratedAt,
		Direction:     signal.Direction,
		Confidence:    signal.Confidence,
		PriceAtSignal: priceAtSignal,
	}

	for _, days := range b.cfg.Horizons {
		futureIdx := anchorIdx + days
		if futureIdx >= len(series) {
			continue
		}
		futurePrice := series[futureIdx].Close
		rawReturn := (futurePrice - priceAtSignal) / priceAtSignal
		// SELL signals profit from decline.
		if signal.Direction == models.DirectionSell {
			rawReturn = -rawReturn
		}

		switch days {
		case 1:
			result.Return1d = &rawReturn
			result.PriceAfter1d = &futurePrice
		case 7:
			result.Return7d = &rawReturn
			result.PriceAfter7d = &futurePrice
		case 30:
			result.Return30d = &rawReturn
			result.PriceAfter30d = &futurePrice
		}
	}

	// Winner requires a strictly positive 30d return.
	if result.Return30d != nil {
		isWinner := *result.Return30d > 0
		result.IsWinner = &isWinner
	}

	// Max gain/drawdown only over a complete window.
	if anchorIdx+b.cfg.WindowDays <= len(series) {
		maxGain := math.Inf(-1)
		maxDrawdown := math.Inf(1)
		for i := anchorIdx; i < anchorIdx+b.cfg.WindowDays; i++ {
			r := (series[i].Close - priceAtSignal) / priceAtSignal
			if signal.Direction == models.DirectionSell {
				r = -r
			}
			if r > maxGain {
				maxGain = r
			}
			if r < maxDrawdown {
				maxDrawdown = r
			}
		}
		result.MaxGain = &maxGain
		result.MaxDrawdown = &maxDrawdown
	}

	return result, nil
}

// BacktestBatch evaluates signals with bounded fan-out. Signals whose
// price data is unavailable are logged and omitted; the batch always
// completes. Result order follows input order.
func (b *Backtester) BacktestBatch(ctx context.Context, signals []*models.TradingSignal) []*models.BacktestResult {
	if len(signals) == 0 {
		return nil
	}

	workers := b.cfg.Concurrency
	if workers <= 0 {
		workers = 1
	}

	slots := make([]*models.BacktestResult, len(signals))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, signal := range signals {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, s *models.TradingSignal) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := b.BacktestSignal(ctx, s)
			if err != nil {
				b.logger.Warn("backtest skipped",
					logger.String("ticker", s.Ticker),
					logger.Error(err))
				b.recordRun("failed")
				return
			}
			if result == nil {
				b.recordRun("no_data")
				return
			}
			switch {
			case result.IsWinner == nil:
				b.recordRun("open")
			case *result.IsWinner:
				b.recordRun("win")
			default:
				b.recordRun("loss")
			}
			slots[idx] = result
		}(i, signal)
	}
	wg.Wait()

	results := make([]*models.BacktestResult, 0, len(signals))
	for _, r := range slots {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}

// Summarize aggregates statistics over a result set. Only results with
// a computable 30d return enter the rate and mean calculations; with
// none present the summary is all zeroes with nil ratios.
func (b *Backtester) Summarize(results []*models.BacktestResult) *models.BacktestSummary {
	summary := &models.BacktestSummary{TotalSignals: len(results)}

	var valid []*models.BacktestResult
	for _, r := range results {
		if r.Return30d != nil {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return summary
	}

	var returns1d, returns7d, returns30d []float64
	var winnerReturns, loserReturns []float64
	for _, r := range valid {
		if r.Return1d != nil {
			returns1d = append(returns1d, *r.Return1d)
		}
		if r.Return7d != nil {
			returns7d = append(returns7d, *r.Return7d)
		}
		returns30d = append(returns30d, *r.Return30d)
		if r.IsWinner != nil && *r.IsWinner {
			winnerReturns = append(winnerReturns, *r.Return30d)
		} else {
			loserReturns = append(loserReturns, *r.Return30d)
		}
	}

	summary.Winners = len(winnerReturns)
	summary.Losers = len(loserReturns)
	summary.WinRate = float64(summary.Winners) / float64(len(valid))
	summary.AvgReturn1d = mean(returns1d)
	summary.AvgReturn7d = mean(returns7d)
	summary.AvgReturn30d = mean(returns30d)
	summary.BestReturn30d = maxOf(returns30d)
	summary.WorstReturn30d = minOf(returns30d)
	summary.AvgWinnerReturn = mean(winnerReturns)
	summary.AvgLoserReturn = mean(loserReturns)

	// Annualized assuming ~12 independent 30-day periods per year.
	if len(returns30d) > 1 {
		m := mean(returns30d)
		sd := stddev(returns30d, m)
		if sd > 0 {
			sharpe := m / sd * math.Sqrt(12)
			summary.SharpeRatio = &sharpe
		}
	}

	var totalGains, totalLosses float64
	for _, r := range returns30d {
		if r > 0 {
			totalGains += r
		} else if r < 0 {
			totalLosses += -r
		}
	}
	if totalLosses > 0 {
		pf := totalGains / totalLosses
		summary.ProfitFactor = &pf
	}

	return summary
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the population standard deviation.
func stddev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	max := xs[0]
	for _, x := range xs[1:] {
		if x > max {
			max = x
		}
	}
	return max
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	min := xs[0]
	for _, x := range xs[1:] {
		if x < min {
			min = x
		}
	}
	return min
}
