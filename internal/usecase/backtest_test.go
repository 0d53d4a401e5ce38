package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/logger"
)

type fakePriceProvider struct {
	mu     sync.Mutex
	calls  int
	series map[string][]models.PricePoint
	err    error
}

func (f *fakePriceProvider) DailyCloses(_ context.Context, ticker string, _, _ time.Time) ([]models.PricePoint, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.series[ticker], nil
}

func (f *fakePriceProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var backtestStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func dailySeries(start time.Time, closes []float64) []models.PricePoint {
	points := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return points
}

func flatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

func testBacktester(series map[string][]models.PricePoint) (*Backtester, *fakePriceProvider) {
	provider := &fakePriceProvider{series: series}
	cfg := config.BacktestConfig{}.WithDefaults()
	return NewBacktester(provider, &cfg, logger.Nop()), provider
}

func testSignal(ticker string, direction models.SignalDirection, at time.Time) *models.TradingSignal {
	return &models.TradingSignal{
		Ticker:      ticker,
		Direction:   direction,
		Confidence:  0.8,
		GeneratedAt: at,
	}
}

func TestBacktestSignalBuyReturns(t *testing.T) {
	closes := flatCloses(31, 100)
	closes[1] = 102
	closes[7] = 95
	closes[30] = 115
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"AAPL": dailySeries(backtestStart, closes),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("AAPL", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected a result")
	}
	if result.PriceAtSignal != 100 {
		t.Fatalf("expected anchor price 100, got %v", result.PriceAtSignal)
	}
	if result.Return1d == nil || !almostEqual(*result.Return1d, 0.02) {
		t.Fatalf("expected 1d return 0.02, got %v", result.Return1d)
	}
	if result.Return7d == nil || !almostEqual(*result.Return7d, -0.05) {
		t.Fatalf("expected 7d return -0.05, got %v", result.Return7d)
	}
	if result.Return30d == nil || !almostEqual(*result.Return30d, 0.15) {
		t.Fatalf("expected 30d return 0.15, got %v", result.Return30d)
	}
	if result.PriceAfter30d == nil || *result.PriceAfter30d != 115 {
		t.Fatalf("expected 30d price 115, got %v", result.PriceAfter30d)
	}
	if result.IsWinner == nil || !*result.IsWinner {
		t.Fatalf("expected winner, got %v", result.IsWinner)
	}
}

func TestBacktestSignalSellNegatesReturns(t *testing.T) {
	closes := flatCloses(8, 100)
	closes[7] = 90
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"TSLA": dailySeries(backtestStart, closes),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("TSLA", models.DirectionSell, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Return7d == nil || !almostEqual(*result.Return7d, 0.10) {
		t.Fatalf("expected sell 7d return +0.10 on a 10%% decline, got %v", result.Return7d)
	}
	if result.Return30d != nil {
		t.Fatalf("expected no 30d return on an 8-bar series, got %v", *result.Return30d)
	}
	if result.IsWinner != nil {
		t.Fatalf("expected winner undetermined without 30d return, got %v", *result.IsWinner)
	}
}

func TestBacktestSignalFlatReturnIsNotWin(t *testing.T) {
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"KO": dailySeries(backtestStart, flatCloses(31, 100)),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("KO", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Return30d == nil || *result.Return30d != 0 {
		t.Fatalf("expected 30d return 0, got %v", result.Return30d)
	}
	if result.IsWinner == nil || *result.IsWinner {
		t.Fatal("expected a zero 30d return to count as a loss")
	}
}

func TestBacktestSignalMaxGainDrawdown(t *testing.T) {
	closes := flatCloses(31, 100)
	closes[5] = 120
	closes[10] = 80
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"NVDA": dailySeries(backtestStart, closes),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("NVDA", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MaxGain == nil || !almostEqual(*result.MaxGain, 0.20) {
		t.Fatalf("expected max gain 0.20, got %v", result.MaxGain)
	}
	if result.MaxDrawdown == nil || !almostEqual(*result.MaxDrawdown, -0.20) {
		t.Fatalf("expected max drawdown -0.20, got %v", result.MaxDrawdown)
	}
}

func TestBacktestSignalShortWindowSkipsExcursions(t *testing.T) {
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"IPO": dailySeries(backtestStart, flatCloses(20, 50)),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("IPO", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MaxGain != nil || result.MaxDrawdown != nil {
		t.Fatal("expected no excursion stats on an incomplete window")
	}
}

func TestBacktestSignalAnchorAfterGap(t *testing.T) {
	// Series starts two days after the signal date; the first bar anchors.
	seriesStart := backtestStart.AddDate(0, 0, 2)
	closes := flatCloses(8, 200)
	closes[1] = 210
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"MSFT": dailySeries(seriesStart, closes),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("MSFT", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PriceAtSignal != 200 {
		t.Fatalf("expected anchor at first available bar, got price %v", result.PriceAtSignal)
	}
	if result.Return1d == nil || !almostEqual(*result.Return1d, 0.05) {
		t.Fatalf("expected 1d return from the anchor bar, got %v", result.Return1d)
	}
}

func TestBacktestSignalNoUsableData(t *testing.T) {
	// All bars predate the signal.
	staleStart := backtestStart.AddDate(0, 0, -40)
	bt, _ := testBacktester(map[string][]models.PricePoint{
		"OLD": dailySeries(staleStart, flatCloses(5, 100)),
	})

	result, err := bt.BacktestSignal(context.Background(), testSignal("OLD", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatal("expected no result when no bar falls on/after the signal date")
	}

	result, err = bt.BacktestSignal(context.Background(), testSignal("EMPTY", models.DirectionBuy, backtestStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil {
		t.Fatal("expected no result for an empty series")
	}
}

func TestBacktestBatchSkipsFailures(t *testing.T) {
	closes := flatCloses(31, 100)
	closes[30] = 110
	provider := &fakePriceProvider{series: map[string][]models.PricePoint{
		"GOOD": dailySeries(backtestStart, closes),
	}}
	cfg := config.BacktestConfig{}.WithDefaults()
	bt := NewBacktester(provider, &cfg, logger.Nop())

	results := bt.BacktestBatch(context.Background(), []*models.TradingSignal{
		testSignal("GOOD", models.DirectionBuy, backtestStart),
		testSignal("MISSING", models.DirectionBuy, backtestStart),
	})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Ticker != "GOOD" {
		t.Fatalf("unexpected ticker %s", results[0].Ticker)
	}
}

func TestBacktestBatchFetchesSeriesOnce(t *testing.T) {
	bt, provider := testBacktester(map[string][]models.PricePoint{
		"AMZN": dailySeries(backtestStart, flatCloses(31, 100)),
	})

	signals := []*models.TradingSignal{
		testSignal("AMZN", models.DirectionBuy, backtestStart),
		testSignal("AMZN", models.DirectionSell, backtestStart),
		testSignal("AMZN", models.DirectionBuy, backtestStart),
	}
	results := bt.BacktestBatch(context.Background(), signals)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if provider.callCount() != 1 {
		t.Fatalf("expected a single price fetch for one ticker and range, got %d", provider.callCount())
	}
}

func TestSummarize(t *testing.T) {
	bt, _ := testBacktester(nil)

	fptr := func(v float64) *float64 { return &v }
	bptr := func(v bool) *bool { return &v }
	results := []*models.BacktestResult{
		{Ticker: "A", Return30d: fptr(0.10), IsWinner: bptr(true)},
		{Ticker: "B", Return30d: fptr(-0.05), IsWinner: bptr(false)},
		{Ticker: "C", Return30d: fptr(0.20), IsWinner: bptr(true)},
		{Ticker: "D"}, // no price data past the signal
	}

	summary := bt.Summarize(results)
	if summary.TotalSignals != 4 {
		t.Fatalf("expected 4 total signals, got %d", summary.TotalSignals)
	}
	if summary.Winners != 2 || summary.Losers != 1 {
		t.Fatalf("expected 2 winners / 1 loser, got %d / %d", summary.Winners, summary.Losers)
	}
	if !almostEqual(summary.WinRate, 2.0/3.0) {
		t.Fatalf("expected win rate 2/3, got %v", summary.WinRate)
	}
	if !almostEqual(summary.AvgReturn30d, 0.25/3.0) {
		t.Fatalf("expected avg 30d return 0.0833, got %v", summary.AvgReturn30d)
	}
	if !almostEqual(summary.BestReturn30d, 0.20) || !almostEqual(summary.WorstReturn30d, -0.05) {
		t.Fatalf("unexpected best/worst: %v / %v", summary.BestReturn30d, summary.WorstReturn30d)
	}
	if !almostEqual(summary.AvgWinnerReturn, 0.15) {
		t.Fatalf("expected avg winner return 0.15, got %v", summary.AvgWinnerReturn)
	}
	if !almostEqual(summary.AvgLoserReturn, -0.05) {
		t.Fatalf("expected avg loser return -0.05, got %v", summary.AvgLoserReturn)
	}
	if summary.ProfitFactor == nil || !almostEqual(*summary.ProfitFactor, 6.0) {
		t.Fatalf("expected profit factor 6.0, got %v", summary.ProfitFactor)
	}
	if summary.SharpeRatio == nil {
		t.Fatal("expected a Sharpe ratio with multiple 30d returns")
	}
}

func TestSummarizeNoValidResults(t *testing.T) {
	bt, _ := testBacktester(nil)

	summary := bt.Summarize([]*models.BacktestResult{{Ticker: "A"}, {Ticker: "B"}})
	if summary.TotalSignals != 2 {
		t.Fatalf("expected 2 total signals, got %d", summary.TotalSignals)
	}
	if summary.Winners != 0 || summary.WinRate != 0 {
		t.Fatal("expected zeroed stats without computable returns")
	}
	if summary.SharpeRatio != nil || summary.ProfitFactor != nil {
		t.Fatal("expected nil ratios without computable returns")
	}

	empty := bt.Summarize(nil)
	if empty.TotalSignals != 0 {
		t.Fatalf("expected empty summary, got %d total", empty.TotalSignals)
	}
}

func TestSummarizeNoLossesOmitsProfitFactor(t *testing.T) {
	bt, _ := testBacktester(nil)

	fptr := func(v float64) *float64 { return &v }
	bptr := func(v bool) *bool { return &v }
	summary := bt.Summarize([]*models.BacktestResult{
		{Ticker: "A", Return30d: fptr(0.10), IsWinner: bptr(true)},
		{Ticker: "B", Return30d: fptr(0.05), IsWinner: bptr(true)},
	})
	if summary.ProfitFactor != nil {
		t.Fatalf("expected nil profit factor without losses, got %v", *summary.ProfitFactor)
	}
	if summary.WinRate != 1 {
		t.Fatalf("expected win rate 1, got %v", summary.WinRate)
	}
}

func TestBacktestSignalProviderError(t *testing.T) {
	provider := &fakePriceProvider{err: errors.New("upstream down")}
	cfg := config.BacktestConfig{}.WithDefaults()
	bt := NewBacktester(provider, &cfg, logger.Nop())

	_, err := bt.BacktestSignal(context.Background(), testSignal("X", models.DirectionBuy, backtestStart))
	if err == nil {
		t.Fatal("expected error when price provider fails")
	}
}
