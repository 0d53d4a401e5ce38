package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/logger"
)

type fakeCongressionalSource struct {
	stats map[string]*models.CongressionalStats
	err   error
}

func (f *fakeCongressionalSource) Stats(_ context.Context, ticker string, _ int) (*models.CongressionalStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats[ticker], nil
}

type fakeInsiderSource struct {
	stats map[string]*models.InsiderStats
}

func (f *fakeInsiderSource) Stats(_ context.Context, ticker string, _ int) (*models.InsiderStats, error) {
	return f.stats[ticker], nil
}

type fakeSignalStore struct {
	mu     sync.Mutex
	stored []*models.TradingSignal
	err    error
}

func (f *fakeSignalStore) Init(context.Context) error { return nil }
func (f *fakeSignalStore) Store(_ context.Context, s *models.TradingSignal) error {
	return f.StoreBatch(context.Background(), []*models.TradingSignal{s})
}
func (f *fakeSignalStore) StoreBatch(_ context.Context, signals []*models.TradingSignal) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.stored = append(f.stored, signals...)
	f.mu.Unlock()
	return nil
}
func (f *fakeSignalStore) List(context.Context, string, float64, int) ([]*models.TradingSignal, error) {
	return nil, nil
}
func (f *fakeSignalStore) Health(context.Context) error { return nil }
func (f *fakeSignalStore) Close() error                 { return nil }

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, s *models.TradingSignal) error {
	f.mu.Lock()
	f.sent = append(f.sent, s.Ticker)
	f.mu.Unlock()
	return nil
}

type fakeSignalPublisher struct {
	published []*models.TradingSignal
	err       error
}

func (f *fakeSignalPublisher) PublishSignals(_ context.Context, signals []*models.TradingSignal) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, signals...)
	return nil
}

func (f *fakeSignalPublisher) Close() error { return nil }

func scannerConfig() *config.SignalsConfig {
	cfg := config.SignalsConfig{}.WithDefaults()
	return &cfg
}

func clusterBuyStats() *models.InsiderStats {
	return &models.InsiderStats{
		IsClusterBuy:  true,
		InsiderCount:  4,
		TotalValueUSD: 2_000_000,
		ExecutiveBuys: 1,
	}
}

func TestScanTickerFusesSources(t *testing.T) {
	cfg := scannerConfig()
	scanner := NewScanner(cfg, ScanSources{
		Congressional: &fakeCongressionalSource{stats: map[string]*models.CongressionalStats{
			"AAPL": {TradeCount: 5, BuyCount: 4, SellCount: 1, NotableTraders: []string{"A"}},
		}},
		Insider: &fakeInsiderSource{stats: map[string]*models.InsiderStats{
			"AAPL": clusterBuyStats(),
		}},
	}, logger.Nop())

	signal, err := scanner.ScanTicker(context.Background(), "aapl", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal == nil {
		t.Fatal("expected a fused signal")
	}
	if signal.Ticker != "AAPL" {
		t.Fatalf("expected normalized ticker AAPL, got %s", signal.Ticker)
	}
	if signal.Direction != models.DirectionBuy {
		t.Fatalf("expected BUY, got %s", signal.Direction)
	}
	if len(signal.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(signal.Components))
	}
	if signal.Type != models.SourceComposite {
		t.Fatalf("expected composite signal, got %s", signal.Type)
	}
}

func TestScanTickerNoSourcesNoSignal(t *testing.T) {
	scanner := NewScanner(scannerConfig(), ScanSources{
		Congressional: &fakeCongressionalSource{},
		Insider:       &fakeInsiderSource{},
	}, logger.Nop())

	signal, err := scanner.ScanTicker(context.Background(), "XYZ", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal != nil {
		t.Fatal("expected no signal without source data")
	}
}

func TestScanTickerSourceFailureDegrades(t *testing.T) {
	// Congressional source errors out; insider alone still signals.
	scanner := NewScanner(scannerConfig(), ScanSources{
		Congressional: &fakeCongressionalSource{err: errors.New("quiver down")},
		Insider: &fakeInsiderSource{stats: map[string]*models.InsiderStats{
			"TSLA": clusterBuyStats(),
		}},
	}, logger.Nop())

	signal, err := scanner.ScanTicker(context.Background(), "TSLA", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal == nil {
		t.Fatal("expected a signal from the surviving source")
	}
	if len(signal.Components) != 1 {
		t.Fatalf("expected 1 component, got %d", len(signal.Components))
	}
	if signal.Components[0].Source != models.SourceInsider {
		t.Fatalf("unexpected source %s", signal.Components[0].Source)
	}
}

func TestScanRanksAndTruncates(t *testing.T) {
	insider := &fakeInsiderSource{stats: map[string]*models.InsiderStats{
		"AAA": {IsClusterBuy: true, InsiderCount: 6, TotalValueUSD: 2_000_000, ExecutiveBuys: 2},
		"BBB": clusterBuyStats(),
		"CCC": {IsClusterBuy: true, InsiderCount: 3, TotalValueUSD: 100_000},
	}}
	scanner := NewScanner(scannerConfig(), ScanSources{Insider: insider}, logger.Nop())

	ranked, err := scanner.Scan(context.Background(), []string{"AAA", "BBB", "CCC", "AAA"}, 30, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected top 2, got %d", len(ranked))
	}
	if ranked[0].Confidence < ranked[1].Confidence {
		t.Fatal("expected descending confidence order")
	}
	if ranked[0].Ticker != "AAA" {
		t.Fatalf("expected AAA first, got %s", ranked[0].Ticker)
	}
}

func TestScanPersistsAndAlerts(t *testing.T) {
	store := &fakeSignalStore{}
	dispatcher := &fakeDispatcher{}
	insider := &fakeInsiderSource{stats: map[string]*models.InsiderStats{
		"NVDA": {IsClusterBuy: true, InsiderCount: 6, TotalValueUSD: 2_000_000, ExecutiveBuys: 2},
		"WEAK": {IsClusterBuy: true, InsiderCount: 3, TotalValueUSD: 100_000},
	}}
	scanner := NewScanner(scannerConfig(), ScanSources{Insider: insider}, logger.Nop()).
		WithStore(store).
		WithAlerts(dispatcher, 0.87)

	ranked, err := scanner.Scan(context.Background(), []string{"NVDA", "WEAK"}, 30, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(ranked))
	}
	if len(store.stored) != 2 {
		t.Fatalf("expected 2 persisted signals, got %d", len(store.stored))
	}
	// Only the high-confidence signal clears the alert floor.
	if len(dispatcher.sent) != 1 || dispatcher.sent[0] != "NVDA" {
		t.Fatalf("expected a single NVDA alert, got %v", dispatcher.sent)
	}
}

func TestScanPublishesRanked(t *testing.T) {
	pub := &fakeSignalPublisher{}
	insider := &fakeInsiderSource{stats: map[string]*models.InsiderStats{
		"NVDA": clusterBuyStats(),
	}}
	scanner := NewScanner(scannerConfig(), ScanSources{Insider: insider}, logger.Nop()).
		WithPublisher(pub)

	ranked, err := scanner.Scan(context.Background(), []string{"NVDA"}, 30, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != len(ranked) || len(pub.published) != 1 {
		t.Fatalf("expected 1 published signal, got %d", len(pub.published))
	}
	if pub.published[0].Ticker != "NVDA" {
		t.Fatalf("expected NVDA published, got %s", pub.published[0].Ticker)
	}
}

func TestScanPublishFailureIsNonFatal(t *testing.T) {
	pub := &fakeSignalPublisher{err: errors.New("kafka down")}
	insider := &fakeInsiderSource{stats: map[string]*models.InsiderStats{
		"NVDA": clusterBuyStats(),
	}}
	scanner := NewScanner(scannerConfig(), ScanSources{Insider: insider}, logger.Nop()).
		WithPublisher(pub)

	ranked, err := scanner.Scan(context.Background(), []string{"NVDA"}, 30, 0)
	if err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(ranked))
	}
}

func TestScanStoreFailureIsNonFatal(t *testing.T) {
	store := &fakeSignalStore{err: errors.New("clickhouse down")}
	insider := &fakeInsiderSource{stats: map[string]*models.InsiderStats{
		"NVDA": clusterBuyStats(),
	}}
	scanner := NewScanner(scannerConfig(), ScanSources{Insider: insider}, logger.Nop()).
		WithStore(store)

	ranked, err := scanner.Scan(context.Background(), []string{"NVDA"}, 30, 0)
	if err != nil {
		t.Fatalf("expected store failure to be swallowed, got %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(ranked))
	}
}

func TestScanTickerUsesLatestClose(t *testing.T) {
	now := time.Now()
	provider := &fakePriceProvider{series: map[string][]models.PricePoint{
		"NVDA": {
			{Date: now.AddDate(0, 0, -2), Close: 180},
			{Date: now.AddDate(0, 0, -1), Close: 185.5},
		},
	}}
	insider := &fakeInsiderSource{stats: map[string]*models.InsiderStats{
		"NVDA": clusterBuyStats(),
	}}
	scanner := NewScanner(scannerConfig(), ScanSources{Insider: insider}, logger.Nop()).
		WithPrices(provider)

	signal, err := scanner.ScanTicker(context.Background(), "NVDA", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.PriceAtSignal == nil || *signal.PriceAtSignal != 185.5 {
		t.Fatalf("expected price 185.5, got %v", signal.PriceAtSignal)
	}
}
