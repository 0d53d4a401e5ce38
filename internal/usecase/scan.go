package usecase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
	"SmartFlow/internal/domain/service"
	"SmartFlow/internal/services/signals"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/logger"
	"SmartFlow/pkg/util"
)

// ScanSources bundles the per-source stat providers consulted during a
// scan. Any nil member is skipped for every ticker.
type ScanSources struct {
	Congressional service.CongressionalSource
	Insider       service.InsiderSource
	Institutional service.InstitutionalSource
	Options       service.OptionsSource
	Whale         service.WhaleSource
}

// Scanner runs the full per-ticker pipeline: gather stats from each
// source, turn them into signal components, and fuse the components
// into a ranked signal list. Failures in a single source degrade that
// source only, never the whole scan.
type Scanner struct {
	cfg     *config.SignalsConfig
	sources ScanSources
	agg     *SignalAggregator
	logger  *logger.Logger

	congressional *signals.CongressionalGenerator
	insider       *signals.InsiderGenerator
	institutional *signals.InstitutionalGenerator
	options       *signals.OptionsGenerator
	whale         *signals.WhaleGenerator

	prices      service.PriceProvider
	store       repository.SignalStore
	publisher   repository.SignalPublisher
	alerts      service.AlertDispatcher
	metrics     repository.Metrics
	concurrency int
	alertFloor  float64
}

func NewScanner(cfg *config.SignalsConfig, sources ScanSources, lgr *logger.Logger) *Scanner {
	return &Scanner{
		cfg:           cfg,
		sources:       sources,
		agg:           NewSignalAggregator(cfg),
		logger:        lgr,
		congressional: signals.NewCongressionalGenerator(cfg),
		insider:       signals.NewInsiderGenerator(cfg),
		institutional: signals.NewInstitutionalGenerator(cfg),
		options:       signals.NewOptionsGenerator(cfg),
		whale:         signals.NewWhaleGenerator(cfg),
		concurrency:   4,
		alertFloor:    0.7,
	}
}

// WithPrices attaches a price provider used to stamp signals with the
// latest close.
func (s *Scanner) WithPrices(p service.PriceProvider) *Scanner {
	s.prices = p
	return s
}

// WithStore persists ranked scan output.
func (s *Scanner) WithStore(store repository.SignalStore) *Scanner {
	s.store = store
	return s
}

// WithPublisher pushes ranked scan output onto the signals topic.
func (s *Scanner) WithPublisher(p repository.SignalPublisher) *Scanner {
	s.publisher = p
	return s
}

// WithAlerts dispatches signals at or above minConfidence.
func (s *Scanner) WithAlerts(d service.AlertDispatcher, minConfidence float64) *Scanner {
	s.alerts = d
	if minConfidence > 0 {
		s.alertFloor = minConfidence
	}
	return s
}

func (s *Scanner) WithMetrics(m repository.Metrics) *Scanner {
	s.metrics = m
	return s
}

func (s *Scanner) WithConcurrency(n int) *Scanner {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// ScanTicker evaluates one ticker across every configured source. A nil
// signal with nil error means no source produced an actionable edge.
func (s *Scanner) ScanTicker(ctx context.Context, ticker string, lookbackDays int) (*models.TradingSignal, error) {
	ticker = util.NormalizeTicker(ticker)

	var components []models.SignalComponent

	if s.sources.Congressional != nil {
		stats, err := s.sources.Congressional.Stats(ctx, ticker, lookbackDays)
		if err != nil {
			s.sourceFailed(ticker, "congressional", err)
		} else if stats != nil {
			if comp, err := s.congressional.Generate(ticker, *stats); err != nil {
				s.sourceFailed(ticker, "congressional", err)
			} else if comp != nil {
				components = append(components, *comp)
			}
		}
	}

	if s.sources.Insider != nil {
		stats, err := s.sources.Insider.Stats(ctx, ticker, lookbackDays)
		if err != nil {
			s.sourceFailed(ticker, "insider", err)
		} else if stats != nil {
			if comp, err := s.insider.Generate(ticker, *stats); err != nil {
				s.sourceFailed(ticker, "insider", err)
			} else if comp != nil {
				components = append(components, *comp)
			}
		}
	}

	if s.sources.Institutional != nil {
		stats, err := s.sources.Institutional.Stats(ctx, ticker, lookbackDays)
		if err != nil {
			s.sourceFailed(ticker, "institutional", err)
		} else if stats != nil {
			if comp, err := s.institutional.Generate(ticker, *stats); err != nil {
				s.sourceFailed(ticker, "institutional", err)
			} else if comp != nil {
				components = append(components, *comp)
			}
		}
	}

	if s.sources.Options != nil {
		stats, err := s.sources.Options.Stats(ctx, ticker, lookbackDays)
		if err != nil {
			s.sourceFailed(ticker, "options_flow", err)
		} else if stats != nil {
			if comp, err := s.options.Generate(ticker, *stats); err != nil {
				s.sourceFailed(ticker, "options_flow", err)
			} else if comp != nil {
				components = append(components, *comp)
			}
		}
	}

	if s.sources.Whale != nil {
		stats, err := s.sources.Whale.Stats(ctx, ticker, lookbackDays)
		if err != nil {
			s.sourceFailed(ticker, "crypto_whale", err)
		} else if stats != nil {
			if comp, err := s.whale.Generate(ticker, *stats); err != nil {
				s.sourceFailed(ticker, "crypto_whale", err)
			} else if comp != nil {
				components = append(components, *comp)
			}
		}
	}

	if len(components) == 0 {
		return nil, nil
	}

	signal := s.agg.Aggregate(ticker, components, s.latestClose(ctx, ticker))
	if signal == nil {
		return nil, nil
	}

	if s.metrics != nil {
		s.metrics.RecordSignalGenerated(string(signal.Direction), string(signal.Strength))
		s.metrics.RecordLastConfidence(ticker, signal.Confidence)
	}
	s.logger.Info("signal generated",
		logger.String("ticker", ticker),
		logger.String("direction", string(signal.Direction)),
		logger.Float64("confidence", signal.Confidence),
		logger.Int("components", len(signal.Components)))

	return signal, nil
}

// Scan evaluates tickers in parallel and returns the topN signals by
// rank. Duplicate tickers are scanned once. Persisting and alerting are
// best effort; their failures are logged, not returned.
func (s *Scanner) Scan(ctx context.Context, tickers []string, lookbackDays, topN int) ([]*models.TradingSignal, error) {
	started := time.Now()
	unique := dedupeTickers(tickers)

	slots := make([]*models.TradingSignal, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, ticker := range unique {
		i, ticker := i, ticker
		g.Go(func() error {
			signal, err := s.ScanTicker(gctx, ticker, lookbackDays)
			if err != nil {
				return err
			}
			slots[i] = signal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	found := make([]*models.TradingSignal, 0, len(unique))
	for _, sig := range slots {
		if sig != nil {
			found = append(found, sig)
		}
	}

	ranked := s.agg.Rank(found)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	if s.store != nil && len(ranked) > 0 {
		if err := s.store.StoreBatch(ctx, ranked); err != nil {
			s.logger.Error("persist scan results", logger.Error(err))
			if s.metrics != nil {
				s.metrics.RecordError("signal_store")
			}
		}
	}

	if s.publisher != nil && len(ranked) > 0 {
		if err := s.publisher.PublishSignals(ctx, ranked); err != nil {
			s.logger.Error("publish scan results", logger.Error(err))
			if s.metrics != nil {
				s.metrics.RecordError("signal_publish")
			}
		}
	}

	if s.alerts != nil {
		s.dispatchAlerts(ctx, ranked)
	}

	if s.metrics != nil {
		s.metrics.RecordLatency("scan", time.Since(started).Seconds())
	}
	s.logger.Info("scan complete",
		logger.Int("tickers", len(unique)),
		logger.Int("signals", len(ranked)),
		logger.Duration("elapsed", time.Since(started)))

	return ranked, nil
}

func (s *Scanner) dispatchAlerts(ctx context.Context, ranked []*models.TradingSignal) {
	var wg sync.WaitGroup
	for _, sig := range ranked {
		if sig.Confidence < s.alertFloor {
			continue
		}
		wg.Add(1)
		go func(sig *models.TradingSignal) {
			defer wg.Done()
			if err := s.alerts.Dispatch(ctx, sig); err != nil {
				s.logger.Warn("alert dispatch failed",
					logger.String("ticker", sig.Ticker),
					logger.Error(err))
			}
		}(sig)
	}
	wg.Wait()
}

// latestClose returns the most recent daily close, or nil when the
// provider is absent or has no data.
func (s *Scanner) latestClose(ctx context.Context, ticker string) *float64 {
	if s.prices == nil {
		return nil
	}
	now := time.Now()
	series, err := s.prices.DailyCloses(ctx, ticker, now.AddDate(0, 0, -7), now)
	if err != nil {
		s.logger.Warn("latest close unavailable",
			logger.String("ticker", ticker),
			logger.Error(err))
		return nil
	}
	if len(series) == 0 {
		return nil
	}
	last := series[len(series)-1].Close
	return &last
}

func (s *Scanner) sourceFailed(ticker, source string, err error) {
	s.logger.Warn("source skipped",
		logger.String("ticker", ticker),
		logger.String("source", source),
		logger.Error(err))
	if s.metrics != nil {
		s.metrics.RecordError("source_" + source)
	}
}

func dedupeTickers(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = util.NormalizeTicker(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
