package usecase

import (
	"context"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
)

// SourcesFromStore exposes a disclosure store as the per-source stats
// providers the scanner consumes. Lookback windows are converted to an
// absolute cutoff at call time.
func SourcesFromStore(store repository.DisclosureStore) ScanSources {
	return ScanSources{
		Congressional: congressionalFromStore{store},
		Insider:       insiderFromStore{store},
		Institutional: institutionalFromStore{store},
		Options:       optionsFromStore{store},
		Whale:         whaleFromStore{store},
	}
}

func cutoff(lookbackDays int) time.Time {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return time.Now().UTC().AddDate(0, 0, -lookbackDays)
}

type congressionalFromStore struct{ store repository.DisclosureStore }

func (s congressionalFromStore) Stats(ctx context.Context, ticker string, lookbackDays int) (*models.CongressionalStats, error) {
	return s.store.CongressionalStats(ctx, ticker, cutoff(lookbackDays))
}

type insiderFromStore struct{ store repository.DisclosureStore }

func (s insiderFromStore) Stats(ctx context.Context, ticker string, lookbackDays int) (*models.InsiderStats, error) {
	return s.store.InsiderStats(ctx, ticker, cutoff(lookbackDays))
}

type institutionalFromStore struct{ store repository.DisclosureStore }

func (s institutionalFromStore) Stats(ctx context.Context, ticker string, lookbackDays int) (*models.InstitutionalStats, error) {
	return s.store.InstitutionalStats(ctx, ticker, cutoff(lookbackDays))
}

type optionsFromStore struct{ store repository.DisclosureStore }

func (s optionsFromStore) Stats(ctx context.Context, ticker string, lookbackDays int) (*models.OptionsStats, error) {
	return s.store.OptionsStats(ctx, ticker, cutoff(lookbackDays))
}

type whaleFromStore struct{ store repository.DisclosureStore }

func (s whaleFromStore) Stats(ctx context.Context, symbol string, lookbackDays int) (*models.WhaleStats, error) {
	return s.store.WhaleStats(ctx, symbol, cutoff(lookbackDays))
}
