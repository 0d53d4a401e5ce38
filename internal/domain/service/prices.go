package service

import (
	"context"
	"time"

	"SmartFlow/internal/domain/models"
)

// PriceProvider returns an ordered daily close series for a ticker.
// A ticker with no data yields an empty series and nil error; errors
// are reserved for transport failures.
type PriceProvider interface {
	DailyCloses(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)
}
