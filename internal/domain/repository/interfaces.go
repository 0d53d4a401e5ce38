package repository

import (
	"context"
	"time"

	"SmartFlow/internal/domain/models"
)

// WhaleStream is a live feed of large on-chain transfers.
type WhaleStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.WhaleTransfer, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher pushes disclosure events downstream (Kafka).
type Publisher interface {
	Publish(ctx context.Context, e *models.DisclosureEvent) error
	PublishBatch(ctx context.Context, events []*models.DisclosureEvent) error
	Close() error
}

// SignalPublisher pushes generated signals downstream (Kafka).
type SignalPublisher interface {
	PublishSignals(ctx context.Context, signals []*models.TradingSignal) error
	Close() error
}

// DisclosureStore persists raw disclosure events and aggregates the
// per-ticker statistics the generators consume.
type DisclosureStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, e *models.DisclosureEvent) error
	StoreBatch(ctx context.Context, events []*models.DisclosureEvent) error
	CongressionalStats(ctx context.Context, ticker string, since time.Time) (*models.CongressionalStats, error)
	InsiderStats(ctx context.Context, ticker string, since time.Time) (*models.InsiderStats, error)
	InstitutionalStats(ctx context.Context, ticker string, since time.Time) (*models.InstitutionalStats, error)
	OptionsStats(ctx context.Context, ticker string, since time.Time) (*models.OptionsStats, error)
	WhaleStats(ctx context.Context, symbol string, since time.Time) (*models.WhaleStats, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalStore persists generated trading signals.
type SignalStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, s *models.TradingSignal) error
	StoreBatch(ctx context.Context, signals []*models.TradingSignal) error
	List(ctx context.Context, ticker string, minConfidence float64, limit int) ([]*models.TradingSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordSignalGenerated(direction, strength string)
	RecordDisclosureIngested(source string)
	RecordBacktestRun(result string)
	RecordAlertSent(channel string)
	RecordError(kind string)
	RecordLastConfidence(ticker string, confidence float64)
	RecordLatency(op string, seconds float64)
}
