package usecase

import (
	"context"
	"fmt"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
	"SmartFlow/pkg/logger"
)

// WhaleSink receives normalized whale events. Either a Kafka publisher
// or a direct store write satisfies it.
type WhaleSink interface {
	Accept(ctx context.Context, e *models.DisclosureEvent) error
}

// PublisherSink forwards whale events to Kafka for the regular
// disclosure consumer to ingest.
type PublisherSink struct {
	pub repository.Publisher
}

func NewPublisherSink(pub repository.Publisher) *PublisherSink {
	return &PublisherSink{pub: pub}
}

func (s *PublisherSink) Accept(ctx context.Context, e *models.DisclosureEvent) error {
	return s.pub.Publish(ctx, e)
}

// StoreSink writes whale events straight into the disclosure store,
// bypassing Kafka.
type StoreSink struct {
	store repository.DisclosureStore
}

func NewStoreSink(store repository.DisclosureStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Accept(ctx context.Context, e *models.DisclosureEvent) error {
	return s.store.Store(ctx, e)
}

// WhaleCollector drains the live whale feed, filters small transfers,
// and hands normalized events to its sink. Stream errors trigger a
// reconnect after a fixed delay; the collector only stops when its
// context is cancelled.
type WhaleCollector struct {
	stream         repository.WhaleStream
	sink           WhaleSink
	minValueUSD    float64
	reconnectDelay time.Duration
	logger         *logger.Logger
	metrics        repository.Metrics
}

func NewWhaleCollector(stream repository.WhaleStream, sink WhaleSink, minValueUSD float64, reconnectDelay time.Duration, lgr *logger.Logger) *WhaleCollector {
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &WhaleCollector{
		stream:         stream,
		sink:           sink,
		minValueUSD:    minValueUSD,
		reconnectDelay: reconnectDelay,
		logger:         lgr,
	}
}

func (c *WhaleCollector) WithMetrics(m repository.Metrics) *WhaleCollector {
	c.metrics = m
	return c
}

// Run blocks until ctx is cancelled.
func (c *WhaleCollector) Run(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return fmt.Errorf("connect whale stream: %w", err)
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribe whale stream: %w", err)
	}
	defer c.stream.Close()

	transfers, errs := c.stream.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case t, ok := <-transfers:
			if !ok {
				transfers, errs = c.reconnect(ctx)
				if transfers == nil {
					return ctx.Err()
				}
				continue
			}
			c.handleTransfer(ctx, t)

		case err, ok := <-errs:
			if ok && err != nil {
				c.logger.Warn("whale stream error", logger.Error(err))
				if c.metrics != nil {
					c.metrics.RecordError("whale_stream")
				}
			}
			transfers, errs = c.reconnect(ctx)
			if transfers == nil {
				return ctx.Err()
			}
		}
	}
}

// reconnect retries until the stream comes back or ctx ends. Both
// returned channels are nil on cancellation.
func (c *WhaleCollector) reconnect(ctx context.Context) (<-chan *models.WhaleTransfer, <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(c.reconnectDelay):
		}

		if err := c.stream.Reconnect(ctx); err != nil {
			c.logger.Warn("whale stream reconnect failed", logger.Error(err))
			continue
		}
		c.logger.Info("whale stream reconnected")
		return c.stream.Read(ctx)
	}
}

func (c *WhaleCollector) handleTransfer(ctx context.Context, t *models.WhaleTransfer) {
	if t == nil || t.AmountUSD < c.minValueUSD {
		return
	}

	event := NormalizeTransfer(t)
	if event.Ticker == "" {
		return
	}

	if err := c.sink.Accept(ctx, event); err != nil {
		c.logger.Error("whale event dropped",
			logger.String("symbol", event.Ticker),
			logger.Error(err))
		if c.metrics != nil {
			c.metrics.RecordError("whale_sink")
		}
		return
	}

	if c.metrics != nil {
		c.metrics.RecordDisclosureIngested(string(models.KindWhale))
	}
	c.logger.Debug("whale transfer captured",
		logger.String("symbol", event.Ticker),
		logger.Float64("amount_usd", event.ValueUSD),
		logger.String("direction", string(event.Direction)))
}
