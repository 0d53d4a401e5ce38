package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SmartFlow/internal/domain/models"
	domrepo "SmartFlow/internal/domain/repository"
)

// Sink is the minimal downstream interface the pipeline needs.
type Sink interface {
	Accept(ctx context.Context, e *models.DisclosureEvent) error
}

// IngestPipeline sits between a collector and its sink. It validates,
// throttles per ticker, optionally transforms, and buffers events when
// the sink is unavailable. The pipeline itself satisfies Sink, so it
// can be slotted in front of any downstream.
type IngestPipeline struct {
	next     Sink
	metrics  domrepo.Metrics
	maxEPS   int
	bufSize  int
	bufCh    chan *models.DisclosureEvent
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-ticker last accepted time

	transform func(*models.DisclosureEvent) *models.DisclosureEvent
}

type PipelineOption func(*IngestPipeline)

// WithMaxEventsPerSec caps accepted events per second per ticker.
func WithMaxEventsPerSec(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.maxEPS = n
		}
	}
}

// WithBufferSize sets the holding buffer used while the sink is down.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a hook to rewrite events before validation of the
// transformed form.
func WithTransform(fn func(*models.DisclosureEvent) *models.DisclosureEvent) PipelineOption {
	return func(p *IngestPipeline) { p.transform = fn }
}

func NewIngestPipeline(next Sink, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		next:     next,
		metrics:  metrics,
		maxEPS:   20,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.DisclosureEvent, p.bufSize)
	return p
}

// Start launches background flushing of buffered events.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case e := <-p.bufCh:
				if e == nil {
					continue
				}
				if err := p.next.Accept(ctx, e); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.recordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- e:
					default:
						p.recordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Accept validates, throttles, and forwards an event, buffering when
// the sink errors.
func (p *IngestPipeline) Accept(ctx context.Context, e *models.DisclosureEvent) error {
	start := time.Now()
	if err := validateEvent(e); err != nil {
		p.recordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		e = p.transform(e)
		if err := validateEvent(e); err != nil {
			p.recordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(e.Ticker, start) {
		// throttled; drop silently
		p.recordError("pipeline_throttle")
		return nil
	}

	if err := p.next.Accept(ctx, e); err != nil {
		p.recordError("pipeline_sink")
		// buffer non-blocking
		select {
		case p.bufCh <- e:
		default:
			p.recordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	if p.metrics != nil {
		p.metrics.RecordLatency("pipeline_accept", time.Since(start).Seconds())
	}
	return nil
}

func (p *IngestPipeline) recordError(kind string) {
	if p.metrics != nil {
		p.metrics.RecordError(kind)
	}
}

func validateEvent(e *models.DisclosureEvent) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if e.Kind == "" {
		return fmt.Errorf("kind empty")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at missing")
	}
	if e.ValueUSD < 0 || e.Shares < 0 {
		return fmt.Errorf("negative amounts")
	}
	return nil
}

func (p *IngestPipeline) allow(ticker string, now time.Time) bool {
	if p.maxEPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[ticker]
	minGap := time.Second / time.Duration(p.maxEPS)
	if !last.IsZero() && now.Sub(last) < minGap {
		return false
	}
	p.lastSeen[ticker] = now
	return true
}
