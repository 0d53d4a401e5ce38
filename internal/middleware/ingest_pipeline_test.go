package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SmartFlow/internal/domain/models"
)

type captureSink struct {
	mu     sync.Mutex
	events []*models.DisclosureEvent
	err    error
}

func (s *captureSink) Accept(_ context.Context, e *models.DisclosureEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func validEvent(ticker string) *models.DisclosureEvent {
	return &models.DisclosureEvent{
		Kind:       models.KindInsider,
		Ticker:     ticker,
		Direction:  models.DirectionBuy,
		ValueUSD:   100_000,
		OccurredAt: time.Now(),
	}
}

func TestPipelineForwardsValidEvents(t *testing.T) {
	sink := &captureSink{}
	p := NewIngestPipeline(sink, nil)

	if err := p.Accept(context.Background(), validEvent("AAPL")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.count() != 1 {
		t.Fatalf("expected 1 forwarded event, got %d", sink.count())
	}
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	sink := &captureSink{}
	p := NewIngestPipeline(sink, nil)
	ctx := context.Background()

	cases := []*models.DisclosureEvent{
		nil,
		{Kind: models.KindInsider, OccurredAt: time.Now()},                            // no ticker
		{Ticker: "X", OccurredAt: time.Now()},                                         // no kind
		{Kind: models.KindInsider, Ticker: "X"},                                       // no occurred_at
		{Kind: models.KindInsider, Ticker: "X", ValueUSD: -5, OccurredAt: time.Now()}, // negative
	}
	for _, e := range cases {
		if err := p.Accept(ctx, e); err == nil {
			t.Fatalf("expected rejection for %+v", e)
		}
	}
	if sink.count() != 0 {
		t.Fatal("invalid events must not reach the sink")
	}
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	sink := &captureSink{}
	p := NewIngestPipeline(sink, nil, WithMaxEventsPerSec(1))
	ctx := context.Background()

	// Second event for the same ticker inside the window drops, a
	// different ticker passes.
	if err := p.Accept(ctx, validEvent("AAPL")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Accept(ctx, validEvent("AAPL")); err != nil {
		t.Fatalf("throttled events drop silently, got %v", err)
	}
	if err := p.Accept(ctx, validEvent("TSLA")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.count() != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", sink.count())
	}
}

func TestPipelineBuffersOnSinkFailure(t *testing.T) {
	sink := &captureSink{err: errors.New("down")}
	p := NewIngestPipeline(sink, nil, WithBufferSize(4))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Accept(ctx, validEvent("AAPL")); err == nil {
		t.Fatal("expected downstream error")
	}

	// Sink recovers; the flusher drains the buffered event.
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()

	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for sink.count() < 1 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for buffered flush")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestPipelineTransform(t *testing.T) {
	sink := &captureSink{}
	p := NewIngestPipeline(sink, nil, WithTransform(func(e *models.DisclosureEvent) *models.DisclosureEvent {
		e.Ticker = "X:" + e.Ticker
		return e
	}))

	if err := p.Accept(context.Background(), validEvent("AAPL")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.events[0].Ticker != "X:AAPL" {
		t.Fatalf("expected transformed ticker, got %s", sink.events[0].Ticker)
	}
}
