package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
	"SmartFlow/pkg/logger"
	"SmartFlow/pkg/util"
)

var validKinds = map[models.DisclosureKind]struct{}{
	models.KindCongressional: {},
	models.KindInsider:       {},
	models.KindInstitutional: {},
	models.KindOptions:       {},
	models.KindWhale:         {},
}

// DisclosureHandler consumes normalized disclosure events from Kafka
// and lands them in the disclosure store. Malformed payloads return an
// error so the consumer's retry and dead-letter path takes over.
type DisclosureHandler struct {
	topic   string
	store   repository.DisclosureStore
	logger  *logger.Logger
	metrics repository.Metrics
}

func NewDisclosureHandler(topic string, store repository.DisclosureStore, lgr *logger.Logger) *DisclosureHandler {
	return &DisclosureHandler{topic: topic, store: store, logger: lgr}
}

func (h *DisclosureHandler) WithMetrics(m repository.Metrics) *DisclosureHandler {
	h.metrics = m
	return h
}

func (h *DisclosureHandler) Topic() string {
	return h.topic
}

func (h *DisclosureHandler) Handle(ctx context.Context, data []byte) error {
	var event models.DisclosureEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.recordError("decode")
		return fmt.Errorf("decode disclosure: %w", err)
	}
	if err := validateDisclosure(&event); err != nil {
		h.recordError("validate")
		return err
	}

	event.Ticker = util.NormalizeTicker(event.Ticker)
	if event.IngestedAt.IsZero() {
		event.IngestedAt = time.Now()
	}

	if err := h.store.Store(ctx, &event); err != nil {
		h.recordError("store")
		return fmt.Errorf("store disclosure: %w", err)
	}

	if h.metrics != nil {
		h.metrics.RecordDisclosureIngested(string(event.Kind))
	}
	h.logger.Debug("disclosure ingested",
		logger.String("kind", string(event.Kind)),
		logger.String("ticker", event.Ticker))
	return nil
}

func (h *DisclosureHandler) recordError(stage string) {
	if h.metrics != nil {
		h.metrics.RecordError("disclosure_" + stage)
	}
}

func validateDisclosure(e *models.DisclosureEvent) error {
	if _, ok := validKinds[e.Kind]; !ok {
		return fmt.Errorf("unknown disclosure kind %q", e.Kind)
	}
	if e.Ticker == "" {
		return fmt.Errorf("disclosure without ticker")
	}
	if e.ValueUSD < 0 || e.Shares < 0 {
		return fmt.Errorf("disclosure for %s has negative amounts", e.Ticker)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("disclosure for %s without occurred_at", e.Ticker)
	}
	return nil
}
