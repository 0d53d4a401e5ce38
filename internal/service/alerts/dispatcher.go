package alerts

import (
	"context"
	"fmt"
	"strings"

	"SmartFlow/internal/domain/models"
	"SmartFlow/internal/domain/repository"
	"SmartFlow/internal/domain/service"
	applogger "SmartFlow/pkg/logger"
)

// Dispatcher broadcasts a signal to every configured channel. A channel
// failure is collected, not fatal; Dispatch errors only when every
// channel failed.
type Dispatcher struct {
	channels []service.AlertChannel
	l        *applogger.Logger
	metrics  repository.Metrics
}

func NewDispatcher(l *applogger.Logger, channels ...service.AlertChannel) *Dispatcher {
	return &Dispatcher{channels: channels, l: l}
}

func (d *Dispatcher) WithMetrics(m repository.Metrics) *Dispatcher {
	d.metrics = m
	return d
}

func (d *Dispatcher) AddChannel(c service.AlertChannel) {
	d.channels = append(d.channels, c)
}

func (d *Dispatcher) Dispatch(ctx context.Context, signal *models.TradingSignal) error {
	if len(d.channels) == 0 {
		return nil
	}

	title := FormatSignalTitle(signal)
	body := FormatSignalBody(signal)

	var failures []string
	for _, ch := range d.channels {
		if err := ch.Send(ctx, title, body); err != nil {
			d.l.Warn("alert channel failed",
				applogger.String("channel", ch.Name()),
				applogger.String("ticker", signal.Ticker),
				applogger.Error(err))
			failures = append(failures, ch.Name())
			continue
		}
		if d.metrics != nil {
			d.metrics.RecordAlertSent(ch.Name())
		}
	}

	if len(failures) == len(d.channels) {
		return fmt.Errorf("all alert channels failed: %s", strings.Join(failures, ", "))
	}
	return nil
}
