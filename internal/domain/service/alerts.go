package service

import (
	"context"

	"SmartFlow/internal/domain/models"
)

// AlertChannel delivers a rendered signal alert to one destination.
type AlertChannel interface {
	Name() string
	Send(ctx context.Context, title, body string) error
}

// AlertDispatcher fans a signal out to all enabled channels.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, signal *models.TradingSignal) error
}
