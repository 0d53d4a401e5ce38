package service

import (
	"context"

	"SmartFlow/internal/domain/models"
)

// CongressionalSource yields congressional trading stats for a ticker.
type CongressionalSource interface {
	Stats(ctx context.Context, ticker string, lookbackDays int) (*models.CongressionalStats, error)
}

// InsiderSource yields insider buying stats for a ticker.
type InsiderSource interface {
	Stats(ctx context.Context, ticker string, lookbackDays int) (*models.InsiderStats, error)
}

// InstitutionalSource yields 13F accumulation stats for a ticker.
type InstitutionalSource interface {
	Stats(ctx context.Context, ticker string, lookbackDays int) (*models.InstitutionalStats, error)
}

// OptionsSource yields options flow stats for a ticker.
type OptionsSource interface {
	Stats(ctx context.Context, ticker string, lookbackDays int) (*models.OptionsStats, error)
}

// WhaleSource yields exchange flow stats for a crypto asset.
type WhaleSource interface {
	Stats(ctx context.Context, symbol string, lookbackDays int) (*models.WhaleStats, error)
}
