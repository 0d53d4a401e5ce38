package api

import (
	"math"
	"testing"

	"SmartFlow/internal/domain/models"
)

func TestBuildSummaryEmpty(t *testing.T) {
	s := buildSummary(nil)
	if s.TotalSignals != 0 || s.AvgConfidence != 0 || s.TopTicker != "" {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestBuildSummaryCounts(t *testing.T) {
	signals := []*models.TradingSignal{
		{Ticker: "AAPL", Direction: models.DirectionBuy, Strength: models.StrengthStrong, Confidence: 0.9},
		{Ticker: "TSLA", Direction: models.DirectionSell, Strength: models.StrengthModerate, Confidence: 0.7},
		{Ticker: "MSFT", Direction: models.DirectionBuy, Strength: models.StrengthWeak, Confidence: 0.5},
	}

	s := buildSummary(signals)
	if s.TotalSignals != 3 {
		t.Fatalf("expected 3 total, got %d", s.TotalSignals)
	}
	if s.BuySignals != 2 || s.SellSignals != 1 {
		t.Fatalf("expected 2 buys / 1 sell, got %d / %d", s.BuySignals, s.SellSignals)
	}
	if s.StrongSignals != 1 {
		t.Fatalf("expected 1 strong signal, got %d", s.StrongSignals)
	}
	if math.Abs(s.AvgConfidence-0.7) > 1e-9 {
		t.Fatalf("expected avg confidence 0.7, got %f", s.AvgConfidence)
	}
	if s.TopTicker != "AAPL" {
		t.Fatalf("expected top ticker AAPL, got %s", s.TopTicker)
	}
}
