package alerts

import (
	"strings"
	"testing"
	"time"

	"SmartFlow/internal/domain/models"
)

func sampleSignal() *models.TradingSignal {
	price := 187.25
	return &models.TradingSignal{
		Ticker:     "AAPL",
		Direction:  models.DirectionBuy,
		Confidence: 0.92,
		Strength:   models.StrengthStrong,
		Type:       models.SourceComposite,
		Components: []models.SignalComponent{
			{Source: models.SourceInsider, Details: "Cluster buy: 4 insiders purchased $1,250,000"},
			{Source: models.SourceCongressional, Details: "Congress bought 3 net (4 buys, 1 sells)"},
		},
		PriceAtSignal: &price,
		GeneratedAt:   time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC),
	}
}

func TestFormatSignalTitle(t *testing.T) {
	got := FormatSignalTitle(sampleSignal())
	want := "BUY SIGNAL: $AAPL [STRONG]"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFormatSignalBody(t *testing.T) {
	body := FormatSignalBody(sampleSignal())

	for _, want := range []string{
		"Confidence: 92%",
		"Strength: Strong",
		"Type: Composite",
		"- Cluster buy: 4 insiders purchased $1,250,000",
		"- Congress bought 3 net (4 buys, 1 sells)",
		"Price: $187.25",
		"Generated: 2025-06-02 14:30",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestFormatSignalBodyWithoutPrice(t *testing.T) {
	s := sampleSignal()
	s.PriceAtSignal = nil

	body := FormatSignalBody(s)
	if strings.Contains(body, "Price:") {
		t.Fatal("expected no price line without a price")
	}
}
