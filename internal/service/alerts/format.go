package alerts

import (
	"fmt"
	"strings"

	"SmartFlow/internal/domain/models"
)

// FormatSignalTitle renders the alert headline for a signal.
func FormatSignalTitle(s *models.TradingSignal) string {
	return fmt.Sprintf("%s SIGNAL: $%s [%s]", s.Direction, s.Ticker, s.Strength)
}

// FormatSignalBody renders the alert body: confidence, type, the
// contributing source lines, and the price when known.
func FormatSignalBody(s *models.TradingSignal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Confidence: %.0f%%\n", s.Confidence*100)
	fmt.Fprintf(&b, "Strength: %s\n", titleCase(string(s.Strength)))
	fmt.Fprintf(&b, "Type: %s\n", titleCase(strings.ReplaceAll(string(s.Type), "_", " ")))

	b.WriteString("\nContributing signals:\n")
	for _, comp := range s.Components {
		fmt.Fprintf(&b, "  - %s\n", comp.Details)
	}

	if s.PriceAtSignal != nil {
		fmt.Fprintf(&b, "\nPrice: $%.2f\n", *s.PriceAtSignal)
	}
	fmt.Fprintf(&b, "Generated: %s", s.GeneratedAt.Format("2006-01-02 15:04"))

	return b.String()
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
