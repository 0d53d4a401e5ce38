package signals

import (
	"fmt"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/util"
)

// InsiderGenerator models insider accumulation only: it emits BUY
// components for cluster buys and never an insider-selling signal.
type InsiderGenerator struct {
	cfg *config.SignalsConfig
}

func NewInsiderGenerator(cfg *config.SignalsConfig) *InsiderGenerator {
	return &InsiderGenerator{cfg: cfg}
}

func (g *InsiderGenerator) Source() models.SignalSource {
	return models.SourceInsider
}

func (g *InsiderGenerator) Generate(ticker string, stats models.InsiderStats) (*models.SignalComponent, error) {
	if ticker == "" {
		return nil, fmt.Errorf("insider: empty ticker")
	}
	if stats.InsiderCount < 0 || stats.ExecutiveBuys < 0 || stats.TotalValueUSD < 0 {
		return nil, fmt.Errorf("insider: negative inputs for %s", ticker)
	}

	if !stats.IsClusterBuy || stats.InsiderCount < g.cfg.InsiderMinCount {
		return nil, nil
	}

	strength := clamp01(0.3 + float64(stats.InsiderCount)*0.15)

	// Value boosts are mutually exclusive, higher wins.
	if stats.TotalValueUSD > 1_000_000 {
		strength = clamp01(strength + 0.2)
	} else if stats.TotalValueUSD > 500_000 {
		strength = clamp01(strength + 0.1)
	}

	strength = clamp01(strength + float64(stats.ExecutiveBuys)*0.1)

	details := fmt.Sprintf("Cluster buy: %d insiders purchased $%s",
		stats.InsiderCount, util.FormatComma(int64(stats.TotalValueUSD)))
	if stats.ExecutiveBuys > 0 {
		details += fmt.Sprintf(" (%d executives)", stats.ExecutiveBuys)
	}

	return &models.SignalComponent{
		Source:    models.SourceInsider,
		Direction: models.DirectionBuy,
		Strength:  strength,
		Details:   details,
		Timestamp: time.Now(),
		Data:      models.ComponentData{Insider: &stats},
	}, nil
}
