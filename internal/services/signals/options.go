package signals

import (
	"fmt"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
)

// OptionsGenerator reads sentiment from the put/call ratio when
// unusual activity is present. The 0.5-1.2 ratio band is intentionally
// ambiguous and yields no opinion.
type OptionsGenerator struct {
	cfg *config.SignalsConfig
}

func NewOptionsGenerator(cfg *config.SignalsConfig) *OptionsGenerator {
	return &OptionsGenerator{cfg: cfg}
}

func (g *OptionsGenerator) Source() models.SignalSource {
	return models.SourceOptionsFlow
}

func (g *OptionsGenerator) Generate(ticker string, stats models.OptionsStats) (*models.SignalComponent, error) {
	if ticker == "" {
		return nil, fmt.Errorf("options: empty ticker")
	}
	if stats.PutCallRatio < 0 {
		return nil, fmt.Errorf("options: negative put/call ratio for %s", ticker)
	}

	if len(stats.UnusualContracts) == 0 {
		return nil, nil
	}

	var direction models.SignalDirection
	var strength float64
	switch {
	case stats.PutCallRatio < 0.5:
		direction = models.DirectionBuy
		strength = clamp01((0.7 - stats.PutCallRatio) * 2)
	case stats.PutCallRatio > 1.2:
		direction = models.DirectionSell
		strength = clamp01((stats.PutCallRatio - 1.0) * 0.5)
	default:
		return nil, nil
	}

	unusualCount := len(stats.UnusualContracts)
	strength = clamp01(strength + float64(unusualCount)*0.05)

	sentiment := "bullish"
	if direction == models.DirectionSell {
		sentiment = "bearish"
	}
	details := fmt.Sprintf("Options flow %s: P/C ratio %.2f, %d unusual contracts",
		sentiment, stats.PutCallRatio, unusualCount)

	return &models.SignalComponent{
		Source:    models.SourceOptionsFlow,
		Direction: direction,
		Strength:  strength,
		Details:   details,
		Timestamp: time.Now(),
		Data:      models.ComponentData{Options: &stats},
	}, nil
}
