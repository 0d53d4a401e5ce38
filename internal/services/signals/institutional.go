package signals

import (
	"fmt"
	"strings"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/util"
)

// InstitutionalGenerator turns 13F accumulation statistics into a BUY
// component when enough institutions added a position.
type InstitutionalGenerator struct {
	cfg *config.SignalsConfig
}

func NewInstitutionalGenerator(cfg *config.SignalsConfig) *InstitutionalGenerator {
	return &InstitutionalGenerator{cfg: cfg}
}

func (g *InstitutionalGenerator) Source() models.SignalSource {
	return models.SourceInstitutional
}

func (g *InstitutionalGenerator) Generate(ticker string, stats models.InstitutionalStats) (*models.SignalComponent, error) {
	if ticker == "" {
		return nil, fmt.Errorf("institutional: empty ticker")
	}
	if stats.FilerCount < 0 || stats.TotalShares < 0 {
		return nil, fmt.Errorf("institutional: negative inputs for %s", ticker)
	}

	if stats.FilerCount < g.cfg.InstitutionalMinFilers {
		return nil, nil
	}

	// 2 filers = 0.4, 5 filers = 0.7, 10+ filers = 1.0
	strength := clamp01(0.2 + float64(stats.FilerCount)*0.1)

	notableBoost := float64(len(stats.NotableFilers)) * 0.05
	if notableBoost > 0.2 {
		notableBoost = 0.2
	}
	strength = clamp01(strength + notableBoost)

	details := fmt.Sprintf("%d institutions accumulated %s shares",
		stats.FilerCount, util.FormatComma(stats.TotalShares))
	if len(stats.NotableFilers) > 0 {
		details += fmt.Sprintf(" (including %s)", strings.Join(firstN(stats.NotableFilers, 3), ", "))
	}

	return &models.SignalComponent{
		Source:    models.SourceInstitutional,
		Direction: models.DirectionBuy,
		Strength:  strength,
		Details:   details,
		Timestamp: time.Now(),
		Data:      models.ComponentData{Institutional: &stats},
	}, nil
}
