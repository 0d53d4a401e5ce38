package signals

import (
	"fmt"
	"strings"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
)

// CongressionalGenerator turns congressional trade statistics into a
// signal component. Requires a minimum trade count; a balanced
// buy/sell split yields no opinion.
type CongressionalGenerator struct {
	cfg *config.SignalsConfig
}

func NewCongressionalGenerator(cfg *config.SignalsConfig) *CongressionalGenerator {
	return &CongressionalGenerator{cfg: cfg}
}

func (g *CongressionalGenerator) Source() models.SignalSource {
	return models.SourceCongressional
}

func (g *CongressionalGenerator) Generate(ticker string, stats models.CongressionalStats) (*models.SignalComponent, error) {
	if ticker == "" {
		return nil, fmt.Errorf("congressional: empty ticker")
	}
	if stats.TradeCount < 0 || stats.BuyCount < 0 || stats.SellCount < 0 {
		return nil, fmt.Errorf("congressional: negative counts for %s", ticker)
	}

	if stats.TradeCount < g.cfg.CongressionalMinTrades {
		return nil, nil
	}

	net := stats.BuyCount - stats.SellCount
	if net == 0 {
		return nil, nil
	}

	direction := models.DirectionBuy
	action := "bought"
	if net < 0 {
		direction = models.DirectionSell
		action = "sold"
		net = -net
	}

	strength := clamp01(float64(net) * 0.2)
	if len(stats.NotableTraders) > 0 {
		strength = clamp01(strength + 0.15)
	}

	details := fmt.Sprintf("Congress %s %d net (%d buys, %d sells)",
		action, net, stats.BuyCount, stats.SellCount)
	if len(stats.NotableTraders) > 0 {
		details += " by " + strings.Join(firstN(stats.NotableTraders, 2), ", ")
	}

	return &models.SignalComponent{
		Source:    models.SourceCongressional,
		Direction: direction,
		Strength:  strength,
		Details:   details,
		Timestamp: time.Now(),
		Data:      models.ComponentData{Congressional: &stats},
	}, nil
}
