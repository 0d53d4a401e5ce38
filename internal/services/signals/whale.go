package signals

import (
	"fmt"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
	"SmartFlow/pkg/util"
)

// WhaleGenerator reads exchange flow direction: coins leaving
// exchanges (net outflow) is accumulation, coins entering is
// distribution. Flows inside the neutral band yield no opinion.
type WhaleGenerator struct {
	cfg *config.SignalsConfig
}

func NewWhaleGenerator(cfg *config.SignalsConfig) *WhaleGenerator {
	return &WhaleGenerator{cfg: cfg}
}

func (g *WhaleGenerator) Source() models.SignalSource {
	return models.SourceCryptoWhale
}

func (g *WhaleGenerator) Generate(symbol string, stats models.WhaleStats) (*models.SignalComponent, error) {
	if symbol == "" {
		return nil, fmt.Errorf("whale: empty symbol")
	}
	if stats.InflowUSD < 0 || stats.OutflowUSD < 0 || stats.TxCount < 0 {
		return nil, fmt.Errorf("whale: negative inputs for %s", symbol)
	}

	if stats.TxCount < 1 {
		return nil, nil
	}

	net := stats.OutflowUSD - stats.InflowUSD

	var direction models.SignalDirection
	var verb string
	switch {
	case net > g.cfg.WhaleMinNetFlowUSD:
		direction = models.DirectionBuy
		verb = "left"
	case net < -g.cfg.WhaleMinNetFlowUSD:
		direction = models.DirectionSell
		verb = "entered"
		net = -net
	default:
		return nil, nil
	}

	strength := clamp01(net / g.cfg.WhaleFlowScaleUSD)

	details := fmt.Sprintf("Whale flow: $%s net %s exchanges across %d transfers",
		util.FormatComma(int64(net)), verb, stats.TxCount)

	return &models.SignalComponent{
		Source:    models.SourceCryptoWhale,
		Direction: direction,
		Strength:  strength,
		Details:   details,
		Timestamp: time.Now(),
		Data:      models.ComponentData{Whale: &stats},
	}, nil
}
