package usecase

import (
	"sort"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
)

// SignalAggregator fuses per-source components into ticker-level
// trading signals using weighted scoring and cross-source
// reinforcement. All weights and thresholds come from configuration.
type SignalAggregator struct {
	cfg *config.SignalsConfig
}

func NewSignalAggregator(cfg *config.SignalsConfig) *SignalAggregator {
	return &SignalAggregator{cfg: cfg}
}

func (a *SignalAggregator) sourceWeight(s models.SignalSource) float64 {
	switch s {
	case models.SourceInstitutional:
		return a.cfg.InstitutionalWeight
	case models.SourceInsider:
		return a.cfg.InsiderWeight
	case models.SourceCongressional:
		return a.cfg.CongressionalWeight
	case models.SourceOptionsFlow:
		return a.cfg.OptionsFlowWeight
	case models.SourceCryptoWhale:
		return a.cfg.CryptoWhaleWeight
	default:
		// Forward compatibility for sources this build does not know.
		return a.cfg.UnknownSourceWeight
	}
}

// Aggregate combines components for one ticker into a single signal.
// Returns nil when no direction clears the floor or scores tie.
func (a *SignalAggregator) Aggregate(ticker string, components []models.SignalComponent, currentPrice *float64) *models.TradingSignal {
	if len(components) == 0 {
		return nil
	}

	var buySignals, sellSignals []models.SignalComponent
	var buyScore, sellScore float64
	for _, c := range components {
		switch c.Direction {
		case models.DirectionBuy:
			buySignals = append(buySignals, c)
			buyScore += c.Strength * a.sourceWeight(c.Source)
		case models.DirectionSell:
			sellSignals = append(sellSignals, c)
			sellScore += c.Strength * a.sourceWeight(c.Source)
		}
		// HOLD components are ignored.
	}

	// Independent corroboration is worth more than single-source strength.
	if len(buySignals) >= 2 {
		buyScore *= a.cfg.CrossSignalBonus
	}
	if len(sellSignals) >= 2 {
		sellScore *= a.cfg.CrossSignalBonus
	}

	var direction models.SignalDirection
	var confidence float64
	var active []models.SignalComponent
	switch {
	case buyScore > sellScore && buyScore >= a.cfg.ScoreFloor:
		direction = models.DirectionBuy
		confidence = minFloat(1.0, buyScore/(buyScore+sellScore+0.1))
		active = buySignals
	case sellScore > buyScore && sellScore >= a.cfg.ScoreFloor:
		direction = models.DirectionSell
		confidence = minFloat(1.0, sellScore/(buyScore+sellScore+0.1))
		active = sellSignals
	default:
		return nil
	}

	signalType := models.SourceComposite
	if len(active) == 1 {
		signalType = active[0].Source
	}

	notes := ""
	for i, c := range active {
		if i > 0 {
			notes += " | "
		}
		notes += c.Details
	}

	now := time.Now()
	return &models.TradingSignal{
		Ticker:        ticker,
		Direction:     direction,
		Confidence:    confidence,
		Strength:      models.StrengthFromConfidence(confidence),
		Type:          signalType,
		Components:    active,
		GeneratedAt:   now,
		ExpiresAt:     now.AddDate(0, 0, a.cfg.ExpiryDays),
		Notes:         notes,
		PriceAtSignal: currentPrice,
	}
}

// Rank orders signals by confidence descending. The sort is stable so
// ties keep their input order.
func (a *SignalAggregator) Rank(signals []*models.TradingSignal) []*models.TradingSignal {
	ranked := make([]*models.TradingSignal, len(signals))
	copy(ranked, signals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked
}

// Score computes a 0-100 composite ranking score for a signal.
func (a *SignalAggregator) Score(signal *models.TradingSignal) float64 {
	score := signal.Confidence * 60

	uniqueSources := make(map[models.SignalSource]struct{}, len(signal.Components))
	for _, c := range signal.Components {
		uniqueSources[c.Source] = struct{}{}
	}
	score += float64(len(uniqueSources)) * 10

	switch signal.Strength {
	case models.StrengthStrong:
		score += 20
	case models.StrengthModerate:
		score += 10
	}

	return minFloat(100.0, score)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
