package usecase

import (
	"strings"
	"time"

	"SmartFlow/internal/domain/models"
)

// NormalizeTransfer converts a raw whale transfer into a disclosure
// event. Transfers into exchanges read as sell pressure, transfers out
// as accumulation, and moves that touch exchanges on both or neither
// side carry no direction.
func NormalizeTransfer(t *models.WhaleTransfer) *models.DisclosureEvent {
	direction := models.DirectionHold
	switch {
	case t.ToExchange && !t.FromExchange:
		direction = models.DirectionSell
	case t.FromExchange && !t.ToExchange:
		direction = models.DirectionBuy
	}

	return &models.DisclosureEvent{
		Kind:       models.KindWhale,
		Ticker:     strings.ToUpper(strings.TrimSpace(t.Symbol)),
		Actor:      t.TxHash,
		Direction:  direction,
		ValueUSD:   t.AmountUSD,
		OccurredAt: t.Timestamp,
		IngestedAt: time.Now(),
	}
}
