package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"SmartFlow/internal/domain/models"
	pkgch "SmartFlow/pkg/clickhouse"
	applogger "SmartFlow/pkg/logger"
)

const signalTable = "smartflow.signals"

const signalSchema = `
CREATE TABLE IF NOT EXISTS ` + signalTable + ` (
    ticker          LowCardinality(String),
    direction       LowCardinality(String),
    confidence      Float64,
    strength        LowCardinality(String),
    signal_type     LowCardinality(String),
    components      String,
    notes           String,
    price_at_signal Nullable(Float64),
    generated_at    DateTime,
    expires_at      DateTime
) ENGINE = MergeTree()
ORDER BY (ticker, generated_at)
TTL generated_at + INTERVAL 1 YEAR
`

// CHSignalStore persists generated trading signals in ClickHouse.
// Components are stored as a JSON column; ClickHouse only filters on
// the scalar columns.
type CHSignalStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSignalStore(ch *pkgch.Client) *CHSignalStore {
	return &CHSignalStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, signalSchema); err != nil {
		return fmt.Errorf("create signals table: %w", err)
	}
	return nil
}

func (s *CHSignalStore) Store(ctx context.Context, sig *models.TradingSignal) error {
	return s.StoreBatch(ctx, []*models.TradingSignal{sig})
}

func (s *CHSignalStore) StoreBatch(ctx context.Context, signals []*models.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}

	values := make([]string, 0, len(signals))
	args := make([]interface{}, 0, len(signals)*10)
	for _, sig := range signals {
		if sig == nil || sig.Ticker == "" {
			continue
		}
		components, err := json.Marshal(sig.Components)
		if err != nil {
			return fmt.Errorf("marshal components for %s: %w", sig.Ticker, err)
		}
		var price interface{}
		if sig.PriceAtSignal != nil {
			price = *sig.PriceAtSignal
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			sig.Ticker,
			string(sig.Direction),
			sig.Confidence,
			string(sig.Strength),
			string(sig.Type),
			string(components),
			sig.Notes,
			price,
			sig.GeneratedAt,
			sig.ExpiresAt,
		)
	}
	if len(values) == 0 {
		return nil
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (ticker, direction, confidence, strength, signal_type, components, notes, price_at_signal, generated_at, expires_at) VALUES %s",
		signalTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse signal insert error",
				applogger.Int("rows", len(values)),
				applogger.Error(err))
		}
		return fmt.Errorf("insert signals: %w", err)
	}
	return nil
}

// List returns recent signals, newest first. Empty ticker matches all
// tickers; limit <= 0 falls back to 100.
func (s *CHSignalStore) List(ctx context.Context, ticker string, minConfidence float64, limit int) ([]*models.TradingSignal, error) {
	if limit <= 0 {
		limit = 100
	}

	q := `
        SELECT ticker, direction, confidence, strength, signal_type, components, notes, price_at_signal, generated_at, expires_at
        FROM ` + signalTable + `
        WHERE confidence >= ?
    `
	args := []interface{}{minConfidence}
	if ticker != "" {
		q += " AND ticker = ?"
		args = append(args, ticker)
	}
	q += " ORDER BY generated_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var out []*models.TradingSignal
	for rows.Next() {
		var (
			sig        models.TradingSignal
			direction  string
			strength   string
			signalType string
			components string
			price      sql.NullFloat64
		)
		if err := rows.Scan(&sig.Ticker, &direction, &sig.Confidence, &strength, &signalType,
			&components, &sig.Notes, &price, &sig.GeneratedAt, &sig.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Direction = models.SignalDirection(direction)
		sig.Strength = models.SignalStrength(strength)
		sig.Type = models.SignalSource(signalType)
		if price.Valid {
			p := price.Float64
			sig.PriceAtSignal = &p
		}
		if components != "" {
			if err := json.Unmarshal([]byte(components), &sig.Components); err != nil {
				return nil, fmt.Errorf("decode components for %s: %w", sig.Ticker, err)
			}
		}
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // connection owned by pkg client
}
