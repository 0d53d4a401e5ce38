package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SmartFlow/internal/domain/models"
	pkgch "SmartFlow/pkg/clickhouse"
	applogger "SmartFlow/pkg/logger"
)

const disclosureTable = "smartflow.disclosures"

const disclosureSchema = `
CREATE TABLE IF NOT EXISTS ` + disclosureTable + ` (
    kind            LowCardinality(String),
    ticker          LowCardinality(String),
    actor           String,
    direction       LowCardinality(String),
    shares          Int64,
    value_usd       Float64,
    is_executive    UInt8,
    is_notable      UInt8,
    is_cluster      UInt8,
    put_call_ratio  Float64,
    contract        String,
    occurred_at     DateTime,
    ingested_at     DateTime
) ENGINE = MergeTree()
ORDER BY (ticker, kind, occurred_at)
TTL occurred_at + INTERVAL 2 YEAR
`

// CHDisclosureStore persists disclosure events in ClickHouse and
// aggregates the per-ticker stats the signal generators consume.
type CHDisclosureStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHDisclosureStore(ch *pkgch.Client) *CHDisclosureStore {
	return &CHDisclosureStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHDisclosureStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHDisclosureStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, disclosureSchema); err != nil {
		return fmt.Errorf("create disclosures table: %w", err)
	}
	return nil
}

func (s *CHDisclosureStore) Store(ctx context.Context, e *models.DisclosureEvent) error {
	return s.StoreBatch(ctx, []*models.DisclosureEvent{e})
}

func (s *CHDisclosureStore) StoreBatch(ctx context.Context, events []*models.DisclosureEvent) error {
	if len(events) == 0 {
		return nil
	}

	const chunkSize = 1000
	for start := 0; start < len(events); start += chunkSize {
		end := start + chunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*13)
		for _, e := range events[start:end] {
			if e == nil || e.Ticker == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				string(e.Kind),
				e.Ticker,
				e.Actor,
				string(e.Direction),
				e.Shares,
				e.ValueUSD,
				boolToUInt8(e.IsExecutive),
				boolToUInt8(e.IsNotable),
				boolToUInt8(e.IsCluster),
				e.PutCallRatio,
				e.Contract,
				e.OccurredAt,
				e.IngestedAt,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf(
			"INSERT INTO %s (kind, ticker, actor, direction, shares, value_usd, is_executive, is_notable, is_cluster, put_call_ratio, contract, occurred_at, ingested_at) VALUES %s",
			disclosureTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse disclosure insert error",
					applogger.Int("rows", len(values)),
					applogger.Error(err))
			}
			return fmt.Errorf("insert disclosures: %w", err)
		}
	}
	return nil
}

// CongressionalStats aggregates congressional trades since the cutoff.
// No trades yields nil stats.
func (s *CHDisclosureStore) CongressionalStats(ctx context.Context, ticker string, since time.Time) (*models.CongressionalStats, error) {
	const q = `
        SELECT
            count() AS trade_count,
            countIf(direction = 'BUY') AS buys,
            countIf(direction = 'SELL') AS sells
        FROM ` + disclosureTable + `
        WHERE kind = 'congressional' AND ticker = ? AND occurred_at >= ?
    `
	var stats models.CongressionalStats
	row := s.db.QueryRowContext(ctx, q, ticker, since)
	if err := row.Scan(&stats.TradeCount, &stats.BuyCount, &stats.SellCount); err != nil {
		return nil, fmt.Errorf("congressional stats: %w", err)
	}
	if stats.TradeCount == 0 {
		return nil, nil
	}

	traders, err := s.distinctActors(ctx, models.KindCongressional, ticker, since, false)
	if err != nil {
		return nil, err
	}
	stats.NotableTraders = traders
	return &stats, nil
}

// InsiderStats aggregates insider purchases since the cutoff.
func (s *CHDisclosureStore) InsiderStats(ctx context.Context, ticker string, since time.Time) (*models.InsiderStats, error) {
	const q = `
        SELECT
            uniqExact(actor) AS insiders,
            sum(value_usd) AS total_value,
            uniqExactIf(actor, is_executive = 1) AS exec_buys,
            max(is_cluster) AS cluster_flag
        FROM ` + disclosureTable + `
        WHERE kind = 'insider' AND ticker = ? AND direction = 'BUY' AND occurred_at >= ?
    `
	var (
		stats       models.InsiderStats
		clusterFlag uint8
	)
	row := s.db.QueryRowContext(ctx, q, ticker, since)
	if err := row.Scan(&stats.InsiderCount, &stats.TotalValueUSD, &stats.ExecutiveBuys, &clusterFlag); err != nil {
		return nil, fmt.Errorf("insider stats: %w", err)
	}
	if stats.InsiderCount == 0 {
		return nil, nil
	}
	stats.IsClusterBuy = clusterFlag == 1 || stats.InsiderCount >= 2
	return &stats, nil
}

// InstitutionalStats aggregates 13F accumulation since the cutoff.
func (s *CHDisclosureStore) InstitutionalStats(ctx context.Context, ticker string, since time.Time) (*models.InstitutionalStats, error) {
	const q = `
        SELECT
            uniqExact(actor) AS filers,
            sum(shares) AS total_shares
        FROM ` + disclosureTable + `
        WHERE kind = 'institutional' AND ticker = ? AND direction = 'BUY' AND occurred_at >= ?
    `
	var stats models.InstitutionalStats
	row := s.db.QueryRowContext(ctx, q, ticker, since)
	if err := row.Scan(&stats.FilerCount, &stats.TotalShares); err != nil {
		return nil, fmt.Errorf("institutional stats: %w", err)
	}
	if stats.FilerCount == 0 {
		return nil, nil
	}

	notable, err := s.distinctActors(ctx, models.KindInstitutional, ticker, since, true)
	if err != nil {
		return nil, err
	}
	stats.NotableFilers = notable
	return &stats, nil
}

// OptionsStats aggregates unusual options activity since the cutoff.
func (s *CHDisclosureStore) OptionsStats(ctx context.Context, ticker string, since time.Time) (*models.OptionsStats, error) {
	const q = `
        SELECT count() AS n, avg(put_call_ratio) AS ratio
        FROM ` + disclosureTable + `
        WHERE kind = 'options' AND ticker = ? AND occurred_at >= ?
    `
	var (
		n     int
		ratio sql.NullFloat64
	)
	row := s.db.QueryRowContext(ctx, q, ticker, since)
	if err := row.Scan(&n, &ratio); err != nil {
		return nil, fmt.Errorf("options stats: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	const cq = `
        SELECT DISTINCT contract
        FROM ` + disclosureTable + `
        WHERE kind = 'options' AND ticker = ? AND occurred_at >= ? AND contract != ''
        ORDER BY contract
        LIMIT 50
    `
	rows, err := s.db.QueryContext(ctx, cq, ticker, since)
	if err != nil {
		return nil, fmt.Errorf("options contracts: %w", err)
	}
	defer rows.Close()

	var contracts []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &models.OptionsStats{
		PutCallRatio:     ratio.Float64,
		UnusualContracts: contracts,
	}, nil
}

// WhaleStats aggregates exchange flows since the cutoff. Transfers
// into exchanges were stored as SELL, transfers out as BUY.
func (s *CHDisclosureStore) WhaleStats(ctx context.Context, symbol string, since time.Time) (*models.WhaleStats, error) {
	const q = `
        SELECT
            sumIf(value_usd, direction = 'SELL') AS inflow,
            sumIf(value_usd, direction = 'BUY') AS outflow,
            count() AS tx_count
        FROM ` + disclosureTable + `
        WHERE kind = 'whale' AND ticker = ? AND occurred_at >= ?
    `
	var stats models.WhaleStats
	row := s.db.QueryRowContext(ctx, q, symbol, since)
	if err := row.Scan(&stats.InflowUSD, &stats.OutflowUSD, &stats.TxCount); err != nil {
		return nil, fmt.Errorf("whale stats: %w", err)
	}
	if stats.TxCount == 0 {
		return nil, nil
	}
	return &stats, nil
}

func (s *CHDisclosureStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHDisclosureStore) Close() error {
	return nil // connection owned by pkg client
}

func (s *CHDisclosureStore) distinctActors(ctx context.Context, kind models.DisclosureKind, ticker string, since time.Time, notableOnly bool) ([]string, error) {
	q := `
        SELECT DISTINCT actor
        FROM ` + disclosureTable + `
        WHERE kind = ? AND ticker = ? AND occurred_at >= ? AND actor != ''
    `
	if notableOnly {
		q += " AND is_notable = 1"
	}
	q += " ORDER BY actor LIMIT 10"

	rows, err := s.db.QueryContext(ctx, q, string(kind), ticker, since)
	if err != nil {
		return nil, fmt.Errorf("distinct actors: %w", err)
	}
	defer rows.Close()

	var actors []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
