package models

import "time"

// DisclosureKind classifies raw disclosure events flowing in from the
// collectors via Kafka.
type DisclosureKind string

const (
	KindCongressional DisclosureKind = "congressional"
	KindInsider       DisclosureKind = "insider"
	KindInstitutional DisclosureKind = "institutional"
	KindOptions       DisclosureKind = "options"
	KindWhale         DisclosureKind = "whale"
)

// DisclosureEvent is one normalized disclosure record as published by
// an external collector. Stored as-is in ClickHouse; per-ticker stats
// are aggregated from these rows at scan time.
type DisclosureEvent struct {
	Kind        DisclosureKind  `json:"kind"`
	Ticker      string          `json:"ticker"`
	Actor       string          `json:"actor"`
	Direction   SignalDirection `json:"direction"`
	Shares      int64           `json:"shares,omitempty"`
	ValueUSD    float64         `json:"value_usd,omitempty"`
	IsExecutive bool            `json:"is_executive,omitempty"`
	IsNotable   bool            `json:"is_notable,omitempty"`
	IsCluster   bool            `json:"is_cluster,omitempty"`
	// Options-only fields.
	PutCallRatio float64 `json:"put_call_ratio,omitempty"`
	Contract     string  `json:"contract,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
	IngestedAt   time.Time `json:"ingested_at"`
}

// WhaleTransfer is one large on-chain transfer observed on the whale
// websocket feed before it is normalized into a DisclosureEvent.
type WhaleTransfer struct {
	Symbol       string    `json:"symbol"`
	AmountUSD    float64   `json:"amount_usd"`
	FromExchange bool      `json:"from_exchange"`
	ToExchange   bool      `json:"to_exchange"`
	TxHash       string    `json:"tx_hash"`
	Timestamp    time.Time `json:"timestamp"`
}
