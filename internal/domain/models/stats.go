package models

// Pre-aggregated per-ticker statistics consumed by the component
// generators. Collectors (or the disclosure store) compute these over a
// lookback window; generators never see raw per-event lists.

// CongressionalStats summarizes STOCK Act disclosures for one ticker.
type CongressionalStats struct {
	TradeCount     int      `json:"trade_count"`
	BuyCount       int      `json:"buy_count"`
	SellCount      int      `json:"sell_count"`
	NotableTraders []string `json:"notable_traders"`
}

// InsiderStats summarizes Form-4 buying activity for one ticker.
type InsiderStats struct {
	IsClusterBuy  bool    `json:"is_cluster_buy"`
	InsiderCount  int     `json:"insider_count"`
	TotalValueUSD float64 `json:"total_value_usd"`
	ExecutiveBuys int     `json:"executive_buys"`
}

// InstitutionalStats summarizes 13F accumulation for one ticker.
type InstitutionalStats struct {
	FilerCount    int      `json:"filer_count"`
	TotalShares   int64    `json:"total_shares"`
	NotableFilers []string `json:"notable_filers"`
}

// OptionsStats summarizes options flow for one ticker.
type OptionsStats struct {
	PutCallRatio     float64  `json:"put_call_ratio"`
	UnusualContracts []string `json:"unusual_contracts"`
}

// WhaleStats summarizes exchange flow for one crypto asset.
type WhaleStats struct {
	InflowUSD  float64 `json:"inflow_usd"`
	OutflowUSD float64 `json:"outflow_usd"`
	TxCount    int     `json:"tx_count"`
}
