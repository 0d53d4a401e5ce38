package models

// Requests for signal HTTP endpoints. Defined in domain for consistency and reuse.

type ListSignalsRequest struct {
	Ticker        string  `query:"ticker" json:"ticker"`
	MinConfidence float64 `query:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1"`
	Limit         int     `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type ScanRequest struct {
	Tickers      []string `json:"tickers"`
	LookbackDays int      `json:"lookback_days" default:"30" validate:"gte=1,lte=365"`
	TopN         int      `json:"top_n" default:"20" validate:"gte=1,lte=200"`
}

type BacktestRequest struct {
	Tickers       []string `json:"tickers"`
	MinConfidence float64  `json:"min_confidence" validate:"gte=0,lte=1"`
	Limit         int      `json:"limit" default:"100" validate:"gte=1,lte=1000"`
	// Since accepts RFC3339, plain date, or unix seconds. Empty means no cutoff.
	Since string `json:"since"`
}
