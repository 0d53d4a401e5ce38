package models

import "time"

// PricePoint is one daily bar of a historical price series.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// BacktestResult is the historical outcome for one signal.
// Horizon returns are nil when the series does not extend far
// enough; IsWinner is decided strictly by the 30-day return sign
// and left nil when that return is unavailable.
type BacktestResult struct {
	Ticker        string          `json:"ticker"`
	SignalDate    time.Time       `json:"signal_date"`
	Direction     SignalDirection `json:"direction"`
	Confidence    float64         `json:"confidence"`
	PriceAtSignal float64         `json:"price_at_signal"`

	PriceAfter1d  *float64 `json:"price_after_1d,omitempty"`
	PriceAfter7d  *float64 `json:"price_after_7d,omitempty"`
	PriceAfter30d *float64 `json:"price_after_30d,omitempty"`
	Return1d      *float64 `json:"return_1d,omitempty"`
	Return7d      *float64 `json:"return_7d,omitempty"`
	Return30d     *float64 `json:"return_30d,omitempty"`

	IsWinner    *bool    `json:"is_winner,omitempty"`
	MaxGain     *float64 `json:"max_gain,omitempty"`
	MaxDrawdown *float64 `json:"max_drawdown,omitempty"`
}

// BacktestSummary aggregates statistics over a result set. All rate
// and mean fields cover only results with a computable 30d return.
type BacktestSummary struct {
	TotalSignals int     `json:"total_signals"`
	Winners      int     `json:"winners"`
	Losers       int     `json:"losers"`
	WinRate      float64 `json:"win_rate"`

	AvgReturn1d  float64 `json:"avg_return_1d"`
	AvgReturn7d  float64 `json:"avg_return_7d"`
	AvgReturn30d float64 `json:"avg_return_30d"`

	BestReturn30d   float64 `json:"best_return_30d"`
	WorstReturn30d  float64 `json:"worst_return_30d"`
	AvgWinnerReturn float64 `json:"avg_winner_return"`
	AvgLoserReturn  float64 `json:"avg_loser_return"`

	SharpeRatio  *float64 `json:"sharpe_ratio,omitempty"`
	ProfitFactor *float64 `json:"profit_factor,omitempty"`
}
