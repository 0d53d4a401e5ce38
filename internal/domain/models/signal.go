package models

import "time"

// SignalSource identifies the evidence source behind a component.
type SignalSource string

const (
	SourceInstitutional SignalSource = "institutional"
	SourceInsider       SignalSource = "insider"
	SourceCongressional SignalSource = "congressional"
	SourceOptionsFlow   SignalSource = "options_flow"
	SourceCryptoWhale   SignalSource = "crypto_whale"
	// SourceComposite marks signals built from two or more agreeing components.
	SourceComposite SignalSource = "composite"
)

// SignalDirection is the directional opinion of a component or signal.
type SignalDirection string

const (
	DirectionBuy  SignalDirection = "BUY"
	DirectionSell SignalDirection = "SELL"
	DirectionHold SignalDirection = "HOLD"
)

// SignalStrength classifies confidence into coarse buckets.
type SignalStrength string

const (
	StrengthWeak     SignalStrength = "WEAK"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthStrong   SignalStrength = "STRONG"
)

// StrengthFromConfidence maps confidence to its strength bucket.
func StrengthFromConfidence(confidence float64) SignalStrength {
	switch {
	case confidence >= 0.8:
		return StrengthStrong
	case confidence >= 0.6:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// ComponentData carries the typed per-source inputs a generator saw.
// Exactly one pointer is set, matching the component's Source.
type ComponentData struct {
	Congressional *CongressionalStats `json:"congressional,omitempty"`
	Insider       *InsiderStats       `json:"insider,omitempty"`
	Institutional *InstitutionalStats `json:"institutional,omitempty"`
	Options       *OptionsStats       `json:"options,omitempty"`
	Whale         *WhaleStats         `json:"whale,omitempty"`
}

// SignalComponent is one source's opinion about one ticker.
// Strength is always clamped to [0,1]; generators never emit a
// component for "no opinion".
type SignalComponent struct {
	Source    SignalSource    `json:"source"`
	Direction SignalDirection `json:"direction"`
	Strength  float64         `json:"strength"`
	Details   string          `json:"details"`
	Timestamp time.Time       `json:"timestamp"`
	Data      ComponentData   `json:"data"`
	Debug     string          `json:"debug,omitempty"`
}

// TradingSignal is the aggregated, ticker-level conclusion.
// Direction is BUY or SELL only; no actionable signal is
// represented by absence, never by HOLD.
type TradingSignal struct {
	Ticker        string            `json:"ticker"`
	Direction     SignalDirection   `json:"direction"`
	Confidence    float64           `json:"confidence"`
	Strength      SignalStrength    `json:"strength"`
	Type          SignalSource      `json:"signal_type"`
	Components    []SignalComponent `json:"components"`
	GeneratedAt   time.Time         `json:"generated_at"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Notes         string            `json:"notes"`
	PriceAtSignal *float64          `json:"price_at_signal,omitempty"`
}
