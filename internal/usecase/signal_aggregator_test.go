package usecase

import (
	"math"
	"testing"
	"time"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
)

func testSignalsConfig() *config.SignalsConfig {
	cfg := config.SignalsConfig{}.WithDefaults()
	return &cfg
}

func component(source models.SignalSource, dir models.SignalDirection, strength float64) models.SignalComponent {
	return models.SignalComponent{
		Source:    source,
		Direction: dir,
		Strength:  strength,
		Details:   string(source) + " detail",
		Timestamp: time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
	}
}

func TestAggregateEmptyComponents(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())
	if sig := agg.Aggregate("AAPL", nil, nil); sig != nil {
		t.Fatalf("expected nil signal, got %+v", sig)
	}
}

func TestAggregateFloor(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	// congressional weight 0.6 * strength 0.4 = 0.24, below the 0.5 floor
	comps := []models.SignalComponent{
		component(models.SourceCongressional, models.DirectionBuy, 0.4),
	}
	if sig := agg.Aggregate("AAPL", comps, nil); sig != nil {
		t.Fatalf("expected nil signal below floor, got %+v", sig)
	}
}

func TestAggregateTieProducesNoSignal(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	comps := []models.SignalComponent{
		component(models.SourceInstitutional, models.DirectionBuy, 0.8),
		component(models.SourceInstitutional, models.DirectionSell, 0.8),
	}
	if sig := agg.Aggregate("AAPL", comps, nil); sig != nil {
		t.Fatalf("expected nil signal on tie, got %+v", sig)
	}
}

func TestAggregateSingleStrongSource(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	// institutional 1.0 * 0.9 = 0.9, alone it can still be STRONG
	comps := []models.SignalComponent{
		component(models.SourceInstitutional, models.DirectionBuy, 1.0),
	}
	sig := agg.Aggregate("AAPL", comps, nil)
	if sig == nil {
		t.Fatal("expected signal")
	}
	if sig.Type != models.SourceInstitutional {
		t.Errorf("type = %s, want institutional", sig.Type)
	}
	wantConf := 0.9 / (0.9 + 0.1)
	if math.Abs(sig.Confidence-wantConf) > 1e-9 {
		t.Errorf("confidence = %v, want %v", sig.Confidence, wantConf)
	}
	if sig.Strength != models.StrengthStrong {
		t.Errorf("strength = %s, want STRONG", sig.Strength)
	}
}

func TestCrossSignalBonusOnlyAtTwoComponents(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	// One component of weighted score 0.9.
	single := []models.SignalComponent{
		component(models.SourceInstitutional, models.DirectionBuy, 1.0),
	}
	// Two components of weighted score 0.45 each. Same raw sum, but the
	// pair earns the 1.5x bonus so confidence must differ.
	pair := []models.SignalComponent{
		component(models.SourceInstitutional, models.DirectionBuy, 0.5),
		component(models.SourceInstitutional, models.DirectionBuy, 0.5),
	}

	sigSingle := agg.Aggregate("AAPL", single, nil)
	sigPair := agg.Aggregate("AAPL", pair, nil)
	if sigSingle == nil || sigPair == nil {
		t.Fatal("expected both signals")
	}

	wantSingle := 0.9 / (0.9 + 0.1)
	wantPair := math.Min(1.0, 1.35/(1.35+0.1))
	if math.Abs(sigSingle.Confidence-wantSingle) > 1e-9 {
		t.Errorf("single confidence = %v, want %v", sigSingle.Confidence, wantSingle)
	}
	if math.Abs(sigPair.Confidence-wantPair) > 1e-9 {
		t.Errorf("pair confidence = %v, want %v", sigPair.Confidence, wantPair)
	}
	if sigSingle.Confidence == sigPair.Confidence {
		t.Error("bonus had no effect on confidence")
	}
}

func TestAggregateEndToEndScenario(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	comps := []models.SignalComponent{
		component(models.SourceCongressional, models.DirectionBuy, 0.8), // 0.48
		component(models.SourceInsider, models.DirectionBuy, 0.9),       // 0.765
	}
	sig := agg.Aggregate("AAPL", comps, nil)
	if sig == nil {
		t.Fatal("expected signal")
	}

	// buy_score = (0.48 + 0.765) * 1.5 = 1.8675
	wantConf := math.Min(1.0, 1.8675/(1.8675+0.1))
	if math.Abs(sig.Confidence-wantConf) > 1e-9 {
		t.Errorf("confidence = %v, want %v", sig.Confidence, wantConf)
	}
	if math.Abs(sig.Confidence-0.9492) > 0.001 {
		t.Errorf("confidence = %v, want about 0.9492", sig.Confidence)
	}
	if sig.Direction != models.DirectionBuy {
		t.Errorf("direction = %s, want BUY", sig.Direction)
	}
	if sig.Strength != models.StrengthStrong {
		t.Errorf("strength = %s, want STRONG", sig.Strength)
	}
	if sig.Type != models.SourceComposite {
		t.Errorf("type = %s, want composite", sig.Type)
	}
	if len(sig.Components) != 2 {
		t.Errorf("components = %d, want 2", len(sig.Components))
	}
	wantNotes := "congressional detail | insider detail"
	if sig.Notes != wantNotes {
		t.Errorf("notes = %q, want %q", sig.Notes, wantNotes)
	}
}

func TestAggregateDiscardsLosingComponents(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	comps := []models.SignalComponent{
		component(models.SourceInstitutional, models.DirectionBuy, 1.0),
		component(models.SourceInsider, models.DirectionBuy, 0.9),
		component(models.SourceOptionsFlow, models.DirectionSell, 0.4),
	}
	sig := agg.Aggregate("AAPL", comps, nil)
	if sig == nil {
		t.Fatal("expected signal")
	}
	for _, c := range sig.Components {
		if c.Direction != models.DirectionBuy {
			t.Errorf("losing-direction component attached: %+v", c)
		}
	}
	if len(sig.Components) != 2 {
		t.Errorf("components = %d, want 2", len(sig.Components))
	}
}

func TestAggregateIdempotence(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	comps := []models.SignalComponent{
		component(models.SourceCongressional, models.DirectionBuy, 0.8),
		component(models.SourceInsider, models.DirectionBuy, 0.9),
	}
	a := agg.Aggregate("AAPL", comps, nil)
	b := agg.Aggregate("AAPL", comps, nil)
	if a == nil || b == nil {
		t.Fatal("expected signals")
	}
	if a.Ticker != b.Ticker || a.Direction != b.Direction ||
		a.Confidence != b.Confidence || a.Strength != b.Strength ||
		a.Type != b.Type || a.Notes != b.Notes {
		t.Errorf("aggregation not deterministic: %+v vs %+v", a, b)
	}
}

func TestAggregateExpiry(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	comps := []models.SignalComponent{
		component(models.SourceInstitutional, models.DirectionBuy, 1.0),
	}
	sig := agg.Aggregate("AAPL", comps, nil)
	if sig == nil {
		t.Fatal("expected signal")
	}
	wantExpiry := sig.GeneratedAt.AddDate(0, 0, 30)
	if !sig.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expires_at = %v, want %v", sig.ExpiresAt, wantExpiry)
	}
}

func TestRank(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	mk := func(ticker string, conf float64) *models.TradingSignal {
		return &models.TradingSignal{Ticker: ticker, Confidence: conf}
	}
	in := []*models.TradingSignal{
		mk("LOW", 0.55), mk("HIGH", 0.95), mk("MIDA", 0.7), mk("MIDB", 0.7),
	}
	ranked := agg.Rank(in)

	wantOrder := []string{"HIGH", "MIDA", "MIDB", "LOW"}
	for i, want := range wantOrder {
		if ranked[i].Ticker != want {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].Ticker, want)
		}
	}
	// input slice untouched
	if in[0].Ticker != "LOW" {
		t.Error("Rank mutated its input")
	}
}

func TestScore(t *testing.T) {
	agg := NewSignalAggregator(testSignalsConfig())

	sig := &models.TradingSignal{
		Confidence: 0.9492,
		Strength:   models.StrengthStrong,
		Components: []models.SignalComponent{
			component(models.SourceCongressional, models.DirectionBuy, 0.8),
			component(models.SourceInsider, models.DirectionBuy, 0.9),
		},
	}
	got := agg.Score(sig)
	want := math.Min(100.0, 0.9492*60+2*10+20)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("score = %v, want %v", got, want)
	}

	weak := &models.TradingSignal{
		Confidence: 1.0,
		Strength:   models.StrengthStrong,
		Components: []models.SignalComponent{
			component(models.SourceInstitutional, models.DirectionBuy, 1.0),
			component(models.SourceInsider, models.DirectionBuy, 1.0),
			component(models.SourceCongressional, models.DirectionBuy, 1.0),
		},
	}
	if got := agg.Score(weak); got != 100.0 {
		t.Errorf("score = %v, want capped 100", got)
	}
}
