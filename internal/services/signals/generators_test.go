package signals

import (
	"strings"
	"testing"

	"SmartFlow/internal/domain/models"
	"SmartFlow/pkg/config"
)

func testConfig() *config.SignalsConfig {
	cfg := config.SignalsConfig{}.WithDefaults()
	return &cfg
}

func TestCongressionalGenerate(t *testing.T) {
	g := NewCongressionalGenerator(testConfig())

	tests := []struct {
		name      string
		stats     models.CongressionalStats
		wantNil   bool
		direction models.SignalDirection
		strength  float64
	}{
		{
			name:    "below minimum trades",
			stats:   models.CongressionalStats{TradeCount: 1, BuyCount: 1},
			wantNil: true,
		},
		{
			name:    "balanced buys and sells",
			stats:   models.CongressionalStats{TradeCount: 6, BuyCount: 3, SellCount: 3},
			wantNil: true,
		},
		{
			name:      "net buying",
			stats:     models.CongressionalStats{TradeCount: 5, BuyCount: 4, SellCount: 1},
			direction: models.DirectionBuy,
			strength:  0.6,
		},
		{
			name:      "net selling",
			stats:     models.CongressionalStats{TradeCount: 4, BuyCount: 1, SellCount: 3},
			direction: models.DirectionSell,
			strength:  0.4,
		},
		{
			name: "notable trader bonus",
			stats: models.CongressionalStats{
				TradeCount: 4, BuyCount: 3, SellCount: 1,
				NotableTraders: []string{"N. Pelosi"},
			},
			direction: models.DirectionBuy,
			strength:  0.55,
		},
		{
			name:      "extreme net clamps to one",
			stats:     models.CongressionalStats{TradeCount: 100, BuyCount: 100},
			direction: models.DirectionBuy,
			strength:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := g.Generate("AAPL", tt.stats)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if comp != nil {
					t.Fatalf("expected no component, got %+v", comp)
				}
				return
			}
			if comp == nil {
				t.Fatal("expected component, got nil")
			}
			if comp.Direction != tt.direction {
				t.Errorf("direction = %s, want %s", comp.Direction, tt.direction)
			}
			if !almostEqual(comp.Strength, tt.strength) {
				t.Errorf("strength = %v, want %v", comp.Strength, tt.strength)
			}
			if comp.Strength < 0 || comp.Strength > 1 {
				t.Errorf("strength out of range: %v", comp.Strength)
			}
		})
	}
}

func TestCongressionalGenerateValidation(t *testing.T) {
	g := NewCongressionalGenerator(testConfig())

	if _, err := g.Generate("", models.CongressionalStats{TradeCount: 3, BuyCount: 3}); err == nil {
		t.Error("expected error for empty ticker")
	}
	if _, err := g.Generate("AAPL", models.CongressionalStats{TradeCount: -1}); err == nil {
		t.Error("expected error for negative counts")
	}
}

func TestCongressionalDetails(t *testing.T) {
	g := NewCongressionalGenerator(testConfig())

	comp, err := g.Generate("NVDA", models.CongressionalStats{
		TradeCount: 5, BuyCount: 4, SellCount: 1,
		NotableTraders: []string{"A", "B", "C"},
	})
	if err != nil || comp == nil {
		t.Fatalf("Generate: comp=%v err=%v", comp, err)
	}
	want := "Congress bought 3 net (4 buys, 1 sells) by A, B"
	if comp.Details != want {
		t.Errorf("details = %q, want %q", comp.Details, want)
	}
}

func TestInsiderGenerate(t *testing.T) {
	g := NewInsiderGenerator(testConfig())

	tests := []struct {
		name     string
		stats    models.InsiderStats
		wantNil  bool
		strength float64
	}{
		{
			name:    "not a cluster buy",
			stats:   models.InsiderStats{IsClusterBuy: false, InsiderCount: 5},
			wantNil: true,
		},
		{
			name:    "cluster below minimum count",
			stats:   models.InsiderStats{IsClusterBuy: true, InsiderCount: 2},
			wantNil: true,
		},
		{
			name:     "base cluster",
			stats:    models.InsiderStats{IsClusterBuy: true, InsiderCount: 3, TotalValueUSD: 100_000},
			strength: 0.75,
		},
		{
			name:     "mid value boost",
			stats:    models.InsiderStats{IsClusterBuy: true, InsiderCount: 3, TotalValueUSD: 600_000},
			strength: 0.85,
		},
		{
			name:     "large value boost",
			stats:    models.InsiderStats{IsClusterBuy: true, InsiderCount: 3, TotalValueUSD: 2_000_000},
			strength: 0.95,
		},
		{
			name: "executive boost clamps",
			stats: models.InsiderStats{
				IsClusterBuy: true, InsiderCount: 6,
				TotalValueUSD: 5_000_000, ExecutiveBuys: 4,
			},
			strength: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := g.Generate("AAPL", tt.stats)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if comp != nil {
					t.Fatalf("expected no component, got %+v", comp)
				}
				return
			}
			if comp == nil {
				t.Fatal("expected component, got nil")
			}
			if comp.Direction != models.DirectionBuy {
				t.Errorf("direction = %s, want BUY", comp.Direction)
			}
			if !almostEqual(comp.Strength, tt.strength) {
				t.Errorf("strength = %v, want %v", comp.Strength, tt.strength)
			}
		})
	}
}

func TestInsiderDetails(t *testing.T) {
	g := NewInsiderGenerator(testConfig())

	comp, err := g.Generate("MSFT", models.InsiderStats{
		IsClusterBuy: true, InsiderCount: 4,
		TotalValueUSD: 1_250_000, ExecutiveBuys: 2,
	})
	if err != nil || comp == nil {
		t.Fatalf("Generate: comp=%v err=%v", comp, err)
	}
	want := "Cluster buy: 4 insiders purchased $1,250,000 (2 executives)"
	if comp.Details != want {
		t.Errorf("details = %q, want %q", comp.Details, want)
	}
}

func TestInstitutionalGenerate(t *testing.T) {
	g := NewInstitutionalGenerator(testConfig())

	tests := []struct {
		name     string
		stats    models.InstitutionalStats
		wantNil  bool
		strength float64
	}{
		{
			name:    "below minimum filers",
			stats:   models.InstitutionalStats{FilerCount: 1},
			wantNil: true,
		},
		{
			name:     "two filers",
			stats:    models.InstitutionalStats{FilerCount: 2, TotalShares: 10_000},
			strength: 0.4,
		},
		{
			name:     "five filers",
			stats:    models.InstitutionalStats{FilerCount: 5, TotalShares: 10_000},
			strength: 0.7,
		},
		{
			name: "notable boost capped at 0.2",
			stats: models.InstitutionalStats{
				FilerCount: 2, TotalShares: 10_000,
				NotableFilers: []string{"A", "B", "C", "D", "E", "F"},
			},
			strength: 0.6,
		},
		{
			name:     "many filers clamp to one",
			stats:    models.InstitutionalStats{FilerCount: 20, TotalShares: 10_000},
			strength: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := g.Generate("AAPL", tt.stats)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if comp != nil {
					t.Fatalf("expected no component, got %+v", comp)
				}
				return
			}
			if comp == nil {
				t.Fatal("expected component, got nil")
			}
			if comp.Direction != models.DirectionBuy {
				t.Errorf("direction = %s, want BUY", comp.Direction)
			}
			if !almostEqual(comp.Strength, tt.strength) {
				t.Errorf("strength = %v, want %v", comp.Strength, tt.strength)
			}
		})
	}
}

func TestInstitutionalDetails(t *testing.T) {
	g := NewInstitutionalGenerator(testConfig())

	comp, err := g.Generate("TSLA", models.InstitutionalStats{
		FilerCount:    3,
		TotalShares:   1_500_000,
		NotableFilers: []string{"Berkshire", "Bridgewater", "Citadel", "Renaissance"},
	})
	if err != nil || comp == nil {
		t.Fatalf("Generate: comp=%v err=%v", comp, err)
	}
	want := "3 institutions accumulated 1,500,000 shares (including Berkshire, Bridgewater, Citadel)"
	if comp.Details != want {
		t.Errorf("details = %q, want %q", comp.Details, want)
	}
}

func TestOptionsGenerate(t *testing.T) {
	g := NewOptionsGenerator(testConfig())

	tests := []struct {
		name      string
		stats     models.OptionsStats
		wantNil   bool
		direction models.SignalDirection
		strength  float64
	}{
		{
			name:    "no unusual activity",
			stats:   models.OptionsStats{PutCallRatio: 0.2},
			wantNil: true,
		},
		{
			name:    "dead zone lower edge",
			stats:   models.OptionsStats{PutCallRatio: 0.5, UnusualContracts: []string{"c1"}},
			wantNil: true,
		},
		{
			name:    "dead zone upper edge",
			stats:   models.OptionsStats{PutCallRatio: 1.2, UnusualContracts: []string{"c1"}},
			wantNil: true,
		},
		{
			name:      "call heavy",
			stats:     models.OptionsStats{PutCallRatio: 0.3, UnusualContracts: []string{"c1", "c2"}},
			direction: models.DirectionBuy,
			strength:  0.9, // (0.7-0.3)*2 + 2*0.05
		},
		{
			name:      "put heavy",
			stats:     models.OptionsStats{PutCallRatio: 1.6, UnusualContracts: []string{"p1"}},
			direction: models.DirectionSell,
			strength:  0.35, // (1.6-1.0)*0.5 + 0.05
		},
		{
			name: "unusual boost clamps",
			stats: models.OptionsStats{
				PutCallRatio:     0.1,
				UnusualContracts: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
			},
			direction: models.DirectionBuy,
			strength:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := g.Generate("AAPL", tt.stats)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if comp != nil {
					t.Fatalf("expected no component, got %+v", comp)
				}
				return
			}
			if comp == nil {
				t.Fatal("expected component, got nil")
			}
			if comp.Direction != tt.direction {
				t.Errorf("direction = %s, want %s", comp.Direction, tt.direction)
			}
			if !almostEqual(comp.Strength, tt.strength) {
				t.Errorf("strength = %v, want %v", comp.Strength, tt.strength)
			}
		})
	}
}

func TestOptionsDetails(t *testing.T) {
	g := NewOptionsGenerator(testConfig())

	comp, err := g.Generate("AMD", models.OptionsStats{
		PutCallRatio:     0.25,
		UnusualContracts: []string{"c1", "c2", "c3"},
	})
	if err != nil || comp == nil {
		t.Fatalf("Generate: comp=%v err=%v", comp, err)
	}
	if !strings.Contains(comp.Details, "Options flow bullish: P/C ratio 0.25, 3 unusual contracts") {
		t.Errorf("unexpected details: %q", comp.Details)
	}
}

func TestWhaleGenerate(t *testing.T) {
	g := NewWhaleGenerator(testConfig())

	tests := []struct {
		name      string
		stats     models.WhaleStats
		wantNil   bool
		direction models.SignalDirection
		strength  float64
	}{
		{
			name:    "no transfers",
			stats:   models.WhaleStats{OutflowUSD: 10_000_000},
			wantNil: true,
		},
		{
			name:    "neutral band",
			stats:   models.WhaleStats{InflowUSD: 100_000, OutflowUSD: 200_000, TxCount: 3},
			wantNil: true,
		},
		{
			name:      "net outflow is accumulation",
			stats:     models.WhaleStats{InflowUSD: 0, OutflowUSD: 2_500_000, TxCount: 4},
			direction: models.DirectionBuy,
			strength:  0.5,
		},
		{
			name:      "net inflow is distribution",
			stats:     models.WhaleStats{InflowUSD: 2_500_000, OutflowUSD: 0, TxCount: 4},
			direction: models.DirectionSell,
			strength:  0.5,
		},
		{
			name:      "huge flow clamps",
			stats:     models.WhaleStats{OutflowUSD: 50_000_000, TxCount: 9},
			direction: models.DirectionBuy,
			strength:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp, err := g.Generate("ETH", tt.stats)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if comp != nil {
					t.Fatalf("expected no component, got %+v", comp)
				}
				return
			}
			if comp == nil {
				t.Fatal("expected component, got nil")
			}
			if comp.Direction != tt.direction {
				t.Errorf("direction = %s, want %s", comp.Direction, tt.direction)
			}
			if !almostEqual(comp.Strength, tt.strength) {
				t.Errorf("strength = %v, want %v", comp.Strength, tt.strength)
			}
		})
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
