package mm

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeBootstrappedState returns a state that satisfies every bootstrap
// exit condition, so tests can push it into the other modes.
func makeBootstrappedState(t *testing.T) *SymbolState {
	t.Helper()
	s, cfg := newTestState(t)
	s.TotalTrades = 25
	s.TotalVolume = 2000
	for i := 0; i < cfg.BootstrapMinSamples+5; i++ {
		s.Rolling.Push(decimal.NewFromInt(100))
	}
	s.BestBid = decimal.NewFromFloat(99.95)
	s.BestAsk = decimal.NewFromFloat(100.05)
	s.BestBidQty = 50
	s.BestAskQty = 50
	s.Mid = decimal.NewFromInt(100)
	return s
}

func TestEmergencyOverridesEverything(t *testing.T) {
	s, cfg := newTestState(t)
	// Inventory over cap, high volatility, still bootstrapping: none
	// of it matters once P&L breaches the emergency threshold.
	s.Position.Quantity = decimal.NewFromInt(5000)
	s.Volatility = decimal.NewFromFloat(0.50)
	s.PnL.Realized = decimal.NewFromInt(-1600)

	mode := s.DetermineMode(cfg)
	require.Equal(t, ModeKindEmergency, mode.Kind())
}

func TestEmergencyOnTotalPnL(t *testing.T) {
	s, cfg := newTestState(t)
	s.PnL.Realized = decimal.NewFromInt(-1000)
	s.PnL.Unrealized = decimal.NewFromInt(-1100)

	mode := s.DetermineMode(cfg)
	require.Equal(t, ModeKindEmergency, mode.Kind())
}

func TestInventoryCappedPicksDeRiskingSide(t *testing.T) {
	s := makeBootstrappedState(t)
	cfg := testConfig(t)

	s.Position.Quantity = decimal.NewFromInt(1000)
	mode := s.DetermineMode(cfg)
	capped, ok := mode.(InventoryCappedMode)
	require.True(t, ok, "mode %T", mode)
	assert.Equal(t, PositionLong, capped.Side)

	s.Position.Quantity = decimal.NewFromInt(-1000)
	mode = s.DetermineMode(cfg)
	capped, ok = mode.(InventoryCappedMode)
	require.True(t, ok)
	assert.Equal(t, PositionShort, capped.Side)
}

func TestBootstrapExitRequiresAllConditions(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		name  string
		setup func(*SymbolState)
		want  bool
	}{
		{"all conditions hold", func(*SymbolState) {}, true},
		{"trade count one short", func(s *SymbolState) { s.TotalTrades = 19 }, false},
		{"volume short", func(s *SymbolState) { s.TotalVolume = 999 }, false},
		{"too few samples", func(s *SymbolState) { s.Rolling.Reset() }, false},
		{"spread too wide", func(s *SymbolState) {
			s.BestBid = decimal.NewFromInt(98)
			s.BestAsk = decimal.NewFromInt(102)
		}, false},
		{"no bid depth", func(s *SymbolState) { s.BestBidQty = 0 }, false},
		{"no ask depth", func(s *SymbolState) { s.BestAskQty = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := makeBootstrappedState(t)
			tt.setup(s)
			assert.Equal(t, tt.want, s.ShouldExitBootstrap(cfg))
		})
	}
}

func TestBootstrapExitExample(t *testing.T) {
	// 19 trades, 1500 volume, 25 samples, 1% spread, depth on both
	// sides: the trade count alone keeps the symbol in bootstrap.
	s := makeBootstrappedState(t)
	cfg := testConfig(t)
	s.TotalTrades = 19
	s.TotalVolume = 1500
	s.BestBid = decimal.NewFromFloat(99.50)
	s.BestAsk = decimal.NewFromFloat(100.50)
	assert.False(t, s.ShouldExitBootstrap(cfg))
}

func TestStaysBootstrapUntilExit(t *testing.T) {
	s, cfg := newTestState(t)
	mode := s.DetermineMode(cfg)
	boot, ok := mode.(BootstrapMode)
	require.True(t, ok, "mode %T", mode)
	assert.Equal(t, cfg.BootstrapLevels, boot.Levels)
	assert.True(t, boot.SpreadPct.Equal(cfg.BootstrapSpreadPct))
	assert.False(t, s.Bootstrapped)
}

func TestStressedOnHighVolatility(t *testing.T) {
	s := makeBootstrappedState(t)
	cfg := testConfig(t)
	s.Volatility = decimal.NewFromFloat(0.07)

	mode := s.DetermineMode(cfg)
	require.Equal(t, ModeKindStressed, mode.Kind())
	assert.True(t, s.Bootstrapped, "mode evaluation should latch bootstrap exit")
}

func TestStressedOnInventoryWarning(t *testing.T) {
	s := makeBootstrappedState(t)
	cfg := testConfig(t)
	s.Position.Quantity = decimal.NewFromInt(800)

	mode := s.DetermineMode(cfg)
	require.Equal(t, ModeKindStressed, mode.Kind())
}

func TestNormalIsDefault(t *testing.T) {
	s := makeBootstrappedState(t)
	cfg := testConfig(t)

	mode := s.DetermineMode(cfg)
	normal, ok := mode.(NormalMode)
	require.True(t, ok, "mode %T", mode)
	assert.Equal(t, cfg.NormalLevels, normal.Levels)
}

func TestModeChangeDetection(t *testing.T) {
	s := makeBootstrappedState(t)
	cfg := testConfig(t)

	s.DetermineMode(cfg) // bootstrap -> normal
	assert.True(t, s.ModeChanged())

	s.DetermineMode(cfg) // normal -> normal
	assert.False(t, s.ModeChanged())

	s.Volatility = decimal.NewFromFloat(0.10)
	s.DetermineMode(cfg) // normal -> stressed
	assert.True(t, s.ModeChanged())
}

func TestExpectedOrders(t *testing.T) {
	assert.Equal(t, 10, ExpectedOrders(BootstrapMode{Levels: 5}))
	assert.Equal(t, 20, ExpectedOrders(NormalMode{Levels: 10}))
	assert.Equal(t, 10, ExpectedOrders(InventoryCappedMode{Side: PositionLong, Levels: 10}))
	assert.Equal(t, 0, ExpectedOrders(EmergencyMode{}))
}
