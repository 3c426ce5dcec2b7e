package mm

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"main/internal/ops"
	"main/internal/schema"
)

func testConfig(t *testing.T) *ops.Config {
	t.Helper()
	cfg := ops.Default()
	return &cfg
}

func newTestState(t *testing.T) (*SymbolState, *ops.Config) {
	t.Helper()
	cfg := testConfig(t)
	return NewSymbolState(1, decimal.NewFromInt(100), cfg, time.Unix(0, 0)), cfg
}

func TestBuyFillOpensPosition(t *testing.T) {
	s, _ := newTestState(t)
	s.Mid = decimal.NewFromInt(100)

	s.ApplyFill(schema.SideBid, 10, decimal.NewFromFloat(99.95))

	assert.True(t, s.Position.Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, s.Position.AvgEntryPrice.Equal(decimal.NewFromFloat(99.95)))
	assert.True(t, s.PnL.Realized.IsZero())
	// unrealized = (100 - 99.95) * 10 = 0.5
	assert.True(t, s.PnL.Unrealized.Equal(decimal.NewFromFloat(0.5)), "unrealized %s", s.PnL.Unrealized)
}

func TestSellFillRealizesSpread(t *testing.T) {
	s, _ := newTestState(t)
	s.Mid = decimal.NewFromInt(100)
	s.ApplyFill(schema.SideBid, 10, decimal.NewFromFloat(99.95))

	s.ApplyFill(schema.SideAsk, 10, decimal.NewFromFloat(100.05))

	assert.True(t, s.PnL.Realized.Equal(decimal.NewFromInt(1)), "realized %s", s.PnL.Realized)
	assert.True(t, s.Position.Quantity.IsZero())
	assert.True(t, s.PnL.Unrealized.IsZero(), "flat position must carry zero unrealized")
}

func TestFlatPositionAlwaysZeroUnrealized(t *testing.T) {
	s, _ := newTestState(t)
	s.Mid = decimal.NewFromInt(100)

	fills := []struct {
		side  schema.Side
		qty   int64
		price float64
	}{
		{schema.SideBid, 5, 99.90},
		{schema.SideAsk, 5, 100.10},
		{schema.SideBid, 20, 100.00},
		{schema.SideAsk, 20, 99.80},
		{schema.SideBid, 3, 101.00},
		{schema.SideAsk, 3, 101.00},
	}
	for _, f := range fills {
		s.ApplyFill(f.side, f.qty, decimal.NewFromFloat(f.price))
		if s.Position.Quantity.IsZero() {
			assert.True(t, s.PnL.Unrealized.IsZero(), "qty==0 must force unrealized==0")
		}
	}
}

func TestAvgEntryOnlyChangesOnSameDirectionIncrease(t *testing.T) {
	s, _ := newTestState(t)
	s.Mid = decimal.NewFromInt(100)

	s.ApplyFill(schema.SideBid, 10, decimal.NewFromInt(100))
	s.ApplyFill(schema.SideBid, 10, decimal.NewFromInt(102))
	// blended: (10*100 + 10*102) / 20 = 101
	assert.True(t, s.Position.AvgEntryPrice.Equal(decimal.NewFromInt(101)), "avg %s", s.Position.AvgEntryPrice)

	// Reducing the position must not move the average entry.
	s.ApplyFill(schema.SideAsk, 5, decimal.NewFromInt(105))
	assert.True(t, s.Position.AvgEntryPrice.Equal(decimal.NewFromInt(101)))

	s.ApplyFill(schema.SideAsk, 15, decimal.NewFromInt(105))
	assert.True(t, s.Position.Quantity.IsZero())
	assert.True(t, s.Position.AvgEntryPrice.Equal(decimal.NewFromInt(101)), "flattening must not touch avg entry")
}

func TestUnknownFillSideIsNoop(t *testing.T) {
	s, _ := newTestState(t)
	s.ApplyFill(schema.SideUnknown, 10, decimal.NewFromInt(100))
	assert.True(t, s.Position.Quantity.IsZero())
	assert.True(t, s.PnL.Realized.IsZero())
	assert.True(t, s.PnL.Unrealized.IsZero())
}
