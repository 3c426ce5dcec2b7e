package mm

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/ops"
	"main/internal/pricing"
)

// LadderLevel is one quote slot. Index 0 is innermost.
type LadderLevel struct {
	Price decimal.Decimal
	Size  int64
	Index int
}

// Ladder is the ephemeral target quote set for one management cycle.
// It is rebuilt every cycle and never persisted.
type Ladder struct {
	Bids []LadderLevel
	Asks []LadderLevel
}

// BuildLadder dispatches on the concrete mode variant. Emergency
// yields an empty ladder: pending orders are driven out by the
// cancellation triggers, not by reconciliation.
func BuildLadder(mode Mode, s *SymbolState, model pricing.Model, cfg *ops.Config) (Ladder, error) {
	switch m := mode.(type) {
	case BootstrapMode:
		return buildBootstrapLadder(m, s, cfg), nil
	case NormalMode:
		return buildNormalLadder(m, s, model, cfg)
	case StressedMode:
		return buildStressedLadder(m, s, model, cfg)
	case InventoryCappedMode:
		return buildCappedLadder(m, s, model, cfg)
	case EmergencyMode:
		return Ladder{}, nil
	default:
		return Ladder{}, errors.New("unhandled quoting mode")
	}
}

// buildBootstrapLadder centers on the reference price rather than the
// live mid: in bootstrap the mid is by definition untrustworthy.
func buildBootstrapLadder(m BootstrapMode, s *SymbolState, cfg *ops.Config) Ladder {
	half := m.SpreadPct.Mul(s.ReferencePrice).Div(decimal.NewFromInt(2))
	bidBase := s.ReferencePrice.Sub(half)
	askBase := s.ReferencePrice.Add(half)

	ladder := Ladder{
		Bids: make([]LadderLevel, 0, m.Levels),
		Asks: make([]LadderLevel, 0, m.Levels),
	}
	for i := 0; i < m.Levels; i++ {
		step := cfg.TickSize.Mul(decimal.NewFromInt(int64(i)))
		size := decaySize(cfg.BootstrapBaseSize, cfg.BootstrapSizeDecay, i, cfg.MinLevelSize)
		ladder.Bids = append(ladder.Bids, LadderLevel{Price: bidBase.Sub(step), Size: size, Index: i})
		ladder.Asks = append(ladder.Asks, LadderLevel{Price: askBase.Add(step), Size: size, Index: i})
	}
	return ladder
}

func buildNormalLadder(m NormalMode, s *SymbolState, model pricing.Model, cfg *ops.Config) (Ladder, error) {
	bidCenter, askCenter, err := modelQuotes(s, model)
	if err != nil {
		return Ladder{}, err
	}

	bidSize, askSize := s.ComputeQuoteSizes(cfg)
	ladder := Ladder{}
	for i := 0; i < m.Levels; i++ {
		step := cfg.TickSize.Mul(decimal.NewFromInt(int64(i)))
		if bidSize > 0 {
			size := decaySize(bidSize, m.SizeDecay, i, cfg.MinLevelSize)
			ladder.Bids = append(ladder.Bids, LadderLevel{Price: bidCenter.Sub(step), Size: size, Index: i})
		}
		if askSize > 0 {
			size := decaySize(askSize, m.SizeDecay, i, cfg.MinLevelSize)
			ladder.Asks = append(ladder.Asks, LadderLevel{Price: askCenter.Add(step), Size: size, Index: i})
		}
	}
	return ladder, nil
}

// buildStressedLadder widens the model spread by (mult-1)/2 per side
// and quotes smaller, faster-decaying sizes.
func buildStressedLadder(m StressedMode, s *SymbolState, model pricing.Model, cfg *ops.Config) (Ladder, error) {
	bidCenter, askCenter, err := modelQuotes(s, model)
	if err != nil {
		return Ladder{}, err
	}

	spread := askCenter.Sub(bidCenter)
	widen := m.SpreadMult.Sub(decimal.NewFromInt(1)).Div(decimal.NewFromInt(2)).Mul(spread)
	bidBase := bidCenter.Sub(widen)
	askBase := askCenter.Add(widen)

	ladder := Ladder{
		Bids: make([]LadderLevel, 0, m.Levels),
		Asks: make([]LadderLevel, 0, m.Levels),
	}
	for i := 0; i < m.Levels; i++ {
		step := cfg.TickSize.Mul(decimal.NewFromInt(int64(i)))
		size := decaySize(cfg.StressedBaseSize, cfg.StressedSizeDecay, i, cfg.MinLevelSize)
		ladder.Bids = append(ladder.Bids, LadderLevel{Price: bidBase.Sub(step), Size: size, Index: i})
		ladder.Asks = append(ladder.Asks, LadderLevel{Price: askBase.Add(step), Size: size, Index: i})
	}
	return ladder, nil
}

// buildCappedLadder populates only the de-risking side: asks when
// long, bids when short.
func buildCappedLadder(m InventoryCappedMode, s *SymbolState, model pricing.Model, cfg *ops.Config) (Ladder, error) {
	bidCenter, askCenter, err := modelQuotes(s, model)
	if err != nil {
		return Ladder{}, err
	}

	ladder := Ladder{}
	for i := 0; i < m.Levels; i++ {
		step := cfg.TickSize.Mul(decimal.NewFromInt(int64(i)))
		size := decaySize(cfg.CappedBaseSize, cfg.CappedSizeDecay, i, cfg.MinLevelSize)
		if m.Side == PositionLong {
			ladder.Asks = append(ladder.Asks, LadderLevel{Price: askCenter.Add(step), Size: size, Index: i})
		} else {
			ladder.Bids = append(ladder.Bids, LadderLevel{Price: bidCenter.Sub(step), Size: size, Index: i})
		}
	}
	return ladder, nil
}

func modelQuotes(s *SymbolState, model pricing.Model) (decimal.Decimal, decimal.Decimal, error) {
	bid, ask, err := model.Quotes(pricing.QuoteInput{
		Mid:            s.Mid,
		Inventory:      s.Position.Quantity,
		RiskAversion:   s.RiskAversion,
		Volatility:     s.Volatility,
		TimeToTerminal: s.TimeToTerminal,
		LiquidityK:     s.LiquidityK,
	})
	if err != nil {
		return decimal.Zero, decimal.Zero, errors.Wrap(err, "could not calculate quotes")
	}
	return bid, ask, nil
}

func decaySize(base int64, decay float64, level int, minSize int64) int64 {
	size := int64(math.Round(float64(base) * math.Pow(decay, float64(level))))
	if size < minSize {
		return minSize
	}
	return size
}
