package mm

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/ops"
	"main/internal/schema"
)

var (
	ErrSymbolNotFound          = errors.New("symbol not found")
	ErrCouldNotCalculateQuotes = errors.New("could not calculate quotes")
)

// SymbolState is the per-instrument market and risk snapshot. It is
// exclusively owned by the engine loop; no locking required.
type SymbolState struct {
	Symbol         schema.SymbolID
	ReferencePrice decimal.Decimal

	BestBid    decimal.Decimal
	BestAsk    decimal.Decimal
	BestBidQty int64
	BestAskQty int64

	// Previous top-of-book, kept to detect trades and depth collapse
	// before the next feed update overwrites them.
	PrevBestBid    decimal.Decimal
	PrevBestAsk    decimal.Decimal
	PrevBestBidQty int64
	PrevBestAskQty int64
	PrevMid        decimal.Decimal

	Mid        decimal.Decimal
	Volatility decimal.Decimal
	UpdatedAt  int64

	Rolling *RollingWindow

	Position Position
	PnL      PnL

	// Bootstrap trade inference counters. These are a heuristic proxy
	// for trade detection, not ground truth.
	TotalTrades  int64
	TotalVolume  int64
	Bootstrapped bool

	LastSampleTime     time.Time
	LastVolatilityCalc time.Time
	LastCycleTime      time.Time

	RiskAversion   decimal.Decimal
	TimeToTerminal decimal.Decimal
	LiquidityK     decimal.Decimal

	CurrentMode Mode
	PrevMode    Mode
}

// NewSymbolState activates a symbol at its reference (listing) price.
func NewSymbolState(symbol schema.SymbolID, reference decimal.Decimal, cfg *ops.Config, now time.Time) *SymbolState {
	return &SymbolState{
		Symbol:             symbol,
		ReferencePrice:     reference,
		BestBid:            reference,
		BestAsk:            reference,
		PrevMid:            reference,
		Mid:                reference,
		Rolling:            NewRollingWindow(cfg.RollingCapacity),
		LastSampleTime:     now,
		LastVolatilityCalc: now,
		LastCycleTime:      now,
		RiskAversion:       cfg.RiskAversion,
		TimeToTerminal:     cfg.TimeToTerminal,
		LiquidityK:         cfg.LiquidityK,
		CurrentMode:        BootstrapMode{SpreadPct: cfg.BootstrapSpreadPct, Levels: cfg.BootstrapLevels},
	}
}

// Spread is the current best-ask minus best-bid.
func (s *SymbolState) Spread() decimal.Decimal {
	return s.BestAsk.Sub(s.BestBid)
}

// ApplyDepth folds a top-of-book snapshot into the state: shifts the
// current book into the previous fields, recomputes the mid, infers
// trade activity while bootstrapping, and re-marks the open position.
func (s *SymbolState) ApplyDepth(d schema.DepthUpdate) {
	s.PrevBestBid = s.BestBid
	s.PrevBestAsk = s.BestAsk
	s.PrevBestBidQty = s.BestBidQty
	s.PrevBestAskQty = s.BestAskQty
	s.PrevMid = s.Mid

	s.BestBid = d.BestBid
	s.BestAsk = d.BestAsk
	s.BestBidQty = d.BestBidQty
	s.BestAskQty = d.BestAskQty
	s.UpdatedAt = d.TsEvent

	if !s.Bootstrapped {
		s.inferTrades()
	}

	s.Mid = s.BestBid.Add(s.BestAsk).Div(decimal.NewFromInt(2))
	if !s.Position.Quantity.IsZero() {
		s.PnL.Unrealized = markToMarket(s.Position, s.Mid)
	}
}

// inferTrades treats a price move or a resting-quantity decrease on a
// side as evidence of a trade on that side. Both sides are evaluated
// independently, so one update can register zero, one, or two trades.
func (s *SymbolState) inferTrades() {
	bidMoved := !s.BestBid.Equal(s.PrevBestBid)
	askMoved := !s.BestAsk.Equal(s.PrevBestAsk)
	bidDepthDropped := s.BestBidQty < s.PrevBestBidQty
	askDepthDropped := s.BestAskQty < s.PrevBestAskQty

	if bidMoved || bidDepthDropped {
		if change := s.PrevBestBidQty - s.BestBidQty; change > 0 {
			s.TotalVolume += change
			s.TotalTrades++
		}
	}
	if askMoved || askDepthDropped {
		if change := s.PrevBestAskQty - s.BestAskQty; change > 0 {
			s.TotalVolume += change
			s.TotalTrades++
		}
	}
}

// ApplyFill updates inventory and P&L from an execution against one of
// the engine's own orders. Buy fills blend the entry price while the
// position grows; sell fills lock in realized P&L before reducing the
// quantity. Unknown sides are ignored.
func (s *SymbolState) ApplyFill(side schema.Side, qty int64, price decimal.Decimal) {
	fillQty := decimal.NewFromInt(qty)
	switch side {
	case schema.SideBid:
		oldQty := s.Position.Quantity
		oldAvg := s.Position.AvgEntryPrice
		s.Position.Quantity = oldQty.Add(fillQty)
		if s.Position.Quantity.IsPositive() {
			s.Position.AvgEntryPrice = oldQty.Mul(oldAvg).
				Add(fillQty.Mul(price)).
				Div(s.Position.Quantity)
		}
		s.PnL.Unrealized = markToMarket(s.Position, s.Mid)
	case schema.SideAsk:
		realized := price.Sub(s.Position.AvgEntryPrice).Mul(fillQty)
		s.Position.Quantity = s.Position.Quantity.Sub(fillQty)
		s.PnL.Realized = s.PnL.Realized.Add(realized)
		s.PnL.Unrealized = markToMarket(s.Position, s.Mid)
	default:
	}
}

// ShouldExitBootstrap requires enough inferred trades and volume, a
// filled sample window, a tight spread, and live depth on both sides.
func (s *SymbolState) ShouldExitBootstrap(cfg *ops.Config) bool {
	if s.TotalTrades < cfg.BootstrapMinTrades || s.TotalVolume < cfg.BootstrapMinVolume {
		return false
	}
	if s.Rolling.Len() < cfg.BootstrapMinSamples {
		return false
	}
	if !s.Mid.IsPositive() {
		return false
	}
	spreadPct := s.Spread().Div(s.Mid)
	if spreadPct.GreaterThanOrEqual(cfg.BootstrapSpreadExit) {
		return false
	}
	return s.BestBidQty > 0 && s.BestAskQty > 0
}

// ComputeQuoteSizes derives the per-side base order size from the
// inventory deviation and volatility. The side that would worsen the
// deviation is scaled toward zero, the correcting side up to 2x, and
// both are clamped to the configured maximum and the visible book
// depth times the book multiplier.
func (s *SymbolState) ComputeQuoteSizes(cfg *ops.Config) (bidSize, askSize int64) {
	if !cfg.InventoryCap.IsPositive() || cfg.MaxOrderSize <= 0 {
		return 0, 0
	}

	dev := s.Position.Quantity.Sub(cfg.TargetInventory)
	absDev := dev.Abs()

	vol := s.Volatility
	if vol.IsNegative() {
		vol = decimal.Zero
	}
	volFactor := decimal.NewFromInt(1).Div(decimal.NewFromInt(1).Add(vol))

	invRatio := absDev.Div(cfg.InventoryCap)
	if invRatio.GreaterThan(decimal.NewFromInt(1)) {
		invRatio = decimal.NewFromInt(1)
	}
	ratio := invRatio.InexactFloat64()

	base := math.Round(float64(cfg.MaxOrderSize) * volFactor.InexactFloat64())
	if base < 1 {
		base = 1
	}

	riskyMult := clampFloat(1.0-ratio, 0.0, 1.0)
	safeMult := clampFloat(1.0+ratio, 1.0, 2.0)

	var bid, ask int64
	if dev.Sign() >= 0 {
		// Long of target: shrink bids, grow asks.
		bid = int64(math.Round(base * riskyMult))
		ask = int64(math.Round(base * safeMult))
	} else {
		bid = int64(math.Round(base * safeMult))
		ask = int64(math.Round(base * riskyMult))
	}

	if absDev.GreaterThanOrEqual(cfg.InventoryCap) {
		if dev.IsPositive() {
			bid = 0
		} else if dev.IsNegative() {
			ask = 0
		}
	}

	bid = clampInt64(bid, 0, cfg.MaxOrderSize)
	ask = clampInt64(ask, 0, cfg.MaxOrderSize)

	if s.BestBidQty > 0 {
		cap := s.BestBidQty * cfg.MaxBookMult
		if cap < 1 {
			cap = 1
		}
		if bid > cap {
			bid = cap
		}
	}
	if s.BestAskQty > 0 {
		cap := s.BestAskQty * cfg.MaxBookMult
		if cap < 1 {
			cap = 1
		}
		if ask > cap {
			ask = cap
		}
	}
	return bid, ask
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
