package mm

import (
	"github.com/shopspring/decimal"

	"main/internal/ops"
)

// PositionSide labels which direction an inventory-capped book leans.
type PositionSide uint16

const (
	PositionFlat PositionSide = iota
	PositionLong
	PositionShort
)

// ModeKind discriminates quoting modes for transition detection.
type ModeKind uint16

const (
	ModeKindBootstrap ModeKind = iota
	ModeKindNormal
	ModeKindStressed
	ModeKindInventoryCapped
	ModeKindEmergency
)

// String returns the mode label used in logs and metrics.
func (k ModeKind) String() string {
	switch k {
	case ModeKindBootstrap:
		return "bootstrap"
	case ModeKindNormal:
		return "normal"
	case ModeKindStressed:
		return "stressed"
	case ModeKindInventoryCapped:
		return "inventory_capped"
	case ModeKindEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Mode is the closed set of quoting modes. Variants carry different
// payloads, so the ladder builder dispatches on the concrete type.
type Mode interface {
	Kind() ModeKind
}

// BootstrapMode quotes a wide fixed spread around the reference price
// until enough trade evidence exists.
type BootstrapMode struct {
	SpreadPct decimal.Decimal
	Levels    int
}

// NormalMode quotes around the pricing model's center with
// inventory-skewed, geometrically decayed sizes.
type NormalMode struct {
	Levels    int
	SizeDecay float64
}

// StressedMode widens the model spread and quotes fewer levels.
type StressedMode struct {
	SpreadMult decimal.Decimal
	Levels     int
}

// InventoryCappedMode quotes only the de-risking side.
type InventoryCappedMode struct {
	Side   PositionSide
	Levels int
}

// EmergencyMode produces no ladder at all.
type EmergencyMode struct{}

func (BootstrapMode) Kind() ModeKind       { return ModeKindBootstrap }
func (NormalMode) Kind() ModeKind          { return ModeKindNormal }
func (StressedMode) Kind() ModeKind        { return ModeKindStressed }
func (InventoryCappedMode) Kind() ModeKind { return ModeKindInventoryCapped }
func (EmergencyMode) Kind() ModeKind       { return ModeKindEmergency }

// ExpectedOrders is the full resting-order count the mode aims for.
func ExpectedOrders(mode Mode) int {
	switch m := mode.(type) {
	case BootstrapMode:
		return m.Levels * 2
	case NormalMode:
		return m.Levels * 2
	case StressedMode:
		return m.Levels * 2
	case InventoryCappedMode:
		return m.Levels
	case EmergencyMode:
		return 0
	default:
		return 0
	}
}

// DetermineMode re-evaluates the quoting mode with first-match-wins
// priority: Emergency, InventoryCapped, Bootstrap, Stressed, Normal.
// The previous mode is recorded before the current one is overwritten.
func (s *SymbolState) DetermineMode(cfg *ops.Config) Mode {
	mode := s.evaluateMode(cfg)
	s.PrevMode = s.CurrentMode
	s.CurrentMode = mode
	return mode
}

// ModeChanged reports whether the last DetermineMode call switched modes.
func (s *SymbolState) ModeChanged() bool {
	if s.CurrentMode == nil {
		return false
	}
	if s.PrevMode == nil {
		return true
	}
	return s.CurrentMode.Kind() != s.PrevMode.Kind()
}

func (s *SymbolState) evaluateMode(cfg *ops.Config) Mode {
	if s.PnL.Total().LessThan(cfg.EmergencyTotalPnL) ||
		s.PnL.Realized.LessThan(cfg.EmergencyRealizedPnL) {
		return EmergencyMode{}
	}

	invAbs := s.Position.Quantity.Abs()
	if invAbs.GreaterThanOrEqual(cfg.InventoryCap) {
		side := PositionShort
		if s.Position.Quantity.IsPositive() {
			side = PositionLong
		}
		return InventoryCappedMode{Side: side, Levels: cfg.CappedLevels}
	}

	if !s.Bootstrapped {
		if s.ShouldExitBootstrap(cfg) {
			s.Bootstrapped = true
		} else {
			return BootstrapMode{SpreadPct: cfg.BootstrapSpreadPct, Levels: cfg.BootstrapLevels}
		}
	}

	invRatio := invAbs.Div(cfg.InventoryCap)
	if s.Volatility.GreaterThan(cfg.StressedVolatility) ||
		invRatio.GreaterThanOrEqual(cfg.InventoryWarningRatio) {
		return StressedMode{SpreadMult: cfg.StressedSpreadMult, Levels: cfg.StressedLevels}
	}

	return NormalMode{Levels: cfg.NormalLevels, SizeDecay: cfg.NormalSizeDecay}
}
