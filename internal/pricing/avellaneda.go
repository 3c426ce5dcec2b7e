package pricing

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

var ErrBadQuoteInput = errors.New("quote input out of domain")

// QuoteInput collects everything the pricing model needs for one symbol.
type QuoteInput struct {
	Mid            decimal.Decimal
	Inventory      decimal.Decimal
	RiskAversion   decimal.Decimal
	Volatility     decimal.Decimal
	TimeToTerminal decimal.Decimal
	LiquidityK     decimal.Decimal
}

// Model converts a market snapshot into an optimal bid/ask pair.
// Implementations must be pure: same input, same output, no retries.
type Model interface {
	Quotes(in QuoteInput) (bid, ask decimal.Decimal, err error)
}

// AvellanedaStoikov quotes around the inventory-adjusted reservation
// price with the closed-form optimal spread.
type AvellanedaStoikov struct{}

// NewAvellanedaStoikov returns the default pricing model.
func NewAvellanedaStoikov() AvellanedaStoikov {
	return AvellanedaStoikov{}
}

// Quotes computes the reservation price r = mid - q*gamma*sigma^2*T and
// the spread gamma*sigma^2*T + (2/gamma)*ln(1+gamma/k), then centers the
// bid/ask pair on r.
func (AvellanedaStoikov) Quotes(in QuoteInput) (decimal.Decimal, decimal.Decimal, error) {
	mid := in.Mid.InexactFloat64()
	gamma := in.RiskAversion.InexactFloat64()
	sigma := in.Volatility.InexactFloat64()
	horizon := in.TimeToTerminal.InexactFloat64()
	k := in.LiquidityK.InexactFloat64()
	inv := in.Inventory.InexactFloat64()

	if mid <= 0 || gamma <= 0 || horizon <= 0 || k <= 0 {
		return decimal.Zero, decimal.Zero, ErrBadQuoteInput
	}

	variance := sigma * sigma * horizon
	reservation := mid - inv*gamma*variance
	spread := gamma*variance + (2.0/gamma)*math.Log(1.0+gamma/k)

	bid := reservation - spread/2.0
	ask := reservation + spread/2.0
	if !isFinite(bid) || !isFinite(ask) || bid <= 0 || ask <= bid {
		return decimal.Zero, decimal.Zero, ErrBadQuoteInput
	}
	return decimal.NewFromFloat(bid).Round(4), decimal.NewFromFloat(ask).Round(4), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
