package mm

import "github.com/shopspring/decimal"

// Position is a signed inventory with its volume-weighted entry price.
// AvgEntryPrice is only redefined while increasing a position in the
// same direction; reducing or flattening adjusts realized P&L instead.
type Position struct {
	Quantity      decimal.Decimal
	AvgEntryPrice decimal.Decimal
}

// PnL holds realized and mark-to-market components.
type PnL struct {
	Realized   decimal.Decimal
	Unrealized decimal.Decimal
}

// Total is the sum of realized and unrealized P&L.
func (p PnL) Total() decimal.Decimal {
	return p.Realized.Add(p.Unrealized)
}

// markToMarket recomputes unrealized P&L from the open quantity,
// forcing it to zero on a flat position.
func markToMarket(pos Position, mid decimal.Decimal) decimal.Decimal {
	if pos.Quantity.IsZero() {
		return decimal.Zero
	}
	return mid.Sub(pos.AvgEntryPrice).Mul(pos.Quantity)
}
