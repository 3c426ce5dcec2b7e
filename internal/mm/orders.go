package mm

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/ops"
	"main/internal/schema"
)

// OrderState tracks where a pending order sits in its lifecycle.
type OrderState uint16

const (
	OrderStatePendingNew OrderState = iota
	OrderStateActive
	OrderStatePartiallyFilled
	OrderStatePendingCancel
	OrderStateFilled
)

// PendingOrder is one row per order the engine believes is live.
// ExchangeID stays nil until the acceptance ack arrives; an order
// without it cannot be cancelled or matched to fills yet.
type PendingOrder struct {
	ClientID      uint64
	ExchangeID    *uint64
	Side          schema.Side
	Price         decimal.Decimal
	OriginalSize  int64
	RemainingSize int64
	State         OrderState
	Level         int
	CreatedAt     time.Time
}

// SymbolOrders is the per-symbol ledger of resting orders.
type SymbolOrders struct {
	Symbol        schema.SymbolID
	Pending       []*PendingOrder
	NextClientID  uint64
	LastQuoteTime time.Time
	LastQuotedMid decimal.Decimal
}

// NewSymbolOrders creates an empty ledger.
func NewSymbolOrders(symbol schema.SymbolID) *SymbolOrders {
	return &SymbolOrders{
		Symbol:       symbol,
		NextClientID: 1,
	}
}

// GenerateClientID hands out locally unique, monotonically increasing ids.
func (o *SymbolOrders) GenerateClientID() uint64 {
	id := o.NextClientID
	o.NextClientID++
	return id
}

// ApplyAcceptAck stamps the exchange id on the matching pending order
// and activates it. A missing client id is a silent no-op: the ack may
// race local insertion or reference a stale order.
func (o *SymbolOrders) ApplyAcceptAck(clientID, orderID uint64) {
	for _, order := range o.Pending {
		if order.ClientID == clientID {
			id := orderID
			order.ExchangeID = &id
			order.State = OrderStateActive
			return
		}
	}
}

// ApplyCancelAck removes every pending order carrying the exchange id.
func (o *SymbolOrders) ApplyCancelAck(orderID uint64) {
	kept := o.Pending[:0]
	for _, order := range o.Pending {
		if order.ExchangeID != nil && *order.ExchangeID == orderID {
			continue
		}
		kept = append(kept, order)
	}
	o.Pending = kept
}

// ApplyFill decrements the remaining size on the matching order
// (saturating at zero) and purges fully worked orders from the ledger.
func (o *SymbolOrders) ApplyFill(orderID uint64, qty int64) {
	for _, order := range o.Pending {
		if order.ExchangeID == nil || *order.ExchangeID != orderID {
			continue
		}
		order.RemainingSize -= qty
		if order.RemainingSize <= 0 {
			order.RemainingSize = 0
			order.State = OrderStateFilled
		} else {
			order.State = OrderStatePartiallyFilled
		}
		break
	}

	kept := o.Pending[:0]
	for _, order := range o.Pending {
		if order.RemainingSize <= 0 {
			continue
		}
		kept = append(kept, order)
	}
	o.Pending = kept
}

// ActiveCount counts Active orders, optionally restricted to one side.
func (o *SymbolOrders) ActiveCount(side schema.Side) int {
	n := 0
	for _, order := range o.Pending {
		if order.State != OrderStateActive {
			continue
		}
		if side != schema.SideUnknown && order.Side != side {
			continue
		}
		n++
	}
	return n
}

// CancelStale marks Active orders older than the configured maximum
// age. Returns the orders marked this call.
func (o *SymbolOrders) CancelStale(now time.Time, cfg *ops.Config) []*PendingOrder {
	var marked []*PendingOrder
	for _, order := range o.Pending {
		if order.State != OrderStateActive || order.ExchangeID == nil {
			continue
		}
		if now.Sub(order.CreatedAt) > cfg.MaxOrderAge {
			order.State = OrderStatePendingCancel
			marked = append(marked, order)
		}
	}
	return marked
}

// CancelOnDepthShock reacts to a feed update: cancels wrong-side
// orders after a sharp mid move, everything when the spread collapses,
// and a whole side when its resting depth evaporates.
func (o *SymbolOrders) CancelOnDepthShock(s *SymbolState, cfg *ops.Config) []*PendingOrder {
	var marked []*PendingOrder

	if s.PrevMid.IsPositive() {
		movePct := s.Mid.Sub(s.PrevMid).Abs().Div(s.PrevMid)
		if movePct.GreaterThan(cfg.MidShockPct) {
			for _, order := range o.Pending {
				if order.State != OrderStateActive || order.ExchangeID == nil {
					continue
				}
				wrongSide := (order.Side == schema.SideBid && order.Price.GreaterThan(s.Mid)) ||
					(order.Side == schema.SideAsk && order.Price.LessThan(s.Mid))
				if wrongSide {
					order.State = OrderStatePendingCancel
					marked = append(marked, order)
				}
			}
		}
	}

	if s.Spread().LessThan(cfg.MinSpread) {
		for _, order := range o.Pending {
			if order.State != OrderStateActive || order.ExchangeID == nil {
				continue
			}
			order.State = OrderStatePendingCancel
			marked = append(marked, order)
		}
		// Spread too thin to quote at all; side checks are moot.
		return marked
	}

	if s.PrevBestBidQty > 0 {
		ratio := float64(s.BestBidQty) / float64(s.PrevBestBidQty)
		if ratio < cfg.DepthCollapseRatio {
			marked = append(marked, o.cancelSide(schema.SideBid)...)
		}
	}
	if s.PrevBestAskQty > 0 {
		ratio := float64(s.BestAskQty) / float64(s.PrevBestAskQty)
		if ratio < cfg.DepthCollapseRatio {
			marked = append(marked, o.cancelSide(schema.SideAsk)...)
		}
	}
	return marked
}

// CancelUnprofitable marks Active orders on the wrong side of mid,
// stranded beyond MaxDistanceSpreadMult spreads from it, or resting in
// a market whose spread no longer covers costs.
func (o *SymbolOrders) CancelUnprofitable(s *SymbolState, cfg *ops.Config) []*PendingOrder {
	mid := s.Mid
	spread := s.Spread()
	maxDistance := spread.Mul(cfg.MaxDistanceSpreadMult)
	spreadTooThin := spread.LessThan(cfg.MinProfitableSpread)

	var marked []*PendingOrder
	for _, order := range o.Pending {
		if order.State != OrderStateActive || order.ExchangeID == nil {
			continue
		}
		wrongSide := (order.Side == schema.SideBid && order.Price.GreaterThan(mid)) ||
			(order.Side == schema.SideAsk && order.Price.LessThan(mid))
		stranded := order.Price.Sub(mid).Abs().GreaterThan(maxDistance)
		if wrongSide || stranded || spreadTooThin {
			order.State = OrderStatePendingCancel
			marked = append(marked, order)
		}
	}
	return marked
}

// CancelOnInventory marks orders that would grow the directional
// exposure once inventory passes the cancel ratio of the cap.
func (o *SymbolOrders) CancelOnInventory(inventory decimal.Decimal, cfg *ops.Config) []*PendingOrder {
	ratio := inventory.Abs().Div(cfg.InventoryCap)
	if ratio.LessThan(cfg.InventoryCancelRatio) {
		return nil
	}

	var riskSide schema.Side
	switch {
	case inventory.IsPositive():
		riskSide = schema.SideBid
	case inventory.IsNegative():
		riskSide = schema.SideAsk
	default:
		return nil
	}

	var marked []*PendingOrder
	for _, order := range o.Pending {
		if order.State != OrderStateActive || order.ExchangeID == nil {
			continue
		}
		if order.Side == riskSide {
			order.State = OrderStatePendingCancel
			marked = append(marked, order)
		}
	}
	return marked
}

func (o *SymbolOrders) cancelSide(side schema.Side) []*PendingOrder {
	var marked []*PendingOrder
	for _, order := range o.Pending {
		if order.State != OrderStateActive || order.ExchangeID == nil {
			continue
		}
		if order.Side == side {
			order.State = OrderStatePendingCancel
			marked = append(marked, order)
		}
	}
	return marked
}
