package mm

import (
	"time"

	"main/internal/ops"
	"main/internal/schema"
)

// ShouldRequote is the layered gate that keeps cancel/replace churn
// down while the market and mode are stable. It is evaluated once per
// management cycle.
func ShouldRequote(s *SymbolState, o *SymbolOrders, cfg *ops.Config, now time.Time) bool {
	if now.Sub(o.LastQuoteTime) < cfg.QuotingGap {
		return false
	}
	mode := s.CurrentMode
	if mode == nil {
		return false
	}
	if mode.Kind() == ModeKindEmergency {
		return false
	}
	if s.ModeChanged() {
		return true
	}

	expected := ExpectedOrders(mode)
	switch m := mode.(type) {
	case InventoryCappedMode:
		required := schema.SideAsk
		if m.Side == PositionShort {
			required = schema.SideBid
		}
		if o.ActiveCount(required) == 0 {
			return true
		}
	default:
		if o.ActiveCount(schema.SideBid) == 0 || o.ActiveCount(schema.SideAsk) == 0 {
			return true
		}
	}
	if o.ActiveCount(schema.SideUnknown) < expected/2 {
		return true
	}

	if o.LastQuotedMid.IsPositive() {
		drift := s.Mid.Sub(o.LastQuotedMid).Abs().Div(o.LastQuotedMid)
		if drift.GreaterThanOrEqual(cfg.MidDriftRequotePct) {
			return true
		}
	}
	return false
}

// IncrementalRequote diffs the target ladder against the resting
// orders. Unchanged levels are left alone; levels whose price moved
// outside tolerance yield one cancel and one post. The last-quote
// stamp is always refreshed, even on a no-op cycle, which resets the
// ShouldRequote interval gate.
func IncrementalRequote(s *SymbolState, o *SymbolOrders, ladder Ladder, cfg *ops.Config, now time.Time) (cancels, posts []*PendingOrder) {
	defer func() {
		o.LastQuoteTime = now
		o.LastQuotedMid = s.Mid
	}()

	// Cancel pass: existing orders with no surviving target slot.
	for _, order := range o.Pending {
		if order.State != OrderStateActive && order.State != OrderStatePartiallyFilled {
			continue
		}
		if ladderHasMatch(ladder, order, cfg) {
			continue
		}
		if order.ExchangeID == nil {
			continue
		}
		order.State = OrderStatePendingCancel
		cancels = append(cancels, order)
	}

	// Post pass: target entries not already covered by a live order.
	for _, level := range ladder.Bids {
		if o.hasWorkingOrder(schema.SideBid, level, cfg) {
			continue
		}
		posts = append(posts, o.insertPending(schema.SideBid, level, now))
	}
	for _, level := range ladder.Asks {
		if o.hasWorkingOrder(schema.SideAsk, level, cfg) {
			continue
		}
		posts = append(posts, o.insertPending(schema.SideAsk, level, now))
	}
	return cancels, posts
}

func ladderHasMatch(ladder Ladder, order *PendingOrder, cfg *ops.Config) bool {
	levels := ladder.Bids
	if order.Side == schema.SideAsk {
		levels = ladder.Asks
	}
	for _, level := range levels {
		if level.Index != order.Level {
			continue
		}
		if level.Price.Sub(order.Price).Abs().LessThanOrEqual(cfg.PriceTolerance) {
			return true
		}
	}
	return false
}

func (o *SymbolOrders) hasWorkingOrder(side schema.Side, level LadderLevel, cfg *ops.Config) bool {
	for _, order := range o.Pending {
		switch order.State {
		case OrderStateActive, OrderStatePartiallyFilled, OrderStatePendingNew:
		default:
			continue
		}
		if order.Side != side || order.Level != level.Index {
			continue
		}
		if order.Price.Sub(level.Price).Abs().LessThanOrEqual(cfg.PriceTolerance) {
			return true
		}
	}
	return false
}

func (o *SymbolOrders) insertPending(side schema.Side, level LadderLevel, now time.Time) *PendingOrder {
	order := &PendingOrder{
		ClientID:      o.GenerateClientID(),
		Side:          side,
		Price:         level.Price,
		OriginalSize:  level.Size,
		RemainingSize: level.Size,
		State:         OrderStatePendingNew,
		Level:         level.Index,
		CreatedAt:     now,
	}
	o.Pending = append(o.Pending, order)
	return order
}
