package schema

import "github.com/shopspring/decimal"

// SymbolID identifies a traded instrument.
type SymbolID uint32

// Side describes which side of the book an order rests on.
type Side uint16

const (
	SideUnknown Side = iota
	SideBid
	SideAsk
)

// String returns a short human-readable side label.
func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	switch s {
	case SideBid:
		return SideAsk
	case SideAsk:
		return SideBid
	default:
		return SideUnknown
	}
}

// DepthUpdate is a top-of-book snapshot from the inbound feed queue.
type DepthUpdate struct {
	Symbol     SymbolID
	BestBid    decimal.Decimal
	BestAsk    decimal.Decimal
	BestBidQty int64
	BestAskQty int64
	TsEvent    int64
}

// FillEvent reports an execution against one of the engine's own orders.
type FillEvent struct {
	Symbol  SymbolID
	OrderID uint64
	Side    Side
	Qty     int64
	Price   decimal.Decimal
	TsEvent int64
}

// ControlType tags a control-plane message.
type ControlType uint16

const (
	ControlUnknown ControlType = iota
	ControlAddSymbol
	ControlOrderAccepted
	ControlOrderCancelled
)

// ControlMessage carries symbol activation and order acknowledgments.
// ReferencePrice is set for ControlAddSymbol, ClientID for
// ControlOrderAccepted, OrderID for both ack types.
type ControlMessage struct {
	Type           ControlType
	Symbol         SymbolID
	ReferencePrice decimal.Decimal
	ClientID       uint64
	OrderID        uint64
}

// IntentType tags an outbound order intent.
type IntentType uint16

const (
	IntentUnknown IntentType = iota
	IntentNew
	IntentCancel
)

// OrderIntent is the payload drained to the outbound order queue.
// For IntentCancel, OrderID carries the exchange-assigned id and
// Price/Qty are zero.
type OrderIntent struct {
	Type     IntentType
	Symbol   SymbolID
	ClientID uint64
	OrderID  uint64
	Side     Side
	Price    decimal.Decimal
	Qty      int64
}
