// Command sim is an in-process paper harness: it pumps a random-walk
// depth feed into the engine, plays the exchange side by acking and
// filling the engine's own intents, and reports P&L at the end.
package main

import (
	"flag"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/mm"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/pricing"
	"main/internal/schema"
)

type acceptor struct {
	queues      mm.Queues
	rng         *rand.Rand
	nextOrderID uint64
	fillRate    float64
	live        map[uint64]schema.OrderIntent
}

// step acks every new intent, removes cancelled ones, and fills a
// random fraction of the live set near the current mid.
func (a *acceptor) step(mid decimal.Decimal) {
	for {
		intent, ok, err := a.queues.Orders.TryDequeue()
		if err != nil || !ok {
			break
		}
		switch intent.Type {
		case schema.IntentNew:
			a.nextOrderID++
			id := a.nextOrderID
			a.live[id] = intent
			_ = a.queues.Control.TryEnqueue(schema.ControlMessage{
				Type:     schema.ControlOrderAccepted,
				Symbol:   intent.Symbol,
				ClientID: intent.ClientID,
				OrderID:  id,
			})
		case schema.IntentCancel:
			delete(a.live, intent.OrderID)
			_ = a.queues.Control.TryEnqueue(schema.ControlMessage{
				Type:    schema.ControlOrderCancelled,
				Symbol:  intent.Symbol,
				OrderID: intent.OrderID,
			})
		}
	}

	for id, intent := range a.live {
		if a.rng.Float64() > a.fillRate {
			continue
		}
		crossed := (intent.Side == schema.SideBid && intent.Price.GreaterThanOrEqual(mid)) ||
			(intent.Side == schema.SideAsk && intent.Price.LessThanOrEqual(mid))
		if !crossed {
			continue
		}
		_ = a.queues.Fills.TryEnqueue(schema.FillEvent{
			Symbol:  intent.Symbol,
			OrderID: id,
			Side:    intent.Side,
			Qty:     intent.Qty,
			Price:   intent.Price,
			TsEvent: time.Now().UnixNano(),
		})
		delete(a.live, id)
	}
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "How long to run the harness")
	reference := flag.Float64("reference", 100.0, "Reference price for the simulated symbol")
	drift := flag.Float64("drift", 0.0005, "Per-tick random walk scale")
	fillRate := flag.Float64("fill-rate", 0.05, "Per-step probability of filling a crossed order")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	cfg := ops.Default()
	queues := mm.Queues{
		Feed:    bus.NewQueue[schema.DepthUpdate](4096),
		Fills:   bus.NewQueue[schema.FillEvent](4096),
		Control: bus.NewQueue[schema.ControlMessage](4096),
		Orders:  bus.NewQueue[schema.OrderIntent](4096),
	}
	engine := mm.NewEngine(&cfg, queues, pricing.NewAvellanedaStoikov(), pricing.NewLogReturnEstimator(), obs.NewMetrics(nil), nil)

	const symbol schema.SymbolID = 1
	_ = queues.Control.TryEnqueue(schema.ControlMessage{
		Type:           schema.ControlAddSymbol,
		Symbol:         symbol,
		ReferencePrice: decimal.NewFromFloat(*reference),
	})

	rng := rand.New(rand.NewSource(*seed))
	acc := &acceptor{
		queues:   queues,
		rng:      rng,
		fillRate: *fillRate,
		live:     make(map[uint64]schema.OrderIntent),
	}

	mid := *reference
	halfSpread := *reference * 0.001
	deadline := time.Now().Add(*duration)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		mid *= math.Exp(rng.NormFloat64() * *drift)
		bid := decimal.NewFromFloat(mid - halfSpread).Round(2)
		ask := decimal.NewFromFloat(mid + halfSpread).Round(2)
		_ = queues.Feed.TryEnqueue(schema.DepthUpdate{
			Symbol:     symbol,
			BestBid:    bid,
			BestAsk:    ask,
			BestBidQty: 50 + rng.Int63n(100),
			BestAskQty: 50 + rng.Int63n(100),
			TsEvent:    now.UnixNano(),
		})

		engine.RunCycle(now)
		acc.step(bid.Add(ask).Div(decimal.NewFromInt(2)))
	}

	state, ok := engine.SymbolState(symbol)
	if !ok {
		logs.Errorf("symbol never activated")
		return
	}
	ledger, _ := engine.Ledger(symbol)
	logs.Infof("mode=%s inventory=%s realized=%s unrealized=%s pending=%d",
		state.CurrentMode.Kind(),
		state.Position.Quantity,
		state.PnL.Realized,
		state.PnL.Unrealized,
		len(ledger.Pending),
	)
}
