package mm

import (
	"context"
	"strconv"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/pricing"
	"main/internal/schema"
)

// Queues bundles the four transports connecting the engine to the
// rest of the stack.
type Queues struct {
	Feed    *bus.Queue[schema.DepthUpdate]
	Fills   *bus.Queue[schema.FillEvent]
	Control *bus.Queue[schema.ControlMessage]
	Orders  *bus.Queue[schema.OrderIntent]
}

// Engine is the single-threaded decision core. Every SymbolContext is
// exclusively owned by the loop; per-event failures are isolated so
// one symbol can never stall another.
type Engine struct {
	cfg       *ops.Config
	queues    Queues
	model     pricing.Model
	estimator pricing.Estimator
	metrics   *obs.Metrics
	journal   *journal.Journal

	states  map[schema.SymbolID]*SymbolState
	ledgers map[schema.SymbolID]*SymbolOrders

	cancelBatch []schema.OrderIntent
	postBatch   []schema.OrderIntent

	now func() time.Time
}

// NewEngine wires the decision core. metrics and jnl may be nil.
func NewEngine(cfg *ops.Config, queues Queues, model pricing.Model, estimator pricing.Estimator, metrics *obs.Metrics, jnl *journal.Journal) *Engine {
	return &Engine{
		cfg:       cfg,
		queues:    queues,
		model:     model,
		estimator: estimator,
		metrics:   metrics,
		journal:   jnl,
		states:    make(map[schema.SymbolID]*SymbolState),
		ledgers:   make(map[schema.SymbolID]*SymbolOrders),
		now:       time.Now,
	}
}

// Run polls until the context is cancelled. There are no blocking
// waits: an empty queue simply ends that drain for the iteration.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		start := e.now()
		e.RunCycle(start)
		e.metrics.ObserveCycle(e.now().Sub(start).Seconds())
	}
}

// RunCycle performs one loop iteration: drain feed, fills, and control
// messages, run each symbol's cadenced management work, then flush the
// accumulated cancel and post batches to the outbound queue.
func (e *Engine) RunCycle(now time.Time) {
	e.drainFeed()
	e.drainFills()
	e.drainControl(now)
	for id, state := range e.states {
		e.manageSymbol(state, e.ledgers[id], now)
	}
	e.flushBatches()
}

// SymbolState exposes a symbol's market snapshot, for harnesses.
func (e *Engine) SymbolState(id schema.SymbolID) (*SymbolState, bool) {
	s, ok := e.states[id]
	return s, ok
}

// Ledger exposes a symbol's order ledger, for harnesses.
func (e *Engine) Ledger(id schema.SymbolID) (*SymbolOrders, bool) {
	o, ok := e.ledgers[id]
	return o, ok
}

func (e *Engine) drainFeed() {
	for i := 0; i < e.cfg.MaxDrainPerPass; i++ {
		update, ok, err := e.queues.Feed.TryDequeue()
		if err != nil {
			logs.Errorf("feed dequeue, err: %+v", err)
			return
		}
		if !ok {
			return
		}
		e.metrics.IncFeedEvents()

		state, exists := e.states[update.Symbol]
		if !exists {
			logs.Warnf("feed for inactive symbol %d: %s", update.Symbol, ErrSymbolNotFound)
			continue
		}
		before := state.TotalTrades
		state.ApplyDepth(update)
		e.metrics.AddInferredTrades(state.TotalTrades - before)

		if ledger, ok := e.ledgers[update.Symbol]; ok {
			e.queueCancels(ledger, ledger.CancelOnDepthShock(state, e.cfg), "depth_shock")
		}
	}
}

func (e *Engine) drainFills() {
	for i := 0; i < e.cfg.MaxDrainPerPass; i++ {
		fill, ok, err := e.queues.Fills.TryDequeue()
		if err != nil {
			logs.Errorf("fill dequeue, err: %+v", err)
			return
		}
		if !ok {
			return
		}
		e.metrics.IncFillEvents()

		state, exists := e.states[fill.Symbol]
		if !exists {
			logs.Warnf("fill for inactive symbol %d: %s", fill.Symbol, ErrSymbolNotFound)
			continue
		}
		state.ApplyFill(fill.Side, fill.Qty, fill.Price)
		if ledger, ok := e.ledgers[fill.Symbol]; ok {
			ledger.ApplyFill(fill.OrderID, fill.Qty)
		}
		if err := e.journal.RecordFill(fill, state.Position.Quantity, state.PnL.Realized); err != nil {
			logs.Errorf("journal fill, err: %+v", err)
		}
	}
}

func (e *Engine) drainControl(now time.Time) {
	for i := 0; i < e.cfg.MaxDrainPerPass; i++ {
		msg, ok, err := e.queues.Control.TryDequeue()
		if err != nil {
			logs.Errorf("control dequeue, err: %+v", err)
			return
		}
		if !ok {
			return
		}
		e.metrics.IncControlEvents()

		switch msg.Type {
		case schema.ControlAddSymbol:
			if _, exists := e.states[msg.Symbol]; exists {
				continue
			}
			e.states[msg.Symbol] = NewSymbolState(msg.Symbol, msg.ReferencePrice, e.cfg, now)
			e.ledgers[msg.Symbol] = NewSymbolOrders(msg.Symbol)
			logs.Infof("symbol %d activated at %s", msg.Symbol, msg.ReferencePrice)
		case schema.ControlOrderAccepted:
			ledger, exists := e.ledgers[msg.Symbol]
			if !exists {
				logs.Warnf("accept ack for inactive symbol %d: %s", msg.Symbol, ErrSymbolNotFound)
				continue
			}
			ledger.ApplyAcceptAck(msg.ClientID, msg.OrderID)
		case schema.ControlOrderCancelled:
			ledger, exists := e.ledgers[msg.Symbol]
			if !exists {
				logs.Warnf("cancel ack for inactive symbol %d: %s", msg.Symbol, ErrSymbolNotFound)
				continue
			}
			ledger.ApplyCancelAck(msg.OrderID)
		default:
		}
	}
}

// manageSymbol runs the symbol's cadenced work: price sampling,
// volatility recompute, and the full management cycle. Each cadence is
// gated by the symbol's own timestamps, so symbols drift independently.
func (e *Engine) manageSymbol(state *SymbolState, ledger *SymbolOrders, now time.Time) {
	if now.Sub(state.LastSampleTime) >= e.cfg.SampleGap {
		state.Rolling.Push(state.Mid)
		state.LastSampleTime = now
	}

	if now.Sub(state.LastVolatilityCalc) >= e.cfg.VolatilityGap {
		vol, err := e.estimator.Estimate(state.Rolling.Snapshot())
		if err != nil {
			// Keep the previous estimate for this cycle.
			e.metrics.IncVolFailures()
		} else {
			state.Volatility = vol
		}
		state.LastVolatilityCalc = now
	}

	if now.Sub(state.LastCycleTime) < e.cfg.CycleGap {
		return
	}
	state.LastCycleTime = now

	mode := state.DetermineMode(e.cfg)
	if state.ModeChanged() {
		e.metrics.IncModeTransition(mode.Kind().String())
		logs.Infof("symbol %d mode %s -> %s", state.Symbol, prevKind(state), mode.Kind())
	}

	e.queueCancels(ledger, ledger.CancelStale(now, e.cfg), "age")
	e.queueCancels(ledger, ledger.CancelUnprofitable(state, e.cfg), "profitability")
	e.queueCancels(ledger, ledger.CancelOnInventory(state.Position.Quantity, e.cfg), "inventory")

	if ShouldRequote(state, ledger, e.cfg, now) {
		ladder, err := BuildLadder(mode, state, e.model, e.cfg)
		if err != nil {
			// Existing orders stay in place; retried on the next cycle.
			e.metrics.IncQuoteFailures()
			logs.Warnf("symbol %d ladder build skipped, err: %+v", state.Symbol, err)
		} else {
			cancels, posts := IncrementalRequote(state, ledger, ladder, e.cfg, now)
			e.queueCancels(ledger, cancels, "requote")
			e.queuePosts(ledger.Symbol, posts)
		}
	}

	e.publishTelemetry(state, ledger)
}

func (e *Engine) queueCancels(ledger *SymbolOrders, marked []*PendingOrder, trigger string) {
	for _, order := range marked {
		if order.ExchangeID == nil {
			continue
		}
		e.cancelBatch = append(e.cancelBatch, schema.OrderIntent{
			Type:     schema.IntentCancel,
			Symbol:   ledger.Symbol,
			ClientID: order.ClientID,
			OrderID:  *order.ExchangeID,
			Side:     order.Side,
		})
	}
	e.metrics.AddCancels(trigger, len(marked))
}

func (e *Engine) queuePosts(symbol schema.SymbolID, posts []*PendingOrder) {
	for _, order := range posts {
		e.postBatch = append(e.postBatch, schema.OrderIntent{
			Type:     schema.IntentNew,
			Symbol:   symbol,
			ClientID: order.ClientID,
			Side:     order.Side,
			Price:    order.Price,
			Qty:      order.OriginalSize,
		})
	}
	e.metrics.AddPosts(len(posts))
}

// flushBatches drains the per-cycle cancel and post batches to the
// outbound queue. A full queue drops that intent and continues; the
// next cycle rebuilds whatever still matters.
func (e *Engine) flushBatches() {
	for _, intent := range e.cancelBatch {
		if err := e.queues.Orders.TryEnqueue(intent); err != nil {
			e.metrics.IncQueueDrops()
			logs.Errorf("enqueue cancel intent, err: %+v", err)
		}
	}
	for _, intent := range e.postBatch {
		if err := e.queues.Orders.TryEnqueue(intent); err != nil {
			e.metrics.IncQueueDrops()
			logs.Errorf("enqueue post intent, err: %+v", err)
		}
	}
	e.cancelBatch = e.cancelBatch[:0]
	e.postBatch = e.postBatch[:0]
}

func (e *Engine) publishTelemetry(state *SymbolState, ledger *SymbolOrders) {
	symbol := state.Symbol
	e.metrics.SetSymbolGauges(
		strconv.FormatUint(uint64(symbol), 10),
		state.Position.Quantity.InexactFloat64(),
		state.PnL.Realized.InexactFloat64(),
		state.PnL.Unrealized.InexactFloat64(),
		state.Volatility.InexactFloat64(),
		ledger.ActiveCount(schema.SideUnknown),
	)
	if e.journal != nil {
		mark := journal.PnLMark{
			Symbol:     uint32(symbol),
			Mode:       state.CurrentMode.Kind().String(),
			Mid:        state.Mid,
			Inventory:  state.Position.Quantity,
			Realized:   state.PnL.Realized,
			Unrealized: state.PnL.Unrealized,
			Volatility: state.Volatility,
		}
		if err := e.journal.RecordMark(mark); err != nil {
			logs.Errorf("journal mark, err: %+v", err)
		}
	}
}

func prevKind(state *SymbolState) ModeKind {
	if state.PrevMode == nil {
		return ModeKindBootstrap
	}
	return state.PrevMode.Kind()
}
