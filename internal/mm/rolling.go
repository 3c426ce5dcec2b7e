package mm

import "github.com/shopspring/decimal"

// RollingWindow is a fixed-capacity window of past mid prices, used
// only as the volatility estimator's input.
type RollingWindow struct {
	prices   []decimal.Decimal
	capacity int
	head     int
	count    int
}

// NewRollingWindow allocates an empty window.
func NewRollingWindow(capacity int) *RollingWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &RollingWindow{
		prices:   make([]decimal.Decimal, capacity),
		capacity: capacity,
	}
}

// Push appends a price, evicting the oldest sample when full.
func (w *RollingWindow) Push(price decimal.Decimal) {
	idx := (w.head + w.count) % w.capacity
	w.prices[idx] = price
	if w.count < w.capacity {
		w.count++
		return
	}
	w.head = (w.head + 1) % w.capacity
}

// Len reports the number of collected samples.
func (w *RollingWindow) Len() int {
	return w.count
}

// Snapshot returns the samples oldest-first.
func (w *RollingWindow) Snapshot() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, w.count)
	for i := 0; i < w.count; i++ {
		out = append(out, w.prices[(w.head+i)%w.capacity])
	}
	return out
}

// Reset drops all samples.
func (w *RollingWindow) Reset() {
	w.head = 0
	w.count = 0
}
