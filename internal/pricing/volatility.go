package pricing

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

var ErrNotEnoughSamples = errors.New("not enough price samples")

// Estimator converts a price history into a scalar volatility.
type Estimator interface {
	Estimate(prices []decimal.Decimal) (decimal.Decimal, error)
}

// LogReturnEstimator measures the sample standard deviation of
// log returns over the window.
type LogReturnEstimator struct{}

// NewLogReturnEstimator returns the default volatility estimator.
func NewLogReturnEstimator() LogReturnEstimator {
	return LogReturnEstimator{}
}

// Estimate fails when fewer than two samples are available or any
// sample is non-positive; callers keep their previous estimate then.
func (LogReturnEstimator) Estimate(prices []decimal.Decimal) (decimal.Decimal, error) {
	if len(prices) < 2 {
		return decimal.Zero, ErrNotEnoughSamples
	}
	returns := make([]float64, 0, len(prices)-1)
	prev := prices[0].InexactFloat64()
	for _, p := range prices[1:] {
		cur := p.InexactFloat64()
		if prev <= 0 || cur <= 0 {
			return decimal.Zero, errors.New("non-positive price sample")
		}
		returns = append(returns, math.Log(cur/prev))
		prev = cur
	}
	if len(returns) < 1 {
		return decimal.Zero, ErrNotEnoughSamples
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	if len(returns) > 1 {
		variance /= float64(len(returns) - 1)
	}
	return decimal.NewFromFloat(math.Sqrt(variance)).Round(8), nil
}
