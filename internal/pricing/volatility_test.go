package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prices(vals ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		out = append(out, decimal.NewFromFloat(v))
	}
	return out
}

func TestEstimateConstantPricesIsZero(t *testing.T) {
	est := NewLogReturnEstimator()
	vol, err := est.Estimate(prices(100, 100, 100, 100))
	require.NoError(t, err)
	assert.True(t, vol.IsZero(), "vol %s", vol)
}

func TestEstimateSteadyDriftIsZero(t *testing.T) {
	// A constant multiplicative drift has identical log returns, so the
	// standard deviation collapses to zero.
	est := NewLogReturnEstimator()
	vol, err := est.Estimate(prices(100, 101, 102.01, 103.0301))
	require.NoError(t, err)
	assert.True(t, vol.LessThan(decimal.NewFromFloat(1e-6)), "vol %s", vol)
}

func TestEstimateOscillationIsPositive(t *testing.T) {
	est := NewLogReturnEstimator()
	vol, err := est.Estimate(prices(100, 102, 98, 103, 97))
	require.NoError(t, err)
	assert.True(t, vol.IsPositive())
}

func TestEstimateRequiresTwoSamples(t *testing.T) {
	est := NewLogReturnEstimator()

	_, err := est.Estimate(nil)
	assert.ErrorIs(t, err, ErrNotEnoughSamples)

	_, err = est.Estimate(prices(100))
	assert.ErrorIs(t, err, ErrNotEnoughSamples)
}

func TestEstimateRejectsNonPositiveSamples(t *testing.T) {
	est := NewLogReturnEstimator()
	_, err := est.Estimate(prices(100, 0, 100))
	assert.Error(t, err)
}
