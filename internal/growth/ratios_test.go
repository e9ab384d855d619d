package growth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROE(t *testing.T) {
	v, ok := ROE(20, 100)
	require.True(t, ok)
	assert.InDelta(t, 20, v, 1e-9)

	_, ok = ROE(20, 0)
	assert.False(t, ok)
}

func TestDebtEquity(t *testing.T) {
	v, ok := DebtEquity(50, 100)
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-9)
}

func TestInterestCoverageZeroInterest(t *testing.T) {
	_, ok := InterestCoverage(100, 0)
	assert.False(t, ok)
}

func TestSafeDivideNonFinite(t *testing.T) {
	_, ok := safeDivide(math.NaN(), 2)
	assert.False(t, ok)
	_, ok = safeDivide(1, math.Inf(1))
	assert.False(t, ok)
}

func TestMargins(t *testing.T) {
	v, ok := OPM(30, 200)
	require.True(t, ok)
	assert.InDelta(t, 15, v, 1e-9)

	v, ok = NPM(20, 200)
	require.True(t, ok)
	assert.InDelta(t, 10, v, 1e-9)
}

func TestAltmanZ(t *testing.T) {
	// All component ratios equal to 1 sum the weights: 1.2+1.4+3.3+0.6+1.0.
	v, ok := AltmanZ(100, 100, 100, 100, 100, 100, 100)
	require.True(t, ok)
	assert.InDelta(t, 7.5, v, 1e-9)

	_, ok = AltmanZ(100, 100, 100, 100, 100, 0, 100)
	assert.False(t, ok)
	_, ok = AltmanZ(100, 100, 100, 100, 100, 100, 0)
	assert.False(t, ok)
}
