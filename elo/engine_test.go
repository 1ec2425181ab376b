package elo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(Config{DefaultK: 32})
}

func TestExpectedScore_EqualRatings(t *testing.T) {
	e := testEngine()
	for _, r := range []float64{0, 800, 1000, 1500, 2400} {
		assert.InDelta(t, 0.5, e.ExpectedScore(r, r), 1e-9)
	}
}

func TestExpectedScore_Symmetry(t *testing.T) {
	e := testEngine()
	pairs := [][2]float64{{1000, 1200}, {800, 2400}, {1500, 1501}, {0, 3000}}
	for _, p := range pairs {
		sum := e.ExpectedScore(p[0], p[1]) + e.ExpectedScore(p[1], p[0])
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestKFactor_ThresholdTable(t *testing.T) {
	e := NewEngine(Config{
		DefaultK: 40,
		KFactorRules: []KFactorRule{
			{Threshold: 1600, K: 24},
			{Threshold: 2100, K: 16},
			{Threshold: 2400, K: 10},
		},
	})

	assert.Equal(t, 40.0, e.KFactor(1000))
	assert.Equal(t, 40.0, e.KFactor(1599))
	assert.Equal(t, 24.0, e.KFactor(1600))
	assert.Equal(t, 16.0, e.KFactor(2399))
	assert.Equal(t, 10.0, e.KFactor(2400))
	assert.Equal(t, 10.0, e.KFactor(9000))
}

func TestNewRating_EvenMatchWin(t *testing.T) {
	e := testEngine()
	expected := e.ExpectedScore(1000, 1000)
	require.InDelta(t, 0.5, expected, 1e-9)

	assert.Equal(t, 1016.0, e.NewRating(expected, 1, 1000))
	assert.Equal(t, 984.0, e.NewRating(expected, 0, 1000))
	assert.Equal(t, 1000.0, e.NewRating(expected, 0.5, 1000))
}

func TestNewRating_MonotonicInActualResult(t *testing.T) {
	e := testEngine()
	expected := e.ExpectedScore(1200, 1000)

	prev := math.Inf(-1)
	for actual := 0.0; actual <= 1.0; actual += 0.125 {
		next := e.NewRating(expected, actual, 1200)
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}

func TestNewRating_Clamped(t *testing.T) {
	e := NewEngine(Config{DefaultK: 32, MinRating: 100, MaxRating: 3000})

	// Losses near the floor cannot push the rating below it.
	assert.Equal(t, 100.0, e.NewRating(0.9, 0, 110))
	// Wins near the ceiling cannot push the rating above it.
	assert.Equal(t, 3000.0, e.NewRating(0.1, 1, 2995))
	// Out-of-range input is clamped before the update, never rejected.
	assert.Equal(t, 100.0, e.NewRating(0.5, 0.5, -500))
}

func TestNewRating_RoundingDisabled(t *testing.T) {
	e := NewEngine(Config{DefaultK: 32, DisableRounding: true})
	expected := e.ExpectedScore(1000, 1200)

	got := e.NewRating(expected, 1, 1000)
	assert.NotEqual(t, math.Trunc(got), got)
}
