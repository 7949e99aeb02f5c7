package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCurrentAmountBoundaries(t *testing.T) {
	start := big.NewInt(1000)
	end := big.NewInt(100)

	require.Equal(t, "1000", currentAmount(start, end, 100, 200, 100, false).String())
	require.Equal(t, "1000", currentAmount(start, end, 100, 200, 100, true).String())
	require.Equal(t, "100", currentAmount(start, end, 100, 200, 200, false).String())
	require.Equal(t, "100", currentAmount(start, end, 100, 200, 200, true).String())
	require.Equal(t, "550", currentAmount(start, end, 100, 200, 150, false).String())
}

func TestCurrentAmountRounding(t *testing.T) {
	// (10*2 + 0*1) / 3 = 6.66..
	start := big.NewInt(10)
	end := big.NewInt(0)
	require.Equal(t, "6", currentAmount(start, end, 0, 3, 1, false).String())
	require.Equal(t, "7", currentAmount(start, end, 0, 3, 1, true).String())
}

func TestCurrentAmountConstantIgnoresTime(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := rapid.Int64Range(0, 1<<40).Draw(t, "value").(int64)
		startTime := rapid.Uint64Range(0, 1<<32).Draw(t, "startTime").(uint64)
		duration := rapid.Uint64Range(0, 1<<20).Draw(t, "duration").(uint64)
		now := startTime + rapid.Uint64Range(0, duration).Draw(t, "elapsed").(uint64)
		roundUp := rapid.Bool().Draw(t, "roundUp").(bool)

		v := big.NewInt(value)
		got := currentAmount(v, new(big.Int).Set(v), startTime, startTime+duration, now, roundUp)
		require.Equal(t, 0, got.Cmp(v))
	})
}

func TestCurrentAmountStaysBetweenBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := big.NewInt(rapid.Int64Range(0, 1<<40).Draw(t, "start").(int64))
		end := big.NewInt(rapid.Int64Range(0, 1<<40).Draw(t, "end").(int64))
		duration := rapid.Uint64Range(1, 1<<20).Draw(t, "duration").(uint64)
		elapsed := rapid.Uint64Range(0, duration).Draw(t, "elapsed").(uint64)

		down := currentAmount(start, end, 10, 10+duration, 10+elapsed, false)
		up := currentAmount(start, end, 10, 10+duration, 10+elapsed, true)

		lo, hi := start, end
		if lo.Cmp(hi) > 0 {
			lo, hi = hi, lo
		}
		require.True(t, down.Cmp(lo) >= 0 && down.Cmp(hi) <= 0)
		require.True(t, up.Cmp(lo) >= 0 && up.Cmp(hi) <= 0)
		diff := new(big.Int).Sub(up, down)
		require.True(t, diff.Sign() >= 0 && diff.Cmp(big.NewInt(1)) <= 0)
	})
}

func TestGetFraction(t *testing.T) {
	v, err := getFraction(big.NewInt(1), big.NewInt(5), big.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, "2", v.String())

	v, err = getFraction(big.NewInt(3), big.NewInt(3), big.NewInt(7))
	require.NoError(t, err)
	require.Equal(t, "7", v.String())

	_, err = getFraction(big.NewInt(1), big.NewInt(3), big.NewInt(10))
	require.ErrorIs(t, err, ErrInexactFraction)
}

func TestApplyFraction(t *testing.T) {
	// Half of a 100 -> 50 descending amount, halfway through
	v, err := applyFraction(big.NewInt(100), big.NewInt(50), big.NewInt(1), big.NewInt(2), 0, 10, 5, false)
	require.NoError(t, err)
	require.Equal(t, "37", v.String())

	v, err = applyFraction(big.NewInt(100), big.NewInt(50), big.NewInt(1), big.NewInt(2), 0, 10, 5, true)
	require.NoError(t, err)
	require.Equal(t, "38", v.String())

	_, err = applyFraction(big.NewInt(1), big.NewInt(1), big.NewInt(1), big.NewInt(2), 0, 10, 5, false)
	require.ErrorIs(t, err, ErrInexactFraction)
}
