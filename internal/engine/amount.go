package engine

import (
	"math/big"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// currentAmount interpolates linearly between start and end over [startTime, endTime].
// Offer amounts round down and consideration amounts round up. The caller guarantees
// startTime <= now <= endTime.
func currentAmount(start, end *big.Int, startTime, endTime, now uint64, roundUp bool) *big.Int {
	if start.Cmp(end) == 0 {
		return new(big.Int).Set(end)
	}

	duration := new(big.Int).SetUint64(endTime - startTime)
	elapsed := new(big.Int).SetUint64(now - startTime)
	remaining := new(big.Int).Sub(duration, elapsed)

	total := new(big.Int).Mul(start, remaining)
	total.Add(total, new(big.Int).Mul(end, elapsed))
	if roundUp {
		total.Add(total, new(big.Int).Sub(duration, big.NewInt(1)))
	}
	return total.Quo(total, duration)
}

// getFraction scales value by numerator/denominator, failing if the result is not exact
func getFraction(numerator, denominator, value *big.Int) (*big.Int, error) {
	if numerator.Cmp(denominator) == 0 {
		return new(big.Int).Set(value), nil
	}
	product := new(big.Int).Mul(value, numerator)
	quo, rem := new(big.Int).QuoRem(product, denominator, new(big.Int))
	if rem.Sign() != 0 {
		return nil, ErrInexactFraction
	}
	return quo, nil
}

// applyFraction scales both bounds of an item by the fill fraction and then interpolates
func applyFraction(start, end, numerator, denominator *big.Int, startTime, endTime, now uint64, roundUp bool) (*big.Int, error) {
	scaledStart, err := getFraction(numerator, denominator, start)
	if err != nil {
		return nil, err
	}
	scaledEnd := scaledStart
	if start.Cmp(end) != 0 {
		scaledEnd, err = getFraction(numerator, denominator, end)
		if err != nil {
			return nil, err
		}
	}
	return currentAmount(scaledStart, scaledEnd, startTime, endTime, now, roundUp), nil
}
