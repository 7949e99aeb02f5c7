package engine

import (
	"math/big"

	"seaport-backend/internal/types"
)

// maxUint120 bounds requested fractions and the stored fill status
var maxUint120 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 120), big.NewInt(1))

// checkFraction validates a requested fill fraction against the order type.
// Orders without partial fills only accept N == D, which is normalized to 1/1.
func checkFraction(orderType types.OrderType, numerator, denominator *big.Int) (*big.Int, *big.Int, error) {
	if numerator == nil || denominator == nil ||
		numerator.Sign() <= 0 || denominator.Sign() <= 0 ||
		numerator.Cmp(denominator) > 0 {
		return nil, nil, ErrBadFraction
	}
	if numerator.Cmp(maxUint120) > 0 || denominator.Cmp(maxUint120) > 0 {
		return nil, nil, ErrBadFraction
	}
	if numerator.Cmp(denominator) == 0 {
		return big.NewInt(1), big.NewInt(1), nil
	}
	if !orderType.AllowsPartialFills() {
		return nil, nil, ErrPartialFillsNotEnabledForOrder
	}
	return new(big.Int).Set(numerator), new(big.Int).Set(denominator), nil
}

// combineFill folds a requested fraction into the stored status. It returns the
// effective fraction filled by this call and the status to store. A request larger
// than what remains is clamped to the remainder. The caller has already rejected
// cancelled and fully filled statuses. A reduced status that does not fit in
// 120 bits fails with ErrInexactFraction.
func combineFill(status types.OrderStatus, numerator, denominator *big.Int) (*big.Int, *big.Int, types.OrderStatus, error) {
	n := new(big.Int).Set(numerator)
	d := new(big.Int).Set(denominator)
	filled := new(big.Int)
	if status.TotalFilled != nil {
		filled.Set(status.TotalFilled)
	}

	size := status.TotalSize
	if size != nil && size.Sign() != 0 {
		if d.Cmp(big.NewInt(1)) == 0 {
			// A full fill request becomes "everything that is left"
			n.Set(size)
			d.Set(size)
		} else if size.Cmp(d) != 0 {
			filled.Mul(filled, d)
			n.Mul(n, size)
			d.Mul(d, size)
		}

		remaining := new(big.Int).Sub(d, filled)
		if n.Cmp(remaining) > 0 {
			n.Set(remaining)
		}
		filled.Add(filled, n)

		g := new(big.Int).GCD(nil, nil, n, filled)
		g.GCD(nil, nil, g, d)
		if g.Cmp(big.NewInt(1)) > 0 {
			n.Quo(n, g)
			filled.Quo(filled, g)
			d.Quo(d, g)
		}
	} else {
		filled.Set(n)
		g := new(big.Int).GCD(nil, nil, n, d)
		if g.Cmp(big.NewInt(1)) > 0 {
			n.Quo(n, g)
			d.Quo(d, g)
			filled.Set(n)
		}
	}

	if d.Cmp(maxUint120) > 0 || filled.Cmp(maxUint120) > 0 {
		return nil, nil, types.OrderStatus{}, ErrInexactFraction
	}

	next := types.OrderStatus{
		IsValidated: true,
		IsCancelled: false,
		TotalFilled: filled,
		TotalSize:   new(big.Int).Set(d),
	}
	return n, d, next, nil
}
