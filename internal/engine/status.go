package engine

import (
	"context"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// stateOverlay stages status and nonce writes of one call on top of the store.
// Reads see staged writes first.
type stateOverlay struct {
	store        Store
	statuses     map[common.Hash]types.OrderStatus
	statusOrder  []common.Hash
	nonces       map[common.Address]*big.Int
	nonceOrder   []common.Address
	fulfillments []FulfillmentRecord
}

func newStateOverlay(store Store) *stateOverlay {
	return &stateOverlay{
		store:    store,
		statuses: make(map[common.Hash]types.OrderStatus),
		nonces:   make(map[common.Address]*big.Int),
	}
}

func (o *stateOverlay) status(ctx context.Context, orderHash common.Hash) (types.OrderStatus, error) {
	if st, ok := o.statuses[orderHash]; ok {
		return st.Copy(), nil
	}
	st, err := o.store.OrderStatus(ctx, orderHash)
	if err != nil {
		return types.OrderStatus{}, err
	}
	return st.Copy(), nil
}

func (o *stateOverlay) setStatus(orderHash common.Hash, st types.OrderStatus) {
	if _, ok := o.statuses[orderHash]; !ok {
		o.statusOrder = append(o.statusOrder, orderHash)
	}
	o.statuses[orderHash] = st.Copy()
}

func (o *stateOverlay) nonce(ctx context.Context, offerer common.Address) (*big.Int, error) {
	if n, ok := o.nonces[offerer]; ok {
		return new(big.Int).Set(n), nil
	}
	n, err := o.store.Nonce(ctx, offerer)
	if err != nil {
		return nil, err
	}
	if n == nil {
		n = new(big.Int)
	}
	return new(big.Int).Set(n), nil
}

func (o *stateOverlay) setNonce(offerer common.Address, n *big.Int) {
	if _, ok := o.nonces[offerer]; !ok {
		o.nonceOrder = append(o.nonceOrder, offerer)
	}
	o.nonces[offerer] = new(big.Int).Set(n)
}

func (o *stateOverlay) recordFulfillment(rec FulfillmentRecord) {
	o.fulfillments = append(o.fulfillments, rec)
}

func (o *stateOverlay) batch() *StateBatch {
	b := &StateBatch{Fulfillments: o.fulfillments}
	for _, h := range o.statusOrder {
		b.Statuses = append(b.Statuses, StatusUpdate{OrderHash: h, Status: o.statuses[h].Copy()})
	}
	for _, a := range o.nonceOrder {
		b.Nonces = append(b.Nonces, NonceUpdate{Offerer: a, Nonce: new(big.Int).Set(o.nonces[a])})
	}
	return b
}

// checkStatus rejects cancelled and fully filled orders. With onlyAllowUnused
// any prior fill is rejected as well.
func checkStatus(st types.OrderStatus, onlyAllowUnused bool) error {
	if st.IsCancelled {
		return ErrOrderIsCancelled
	}
	if st.IsFullyFilled() {
		return ErrOrderAlreadyFilled
	}
	if onlyAllowUnused && st.TotalFilled != nil && st.TotalFilled.Sign() != 0 {
		return ErrOrderPartiallyFilled
	}
	return nil
}

// ============================================
// Validate / Cancel / IncrementNonce
// ============================================

// Validate marks each order validated after checking its signature. Orders that
// are already validated are skipped without a new event.
func (e *Engine) Validate(ctx context.Context, caller common.Address, orders []types.Order) (bool, error) {
	_, err := e.run(ctx, "validate", caller, nil, false, func(c *call) error {
		for i, order := range orders {
			if err := c.validateOne(order); err != nil {
				return &OrderError{OrderIndex: i, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *call) validateOne(order types.Order) error {
	params := order.Parameters
	if err := checkParameters(params); err != nil {
		return err
	}
	nonce, err := c.state.nonce(c.ctx, params.Offerer)
	if err != nil {
		return err
	}
	orderHash, err := c.engine.hasher.OrderHash(params.ToComponents(nonce))
	if err != nil {
		return err
	}

	st, err := c.state.status(c.ctx, orderHash)
	if err != nil {
		return err
	}
	if err := checkStatus(st, false); err != nil {
		return err
	}
	if st.IsValidated {
		return nil
	}
	if c.caller != params.Offerer {
		if err := c.engine.verifySignature(c.ctx, params.Offerer, orderHash, order.Signature); err != nil {
			return err
		}
	}

	st.IsValidated = true
	c.state.setStatus(orderHash, st)
	c.emit(OrderValidated{OrderHash: orderHash, Offerer: params.Offerer, Zone: params.Zone})
	return nil
}

// Cancel cancels every order described by components. Only the offerer or the
// zone of an order may cancel it.
func (e *Engine) Cancel(ctx context.Context, caller common.Address, components []types.OrderComponents) (bool, error) {
	_, err := e.run(ctx, "cancel", caller, nil, false, func(c *call) error {
		for i, comp := range components {
			if caller != comp.Offerer && caller != comp.Zone {
				return &OrderError{OrderIndex: i, Err: ErrInvalidCanceller}
			}
			orderHash, err := e.hasher.OrderHash(comp)
			if err != nil {
				return &OrderError{OrderIndex: i, Err: err}
			}
			st, err := c.state.status(ctx, orderHash)
			if err != nil {
				return err
			}
			st.IsValidated = false
			st.IsCancelled = true
			c.state.setStatus(orderHash, st)
			c.emit(OrderCancelled{OrderHash: orderHash, Offerer: comp.Offerer, Zone: comp.Zone})
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// IncrementNonce bumps the offerer's nonce, orphaning every order signed
// against the previous value. The caller must be the offerer or the zone the
// offerer is assigned to.
func (e *Engine) IncrementNonce(ctx context.Context, caller, offerer common.Address) (*big.Int, error) {
	var next *big.Int
	_, err := e.run(ctx, "increment_nonce", caller, nil, false, func(c *call) error {
		if caller != offerer && !e.isOffererZone(caller, offerer) {
			return ErrInvalidNonceIncrementor
		}
		current, err := c.state.nonce(ctx, offerer)
		if err != nil {
			return err
		}
		next = new(big.Int).Add(current, big.NewInt(1))
		c.state.setNonce(offerer, next)
		c.emit(NonceIncremented{NewNonce: new(big.Int).Set(next), Offerer: offerer})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.WithFields(logrus.Fields{
		"offerer": offerer.Hex(),
		"nonce":   next.String(),
	}).Info("🔢 Nonce incremented")
	return next, nil
}

func (e *Engine) isOffererZone(caller, offerer common.Address) bool {
	if e.offerers == nil {
		return false
	}
	zone, ok := e.offerers.ZoneOf(offerer)
	return ok && zone == caller
}
