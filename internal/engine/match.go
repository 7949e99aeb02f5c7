package engine

import (
	"context"
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// MatchOrders matches full orders against each other. The caller takes no
// liability beyond the native value it supplies.
func (e *Engine) MatchOrders(ctx context.Context, caller common.Address, orders []types.Order, fulfillments []types.Fulfillment, value *big.Int) (*Receipt, error) {
	return e.match(ctx, "match_orders", caller, toAdvancedOrders(orders), nil, fulfillments, caller, value, false)
}

// MatchAdvancedOrders matches partially fillable and criteria-based orders.
// Offer items left unspent go to recipient, or to the caller when recipient is zero.
func (e *Engine) MatchAdvancedOrders(ctx context.Context, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillments []types.Fulfillment, recipient common.Address, value *big.Int) (*Receipt, error) {
	return e.match(ctx, "match_advanced_orders", caller, orders, resolvers, fulfillments, recipient, value, false)
}

// SimulateMatchAdvancedOrders runs every check and the full aggregation of a
// match without committing anything.
func (e *Engine) SimulateMatchAdvancedOrders(ctx context.Context, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillments []types.Fulfillment, recipient common.Address, value *big.Int) (*Receipt, error) {
	return e.match(ctx, "simulate_match_advanced_orders", caller, orders, resolvers, fulfillments, recipient, value, true)
}

func (e *Engine) match(ctx context.Context, op string, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillments []types.Fulfillment, recipient common.Address, value *big.Int, simulate bool) (*Receipt, error) {
	if recipient == (common.Address{}) {
		recipient = caller
	}
	var prepared []*preparedOrder
	c, err := e.run(ctx, op, caller, value, simulate, func(c *call) error {
		hashes := make([]common.Hash, 0, len(orders))
		for i, order := range orders {
			p, err := c.prepare(i, order, prepareOptions{
				revertOnInvalid:  true,
				allowNativeOffer: true,
				resolvers:        resolvers,
				priorHashes:      hashes,
			})
			if err != nil {
				return &OrderError{OrderIndex: i, Err: err}
			}
			prepared = append(prepared, p)
			hashes = append(hashes, p.hash)
		}

		if err := applyCriteriaResolvers(prepared, resolvers); err != nil {
			return err
		}
		for _, p := range prepared {
			p.buildItems()
			c.finishOrder(p, caller)
		}

		executions := make([]types.Execution, 0, len(fulfillments))
		for i, f := range fulfillments {
			ex, err := applyFulfillment(prepared, f)
			if err != nil {
				return fmt.Errorf("fulfillment %d: %w", i, err)
			}
			if ex != nil {
				executions = append(executions, *ex)
			}
		}

		unspent, err := finalizeOrders(prepared, recipient)
		if err != nil {
			return err
		}
		executions = append(executions, unspent...)

		return c.dispatch(netExecutions(executions, caller))
	})
	if err != nil {
		return nil, err
	}
	return c.receipt(results(prepared), simulate), nil
}

func toAdvancedOrders(orders []types.Order) []types.AdvancedOrder {
	out := make([]types.AdvancedOrder, len(orders))
	for i, o := range orders {
		out[i] = o.ToAdvanced()
	}
	return out
}
