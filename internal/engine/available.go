package engine

import (
	"context"
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// FulfillAvailableOrders fulfills as many of the given full orders as are
// currently valid, up to maxFulfilled. Invalid orders are skipped.
func (e *Engine) FulfillAvailableOrders(ctx context.Context, caller common.Address, orders []types.Order, offerFulfillments, considerationFulfillments [][]types.FulfillmentComponent, fulfillerConduitKey common.Hash, maxFulfilled int, value *big.Int) (*Receipt, error) {
	return e.FulfillAvailableAdvancedOrders(ctx, caller, toAdvancedOrders(orders), nil,
		offerFulfillments, considerationFulfillments, fulfillerConduitKey, common.Address{}, maxFulfilled, value)
}

// FulfillAvailableAdvancedOrders is FulfillAvailableOrders for advanced orders.
// Offer items go to recipient, or to the caller when recipient is zero.
func (e *Engine) FulfillAvailableAdvancedOrders(ctx context.Context, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, offerFulfillments, considerationFulfillments [][]types.FulfillmentComponent, fulfillerConduitKey common.Hash, recipient common.Address, maxFulfilled int, value *big.Int) (*Receipt, error) {
	if recipient == (common.Address{}) {
		recipient = caller
	}

	var prepared []*preparedOrder
	c, err := e.run(ctx, "fulfill_available_advanced_orders", caller, value, false, func(c *call) error {
		remaining := maxFulfilled
		hashes := make([]common.Hash, 0, len(orders))
		viable := 0
		for i, order := range orders {
			if remaining <= 0 {
				prepared = append(prepared, &preparedOrder{
					index:      i,
					order:      order,
					params:     order.Parameters.Copy(),
					skipReason: ErrNoSpecifiedOrdersAvailable,
				})
				continue
			}
			p, err := c.prepare(i, order, prepareOptions{
				revertOnInvalid: false,
				resolvers:       resolvers,
				priorHashes:     hashes,
			})
			if err != nil {
				return &OrderError{OrderIndex: i, Err: err}
			}
			prepared = append(prepared, p)
			if p.skipped() {
				continue
			}
			hashes = append(hashes, p.hash)
			remaining--
			viable++
		}
		if viable == 0 {
			return ErrNoSpecifiedOrdersAvailable
		}

		if err := applyCriteriaResolvers(prepared, resolvers); err != nil {
			return err
		}
		for _, p := range prepared {
			if p.skipped() {
				continue
			}
			p.buildItems()
			c.finishOrder(p, recipient)
		}

		executions := make([]types.Execution, 0, len(offerFulfillments)+len(considerationFulfillments))
		for i, group := range offerFulfillments {
			if len(group) == 0 {
				return fmt.Errorf("offer fulfillment %d: %w", i, ErrInvalidFulfillmentComponentData)
			}
			agg, err := aggregateSide(prepared, group, types.SideOffer)
			if err != nil {
				return fmt.Errorf("offer fulfillment %d: %w", i, err)
			}
			if !agg.found {
				continue
			}
			executions = append(executions, types.Execution{
				Item: types.ReceivedItem{
					ItemType:   agg.itemType,
					Token:      agg.token,
					Identifier: new(big.Int).Set(agg.identifier),
					Amount:     agg.amount,
					Recipient:  recipient,
				},
				Offerer:    agg.party,
				ConduitKey: agg.conduitKey,
			})
		}
		for i, group := range considerationFulfillments {
			if len(group) == 0 {
				return fmt.Errorf("consideration fulfillment %d: %w", i, ErrInvalidFulfillmentComponentData)
			}
			agg, err := aggregateSide(prepared, group, types.SideConsideration)
			if err != nil {
				return fmt.Errorf("consideration fulfillment %d: %w", i, err)
			}
			if !agg.found {
				continue
			}
			executions = append(executions, types.Execution{
				Item: types.ReceivedItem{
					ItemType:   agg.itemType,
					Token:      agg.token,
					Identifier: new(big.Int).Set(agg.identifier),
					Amount:     agg.amount,
					Recipient:  agg.party,
				},
				Offerer:    caller,
				ConduitKey: fulfillerConduitKey,
			})
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
	return c.receipt(results(prepared), false), nil
}
