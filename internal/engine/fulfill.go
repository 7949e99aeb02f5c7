package engine

import (
	"context"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// FulfillOrder fills a full order directly. The caller pays every consideration
// item and receives every offer item.
func (e *Engine) FulfillOrder(ctx context.Context, caller common.Address, order types.Order, fulfillerConduitKey common.Hash, value *big.Int) (*Receipt, error) {
	return e.FulfillAdvancedOrder(ctx, caller, order.ToAdvanced(), nil, fulfillerConduitKey, common.Address{}, value)
}

// FulfillAdvancedOrder fills a fraction of an order directly, resolving criteria
// items first. Offer items go to recipient, or to the caller when recipient is zero.
func (e *Engine) FulfillAdvancedOrder(ctx context.Context, caller common.Address, order types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillerConduitKey common.Hash, recipient common.Address, value *big.Int) (*Receipt, error) {
	if recipient == (common.Address{}) {
		recipient = caller
	}

	var prepared []*preparedOrder
	c, err := e.run(ctx, "fulfill_advanced_order", caller, value, false, func(c *call) error {
		p, err := c.prepare(0, order, prepareOptions{
			revertOnInvalid: true,
			resolvers:       resolvers,
		})
		if err != nil {
			return err
		}
		prepared = []*preparedOrder{p}

		if err := applyCriteriaResolvers(prepared, resolvers); err != nil {
			return err
		}
		p.buildItems()
		c.finishOrder(p, recipient)

		return c.dispatch(directExecutions(p, caller, recipient, fulfillerConduitKey))
	})
	if err != nil {
		return nil, err
	}
	return c.receipt(results(prepared), false), nil
}

// directExecutions moves every offer item to recipient and every consideration
// item from the caller to its recipient.
func directExecutions(p *preparedOrder, caller, recipient common.Address, fulfillerConduitKey common.Hash) []types.Execution {
	executions := make([]types.Execution, 0, len(p.offer)+len(p.consideration))
	for _, item := range p.offer {
		executions = append(executions, types.Execution{
			Item: types.ReceivedItem{
				ItemType:   item.ItemType,
				Token:      item.Token,
				Identifier: new(big.Int).Set(item.Identifier),
				Amount:     new(big.Int).Set(item.Amount),
				Recipient:  recipient,
			},
			Offerer:    p.params.Offerer,
			ConduitKey: p.params.ConduitKey,
		})
	}
	for _, item := range p.consideration {
		executions = append(executions, types.Execution{
			Item: types.ReceivedItem{
				ItemType:   item.ItemType,
				Token:      item.Token,
				Identifier: new(big.Int).Set(item.Identifier),
				Amount:     new(big.Int).Set(item.Amount),
				Recipient:  item.Recipient,
			},
			Offerer:    caller,
			ConduitKey: fulfillerConduitKey,
		})
	}
	return executions
}
