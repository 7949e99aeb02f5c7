package engine

import (
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// dispatch compacts executions into batches and stages every transfer in the
// call's asset transaction, in aggregation order.
func (c *call) dispatch(executions []types.Execution) error {
	for _, step := range planDispatch(executions) {
		if step.execution != nil {
			if err := c.transfer(*step.execution); err != nil {
				return err
			}
			c.executions = append(c.executions, *step.execution)
			continue
		}
		if err := c.batchTransfer(*step.batch); err != nil {
			return err
		}
		c.batches = append(c.batches, *step.batch)
	}
	return nil
}

// transfer stages a single execution
func (c *call) transfer(ex types.Execution) error {
	item := ex.Item
	if item.Amount == nil || item.Amount.Sign() == 0 {
		return ErrMissingItemAmount
	}

	switch item.ItemType {
	case types.ItemTypeNative:
		if c.nativeRemaining.Cmp(item.Amount) < 0 {
			return ErrInsufficientNativeValue
		}
		c.nativeRemaining.Sub(c.nativeRemaining, item.Amount)
		protocol := c.engine.cfg.Address
		if err := c.tx.Transfer(c.ctx, protocol, protocol, item); err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		return nil

	case types.ItemTypeERC721:
		if item.Amount.Cmp(big.NewInt(1)) != 0 {
			return ErrInvalidERC721TransferAmount
		}

	case types.ItemTypeERC20, types.ItemTypeERC1155:

	default:
		return fmt.Errorf("%w: cannot transfer %s item", ErrInvalidOrderParameters, item.ItemType)
	}

	operator, err := c.operator(ex.ConduitKey)
	if err != nil {
		return err
	}
	if err := c.tx.Transfer(c.ctx, operator, ex.Offerer, item); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// batchTransfer stages an ERC1155 batch
func (c *call) batchTransfer(b types.BatchExecution) error {
	for _, amount := range b.Amounts {
		if amount.Sign() == 0 {
			return ErrMissingItemAmount
		}
	}
	operator, err := c.operator(b.ConduitKey)
	if err != nil {
		return err
	}
	if err := c.tx.BatchTransferERC1155(c.ctx, operator, b); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	return nil
}

// operator resolves the account that spends on behalf of the sender. The zero
// key means the protocol spends directly.
func (c *call) operator(conduitKey common.Hash) (common.Address, error) {
	protocol := c.engine.cfg.Address
	if conduitKey == (common.Hash{}) {
		return protocol, nil
	}
	if c.engine.conduits == nil {
		return common.Address{}, ErrInvalidConduit
	}
	conduit, ok := c.engine.conduits.Conduit(conduitKey)
	if !ok || !conduit.ChannelOpen(protocol) {
		return common.Address{}, fmt.Errorf("%w: %s", ErrInvalidConduit, conduitKey.Hex())
	}
	return conduit.Address(), nil
}
