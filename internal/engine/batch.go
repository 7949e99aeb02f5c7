package engine

import (
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

type batchKey struct {
	token      common.Address
	from       common.Address
	to         common.Address
	conduitKey common.Hash
}

// dispatchStep is either a standalone execution or a batch, in dispatch order
type dispatchStep struct {
	execution *types.Execution
	batch     *types.BatchExecution
}

// planDispatch groups ERC1155 executions sharing token, sender, recipient and
// conduit key into batches. Groups of a single execution stay standalone. A
// batch is dispatched at the position of its first member.
func planDispatch(executions []types.Execution) []dispatchStep {
	counts := make(map[batchKey]int)
	for _, ex := range executions {
		if ex.Item.ItemType == types.ItemTypeERC1155 {
			counts[keyOf(ex)]++
		}
	}

	batches := make(map[batchKey]*types.BatchExecution)
	steps := make([]dispatchStep, 0, len(executions))
	for i := range executions {
		ex := executions[i]
		if ex.Item.ItemType != types.ItemTypeERC1155 || counts[keyOf(ex)] < 2 {
			steps = append(steps, dispatchStep{execution: &ex})
			continue
		}
		key := keyOf(ex)
		b, ok := batches[key]
		if !ok {
			b = &types.BatchExecution{
				Token:      ex.Item.Token,
				From:       ex.Offerer,
				To:         ex.Item.Recipient,
				ConduitKey: ex.ConduitKey,
			}
			batches[key] = b
			steps = append(steps, dispatchStep{batch: b})
		}
		b.Identifiers = append(b.Identifiers, new(big.Int).Set(ex.Item.Identifier))
		b.Amounts = append(b.Amounts, new(big.Int).Set(ex.Item.Amount))
	}
	return steps
}

func keyOf(ex types.Execution) batchKey {
	return batchKey{
		token:      ex.Item.Token,
		from:       ex.Offerer,
		to:         ex.Item.Recipient,
		conduitKey: ex.ConduitKey,
	}
}

// CompactBatches splits executions into standalone executions and ERC1155 batches
func CompactBatches(executions []types.Execution) ([]types.Execution, []types.BatchExecution) {
	var (
		standalone []types.Execution
		batches    []types.BatchExecution
	)
	for _, step := range planDispatch(executions) {
		if step.execution != nil {
			standalone = append(standalone, *step.execution)
		} else {
			batches = append(batches, *step.batch)
		}
	}
	return standalone, batches
}
