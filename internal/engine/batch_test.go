package engine

import (
	"math/big"
	"testing"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execution(itemType types.ItemType, token, from, to common.Address, id, amount int64) types.Execution {
	return types.Execution{
		Item: types.ReceivedItem{
			ItemType:   itemType,
			Token:      token,
			Identifier: big.NewInt(id),
			Amount:     big.NewInt(amount),
			Recipient:  to,
		},
		Offerer: from,
	}
}

func TestCompactBatches(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb0")
	other := common.HexToAddress("0x2222")

	executions := []types.Execution{
		execution(types.ItemTypeERC1155, testToken, alice, bob, 1, 5),
		execution(types.ItemTypeERC20, testToken, bob, alice, 0, 100),
		execution(types.ItemTypeERC1155, testToken, alice, bob, 2, 3),
		execution(types.ItemTypeERC1155, other, alice, bob, 1, 1),
		execution(types.ItemTypeERC1155, testToken, alice, bob, 3, 7),
	}

	standalone, batches := CompactBatches(executions)
	require.Len(t, standalone, 2)
	require.Len(t, batches, 1)

	assert.Equal(t, types.ItemTypeERC20, standalone[0].Item.ItemType)
	assert.Equal(t, other, standalone[1].Item.Token)

	b := batches[0]
	assert.Equal(t, testToken, b.Token)
	assert.Equal(t, alice, b.From)
	assert.Equal(t, bob, b.To)
	require.Len(t, b.Identifiers, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{b.Identifiers[0].Int64(), b.Identifiers[1].Int64(), b.Identifiers[2].Int64()})
	assert.Equal(t, []int64{5, 3, 7}, []int64{b.Amounts[0].Int64(), b.Amounts[1].Int64(), b.Amounts[2].Int64()})
}

func TestPlanDispatchKeepsFirstPosition(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb0")
	steps := planDispatch([]types.Execution{
		execution(types.ItemTypeERC20, testToken, bob, alice, 0, 1),
		execution(types.ItemTypeERC1155, testToken, alice, bob, 1, 1),
		execution(types.ItemTypeERC721, testToken, alice, bob, 9, 1),
		execution(types.ItemTypeERC1155, testToken, alice, bob, 2, 1),
	})
	require.Len(t, steps, 3)
	assert.NotNil(t, steps[0].execution)
	assert.NotNil(t, steps[1].batch)
	assert.NotNil(t, steps[2].execution)
	assert.Equal(t, types.ItemTypeERC721, steps[2].execution.Item.ItemType)
}

func TestCompactBatchesDifferentConduitsStayApart(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb0")
	a := execution(types.ItemTypeERC1155, testToken, alice, bob, 1, 1)
	b := execution(types.ItemTypeERC1155, testToken, alice, bob, 2, 1)
	b.ConduitKey = common.HexToHash("0x01")

	standalone, batches := CompactBatches([]types.Execution{a, b})
	assert.Len(t, standalone, 2)
	assert.Empty(t, batches)
}
