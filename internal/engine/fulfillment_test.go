package engine

import (
	"math/big"
	"testing"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func matchOrder(index int, offerer common.Address, offer types.SpentItem, consideration types.ReceivedItem) *preparedOrder {
	p := &preparedOrder{
		index: index,
		params: types.OrderParameters{
			Offerer: offerer,
			Offer: []types.OfferItem{{
				ItemType:             offer.ItemType,
				Token:                offer.Token,
				IdentifierOrCriteria: offer.Identifier,
				StartAmount:          offer.Amount,
				EndAmount:            offer.Amount,
			}},
			Consideration: []types.ConsiderationItem{{
				ItemType:             consideration.ItemType,
				Token:                consideration.Token,
				IdentifierOrCriteria: consideration.Identifier,
				StartAmount:          consideration.Amount,
				EndAmount:            consideration.Amount,
				Recipient:            consideration.Recipient,
			}},
		},
		offerAmounts:         []*big.Int{new(big.Int).Set(offer.Amount)},
		considerationAmounts: []*big.Int{new(big.Int).Set(consideration.Amount)},
	}
	p.buildItems()
	return p
}

func erc20(amount int64) types.SpentItem {
	return types.SpentItem{ItemType: types.ItemTypeERC20, Token: testToken, Identifier: new(big.Int), Amount: big.NewInt(amount)}
}

func erc20To(amount int64, to common.Address) types.ReceivedItem {
	return types.ReceivedItem{ItemType: types.ItemTypeERC20, Token: testToken, Identifier: new(big.Int), Amount: big.NewInt(amount), Recipient: to}
}

func TestApplyFulfillmentShortfallAndSurplus(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb0")

	// alice offers 100, bob wants 60 of it
	a := matchOrder(0, alice, erc20(100), erc20To(1, alice))
	b := matchOrder(1, bob, erc20(1), erc20To(60, bob))
	orders := []*preparedOrder{a, b}

	ex, err := applyFulfillment(orders, types.Fulfillment{
		OfferComponents:         []types.FulfillmentComponent{{OrderIndex: 0}},
		ConsiderationComponents: []types.FulfillmentComponent{{OrderIndex: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, ex)
	assert.Equal(t, int64(60), ex.Item.Amount.Int64())
	assert.Equal(t, bob, ex.Item.Recipient)
	assert.Equal(t, alice, ex.Offerer)
	assert.Equal(t, int64(40), a.offerRemaining[0].Int64())
	assert.Equal(t, int64(0), b.considerationRemaining[0].Int64())

	// bob offers 1, alice wants 1
	ex, err = applyFulfillment(orders, types.Fulfillment{
		OfferComponents:         []types.FulfillmentComponent{{OrderIndex: 1}},
		ConsiderationComponents: []types.FulfillmentComponent{{OrderIndex: 0}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), ex.Item.Amount.Int64())

	unspent, err := finalizeOrders(orders, bob)
	require.NoError(t, err)
	require.Len(t, unspent, 1)
	assert.Equal(t, int64(40), unspent[0].Item.Amount.Int64())
	assert.Equal(t, bob, unspent[0].Item.Recipient)
}

func TestApplyFulfillmentErrors(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	bob := common.HexToAddress("0xb0")
	a := matchOrder(0, alice, erc20(10), erc20To(10, alice))
	nft := matchOrder(1, bob, types.SpentItem{
		ItemType: types.ItemTypeERC721, Token: testToken, Identifier: big.NewInt(1), Amount: big.NewInt(1),
	}, erc20To(10, bob))
	orders := []*preparedOrder{a, nft}

	_, err := applyFulfillment(orders, types.Fulfillment{OfferComponents: []types.FulfillmentComponent{{}}})
	require.ErrorIs(t, err, ErrOfferAndConsiderationRequiredOnFulfillment)

	_, err = applyFulfillment(orders, types.Fulfillment{
		OfferComponents:         []types.FulfillmentComponent{{OrderIndex: 5}},
		ConsiderationComponents: []types.FulfillmentComponent{{}},
	})
	require.ErrorIs(t, err, ErrInvalidFulfillmentComponentData)

	_, err = applyFulfillment(orders, types.Fulfillment{
		OfferComponents:         []types.FulfillmentComponent{{OrderIndex: 1}},
		ConsiderationComponents: []types.FulfillmentComponent{{OrderIndex: 0}},
	})
	require.ErrorIs(t, err, ErrMismatchedFulfillmentOfferAndConsiderationComponents)

	// offer components from different offerers cannot be aggregated
	c := matchOrder(0, alice, erc20(10), erc20To(10, alice))
	d := matchOrder(1, bob, erc20(10), erc20To(10, bob))
	_, err = applyFulfillment([]*preparedOrder{c, d}, types.Fulfillment{
		OfferComponents:         []types.FulfillmentComponent{{OrderIndex: 0}, {OrderIndex: 1}},
		ConsiderationComponents: []types.FulfillmentComponent{{OrderIndex: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidFulfillmentComponentData)
}

func TestFinalizeOrdersReportsShortfall(t *testing.T) {
	alice := common.HexToAddress("0xa1")
	a := matchOrder(0, alice, erc20(10), erc20To(7, alice))
	_, err := finalizeOrders([]*preparedOrder{a}, alice)

	var shortfall *ConsiderationNotMetError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, 0, shortfall.OrderIndex)
	assert.Equal(t, 0, shortfall.ConsiderationIndex)
	assert.Equal(t, int64(7), shortfall.ShortfallAmount.Int64())
}

type balanceKey struct {
	account  common.Address
	itemType types.ItemType
	token    common.Address
}

func netBalances(executions []types.Execution, caller common.Address) map[balanceKey]string {
	out := make(map[balanceKey]*big.Int)
	add := func(k balanceKey, v *big.Int) {
		if out[k] == nil {
			out[k] = new(big.Int)
		}
		out[k].Add(out[k], v)
	}
	for _, ex := range executions {
		from := balanceKey{executionSender(ex, caller), ex.Item.ItemType, ex.Item.Token}
		to := balanceKey{ex.Item.Recipient, ex.Item.ItemType, ex.Item.Token}
		add(from, new(big.Int).Neg(ex.Item.Amount))
		add(to, ex.Item.Amount)
	}
	balances := make(map[balanceKey]string)
	for k, v := range out {
		if v.Sign() != 0 {
			balances[k] = v.String()
		}
	}
	return balances
}

func TestNetExecutionsPreservesBalances(t *testing.T) {
	accounts := []common.Address{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0x03"),
	}
	itemTypes := []types.ItemType{types.ItemTypeNative, types.ItemTypeERC20, types.ItemTypeERC1155}

	rapid.Check(t, func(t *rapid.T) {
		caller := accounts[rapid.IntRange(0, len(accounts)-1).Draw(t, "caller").(int)]
		n := rapid.IntRange(0, 12).Draw(t, "executions").(int)
		executions := make([]types.Execution, n)
		for i := range executions {
			from := accounts[rapid.IntRange(0, len(accounts)-1).Draw(t, "from").(int)]
			to := accounts[rapid.IntRange(0, len(accounts)-1).Draw(t, "to").(int)]
			itemType := itemTypes[rapid.IntRange(0, len(itemTypes)-1).Draw(t, "itemType").(int)]
			amount := rapid.Int64Range(0, 50).Draw(t, "amount").(int64)
			executions[i] = execution(itemType, testToken, from, to, 0, amount)
		}

		netted := netExecutions(executions, caller)
		require.LessOrEqual(t, len(netted), len(executions))
		for _, ex := range netted {
			require.NotEqual(t, 0, ex.Item.Amount.Sign())
			require.NotEqual(t, executionSender(ex, caller), ex.Item.Recipient)
		}
		require.Equal(t, netBalances(executions, caller), netBalances(netted, caller))
	})
}
