package engine_test

import (
	"math/big"
	"testing"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) signBasic(params types.BasicOrderParameters, signer account) types.BasicOrderParameters {
	h.t.Helper()
	order, err := engine.BasicOrderToAdvanced(params)
	require.NoError(h.t, err)
	sig, err := h.engine.Hasher().SignOrder(h.orderHash(order.Parameters), signer.key)
	require.NoError(h.t, err)
	params.Signature = sig
	return params
}

func basicOrder(offerer common.Address, route types.BasicOrderRouteType) types.BasicOrderParameters {
	return types.BasicOrderParameters{
		Offerer:                           offerer,
		BasicOrderType:                    uint8(route) * 4,
		StartTime:                         0,
		EndTime:                           10_000,
		Salt:                              big.NewInt(99),
		TotalOriginalAdditionalRecipients: 1,
	}
}

func TestBasicOrderNativeForERC721(t *testing.T) {
	h := newHarness(t)
	alice, bob := newAccount(t), newAccount(t)
	h.fund(alice.addr, types.ItemTypeERC721, nftToken, 3, 1)
	h.fund(bob.addr, types.ItemTypeNative, common.Address{}, 0, 20)

	params := basicOrder(alice.addr, types.RouteNativeToERC721)
	params.OfferToken = nftToken
	params.OfferIdentifier = big.NewInt(3)
	params.OfferAmount = big.NewInt(1)
	params.ConsiderationAmount = big.NewInt(10)
	params.AdditionalRecipients = []types.AdditionalRecipient{{Amount: big.NewInt(1), Recipient: feeAccount}}
	params = h.signBasic(params, alice)

	receipt, err := h.engine.FulfillBasicOrder(h.ctx, bob.addr, params, big.NewInt(11))
	require.NoError(t, err)
	assert.Equal(t, int64(0), receipt.Refund.Int64())
	assert.Equal(t, int64(1), h.balance(bob.addr, types.ItemTypeERC721, nftToken, 3))
	assert.Equal(t, int64(10), h.balance(alice.addr, types.ItemTypeNative, common.Address{}, 0))
	assert.Equal(t, int64(1), h.balance(feeAccount, types.ItemTypeNative, common.Address{}, 0))
	assert.Equal(t, int64(9), h.balance(bob.addr, types.ItemTypeNative, common.Address{}, 0))

	_, err = h.engine.FulfillBasicOrder(h.ctx, bob.addr, params, nil)
	require.ErrorIs(t, err, engine.ErrOrderAlreadyFilled)
}

func TestBasicOrderERC20ForERC721(t *testing.T) {
	h := newHarness(t)
	alice, bob := newAccount(t), newAccount(t)
	h.fund(alice.addr, types.ItemTypeERC721, nftToken, 1, 1)
	h.fund(bob.addr, types.ItemTypeERC20, erc20Token, 0, 105)

	params := basicOrder(alice.addr, types.RouteERC20ToERC721)
	params.OfferToken = nftToken
	params.OfferIdentifier = big.NewInt(1)
	params.OfferAmount = big.NewInt(1)
	params.ConsiderationToken = erc20Token
	params.ConsiderationAmount = big.NewInt(100)
	params.AdditionalRecipients = []types.AdditionalRecipient{{Amount: big.NewInt(5), Recipient: feeAccount}}
	params = h.signBasic(params, alice)

	_, err := h.engine.FulfillBasicOrder(h.ctx, bob.addr, params, big.NewInt(1))
	require.ErrorIs(t, err, engine.ErrInvalidMsgValue)

	_, err = h.engine.FulfillBasicOrder(h.ctx, bob.addr, params, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.balance(bob.addr, types.ItemTypeERC721, nftToken, 1))
	assert.Equal(t, int64(100), h.balance(alice.addr, types.ItemTypeERC20, erc20Token, 0))
	assert.Equal(t, int64(5), h.balance(feeAccount, types.ItemTypeERC20, erc20Token, 0))
}

func TestBasicOrderERC721ForERC20(t *testing.T) {
	h := newHarness(t)
	alice, bob := newAccount(t), newAccount(t)
	h.fund(alice.addr, types.ItemTypeERC20, erc20Token, 0, 100)
	h.fund(bob.addr, types.ItemTypeERC721, nftToken, 5, 1)

	// alice bids 100 for NFT #5 and pays a 10 fee out of her bid
	params := basicOrder(alice.addr, types.RouteERC721ToERC20)
	params.OfferToken = erc20Token
	params.OfferAmount = big.NewInt(100)
	params.ConsiderationToken = nftToken
	params.ConsiderationIdentifier = big.NewInt(5)
	params.ConsiderationAmount = big.NewInt(1)
	params.AdditionalRecipients = []types.AdditionalRecipient{{Amount: big.NewInt(10), Recipient: feeAccount}}
	params = h.signBasic(params, alice)

	receipt, err := h.engine.FulfillBasicOrder(h.ctx, bob.addr, params, nil)
	require.NoError(t, err)
	assert.Len(t, receipt.Executions, 3)
	assert.Equal(t, int64(1), h.balance(alice.addr, types.ItemTypeERC721, nftToken, 5))
	assert.Equal(t, int64(90), h.balance(bob.addr, types.ItemTypeERC20, erc20Token, 0))
	assert.Equal(t, int64(10), h.balance(feeAccount, types.ItemTypeERC20, erc20Token, 0))
	assert.Equal(t, int64(0), h.balance(alice.addr, types.ItemTypeERC20, erc20Token, 0))
}

func TestBasicOrderRejectsPartiallyFilled(t *testing.T) {
	h := newHarness(t)
	alice, bob := newAccount(t), newAccount(t)
	h.fund(alice.addr, types.ItemTypeERC1155, multiToken, 4, 10)
	h.fund(bob.addr, types.ItemTypeERC20, erc20Token, 0, 100)

	params := basicOrder(alice.addr, types.RouteERC20ToERC1155)
	params.BasicOrderType += uint8(types.OrderTypePartialOpen)
	params.OfferToken = multiToken
	params.OfferIdentifier = big.NewInt(4)
	params.OfferAmount = big.NewInt(10)
	params.ConsiderationToken = erc20Token
	params.ConsiderationAmount = big.NewInt(50)
	params.TotalOriginalAdditionalRecipients = 0
	params = h.signBasic(params, alice)

	order, err := engine.BasicOrderToAdvanced(params)
	require.NoError(t, err)
	order.Numerator = big.NewInt(1)
	order.Denominator = big.NewInt(2)
	_, err = h.engine.FulfillAdvancedOrder(h.ctx, bob.addr, order, nil, common.Hash{}, common.Address{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), h.balance(bob.addr, types.ItemTypeERC1155, multiToken, 4))

	_, err = h.engine.FulfillBasicOrder(h.ctx, bob.addr, params, nil)
	require.ErrorIs(t, err, engine.ErrOrderPartiallyFilled)
}

func TestBasicOrderToAdvanced(t *testing.T) {
	params := basicOrder(common.HexToAddress("0xa1"), types.RouteERC1155ToERC20)
	params.BasicOrderType += uint8(types.OrderTypeFullRestricted)
	params.OfferToken = erc20Token
	params.OfferAmount = big.NewInt(100)
	params.ConsiderationToken = multiToken
	params.ConsiderationIdentifier = big.NewInt(8)
	params.ConsiderationAmount = big.NewInt(3)
	params.AdditionalRecipients = []types.AdditionalRecipient{
		{Amount: big.NewInt(1), Recipient: feeAccount},
		{Amount: big.NewInt(2), Recipient: royalty},
	}

	order, err := engine.BasicOrderToAdvanced(params)
	require.NoError(t, err)
	p := order.Parameters
	assert.Equal(t, types.OrderTypeFullRestricted, p.OrderType)
	require.Len(t, p.Offer, 1)
	assert.Equal(t, types.ItemTypeERC20, p.Offer[0].ItemType)
	require.Len(t, p.Consideration, 3)
	assert.Equal(t, types.ItemTypeERC1155, p.Consideration[0].ItemType)
	assert.Equal(t, types.ItemTypeERC20, p.Consideration[1].ItemType)
	assert.Equal(t, erc20Token, p.Consideration[2].Token)
	assert.Equal(t, 2, p.TotalOriginalConsiderationItems)

	params.BasicOrderType = 24
	_, err = engine.BasicOrderToAdvanced(params)
	require.ErrorIs(t, err, engine.ErrInvalidBasicOrderParameters)

	params.BasicOrderType = 0
	params.TotalOriginalAdditionalRecipients = 3
	_, err = engine.BasicOrderToAdvanced(params)
	require.ErrorIs(t, err, engine.ErrMissingOriginalConsiderationItems)
}
