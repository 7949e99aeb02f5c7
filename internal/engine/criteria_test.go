package engine

import (
	"math/big"
	"testing"

	"seaport-backend/internal/types"
	"seaport-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func criteriaOrder(t *testing.T, root common.Hash) *preparedOrder {
	t.Helper()
	return &preparedOrder{
		params: types.OrderParameters{
			Offer: []types.OfferItem{{
				ItemType:             types.ItemTypeERC721WithCriteria,
				Token:                testToken,
				IdentifierOrCriteria: root.Big(),
				StartAmount:          big.NewInt(1),
				EndAmount:            big.NewInt(1),
			}},
			Consideration: []types.ConsiderationItem{{
				ItemType:             types.ItemTypeERC20,
				Token:                testToken,
				IdentifierOrCriteria: new(big.Int),
				StartAmount:          big.NewInt(5),
				EndAmount:            big.NewInt(5),
			}},
		},
	}
}

func TestResolveCriteriaWithProof(t *testing.T) {
	tree, err := utils.NewCriteriaTree([]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)})
	require.NoError(t, err)
	proof, err := tree.Proof(big.NewInt(2))
	require.NoError(t, err)

	p := criteriaOrder(t, tree.Root())
	err = applyCriteriaResolvers([]*preparedOrder{p}, []types.CriteriaResolver{{
		OrderIndex:    0,
		Side:          types.SideOffer,
		Index:         0,
		Identifier:    big.NewInt(2),
		CriteriaProof: proof,
	}})
	require.NoError(t, err)
	require.Equal(t, types.ItemTypeERC721, p.params.Offer[0].ItemType)
	require.Equal(t, int64(2), p.params.Offer[0].IdentifierOrCriteria.Int64())
}

func TestResolveCriteriaInvalidProof(t *testing.T) {
	tree, err := utils.NewCriteriaTree([]*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)})
	require.NoError(t, err)
	proof, err := tree.Proof(big.NewInt(2))
	require.NoError(t, err)

	p := criteriaOrder(t, tree.Root())
	err = applyCriteriaResolvers([]*preparedOrder{p}, []types.CriteriaResolver{{
		Side:          types.SideOffer,
		Identifier:    big.NewInt(4),
		CriteriaProof: proof,
	}})
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestResolveCriteriaTwice(t *testing.T) {
	p := criteriaOrder(t, common.Hash{})
	resolver := types.CriteriaResolver{Side: types.SideOffer, Identifier: big.NewInt(9)}
	err := applyCriteriaResolvers([]*preparedOrder{p}, []types.CriteriaResolver{resolver, resolver})
	require.ErrorIs(t, err, ErrCriteriaNotEnabledForItem)
}

func TestResolveCriteriaWildcard(t *testing.T) {
	p := criteriaOrder(t, common.Hash{})
	err := applyCriteriaResolvers([]*preparedOrder{p}, []types.CriteriaResolver{{
		Side:       types.SideOffer,
		Identifier: big.NewInt(123456),
	}})
	require.NoError(t, err)
	require.Equal(t, int64(123456), p.params.Offer[0].IdentifierOrCriteria.Int64())

	p = criteriaOrder(t, common.Hash{})
	err = applyCriteriaResolvers([]*preparedOrder{p}, []types.CriteriaResolver{{
		Side:          types.SideOffer,
		Identifier:    big.NewInt(1),
		CriteriaProof: []common.Hash{common.HexToHash("0x01")},
	}})
	require.ErrorIs(t, err, ErrInvalidProof)
}

func TestResolveCriteriaErrors(t *testing.T) {
	p := criteriaOrder(t, common.Hash{})
	orders := []*preparedOrder{p}

	err := applyCriteriaResolvers(orders, []types.CriteriaResolver{{OrderIndex: 1}})
	require.ErrorIs(t, err, ErrOrderCriteriaResolverOutOfRange)

	err = applyCriteriaResolvers(orders, []types.CriteriaResolver{{Side: types.SideOffer, Index: 3}})
	require.ErrorIs(t, err, ErrOfferCriteriaResolverOutOfRange)

	err = applyCriteriaResolvers(orders, []types.CriteriaResolver{{Side: types.SideConsideration, Index: 1}})
	require.ErrorIs(t, err, ErrConsiderationCriteriaResolverOutOfRange)

	err = applyCriteriaResolvers(orders, []types.CriteriaResolver{{Side: types.SideConsideration, Index: 0, Identifier: big.NewInt(1)}})
	require.ErrorIs(t, err, ErrCriteriaNotEnabledForItem)

	err = applyCriteriaResolvers(orders, nil)
	require.ErrorIs(t, err, ErrUnresolvedOfferCriteria)
}

func TestResolveCriteriaIgnoresSkippedOrders(t *testing.T) {
	p := criteriaOrder(t, common.Hash{})
	p.skipReason = ErrInvalidTime
	err := applyCriteriaResolvers([]*preparedOrder{p}, []types.CriteriaResolver{{Side: types.SideOffer, Identifier: big.NewInt(1)}})
	require.NoError(t, err)
	require.Equal(t, types.ItemTypeERC721WithCriteria, p.params.Offer[0].ItemType)
}
