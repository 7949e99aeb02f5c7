package engine

import (
	"context"
	"math/big"
	"testing"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreApply(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	hash := common.HexToHash("0x01")
	offerer := common.HexToAddress("0xa1")

	st, err := s.OrderStatus(ctx, hash)
	require.NoError(t, err)
	assert.False(t, st.IsValidated)
	assert.Equal(t, int64(0), st.TotalSize.Int64())

	status := types.OrderStatus{IsValidated: true, TotalFilled: big.NewInt(1), TotalSize: big.NewInt(2)}
	require.NoError(t, s.Apply(ctx, &StateBatch{
		Statuses: []StatusUpdate{{OrderHash: hash, Status: status}},
		Nonces:   []NonceUpdate{{Offerer: offerer, Nonce: big.NewInt(3)}},
	}))
	// the stored status does not alias the caller's integers
	status.TotalFilled.SetInt64(2)

	st, err = s.OrderStatus(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalFilled.Int64())
	nonce, err := s.Nonce(ctx, offerer)
	require.NoError(t, err)
	assert.Equal(t, int64(3), nonce.Int64())
}

func TestMemoryStoreFulfillmentHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	alice, bob := common.HexToAddress("0xa1"), common.HexToAddress("0xb0")
	first, second := common.HexToHash("0x01"), common.HexToHash("0x02")

	batch := &StateBatch{}
	for i, rec := range []struct {
		hash      common.Hash
		fulfiller common.Address
	}{{first, alice}, {second, alice}, {first, bob}, {first, alice}} {
		batch.Fulfillments = append(batch.Fulfillments, FulfillmentRecord{
			ID:        string(rune('a' + i)),
			OrderHash: rec.hash,
			Fulfiller: rec.fulfiller,
		})
	}
	require.NoError(t, s.Apply(ctx, batch))

	byOrder, err := s.FulfillmentsByOrder(ctx, first)
	require.NoError(t, err)
	require.Len(t, byOrder, 3)
	assert.Equal(t, "a", byOrder[0].ID)

	page, total, err := s.FulfillmentsByFulfiller(ctx, alice, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].ID)
	assert.Equal(t, "b", page[1].ID)

	page, _, err = s.FulfillmentsByFulfiller(ctx, alice, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "a", page[0].ID)

	page, _, err = s.FulfillmentsByFulfiller(ctx, alice, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}
