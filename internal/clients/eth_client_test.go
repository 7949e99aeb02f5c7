package clients

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves code and isValidSignature answers from memory
type fakeBackend struct {
	code      map[common.Address][]byte
	valid     map[common.Hash]bool
	codeCalls int
	lastCall  ethereum.CallMsg
}

func (f *fakeBackend) CodeAt(_ context.Context, account common.Address, _ *big.Int) ([]byte, error) {
	f.codeCalls++
	return f.code[account], nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = call
	if len(call.Data) < 36 {
		return nil, errors.New("execution reverted")
	}
	digest := common.BytesToHash(call.Data[4:36])
	out := make([]byte, 32)
	if f.valid[digest] {
		copy(out, ERC1271MagicValue[:])
	} else {
		copy(out, []byte{0xff, 0xff, 0xff, 0xff})
	}
	return out, nil
}

func TestChainAccountsIsContract(t *testing.T) {
	wallet := common.HexToAddress("0x5a5a")
	backend := &fakeBackend{code: map[common.Address][]byte{wallet: {0x60, 0x80}}}
	accounts, err := NewChainAccounts(backend, 0)
	require.NoError(t, err)

	ok, err := accounts.IsContract(context.Background(), wallet)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = accounts.IsContract(context.Background(), wallet)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, backend.codeCalls)

	ok, err = accounts.IsContract(context.Background(), common.HexToAddress("0xe0a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChainAccountsIsValidSignature(t *testing.T) {
	wallet := common.HexToAddress("0x5a5a")
	good := crypto.Keccak256Hash([]byte("good"))
	backend := &fakeBackend{valid: map[common.Hash]bool{good: true}}
	accounts, err := NewChainAccounts(backend, 0)
	require.NoError(t, err)

	ok, err := accounts.IsValidSignature(context.Background(), wallet, good, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, wallet, *backend.lastCall.To)
	assert.Equal(t, crypto.Keccak256([]byte("isValidSignature(bytes32,bytes)"))[:4], backend.lastCall.Data[:4])

	ok, err = accounts.IsValidSignature(context.Background(), wallet, crypto.Keccak256Hash([]byte("bad")), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
