package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

type stubAccounts struct {
	contracts map[common.Address]bool
	valid     bool
	err       error
	calls     int
}

func (s *stubAccounts) IsContract(_ context.Context, account common.Address) (bool, error) {
	return s.contracts[account], nil
}

func (s *stubAccounts) IsValidSignature(_ context.Context, _ common.Address, _ common.Hash, _ []byte) (bool, error) {
	s.calls++
	return s.valid, s.err
}

func newSignatureEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	return New(Config{ChainID: big.NewInt(1), Address: testProtocol}, NewMemoryStore(), nil, opts...)
}

func TestVerifySignatureECDSA(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	offerer := crypto.PubkeyToAddress(key.PublicKey)

	e := newSignatureEngine(t)
	c := testComponents()
	c.Offerer = offerer
	orderHash, err := e.Hasher().OrderHash(c)
	require.NoError(t, err)

	sig, err := e.Hasher().SignOrder(orderHash, key)
	require.NoError(t, err)
	require.NoError(t, e.verifySignature(context.Background(), offerer, orderHash, sig))

	// v in {0, 1} is accepted as well
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	require.NoError(t, e.verifySignature(context.Background(), offerer, orderHash, raw))

	compact, err := CompactSignature(sig)
	require.NoError(t, err)
	require.Len(t, compact, 64)
	require.NoError(t, e.verifySignature(context.Background(), offerer, orderHash, compact))

	other := common.HexToAddress("0x1234")
	require.ErrorIs(t, e.verifySignature(context.Background(), other, orderHash, sig), ErrInvalidSigner)
}

func TestVerifySignatureRejectsMalformed(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	offerer := crypto.PubkeyToAddress(key.PublicKey)
	e := newSignatureEngine(t)
	orderHash := common.HexToHash("0xabcdef")

	sig, err := e.Hasher().SignOrder(orderHash, key)
	require.NoError(t, err)
	badV := append([]byte(nil), sig...)
	badV[64] = 29
	require.ErrorIs(t, e.verifySignature(context.Background(), offerer, orderHash, badV), ErrBadSignatureV)

	require.ErrorIs(t, e.verifySignature(context.Background(), offerer, orderHash, nil), ErrInvalidSignature)
	require.ErrorIs(t, e.verifySignature(context.Background(), offerer, orderHash, make([]byte, 10)), ErrInvalidSignature)

	// signature, tree key and seven proof nodes: merkle-tree (bulk) signatures are not accepted
	bulk := append(append([]byte(nil), sig...), make([]byte, 1+7*32)...)
	require.ErrorIs(t, e.verifySignature(context.Background(), offerer, orderHash, bulk), ErrInvalidSignature)
}

func TestVerifySignatureDelegatesToSmartAccounts(t *testing.T) {
	wallet := common.HexToAddress("0x5a5a")
	stub := &stubAccounts{contracts: map[common.Address]bool{wallet: true}, valid: true}
	e := newSignatureEngine(t, WithAccountInspector(stub), WithSignatureValidator(stub))
	orderHash := common.HexToHash("0x01")

	require.NoError(t, e.verifySignature(context.Background(), wallet, orderHash, []byte{0x01, 0x02}))
	require.Equal(t, 1, stub.calls)

	stub.valid = false
	require.ErrorIs(t, e.verifySignature(context.Background(), wallet, orderHash, []byte{0x01}), ErrBadContractSignature)

	stub.err = errors.New("reverted")
	require.ErrorIs(t, e.verifySignature(context.Background(), wallet, orderHash, []byte{0x01}), ErrBadContractSignature)

	// externally owned accounts never reach the validator
	calls := stub.calls
	require.ErrorIs(t, e.verifySignature(context.Background(), common.HexToAddress("0x7777"), orderHash, []byte{0x01}), ErrInvalidSignature)
	require.Equal(t, calls, stub.calls)
}

func TestCompactSignatureRejectsBadInput(t *testing.T) {
	_, err := CompactSignature(make([]byte, 64))
	require.ErrorIs(t, err, ErrInvalidSignature)

	sig := make([]byte, 65)
	sig[64] = 30
	_, err = CompactSignature(sig)
	require.ErrorIs(t, err, ErrBadSignatureV)
}
