package engine_test

import (
	"context"
	"crypto/ecdsa"
	"io"
	"math/big"
	"sync"
	"testing"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/ledger"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	protocol   = common.HexToAddress("0x00000000006c3852cbEf3e08E8dF289169EdE581")
	controller = common.HexToAddress("0x00000000F9490004C11Cef243f5400493c00Ad63")
	erc20Token = common.HexToAddress("0x2000000000000000000000000000000000000020")
	otherToken = common.HexToAddress("0x2000000000000000000000000000000000000021")
	nftToken   = common.HexToAddress("0x7210000000000000000000000000000000000721")
	multiToken = common.HexToAddress("0x1155000000000000000000000000000000001155")
	feeAccount = common.HexToAddress("0xfee0000000000000000000000000000000000fee")
	royalty    = common.HexToAddress("0x0a00000000000000000000000000000000000a0a")
)

const testNow = 1_000

type fixedClock struct {
	now uint64
}

func (c *fixedClock) Now() uint64 {
	return c.now
}

type recordingSink struct {
	mu     sync.Mutex
	events []engine.Event
}

func (s *recordingSink) Emit(_ context.Context, ev engine.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.EventName()
	}
	return out
}

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	engine   *engine.Engine
	store    *engine.MemoryStore
	ledger   *ledger.Ledger
	conduits *ledger.ConduitRegistry
	zones    *ledger.Zones
	wallets  *ledger.SmartAccounts
	clock    *fixedClock
	sink     *recordingSink
	salt     int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		store:    engine.NewMemoryStore(),
		ledger:   ledger.New(logger),
		conduits: ledger.NewConduitRegistry(),
		zones:    ledger.NewZones(),
		wallets:  ledger.NewSmartAccounts(),
		clock:    &fixedClock{now: testNow},
		sink:     &recordingSink{},
	}
	h.engine = engine.New(engine.Config{
		ChainID:           big.NewInt(1),
		Address:           protocol,
		ConduitController: controller,
	}, h.store, h.ledger,
		engine.WithConduits(h.conduits),
		engine.WithZones(h.zones),
		engine.WithOffererZones(h.zones),
		engine.WithAccountInspector(h.wallets),
		engine.WithSignatureValidator(h.wallets),
		engine.WithEventSink(h.sink),
		engine.WithClock(h.clock),
		engine.WithLogger(logger),
	)
	return h
}

// fund mints an asset to owner and approves the protocol to move it
func (h *harness) fund(owner common.Address, itemType types.ItemType, token common.Address, id, amount int64) {
	h.t.Helper()
	require.NoError(h.t, h.ledger.Mint(owner, itemType, token, big.NewInt(id), big.NewInt(amount)))
	h.ledger.SetApproval(owner, protocol, true)
}

func (h *harness) balance(owner common.Address, itemType types.ItemType, token common.Address, id int64) int64 {
	return h.ledger.BalanceOf(owner, itemType, token, big.NewInt(id)).Int64()
}

func (h *harness) params(offerer common.Address, offer []types.OfferItem, consideration []types.ConsiderationItem) types.OrderParameters {
	h.salt++
	return types.OrderParameters{
		Offerer:                         offerer,
		Offer:                           offer,
		Consideration:                   consideration,
		OrderType:                       types.OrderTypeFullOpen,
		StartTime:                       0,
		EndTime:                         10_000,
		Salt:                            big.NewInt(h.salt),
		TotalOriginalConsiderationItems: len(consideration),
	}
}

func (h *harness) orderHash(params types.OrderParameters) common.Hash {
	h.t.Helper()
	nonce, err := h.engine.GetNonce(h.ctx, params.Offerer)
	require.NoError(h.t, err)
	hash, err := h.engine.GetOrderHash(params.ToComponents(nonce))
	require.NoError(h.t, err)
	return hash
}

func (h *harness) sign(params types.OrderParameters, signer account) types.Order {
	h.t.Helper()
	sig, err := h.engine.Hasher().SignOrder(h.orderHash(params), signer.key)
	require.NoError(h.t, err)
	return types.Order{Parameters: params, Signature: sig}
}

func (h *harness) signAdvanced(params types.OrderParameters, signer account, numerator, denominator int64) types.AdvancedOrder {
	h.t.Helper()
	order := h.sign(params, signer).ToAdvanced()
	order.Numerator = big.NewInt(numerator)
	order.Denominator = big.NewInt(denominator)
	return order
}

func (h *harness) status(params types.OrderParameters) types.OrderStatus {
	h.t.Helper()
	st, err := h.engine.GetOrderStatus(h.ctx, h.orderHash(params))
	require.NoError(h.t, err)
	return st
}

func offerItem(itemType types.ItemType, token common.Address, id, amount int64) types.OfferItem {
	return types.OfferItem{
		ItemType:             itemType,
		Token:                token,
		IdentifierOrCriteria: big.NewInt(id),
		StartAmount:          big.NewInt(amount),
		EndAmount:            big.NewInt(amount),
	}
}

func considerationItem(itemType types.ItemType, token common.Address, id, amount int64, recipient common.Address) types.ConsiderationItem {
	return types.ConsiderationItem{
		ItemType:             itemType,
		Token:                token,
		IdentifierOrCriteria: big.NewInt(id),
		StartAmount:          big.NewInt(amount),
		EndAmount:            big.NewInt(amount),
		Recipient:            recipient,
	}
}

func native(amount int64, recipient common.Address) types.ConsiderationItem {
	return considerationItem(types.ItemTypeNative, common.Address{}, 0, amount, recipient)
}

func components(pairs ...[2]int) []types.FulfillmentComponent {
	out := make([]types.FulfillmentComponent, len(pairs))
	for i, p := range pairs {
		out[i] = types.FulfillmentComponent{OrderIndex: p[0], ItemIndex: p[1]}
	}
	return out
}
