package handlers

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/events"
	"seaport-backend/internal/ledger"
	"seaport-backend/internal/services"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	protocolAddress   = common.HexToAddress("0x00000000006c3852cbEf3e08E8dF289169EdE581")
	controllerAddress = common.HexToAddress("0x00000000F9490004C11Cef243f5400493c00Ad63")
	nftAddress        = common.HexToAddress("0x7210000000000000000000000000000000000721")
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type handlerFixture struct {
	service  *services.ExchangeService
	aliceKey *ecdsa.PrivateKey
	alice    common.Address
	bob      common.Address
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	logger := quietLogger()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	store := engine.NewMemoryStore()
	assets := ledger.New(logger)
	conduits := ledger.NewConduitRegistry()
	zones := ledger.NewZones()
	wallets := ledger.NewSmartAccounts()
	buffer := events.NewBuffer(100)
	dispatcher := events.NewDispatcher(logger)
	dispatcher.Register("buffer", buffer)

	eng := engine.New(engine.Config{
		ChainID:           big.NewInt(1),
		Address:           protocolAddress,
		ConduitController: controllerAddress,
	}, store, assets,
		engine.WithConduits(conduits),
		engine.WithZones(zones),
		engine.WithOffererZones(zones),
		engine.WithAccountInspector(wallets),
		engine.WithSignatureValidator(wallets),
		engine.WithEventSink(dispatcher),
		engine.WithLogger(logger),
	)

	return &handlerFixture{
		service: services.NewExchangeService(services.ExchangeServiceConfig{
			Engine:   eng,
			History:  store,
			Events:   buffer,
			Ledger:   assets,
			Conduits: conduits,
			Zones:    zones,
			Wallets:  wallets,
			Logger:   logger,
		}),
		aliceKey: key,
		alice:    crypto.PubkeyToAddress(key.PublicKey),
		bob:      common.HexToAddress("0x000000000000000000000000000000000000b0b0"),
	}
}

// fund gives alice NFT #1 (approved to the protocol) and bob 12 wei
func (f *handlerFixture) fund(t *testing.T) {
	t.Helper()
	require.NoError(t, f.service.Mint(f.alice, types.ItemTypeERC721, nftAddress, big.NewInt(1), big.NewInt(1)))
	require.NoError(t, f.service.Mint(f.bob, types.ItemTypeNative, common.Address{}, nil, big.NewInt(12)))
	require.NoError(t, f.service.SetApproval(f.alice, protocolAddress, true))
}

// listing is alice's NFT #1 for 10 wei
func (f *handlerFixture) listing(t *testing.T) types.Order {
	t.Helper()
	params := types.OrderParameters{
		Offerer: f.alice,
		Offer: []types.OfferItem{{
			ItemType:             types.ItemTypeERC721,
			Token:                nftAddress,
			IdentifierOrCriteria: big.NewInt(1),
			StartAmount:          big.NewInt(1),
			EndAmount:            big.NewInt(1),
		}},
		Consideration: []types.ConsiderationItem{{
			ItemType:             types.ItemTypeNative,
			IdentifierOrCriteria: new(big.Int),
			StartAmount:          big.NewInt(10),
			EndAmount:            big.NewInt(10),
			Recipient:            f.alice,
		}},
		OrderType:                       types.OrderTypeFullOpen,
		EndTime:                         uint64(time.Now().Add(time.Hour).Unix()),
		Salt:                            big.NewInt(42),
		TotalOriginalConsiderationItems: 1,
	}
	nonce, err := f.service.GetNonce(context.Background(), f.alice)
	require.NoError(t, err)
	hash, err := f.service.GetOrderHash(params.ToComponents(nonce))
	require.NoError(t, err)
	sig, err := f.service.Engine().Hasher().SignOrder(hash, f.aliceKey)
	require.NoError(t, err)
	return types.Order{Parameters: params, Signature: sig}
}

// asUser stands in for the auth middleware
func asUser(user common.Address) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_address", user.Hex())
		c.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, header ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}
