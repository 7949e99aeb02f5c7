package handlers

import (
	"math/big"
	"net/http"
	"testing"

	"seaport-backend/internal/dto"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRouter(h *OrderHandler, caller *common.Address) *gin.Engine {
	r := gin.New()
	if caller != nil {
		r.Use(asUser(*caller))
	}
	r.POST("/orders/fulfill", h.FulfillOrderHandler)
	r.POST("/orders/validate", h.ValidateOrdersHandler)
	r.POST("/orders/cancel", h.CancelOrdersHandler)
	r.POST("/orders/hash", h.OrderHashHandler)
	r.POST("/nonce/increment", h.IncrementNonceHandler)
	r.GET("/orders/:orderHash/status", h.GetOrderStatusHandler)
	r.GET("/orders/:orderHash/fulfillments", h.OrderFulfillmentsHandler)
	r.GET("/nonce/:offerer", h.GetNonceHandler)
	r.GET("/balances/:address", h.BalancesHandler)
	r.GET("/events", h.RecentEventsHandler)
	r.GET("/information", h.InformationHandler)
	return r
}

func TestFulfillOrderHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.fund(t)
	order := f.listing(t)
	r := orderRouter(NewOrderHandler(f.service, quietLogger()), &f.bob)

	w, body := doJSON(t, r, http.MethodPost, "/orders/fulfill", dto.FulfillOrderRequest{Order: order, Value: "12"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	receipt := body["receipt"].(map[string]interface{})
	assert.Equal(t, float64(2), receipt["refund"])
	results := receipt["orders"].([]interface{})
	require.Len(t, results, 1)
	orderHash := results[0].(map[string]interface{})["orderHash"].(string)

	w, body = doJSON(t, r, http.MethodGet, "/orders/"+orderHash+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", body["totalFilled"])
	assert.Equal(t, "1", body["totalSize"])

	w, body = doJSON(t, r, http.MethodGet, "/orders/"+orderHash+"/fulfillments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["fulfillments"], 1)

	w, body = doJSON(t, r, http.MethodGet, "/balances/"+f.bob.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["balances"], 2)

	w, body = doJSON(t, r, http.MethodGet, "/events?name=OrderFulfilled&orderHash="+orderHash, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["events"], 1)

	// the same order cannot be filled twice
	w, body = doJSON(t, r, http.MethodPost, "/orders/fulfill", dto.FulfillOrderRequest{Order: order})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "OrderAlreadyFilled", body["code"])
}

func TestFulfillOrderHandlerRequiresCaller(t *testing.T) {
	f := newHandlerFixture(t)
	r := orderRouter(NewOrderHandler(f.service, quietLogger()), nil)

	w, body := doJSON(t, r, http.MethodPost, "/orders/fulfill", dto.FulfillOrderRequest{Order: f.listing(t)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
}

func TestFulfillOrderHandlerRejectsBadInput(t *testing.T) {
	f := newHandlerFixture(t)
	r := orderRouter(NewOrderHandler(f.service, quietLogger()), &f.bob)

	w, body := doJSON(t, r, http.MethodPost, "/orders/fulfill", dto.FulfillOrderRequest{Order: f.listing(t), Value: "ten"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_VALUE", body["code"])

	w, body = doJSON(t, r, http.MethodPost, "/orders/validate", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	w, body = doJSON(t, r, http.MethodGet, "/orders/0x1234/status", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_HASH", body["code"])

	w, body = doJSON(t, r, http.MethodGet, "/nonce/not-an-address", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ADDRESS", body["code"])
}

func TestCancelOrdersHandler(t *testing.T) {
	f := newHandlerFixture(t)
	f.fund(t)
	order := f.listing(t)
	components := order.Parameters.ToComponents(common.Big0)
	req := dto.CancelOrdersRequest{Orders: []types.OrderComponents{components}}

	w, body := doJSON(t, orderRouter(NewOrderHandler(f.service, quietLogger()), &f.bob), http.MethodPost, "/orders/cancel", req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "InvalidCanceller", body["code"])

	alice := orderRouter(NewOrderHandler(f.service, quietLogger()), &f.alice)
	w, body = doJSON(t, alice, http.MethodPost, "/orders/cancel", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["cancelled"])

	_, body = doJSON(t, alice, http.MethodPost, "/orders/hash", dto.OrderHashRequest{Components: components})
	orderHash := body["orderHash"].(string)
	_, body = doJSON(t, alice, http.MethodGet, "/orders/"+orderHash+"/status", nil)
	assert.Equal(t, true, body["isCancelled"])
}

func TestOrderHashAndCancelRejectOutOfRangeComponents(t *testing.T) {
	f := newHandlerFixture(t)
	r := orderRouter(NewOrderHandler(f.service, quietLogger()), &f.alice)
	components := f.listing(t).Parameters.ToComponents(common.Big0)
	components.Salt = big.NewInt(-1)

	w, body := doJSON(t, r, http.MethodPost, "/orders/hash", dto.OrderHashRequest{Components: components})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "InvalidOrderParameters", body["code"])

	w, body = doJSON(t, r, http.MethodPost, "/orders/cancel", dto.CancelOrdersRequest{Orders: []types.OrderComponents{components}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "InvalidOrderParameters", body["code"])
}

func TestValidateOrdersHandler(t *testing.T) {
	f := newHandlerFixture(t)
	r := orderRouter(NewOrderHandler(f.service, quietLogger()), &f.bob)

	w, body := doJSON(t, r, http.MethodPost, "/orders/validate", dto.ValidateOrdersRequest{Orders: []types.Order{f.listing(t)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["validated"])
}

func TestIncrementNonceHandler(t *testing.T) {
	f := newHandlerFixture(t)
	r := orderRouter(NewOrderHandler(f.service, quietLogger()), &f.alice)

	// an empty body increments the caller's own nonce
	w, body := doJSON(t, r, http.MethodPost, "/nonce/increment", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "1", body["nonce"])

	_, body = doJSON(t, r, http.MethodGet, "/nonce/"+f.alice.Hex(), nil)
	assert.Equal(t, "1", body["nonce"])

	w, body = doJSON(t, r, http.MethodPost, "/nonce/increment", dto.IncrementNonceRequest{Offerer: &f.bob})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "InvalidNonceIncrementor", body["code"])
}

func TestInformationHandler(t *testing.T) {
	f := newHandlerFixture(t)
	w, body := doJSON(t, orderRouter(NewOrderHandler(f.service, quietLogger()), nil), http.MethodGet, "/information", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := body["information"].(map[string]interface{})
	assert.Equal(t, "1.1", info["version"])
}
