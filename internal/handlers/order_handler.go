package handlers

import (
	"net/http"

	"seaport-backend/internal/config"
	"seaport-backend/internal/dto"
	"seaport-backend/internal/engine"
	"seaport-backend/internal/events"
	"seaport-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// OrderHandler exposes fulfillment, matching and order lifecycle operations
type OrderHandler struct {
	service *services.ExchangeService
	logger  *logrus.Logger
}

// NewOrderHandler creates a new OrderHandler instance
func NewOrderHandler(service *services.ExchangeService, logger *logrus.Logger) *OrderHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OrderHandler{service: service, logger: logger}
}

func (h *OrderHandler) respondReceipt(c *gin.Context, op string, receipt *engine.Receipt, err error) {
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"op":     op,
			"caller": c.GetString("user_address"),
			"code":   engine.Code(err),
		}).Warn("❌ Order operation rejected")
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"receipt": receipt,
	})
}

// ==================== Fulfillment ====================

// FulfillOrderHandler POST /api/orders/fulfill
func (h *OrderHandler) FulfillOrderHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.FulfillOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	receipt, err := h.service.FulfillOrder(c.Request.Context(), caller, req.Order, req.FulfillerConduitKey, value)
	h.respondReceipt(c, "fulfill_order", receipt, err)
}

// FulfillAdvancedOrderHandler POST /api/orders/fulfill-advanced
func (h *OrderHandler) FulfillAdvancedOrderHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.FulfillAdvancedOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	receipt, err := h.service.FulfillAdvancedOrder(c.Request.Context(), caller, req.AdvancedOrder,
		req.CriteriaResolvers, req.FulfillerConduitKey, req.Recipient, value)
	h.respondReceipt(c, "fulfill_advanced_order", receipt, err)
}

// FulfillBasicOrderHandler POST /api/orders/fulfill-basic
func (h *OrderHandler) FulfillBasicOrderHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.FulfillBasicOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	receipt, err := h.service.FulfillBasicOrder(c.Request.Context(), caller, req.Parameters, value)
	h.respondReceipt(c, "fulfill_basic_order", receipt, err)
}

// FulfillAvailableOrdersHandler POST /api/orders/fulfill-available
func (h *OrderHandler) FulfillAvailableOrdersHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.FulfillAvailableOrdersRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	maximum := req.MaximumFulfilled
	if maximum <= 0 {
		maximum = len(req.Orders)
	}
	receipt, err := h.service.FulfillAvailableOrders(c.Request.Context(), caller, req.Orders,
		req.OfferFulfillments, req.ConsiderationFulfillments, req.FulfillerConduitKey, maximum, value)
	h.respondReceipt(c, "fulfill_available_orders", receipt, err)
}

// FulfillAvailableAdvancedOrdersHandler POST /api/orders/fulfill-available-advanced
func (h *OrderHandler) FulfillAvailableAdvancedOrdersHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.FulfillAvailableAdvancedOrdersRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	maximum := req.MaximumFulfilled
	if maximum <= 0 {
		maximum = len(req.AdvancedOrders)
	}
	receipt, err := h.service.FulfillAvailableAdvancedOrders(c.Request.Context(), caller, req.AdvancedOrders,
		req.CriteriaResolvers, req.OfferFulfillments, req.ConsiderationFulfillments,
		req.FulfillerConduitKey, req.Recipient, maximum, value)
	h.respondReceipt(c, "fulfill_available_advanced_orders", receipt, err)
}

// ==================== Matching ====================

// MatchOrdersHandler POST /api/orders/match
func (h *OrderHandler) MatchOrdersHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.MatchOrdersRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	receipt, err := h.service.MatchOrders(c.Request.Context(), caller, req.Orders, req.Fulfillments, value)
	h.respondReceipt(c, "match_orders", receipt, err)
}

// MatchAdvancedOrdersHandler POST /api/orders/match-advanced
func (h *OrderHandler) MatchAdvancedOrdersHandler(c *gin.Context) {
	h.matchAdvanced(c, false)
}

// SimulateMatchAdvancedOrdersHandler POST /api/orders/match-advanced/simulate
// runs the match without committing balances or order status
func (h *OrderHandler) SimulateMatchAdvancedOrdersHandler(c *gin.Context) {
	h.matchAdvanced(c, true)
}

func (h *OrderHandler) matchAdvanced(c *gin.Context, simulate bool) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.MatchAdvancedOrdersRequest
	if !bindJSON(c, &req) {
		return
	}
	value, ok := parseValue(c, req.Value)
	if !ok {
		return
	}
	if simulate {
		receipt, err := h.service.SimulateMatchAdvancedOrders(c.Request.Context(), caller, req.AdvancedOrders,
			req.CriteriaResolvers, req.Fulfillments, req.Recipient, value)
		h.respondReceipt(c, "simulate_match_advanced_orders", receipt, err)
		return
	}
	receipt, err := h.service.MatchAdvancedOrders(c.Request.Context(), caller, req.AdvancedOrders,
		req.CriteriaResolvers, req.Fulfillments, req.Recipient, value)
	h.respondReceipt(c, "match_advanced_orders", receipt, err)
}

// ==================== Lifecycle ====================

// ValidateOrdersHandler POST /api/orders/validate
func (h *OrderHandler) ValidateOrdersHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.ValidateOrdersRequest
	if !bindJSON(c, &req) {
		return
	}
	validated, err := h.service.Validate(c.Request.Context(), caller, req.Orders)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "validated": validated})
}

// CancelOrdersHandler POST /api/orders/cancel
func (h *OrderHandler) CancelOrdersHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.CancelOrdersRequest
	if !bindJSON(c, &req) {
		return
	}
	cancelled, err := h.service.Cancel(c.Request.Context(), caller, req.Orders)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cancelled": cancelled})
}

// IncrementNonceHandler POST /api/nonce/increment
func (h *OrderHandler) IncrementNonceHandler(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var req dto.IncrementNonceRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	offerer := caller
	if req.Offerer != nil {
		offerer = *req.Offerer
	}
	nonce, err := h.service.IncrementNonce(c.Request.Context(), caller, offerer)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"offerer": offerer,
		"nonce":   nonce.String(),
	})
}

// ==================== Reads ====================

// GetOrderStatusHandler GET /api/orders/:orderHash/status
func (h *OrderHandler) GetOrderStatusHandler(c *gin.Context) {
	orderHash, ok := hashParam(c, "orderHash")
	if !ok {
		return
	}
	status, err := h.service.GetOrderStatus(c.Request.Context(), orderHash)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"orderHash":   orderHash,
		"isValidated": status.IsValidated,
		"isCancelled": status.IsCancelled,
		"totalFilled": status.TotalFilled.String(),
		"totalSize":   status.TotalSize.String(),
	})
}

// GetNonceHandler GET /api/nonce/:offerer
func (h *OrderHandler) GetNonceHandler(c *gin.Context) {
	offerer, ok := addressParam(c, "offerer")
	if !ok {
		return
	}
	nonce, err := h.service.GetNonce(c.Request.Context(), offerer)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "offerer": offerer, "nonce": nonce.String()})
}

// InformationHandler GET /api/information
func (h *OrderHandler) InformationHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "information": h.service.Information()})
}

// OrderHashHandler POST /api/orders/hash
func (h *OrderHandler) OrderHashHandler(c *gin.Context) {
	var req dto.OrderHashRequest
	if !bindJSON(c, &req) {
		return
	}
	orderHash, err := h.service.GetOrderHash(req.Components)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orderHash": orderHash})
}

// OrderFulfillmentsHandler GET /api/orders/:orderHash/fulfillments
func (h *OrderHandler) OrderFulfillmentsHandler(c *gin.Context) {
	orderHash, ok := hashParam(c, "orderHash")
	if !ok {
		return
	}
	records, err := h.service.FulfillmentsByOrder(c.Request.Context(), orderHash)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "fulfillments": records})
}

// FulfillerHistoryHandler GET /api/fulfillers/:address/fulfillments?page=&size=
func (h *OrderHandler) FulfillerHistoryHandler(c *gin.Context) {
	fulfiller, ok := addressParam(c, "address")
	if !ok {
		return
	}
	page := queryInt(c, "page", 1)
	size := queryInt(c, "size", 20)
	if size > 100 {
		size = 100
	}
	records, total, err := h.service.FulfillmentsByFulfiller(c.Request.Context(), fulfiller, page, size)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"fulfillments": records,
		"pagination": gin.H{
			"page":  page,
			"size":  size,
			"total": total,
		},
	})
}

// RecentEventsHandler GET /api/events?name=&orderHash=&account=&limit=
func (h *OrderHandler) RecentEventsHandler(c *gin.Context) {
	orderHash := c.Query("orderHash")
	if orderHash != "" {
		hash, err := config.ParseHash(orderHash)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "INVALID_HASH", err.Error())
			return
		}
		orderHash = hash.Hex()
	}
	limit := queryInt(c, "limit", 50)
	if limit > 500 {
		limit = 500
	}
	filter := events.Filter{Name: c.Query("name"), OrderHash: orderHash}
	if account := c.Query("account"); account != "" {
		address, err := config.ParseAddress(account)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "INVALID_ADDRESS", err.Error())
			return
		}
		filter.Account = address.Hex()
	}
	recent, err := h.service.RecentEvents(c.Request.Context(), filter, limit)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": recent})
}

// BalancesHandler GET /api/balances/:address
func (h *OrderHandler) BalancesHandler(c *gin.Context) {
	account, ok := addressParam(c, "address")
	if !ok {
		return
	}
	balances, err := h.service.Balances(account)
	if err != nil {
		respondWithEngineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "account": account, "balances": balances})
}
