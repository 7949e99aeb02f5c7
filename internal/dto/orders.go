package dto

import (
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// ==================== Fulfillment DTOs ====================
//
// Value is the native amount (decimal string, wei) the caller attaches to the call.
// An empty value means zero.

// FulfillOrderRequest fulfills a single order at full size
type FulfillOrderRequest struct {
	Order               types.Order `json:"order"`
	FulfillerConduitKey common.Hash `json:"fulfillerConduitKey"`
	Value               string      `json:"value"`
}

// FulfillAdvancedOrderRequest fulfills a fraction of an order, resolving criteria items
type FulfillAdvancedOrderRequest struct {
	AdvancedOrder       types.AdvancedOrder      `json:"advancedOrder"`
	CriteriaResolvers   []types.CriteriaResolver `json:"criteriaResolvers"`
	FulfillerConduitKey common.Hash              `json:"fulfillerConduitKey"`
	Recipient           common.Address           `json:"recipient"`
	Value               string                   `json:"value"`
}

// FulfillBasicOrderRequest fulfills an order in the compact basic layout
type FulfillBasicOrderRequest struct {
	Parameters types.BasicOrderParameters `json:"parameters"`
	Value      string                     `json:"value"`
}

// FulfillAvailableOrdersRequest fulfills as many orders as possible, skipping unavailable ones
type FulfillAvailableOrdersRequest struct {
	Orders                    []types.Order                  `json:"orders" binding:"required"`
	OfferFulfillments         [][]types.FulfillmentComponent `json:"offerFulfillments"`
	ConsiderationFulfillments [][]types.FulfillmentComponent `json:"considerationFulfillments"`
	FulfillerConduitKey       common.Hash                    `json:"fulfillerConduitKey"`
	MaximumFulfilled          int                            `json:"maximumFulfilled"`
	Value                     string                         `json:"value"`
}

// FulfillAvailableAdvancedOrdersRequest is the advanced variant of FulfillAvailableOrdersRequest
type FulfillAvailableAdvancedOrdersRequest struct {
	AdvancedOrders            []types.AdvancedOrder          `json:"advancedOrders" binding:"required"`
	CriteriaResolvers         []types.CriteriaResolver       `json:"criteriaResolvers"`
	OfferFulfillments         [][]types.FulfillmentComponent `json:"offerFulfillments"`
	ConsiderationFulfillments [][]types.FulfillmentComponent `json:"considerationFulfillments"`
	FulfillerConduitKey       common.Hash                    `json:"fulfillerConduitKey"`
	Recipient                 common.Address                 `json:"recipient"`
	MaximumFulfilled          int                            `json:"maximumFulfilled"`
	Value                     string                         `json:"value"`
}

// MatchOrdersRequest matches orders against each other
type MatchOrdersRequest struct {
	Orders       []types.Order       `json:"orders" binding:"required"`
	Fulfillments []types.Fulfillment `json:"fulfillments"`
	Value        string              `json:"value"`
}

// MatchAdvancedOrdersRequest matches advanced orders; also used for simulation
type MatchAdvancedOrdersRequest struct {
	AdvancedOrders    []types.AdvancedOrder    `json:"advancedOrders" binding:"required"`
	CriteriaResolvers []types.CriteriaResolver `json:"criteriaResolvers"`
	Fulfillments      []types.Fulfillment      `json:"fulfillments"`
	Recipient         common.Address           `json:"recipient"`
	Value             string                   `json:"value"`
}

// ==================== Order Lifecycle DTOs ====================

// ValidateOrdersRequest pre-validates signed orders
type ValidateOrdersRequest struct {
	Orders []types.Order `json:"orders" binding:"required"`
}

// CancelOrdersRequest cancels orders by their components
type CancelOrdersRequest struct {
	Orders []types.OrderComponents `json:"orders" binding:"required"`
}

// IncrementNonceRequest bumps the nonce of offerer; an empty offerer means the caller
type IncrementNonceRequest struct {
	Offerer *common.Address `json:"offerer"`
}

// OrderHashRequest computes the hash of order components
type OrderHashRequest struct {
	Components types.OrderComponents `json:"components"`
}

// ==================== Admin DTOs ====================

// MintRequest credits an account on the settlement ledger
type MintRequest struct {
	Account    common.Address `json:"account" binding:"required"`
	ItemType   types.ItemType `json:"itemType"`
	Token      common.Address `json:"token"`
	Identifier string         `json:"identifier"`
	Amount     string         `json:"amount" binding:"required"`
}

// ApprovalRequest sets operator approval for every asset of owner
type ApprovalRequest struct {
	Owner    common.Address `json:"owner" binding:"required"`
	Operator common.Address `json:"operator" binding:"required"`
	Approved bool           `json:"approved"`
}

// CreateConduitRequest registers a conduit under key
type CreateConduitRequest struct {
	ConduitKey common.Hash    `json:"conduitKey" binding:"required"`
	Owner      common.Address `json:"owner" binding:"required"`
}

// UpdateChannelRequest opens or closes a channel on a conduit
type UpdateChannelRequest struct {
	Channel common.Address `json:"channel" binding:"required"`
	Open    bool           `json:"open"`
}

// RegisterZoneRequest registers an allow-list zone
type RegisterZoneRequest struct {
	Address  common.Address   `json:"address" binding:"required"`
	AllowAll bool             `json:"allowAll"`
	Callers  []common.Address `json:"callers"`
	Offerers []common.Address `json:"offerers"`
}

// RegisterSmartAccountRequest registers an account whose signatures are validated by its owner
type RegisterSmartAccountRequest struct {
	Account common.Address `json:"account" binding:"required"`
	Owner   common.Address `json:"owner" binding:"required"`
}
