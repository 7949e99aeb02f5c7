package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OrderType combines the fill mode (full/partial) with the restriction mode (open/restricted)
type OrderType uint8

const (
	OrderTypeFullOpen OrderType = iota
	OrderTypePartialOpen
	OrderTypeFullRestricted
	OrderTypePartialRestricted
)

// AllowsPartialFills reports whether fractions other than 1/1 may be requested
func (t OrderType) AllowsPartialFills() bool {
	return t&1 == 1
}

// IsRestricted reports whether the zone must approve fulfillment
func (t OrderType) IsRestricted() bool {
	return t >= OrderTypeFullRestricted
}

// Valid reports whether t is a known order type
func (t OrderType) Valid() bool {
	return t <= OrderTypePartialRestricted
}

// OrderParameters are the signed terms of an order, minus the nonce
type OrderParameters struct {
	Offerer                         common.Address      `json:"offerer"`
	Zone                            common.Address      `json:"zone"`
	Offer                           []OfferItem         `json:"offer"`
	Consideration                   []ConsiderationItem `json:"consideration"`
	OrderType                       OrderType           `json:"orderType"`
	StartTime                       uint64              `json:"startTime"`
	EndTime                         uint64              `json:"endTime"`
	ZoneHash                        common.Hash         `json:"zoneHash"`
	Salt                            *big.Int            `json:"salt"`
	ConduitKey                      common.Hash         `json:"conduitKey"`
	TotalOriginalConsiderationItems int                 `json:"totalOriginalConsiderationItems"`
}

// Copy returns a deep copy of the parameters
func (p OrderParameters) Copy() OrderParameters {
	out := p
	out.Offer = make([]OfferItem, len(p.Offer))
	for i, item := range p.Offer {
		out.Offer[i] = item.Copy()
	}
	out.Consideration = make([]ConsiderationItem, len(p.Consideration))
	for i, item := range p.Consideration {
		out.Consideration[i] = item.Copy()
	}
	out.Salt = copyInt(p.Salt)
	return out
}

// OrderComponents is the hashed and signed form of an order
type OrderComponents struct {
	Offerer       common.Address      `json:"offerer"`
	Zone          common.Address      `json:"zone"`
	Offer         []OfferItem         `json:"offer"`
	Consideration []ConsiderationItem `json:"consideration"`
	OrderType     OrderType           `json:"orderType"`
	StartTime     uint64              `json:"startTime"`
	EndTime       uint64              `json:"endTime"`
	ZoneHash      common.Hash         `json:"zoneHash"`
	Salt          *big.Int            `json:"salt"`
	ConduitKey    common.Hash         `json:"conduitKey"`
	Nonce         *big.Int            `json:"nonce"`
}

// ToComponents attaches a nonce to the parameters. Consideration items past
// TotalOriginalConsiderationItems are tips and are left out.
func (p OrderParameters) ToComponents(nonce *big.Int) OrderComponents {
	consideration := p.Consideration
	if p.TotalOriginalConsiderationItems >= 0 && p.TotalOriginalConsiderationItems < len(consideration) {
		consideration = consideration[:p.TotalOriginalConsiderationItems]
	}
	return OrderComponents{
		Offerer:       p.Offerer,
		Zone:          p.Zone,
		Offer:         p.Offer,
		Consideration: consideration,
		OrderType:     p.OrderType,
		StartTime:     p.StartTime,
		EndTime:       p.EndTime,
		ZoneHash:      p.ZoneHash,
		Salt:          p.Salt,
		ConduitKey:    p.ConduitKey,
		Nonce:         nonce,
	}
}

// Order is a signed order with an implicit 1/1 fill
type Order struct {
	Parameters OrderParameters `json:"parameters"`
	Signature  hexutil.Bytes   `json:"signature"`
}

// AdvancedOrder carries a fill fraction and opaque zone data
type AdvancedOrder struct {
	Parameters  OrderParameters `json:"parameters"`
	Numerator   *big.Int        `json:"numerator"`
	Denominator *big.Int        `json:"denominator"`
	Signature   hexutil.Bytes   `json:"signature"`
	ExtraData   hexutil.Bytes   `json:"extraData"`
}

// ToAdvanced converts an order into a full 1/1 advanced order
func (o Order) ToAdvanced() AdvancedOrder {
	return AdvancedOrder{
		Parameters:  o.Parameters,
		Numerator:   big.NewInt(1),
		Denominator: big.NewInt(1),
		Signature:   o.Signature,
	}
}

// OrderStatus is the persisted lifecycle record of an order hash
type OrderStatus struct {
	IsValidated bool     `json:"isValidated"`
	IsCancelled bool     `json:"isCancelled"`
	TotalFilled *big.Int `json:"totalFilled"`
	TotalSize   *big.Int `json:"totalSize"`
}

// NewOrderStatus returns the status of an unseen order
func NewOrderStatus() OrderStatus {
	return OrderStatus{TotalFilled: new(big.Int), TotalSize: new(big.Int)}
}

// Copy returns a deep copy of the status
func (s OrderStatus) Copy() OrderStatus {
	return OrderStatus{
		IsValidated: s.IsValidated,
		IsCancelled: s.IsCancelled,
		TotalFilled: copyInt(s.TotalFilled),
		TotalSize:   copyInt(s.TotalSize),
	}
}

// IsFullyFilled reports whether the order has no fillable fraction left
func (s OrderStatus) IsFullyFilled() bool {
	return s.TotalSize != nil && s.TotalSize.Sign() != 0 && s.TotalFilled.Cmp(s.TotalSize) >= 0
}

// CriteriaResolver supplies a concrete identifier for a criteria item
type CriteriaResolver struct {
	OrderIndex    int           `json:"orderIndex"`
	Side          Side          `json:"side"`
	Index         int           `json:"index"`
	Identifier    *big.Int      `json:"identifier"`
	CriteriaProof []common.Hash `json:"criteriaProof"`
}

// FulfillmentComponent points at an item of an order in the call's order array
type FulfillmentComponent struct {
	OrderIndex int `json:"orderIndex"`
	ItemIndex  int `json:"itemIndex"`
}

// Fulfillment pairs offer components with the consideration components they satisfy
type Fulfillment struct {
	OfferComponents         []FulfillmentComponent `json:"offerComponents"`
	ConsiderationComponents []FulfillmentComponent `json:"considerationComponents"`
}

// BasicOrderRouteType describes which asset pair a basic order swaps
type BasicOrderRouteType uint8

const (
	RouteNativeToERC721 BasicOrderRouteType = iota
	RouteNativeToERC1155
	RouteERC20ToERC721
	RouteERC20ToERC1155
	RouteERC721ToERC20
	RouteERC1155ToERC20
)

// AdditionalRecipient receives part of the payment token of a basic order
type AdditionalRecipient struct {
	Amount    *big.Int       `json:"amount"`
	Recipient common.Address `json:"recipient"`
}

// BasicOrderParameters is the compact encoding of a single-offer-item order
type BasicOrderParameters struct {
	ConsiderationToken                common.Address        `json:"considerationToken"`
	ConsiderationIdentifier           *big.Int              `json:"considerationIdentifier"`
	ConsiderationAmount               *big.Int              `json:"considerationAmount"`
	Offerer                           common.Address        `json:"offerer"`
	Zone                              common.Address        `json:"zone"`
	OfferToken                        common.Address        `json:"offerToken"`
	OfferIdentifier                   *big.Int              `json:"offerIdentifier"`
	OfferAmount                       *big.Int              `json:"offerAmount"`
	BasicOrderType                    uint8                 `json:"basicOrderType"`
	StartTime                         uint64                `json:"startTime"`
	EndTime                           uint64                `json:"endTime"`
	ZoneHash                          common.Hash           `json:"zoneHash"`
	Salt                              *big.Int              `json:"salt"`
	OffererConduitKey                 common.Hash           `json:"offererConduitKey"`
	FulfillerConduitKey               common.Hash           `json:"fulfillerConduitKey"`
	TotalOriginalAdditionalRecipients int                   `json:"totalOriginalAdditionalRecipients"`
	AdditionalRecipients              []AdditionalRecipient `json:"additionalRecipients"`
	Signature                         hexutil.Bytes         `json:"signature"`
}

// Route returns the route encoded in the basic order type
func (p BasicOrderParameters) Route() BasicOrderRouteType {
	return BasicOrderRouteType(p.BasicOrderType / 4)
}

// OrderType returns the order type encoded in the basic order type
func (p BasicOrderParameters) OrderType() OrderType {
	return OrderType(p.BasicOrderType % 4)
}
