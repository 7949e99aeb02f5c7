package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ItemType identifies the asset standard an item moves
type ItemType uint8

const (
	ItemTypeNative ItemType = iota
	ItemTypeERC20
	ItemTypeERC721
	ItemTypeERC1155
	ItemTypeERC721WithCriteria
	ItemTypeERC1155WithCriteria
)

// String returns the item type name used in logs and metric labels
func (t ItemType) String() string {
	switch t {
	case ItemTypeNative:
		return "native"
	case ItemTypeERC20:
		return "erc20"
	case ItemTypeERC721:
		return "erc721"
	case ItemTypeERC1155:
		return "erc1155"
	case ItemTypeERC721WithCriteria:
		return "erc721_criteria"
	case ItemTypeERC1155WithCriteria:
		return "erc1155_criteria"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a known item type
func (t ItemType) Valid() bool {
	return t <= ItemTypeERC1155WithCriteria
}

// HasCriteria reports whether the identifier field holds a merkle root
func (t ItemType) HasCriteria() bool {
	return t == ItemTypeERC721WithCriteria || t == ItemTypeERC1155WithCriteria
}

// WithoutCriteria downgrades a criteria item type to its concrete equivalent
func (t ItemType) WithoutCriteria() ItemType {
	switch t {
	case ItemTypeERC721WithCriteria:
		return ItemTypeERC721
	case ItemTypeERC1155WithCriteria:
		return ItemTypeERC1155
	default:
		return t
	}
}

// Side selects the offer or consideration array of an order
type Side uint8

const (
	SideOffer Side = iota
	SideConsideration
)

func (s Side) String() string {
	if s == SideOffer {
		return "offer"
	}
	return "consideration"
}

// OfferItem is an asset the offerer gives up
type OfferItem struct {
	ItemType             ItemType       `json:"itemType"`
	Token                common.Address `json:"token"`
	IdentifierOrCriteria *big.Int       `json:"identifierOrCriteria"`
	StartAmount          *big.Int       `json:"startAmount"`
	EndAmount            *big.Int       `json:"endAmount"`
}

// Copy returns a deep copy of the item
func (i OfferItem) Copy() OfferItem {
	return OfferItem{
		ItemType:             i.ItemType,
		Token:                i.Token,
		IdentifierOrCriteria: copyInt(i.IdentifierOrCriteria),
		StartAmount:          copyInt(i.StartAmount),
		EndAmount:            copyInt(i.EndAmount),
	}
}

// ConsiderationItem is an asset the offerer expects a recipient to receive
type ConsiderationItem struct {
	ItemType             ItemType       `json:"itemType"`
	Token                common.Address `json:"token"`
	IdentifierOrCriteria *big.Int       `json:"identifierOrCriteria"`
	StartAmount          *big.Int       `json:"startAmount"`
	EndAmount            *big.Int       `json:"endAmount"`
	Recipient            common.Address `json:"recipient"`
}

// Copy returns a deep copy of the item
func (i ConsiderationItem) Copy() ConsiderationItem {
	return ConsiderationItem{
		ItemType:             i.ItemType,
		Token:                i.Token,
		IdentifierOrCriteria: copyInt(i.IdentifierOrCriteria),
		StartAmount:          copyInt(i.StartAmount),
		EndAmount:            copyInt(i.EndAmount),
		Recipient:            i.Recipient,
	}
}

// SpentItem is a resolved offer item as reported in fulfillment events
type SpentItem struct {
	ItemType   ItemType       `json:"itemType"`
	Token      common.Address `json:"token"`
	Identifier *big.Int       `json:"identifier"`
	Amount     *big.Int       `json:"amount"`
}

// ReceivedItem is a resolved consideration item, or the payload of an execution
type ReceivedItem struct {
	ItemType   ItemType       `json:"itemType"`
	Token      common.Address `json:"token"`
	Identifier *big.Int       `json:"identifier"`
	Amount     *big.Int       `json:"amount"`
	Recipient  common.Address `json:"recipient"`
}

// Execution is a single asset movement ready for dispatch
type Execution struct {
	Item       ReceivedItem   `json:"item"`
	Offerer    common.Address `json:"offerer"`
	ConduitKey common.Hash    `json:"conduitKey"`
}

// BatchExecution groups ERC1155 executions sharing token, sender, recipient and conduit
type BatchExecution struct {
	Token       common.Address `json:"token"`
	From        common.Address `json:"from"`
	To          common.Address `json:"to"`
	ConduitKey  common.Hash    `json:"conduitKey"`
	Identifiers []*big.Int     `json:"identifiers"`
	Amounts     []*big.Int     `json:"amounts"`
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
