package engine

import (
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 type strings. Referenced struct types follow the primary type in alphabetical order.
const (
	EIP712DomainTypeString           = "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	OfferItemTypeString              = "OfferItem(uint8 itemType,address token,uint256 identifierOrCriteria,uint256 startAmount,uint256 endAmount)"
	ConsiderationItemTypeString      = "ConsiderationItem(uint8 itemType,address token,uint256 identifierOrCriteria,uint256 startAmount,uint256 endAmount,address recipient)"
	OrderComponentsPartialTypeString = "OrderComponents(address offerer,address zone,OfferItem[] offer,ConsiderationItem[] consideration,uint8 orderType,uint256 startTime,uint256 endTime,bytes32 zoneHash,uint256 salt,bytes32 conduitKey,uint256 nonce)"
	OrderComponentsTypeString        = OrderComponentsPartialTypeString + ConsiderationItemTypeString + OfferItemTypeString
)

var (
	EIP712DomainTypeHash      = crypto.Keccak256Hash([]byte(EIP712DomainTypeString))
	OfferItemTypeHash         = crypto.Keccak256Hash([]byte(OfferItemTypeString))
	ConsiderationItemTypeHash = crypto.Keccak256Hash([]byte(ConsiderationItemTypeString))
	OrderComponentsTypeHash   = crypto.Keccak256Hash([]byte(OrderComponentsTypeString))
)

var (
	bytes32Type = mustType("bytes32")
	uint256Type = mustType("uint256")
	uint8Type   = mustType("uint8")
	addressType = mustType("address")

	domainArguments = abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: bytes32Type}, // nameHash
		{Type: bytes32Type}, // versionHash
		{Type: uint256Type}, // chainId
		{Type: addressType}, // verifyingContract
	}

	offerItemArguments = abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: uint8Type},   // itemType
		{Type: addressType}, // token
		{Type: uint256Type}, // identifierOrCriteria
		{Type: uint256Type}, // startAmount
		{Type: uint256Type}, // endAmount
	}

	considerationItemArguments = abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: uint8Type},   // itemType
		{Type: addressType}, // token
		{Type: uint256Type}, // identifierOrCriteria
		{Type: uint256Type}, // startAmount
		{Type: uint256Type}, // endAmount
		{Type: addressType}, // recipient
	}

	orderComponentsArguments = abi.Arguments{
		{Type: bytes32Type}, // typeHash
		{Type: addressType}, // offerer
		{Type: addressType}, // zone
		{Type: bytes32Type}, // offer hash
		{Type: bytes32Type}, // consideration hash
		{Type: uint8Type},   // orderType
		{Type: uint256Type}, // startTime
		{Type: uint256Type}, // endTime
		{Type: bytes32Type}, // zoneHash
		{Type: uint256Type}, // salt
		{Type: bytes32Type}, // conduitKey
		{Type: uint256Type}, // nonce
	}
)

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("invalid abi type " + name + ": " + err.Error())
	}
	return t
}

// Hasher computes EIP-712 order hashes and signing digests for one domain
type Hasher struct {
	name              string
	version           string
	chainID           *big.Int
	verifyingContract common.Address
	domainSeparator   common.Hash
}

// NewHasher creates a new Hasher for the given domain
func NewHasher(name, version string, chainID *big.Int, verifyingContract common.Address) *Hasher {
	if chainID == nil {
		chainID = new(big.Int)
	}
	h := &Hasher{
		name:              name,
		version:           version,
		chainID:           new(big.Int).Set(chainID),
		verifyingContract: verifyingContract,
	}
	encoded, err := domainArguments.Pack(
		EIP712DomainTypeHash,
		crypto.Keccak256Hash([]byte(name)),
		crypto.Keccak256Hash([]byte(version)),
		h.chainID,
		verifyingContract,
	)
	if err != nil {
		panic("failed to encode domain separator: " + err.Error())
	}
	h.domainSeparator = crypto.Keccak256Hash(encoded)
	return h
}

// DomainSeparator returns the EIP-712 domain separator
func (h *Hasher) DomainSeparator() common.Hash {
	return h.domainSeparator
}

// Version returns the domain version string
func (h *Hasher) Version() string {
	return h.version
}

// OrderHash returns the EIP-712 struct hash of the order components. Values
// that do not fit their uint256 or uint8 fields fail with ErrInvalidOrderParameters.
func (h *Hasher) OrderHash(c types.OrderComponents) (common.Hash, error) {
	offerHashes := make([]byte, 0, len(c.Offer)*common.HashLength)
	for i, item := range c.Offer {
		itemHash, err := hashOfferItem(item)
		if err != nil {
			return common.Hash{}, fmt.Errorf("%w: offer item %d: %v", ErrInvalidOrderParameters, i, err)
		}
		offerHashes = append(offerHashes, itemHash.Bytes()...)
	}
	considerationHashes := make([]byte, 0, len(c.Consideration)*common.HashLength)
	for i, item := range c.Consideration {
		itemHash, err := hashConsiderationItem(item)
		if err != nil {
			return common.Hash{}, fmt.Errorf("%w: consideration item %d: %v", ErrInvalidOrderParameters, i, err)
		}
		considerationHashes = append(considerationHashes, itemHash.Bytes()...)
	}
	if !c.OrderType.Valid() {
		return common.Hash{}, fmt.Errorf("%w: order type %d", ErrInvalidOrderParameters, c.OrderType)
	}

	encoded, err := orderComponentsArguments.Pack(
		OrderComponentsTypeHash,
		c.Offerer,
		c.Zone,
		crypto.Keccak256Hash(offerHashes),
		crypto.Keccak256Hash(considerationHashes),
		uint8(c.OrderType),
		new(big.Int).SetUint64(c.StartTime),
		new(big.Int).SetUint64(c.EndTime),
		c.ZoneHash,
		orZero(c.Salt),
		c.ConduitKey,
		orZero(c.Nonce),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrInvalidOrderParameters, err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// Digest returns the value the offerer signs for an order hash
func (h *Hasher) Digest(orderHash common.Hash) common.Hash {
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, h.domainSeparator.Bytes(), orderHash.Bytes())
}

func hashOfferItem(item types.OfferItem) (common.Hash, error) {
	if !item.ItemType.Valid() {
		return common.Hash{}, fmt.Errorf("unknown item type %d", item.ItemType)
	}
	encoded, err := offerItemArguments.Pack(
		OfferItemTypeHash,
		uint8(item.ItemType),
		item.Token,
		orZero(item.IdentifierOrCriteria),
		orZero(item.StartAmount),
		orZero(item.EndAmount),
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func hashConsiderationItem(item types.ConsiderationItem) (common.Hash, error) {
	if !item.ItemType.Valid() {
		return common.Hash{}, fmt.Errorf("unknown item type %d", item.ItemType)
	}
	encoded, err := considerationItemArguments.Pack(
		ConsiderationItemTypeHash,
		uint8(item.ItemType),
		item.Token,
		orZero(item.IdentifierOrCriteria),
		orZero(item.StartAmount),
		orZero(item.EndAmount),
		item.Recipient,
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(encoded), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
