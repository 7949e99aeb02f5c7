package engine

import (
	"context"
	"math/big"
	"time"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// ============================================
// Collaborator interfaces
// ============================================

// ZoneRequest is everything a zone sees when asked to approve a restricted order
type ZoneRequest struct {
	OrderHash         common.Hash
	Caller            common.Address
	Offerer           common.Address
	ZoneHash          common.Hash
	ExtraData         []byte
	Order             *types.AdvancedOrder
	PriorOrderHashes  []common.Hash
	CriteriaResolvers []types.CriteriaResolver
}

// Zone approves or rejects restricted orders. A non-nil error rejects the order.
type Zone interface {
	ValidateOrder(ctx context.Context, req ZoneRequest) error
}

// ZoneRegistry resolves zone addresses to their implementation
type ZoneRegistry interface {
	Zone(address common.Address) (Zone, bool)
}

// OffererZones reports the zone an offerer has put in charge of its nonce
type OffererZones interface {
	ZoneOf(offerer common.Address) (common.Address, bool)
}

// SignatureValidator performs delegated (smart account) signature checks
type SignatureValidator interface {
	IsValidSignature(ctx context.Context, account common.Address, digest common.Hash, signature []byte) (bool, error)
}

// AccountInspector reports whether an account is a smart account
type AccountInspector interface {
	IsContract(ctx context.Context, account common.Address) (bool, error)
}

// AssetLedger opens transactions over asset balances
type AssetLedger interface {
	Begin(ctx context.Context) (AssetTx, error)
}

// AssetTx stages transfers until Commit. Rollback discards every staged transfer.
type AssetTx interface {
	// Transfer moves item.Amount of the item from `from` to item.Recipient, spent by operator
	Transfer(ctx context.Context, operator, from common.Address, item types.ReceivedItem) error
	// BatchTransferERC1155 moves several identifiers of one ERC1155 token in one call
	BatchTransferERC1155(ctx context.Context, operator common.Address, batch types.BatchExecution) error
	Commit(ctx context.Context) error
	Rollback()
}

// Conduit is a registered transfer channel
type Conduit interface {
	Address() common.Address
	ChannelOpen(channel common.Address) bool
}

// ConduitController looks up conduits by key
type ConduitController interface {
	Conduit(key common.Hash) (Conduit, bool)
}

// Store persists order statuses, offerer nonces and fulfillment history
type Store interface {
	OrderStatus(ctx context.Context, orderHash common.Hash) (types.OrderStatus, error)
	Nonce(ctx context.Context, offerer common.Address) (*big.Int, error)
	// Apply writes the batch atomically
	Apply(ctx context.Context, batch *StateBatch) error
}

// EventSink receives events after a call committed
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// Clock supplies the current block timestamp
type Clock interface {
	Now() uint64
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ============================================
// State batches
// ============================================

// StatusUpdate is a staged order status write
type StatusUpdate struct {
	OrderHash common.Hash
	Status    types.OrderStatus
}

// NonceUpdate is a staged nonce write
type NonceUpdate struct {
	Offerer common.Address
	Nonce   *big.Int
}

// FulfillmentRecord is the history entry written for every fulfilled order
type FulfillmentRecord struct {
	ID          string         `json:"id"`
	ReceiptID   string         `json:"receiptId"`
	OrderHash   common.Hash    `json:"orderHash"`
	Offerer     common.Address `json:"offerer"`
	Fulfiller   common.Address `json:"fulfiller"`
	Numerator   *big.Int       `json:"numerator"`
	Denominator *big.Int       `json:"denominator"`
	Timestamp   uint64         `json:"timestamp"`
}

// StateBatch is everything one call writes to the store
type StateBatch struct {
	Statuses     []StatusUpdate
	Nonces       []NonceUpdate
	Fulfillments []FulfillmentRecord
}

// Empty reports whether the batch writes nothing
func (b *StateBatch) Empty() bool {
	return len(b.Statuses) == 0 && len(b.Nonces) == 0 && len(b.Fulfillments) == 0
}
