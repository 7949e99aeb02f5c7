package engine

import (
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

const (
	EventOrderFulfilled   = "OrderFulfilled"
	EventOrderCancelled   = "OrderCancelled"
	EventOrderValidated   = "OrderValidated"
	EventNonceIncremented = "NonceIncremented"
)

// Event is emitted after a call commits
type Event interface {
	EventName() string
}

// OrderFulfilled reports the resolved items of a fulfilled order
type OrderFulfilled struct {
	OrderHash     common.Hash          `json:"orderHash"`
	Offerer       common.Address       `json:"offerer"`
	Zone          common.Address       `json:"zone"`
	Fulfiller     common.Address       `json:"fulfiller"`
	Offer         []types.SpentItem    `json:"offer"`
	Consideration []types.ReceivedItem `json:"consideration"`
}

func (OrderFulfilled) EventName() string { return EventOrderFulfilled }

type OrderCancelled struct {
	OrderHash common.Hash    `json:"orderHash"`
	Offerer   common.Address `json:"offerer"`
	Zone      common.Address `json:"zone"`
}

func (OrderCancelled) EventName() string { return EventOrderCancelled }

type OrderValidated struct {
	OrderHash common.Hash    `json:"orderHash"`
	Offerer   common.Address `json:"offerer"`
	Zone      common.Address `json:"zone"`
}

func (OrderValidated) EventName() string { return EventOrderValidated }

type NonceIncremented struct {
	NewNonce *big.Int       `json:"newNonce"`
	Offerer  common.Address `json:"offerer"`
}

func (NonceIncremented) EventName() string { return EventNonceIncremented }
