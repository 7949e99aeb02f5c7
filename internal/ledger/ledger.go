package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotApproved         = errors.New("operator not approved")
	ErrTxClosed            = errors.New("transaction already committed or rolled back")
	ErrInvalidAsset        = errors.New("invalid asset")
)

// Asset identifies a balance slot. Native and ERC20 balances use identifier "0".
type Asset struct {
	Type       types.ItemType `json:"type"`
	Token      common.Address `json:"token"`
	Identifier string         `json:"identifier"`
}

// AssetOf returns the balance slot an item moves
func AssetOf(itemType types.ItemType, token common.Address, identifier *big.Int) Asset {
	a := Asset{Type: itemType.WithoutCriteria(), Token: token, Identifier: "0"}
	switch a.Type {
	case types.ItemTypeNative:
		a.Token = common.Address{}
	case types.ItemTypeERC721, types.ItemTypeERC1155:
		if identifier != nil {
			a.Identifier = identifier.String()
		}
	}
	return a
}

// Ledger is an in-memory asset ledger with operator approvals. It implements
// engine.AssetLedger.
type Ledger struct {
	mu        sync.Mutex
	balances  map[common.Address]map[Asset]*big.Int
	approvals map[common.Address]map[common.Address]bool
	logger    *logrus.Logger
}

var _ engine.AssetLedger = (*Ledger)(nil)

// New creates a new Ledger instance
func New(logger *logrus.Logger) *Ledger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Ledger{
		balances:  make(map[common.Address]map[Asset]*big.Int),
		approvals: make(map[common.Address]map[common.Address]bool),
		logger:    logger,
	}
}

// Mint credits amount of an asset to account
func (l *Ledger) Mint(account common.Address, itemType types.ItemType, token common.Address, identifier, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint amount must be positive", ErrInvalidAsset)
	}
	asset := AssetOf(itemType, token, identifier)
	l.mu.Lock()
	defer l.mu.Unlock()
	if asset.Type == types.ItemTypeERC721 {
		if l.totalSupplyLocked(asset).Sign() != 0 || amount.Cmp(big.NewInt(1)) != 0 {
			return fmt.Errorf("%w: erc721 %s#%s already minted or amount != 1", ErrInvalidAsset, token.Hex(), asset.Identifier)
		}
	}
	bal := l.balanceLocked(account, asset)
	bal.Add(bal, amount)
	l.logger.WithFields(logrus.Fields{
		"account": account.Hex(),
		"type":    asset.Type.String(),
		"token":   asset.Token.Hex(),
		"id":      asset.Identifier,
		"amount":  amount.String(),
	}).Info("💰 Minted asset")
	return nil
}

// BalanceOf returns the committed balance of an asset
func (l *Ledger) BalanceOf(account common.Address, itemType types.ItemType, token common.Address, identifier *big.Int) *big.Int {
	asset := AssetOf(itemType, token, identifier)
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceLocked(account, asset))
}

// Balances returns a snapshot of every non-zero balance of account
func (l *Ledger) Balances(account common.Address) map[Asset]*big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[Asset]*big.Int)
	for asset, bal := range l.balances[account] {
		if bal.Sign() != 0 {
			out[asset] = new(big.Int).Set(bal)
		}
	}
	return out
}

// SetApproval allows or revokes operator spending every asset of owner
func (l *Ledger) SetApproval(owner, operator common.Address, approved bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.approvals[owner] == nil {
		l.approvals[owner] = make(map[common.Address]bool)
	}
	l.approvals[owner][operator] = approved
}

// IsApproved reports whether operator may spend owner's assets
func (l *Ledger) IsApproved(owner, operator common.Address) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return owner == operator || l.approvals[owner][operator]
}

func (l *Ledger) balanceLocked(account common.Address, asset Asset) *big.Int {
	byAsset, ok := l.balances[account]
	if !ok {
		byAsset = make(map[Asset]*big.Int)
		l.balances[account] = byAsset
	}
	bal, ok := byAsset[asset]
	if !ok {
		bal = new(big.Int)
		byAsset[asset] = bal
	}
	return bal
}

func (l *Ledger) totalSupplyLocked(asset Asset) *big.Int {
	total := new(big.Int)
	for _, byAsset := range l.balances {
		if bal, ok := byAsset[asset]; ok {
			total.Add(total, bal)
		}
	}
	return total
}

// Begin opens a transaction. Transfers are checked against committed balances
// plus the transaction's own staged changes.
func (l *Ledger) Begin(_ context.Context) (engine.AssetTx, error) {
	return &Tx{
		ledger: l,
		deltas: make(map[common.Address]map[Asset]*big.Int),
		open:   true,
	}, nil
}
