package ledger

import (
	"context"
	"fmt"
	"math/big"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

type transferOp struct {
	operator common.Address
	from     common.Address
	to       common.Address
	asset    Asset
	amount   *big.Int
}

// Tx stages transfers against a Ledger
type Tx struct {
	ledger *Ledger
	ops    []transferOp
	deltas map[common.Address]map[Asset]*big.Int
	open   bool
}

var _ engine.AssetTx = (*Tx)(nil)

// Transfer implements engine.AssetTx
func (t *Tx) Transfer(_ context.Context, operator, from common.Address, item types.ReceivedItem) error {
	if !t.open {
		return ErrTxClosed
	}
	if item.ItemType.HasCriteria() || !item.ItemType.Valid() {
		return fmt.Errorf("%w: cannot transfer %s", ErrInvalidAsset, item.ItemType)
	}
	asset := AssetOf(item.ItemType, item.Token, item.Identifier)
	return t.stage(transferOp{
		operator: operator,
		from:     from,
		to:       item.Recipient,
		asset:    asset,
		amount:   new(big.Int).Set(item.Amount),
	})
}

// BatchTransferERC1155 implements engine.AssetTx
func (t *Tx) BatchTransferERC1155(_ context.Context, operator common.Address, batch types.BatchExecution) error {
	if !t.open {
		return ErrTxClosed
	}
	if len(batch.Identifiers) != len(batch.Amounts) {
		return fmt.Errorf("%w: identifier and amount counts differ", ErrInvalidAsset)
	}
	for i, id := range batch.Identifiers {
		op := transferOp{
			operator: operator,
			from:     batch.From,
			to:       batch.To,
			asset:    AssetOf(types.ItemTypeERC1155, batch.Token, id),
			amount:   new(big.Int).Set(batch.Amounts[i]),
		}
		if err := t.stage(op); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) stage(op transferOp) error {
	if op.amount.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidAsset)
	}
	if !t.ledger.IsApproved(op.from, op.operator) {
		return fmt.Errorf("%w: %s for %s", ErrNotApproved, op.operator.Hex(), op.from.Hex())
	}
	available := t.balance(op.from, op.asset)
	if available.Cmp(op.amount) < 0 {
		return fmt.Errorf("%w: %s has %s of %s, needs %s",
			ErrInsufficientBalance, op.from.Hex(), available, describe(op.asset), op.amount)
	}
	t.addDelta(op.from, op.asset, new(big.Int).Neg(op.amount))
	t.addDelta(op.to, op.asset, op.amount)
	t.ops = append(t.ops, op)
	return nil
}

// balance returns the committed balance plus staged changes
func (t *Tx) balance(account common.Address, asset Asset) *big.Int {
	t.ledger.mu.Lock()
	bal := new(big.Int)
	if byAsset, ok := t.ledger.balances[account]; ok {
		if b, ok := byAsset[asset]; ok {
			bal.Set(b)
		}
	}
	t.ledger.mu.Unlock()
	if d, ok := t.deltas[account][asset]; ok {
		bal.Add(bal, d)
	}
	return bal
}

func (t *Tx) addDelta(account common.Address, asset Asset, amount *big.Int) {
	byAsset, ok := t.deltas[account]
	if !ok {
		byAsset = make(map[Asset]*big.Int)
		t.deltas[account] = byAsset
	}
	d, ok := byAsset[asset]
	if !ok {
		d = new(big.Int)
		byAsset[asset] = d
	}
	d.Add(d, amount)
}

// Commit applies every staged transfer atomically
func (t *Tx) Commit(_ context.Context) error {
	if !t.open {
		return ErrTxClosed
	}
	l := t.ledger
	l.mu.Lock()
	defer l.mu.Unlock()

	for account, byAsset := range t.deltas {
		for asset, d := range byAsset {
			if d.Sign() >= 0 {
				continue
			}
			if new(big.Int).Add(l.balanceLocked(account, asset), d).Sign() < 0 {
				t.close()
				return fmt.Errorf("%w: %s no longer holds %s", ErrInsufficientBalance, account.Hex(), describe(asset))
			}
		}
	}
	for account, byAsset := range t.deltas {
		for asset, d := range byAsset {
			bal := l.balanceLocked(account, asset)
			bal.Add(bal, d)
		}
	}
	t.close()
	return nil
}

// Rollback discards every staged transfer
func (t *Tx) Rollback() {
	t.close()
}

// Transfers returns the number of staged transfers
func (t *Tx) Transfers() int {
	return len(t.ops)
}

func (t *Tx) close() {
	t.open = false
	t.ops = nil
	t.deltas = nil
}

func describe(a Asset) string {
	switch a.Type {
	case types.ItemTypeNative:
		return "native"
	case types.ItemTypeERC20:
		return "erc20 " + a.Token.Hex()
	default:
		return a.Type.String() + " " + a.Token.Hex() + "#" + a.Identifier
	}
}
