package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config describes the protocol deployment the engine acts as
type Config struct {
	Name    string
	Version string
	ChainID *big.Int
	// Address is the protocol account: the EIP-712 verifying contract, the
	// direct spender of assets and the custodian of in-flight native value.
	Address common.Address
	// ConduitController is reported by Information
	ConduitController common.Address
}

// Engine fulfills, matches, validates and cancels orders
type Engine struct {
	cfg        Config
	hasher     *Hasher
	store      Store
	assets     AssetLedger
	conduits   ConduitController
	zones      ZoneRegistry
	offerers   OffererZones
	signatures SignatureValidator
	accounts   AccountInspector
	events     EventSink
	clock      Clock
	logger     *logrus.Logger
	guard      reentrancyGuard
}

// Option configures optional collaborators
type Option func(*Engine)

// WithConduits registers the conduit controller used for non-zero conduit keys
func WithConduits(c ConduitController) Option {
	return func(e *Engine) { e.conduits = c }
}

// WithZones registers the zones consulted for restricted orders
func WithZones(z ZoneRegistry) Option {
	return func(e *Engine) { e.zones = z }
}

// WithOffererZones sets the offerer to zone assignments consulted for nonce increments
func WithOffererZones(z OffererZones) Option {
	return func(e *Engine) { e.offerers = z }
}

// WithSignatureValidator enables delegated signature checks
func WithSignatureValidator(v SignatureValidator) Option {
	return func(e *Engine) { e.signatures = v }
}

// WithAccountInspector enables smart account detection
func WithAccountInspector(a AccountInspector) Option {
	return func(e *Engine) { e.accounts = a }
}

func WithEventSink(s EventSink) Option {
	return func(e *Engine) { e.events = s }
}

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLogger(l *logrus.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a new Engine instance
func New(cfg Config, store Store, assets AssetLedger, opts ...Option) *Engine {
	if cfg.Name == "" {
		cfg.Name = "Seaport"
	}
	if cfg.Version == "" {
		cfg.Version = "1.1"
	}
	e := &Engine{
		cfg:    cfg,
		hasher: NewHasher(cfg.Name, cfg.Version, cfg.ChainID, cfg.Address),
		store:  store,
		assets: assets,
		clock:  SystemClock{},
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hasher returns the engine's EIP-712 hasher
func (e *Engine) Hasher() *Hasher {
	return e.hasher
}

// Address returns the protocol account
func (e *Engine) Address() common.Address {
	return e.cfg.Address
}

// Information returns the domain version, domain separator and conduit controller
func (e *Engine) Information() (string, common.Hash, common.Address) {
	return e.cfg.Version, e.hasher.DomainSeparator(), e.cfg.ConduitController
}

// GetOrderHash hashes order components without touching state
func (e *Engine) GetOrderHash(components types.OrderComponents) (common.Hash, error) {
	return e.hasher.OrderHash(components)
}

// GetOrderStatus returns the committed status of an order hash
func (e *Engine) GetOrderStatus(ctx context.Context, orderHash common.Hash) (types.OrderStatus, error) {
	return e.store.OrderStatus(ctx, orderHash)
}

// GetNonce returns the committed nonce of an offerer
func (e *Engine) GetNonce(ctx context.Context, offerer common.Address) (*big.Int, error) {
	return e.store.Nonce(ctx, offerer)
}

// ============================================
// Call scaffolding
// ============================================

// OrderResult describes what happened to one order of a call
type OrderResult struct {
	OrderHash   common.Hash `json:"orderHash"`
	Fulfilled   bool        `json:"fulfilled"`
	Numerator   *big.Int    `json:"numerator,omitempty"`
	Denominator *big.Int    `json:"denominator,omitempty"`
	SkipReason  string      `json:"skipReason,omitempty"`
}

// Receipt summarizes a successful fulfillment or match
type Receipt struct {
	ID              string                 `json:"id"`
	Caller          common.Address         `json:"caller"`
	Timestamp       uint64                 `json:"timestamp"`
	Orders          []OrderResult          `json:"orders"`
	Executions      []types.Execution      `json:"executions"`
	BatchExecutions []types.BatchExecution `json:"batchExecutions"`
	Refund          *big.Int               `json:"refund"`
	Events          []Event                `json:"-"`
	Simulated       bool                   `json:"simulated"`
}

// AvailableOrders reports which orders of an available-orders call were fulfilled
func (r *Receipt) AvailableOrders() []bool {
	out := make([]bool, len(r.Orders))
	for i, o := range r.Orders {
		out[i] = o.Fulfilled
	}
	return out
}

// call is the state of one top-level engine call
type call struct {
	ctx       context.Context
	engine    *Engine
	caller    common.Address
	now       uint64
	receiptID string
	state     *stateOverlay
	tx        AssetTx
	events    []Event

	value           *big.Int
	nativeRemaining *big.Int

	executions []types.Execution
	batches    []types.BatchExecution
}

// run executes fn as one atomic unit of work. State and asset changes are
// committed only if fn succeeds and simulate is false.
func (e *Engine) run(ctx context.Context, op string, caller common.Address, value *big.Int, simulate bool, fn func(c *call) error) (*call, error) {
	release, err := e.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()
	logger := e.logger.WithFields(logrus.Fields{
		"operation": op,
		"caller":    caller.Hex(),
	})

	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, ErrInvalidMsgValue
	}

	c := &call{
		ctx:             ctx,
		engine:          e,
		caller:          caller,
		now:             e.clock.Now(),
		receiptID:       uuid.New().String(),
		state:           newStateOverlay(e.store),
		value:           new(big.Int).Set(value),
		nativeRemaining: new(big.Int).Set(value),
	}

	if err := c.begin(); err != nil {
		logger.WithError(err).Warn("⚠️ Failed to open asset transaction")
		return nil, err
	}

	if err := fn(c); err != nil {
		c.abort()
		logger.WithError(err).WithField("code", Code(err)).Warn("⚠️ Call reverted")
		return nil, err
	}

	if simulate {
		c.abort()
		logger.WithField("duration", time.Since(started)).Debug("Simulation finished")
		return c, nil
	}

	if err := c.commit(); err != nil {
		logger.WithError(err).Error("❌ Failed to commit call")
		return nil, err
	}

	for _, ev := range c.events {
		if e.events != nil {
			e.events.Emit(ctx, ev)
		}
	}

	logger.WithFields(logrus.Fields{
		"executions": len(c.executions),
		"batches":    len(c.batches),
		"events":     len(c.events),
		"duration":   time.Since(started),
	}).Debug("Call committed")
	return c, nil
}

// begin opens the asset transaction and moves the supplied native value into custody
func (c *call) begin() error {
	if c.engine.assets == nil {
		return fmt.Errorf("%w: no asset ledger configured", ErrTransferFailed)
	}
	tx, err := c.engine.assets.Begin(c.ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	c.tx = tx
	if c.value.Sign() > 0 {
		deposit := types.ReceivedItem{
			ItemType:   types.ItemTypeNative,
			Identifier: new(big.Int),
			Amount:     new(big.Int).Set(c.value),
			Recipient:  c.engine.cfg.Address,
		}
		if err := c.tx.Transfer(c.ctx, c.caller, c.caller, deposit); err != nil {
			c.tx.Rollback()
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
	}
	return nil
}

func (c *call) abort() {
	if c.tx != nil {
		c.tx.Rollback()
	}
}

// commit refunds unspent native value, persists staged state and settles assets
func (c *call) commit() error {
	if c.nativeRemaining.Sign() > 0 {
		refund := types.ReceivedItem{
			ItemType:   types.ItemTypeNative,
			Identifier: new(big.Int),
			Amount:     new(big.Int).Set(c.nativeRemaining),
			Recipient:  c.caller,
		}
		if err := c.tx.Transfer(c.ctx, c.engine.cfg.Address, c.engine.cfg.Address, refund); err != nil {
			c.tx.Rollback()
			return fmt.Errorf("%w: refund: %w", ErrTransferFailed, err)
		}
	}

	batch := c.state.batch()
	if !batch.Empty() {
		if err := c.engine.store.Apply(c.ctx, batch); err != nil {
			c.tx.Rollback()
			return fmt.Errorf("failed to persist order state: %w", err)
		}
	}
	if err := c.tx.Commit(c.ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrTransferFailed, err)
	}
	return nil
}

// receipt builds the receipt of a finished call
func (c *call) receipt(results []OrderResult, simulated bool) *Receipt {
	refund := new(big.Int).Set(c.nativeRemaining)
	return &Receipt{
		ID:              c.receiptID,
		Caller:          c.caller,
		Timestamp:       c.now,
		Orders:          results,
		Executions:      c.executions,
		BatchExecutions: c.batches,
		Refund:          refund,
		Events:          c.events,
		Simulated:       simulated,
	}
}

func (c *call) emit(ev Event) {
	c.events = append(c.events, ev)
}
