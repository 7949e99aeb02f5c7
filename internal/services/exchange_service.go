package services

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"seaport-backend/internal/engine"
	"seaport-backend/internal/events"
	"seaport-backend/internal/ledger"
	"seaport-backend/internal/metrics"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

var (
	ErrLedgerUnavailable        = errors.New("simulated ledger is not configured")
	ErrSmartAccountsUnavailable = errors.New("smart accounts are resolved on chain")
)

// History is the fulfillment history read by the API
type History interface {
	FulfillmentsByOrder(ctx context.Context, orderHash common.Hash) ([]engine.FulfillmentRecord, error)
	FulfillmentsByFulfiller(ctx context.Context, fulfiller common.Address, page, pageSize int) ([]engine.FulfillmentRecord, int64, error)
}

// EventHistory returns recently emitted events, newest first
type EventHistory interface {
	Recent(ctx context.Context, filter events.Filter, limit int) ([]events.Envelope, error)
}

// ExchangeServiceConfig holds the collaborators of an ExchangeService.
// Ledger, Conduits, Zones and Wallets back the admin endpoints and may be nil.
type ExchangeServiceConfig struct {
	Engine   *engine.Engine
	History  History
	Events   EventHistory
	Ledger   *ledger.Ledger
	Conduits *ledger.ConduitRegistry
	Zones    *ledger.Zones
	Wallets  *ledger.SmartAccounts
	Logger   *logrus.Logger
}

// ExchangeService runs engine calls one at a time and exposes settlement administration
type ExchangeService struct {
	mu       sync.Mutex
	engine   *engine.Engine
	history  History
	events   EventHistory
	ledger   *ledger.Ledger
	conduits *ledger.ConduitRegistry
	zones    *ledger.Zones
	wallets  *ledger.SmartAccounts
	logger   *logrus.Logger
}

// NewExchangeService creates a new ExchangeService instance
func NewExchangeService(cfg ExchangeServiceConfig) *ExchangeService {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ExchangeService{
		engine:   cfg.Engine,
		history:  cfg.History,
		events:   cfg.Events,
		ledger:   cfg.Ledger,
		conduits: cfg.Conduits,
		zones:    cfg.Zones,
		wallets:  cfg.Wallets,
		logger:   logger,
	}
}

// Engine returns the underlying engine
func (s *ExchangeService) Engine() *engine.Engine {
	return s.engine
}

// observe serializes a state-changing call and records its outcome
func (s *ExchangeService) observe(op string, fn func() (*engine.Receipt, error)) (*engine.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	receipt, err := fn()
	metrics.EngineCallDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())

	code := "OK"
	if err != nil {
		code = engine.Code(err)
	}
	metrics.EngineCalls.WithLabelValues(op, code).Inc()

	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"operation": op,
			"code":      code,
		}).WithError(err).Info("Engine call rejected")
		return nil, err
	}
	if receipt != nil && !receipt.Simulated {
		recordReceipt(receipt)
		s.logger.WithFields(logrus.Fields{
			"operation":  op,
			"receipt_id": receipt.ID,
			"caller":     receipt.Caller.Hex(),
			"orders":     len(receipt.Orders),
			"executions": len(receipt.Executions),
		}).Info("✅ Engine call committed")
	}
	return receipt, nil
}

func recordReceipt(r *engine.Receipt) {
	for _, o := range r.Orders {
		if o.Fulfilled {
			metrics.OrdersFulfilled.Inc()
		} else if o.SkipReason != "" {
			metrics.OrdersSkipped.WithLabelValues(o.SkipReason).Inc()
		}
	}
	metrics.ExecutionsPerCall.Observe(float64(len(r.Executions)))
	metrics.BatchExecutionsTotal.Add(float64(len(r.BatchExecutions)))
}

// ============================================
// Fulfillment and matching
// ============================================

func (s *ExchangeService) FulfillOrder(ctx context.Context, caller common.Address, order types.Order, fulfillerConduitKey common.Hash, value *big.Int) (*engine.Receipt, error) {
	return s.observe("fulfill_order", func() (*engine.Receipt, error) {
		return s.engine.FulfillOrder(ctx, caller, order, fulfillerConduitKey, value)
	})
}

func (s *ExchangeService) FulfillAdvancedOrder(ctx context.Context, caller common.Address, order types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillerConduitKey common.Hash, recipient common.Address, value *big.Int) (*engine.Receipt, error) {
	return s.observe("fulfill_advanced_order", func() (*engine.Receipt, error) {
		return s.engine.FulfillAdvancedOrder(ctx, caller, order, resolvers, fulfillerConduitKey, recipient, value)
	})
}

func (s *ExchangeService) FulfillBasicOrder(ctx context.Context, caller common.Address, params types.BasicOrderParameters, value *big.Int) (*engine.Receipt, error) {
	return s.observe("fulfill_basic_order", func() (*engine.Receipt, error) {
		return s.engine.FulfillBasicOrder(ctx, caller, params, value)
	})
}

func (s *ExchangeService) FulfillAvailableOrders(ctx context.Context, caller common.Address, orders []types.Order, offerFulfillments, considerationFulfillments [][]types.FulfillmentComponent, fulfillerConduitKey common.Hash, maxFulfilled int, value *big.Int) (*engine.Receipt, error) {
	return s.observe("fulfill_available_orders", func() (*engine.Receipt, error) {
		return s.engine.FulfillAvailableOrders(ctx, caller, orders, offerFulfillments, considerationFulfillments, fulfillerConduitKey, maxFulfilled, value)
	})
}

func (s *ExchangeService) FulfillAvailableAdvancedOrders(ctx context.Context, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, offerFulfillments, considerationFulfillments [][]types.FulfillmentComponent, fulfillerConduitKey common.Hash, recipient common.Address, maxFulfilled int, value *big.Int) (*engine.Receipt, error) {
	return s.observe("fulfill_available_advanced_orders", func() (*engine.Receipt, error) {
		return s.engine.FulfillAvailableAdvancedOrders(ctx, caller, orders, resolvers, offerFulfillments, considerationFulfillments, fulfillerConduitKey, recipient, maxFulfilled, value)
	})
}

func (s *ExchangeService) MatchOrders(ctx context.Context, caller common.Address, orders []types.Order, fulfillments []types.Fulfillment, value *big.Int) (*engine.Receipt, error) {
	return s.observe("match_orders", func() (*engine.Receipt, error) {
		return s.engine.MatchOrders(ctx, caller, orders, fulfillments, value)
	})
}

func (s *ExchangeService) MatchAdvancedOrders(ctx context.Context, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillments []types.Fulfillment, recipient common.Address, value *big.Int) (*engine.Receipt, error) {
	return s.observe("match_advanced_orders", func() (*engine.Receipt, error) {
		return s.engine.MatchAdvancedOrders(ctx, caller, orders, resolvers, fulfillments, recipient, value)
	})
}

// SimulateMatchAdvancedOrders runs a match without committing anything
func (s *ExchangeService) SimulateMatchAdvancedOrders(ctx context.Context, caller common.Address, orders []types.AdvancedOrder, resolvers []types.CriteriaResolver, fulfillments []types.Fulfillment, recipient common.Address, value *big.Int) (*engine.Receipt, error) {
	return s.observe("simulate_match_advanced_orders", func() (*engine.Receipt, error) {
		return s.engine.SimulateMatchAdvancedOrders(ctx, caller, orders, resolvers, fulfillments, recipient, value)
	})
}

// ============================================
// Order lifecycle
// ============================================

func (s *ExchangeService) Validate(ctx context.Context, caller common.Address, orders []types.Order) (bool, error) {
	var ok bool
	_, err := s.observe("validate", func() (*engine.Receipt, error) {
		var err error
		ok, err = s.engine.Validate(ctx, caller, orders)
		return nil, err
	})
	return ok, err
}

func (s *ExchangeService) Cancel(ctx context.Context, caller common.Address, components []types.OrderComponents) (bool, error) {
	var ok bool
	_, err := s.observe("cancel", func() (*engine.Receipt, error) {
		var err error
		ok, err = s.engine.Cancel(ctx, caller, components)
		return nil, err
	})
	return ok, err
}

func (s *ExchangeService) IncrementNonce(ctx context.Context, caller, offerer common.Address) (*big.Int, error) {
	var nonce *big.Int
	_, err := s.observe("increment_nonce", func() (*engine.Receipt, error) {
		var err error
		nonce, err = s.engine.IncrementNonce(ctx, caller, offerer)
		return nil, err
	})
	return nonce, err
}

func (s *ExchangeService) GetOrderStatus(ctx context.Context, orderHash common.Hash) (types.OrderStatus, error) {
	return s.engine.GetOrderStatus(ctx, orderHash)
}

func (s *ExchangeService) GetNonce(ctx context.Context, offerer common.Address) (*big.Int, error) {
	return s.engine.GetNonce(ctx, offerer)
}

// Information describes the deployment the engine acts as
type Information struct {
	Version           string         `json:"version"`
	DomainSeparator   common.Hash    `json:"domainSeparator"`
	ConduitController common.Address `json:"conduitController"`
	Protocol          common.Address `json:"protocol"`
}

func (s *ExchangeService) Information() Information {
	version, separator, controller := s.engine.Information()
	return Information{
		Version:           version,
		DomainSeparator:   separator,
		ConduitController: controller,
		Protocol:          s.engine.Address(),
	}
}

func (s *ExchangeService) GetOrderHash(components types.OrderComponents) (common.Hash, error) {
	return s.engine.GetOrderHash(components)
}

// ============================================
// History
// ============================================

func (s *ExchangeService) FulfillmentsByOrder(ctx context.Context, orderHash common.Hash) ([]engine.FulfillmentRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.FulfillmentsByOrder(ctx, orderHash)
}

func (s *ExchangeService) FulfillmentsByFulfiller(ctx context.Context, fulfiller common.Address, page, pageSize int) ([]engine.FulfillmentRecord, int64, error) {
	if s.history == nil {
		return nil, 0, nil
	}
	return s.history.FulfillmentsByFulfiller(ctx, fulfiller, page, pageSize)
}

// RecentEvents returns up to limit events from history, newest first
func (s *ExchangeService) RecentEvents(ctx context.Context, filter events.Filter, limit int) ([]events.Envelope, error) {
	if s.events == nil {
		return nil, nil
	}
	return s.events.Recent(ctx, filter, limit)
}

// ============================================
// Settlement administration
// ============================================

// AssetBalance is one non-zero balance of an account
type AssetBalance struct {
	ledger.Asset
	Amount string `json:"amount"`
}

// Balances returns every balance of an account, sorted by asset
func (s *ExchangeService) Balances(account common.Address) ([]AssetBalance, error) {
	if s.ledger == nil {
		return nil, ErrLedgerUnavailable
	}
	var out []AssetBalance
	for asset, amount := range s.ledger.Balances(account) {
		out = append(out, AssetBalance{Asset: asset, Amount: amount.String()})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Asset, out[j].Asset
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Token != b.Token {
			return a.Token.Hex() < b.Token.Hex()
		}
		return a.Identifier < b.Identifier
	})
	return out, nil
}

func (s *ExchangeService) Mint(account common.Address, itemType types.ItemType, token common.Address, identifier, amount *big.Int) error {
	if s.ledger == nil {
		return ErrLedgerUnavailable
	}
	if err := s.ledger.Mint(account, itemType, token, identifier, amount); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"account":  account.Hex(),
		"itemType": itemType.String(),
		"token":    token.Hex(),
		"amount":   amount.String(),
	}).Info("💰 Minted ledger balance")
	return nil
}

func (s *ExchangeService) SetApproval(owner, operator common.Address, approved bool) error {
	if s.ledger == nil {
		return ErrLedgerUnavailable
	}
	s.ledger.SetApproval(owner, operator, approved)
	return nil
}

// CreateConduit deploys a conduit under the engine's conduit controller
func (s *ExchangeService) CreateConduit(key common.Hash, owner common.Address) (common.Address, error) {
	if s.conduits == nil {
		return common.Address{}, ErrLedgerUnavailable
	}
	_, _, controller := s.engine.Information()
	addr, err := s.conduits.Create(controller, key, owner)
	if err != nil {
		return common.Address{}, err
	}
	s.logger.WithFields(logrus.Fields{
		"conduitKey": key.Hex(),
		"conduit":    addr.Hex(),
		"owner":      owner.Hex(),
	}).Info("🔧 Conduit created")
	return addr, nil
}

func (s *ExchangeService) UpdateChannel(key common.Hash, channel common.Address, open bool) error {
	if s.conduits == nil {
		return ErrLedgerUnavailable
	}
	return s.conduits.UpdateChannel(key, channel, open)
}

func (s *ExchangeService) Conduits() []ledger.ConduitInfo {
	if s.conduits == nil {
		return nil
	}
	return s.conduits.List()
}

// RegisterZone installs an allow-list zone at address, replacing any previous one.
// Each offerer listed is assigned to the zone, which may then increment its nonce.
func (s *ExchangeService) RegisterZone(address common.Address, allowAll bool, callers, offerers []common.Address) error {
	if s.zones == nil {
		return ErrLedgerUnavailable
	}
	s.zones.Register(address, ledger.NewAllowListZone(allowAll, callers...))
	for _, offerer := range offerers {
		s.zones.Assign(offerer, address)
	}
	return nil
}

func (s *ExchangeService) RegisterSmartAccount(account, owner common.Address) error {
	if s.wallets == nil {
		return ErrSmartAccountsUnavailable
	}
	s.wallets.Register(account, owner)
	return nil
}

// ProtocolAddress is the account that must be approved to spend offered assets
func (s *ExchangeService) ProtocolAddress() common.Address {
	return s.engine.Address()
}
