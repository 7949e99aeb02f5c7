package engine

import (
	"errors"
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// preparedOrder is an order that passed (or was skipped by) validation in the
// current call. The remaining slices track what aggregation has not consumed yet.
type preparedOrder struct {
	index       int
	order       types.AdvancedOrder
	params      types.OrderParameters
	hash        common.Hash
	numerator   *big.Int
	denominator *big.Int
	skipReason  error

	offerAmounts         []*big.Int
	considerationAmounts []*big.Int

	offer         []types.SpentItem
	consideration []types.ReceivedItem

	offerRemaining         []*big.Int
	considerationRemaining []*big.Int
}

func (p *preparedOrder) skipped() bool {
	return p.skipReason != nil
}

func (p *preparedOrder) result() OrderResult {
	r := OrderResult{OrderHash: p.hash, Fulfilled: !p.skipped()}
	if p.skipped() {
		r.SkipReason = Code(p.skipReason)
		return r
	}
	r.Numerator = new(big.Int).Set(p.numerator)
	r.Denominator = new(big.Int).Set(p.denominator)
	return r
}

type prepareOptions struct {
	revertOnInvalid  bool
	onlyAllowUnused  bool
	allowNativeOffer bool
	resolvers        []types.CriteriaResolver
	priorHashes      []common.Hash
}

// checkParameters rejects structurally invalid orders
func checkParameters(params types.OrderParameters) error {
	if !params.OrderType.Valid() {
		return fmt.Errorf("%w: order type %d", ErrInvalidOrderParameters, params.OrderType)
	}
	if params.TotalOriginalConsiderationItems < 0 {
		return fmt.Errorf("%w: negative original consideration count", ErrInvalidOrderParameters)
	}
	if params.TotalOriginalConsiderationItems > len(params.Consideration) {
		return ErrMissingOriginalConsiderationItems
	}
	if !inUint256(params.Salt) {
		return fmt.Errorf("%w: salt out of range", ErrInvalidOrderParameters)
	}
	for i, item := range params.Offer {
		if !item.ItemType.Valid() {
			return fmt.Errorf("%w: offer item %d has unknown type", ErrInvalidOrderParameters, i)
		}
		if !inUint256(item.IdentifierOrCriteria) || !inUint256(item.StartAmount) || !inUint256(item.EndAmount) {
			return fmt.Errorf("%w: offer item %d out of range", ErrInvalidOrderParameters, i)
		}
	}
	for i, item := range params.Consideration {
		if !item.ItemType.Valid() {
			return fmt.Errorf("%w: consideration item %d has unknown type", ErrInvalidOrderParameters, i)
		}
		if !inUint256(item.IdentifierOrCriteria) || !inUint256(item.StartAmount) || !inUint256(item.EndAmount) {
			return fmt.Errorf("%w: consideration item %d out of range", ErrInvalidOrderParameters, i)
		}
	}
	return nil
}

func inUint256(v *big.Int) bool {
	return v == nil || (v.Sign() >= 0 && v.Cmp(maxUint256) <= 0)
}

// isValidityFailure reports errors that the available-orders variants skip instead of reverting
func isValidityFailure(err error) bool {
	return errors.Is(err, ErrInvalidTime) ||
		errors.Is(err, ErrOrderIsCancelled) ||
		errors.Is(err, ErrOrderAlreadyFilled) ||
		errors.Is(err, ErrOrderPartiallyFilled) ||
		errors.Is(err, ErrInvalidSigner) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrBadSignatureV) ||
		errors.Is(err, ErrBadContractSignature)
}

// prepare validates an order, stages its new status and computes the amounts owed
// for the effective fill fraction.
func (c *call) prepare(index int, order types.AdvancedOrder, opts prepareOptions) (*preparedOrder, error) {
	if err := checkParameters(order.Parameters); err != nil {
		return nil, err
	}
	p := &preparedOrder{
		index:  index,
		order:  order,
		params: order.Parameters.Copy(),
	}
	params := &p.params

	if !opts.allowNativeOffer {
		for _, item := range params.Offer {
			if item.ItemType == types.ItemTypeNative {
				return nil, ErrInvalidNativeOfferItem
			}
		}
	}

	numerator, denominator, err := checkFraction(params.OrderType, order.Numerator, order.Denominator)
	if err != nil {
		return nil, err
	}

	nonce, err := c.state.nonce(c.ctx, params.Offerer)
	if err != nil {
		return nil, err
	}
	p.hash, err = c.engine.hasher.OrderHash(params.ToComponents(nonce))
	if err != nil {
		return nil, err
	}

	invalid := func(err error) (*preparedOrder, error) {
		if opts.revertOnInvalid {
			return nil, err
		}
		p.skipReason = err
		c.engine.logger.WithFields(logrus.Fields{
			"order_index": index,
			"order_hash":  p.hash.Hex(),
			"reason":      Code(err),
		}).Info("⏭️ Skipping unavailable order")
		return p, nil
	}

	if c.now < params.StartTime || c.now >= params.EndTime {
		return invalid(ErrInvalidTime)
	}

	st, err := c.state.status(c.ctx, p.hash)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(st, opts.onlyAllowUnused); err != nil {
		return invalid(err)
	}

	if !st.IsValidated && c.caller != params.Offerer {
		if err := c.engine.verifySignature(c.ctx, params.Offerer, p.hash, order.Signature); err != nil {
			if !isValidityFailure(err) {
				return nil, err
			}
			return invalid(err)
		}
	}

	if params.OrderType.IsRestricted() && c.caller != params.Zone {
		if err := c.checkZone(p, opts); err != nil {
			return nil, err
		}
	}

	fillN, fillD, next, err := combineFill(st, numerator, denominator)
	if err != nil {
		return nil, err
	}
	p.numerator, p.denominator = fillN, fillD

	p.offerAmounts = make([]*big.Int, len(params.Offer))
	for i, item := range params.Offer {
		amount, err := applyFraction(item.StartAmount, item.EndAmount, fillN, fillD,
			params.StartTime, params.EndTime, c.now, false)
		if err != nil {
			return nil, err
		}
		p.offerAmounts[i] = amount
	}
	p.considerationAmounts = make([]*big.Int, len(params.Consideration))
	for i, item := range params.Consideration {
		amount, err := applyFraction(item.StartAmount, item.EndAmount, fillN, fillD,
			params.StartTime, params.EndTime, c.now, true)
		if err != nil {
			return nil, err
		}
		p.considerationAmounts[i] = amount
	}

	c.state.setStatus(p.hash, next)
	return p, nil
}

// checkZone asks the order's zone to approve it
func (c *call) checkZone(p *preparedOrder, opts prepareOptions) error {
	if c.engine.zones == nil {
		return ErrInvalidRestrictedOrder
	}
	zone, ok := c.engine.zones.Zone(p.params.Zone)
	if !ok {
		return fmt.Errorf("%w: unknown zone %s", ErrInvalidRestrictedOrder, p.params.Zone.Hex())
	}
	order := p.order
	req := ZoneRequest{
		OrderHash:         p.hash,
		Caller:            c.caller,
		Offerer:           p.params.Offerer,
		ZoneHash:          p.params.ZoneHash,
		ExtraData:         order.ExtraData,
		Order:             &order,
		PriorOrderHashes:  append([]common.Hash(nil), opts.priorHashes...),
		CriteriaResolvers: opts.resolvers,
	}
	if err := zone.ValidateOrder(c.ctx, req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRestrictedOrder, err)
	}
	return nil
}

// buildItems materializes the resolved items of a prepared order and resets the
// aggregation counters.
func (p *preparedOrder) buildItems() {
	params := p.params
	p.offer = make([]types.SpentItem, len(params.Offer))
	p.offerRemaining = make([]*big.Int, len(params.Offer))
	for i, item := range params.Offer {
		p.offer[i] = types.SpentItem{
			ItemType:   item.ItemType,
			Token:      item.Token,
			Identifier: new(big.Int).Set(item.IdentifierOrCriteria),
			Amount:     new(big.Int).Set(p.offerAmounts[i]),
		}
		p.offerRemaining[i] = new(big.Int).Set(p.offerAmounts[i])
	}
	p.consideration = make([]types.ReceivedItem, len(params.Consideration))
	p.considerationRemaining = make([]*big.Int, len(params.Consideration))
	for i, item := range params.Consideration {
		p.consideration[i] = types.ReceivedItem{
			ItemType:   item.ItemType,
			Token:      item.Token,
			Identifier: new(big.Int).Set(item.IdentifierOrCriteria),
			Amount:     new(big.Int).Set(p.considerationAmounts[i]),
			Recipient:  item.Recipient,
		}
		p.considerationRemaining[i] = new(big.Int).Set(p.considerationAmounts[i])
	}
}

// finishOrder queues the fulfillment event and history record of a prepared order
func (c *call) finishOrder(p *preparedOrder, fulfiller common.Address) {
	offer := make([]types.SpentItem, len(p.offer))
	copy(offer, p.offer)
	consideration := make([]types.ReceivedItem, len(p.consideration))
	copy(consideration, p.consideration)

	c.emit(OrderFulfilled{
		OrderHash:     p.hash,
		Offerer:       p.params.Offerer,
		Zone:          p.params.Zone,
		Fulfiller:     fulfiller,
		Offer:         offer,
		Consideration: consideration,
	})
	c.state.recordFulfillment(FulfillmentRecord{
		ID:          uuid.New().String(),
		ReceiptID:   c.receiptID,
		OrderHash:   p.hash,
		Offerer:     p.params.Offerer,
		Fulfiller:   fulfiller,
		Numerator:   new(big.Int).Set(p.numerator),
		Denominator: new(big.Int).Set(p.denominator),
		Timestamp:   c.now,
	})
}

func results(orders []*preparedOrder) []OrderResult {
	out := make([]OrderResult, len(orders))
	for i, p := range orders {
		out[i] = p.result()
	}
	return out
}
