package engine

import (
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// aggregate is the sum of the items referenced by one side of a fulfillment
type aggregate struct {
	found      bool
	itemType   types.ItemType
	token      common.Address
	identifier *big.Int
	// party is the offerer on the offer side and the recipient on the consideration side
	party      common.Address
	conduitKey common.Hash
	amount     *big.Int
	// first is the remaining-amount slot of the first contributing item
	first *big.Int
}

func (a *aggregate) sameAsset(o *aggregate) bool {
	return a.itemType == o.itemType && a.token == o.token && a.identifier.Cmp(o.identifier) == 0
}

// aggregateSide sums and consumes the items referenced by components. Components
// of skipped orders are ignored. Every contributing item must be transfer
// compatible with the first one.
func aggregateSide(orders []*preparedOrder, components []types.FulfillmentComponent, side types.Side) (*aggregate, error) {
	agg := &aggregate{amount: new(big.Int)}
	for _, comp := range components {
		if comp.OrderIndex < 0 || comp.OrderIndex >= len(orders) {
			return nil, fmt.Errorf("%w: order index %d", ErrInvalidFulfillmentComponentData, comp.OrderIndex)
		}
		p := orders[comp.OrderIndex]

		var (
			candidate aggregate
			remaining *big.Int
		)
		switch side {
		case types.SideOffer:
			if comp.ItemIndex < 0 || comp.ItemIndex >= len(p.params.Offer) {
				return nil, fmt.Errorf("%w: offer item index %d", ErrInvalidFulfillmentComponentData, comp.ItemIndex)
			}
			if p.skipped() {
				continue
			}
			item := p.offer[comp.ItemIndex]
			candidate = aggregate{
				itemType:   item.ItemType,
				token:      item.Token,
				identifier: item.Identifier,
				party:      p.params.Offerer,
				conduitKey: p.params.ConduitKey,
			}
			remaining = p.offerRemaining[comp.ItemIndex]
		default:
			if comp.ItemIndex < 0 || comp.ItemIndex >= len(p.params.Consideration) {
				return nil, fmt.Errorf("%w: consideration item index %d", ErrInvalidFulfillmentComponentData, comp.ItemIndex)
			}
			if p.skipped() {
				continue
			}
			item := p.consideration[comp.ItemIndex]
			candidate = aggregate{
				itemType:   item.ItemType,
				token:      item.Token,
				identifier: item.Identifier,
				party:      item.Recipient,
			}
			remaining = p.considerationRemaining[comp.ItemIndex]
		}

		if !agg.found {
			agg.found = true
			agg.itemType = candidate.itemType
			agg.token = candidate.token
			agg.identifier = candidate.identifier
			agg.party = candidate.party
			agg.conduitKey = candidate.conduitKey
			agg.first = remaining
		} else if !agg.sameAsset(&candidate) || agg.party != candidate.party || agg.conduitKey != candidate.conduitKey {
			return nil, fmt.Errorf("%w: incompatible %s components", ErrInvalidFulfillmentComponentData, side)
		}
		agg.amount.Add(agg.amount, remaining)
		remaining.SetInt64(0)
	}
	return agg, nil
}

// applyFulfillment turns one match fulfillment into an execution. Any shortfall
// is credited back to the first consideration component and any surplus stays on
// the first offer component.
func applyFulfillment(orders []*preparedOrder, f types.Fulfillment) (*types.Execution, error) {
	if len(f.OfferComponents) == 0 || len(f.ConsiderationComponents) == 0 {
		return nil, ErrOfferAndConsiderationRequiredOnFulfillment
	}
	offer, err := aggregateSide(orders, f.OfferComponents, types.SideOffer)
	if err != nil {
		return nil, err
	}
	consideration, err := aggregateSide(orders, f.ConsiderationComponents, types.SideConsideration)
	if err != nil {
		return nil, err
	}
	if !offer.found || !consideration.found {
		return nil, nil
	}
	if !offer.sameAsset(consideration) {
		return nil, ErrMismatchedFulfillmentOfferAndConsiderationComponents
	}

	amount := new(big.Int)
	switch offer.amount.Cmp(consideration.amount) {
	case -1:
		consideration.first.Sub(consideration.amount, offer.amount)
		amount.Set(offer.amount)
	case 1:
		offer.first.Sub(offer.amount, consideration.amount)
		amount.Set(consideration.amount)
	default:
		amount.Set(offer.amount)
	}

	return &types.Execution{
		Item: types.ReceivedItem{
			ItemType:   offer.itemType,
			Token:      offer.token,
			Identifier: new(big.Int).Set(offer.identifier),
			Amount:     amount,
			Recipient:  consideration.party,
		},
		Offerer:    offer.party,
		ConduitKey: offer.conduitKey,
	}, nil
}

// finalizeOrders fails on the first consideration item left unpaid and returns
// executions sending every unspent offer amount to recipient.
func finalizeOrders(orders []*preparedOrder, recipient common.Address) ([]types.Execution, error) {
	for _, p := range orders {
		if p.skipped() {
			continue
		}
		for j, remaining := range p.considerationRemaining {
			if remaining.Sign() != 0 {
				return nil, &ConsiderationNotMetError{
					OrderIndex:         p.index,
					ConsiderationIndex: j,
					ShortfallAmount:    new(big.Int).Set(remaining),
				}
			}
		}
	}

	var unspent []types.Execution
	for _, p := range orders {
		if p.skipped() {
			continue
		}
		for j, remaining := range p.offerRemaining {
			if remaining.Sign() == 0 {
				continue
			}
			item := p.offer[j]
			unspent = append(unspent, types.Execution{
				Item: types.ReceivedItem{
					ItemType:   item.ItemType,
					Token:      item.Token,
					Identifier: new(big.Int).Set(item.Identifier),
					Amount:     new(big.Int).Set(remaining),
					Recipient:  recipient,
				},
				Offerer:    p.params.Offerer,
				ConduitKey: p.params.ConduitKey,
			})
			remaining.SetInt64(0)
		}
	}
	return unspent, nil
}

// executionSender is the account whose balance an execution debits. Native
// value is always funded by the caller.
func executionSender(ex types.Execution, caller common.Address) common.Address {
	if ex.Item.ItemType == types.ItemTypeNative {
		return caller
	}
	return ex.Offerer
}

// netExecutions drops executions that would move nothing: zero amounts and
// transfers whose sender is also the recipient.
func netExecutions(executions []types.Execution, caller common.Address) []types.Execution {
	out := make([]types.Execution, 0, len(executions))
	for _, ex := range executions {
		if ex.Item.Amount.Sign() == 0 {
			continue
		}
		if executionSender(ex, caller) == ex.Item.Recipient {
			continue
		}
		out = append(out, ex)
	}
	return out
}
