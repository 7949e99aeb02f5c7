package engine

import (
	"context"
	"fmt"
	"math/big"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// routeItemTypes returns the offer, primary consideration and additional
// recipient item types of a basic order route.
func routeItemTypes(route types.BasicOrderRouteType) (offer, consideration, additional types.ItemType, err error) {
	switch route {
	case types.RouteNativeToERC721:
		return types.ItemTypeERC721, types.ItemTypeNative, types.ItemTypeNative, nil
	case types.RouteNativeToERC1155:
		return types.ItemTypeERC1155, types.ItemTypeNative, types.ItemTypeNative, nil
	case types.RouteERC20ToERC721:
		return types.ItemTypeERC721, types.ItemTypeERC20, types.ItemTypeERC20, nil
	case types.RouteERC20ToERC1155:
		return types.ItemTypeERC1155, types.ItemTypeERC20, types.ItemTypeERC20, nil
	case types.RouteERC721ToERC20:
		return types.ItemTypeERC20, types.ItemTypeERC721, types.ItemTypeERC20, nil
	case types.RouteERC1155ToERC20:
		return types.ItemTypeERC20, types.ItemTypeERC1155, types.ItemTypeERC20, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: route %d", ErrInvalidBasicOrderParameters, route)
	}
}

// BasicOrderToAdvanced expands basic order parameters into the equivalent full
// 1/1 advanced order. Additional recipients past TotalOriginalAdditionalRecipients
// become tips that are not covered by the signature.
func BasicOrderToAdvanced(p types.BasicOrderParameters) (types.AdvancedOrder, error) {
	offerType, considerationType, additionalType, err := routeItemTypes(p.Route())
	if err != nil {
		return types.AdvancedOrder{}, err
	}
	if p.TotalOriginalAdditionalRecipients < 0 {
		return types.AdvancedOrder{}, fmt.Errorf("%w: negative additional recipient count", ErrInvalidBasicOrderParameters)
	}
	if p.TotalOriginalAdditionalRecipients > len(p.AdditionalRecipients) {
		return types.AdvancedOrder{}, ErrMissingOriginalConsiderationItems
	}

	additionalToken := p.ConsiderationToken
	if p.Route() >= types.RouteERC721ToERC20 {
		additionalToken = p.OfferToken
	}

	consideration := make([]types.ConsiderationItem, 0, 1+len(p.AdditionalRecipients))
	consideration = append(consideration, types.ConsiderationItem{
		ItemType:             considerationType,
		Token:                p.ConsiderationToken,
		IdentifierOrCriteria: orZero(p.ConsiderationIdentifier),
		StartAmount:          orZero(p.ConsiderationAmount),
		EndAmount:            orZero(p.ConsiderationAmount),
		Recipient:            p.Offerer,
	})
	for _, r := range p.AdditionalRecipients {
		consideration = append(consideration, types.ConsiderationItem{
			ItemType:             additionalType,
			Token:                additionalToken,
			IdentifierOrCriteria: new(big.Int),
			StartAmount:          orZero(r.Amount),
			EndAmount:            orZero(r.Amount),
			Recipient:            r.Recipient,
		})
	}

	return types.AdvancedOrder{
		Parameters: types.OrderParameters{
			Offerer: p.Offerer,
			Zone:    p.Zone,
			Offer: []types.OfferItem{{
				ItemType:             offerType,
				Token:                p.OfferToken,
				IdentifierOrCriteria: orZero(p.OfferIdentifier),
				StartAmount:          orZero(p.OfferAmount),
				EndAmount:            orZero(p.OfferAmount),
			}},
			Consideration:                   consideration,
			OrderType:                       p.OrderType(),
			StartTime:                       p.StartTime,
			EndTime:                         p.EndTime,
			ZoneHash:                        p.ZoneHash,
			Salt:                            orZero(p.Salt),
			ConduitKey:                      p.OffererConduitKey,
			TotalOriginalConsiderationItems: 1 + p.TotalOriginalAdditionalRecipients,
		},
		Numerator:   big.NewInt(1),
		Denominator: big.NewInt(1),
		Signature:   p.Signature,
	}, nil
}

// FulfillBasicOrder fills a single-offer-item order in full. Orders with any
// prior fill are rejected.
func (e *Engine) FulfillBasicOrder(ctx context.Context, caller common.Address, params types.BasicOrderParameters, value *big.Int) (*Receipt, error) {
	order, err := BasicOrderToAdvanced(params)
	if err != nil {
		return nil, err
	}
	route := params.Route()
	if route >= types.RouteERC20ToERC721 && value != nil && value.Sign() != 0 {
		return nil, ErrInvalidMsgValue
	}

	var prepared []*preparedOrder
	c, err := e.run(ctx, "fulfill_basic_order", caller, value, false, func(c *call) error {
		p, err := c.prepare(0, order, prepareOptions{
			revertOnInvalid: true,
			onlyAllowUnused: true,
		})
		if err != nil {
			return err
		}
		prepared = []*preparedOrder{p}
		p.buildItems()
		c.finishOrder(p, caller)

		var executions []types.Execution
		if route < types.RouteERC721ToERC20 {
			executions = directExecutions(p, caller, caller, params.FulfillerConduitKey)
		} else {
			executions, err = offererPaysExecutions(p, caller, params.FulfillerConduitKey)
			if err != nil {
				return err
			}
		}
		return c.dispatch(executions)
	})
	if err != nil {
		return nil, err
	}
	return c.receipt(results(prepared), false), nil
}

// offererPaysExecutions builds the transfers of an order that trades a token for
// ERC20. The offerer pays the additional recipients out of the offered amount
// and the caller receives the remainder.
func offererPaysExecutions(p *preparedOrder, caller common.Address, fulfillerConduitKey common.Hash) ([]types.Execution, error) {
	offered := p.offer[0]
	remainder := new(big.Int).Set(offered.Amount)
	primary := p.consideration[0]

	executions := []types.Execution{{
		Item: types.ReceivedItem{
			ItemType:   primary.ItemType,
			Token:      primary.Token,
			Identifier: new(big.Int).Set(primary.Identifier),
			Amount:     new(big.Int).Set(primary.Amount),
			Recipient:  primary.Recipient,
		},
		Offerer:    caller,
		ConduitKey: fulfillerConduitKey,
	}}

	for _, item := range p.consideration[1:] {
		remainder.Sub(remainder, item.Amount)
		if remainder.Sign() < 0 {
			return nil, fmt.Errorf("%w: additional recipients exceed offer amount", ErrInvalidBasicOrderParameters)
		}
		executions = append(executions, types.Execution{
			Item: types.ReceivedItem{
				ItemType:   item.ItemType,
				Token:      item.Token,
				Identifier: new(big.Int),
				Amount:     new(big.Int).Set(item.Amount),
				Recipient:  item.Recipient,
			},
			Offerer:    p.params.Offerer,
			ConduitKey: p.params.ConduitKey,
		})
	}

	if remainder.Sign() > 0 {
		executions = append(executions, types.Execution{
			Item: types.ReceivedItem{
				ItemType:   offered.ItemType,
				Token:      offered.Token,
				Identifier: new(big.Int),
				Amount:     remainder,
				Recipient:  caller,
			},
			Offerer:    p.params.Offerer,
			ConduitKey: p.params.ConduitKey,
		})
	}
	return executions, nil
}
