package engine

import (
	"fmt"
	"math/big"

	"seaport-backend/internal/types"
	"seaport-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
)

// applyCriteriaResolvers substitutes resolved identifiers into criteria items.
// Resolvers pointing at skipped orders are ignored. Every criteria item of a
// non-skipped order must end up resolved.
func applyCriteriaResolvers(orders []*preparedOrder, resolvers []types.CriteriaResolver) error {
	for i, r := range resolvers {
		if r.OrderIndex < 0 || r.OrderIndex >= len(orders) {
			return fmt.Errorf("resolver %d: %w", i, ErrOrderCriteriaResolverOutOfRange)
		}
		p := orders[r.OrderIndex]
		if p.skipped() {
			continue
		}

		switch r.Side {
		case types.SideOffer:
			if r.Index < 0 || r.Index >= len(p.params.Offer) {
				return fmt.Errorf("resolver %d: %w", i, ErrOfferCriteriaResolverOutOfRange)
			}
			item := &p.params.Offer[r.Index]
			if err := resolveCriteria(&item.ItemType, &item.IdentifierOrCriteria, r); err != nil {
				return fmt.Errorf("resolver %d: %w", i, err)
			}
		case types.SideConsideration:
			if r.Index < 0 || r.Index >= len(p.params.Consideration) {
				return fmt.Errorf("resolver %d: %w", i, ErrConsiderationCriteriaResolverOutOfRange)
			}
			item := &p.params.Consideration[r.Index]
			if err := resolveCriteria(&item.ItemType, &item.IdentifierOrCriteria, r); err != nil {
				return fmt.Errorf("resolver %d: %w", i, err)
			}
		default:
			return fmt.Errorf("resolver %d: unknown side %d: %w", i, r.Side, ErrOrderCriteriaResolverOutOfRange)
		}
	}

	for _, p := range orders {
		if p.skipped() {
			continue
		}
		for _, item := range p.params.Offer {
			if item.ItemType.HasCriteria() {
				return &OrderError{OrderIndex: p.index, Err: ErrUnresolvedOfferCriteria}
			}
		}
		for _, item := range p.params.Consideration {
			if item.ItemType.HasCriteria() {
				return &OrderError{OrderIndex: p.index, Err: ErrUnresolvedConsiderationCriteria}
			}
		}
	}
	return nil
}

// resolveCriteria checks the resolver against the item's root and downgrades
// the item to its concrete type. A zero root accepts any identifier with an empty proof.
func resolveCriteria(itemType *types.ItemType, identifierOrCriteria **big.Int, r types.CriteriaResolver) error {
	if !itemType.HasCriteria() {
		return ErrCriteriaNotEnabledForItem
	}
	identifier := r.Identifier
	if identifier == nil {
		identifier = new(big.Int)
	}
	if !inUint256(identifier) {
		return ErrInvalidProof
	}

	root := common.BigToHash(orZero(*identifierOrCriteria))
	if root != (common.Hash{}) {
		if !utils.VerifyCriteriaProof(identifier, root, r.CriteriaProof) {
			return ErrInvalidProof
		}
	} else if len(r.CriteriaProof) != 0 {
		return ErrInvalidProof
	}

	*itemType = itemType.WithoutCriteria()
	*identifierOrCriteria = new(big.Int).Set(identifier)
	return nil
}
