package engine

import (
	"errors"
	"fmt"
	"math/big"
)

// Authorization errors
var (
	ErrInvalidSigner           = errors.New("invalid signer")
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrBadSignatureV           = errors.New("bad signature v value")
	ErrBadContractSignature    = errors.New("bad contract signature")
	ErrInvalidCanceller        = errors.New("invalid canceller")
	ErrInvalidNonceIncrementor = errors.New("invalid nonce incrementor")
	ErrInvalidRestrictedOrder  = errors.New("invalid restricted order")
)

// Temporal and lifecycle errors
var (
	ErrInvalidTime                = errors.New("order is not active")
	ErrOrderIsCancelled           = errors.New("order is cancelled")
	ErrOrderAlreadyFilled         = errors.New("order already filled")
	ErrOrderPartiallyFilled       = errors.New("order partially filled")
	ErrNoSpecifiedOrdersAvailable = errors.New("no specified orders available")
)

// Arithmetic errors
var (
	ErrBadFraction                    = errors.New("bad fraction")
	ErrInexactFraction                = errors.New("inexact fraction")
	ErrPartialFillsNotEnabledForOrder = errors.New("partial fills not enabled for order")
	ErrMissingItemAmount              = errors.New("missing item amount")
	ErrInsufficientNativeValue        = errors.New("insufficient native value supplied")
	ErrInvalidMsgValue                = errors.New("invalid native value supplied")
)

// Structural errors
var (
	ErrMissingOriginalConsiderationItems                    = errors.New("missing original consideration items")
	ErrInvalidFulfillmentComponentData                      = errors.New("invalid fulfillment component data")
	ErrMismatchedFulfillmentOfferAndConsiderationComponents = errors.New("mismatched fulfillment offer and consideration components")
	ErrOfferAndConsiderationRequiredOnFulfillment           = errors.New("offer and consideration required on fulfillment")
	ErrConsiderationNotMet                                  = errors.New("consideration not met")
	ErrOrderCriteriaResolverOutOfRange                      = errors.New("order criteria resolver out of range")
	ErrOfferCriteriaResolverOutOfRange                      = errors.New("offer criteria resolver out of range")
	ErrConsiderationCriteriaResolverOutOfRange              = errors.New("consideration criteria resolver out of range")
	ErrCriteriaNotEnabledForItem                            = errors.New("criteria not enabled for item")
	ErrUnresolvedOfferCriteria                              = errors.New("unresolved offer criteria")
	ErrUnresolvedConsiderationCriteria                      = errors.New("unresolved consideration criteria")
	ErrInvalidProof                                         = errors.New("invalid criteria proof")
	ErrInvalidNativeOfferItem                               = errors.New("native offer items are only allowed when matching")
	ErrInvalidBasicOrderParameters                          = errors.New("invalid basic order parameters")
	ErrInvalidOrderParameters                               = errors.New("invalid order parameters")
)

// Transfer errors
var (
	ErrInvalidConduit              = errors.New("invalid conduit")
	ErrInvalidERC721TransferAmount = errors.New("invalid erc721 transfer amount")
	ErrTransferFailed              = errors.New("transfer failed")
)

// ErrNoReentrantCalls is returned when the engine is entered while a call is in progress
var ErrNoReentrantCalls = errors.New("no reentrant calls")

// ConsiderationNotMetError reports the first consideration item left short after aggregation
type ConsiderationNotMetError struct {
	OrderIndex         int
	ConsiderationIndex int
	ShortfallAmount    *big.Int
}

func (e *ConsiderationNotMetError) Error() string {
	return fmt.Sprintf("consideration not met: order %d item %d short by %s",
		e.OrderIndex, e.ConsiderationIndex, e.ShortfallAmount)
}

func (e *ConsiderationNotMetError) Unwrap() error {
	return ErrConsiderationNotMet
}

// OrderError attaches the position of the failing order in the call's order array
type OrderError struct {
	OrderIndex int
	Err        error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order %d: %v", e.OrderIndex, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidSigner, "InvalidSigner"},
	{ErrInvalidSignature, "InvalidSignature"},
	{ErrBadSignatureV, "BadSignatureV"},
	{ErrBadContractSignature, "BadContractSignature"},
	{ErrInvalidCanceller, "InvalidCanceller"},
	{ErrInvalidNonceIncrementor, "InvalidNonceIncrementor"},
	{ErrInvalidRestrictedOrder, "InvalidRestrictedOrder"},
	{ErrInvalidTime, "InvalidTime"},
	{ErrOrderIsCancelled, "OrderIsCancelled"},
	{ErrOrderAlreadyFilled, "OrderAlreadyFilled"},
	{ErrOrderPartiallyFilled, "OrderPartiallyFilled"},
	{ErrNoSpecifiedOrdersAvailable, "NoSpecifiedOrdersAvailable"},
	{ErrBadFraction, "BadFraction"},
	{ErrInexactFraction, "InexactFraction"},
	{ErrPartialFillsNotEnabledForOrder, "PartialFillsNotEnabledForOrder"},
	{ErrMissingItemAmount, "MissingItemAmount"},
	{ErrInsufficientNativeValue, "InsufficientNativeValue"},
	{ErrInvalidMsgValue, "InvalidMsgValue"},
	{ErrMissingOriginalConsiderationItems, "MissingOriginalConsiderationItems"},
	{ErrInvalidFulfillmentComponentData, "InvalidFulfillmentComponentData"},
	{ErrMismatchedFulfillmentOfferAndConsiderationComponents, "MismatchedFulfillmentOfferAndConsiderationComponents"},
	{ErrOfferAndConsiderationRequiredOnFulfillment, "OfferAndConsiderationRequiredOnFulfillment"},
	{ErrConsiderationNotMet, "ConsiderationNotMet"},
	{ErrOrderCriteriaResolverOutOfRange, "OrderCriteriaResolverOutOfRange"},
	{ErrOfferCriteriaResolverOutOfRange, "OfferCriteriaResolverOutOfRange"},
	{ErrConsiderationCriteriaResolverOutOfRange, "ConsiderationCriteriaResolverOutOfRange"},
	{ErrCriteriaNotEnabledForItem, "CriteriaNotEnabledForItem"},
	{ErrUnresolvedOfferCriteria, "UnresolvedOfferCriteria"},
	{ErrUnresolvedConsiderationCriteria, "UnresolvedConsiderationCriteria"},
	{ErrInvalidProof, "InvalidProof"},
	{ErrInvalidNativeOfferItem, "InvalidNativeOfferItem"},
	{ErrInvalidBasicOrderParameters, "InvalidBasicOrderParameters"},
	{ErrInvalidOrderParameters, "InvalidOrderParameters"},
	{ErrInvalidConduit, "InvalidConduit"},
	{ErrInvalidERC721TransferAmount, "InvalidERC721TransferAmount"},
	{ErrTransferFailed, "TransferFailed"},
	{ErrNoReentrantCalls, "NoReentrantCalls"},
}

// Code returns the condition name of an engine error, or "Unknown" when err
// does not wrap one of the engine sentinels.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "Unknown"
}
