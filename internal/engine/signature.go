package engine

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// verifySignature checks that offerer authorized orderHash. Callers skip this for
// validated orders and for orders fulfilled by their own offerer.
func (e *Engine) verifySignature(ctx context.Context, offerer common.Address, orderHash common.Hash, signature []byte) error {
	digest := e.hasher.Digest(orderHash)

	var (
		recovered common.Address
		recErr    error
	)
	switch len(signature) {
	case crypto.SignatureLength:
		v := signature[64]
		if v == 27 || v == 28 {
			v -= 27
		}
		if v != 0 && v != 1 {
			return ErrBadSignatureV
		}
		sig := make([]byte, crypto.SignatureLength)
		copy(sig, signature[:64])
		sig[64] = v
		recovered, recErr = recoverSigner(digest, sig)
	case crypto.SignatureLength - 1:
		recovered, recErr = recoverSigner(digest, expandCompactSignature(signature))
	default:
		return e.verifyDelegated(ctx, offerer, digest, signature, ErrInvalidSignature)
	}

	if recErr == nil && recovered == offerer {
		return nil
	}
	if recErr != nil {
		return e.verifyDelegated(ctx, offerer, digest, signature, ErrInvalidSignature)
	}
	return e.verifyDelegated(ctx, offerer, digest, signature, ErrInvalidSigner)
}

// verifyDelegated forwards the signature to a smart account offerer. For
// non-contract offerers it returns fallback.
func (e *Engine) verifyDelegated(ctx context.Context, offerer common.Address, digest common.Hash, signature []byte, fallback error) error {
	if e.accounts == nil || e.signatures == nil {
		return fallback
	}
	isContract, err := e.accounts.IsContract(ctx, offerer)
	if err != nil {
		return fmt.Errorf("%w: account lookup: %w", fallback, err)
	}
	if !isContract {
		return fallback
	}
	ok, err := e.signatures.IsValidSignature(ctx, offerer, digest, signature)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadContractSignature, err)
	}
	if !ok {
		return ErrBadContractSignature
	}
	return nil
}

func recoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// expandCompactSignature converts an EIP-2098 r‖vs signature into r‖s‖v
func expandCompactSignature(compact []byte) []byte {
	sig := make([]byte, crypto.SignatureLength)
	copy(sig[:32], compact[:32])
	copy(sig[32:64], compact[32:64])
	sig[64] = compact[32] >> 7
	sig[32] &= 0x7f
	return sig
}

// CompactSignature converts a 65-byte r‖s‖v signature (v in {0,1,27,28}) into
// its EIP-2098 form.
func CompactSignature(sig []byte) ([]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, ErrInvalidSignature
	}
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return nil, ErrBadSignatureV
	}
	compact := make([]byte, crypto.SignatureLength-1)
	copy(compact, sig[:64])
	compact[32] |= v << 7
	return compact, nil
}

// SignOrder signs the digest of orderHash. The returned signature uses v in {27, 28}.
func (h *Hasher) SignOrder(orderHash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(h.Digest(orderHash).Bytes(), key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return sig, nil
}
