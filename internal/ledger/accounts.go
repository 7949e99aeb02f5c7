package ledger

import (
	"context"
	"sync"

	"seaport-backend/internal/engine"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SmartAccounts simulates contract wallets whose signatures are approved by an
// owning key. It implements engine.AccountInspector and engine.SignatureValidator.
type SmartAccounts struct {
	mu     sync.RWMutex
	owners map[common.Address]common.Address
}

var (
	_ engine.AccountInspector   = (*SmartAccounts)(nil)
	_ engine.SignatureValidator = (*SmartAccounts)(nil)
)

// NewSmartAccounts creates a new SmartAccounts instance
func NewSmartAccounts() *SmartAccounts {
	return &SmartAccounts{owners: make(map[common.Address]common.Address)}
}

// Register makes account a smart account controlled by owner
func (s *SmartAccounts) Register(account, owner common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[account] = owner
}

func (s *SmartAccounts) IsContract(_ context.Context, account common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owners[account]
	return ok, nil
}

// IsValidSignature accepts a 65-byte owner signature over the digest
func (s *SmartAccounts) IsValidSignature(_ context.Context, account common.Address, digest common.Hash, signature []byte) (bool, error) {
	s.mu.RLock()
	owner, ok := s.owners[account]
	s.mu.RUnlock()
	if !ok || len(signature) != crypto.SignatureLength {
		return false, nil
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return false, nil
	}
	return crypto.PubkeyToAddress(*pub) == owner, nil
}
