package engine

import (
	"context"
	"math/big"
	"sync"

	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryStore keeps order state in process memory
type MemoryStore struct {
	mu           sync.RWMutex
	statuses     map[common.Hash]types.OrderStatus
	nonces       map[common.Address]*big.Int
	fulfillments []FulfillmentRecord
}

// NewMemoryStore creates a new MemoryStore instance
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statuses: make(map[common.Hash]types.OrderStatus),
		nonces:   make(map[common.Address]*big.Int),
	}
}

func (s *MemoryStore) OrderStatus(_ context.Context, orderHash common.Hash) (types.OrderStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[orderHash]
	if !ok {
		return types.NewOrderStatus(), nil
	}
	return st.Copy(), nil
}

func (s *MemoryStore) Nonce(_ context.Context, offerer common.Address) (*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nonces[offerer]
	if !ok {
		return new(big.Int), nil
	}
	return new(big.Int).Set(n), nil
}

func (s *MemoryStore) Apply(_ context.Context, batch *StateBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range batch.Statuses {
		s.statuses[u.OrderHash] = u.Status.Copy()
	}
	for _, u := range batch.Nonces {
		s.nonces[u.Offerer] = new(big.Int).Set(u.Nonce)
	}
	s.fulfillments = append(s.fulfillments, batch.Fulfillments...)
	return nil
}

// FulfillmentsByOrder returns the fulfillment history of an order, oldest first
func (s *MemoryStore) FulfillmentsByOrder(_ context.Context, orderHash common.Hash) ([]FulfillmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []FulfillmentRecord
	for _, f := range s.fulfillments {
		if f.OrderHash == orderHash {
			out = append(out, f)
		}
	}
	return out, nil
}

// FulfillmentsByFulfiller returns a page of fills made by an account, newest first
func (s *MemoryStore) FulfillmentsByFulfiller(_ context.Context, fulfiller common.Address, page, pageSize int) ([]FulfillmentRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []FulfillmentRecord
	for i := len(s.fulfillments) - 1; i >= 0; i-- {
		if s.fulfillments[i].Fulfiller == fulfiller {
			matched = append(matched, s.fulfillments[i])
		}
	}
	total := int64(len(matched))
	start := (page - 1) * pageSize
	if start < 0 || start >= len(matched) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
