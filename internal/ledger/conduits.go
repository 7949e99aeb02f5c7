package ledger

import (
	"errors"
	"sync"

	"seaport-backend/internal/engine"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrConduitExists = errors.New("conduit already exists")

// ConduitInfo describes a registered conduit
type ConduitInfo struct {
	Key      common.Hash      `json:"key"`
	Address  common.Address   `json:"address"`
	Owner    common.Address   `json:"owner"`
	Channels []common.Address `json:"channels"`
}

type conduit struct {
	key      common.Hash
	address  common.Address
	owner    common.Address
	mu       sync.RWMutex
	channels map[common.Address]bool
}

func (c *conduit) Address() common.Address {
	return c.address
}

func (c *conduit) ChannelOpen(channel common.Address) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channels[channel]
}

// ConduitRegistry keeps conduits by key. It implements engine.ConduitController.
type ConduitRegistry struct {
	mu       sync.RWMutex
	conduits map[common.Hash]*conduit
}

var _ engine.ConduitController = (*ConduitRegistry)(nil)

// NewConduitRegistry creates a new ConduitRegistry instance
func NewConduitRegistry() *ConduitRegistry {
	return &ConduitRegistry{conduits: make(map[common.Hash]*conduit)}
}

// ConduitAddress derives the address of the conduit deployed for key
func ConduitAddress(controller common.Address, key common.Hash) common.Address {
	return common.BytesToAddress(crypto.Keccak256(controller.Bytes(), key.Bytes()))
}

// Create registers a conduit for key. The first 20 bytes of the key must be the owner.
func (r *ConduitRegistry) Create(controller common.Address, key common.Hash, owner common.Address) (common.Address, error) {
	if common.BytesToAddress(key.Bytes()[:common.AddressLength]) != owner {
		return common.Address{}, errors.New("conduit key must start with the owner address")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conduits[key]; ok {
		return common.Address{}, ErrConduitExists
	}
	c := &conduit{
		key:      key,
		address:  ConduitAddress(controller, key),
		owner:    owner,
		channels: make(map[common.Address]bool),
	}
	r.conduits[key] = c
	return c.address, nil
}

// UpdateChannel opens or closes a channel on the conduit of key
func (r *ConduitRegistry) UpdateChannel(key common.Hash, channel common.Address, open bool) error {
	r.mu.RLock()
	c, ok := r.conduits[key]
	r.mu.RUnlock()
	if !ok {
		return engine.ErrInvalidConduit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if open {
		c.channels[channel] = true
	} else {
		delete(c.channels, channel)
	}
	return nil
}

// Conduit implements engine.ConduitController
func (r *ConduitRegistry) Conduit(key common.Hash) (engine.Conduit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conduits[key]
	if !ok {
		return nil, false
	}
	return c, true
}

// List returns every registered conduit
func (r *ConduitRegistry) List() []ConduitInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ConduitInfo, 0, len(r.conduits))
	for _, c := range r.conduits {
		info := ConduitInfo{Key: c.key, Address: c.address, Owner: c.owner}
		c.mu.RLock()
		for ch := range c.channels {
			info.Channels = append(info.Channels, ch)
		}
		c.mu.RUnlock()
		out = append(out, info)
	}
	return out
}
