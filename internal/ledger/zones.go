package ledger

import (
	"context"
	"errors"
	"sync"

	"seaport-backend/internal/engine"

	"github.com/ethereum/go-ethereum/common"
)

var ErrZoneRejected = errors.New("zone rejected order")

// AllowListZone approves restricted orders fulfilled by an allow-listed caller,
// or every order when AllowAll is set.
type AllowListZone struct {
	mu       sync.RWMutex
	allowAll bool
	callers  map[common.Address]bool
}

// NewAllowListZone creates a new AllowListZone instance
func NewAllowListZone(allowAll bool, callers ...common.Address) *AllowListZone {
	z := &AllowListZone{allowAll: allowAll, callers: make(map[common.Address]bool)}
	for _, c := range callers {
		z.callers[c] = true
	}
	return z
}

// Allow adds caller to the allow list
func (z *AllowListZone) Allow(caller common.Address) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.callers[caller] = true
}

func (z *AllowListZone) ValidateOrder(_ context.Context, req engine.ZoneRequest) error {
	z.mu.RLock()
	defer z.mu.RUnlock()
	if z.allowAll || z.callers[req.Caller] {
		return nil
	}
	return ErrZoneRejected
}

// Zones maps zone addresses to implementations and offerers to the zone managing
// their nonce. It implements engine.ZoneRegistry and engine.OffererZones.
type Zones struct {
	mu       sync.RWMutex
	zones    map[common.Address]engine.Zone
	offerers map[common.Address]common.Address
}

var (
	_ engine.ZoneRegistry = (*Zones)(nil)
	_ engine.OffererZones = (*Zones)(nil)
)

// NewZones creates a new Zones instance
func NewZones() *Zones {
	return &Zones{
		zones:    make(map[common.Address]engine.Zone),
		offerers: make(map[common.Address]common.Address),
	}
}

// Register binds a zone implementation to an address
func (z *Zones) Register(address common.Address, zone engine.Zone) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.zones[address] = zone
}

func (z *Zones) Zone(address common.Address) (engine.Zone, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	zone, ok := z.zones[address]
	return zone, ok
}

// Assign puts zone in charge of the offerer's nonce. The zone address of all
// zeroes removes the assignment.
func (z *Zones) Assign(offerer, zone common.Address) {
	z.mu.Lock()
	defer z.mu.Unlock()
	if zone == (common.Address{}) {
		delete(z.offerers, offerer)
		return
	}
	z.offerers[offerer] = zone
}

func (z *Zones) ZoneOf(offerer common.Address) (common.Address, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	zone, ok := z.offerers[offerer]
	return zone, ok
}
