package config

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// SeaportConfig describes the protocol deployment served by this backend
type SeaportConfig struct {
	Name              string `yaml:"name"`
	Version           string `yaml:"version"`
	ChainID           int64  `yaml:"chainId"`
	Address           string `yaml:"address"`           // EIP-712 verifying contract and protocol account
	ConduitController string `yaml:"conduitController"` // Reported by the information endpoint
}

// LedgerConfig seeds the simulated settlement ledger
type LedgerConfig struct {
	Genesis       []BalanceConfig      `yaml:"genesis"`
	Approvals     []ApprovalConfig     `yaml:"approvals"`
	Conduits      []ConduitConfig      `yaml:"conduits"`
	SmartAccounts []SmartAccountConfig `yaml:"smartAccounts"`
}

// BalanceConfig is one minted balance
type BalanceConfig struct {
	Account    string `yaml:"account"`
	ItemType   uint8  `yaml:"itemType"`
	Token      string `yaml:"token"`
	Identifier string `yaml:"identifier"`
	Amount     string `yaml:"amount"`
}

// ApprovalConfig lets operator spend every asset of owner
type ApprovalConfig struct {
	Owner    string `yaml:"owner"`
	Operator string `yaml:"operator"`
}

// ConduitConfig registers a conduit and opens channels on it
type ConduitConfig struct {
	Key      string   `yaml:"key"`
	Owner    string   `yaml:"owner"`
	Channels []string `yaml:"channels"`
}

// SmartAccountConfig registers an account whose signatures are checked by delegation
type SmartAccountConfig struct {
	Account string `yaml:"account"`
	Owner   string `yaml:"owner"`
}

// ZoneConfig registers an allow-list zone
type ZoneConfig struct {
	Address  string   `yaml:"address"`
	AllowAll bool     `yaml:"allowAll"`
	Callers  []string `yaml:"callers"`
	// Offerers whose nonce the zone may increment
	Offerers []string `yaml:"offerers"`
}

var ErrInvalidAddress = errors.New("invalid address")

func (s *SeaportConfig) applyDefaults() {
	if s.Name == "" {
		s.Name = "Seaport"
	}
	if s.Version == "" {
		s.Version = "1.1"
	}
	if s.ChainID == 0 {
		s.ChainID = 1
	}
	if s.Address == "" {
		s.Address = "0x00000000006c3852cbEf3e08E8dF289169EdE581"
	}
	if s.ConduitController == "" {
		s.ConduitController = "0x00000000F9490004C11Cef243f5400493c00Ad63"
	}
}

// Validate checks the configured addresses
func (s SeaportConfig) Validate() error {
	if s.ChainID <= 0 {
		return fmt.Errorf("chainId must be positive, got %d", s.ChainID)
	}
	if _, err := ParseAddress(s.Address); err != nil {
		return fmt.Errorf("address: %w", err)
	}
	if _, err := ParseAddress(s.ConduitController); err != nil {
		return fmt.Errorf("conduitController: %w", err)
	}
	return nil
}

// ChainIDBig returns the chain id as a big integer
func (s SeaportConfig) ChainIDBig() *big.Int {
	return big.NewInt(s.ChainID)
}

// ParseAddress parses a hex address, rejecting malformed input
func ParseAddress(value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, value)
	}
	return common.HexToAddress(value), nil
}

// ParseAmount parses a decimal or 0x-prefixed integer. Empty input is zero.
func ParseAmount(value string) (*big.Int, error) {
	if value == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(value, 0)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return n, nil
}

// ParseHash parses a 0x-prefixed 32-byte hex value such as a conduit key
func ParseHash(value string) (common.Hash, error) {
	b, err := hexutil.Decode(value)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid 32-byte hex value %q", value)
	}
	return common.BytesToHash(b), nil
}
