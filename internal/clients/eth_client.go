package clients

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"seaport-backend/internal/engine"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

const erc1271ABI = `[{"inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],"name":"isValidSignature","outputs":[{"name":"magicValue","type":"bytes4"}],"stateMutability":"view","type":"function"}]`

// ERC1271MagicValue is returned by isValidSignature for a valid signature
var ERC1271MagicValue = [4]byte{0x16, 0x26, 0xba, 0x7e}

// ContractBackend is the subset of ethclient.Client used for account checks
type ContractBackend interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ChainAccounts answers smart account questions against a live chain
type ChainAccounts struct {
	backend ContractBackend
	abi     abi.ABI
	timeout time.Duration

	mu        sync.RWMutex
	contracts map[common.Address]bool
}

var (
	_ engine.AccountInspector   = (*ChainAccounts)(nil)
	_ engine.SignatureValidator = (*ChainAccounts)(nil)
)

// DialChainAccounts connects to an RPC endpoint
func DialChainAccounts(ctx context.Context, rpcURL string, timeout time.Duration) (*ChainAccounts, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	accounts, err := NewChainAccounts(client, timeout)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return accounts, client, nil
}

// NewChainAccounts creates a new ChainAccounts instance
func NewChainAccounts(backend ContractBackend, timeout time.Duration) (*ChainAccounts, error) {
	parsedABI, err := abi.JSON(strings.NewReader(erc1271ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChainAccounts{
		backend:   backend,
		abi:       parsedABI,
		timeout:   timeout,
		contracts: make(map[common.Address]bool),
	}, nil
}

// IsContract reports whether the account has code. Positive answers are cached.
func (c *ChainAccounts) IsContract(ctx context.Context, account common.Address) (bool, error) {
	c.mu.RLock()
	cached := c.contracts[account]
	c.mu.RUnlock()
	if cached {
		return true, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	code, err := c.backend.CodeAt(ctx, account, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read code of %s: %w", account.Hex(), err)
	}
	if len(code) == 0 {
		return false, nil
	}
	c.mu.Lock()
	c.contracts[account] = true
	c.mu.Unlock()
	return true, nil
}

// IsValidSignature calls isValidSignature(bytes32,bytes) on the account
func (c *ChainAccounts) IsValidSignature(ctx context.Context, account common.Address, digest common.Hash, signature []byte) (bool, error) {
	data, err := c.abi.Pack("isValidSignature", [32]byte(digest), signature)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &account, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("isValidSignature call failed: %w", err)
	}

	unpacked, err := c.abi.Unpack("isValidSignature", result)
	if err != nil {
		return false, fmt.Errorf("failed to decode isValidSignature result: %w", err)
	}
	if len(unpacked) == 0 {
		return false, nil
	}
	magic, ok := unpacked[0].([4]byte)
	if !ok {
		return false, fmt.Errorf("unexpected isValidSignature result type %T", unpacked[0])
	}
	return magic == ERC1271MagicValue, nil
}
