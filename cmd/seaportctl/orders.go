package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"seaport-backend/internal/config"
	"seaport-backend/internal/engine"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var ordersFile string

// OrderHashCmd prints the EIP-712 hash of order components read from a JSON file
var OrderHashCmd = &cobra.Command{
	Use:   "order-hash",
	Short: "Compute the order hash and signing digest of order components",
	RunE:  orderHash,
}

// SignOrderCmd signs order components with a private key
var SignOrderCmd = &cobra.Command{
	Use:   "sign-order",
	Short: "Sign order components; the key is read from SEAPORT_PRIVATE_KEY",
	RunE:  signOrder,
}

func init() {
	for _, cmd := range []*cobra.Command{OrderHashCmd, SignOrderCmd} {
		cmd.Flags().StringVarP(&ordersFile, "file", "f", "", "JSON file with order components (\"-\" for stdin)")
		_ = cmd.MarkFlagRequired("file")
	}
}

// loadConfig reads --config, falling back to built-in defaults
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Parse([]byte("{}"))
	}
	if err := config.LoadConfig(configPath); err != nil {
		return nil, err
	}
	return config.AppConfig, nil
}

func loadHasher() (*engine.Hasher, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	address, err := config.ParseAddress(cfg.Seaport.Address)
	if err != nil {
		return nil, err
	}
	return engine.NewHasher(cfg.Seaport.Name, cfg.Seaport.Version, cfg.Seaport.ChainIDBig(), address), nil
}

func readComponents() (types.OrderComponents, error) {
	var data []byte
	var err error
	if ordersFile == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(ordersFile)
	}
	if err != nil {
		return types.OrderComponents{}, fmt.Errorf("failed to read components: %w", err)
	}
	var components types.OrderComponents
	if err := json.Unmarshal(data, &components); err != nil {
		return types.OrderComponents{}, fmt.Errorf("failed to decode components: %w", err)
	}
	return components, nil
}

func orderHash(cmd *cobra.Command, args []string) error {
	hasher, err := loadHasher()
	if err != nil {
		return err
	}
	components, err := readComponents()
	if err != nil {
		return err
	}
	hash, err := hasher.OrderHash(components)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"orderHash":       hash.Hex(),
		"digest":          hasher.Digest(hash).Hex(),
		"domainSeparator": hasher.DomainSeparator().Hex(),
	})
}

func signOrder(cmd *cobra.Command, args []string) error {
	keyHex := os.Getenv("SEAPORT_PRIVATE_KEY")
	if keyHex == "" {
		return fmt.Errorf("SEAPORT_PRIVATE_KEY is not set")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	hasher, err := loadHasher()
	if err != nil {
		return err
	}
	components, err := readComponents()
	if err != nil {
		return err
	}
	signer := crypto.PubkeyToAddress(key.PublicKey)
	if signer != components.Offerer {
		fmt.Fprintf(os.Stderr, "⚠️ key address %s is not the offerer %s\n", signer.Hex(), components.Offerer.Hex())
	}
	hash, err := hasher.OrderHash(components)
	if err != nil {
		return err
	}
	sig, err := hasher.SignOrder(hash, key)
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"orderHash": hash.Hex(),
		"signer":    signer.Hex(),
		"signature": hexutil.Encode(sig),
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
