package services

import (
	"fmt"

	"seaport-backend/internal/config"
	"seaport-backend/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Seed loads genesis balances, approvals, conduits, smart accounts and zones from configuration
func (s *ExchangeService) Seed(cfg config.LedgerConfig, zones []config.ZoneConfig) error {
	for i, b := range cfg.Genesis {
		account, err := config.ParseAddress(b.Account)
		if err != nil {
			return fmt.Errorf("genesis[%d].account: %w", i, err)
		}
		itemType := types.ItemType(b.ItemType)
		if !itemType.Valid() || itemType.HasCriteria() {
			return fmt.Errorf("genesis[%d].itemType: unsupported item type %d", i, b.ItemType)
		}
		var token common.Address
		if itemType != types.ItemTypeNative {
			if token, err = config.ParseAddress(b.Token); err != nil {
				return fmt.Errorf("genesis[%d].token: %w", i, err)
			}
		}
		identifier, err := config.ParseAmount(b.Identifier)
		if err != nil {
			return fmt.Errorf("genesis[%d].identifier: %w", i, err)
		}
		amount, err := config.ParseAmount(b.Amount)
		if err != nil {
			return fmt.Errorf("genesis[%d].amount: %w", i, err)
		}
		if err := s.Mint(account, itemType, token, identifier, amount); err != nil {
			return fmt.Errorf("genesis[%d]: %w", i, err)
		}
	}

	for i, a := range cfg.Approvals {
		owner, err := config.ParseAddress(a.Owner)
		if err != nil {
			return fmt.Errorf("approvals[%d].owner: %w", i, err)
		}
		operator := s.ProtocolAddress()
		if a.Operator != "" {
			if operator, err = config.ParseAddress(a.Operator); err != nil {
				return fmt.Errorf("approvals[%d].operator: %w", i, err)
			}
		}
		if err := s.SetApproval(owner, operator, true); err != nil {
			return err
		}
	}

	for i, c := range cfg.Conduits {
		key, err := config.ParseHash(c.Key)
		if err != nil {
			return fmt.Errorf("conduits[%d].key: %w", i, err)
		}
		owner, err := config.ParseAddress(c.Owner)
		if err != nil {
			return fmt.Errorf("conduits[%d].owner: %w", i, err)
		}
		if _, err := s.CreateConduit(key, owner); err != nil {
			return fmt.Errorf("conduits[%d]: %w", i, err)
		}
		for _, ch := range c.Channels {
			channel, err := config.ParseAddress(ch)
			if err != nil {
				return fmt.Errorf("conduits[%d].channels: %w", i, err)
			}
			if err := s.UpdateChannel(key, channel, true); err != nil {
				return fmt.Errorf("conduits[%d]: %w", i, err)
			}
		}
	}

	for i, sa := range cfg.SmartAccounts {
		account, err := config.ParseAddress(sa.Account)
		if err != nil {
			return fmt.Errorf("smartAccounts[%d].account: %w", i, err)
		}
		owner, err := config.ParseAddress(sa.Owner)
		if err != nil {
			return fmt.Errorf("smartAccounts[%d].owner: %w", i, err)
		}
		if err := s.RegisterSmartAccount(account, owner); err != nil {
			return fmt.Errorf("smartAccounts[%d]: %w", i, err)
		}
	}

	for i, z := range zones {
		address, err := config.ParseAddress(z.Address)
		if err != nil {
			return fmt.Errorf("zones[%d].address: %w", i, err)
		}
		callers := make([]common.Address, 0, len(z.Callers))
		for _, c := range z.Callers {
			caller, err := config.ParseAddress(c)
			if err != nil {
				return fmt.Errorf("zones[%d].callers: %w", i, err)
			}
			callers = append(callers, caller)
		}
		offerers := make([]common.Address, 0, len(z.Offerers))
		for _, o := range z.Offerers {
			offerer, err := config.ParseAddress(o)
			if err != nil {
				return fmt.Errorf("zones[%d].offerers: %w", i, err)
			}
			offerers = append(offerers, offerer)
		}
		if err := s.RegisterZone(address, z.AllowAll, callers, offerers); err != nil {
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"balances":      len(cfg.Genesis),
		"approvals":     len(cfg.Approvals),
		"conduits":      len(cfg.Conduits),
		"smartAccounts": len(cfg.SmartAccounts),
		"zones":         len(zones),
	}).Info("🌱 Settlement ledger seeded")
	return nil
}
