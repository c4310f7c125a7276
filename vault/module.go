// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"math/big"
	"slices"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
	"github.com/parsdao/vault/modules"
	"github.com/parsdao/vault/precompileconfig"
	"github.com/parsdao/vault/registry"
)

var _ contract.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "vaultConfig"

// VaultPrecompile is the singleton instance
var VaultPrecompile = NewContract(New(Options{Address: registry.VaultAddress}))

// Module is the precompile module (Vault at LP-9030)
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      registry.VaultAddress,
	Contract:     VaultPrecompile,
	Configurator: &configurator{},
}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade precompileconfig.Upgrade `json:"upgrade,omitempty"`

	// AdminAddresses administer the authorizer and hold every Vault and
	// protocol fee action at activation.
	AdminAddresses   []common.Address `json:"adminAddresses,omitempty"`
	TrustedOperators []common.Address `json:"trustedOperators,omitempty"`

	SwapFeePercentage      *big.Int       `json:"swapFeePercentage,omitempty"`
	FlashLoanFeePercentage *big.Int       `json:"flashLoanFeePercentage,omitempty"`
	FeeRecipient           common.Address `json:"feeRecipient,omitempty"`

	// Durations in seconds, counted from activation
	PauseWindowDuration  uint64 `json:"pauseWindowDuration,omitempty"`
	BufferPeriodDuration uint64 `json:"bufferPeriodDuration,omitempty"`
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func bigEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) &&
		slices.Equal(c.AdminAddresses, other.AdminAddresses) &&
		slices.Equal(c.TrustedOperators, other.TrustedOperators) &&
		bigEqual(c.SwapFeePercentage, other.SwapFeePercentage) &&
		bigEqual(c.FlashLoanFeePercentage, other.FlashLoanFeePercentage) &&
		c.FeeRecipient == other.FeeRecipient &&
		c.PauseWindowDuration == other.PauseWindowDuration &&
		c.BufferPeriodDuration == other.BufferPeriodDuration
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	if c.Upgrade.Disable {
		return nil
	}
	for _, admin := range c.AdminAddresses {
		if admin == (common.Address{}) {
			return fmt.Errorf("vault config: zero admin address")
		}
	}
	if c.SwapFeePercentage != nil {
		if c.SwapFeePercentage.Sign() < 0 || c.SwapFeePercentage.Cmp(MaxSwapFeePercentage.ToBig()) > 0 {
			return fmt.Errorf("vault config: %w", errcode.ErrSwapFeePercentageTooHigh)
		}
	}
	if c.FlashLoanFeePercentage != nil {
		if c.FlashLoanFeePercentage.Sign() < 0 || c.FlashLoanFeePercentage.Cmp(MaxFlashLoanFeePercentage.ToBig()) > 0 {
			return fmt.Errorf("vault config: %w", errcode.ErrFlashLoanFeePercentageTooHigh)
		}
	}
	if c.PauseWindowDuration > MaxPauseWindowDuration {
		return fmt.Errorf("vault config: %w", errcode.ErrMaxPauseWindowDuration)
	}
	if c.BufferPeriodDuration > MaxBufferPeriodDuration {
		return fmt.Errorf("vault config: %w", errcode.ErrMaxBufferPeriodDuration)
	}
	return nil
}

// AdminActions are the actions granted to configured admins.
func AdminActions(v *Vault) []common.Hash {
	return []common.Hash{
		v.ActionID(ActionSetAuthorizer),
		v.ActionID(ActionSetPaused),
		v.ActionID(ActionReportTrustedOperator),
		v.ActionID(ActionRevokeTrustedOperator),
		FeesActionID(ActionSetSwapFeePercentage),
		FeesActionID(ActionSetFlashLoanFeePercentage),
		FeesActionID(ActionSetFeeRecipient),
	}
}

type configurator struct{}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}
	return VaultPrecompile.vault.Configure(config, state, blockContext.Timestamp())
}

// Configure applies config to state at time now, bypassing the authorizer.
// It is the activation path; entry points never call it.
func (v *Vault) Configure(config *Config, state contract.StateDB, now uint64) error {
	if err := config.Verify(nil); err != nil {
		return err
	}
	if !state.Exist(v.address) {
		state.CreateAccount(v.address)
	}

	s := stateStore{state: state, addr: v.address}
	if config.SwapFeePercentage != nil {
		if err := setSwapFeePercentage(s, uint256.MustFromBig(config.SwapFeePercentage)); err != nil {
			return err
		}
	}
	if config.FlashLoanFeePercentage != nil {
		if err := setFlashLoanFeePercentage(s, uint256.MustFromBig(config.FlashLoanFeePercentage)); err != nil {
			return err
		}
	}
	if config.FeeRecipient != (common.Address{}) {
		setAddress(s, feeRecipientKey, config.FeeRecipient)
	}
	for _, operator := range config.TrustedOperators {
		setBool(s, trustedKey(operator), true)
	}
	if err := configurePause(s, now, config.PauseWindowDuration, config.BufferPeriodDuration); err != nil {
		return err
	}

	if len(config.AdminAddresses) > 0 {
		authorizer := NewRoleAuthorizer(registry.AuthorizerAddress, config.AdminAddresses[0])
		for _, admin := range config.AdminAddresses {
			if err := authorizer.GrantRoles(config.AdminAddresses[0], append([]common.Hash{DefaultAdminRole}, AdminActions(v)...), admin); err != nil {
				return err
			}
		}
		v.mu.Lock()
		v.authorizer = authorizer
		v.mu.Unlock()
	}

	v.log.Info("vault configured",
		"address", v.address,
		"admins", len(config.AdminAddresses),
		"trustedOperators", len(config.TrustedOperators),
		"pauseWindowEnd", now+config.PauseWindowDuration,
	)
	return nil
}
