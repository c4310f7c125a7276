// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

var _ contract.StatefulPrecompiledContract = (*Contract)(nil)

// Gas costs for precompile methods
const (
	GasLookup         uint64 = 2_600
	GasPerToken       uint64 = 2_100
	GasSettingsUpdate uint64 = 20_000
	GasRelayerUpdate  uint64 = 22_000
	GasFeeWithdrawal  uint64 = 30_000
)

// Contract exposes a Vault as a stateful precompile. Methods are selected by
// their ABI selector; every call is charged a fixed cost plus, for methods
// taking a token list, a per-token cost.
type Contract struct {
	vault *Vault
}

// NewContract wraps v as a precompile.
func NewContract(v *Vault) *Contract {
	return &Contract{vault: v}
}

// Vault returns the wrapped Vault.
func (c *Contract) Vault() *Vault {
	return c.vault
}

type method struct {
	gas     uint64
	perItem bool
	write   bool
	run     func(c *Contract, env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error)
}

var methods = map[string]method{
	"getPoolTokens":             {gas: GasLookup, run: (*Contract).getPoolTokens},
	"getPoolTokenInfo":          {gas: GasLookup, run: (*Contract).getPoolTokenInfo},
	"getPool":                   {gas: GasLookup, run: (*Contract).getPool},
	"getNextNonce":              {gas: GasLookup, run: (*Contract).getNextNonce},
	"getInternalBalance":        {gas: GasLookup, perItem: true, run: (*Contract).getInternalBalance},
	"hasApprovedRelayer":        {gas: GasLookup, run: (*Contract).hasApprovedRelayer},
	"isTrustedOperator":         {gas: GasLookup, run: (*Contract).isTrustedOperator},
	"setRelayerApproval":        {gas: GasRelayerUpdate, write: true, run: (*Contract).setRelayerApproval},
	"reportTrustedOperator":     {gas: GasSettingsUpdate, write: true, run: (*Contract).reportTrustedOperator},
	"revokeTrustedOperator":     {gas: GasSettingsUpdate, write: true, run: (*Contract).revokeTrustedOperator},
	"getCollectedFeeAmounts":    {gas: GasLookup, perItem: true, run: (*Contract).getCollectedFeeAmounts},
	"getSwapFeePercentage":      {gas: GasLookup, run: (*Contract).getSwapFeePercentage},
	"getFlashLoanFeePercentage": {gas: GasLookup, run: (*Contract).getFlashLoanFeePercentage},
	"setSwapFeePercentage":      {gas: GasSettingsUpdate, write: true, run: (*Contract).setSwapFeePercentage},
	"setFlashLoanFeePercentage": {gas: GasSettingsUpdate, write: true, run: (*Contract).setFlashLoanFeePercentage},
	"getFeeRecipient":           {gas: GasLookup, run: (*Contract).getFeeRecipient},
	"setFeeRecipient":           {gas: GasSettingsUpdate, write: true, run: (*Contract).setFeeRecipient},
	"withdrawCollectedFees":     {gas: GasFeeWithdrawal, perItem: true, write: true, run: (*Contract).withdrawCollectedFees},
	"getPausedState":            {gas: GasLookup, run: (*Contract).getPausedState},
	"setPaused":                 {gas: GasSettingsUpdate, write: true, run: (*Contract).setPaused},
}

// RequiredGas returns the gas charged for input. Unknown selectors cost
// nothing; Run rejects them.
func (c *Contract) RequiredGas(input []byte) uint64 {
	m, _, args, err := c.decode(input)
	if err != nil {
		return 0
	}
	return m.cost(args)
}

func (m method) cost(args []interface{}) uint64 {
	if !m.perItem {
		return m.gas
	}
	for _, arg := range args {
		if tokens, ok := arg.([]common.Address); ok {
			return m.gas + GasPerToken*uint64(len(tokens))
		}
	}
	return m.gas
}

func (c *Contract) decode(input []byte) (method, string, []interface{}, error) {
	abiMethod, err := VaultABI.MethodBySelector(input)
	if err != nil {
		return method{}, "", nil, err
	}
	m, ok := methods[abiMethod.Name]
	if !ok {
		return method{}, "", nil, fmt.Errorf("method %s is not callable", abiMethod.Name)
	}
	args, err := VaultABI.UnpackInput(abiMethod.Name, input[contract.SelectorLen:], false)
	if err != nil {
		return method{}, "", nil, err
	}
	return m, abiMethod.Name, args, nil
}

// Run executes the precompile. Failed calls return Error(string) data
// carrying the BAL#NNN reason.
func (c *Contract) Run(
	accessibleState contract.AccessibleState,
	caller common.Address,
	addr common.Address,
	input []byte,
	suppliedGas uint64,
	readOnly bool,
) (ret []byte, remainingGas uint64, err error) {
	m, name, args, err := c.decode(input)
	if err != nil {
		return nil, suppliedGas, err
	}
	if remainingGas, err = contract.DeductGas(suppliedGas, m.cost(args)); err != nil {
		return nil, 0, err
	}
	if m.write && readOnly {
		return nil, remainingGas, contract.ErrWriteProtection
	}

	out, err := m.run(c, accessibleState, caller, args)
	if err != nil {
		return errcode.RevertData(err), remainingGas, err
	}
	ret, err = VaultABI.PackOutput(name, out...)
	if err != nil {
		return nil, remainingGas, err
	}
	return ret, remainingGas, nil
}

func u256(v *big.Int) *uint256.Int {
	out, _ := uint256.FromBig(v)
	if out == nil {
		return new(uint256.Int)
	}
	return out
}

func bigs(vs []*uint256.Int) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = v.ToBig()
	}
	return out
}

func (c *Contract) getPoolTokens(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	tokens, totals, last, err := c.vault.GetPoolTokens(env, PoolID(args[0].([32]byte)))
	if err != nil {
		return nil, err
	}
	return []interface{}{tokens, bigs(totals), new(big.Int).SetUint64(uint64(last))}, nil
}

func (c *Contract) getPoolTokenInfo(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	info, err := c.vault.GetPoolTokenInfo(env, PoolID(args[0].([32]byte)), args[1].(common.Address))
	if err != nil {
		return nil, err
	}
	return []interface{}{
		info.Cash.ToBig(),
		info.Managed.ToBig(),
		new(big.Int).SetUint64(uint64(info.LastChangeBlock)),
		info.AssetManager,
	}, nil
}

func (c *Contract) getPool(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	addr, specialization, err := c.vault.GetPool(env, PoolID(args[0].([32]byte)))
	if err != nil {
		return nil, err
	}
	return []interface{}{addr, uint8(specialization)}, nil
}

func (c *Contract) getNextNonce(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	nonce := c.vault.GetNextNonce(env, args[0].(common.Address))
	return []interface{}{new(big.Int).SetUint64(nonce)}, nil
}

func (c *Contract) getInternalBalance(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	balances := c.vault.GetInternalBalance(env, args[0].(common.Address), args[1].([]common.Address))
	return []interface{}{bigs(balances)}, nil
}

func (c *Contract) hasApprovedRelayer(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	return []interface{}{c.vault.HasApprovedRelayer(env, args[0].(common.Address), args[1].(common.Address))}, nil
}

func (c *Contract) isTrustedOperator(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	return []interface{}{c.vault.IsTrustedOperator(env, args[0].(common.Address))}, nil
}

func (c *Contract) setRelayerApproval(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.SetRelayerApproval(env, caller, args[0].(common.Address), args[1].(common.Address), args[2].(bool))
}

func (c *Contract) reportTrustedOperator(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.ReportTrustedOperator(env, caller, args[0].(common.Address))
}

func (c *Contract) revokeTrustedOperator(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.RevokeTrustedOperator(env, caller, args[0].(common.Address))
}

func (c *Contract) getCollectedFeeAmounts(env contract.AccessibleState, _ common.Address, args []interface{}) ([]interface{}, error) {
	return []interface{}{bigs(c.vault.GetCollectedFeeAmounts(env, args[0].([]common.Address)))}, nil
}

func (c *Contract) getSwapFeePercentage(env contract.AccessibleState, _ common.Address, _ []interface{}) ([]interface{}, error) {
	return []interface{}{c.vault.GetSwapFeePercentage(env).ToBig()}, nil
}

func (c *Contract) getFlashLoanFeePercentage(env contract.AccessibleState, _ common.Address, _ []interface{}) ([]interface{}, error) {
	return []interface{}{c.vault.GetFlashLoanFeePercentage(env).ToBig()}, nil
}

func (c *Contract) setSwapFeePercentage(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.SetSwapFeePercentage(env, caller, u256(args[0].(*big.Int)))
}

func (c *Contract) setFlashLoanFeePercentage(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.SetFlashLoanFeePercentage(env, caller, u256(args[0].(*big.Int)))
}

func (c *Contract) getFeeRecipient(env contract.AccessibleState, _ common.Address, _ []interface{}) ([]interface{}, error) {
	return []interface{}{c.vault.GetFeeRecipient(env)}, nil
}

func (c *Contract) setFeeRecipient(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.SetFeeRecipient(env, caller, args[0].(common.Address))
}

func (c *Contract) withdrawCollectedFees(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	raw := args[1].([]*big.Int)
	amounts := make([]*uint256.Int, len(raw))
	for i, v := range raw {
		amounts[i] = u256(v)
	}
	return nil, c.vault.WithdrawCollectedFees(env, caller, args[0].([]common.Address), amounts)
}

func (c *Contract) getPausedState(env contract.AccessibleState, _ common.Address, _ []interface{}) ([]interface{}, error) {
	st := c.vault.GetPausedState(env)
	return []interface{}{
		st.Paused,
		new(big.Int).SetUint64(st.PauseWindowEndTime),
		new(big.Int).SetUint64(st.BufferPeriodEndTime),
	}, nil
}

func (c *Contract) setPaused(env contract.AccessibleState, caller common.Address, args []interface{}) ([]interface{}, error) {
	return nil, c.vault.SetPaused(env, caller, args[0].(bool))
}
