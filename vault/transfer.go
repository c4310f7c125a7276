// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

// TokenTransferrer moves real tokens. Transfer must fail rather than move
// less than amount.
type TokenTransferrer interface {
	BalanceOf(state contract.StateDB, token, account common.Address) *uint256.Int
	Transfer(state contract.StateDB, token, from, to common.Address, amount *uint256.Int) error
}

// MultiCoinTransferrer keeps token balances as StateDB multi-coin balances,
// the coin ID being the token address. Transfers are journaled with the rest
// of the state and revert with it.
type MultiCoinTransferrer struct{}

// CoinID maps a token address to its multi-coin ID.
func CoinID(token common.Address) common.Hash {
	return common.BytesToHash(token.Bytes())
}

func (MultiCoinTransferrer) BalanceOf(state contract.StateDB, token, account common.Address) *uint256.Int {
	bal, overflow := uint256.FromBig(state.GetBalanceMultiCoin(account, CoinID(token)))
	if overflow || bal == nil {
		return new(uint256.Int)
	}
	return bal
}

func (t MultiCoinTransferrer) Transfer(state contract.StateDB, token, from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if t.BalanceOf(state, token, from).Lt(amount) {
		return fmt.Errorf("%w: %s holds less than %s of %s", errcode.ErrTransferFailed, from.Hex(), amount.Dec(), token.Hex())
	}
	value := amount.ToBig()
	state.SubBalanceMultiCoin(from, CoinID(token), value)
	state.AddBalanceMultiCoin(to, CoinID(token), value)
	return nil
}

// pull moves amount of token from account into vault custody.
func (v *Vault) pull(tx *txn, token, from common.Address, amount *uint256.Int) error {
	return v.transfers.Transfer(tx.state(), token, from, v.address, amount)
}

// push moves amount of token out of vault custody.
func (v *Vault) push(tx *txn, token, to common.Address, amount *uint256.Int) error {
	return v.transfers.Transfer(tx.state(), token, v.address, to, amount)
}
