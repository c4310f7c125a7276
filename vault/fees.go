// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
	"github.com/parsdao/vault/registry"
)

// Fee percentages are fixed point with 18 decimals.
var (
	One                       = uint256.NewInt(1e18)
	MaxSwapFeePercentage      = uint256.NewInt(50e16) // 50%
	MaxFlashLoanFeePercentage = uint256.NewInt(1e16)  // 1%
)

func collectedFeeKey(token common.Address) common.Hash {
	return makeStorageKey(collectedFeePrefix, token[:])
}

// mulUp returns ceil(a * pct / 1e18).
func mulUp(a, pct *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, pct)
	if overflow {
		return nil, errcode.ErrMulOverflow
	}
	if product.IsZero() {
		return product, nil
	}
	product.SubUint64(product, 1)
	product.Div(product, One)
	return product.AddUint64(product, 1), nil
}

func setSwapFeePercentage(s slotStore, pct *uint256.Int) error {
	if pct.Gt(MaxSwapFeePercentage) {
		return errcode.ErrSwapFeePercentageTooHigh
	}
	setUint(s, swapFeeKey, pct)
	return nil
}

func setFlashLoanFeePercentage(s slotStore, pct *uint256.Int) error {
	if pct.Gt(MaxFlashLoanFeePercentage) {
		return errcode.ErrFlashLoanFeePercentageTooHigh
	}
	setUint(s, flashLoanFeeKey, pct)
	return nil
}

// credit adds amount of token to the protocol's collected fees. source
// labels the charge in metrics.
func (v *Vault) credit(tx *txn, source string, token common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	key := collectedFeeKey(token)
	next, overflow := new(uint256.Int).AddOverflow(getUint(tx, key), amount)
	if overflow {
		return errcode.ErrAddOverflow
	}
	setUint(tx, key, next)
	tx.onCommit(func() { v.metrics.observeFee(source) })
	return nil
}

// GetSwapFeePercentage returns the protocol's share of pool swap fees.
func (v *Vault) GetSwapFeePercentage(env contract.AccessibleState) *uint256.Int {
	return getUint(v.reader(env), swapFeeKey)
}

// GetFlashLoanFeePercentage returns the flash loan fee rate.
func (v *Vault) GetFlashLoanFeePercentage(env contract.AccessibleState) *uint256.Int {
	return getUint(v.reader(env), flashLoanFeeKey)
}

// GetFeeRecipient returns where collected fees are withdrawn to.
func (v *Vault) GetFeeRecipient(env contract.AccessibleState) common.Address {
	return getAddress(v.reader(env), feeRecipientKey)
}

// GetCollectedFeeAmounts returns the fees held for each token.
func (v *Vault) GetCollectedFeeAmounts(env contract.AccessibleState, tokens []common.Address) []*uint256.Int {
	s := v.reader(env)
	out := make([]*uint256.Int, len(tokens))
	for i, token := range tokens {
		out[i] = getUint(s, collectedFeeKey(token))
	}
	return out
}

func (v *Vault) SetSwapFeePercentage(env contract.AccessibleState, caller common.Address, pct *uint256.Int) error {
	return v.execute(env, "setSwapFeePercentage", func(tx *txn) error {
		if err := v.authenticate(caller, registry.ProtocolFeesCollectorAddress, ActionSetSwapFeePercentage); err != nil {
			return err
		}
		pct = orZero(pct)
		if err := setSwapFeePercentage(tx, pct); err != nil {
			return err
		}
		return tx.emit("SwapFeePercentageChanged", pct.ToBig())
	})
}

func (v *Vault) SetFlashLoanFeePercentage(env contract.AccessibleState, caller common.Address, pct *uint256.Int) error {
	return v.execute(env, "setFlashLoanFeePercentage", func(tx *txn) error {
		if err := v.authenticate(caller, registry.ProtocolFeesCollectorAddress, ActionSetFlashLoanFeePercentage); err != nil {
			return err
		}
		pct = orZero(pct)
		if err := setFlashLoanFeePercentage(tx, pct); err != nil {
			return err
		}
		return tx.emit("FlashLoanFeePercentageChanged", pct.ToBig())
	})
}

func (v *Vault) SetFeeRecipient(env contract.AccessibleState, caller, recipient common.Address) error {
	return v.execute(env, "setFeeRecipient", func(tx *txn) error {
		if err := v.authenticate(caller, registry.ProtocolFeesCollectorAddress, ActionSetFeeRecipient); err != nil {
			return err
		}
		setAddress(tx, feeRecipientKey, recipient)
		return tx.emit("FeeRecipientChanged", recipient)
	})
}

// WithdrawCollectedFees sends collected fees to the fee recipient. Anyone
// may trigger it; the destination is fixed by configuration.
func (v *Vault) WithdrawCollectedFees(env contract.AccessibleState, caller common.Address, tokens []common.Address, amounts []*uint256.Int) error {
	return v.execute(env, "withdrawCollectedFees", func(tx *txn) error {
		if len(tokens) != len(amounts) {
			return errcode.ErrInputLengthMismatch
		}
		recipient := getAddress(tx, feeRecipientKey)
		if recipient == (common.Address{}) {
			return errcode.ErrFeeRecipientNotSet
		}
		for i, token := range tokens {
			amount := orZero(amounts[i])
			key := collectedFeeKey(token)
			held := getUint(tx, key)
			if amount.Gt(held) {
				return fmt.Errorf("%w: %s of %s held, %s requested",
					errcode.ErrInsufficientCollectedFees, held.Dec(), token.Hex(), amount.Dec())
			}
			setUint(tx, key, new(uint256.Int).Sub(held, amount))
			if err := v.push(tx, token, recipient, amount); err != nil {
				return err
			}
			if err := tx.emit("ProtocolFeesWithdrawn", token, recipient, amount.ToBig()); err != nil {
				return err
			}
		}
		return nil
	})
}
