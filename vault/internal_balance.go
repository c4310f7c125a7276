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

func internalKey(user, token common.Address) common.Hash {
	return makeStorageKey(internalPrefix, user[:], token[:])
}

func increaseInternalBalance(tx *txn, user, token common.Address, amount *uint256.Int) error {
	key := internalKey(user, token)
	next, overflow := new(uint256.Int).AddOverflow(getUint(tx, key), amount)
	if overflow {
		return errcode.ErrAddOverflow
	}
	setUint(tx, key, next)
	return tx.emit("InternalBalanceChanged", user, token, signed(amount))
}

// decreaseInternalBalance debits up to amount. Without allowPartial the full
// amount must be available; with it, whatever is available is taken. It
// returns the amount actually debited.
func decreaseInternalBalance(tx *txn, user, token common.Address, amount *uint256.Int, allowPartial bool) (*uint256.Int, error) {
	key := internalKey(user, token)
	current := getUint(tx, key)
	taken := new(uint256.Int).Set(amount)
	if amount.Gt(current) {
		if !allowPartial {
			return nil, fmt.Errorf("%w: %s has %s of %s, needs %s",
				errcode.ErrInsufficientInternalBalance, user.Hex(), current.Dec(), token.Hex(), amount.Dec())
		}
		taken.Set(current)
	}
	setUint(tx, key, new(uint256.Int).Sub(current, taken))
	if !taken.IsZero() {
		if err := tx.emit("InternalBalanceChanged", user, token, negated(taken)); err != nil {
			return nil, err
		}
	}
	return taken, nil
}

// receiveAsset takes amount of token from sender into custody, drawing on
// sender's internal balance first when fromInternal is set.
func (v *Vault) receiveAsset(tx *txn, token common.Address, amount *uint256.Int, sender common.Address, fromInternal bool) error {
	if amount.IsZero() {
		return nil
	}
	remaining := new(uint256.Int).Set(amount)
	if fromInternal {
		taken, err := decreaseInternalBalance(tx, sender, token, amount, true)
		if err != nil {
			return err
		}
		remaining.Sub(remaining, taken)
	}
	if remaining.IsZero() {
		return nil
	}
	return v.pull(tx, token, sender, remaining)
}

// sendAsset pays amount of token to recipient, either as internal balance
// or out of custody.
func (v *Vault) sendAsset(tx *txn, token common.Address, amount *uint256.Int, recipient common.Address, toInternal bool) error {
	if amount.IsZero() {
		return nil
	}
	if toInternal {
		return increaseInternalBalance(tx, recipient, token, amount)
	}
	return v.push(tx, token, recipient, amount)
}

// ManageUserBalance runs deposits, withdrawals and transfers of internal
// balance. Each op's sender must have the caller as an operator. While the
// Vault is paused only withdrawals are allowed.
func (v *Vault) ManageUserBalance(env contract.AccessibleState, caller common.Address, ops []UserBalanceOp) error {
	return v.execute(env, "manageUserBalance", func(tx *txn) error {
		paused := pausedState(tx, tx.time).Paused
		for i, op := range ops {
			if paused && op.Kind != WithdrawInternal {
				return errcode.ErrPaused
			}
			if err := v.manageUserBalance(tx, caller, op); err != nil {
				return fmt.Errorf("op %d: %w", i, err)
			}
		}
		return nil
	})
}

func (v *Vault) manageUserBalance(tx *txn, caller common.Address, op UserBalanceOp) error {
	if err := authenticateFor(tx, op.Sender, caller); err != nil {
		return err
	}
	amount := orZero(op.Amount)

	switch op.Kind {
	case DepositInternal:
		if err := increaseInternalBalance(tx, op.Recipient, op.Asset, amount); err != nil {
			return err
		}
		return v.pull(tx, op.Asset, op.Sender, amount)

	case WithdrawInternal:
		if _, err := decreaseInternalBalance(tx, op.Sender, op.Asset, amount, false); err != nil {
			return err
		}
		return v.push(tx, op.Asset, op.Recipient, amount)

	case TransferInternal:
		if _, err := decreaseInternalBalance(tx, op.Sender, op.Asset, amount, false); err != nil {
			return err
		}
		return increaseInternalBalance(tx, op.Recipient, op.Asset, amount)

	case TransferExternal:
		if err := v.transfers.Transfer(tx.state(), op.Asset, op.Sender, op.Recipient, amount); err != nil {
			return err
		}
		return tx.emit("ExternalBalanceTransfer", op.Asset, op.Sender, op.Recipient, signed(amount))

	default:
		return fmt.Errorf("%w: user balance op %d", errcode.ErrInvalidOperationKind, op.Kind)
	}
}

// GetInternalBalance returns user's internal balance of each token.
func (v *Vault) GetInternalBalance(env contract.AccessibleState, user common.Address, tokens []common.Address) []*uint256.Int {
	s := v.reader(env)
	out := make([]*uint256.Int, len(tokens))
	for i, token := range tokens {
		out[i] = getUint(s, internalKey(user, token))
	}
	return out
}
