// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

// SetAssetManager assigns the manager of a pool token. A manager is set at
// most once: setting the same address again is a no-op, a different one
// fails.
func (v *Vault) SetAssetManager(env contract.AccessibleState, caller common.Address, id PoolID, token, manager common.Address) error {
	return v.execute(env, "setAssetManager", func(tx *txn) error {
		if err := ensurePoolCaller(tx, id, caller); err != nil {
			return err
		}
		if _, err := poolTokenBalance(tx, id, token); err != nil {
			return err
		}
		current := getAddress(tx, managerKey(id, token))
		switch current {
		case manager:
			return nil
		case common.Address{}:
			setAddress(tx, managerKey(id, token), manager)
			return tx.emit("AssetManagerSet", [32]byte(id), token, manager)
		default:
			return errcode.ErrCannotResetAssetManager
		}
	})
}

// ManagePoolBalance runs asset manager operations. The caller must be the
// manager of every (pool, token) it names.
func (v *Vault) ManagePoolBalance(env contract.AccessibleState, caller common.Address, ops []PoolBalanceOp) error {
	return v.execute(env, "managePoolBalance", func(tx *txn) error {
		for i, op := range ops {
			if err := v.managePoolBalance(tx, caller, op); err != nil {
				return fmt.Errorf("op %d: %w", i, err)
			}
		}
		return nil
	})
}

func (v *Vault) managePoolBalance(tx *txn, caller common.Address, op PoolBalanceOp) error {
	if err := ensureRegisteredPool(tx, op.PoolID); err != nil {
		return err
	}
	current, err := poolTokenBalance(tx, op.PoolID, op.Token)
	if err != nil {
		return err
	}
	if getAddress(tx, managerKey(op.PoolID, op.Token)) != caller {
		return errcode.ErrSenderNotAssetManager
	}

	amount := orZero(op.Amount)
	store := storeFor(op.PoolID.Specialization())
	var cashDelta, managedDelta *big.Int

	switch op.Kind {
	case Withdraw:
		next, err := current.CashToManaged(amount)
		if err != nil {
			return err
		}
		store.setBalance(tx, op.PoolID, op.Token, next, current.LastChangeBlock)
		if err := v.push(tx, op.Token, caller, amount); err != nil {
			return err
		}
		cashDelta, managedDelta = negated(amount), signed(amount)

	case Deposit:
		next, err := current.ManagedToCash(amount)
		if err != nil {
			return err
		}
		store.setBalance(tx, op.PoolID, op.Token, next, current.LastChangeBlock)
		if err := v.pull(tx, op.Token, caller, amount); err != nil {
			return err
		}
		cashDelta, managedDelta = signed(amount), negated(amount)

	case Update:
		next, err := current.SetManaged(amount)
		if err != nil {
			return err
		}
		store.setBalance(tx, op.PoolID, op.Token, next, tx.block)
		cashDelta = new(big.Int)
		managedDelta = new(big.Int).Sub(amount.ToBig(), current.Managed().ToBig())

	default:
		return fmt.Errorf("%w: pool balance op %d", errcode.ErrInvalidOperationKind, op.Kind)
	}

	return tx.emit("PoolBalanceManaged", [32]byte(op.PoolID), caller, op.Token, cashDelta, managedDelta)
}
