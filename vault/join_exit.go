// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/balance"
	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

type poolBalanceChangeKind uint8

const (
	joinKind poolBalanceChangeKind = iota
	exitKind
)

func (k poolBalanceChangeKind) String() string {
	if k == joinKind {
		return "join"
	}
	return "exit"
}

// poolBalanceChange is the common shape of joins and exits.
type poolBalanceChange struct {
	assets      []common.Address
	limits      []*uint256.Int
	userData    []byte
	useInternal bool
}

// JoinPool adds liquidity from sender. The pool decides the amounts it
// takes; each must be within MaxAmountsIn. The pool's share tokens, if any,
// are its own business and go to recipient.
func (v *Vault) JoinPool(env contract.AccessibleState, caller common.Address, id PoolID, sender, recipient common.Address, req JoinPoolRequest) error {
	change := poolBalanceChange{
		assets:      req.Assets,
		limits:      req.MaxAmountsIn,
		userData:    req.UserData,
		useInternal: req.FromInternalBalance,
	}
	return v.execute(env, "joinPool", func(tx *txn) error {
		return v.joinOrExit(tx, joinKind, caller, id, sender, recipient, change)
	})
}

// ExitPool removes liquidity to recipient. Each amount the pool releases
// must be at least MinAmountsOut.
func (v *Vault) ExitPool(env contract.AccessibleState, caller common.Address, id PoolID, sender, recipient common.Address, req ExitPoolRequest) error {
	change := poolBalanceChange{
		assets:      req.Assets,
		limits:      req.MinAmountsOut,
		userData:    req.UserData,
		useInternal: req.ToInternalBalance,
	}
	return v.execute(env, "exitPool", func(tx *txn) error {
		return v.joinOrExit(tx, exitKind, caller, id, sender, recipient, change)
	})
}

func (v *Vault) joinOrExit(
	tx *txn,
	kind poolBalanceChangeKind,
	caller common.Address,
	id PoolID,
	sender common.Address,
	recipient common.Address,
	change poolBalanceChange,
) error {
	if err := authenticateFor(tx, sender, caller); err != nil {
		return err
	}
	if err := v.ensureNotPaused(tx); err != nil {
		return err
	}
	if err := ensureRegisteredPool(tx, id); err != nil {
		return err
	}
	if len(change.assets) != len(change.limits) {
		return errcode.ErrInputLengthMismatch
	}

	store := storeFor(id.Specialization())
	tokens, stamped, err := validateTokens(tx, store, id, change.assets)
	if err != nil {
		return err
	}
	totals, lastChangeBlock := balance.TotalsAndLastChangeBlock(stamped)

	pool, err := v.resolvePool(id)
	if err != nil {
		return err
	}
	protocolFee := getUint(tx, swapFeeKey)

	var amounts, dueFees []*uint256.Int
	if kind == joinKind {
		amounts, dueFees, err = pool.OnJoinPool(id, sender, recipient, totals, lastChangeBlock, protocolFee, change.userData)
	} else {
		amounts, dueFees, err = pool.OnExitPool(id, sender, recipient, totals, lastChangeBlock, protocolFee, change.userData)
	}
	if err != nil {
		return fmt.Errorf("pool %s %s: %w", id.Address().Hex(), kind, err)
	}
	if len(amounts) != len(tokens) || len(dueFees) != len(tokens) {
		return errcode.ErrInputLengthMismatch
	}

	deltas := make([]*big.Int, len(tokens))
	fees := make([]*big.Int, len(tokens))
	for i, token := range tokens {
		amount, fee := orZero(amounts[i]), orZero(dueFees[i])
		current := stamped[i].Balance

		var next balance.Balance
		if kind == joinKind {
			if amount.Gt(orZero(change.limits[i])) {
				return fmt.Errorf("%w: %s of %s", errcode.ErrJoinAboveMax, amount.Dec(), token.Hex())
			}
			if err := v.receiveAsset(tx, token, amount, sender, change.useInternal); err != nil {
				return err
			}
			if amount.Lt(fee) {
				next, err = current.DecreaseCash(new(uint256.Int).Sub(fee, amount))
			} else {
				next, err = current.IncreaseCash(new(uint256.Int).Sub(amount, fee))
			}
			deltas[i] = signed(amount)
		} else {
			if amount.Lt(orZero(change.limits[i])) {
				return fmt.Errorf("%w: %s of %s", errcode.ErrExitBelowMin, amount.Dec(), token.Hex())
			}
			if err := v.sendAsset(tx, token, amount, recipient, change.useInternal); err != nil {
				return err
			}
			out, overflow := new(uint256.Int).AddOverflow(amount, fee)
			if overflow {
				return errcode.ErrAddOverflow
			}
			next, err = current.DecreaseCash(out)
			deltas[i] = negated(amount)
		}
		if err != nil {
			return fmt.Errorf("%s balance of %s: %w", kind, token.Hex(), err)
		}
		if err := v.credit(tx, kind.String(), token, fee); err != nil {
			return err
		}
		store.setBalance(tx, id, token, next, tx.block)
		fees[i] = fee.ToBig()
	}

	return tx.emit("PoolBalanceChanged", [32]byte(id), sender, tokens, deltas, fees)
}

// validateTokens checks that assets is exactly the pool's registered token
// list, in order, and returns the current balances.
func validateTokens(s slotStore, store tokenStore, id PoolID, assets []common.Address) ([]common.Address, []balance.Stamped, error) {
	tokens, stamped := store.balances(s, id)
	if len(assets) != len(tokens) {
		return nil, nil, errcode.ErrInputLengthMismatch
	}
	if len(tokens) == 0 {
		return nil, nil, errcode.ErrPoolNoTokens
	}
	for i, token := range tokens {
		if assets[i] != token {
			return nil, nil, fmt.Errorf("%w: position %d is %s, want %s", errcode.ErrTokensMismatch, i, assets[i].Hex(), token.Hex())
		}
	}
	return tokens, stamped, nil
}
