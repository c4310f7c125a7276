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

func checkDeadline(tx *txn, deadline uint64) error {
	if deadline != 0 && tx.time > deadline {
		return fmt.Errorf("%w: block time %d past %d", errcode.ErrSwapDeadline, tx.time, deadline)
	}
	return nil
}

// Swap runs a single swap and settles it with funds. For GivenIn, limit is
// the minimum amount out; for GivenOut, the maximum amount in. It returns
// the amount the pool calculated. A zero deadline means none.
func (v *Vault) Swap(
	env contract.AccessibleState,
	caller common.Address,
	single SingleSwap,
	funds FundManagement,
	limit *uint256.Int,
	deadline uint64,
) (*uint256.Int, error) {
	var calculated *uint256.Int
	err := v.execute(env, "swap", func(tx *txn) error {
		if err := checkDeadline(tx, deadline); err != nil {
			return err
		}
		if err := authenticateFor(tx, funds.Sender, caller); err != nil {
			return err
		}
		if err := v.ensureNotPaused(tx); err != nil {
			return err
		}
		amount := orZero(single.Amount)
		if amount.IsZero() {
			return errcode.ErrUnknownAmountInFirstSwap
		}
		if single.AssetIn == single.AssetOut {
			return errcode.ErrCannotSwapSameToken
		}

		req := SwapRequest{
			Kind:     single.Kind,
			TokenIn:  single.AssetIn,
			TokenOut: single.AssetOut,
			Amount:   amount,
			PoolID:   single.PoolID,
			From:     funds.Sender,
			To:       funds.Recipient,
			UserData: single.UserData,
		}
		var (
			amountIn, amountOut *uint256.Int
			err                 error
		)
		calculated, amountIn, amountOut, err = v.swapWithPool(tx, req)
		if err != nil {
			return err
		}

		limit := orZero(limit)
		if single.Kind == GivenIn && amountOut.Lt(limit) {
			return fmt.Errorf("%w: %s out, at least %s wanted", errcode.ErrSwapLimit, amountOut.Dec(), limit.Dec())
		}
		if single.Kind == GivenOut && amountIn.Gt(limit) {
			return fmt.Errorf("%w: %s in, at most %s allowed", errcode.ErrSwapLimit, amountIn.Dec(), limit.Dec())
		}

		if err := v.receiveAsset(tx, single.AssetIn, amountIn, funds.Sender, funds.FromInternalBalance); err != nil {
			return err
		}
		return v.sendAsset(tx, single.AssetOut, amountOut, funds.Recipient, funds.ToInternalBalance)
	})
	if err != nil {
		return nil, err
	}
	return calculated, nil
}

// BatchSwap runs steps in order against their pools and settles the net
// asset deltas once at the end. Positive deltas are owed to the Vault by
// funds.Sender, negative ones are paid to funds.Recipient. Each delta must
// not exceed its limit. It returns the deltas.
func (v *Vault) BatchSwap(
	env contract.AccessibleState,
	caller common.Address,
	kind SwapKind,
	steps []BatchSwapStep,
	assets []common.Address,
	funds FundManagement,
	limits []*big.Int,
	deadline uint64,
) ([]*big.Int, error) {
	var deltas []*big.Int
	err := v.execute(env, "batchSwap", func(tx *txn) error {
		if err := checkDeadline(tx, deadline); err != nil {
			return err
		}
		if err := authenticateFor(tx, funds.Sender, caller); err != nil {
			return err
		}
		if err := v.ensureNotPaused(tx); err != nil {
			return err
		}
		if len(assets) != len(limits) {
			return errcode.ErrInputLengthMismatch
		}

		var err error
		deltas, err = v.swapWithPools(tx, kind, steps, assets, funds)
		if err != nil {
			return err
		}

		for i, asset := range assets {
			delta := deltas[i]
			if limits[i] == nil || delta.Cmp(limits[i]) > 0 {
				return fmt.Errorf("%w: asset %d delta %s over limit %v", errcode.ErrSwapLimit, i, delta, limits[i])
			}
			switch delta.Sign() {
			case 1:
				amount, _ := uint256.FromBig(delta)
				if err := v.receiveAsset(tx, asset, amount, funds.Sender, funds.FromInternalBalance); err != nil {
					return err
				}
			case -1:
				amount, _ := uint256.FromBig(new(big.Int).Neg(delta))
				if err := v.sendAsset(tx, asset, amount, funds.Recipient, funds.ToInternalBalance); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deltas, nil
}

// QueryBatchSwap computes the deltas BatchSwap would produce without
// settling them. Nothing it does is kept: ledger writes stay in a discarded
// txn and host state changed by pools is reverted on return.
func (v *Vault) QueryBatchSwap(
	env contract.AccessibleState,
	kind SwapKind,
	steps []BatchSwapStep,
	assets []common.Address,
	funds FundManagement,
) ([]*big.Int, error) {
	state := env.GetStateDB()
	defer state.RevertToSnapshot(state.Snapshot())

	tx := newTxn(v.reader(env), env, v.address)
	deltas, err := v.swapWithPools(tx, kind, steps, assets, funds)
	if err != nil {
		v.log.Debug("batch swap query failed",
			"steps", len(steps),
			"reason", errcode.Reason(err),
		)
		return nil, err
	}
	return deltas, nil
}

func (v *Vault) swapWithPools(
	tx *txn,
	kind SwapKind,
	steps []BatchSwapStep,
	assets []common.Address,
	funds FundManagement,
) ([]*big.Int, error) {
	deltas := make([]*big.Int, len(assets))
	for i := range deltas {
		deltas[i] = new(big.Int)
	}

	var (
		previousToken  common.Address
		previousAmount = new(uint256.Int)
	)
	for i, step := range steps {
		if step.AssetInIndex < 0 || step.AssetInIndex >= len(assets) ||
			step.AssetOutIndex < 0 || step.AssetOutIndex >= len(assets) {
			return nil, fmt.Errorf("%w: step %d", errcode.ErrOutOfBounds, i)
		}
		tokenIn, tokenOut := assets[step.AssetInIndex], assets[step.AssetOutIndex]
		if tokenIn == tokenOut {
			return nil, fmt.Errorf("%w: step %d", errcode.ErrCannotSwapSameToken, i)
		}

		amount := orZero(step.Amount)
		if amount.IsZero() {
			if i == 0 {
				return nil, errcode.ErrUnknownAmountInFirstSwap
			}
			// a multihop leg chains on the token the previous leg calculated
			given := tokenIn
			if kind == GivenOut {
				given = tokenOut
			}
			if previousToken != given {
				return nil, fmt.Errorf("%w: step %d", errcode.ErrMalconstructedMultihopSwap, i)
			}
			amount = previousAmount
		}

		req := SwapRequest{
			Kind:     kind,
			TokenIn:  tokenIn,
			TokenOut: tokenOut,
			Amount:   amount,
			PoolID:   step.PoolID,
			From:     funds.Sender,
			To:       funds.Recipient,
			UserData: step.UserData,
		}
		calculated, amountIn, amountOut, err := v.swapWithPool(tx, req)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		previousAmount = calculated
		if kind == GivenIn {
			previousToken = tokenOut
		} else {
			previousToken = tokenIn
		}

		deltas[step.AssetInIndex].Add(deltas[step.AssetInIndex], amountIn.ToBig())
		deltas[step.AssetOutIndex].Sub(deltas[step.AssetOutIndex], amountOut.ToBig())
	}
	return deltas, nil
}

// swapWithPool quotes req against its pool and applies the result to the
// pool's balances. It returns the calculated amount and the resulting
// amounts in and out.
func (v *Vault) swapWithPool(tx *txn, req SwapRequest) (calculated, amountIn, amountOut *uint256.Int, err error) {
	if err := ensureRegisteredPool(tx, req.PoolID); err != nil {
		return nil, nil, nil, err
	}
	pool, err := v.resolvePool(req.PoolID)
	if err != nil {
		return nil, nil, nil, err
	}

	specialization := req.PoolID.Specialization()
	if specialization == General {
		calculated, err = v.generalSwap(tx, pool, req)
	} else {
		calculated, err = v.minimalSwap(tx, pool, req)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	if req.Kind == GivenIn {
		amountIn, amountOut = req.Amount, calculated
	} else {
		amountIn, amountOut = calculated, req.Amount
	}
	tx.onCommit(func() { v.metrics.observeSwap(specialization) })
	if err := tx.emit("Swap", [32]byte(req.PoolID), req.TokenIn, req.TokenOut, amountIn.ToBig(), amountOut.ToBig()); err != nil {
		return nil, nil, nil, err
	}
	return calculated, amountIn, amountOut, nil
}

func applySwap(in, out balance.Balance, amountIn, amountOut *uint256.Int) (balance.Balance, balance.Balance, error) {
	nextIn, err := in.IncreaseCash(amountIn)
	if err != nil {
		return in, out, err
	}
	nextOut, err := out.DecreaseCash(amountOut)
	if err != nil {
		return in, out, err
	}
	return nextIn, nextOut, nil
}

func (v *Vault) minimalSwap(tx *txn, pool Pool, req SwapRequest) (*uint256.Int, error) {
	quoter, ok := pool.(MinimalSwapInfoPool)
	if !ok {
		return nil, fmt.Errorf("%w: pool %s cannot quote minimal swaps", errcode.ErrInvalidPoolID, req.PoolID.Address().Hex())
	}
	store := storeFor(req.PoolID.Specialization())
	in, err := poolTokenBalance(tx, req.PoolID, req.TokenIn)
	if err != nil {
		return nil, err
	}
	out, err := poolTokenBalance(tx, req.PoolID, req.TokenOut)
	if err != nil {
		return nil, err
	}

	req.LastChangeBlock = max(in.LastChangeBlock, out.LastChangeBlock)
	calculated, err := quoter.OnSwap(req, in.Total(), out.Total())
	if err != nil {
		return nil, fmt.Errorf("pool %s swap: %w", req.PoolID.Address().Hex(), err)
	}
	calculated = orZero(calculated)

	amountIn, amountOut := req.Amount, calculated
	if req.Kind == GivenOut {
		amountIn, amountOut = calculated, req.Amount
	}
	nextIn, nextOut, err := applySwap(in.Balance, out.Balance, amountIn, amountOut)
	if err != nil {
		return nil, err
	}
	store.setBalance(tx, req.PoolID, req.TokenIn, nextIn, tx.block)
	store.setBalance(tx, req.PoolID, req.TokenOut, nextOut, tx.block)
	return calculated, nil
}

func (v *Vault) generalSwap(tx *txn, pool Pool, req SwapRequest) (*uint256.Int, error) {
	quoter, ok := pool.(GeneralPool)
	if !ok {
		return nil, fmt.Errorf("%w: pool %s cannot quote general swaps", errcode.ErrInvalidPoolID, req.PoolID.Address().Hex())
	}
	tokens, stamped := generalStore.balances(tx, req.PoolID)
	indexIn, indexOut := -1, -1
	for i, token := range tokens {
		switch token {
		case req.TokenIn:
			indexIn = i
		case req.TokenOut:
			indexOut = i
		}
	}
	if indexIn < 0 {
		return nil, fmt.Errorf("%w: %s", errcode.ErrTokenNotRegistered, req.TokenIn.Hex())
	}
	if indexOut < 0 {
		return nil, fmt.Errorf("%w: %s", errcode.ErrTokenNotRegistered, req.TokenOut.Hex())
	}

	totals, last := balance.TotalsAndLastChangeBlock(stamped)
	req.LastChangeBlock = last
	calculated, err := quoter.OnSwap(req, totals, indexIn, indexOut)
	if err != nil {
		return nil, fmt.Errorf("pool %s swap: %w", req.PoolID.Address().Hex(), err)
	}
	calculated = orZero(calculated)

	amountIn, amountOut := req.Amount, calculated
	if req.Kind == GivenOut {
		amountIn, amountOut = calculated, req.Amount
	}
	nextIn, nextOut, err := applySwap(stamped[indexIn].Balance, stamped[indexOut].Balance, amountIn, amountOut)
	if err != nil {
		return nil, err
	}
	generalStore.setBalance(tx, req.PoolID, req.TokenIn, nextIn, tx.block)
	generalStore.setBalance(tx, req.PoolID, req.TokenOut, nextOut, tx.block)
	return calculated, nil
}
