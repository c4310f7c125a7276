// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"bytes"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

// FlashLoanRecipient receives a flash loan. By the time ReceiveFlashLoan
// returns it must have returned every amount plus its fee to the Vault.
type FlashLoanRecipient interface {
	Address() common.Address
	ReceiveFlashLoan(env contract.AccessibleState, tokens []common.Address, amounts, feeAmounts []*uint256.Int, userData []byte) error
}

// FlashLoan lends amounts of tokens out of custody to recipient for the
// duration of its callback. tokens must be sorted and unique.
func (v *Vault) FlashLoan(
	env contract.AccessibleState,
	caller common.Address,
	recipient FlashLoanRecipient,
	tokens []common.Address,
	amounts []*uint256.Int,
	userData []byte,
) error {
	return v.execute(env, "flashLoan", func(tx *txn) error {
		if err := v.ensureNotPaused(tx); err != nil {
			return err
		}
		if len(tokens) != len(amounts) {
			return errcode.ErrInputLengthMismatch
		}

		state := tx.state()
		pct := getUint(tx, flashLoanFeeKey)
		to := recipient.Address()
		fees := make([]*uint256.Int, len(tokens))
		pre := make([]*uint256.Int, len(tokens))

		var previous common.Address
		for i, token := range tokens {
			if token == (common.Address{}) {
				return errcode.ErrZeroToken
			}
			if i > 0 && bytes.Compare(previous[:], token[:]) >= 0 {
				return errcode.ErrUnsortedTokens
			}
			previous = token

			amount := orZero(amounts[i])
			pre[i] = v.transfers.BalanceOf(state, token, v.address)
			if amount.Gt(pre[i]) {
				return fmt.Errorf("%w: %s of %s held, %s requested",
					errcode.ErrInsufficientFlashLoanBalance, pre[i].Dec(), token.Hex(), amount.Dec())
			}
			fee, err := mulUp(amount, pct)
			if err != nil {
				return err
			}
			fees[i] = fee
			if err := v.push(tx, token, to, amount); err != nil {
				return err
			}
		}

		if err := recipient.ReceiveFlashLoan(env, tokens, amounts, fees, userData); err != nil {
			return fmt.Errorf("flash loan recipient %s: %w", to.Hex(), err)
		}

		for i, token := range tokens {
			post := v.transfers.BalanceOf(state, token, v.address)
			if post.Lt(pre[i]) {
				return fmt.Errorf("%w: %s of %s", errcode.ErrInvalidPostLoanBalance, post.Dec(), token.Hex())
			}
			received := new(uint256.Int).Sub(post, pre[i])
			if received.Lt(fees[i]) {
				return fmt.Errorf("%w: %s of %s returned, fee is %s",
					errcode.ErrInsufficientFlashLoanFee, received.Dec(), token.Hex(), fees[i].Dec())
			}
			if err := v.credit(tx, "flash_loan", token, received); err != nil {
				return err
			}
			if err := tx.emit("FlashLoan", to, token, orZero(amounts[i]).ToBig(), received.ToBig()); err != nil {
				return err
			}
		}
		tx.onCommit(func() { v.metrics.observeFlashLoan(len(tokens)) })
		return nil
	})
}
