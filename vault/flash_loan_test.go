// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

var borrowerAddr = common.HexToAddress("0xf1a5000000000000000000000000000000000001")

// borrower repays each loan plus its fee plus extra, unless repay says
// otherwise.
type borrower struct {
	vault   *Vault
	extra   *uint256.Int
	repay   func(env contract.AccessibleState, token common.Address, amount, fee *uint256.Int) *uint256.Int
	during  func(env contract.AccessibleState) error
	gotFees []*uint256.Int
}

func (b *borrower) Address() common.Address { return borrowerAddr }

func (b *borrower) ReceiveFlashLoan(env contract.AccessibleState, tokens []common.Address, amounts, fees []*uint256.Int, _ []byte) error {
	b.gotFees = fees
	if b.during != nil {
		if err := b.during(env); err != nil {
			return err
		}
	}
	for i, token := range tokens {
		owed := new(uint256.Int).Add(amounts[i], fees[i])
		if b.extra != nil {
			owed.Add(owed, b.extra)
		}
		if b.repay != nil {
			owed = b.repay(env, token, amounts[i], fees[i])
		}
		if err := (MultiCoinTransferrer{}).Transfer(env.GetStateDB(), token, borrowerAddr, b.vault.Address(), owed); err != nil {
			return err
		}
	}
	return nil
}

// lendingVault seeds custody with 100 DAI and 100 MKR of pool cash and
// gives the borrower 10 of each to pay fees with.
func lendingVault(t *testing.T, pct uint64) *testEnv {
	te := newTestEnv(t)
	pool := &minimalTestPool{}
	id := te.registerPool(poolAddrA, MinimalSwapInfo, pool, dai, mkr)
	te.seed(id, &pool.testPool, []common.Address{dai, mkr}, e18(100), e18(100))
	te.mint(dai, borrowerAddr, e18(10))
	te.mint(mkr, borrowerAddr, e18(10))
	require.NoError(t, te.vault.SetFlashLoanFeePercentage(te.env, admin, uint256.NewInt(pct)))
	return te
}

func TestFlashLoan(t *testing.T) {
	te := lendingVault(t, 5e15) // 0.5%
	b := &borrower{vault: te.vault}

	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{dai, mkr}, []*uint256.Int{e18(100), e18(10)}, nil))
	require.Equal(t, []*uint256.Int{uint256.NewInt(5e17), uint256.NewInt(5e16)}, b.gotFees)
	require.Equal(t, []*uint256.Int{uint256.NewInt(5e17), uint256.NewInt(5e16)},
		te.vault.GetCollectedFeeAmounts(te.env, []common.Address{dai, mkr}))
	require.Equal(t, []*uint256.Int{e18(100), e18(100)}, te.totals(NewPoolID(poolAddrA, MinimalSwapInfo, 0)))
}

func TestFlashLoanFeeRounding(t *testing.T) {
	te := lendingVault(t, 1e16)
	b := &borrower{vault: te.vault}

	// one wei borrowed still costs one wei
	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{dai}, []*uint256.Int{uint256.NewInt(1)}, nil))
	require.Equal(t, uint256.NewInt(1), b.gotFees[0])

	// amounts that divide exactly are not rounded
	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{dai}, []*uint256.Int{uint256.NewInt(100)}, nil))
	require.Equal(t, uint256.NewInt(1), b.gotFees[0])
	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{dai}, []*uint256.Int{uint256.NewInt(101)}, nil))
	require.Equal(t, uint256.NewInt(2), b.gotFees[0])

	// zero amounts are free
	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{dai}, []*uint256.Int{new(uint256.Int)}, nil))
	require.True(t, b.gotFees[0].IsZero())
}

func TestFlashLoanCreditsOverpayment(t *testing.T) {
	te := lendingVault(t, 0)
	b := &borrower{vault: te.vault, extra: uint256.NewInt(7)}

	id := NewPoolID(poolAddrA, MinimalSwapInfo, 0)
	logs := len(te.state.Logs())

	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{mkr}, []*uint256.Int{e18(1)}, nil))
	require.True(t, b.gotFees[0].IsZero())

	// everything above the pre-loan balance is fee, none of it is pool cash
	require.Equal(t, uint256.NewInt(7), te.vault.GetCollectedFeeAmounts(te.env, []common.Address{mkr})[0])
	require.Equal(t, e18(100), te.info(id, mkr).Cash)
	require.Equal(t, new(uint256.Int).AddUint64(e18(100), 7), te.balanceOf(mkr, te.vault.Address()))
	require.Equal(t, new(uint256.Int).SubUint64(e18(10), 7), te.balanceOf(mkr, borrowerAddr))

	emitted := te.state.Logs()[logs:]
	require.Len(t, emitted, 1)
	require.Equal(t, VaultABI.Events["FlashLoan"].ID, emitted[0].Topics[0])
	require.Equal(t, common.BytesToHash(borrowerAddr.Bytes()), emitted[0].Topics[1])
	require.Equal(t, common.BytesToHash(mkr.Bytes()), emitted[0].Topics[2])
	out, err := VaultABI.Unpack("FlashLoan", emitted[0].Data)
	require.NoError(t, err)
	require.Equal(t, e18(1).ToBig(), out[0])
	require.Equal(t, big.NewInt(7), out[1])
}

func TestFlashLoanFailures(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []common.Address
		amounts []*uint256.Int
		b       func(v *Vault) *borrower
		err     error
	}{
		{
			name:    "more than held",
			tokens:  []common.Address{dai},
			amounts: []*uint256.Int{new(uint256.Int).AddUint64(e18(100), 1)},
			err:     errcode.ErrInsufficientFlashLoanBalance,
		},
		{
			name:    "unsorted",
			tokens:  []common.Address{mkr, dai},
			amounts: []*uint256.Int{e18(1), e18(1)},
			err:     errcode.ErrUnsortedTokens,
		},
		{
			name:    "duplicate",
			tokens:  []common.Address{dai, dai},
			amounts: []*uint256.Int{e18(1), e18(1)},
			err:     errcode.ErrUnsortedTokens,
		},
		{
			name:    "zero token",
			tokens:  []common.Address{{}},
			amounts: []*uint256.Int{e18(1)},
			err:     errcode.ErrZeroToken,
		},
		{
			name:    "length mismatch",
			tokens:  []common.Address{dai, mkr},
			amounts: []*uint256.Int{e18(1)},
			err:     errcode.ErrInputLengthMismatch,
		},
		{
			name:    "fee unpaid",
			tokens:  []common.Address{dai},
			amounts: []*uint256.Int{e18(10)},
			b: func(v *Vault) *borrower {
				return &borrower{vault: v, repay: func(_ contract.AccessibleState, _ common.Address, amount, _ *uint256.Int) *uint256.Int {
					return amount
				}}
			},
			err: errcode.ErrInsufficientFlashLoanFee,
		},
		{
			name:    "principal kept",
			tokens:  []common.Address{dai},
			amounts: []*uint256.Int{e18(10)},
			b: func(v *Vault) *borrower {
				return &borrower{vault: v, repay: func(_ contract.AccessibleState, _ common.Address, amount, _ *uint256.Int) *uint256.Int {
					return new(uint256.Int).SubUint64(amount, 1)
				}}
			},
			err: errcode.ErrInvalidPostLoanBalance,
		},
		{
			name:    "reentry",
			tokens:  []common.Address{dai},
			amounts: []*uint256.Int{e18(10)},
			b: func(v *Vault) *borrower {
				return &borrower{vault: v, during: func(env contract.AccessibleState) error {
					return v.ManageUserBalance(env, borrowerAddr, []UserBalanceOp{
						{Kind: DepositInternal, Asset: dai, Amount: e18(1), Sender: borrowerAddr, Recipient: borrowerAddr},
					})
				}}
			},
			err: errcode.ErrReentrancy,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := lendingVault(t, 1e16)
			b := &borrower{vault: te.vault}
			if tt.b != nil {
				b = tt.b(te.vault)
			}

			err := te.vault.FlashLoan(te.env, alice, b, tt.tokens, tt.amounts, nil)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, e18(100), te.balanceOf(dai, te.vault.Address()))
			require.Equal(t, e18(10), te.balanceOf(dai, borrowerAddr))
			require.True(t, te.vault.GetCollectedFeeAmounts(te.env, []common.Address{dai})[0].IsZero())
		})
	}
}

func TestFlashLoanReadsDuringCallback(t *testing.T) {
	te := lendingVault(t, 0)
	id := NewPoolID(poolAddrA, MinimalSwapInfo, 0)
	var seen []*uint256.Int
	b := &borrower{vault: te.vault, during: func(env contract.AccessibleState) error {
		seen = te.totals(id)
		return nil
	}}

	require.NoError(t, te.vault.FlashLoan(te.env, alice, b, []common.Address{dai}, []*uint256.Int{e18(50)}, nil))
	// pool accounting is untouched by lending out custody
	require.Equal(t, []*uint256.Int{e18(100), e18(100)}, seen)
}

func TestFlashLoanWhilePaused(t *testing.T) {
	te := lendingVault(t, 0)
	require.NoError(t, te.vault.SetPaused(te.env, admin, true))

	err := te.vault.FlashLoan(te.env, alice, &borrower{vault: te.vault}, []common.Address{dai}, []*uint256.Int{e18(1)}, nil)
	require.ErrorIs(t, err, errcode.ErrPaused)
}
