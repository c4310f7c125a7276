// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/vault/errcode"
)

func TestJoinExit(t *testing.T) {
	for _, spec := range []PoolSpecialization{General, MinimalSwapInfo, TwoToken} {
		t.Run(spec.String(), func(t *testing.T) {
			te := newTestEnv(t)
			var (
				pool *testPool
				id   PoolID
			)
			if spec == General {
				gp := &generalTestPool{}
				pool, id = &gp.testPool, te.registerPool(poolAddrA, spec, gp, dai, mkr)
			} else {
				mp := &minimalTestPool{}
				pool, id = &mp.testPool, te.registerPool(poolAddrA, spec, mp, dai, mkr)
			}
			assets := []common.Address{dai, mkr}

			te.mint(dai, alice, e18(10))
			te.mint(mkr, alice, e18(20))
			pool.join = []*uint256.Int{e18(10), e18(20)}
			require.NoError(t, te.vault.JoinPool(te.env, alice, id, alice, bob, JoinPoolRequest{
				Assets:       assets,
				MaxAmountsIn: []*uint256.Int{e18(10), e18(20)},
			}))
			require.Equal(t, []*uint256.Int{e18(10), e18(20)}, te.totals(id))
			require.True(t, te.balanceOf(dai, alice).IsZero())
			require.Equal(t, []*uint256.Int{new(uint256.Int), new(uint256.Int)}, pool.lastBalances)

			te.env.Advance(12)
			pool.exit = []*uint256.Int{e18(4), e18(5)}
			require.NoError(t, te.vault.ExitPool(te.env, alice, id, alice, bob, ExitPoolRequest{
				Assets:        assets,
				MinAmountsOut: []*uint256.Int{e18(4), e18(5)},
			}))
			require.Equal(t, []*uint256.Int{e18(6), e18(15)}, te.totals(id))
			require.Equal(t, e18(4), te.balanceOf(dai, bob))
			require.Equal(t, e18(5), te.balanceOf(mkr, bob))
			require.Equal(t, []*uint256.Int{e18(10), e18(20)}, pool.lastBalances)
			require.Equal(t, uint32(100), pool.lastChangeBlock)
			require.Equal(t, uint32(101), te.info(id, mkr).LastChangeBlock)
		})
	}
}

func TestJoinExitFailures(t *testing.T) {
	te := newTestEnv(t)
	pool := &minimalTestPool{}
	id := te.registerPool(poolAddrA, MinimalSwapInfo, pool, dai, mkr)
	te.seed(id, &pool.testPool, []common.Address{dai, mkr}, e18(10), e18(10))
	empty, err := te.vault.RegisterPool(te.env, poolAddrB, General)
	require.NoError(t, err)
	te.mint(dai, alice, e18(100))
	te.mint(mkr, alice, e18(100))

	errHook := errors.New("pool refused")
	two := func(a, b int64) []*uint256.Int { return []*uint256.Int{e18(a), e18(b)} }

	tests := []struct {
		name   string
		caller common.Address
		id     PoolID
		join   bool
		assets []common.Address
		limits []*uint256.Int
		setup  func()
		err    error
	}{
		{
			name: "join above max", caller: alice, id: id, join: true,
			assets: []common.Address{dai, mkr}, limits: two(1, 5),
			setup: func() { pool.join = two(1, 6) },
			err:   errcode.ErrJoinAboveMax,
		},
		{
			name: "exit below min", caller: alice, id: id,
			assets: []common.Address{dai, mkr}, limits: two(1, 5),
			setup: func() { pool.exit = two(1, 4) },
			err:   errcode.ErrExitBelowMin,
		},
		{
			name: "exit more than cash", caller: alice, id: id,
			assets: []common.Address{dai, mkr}, limits: two(0, 0),
			setup: func() { pool.exit = two(11, 0) },
			err:   errcode.ErrTransferFailed,
		},
		{
			name: "wrong order", caller: alice, id: id, join: true,
			assets: []common.Address{mkr, dai}, limits: two(1, 1),
			err: errcode.ErrTokensMismatch,
		},
		{
			name: "wrong length", caller: alice, id: id, join: true,
			assets: []common.Address{dai}, limits: two(1, 1)[:1],
			err: errcode.ErrInputLengthMismatch,
		},
		{
			name: "limits length", caller: alice, id: id, join: true,
			assets: []common.Address{dai, mkr}, limits: two(1, 1)[:1],
			err: errcode.ErrInputLengthMismatch,
		},
		{
			name: "no tokens", caller: alice, id: empty, join: true,
			assets: nil, limits: nil,
			err: errcode.ErrPoolNoTokens,
		},
		{
			name: "unknown pool", caller: alice, id: NewPoolID(poolAddrB, TwoToken, 5), join: true,
			assets: []common.Address{dai, mkr}, limits: two(1, 1),
			err: errcode.ErrInvalidPoolID,
		},
		{
			name: "not an operator", caller: bob, id: id, join: true,
			assets: []common.Address{dai, mkr}, limits: two(1, 1),
			err: errcode.ErrSenderNotAllowed,
		},
		{
			name: "short result", caller: alice, id: id, join: true,
			assets: []common.Address{dai, mkr}, limits: two(1, 1),
			setup: func() { pool.join = two(1, 1)[:1] },
			err:   errcode.ErrInputLengthMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool.join, pool.exit, pool.onEnter = nil, nil, nil
			if tt.setup != nil {
				tt.setup()
			}
			if tt.join {
				err = te.vault.JoinPool(te.env, tt.caller, tt.id, alice, alice, JoinPoolRequest{Assets: tt.assets, MaxAmountsIn: tt.limits})
			} else {
				err = te.vault.ExitPool(te.env, tt.caller, tt.id, alice, alice, ExitPoolRequest{Assets: tt.assets, MinAmountsOut: tt.limits})
			}
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, two(10, 10), te.totals(id))
			require.Equal(t, e18(100), te.balanceOf(dai, alice))
		})
	}

	t.Run("pool error", func(t *testing.T) {
		failing := &failingPool{err: errHook}
		te.pools.Register(poolAddrA, failing)
		defer te.pools.Register(poolAddrA, pool)

		err := te.vault.JoinPool(te.env, alice, id, alice, alice, JoinPoolRequest{Assets: []common.Address{dai, mkr}, MaxAmountsIn: two(1, 1)})
		require.ErrorIs(t, err, errHook)
	})
}

type failingPool struct {
	minimalTestPool
	err error
}

func (p *failingPool) OnJoinPool(PoolID, common.Address, common.Address, []*uint256.Int, uint32, *uint256.Int, []byte) ([]*uint256.Int, []*uint256.Int, error) {
	return nil, nil, p.err
}

func TestJoinExitProtocolFees(t *testing.T) {
	te := newTestEnv(t)
	pool := &minimalTestPool{}
	id := te.registerPool(poolAddrA, MinimalSwapInfo, pool, dai, mkr)
	te.seed(id, &pool.testPool, []common.Address{dai, mkr}, e18(10), e18(10))

	pct := uint256.NewInt(1e17)
	require.NoError(t, te.vault.SetSwapFeePercentage(te.env, admin, pct))

	// a join that owes more fee than it brings in draws on cash
	te.mint(dai, alice, e18(3))
	pool.join = []*uint256.Int{e18(3), new(uint256.Int)}
	pool.fees = []*uint256.Int{e18(1), e18(2)}
	require.NoError(t, te.vault.JoinPool(te.env, alice, id, alice, alice, JoinPoolRequest{
		Assets:       []common.Address{dai, mkr},
		MaxAmountsIn: []*uint256.Int{e18(3), new(uint256.Int)},
	}))
	require.Equal(t, pct, pool.lastProtocolFee)
	require.Equal(t, []*uint256.Int{e18(12), e18(8)}, te.totals(id))

	pool.join, pool.exit = nil, []*uint256.Int{e18(2), e18(1)}
	pool.fees = []*uint256.Int{e18(1), new(uint256.Int)}
	require.NoError(t, te.vault.ExitPool(te.env, alice, id, alice, alice, ExitPoolRequest{
		Assets:        []common.Address{dai, mkr},
		MinAmountsOut: []*uint256.Int{new(uint256.Int), new(uint256.Int)},
	}))
	require.Equal(t, []*uint256.Int{e18(9), e18(7)}, te.totals(id))
	require.Equal(t, []*uint256.Int{e18(2), e18(2)}, te.vault.GetCollectedFeeAmounts(te.env, []common.Address{dai, mkr}))

	// custody covers pool cash plus collected fees
	require.Equal(t, e18(11), te.balanceOf(dai, te.vault.Address()))
	require.Equal(t, e18(9), te.balanceOf(mkr, te.vault.Address()))
}

func TestJoinExitInternalBalance(t *testing.T) {
	te := newTestEnv(t)
	pool := &minimalTestPool{}
	id := te.registerPool(poolAddrA, TwoToken, pool, dai, mkr)
	te.mint(dai, alice, e18(5))
	te.mint(mkr, alice, e18(5))
	require.NoError(t, te.vault.ManageUserBalance(te.env, alice, []UserBalanceOp{
		{Kind: DepositInternal, Asset: dai, Amount: e18(5), Sender: alice, Recipient: alice},
	}))

	pool.join = []*uint256.Int{e18(5), e18(5)}
	require.NoError(t, te.vault.JoinPool(te.env, alice, id, alice, alice, JoinPoolRequest{
		Assets:              []common.Address{dai, mkr},
		MaxAmountsIn:        []*uint256.Int{e18(5), e18(5)},
		FromInternalBalance: true,
	}))
	require.True(t, te.vault.GetInternalBalance(te.env, alice, []common.Address{dai})[0].IsZero())
	require.True(t, te.balanceOf(mkr, alice).IsZero())

	pool.exit = []*uint256.Int{e18(2), e18(3)}
	require.NoError(t, te.vault.ExitPool(te.env, alice, id, alice, bob, ExitPoolRequest{
		Assets:            []common.Address{dai, mkr},
		MinAmountsOut:     []*uint256.Int{new(uint256.Int), new(uint256.Int)},
		ToInternalBalance: true,
	}))
	require.Equal(t, []*uint256.Int{e18(2), e18(3)}, te.vault.GetInternalBalance(te.env, bob, []common.Address{dai, mkr}))
	require.True(t, te.balanceOf(dai, bob).IsZero())
	require.Equal(t, []*uint256.Int{e18(3), e18(2)}, te.totals(id))
}
