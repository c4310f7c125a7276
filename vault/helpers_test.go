// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/vault/statedb"
)

var (
	admin   = common.HexToAddress("0xad00000000000000000000000000000000000001")
	alice   = common.HexToAddress("0xa1000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0xb0000000000000000000000000000000000000b0")
	relayer = common.HexToAddress("0x7e1a000000000000000000000000000000000001")
	manager = common.HexToAddress("0x3a3a000000000000000000000000000000000001")

	// sorted: dai < mkr < weth
	dai  = common.HexToAddress("0x1000000000000000000000000000000000000001")
	mkr  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	weth = common.HexToAddress("0x3000000000000000000000000000000000000003")

	poolAddrA = common.HexToAddress("0x9000000000000000000000000000000000000001")
	poolAddrB = common.HexToAddress("0x9000000000000000000000000000000000000002")
)

func e18(n int64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(uint64(n)), uint256.NewInt(1e18))
}

// testPool is a constant-sum pool. Joins and exits take the amounts queued
// in join/exit, running onEnter first; swaps price 1:1 unless quote is set.
type testPool struct {
	join    []*uint256.Int
	exit    []*uint256.Int
	fees    []*uint256.Int
	quote   func(req SwapRequest) (*uint256.Int, error)
	onEnter func() error

	lastBalances    []*uint256.Int
	lastChangeBlock uint32
	lastProtocolFee *uint256.Int
	lastRequest     SwapRequest
}

func (p *testPool) dueFees(n int) []*uint256.Int {
	if p.fees != nil {
		return p.fees
	}
	return zeroAmounts(n)
}

func (p *testPool) OnJoinPool(_ PoolID, _, _ common.Address, balances []*uint256.Int, last uint32, fee *uint256.Int, _ []byte) ([]*uint256.Int, []*uint256.Int, error) {
	p.lastBalances, p.lastChangeBlock, p.lastProtocolFee = balances, last, fee
	if p.onEnter != nil {
		if err := p.onEnter(); err != nil {
			return nil, nil, err
		}
	}
	return p.join, p.dueFees(len(balances)), nil
}

func (p *testPool) OnExitPool(_ PoolID, _, _ common.Address, balances []*uint256.Int, last uint32, fee *uint256.Int, _ []byte) ([]*uint256.Int, []*uint256.Int, error) {
	p.lastBalances, p.lastChangeBlock, p.lastProtocolFee = balances, last, fee
	if p.onEnter != nil {
		if err := p.onEnter(); err != nil {
			return nil, nil, err
		}
	}
	return p.exit, p.dueFees(len(balances)), nil
}

func (p *testPool) calc(req SwapRequest) (*uint256.Int, error) {
	p.lastRequest = req
	if p.quote != nil {
		return p.quote(req)
	}
	return new(uint256.Int).Set(req.Amount), nil
}

type minimalTestPool struct{ testPool }

func (p *minimalTestPool) OnSwap(req SwapRequest, _, _ *uint256.Int) (*uint256.Int, error) {
	return p.calc(req)
}

type generalTestPool struct{ testPool }

func (p *generalTestPool) OnSwap(req SwapRequest, balances []*uint256.Int, _, _ int) (*uint256.Int, error) {
	p.lastBalances = balances
	return p.calc(req)
}

// allowAll lets every account perform every action.
type allowAll struct{}

func (allowAll) CanPerform(common.Hash, common.Address, common.Address) bool { return true }

type testEnv struct {
	t     *testing.T
	state *statedb.StateDB
	env   *statedb.AccessibleState
	vault *Vault
	pools *PoolDirectory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	state := statedb.New(memdb.New(), log.NewNoOpLogger())
	pools := NewPoolDirectory()
	authorizer := NewRoleAuthorizer(common.Address{}, admin)
	v := New(Options{
		Authorizer: authorizer,
		Pools:      pools,
		Logger:     log.NewNoOpLogger(),
	})
	te := &testEnv{
		t:     t,
		state: state,
		env:   statedb.NewAccessibleState(state, 100, 1_000_000),
		vault: v,
		pools: pools,
	}
	require.NoError(t, authorizer.GrantRoles(admin, AdminActions(v), admin))
	require.NoError(t, configurePause(stateStore{state: state, addr: v.Address()}, te.env.Block.Time, 30*24*3600, 30*24*3600))
	return te
}

func (te *testEnv) mint(token, to common.Address, amount *uint256.Int) {
	te.state.AddBalanceMultiCoin(to, CoinID(token), amount.ToBig())
}

func (te *testEnv) balanceOf(token, account common.Address) *uint256.Int {
	return MultiCoinTransferrer{}.BalanceOf(te.state, token, account)
}

// registerPool registers a pool of the given specialization at addr with
// tokens and no asset managers.
func (te *testEnv) registerPool(addr common.Address, specialization PoolSpecialization, pool Pool, tokens ...common.Address) PoolID {
	te.t.Helper()
	te.pools.Register(addr, pool)
	id, err := te.vault.RegisterPool(te.env, addr, specialization)
	require.NoError(te.t, err)
	require.NoError(te.t, te.vault.RegisterTokens(te.env, addr, id, tokens, make([]common.Address, len(tokens))))
	return id
}

// seed joins amounts into the pool from alice, minting them first.
func (te *testEnv) seed(id PoolID, pool *testPool, tokens []common.Address, amounts ...*uint256.Int) {
	te.t.Helper()
	for i, token := range tokens {
		te.mint(token, alice, amounts[i])
	}
	pool.join = amounts
	require.NoError(te.t, te.vault.JoinPool(te.env, alice, id, alice, alice, JoinPoolRequest{
		Assets:       tokens,
		MaxAmountsIn: amounts,
	}))
	pool.join = nil
}

func (te *testEnv) info(id PoolID, token common.Address) PoolTokenInfo {
	te.t.Helper()
	info, err := te.vault.GetPoolTokenInfo(te.env, id, token)
	require.NoError(te.t, err)
	return info
}

func bigs64(vs ...int64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = big.NewInt(v)
	}
	return out
}

// totals returns the total balance of every token of the pool.
func (te *testEnv) totals(id PoolID) []*uint256.Int {
	te.t.Helper()
	_, totals, _, err := te.vault.GetPoolTokens(te.env, id)
	require.NoError(te.t, err)
	return totals
}
