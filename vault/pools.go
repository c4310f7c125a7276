// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/errcode"
)

// Pool is the join and exit surface every pool implements. The Vault calls
// it with the pool's current totals; the pool answers with the amounts to
// move and the protocol fees it owes.
type Pool interface {
	OnJoinPool(
		poolID PoolID,
		sender common.Address,
		recipient common.Address,
		balances []*uint256.Int,
		lastChangeBlock uint32,
		protocolSwapFeePercentage *uint256.Int,
		userData []byte,
	) (amountsIn []*uint256.Int, dueProtocolFeeAmounts []*uint256.Int, err error)

	OnExitPool(
		poolID PoolID,
		sender common.Address,
		recipient common.Address,
		balances []*uint256.Int,
		lastChangeBlock uint32,
		protocolSwapFeePercentage *uint256.Int,
		userData []byte,
	) (amountsOut []*uint256.Int, dueProtocolFeeAmounts []*uint256.Int, err error)
}

// MinimalSwapInfoPool quotes swaps from the two balances involved. Pools
// with the MinimalSwapInfo or TwoToken specialization implement it.
type MinimalSwapInfoPool interface {
	Pool
	OnSwap(request SwapRequest, balanceTokenIn, balanceTokenOut *uint256.Int) (*uint256.Int, error)
}

// GeneralPool quotes swaps from the balances of every token of the pool.
type GeneralPool interface {
	Pool
	OnSwap(request SwapRequest, balances []*uint256.Int, indexIn, indexOut int) (*uint256.Int, error)
}

// PoolResolver finds the implementation behind a pool address.
type PoolResolver interface {
	Pool(addr common.Address) (Pool, bool)
}

// PoolDirectory is an in-memory PoolResolver.
type PoolDirectory struct {
	mu    sync.RWMutex
	pools map[common.Address]Pool
}

// NewPoolDirectory returns an empty directory.
func NewPoolDirectory() *PoolDirectory {
	return &PoolDirectory{pools: make(map[common.Address]Pool)}
}

// Register binds addr to pool, replacing any previous binding.
func (d *PoolDirectory) Register(addr common.Address, pool Pool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pools[addr] = pool
}

func (d *PoolDirectory) Pool(addr common.Address) (Pool, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.pools[addr]
	return p, ok
}

func (v *Vault) resolvePool(id PoolID) (Pool, error) {
	p, ok := v.pools.Pool(id.Address())
	if !ok {
		return nil, fmt.Errorf("%w: no implementation for pool %s", errcode.ErrInvalidPoolID, id.Address().Hex())
	}
	return p, nil
}
