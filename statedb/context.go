// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package statedb

import (
	"math/big"

	"github.com/parsdao/vault/contract"
)

var (
	_ contract.AccessibleState = (*AccessibleState)(nil)
	_ contract.BlockContext    = (*BlockContext)(nil)
)

// BlockContext is a fixed block number and timestamp.
type BlockContext struct {
	BlockNumber uint64
	Time        uint64
}

func (b *BlockContext) Number() *big.Int {
	return new(big.Int).SetUint64(b.BlockNumber)
}

func (b *BlockContext) Timestamp() uint64 {
	return b.Time
}

// AccessibleState pairs a StateDB with the block it executes in.
type AccessibleState struct {
	State contract.StateDB
	Block *BlockContext
}

// NewAccessibleState returns an AccessibleState at the given block.
func NewAccessibleState(state contract.StateDB, number, timestamp uint64) *AccessibleState {
	return &AccessibleState{
		State: state,
		Block: &BlockContext{BlockNumber: number, Time: timestamp},
	}
}

func (a *AccessibleState) GetStateDB() contract.StateDB {
	return a.State
}

// GetBlockContext returns nil when no block is set.
func (a *AccessibleState) GetBlockContext() contract.BlockContext {
	if a.Block == nil {
		return nil
	}
	return a.Block
}

// Advance moves to the next block, adding seconds to the timestamp.
func (a *AccessibleState) Advance(seconds uint64) {
	a.Block.BlockNumber++
	a.Block.Time += seconds
}
