// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package contract defines the host surface a stateful precompile runs
// against.
package contract

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/luxfi/geth/core/types"

	"github.com/parsdao/vault/precompileconfig"
)

// StatefulPrecompiledContract is the interface for executing a precompiled
// contract.
type StatefulPrecompiledContract interface {
	// Run executes the precompiled contract.
	Run(
		accessibleState AccessibleState,
		caller common.Address,
		addr common.Address,
		input []byte,
		suppliedGas uint64,
		readOnly bool,
	) (ret []byte, remainingGas uint64, err error)

	// RequiredGas returns the gas charged for input.
	RequiredGas(input []byte) uint64
}

// StateDB is the interface for accessing EVM state.
type StateDB interface {
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash

	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int
	SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int

	GetBalanceMultiCoin(addr common.Address, coinID common.Hash) *big.Int
	AddBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int)
	SubBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int)

	CreateAccount(addr common.Address)
	Exist(addr common.Address) bool

	AddLog(log *types.Log)
	Logs() []*types.Log
	TxHash() common.Hash

	Snapshot() int
	RevertToSnapshot(revid int)
}

// BlockContext exposes the block a call executes in.
type BlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// ConfigurationBlockContext is the block context available when a precompile
// is configured at activation.
type ConfigurationBlockContext interface {
	Number() *big.Int
	Timestamp() uint64
}

// AccessibleState is the state a precompile can reach during Run.
type AccessibleState interface {
	GetStateDB() StateDB
	GetBlockContext() BlockContext
}

// Configurator applies a precompile's config to state at activation.
type Configurator interface {
	MakeConfig() precompileconfig.Config
	Configure(
		chainConfig precompileconfig.ChainConfig,
		cfg precompileconfig.Config,
		state StateDB,
		blockContext ConfigurationBlockContext,
	) error
}
