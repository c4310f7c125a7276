// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vault implements the Vault: a single ledger holding the token
// balances of every registered pool and the internal balances of users, and
// settling joins, exits, batched swaps and flash loans against them as
// all-or-nothing operations.
package vault

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// PoolSpecialization selects the storage layout of a pool's tokens.
type PoolSpecialization uint8

const (
	// General pools keep an enumerable map of token to balance. Swaps
	// receive the balances of every token.
	General PoolSpecialization = iota
	// MinimalSwapInfo pools keep a token set plus a token to balance map.
	// Swaps receive only the two balances involved.
	MinimalSwapInfo
	// TwoToken pools hold exactly two tokens whose balances share storage
	// and a change block.
	TwoToken
)

func (s PoolSpecialization) String() string {
	switch s {
	case General:
		return "GENERAL"
	case MinimalSwapInfo:
		return "MINIMAL_SWAP_INFO"
	case TwoToken:
		return "TWO_TOKEN"
	default:
		return fmt.Sprintf("SPECIALIZATION(%d)", uint8(s))
	}
}

func (s PoolSpecialization) valid() bool {
	return s <= TwoToken
}

// PoolID identifies a pool: address(20) | specialization(2) | nonce(10).
type PoolID [32]byte

// NewPoolID builds the ID of the nonce-th pool registered by addr.
func NewPoolID(addr common.Address, specialization PoolSpecialization, nonce uint64) PoolID {
	var id PoolID
	copy(id[:20], addr[:])
	binary.BigEndian.PutUint16(id[20:22], uint16(specialization))
	binary.BigEndian.PutUint64(id[24:32], nonce)
	return id
}

// Address returns the pool contract address encoded in the ID.
func (id PoolID) Address() common.Address {
	return common.BytesToAddress(id[:20])
}

// Specialization returns the specialization encoded in the ID.
func (id PoolID) Specialization() PoolSpecialization {
	return PoolSpecialization(binary.BigEndian.Uint16(id[20:22]))
}

// Nonce returns the creator-scoped sequence number encoded in the ID.
func (id PoolID) Nonce() uint64 {
	return binary.BigEndian.Uint64(id[24:32])
}

func (id PoolID) Hex() string {
	return common.Hash(id).Hex()
}

// SwapKind says which side of a swap the caller fixes.
type SwapKind uint8

const (
	// GivenIn fixes the amount sent to the pool; the pool computes the
	// amount out.
	GivenIn SwapKind = iota
	// GivenOut fixes the amount taken from the pool; the pool computes the
	// amount in.
	GivenOut
)

// SwapRequest is what a pool is asked to quote.
type SwapRequest struct {
	Kind            SwapKind
	TokenIn         common.Address
	TokenOut        common.Address
	Amount          *uint256.Int
	PoolID          PoolID
	LastChangeBlock uint32
	From            common.Address
	To              common.Address
	UserData        []byte
}

// SingleSwap is one swap against one pool.
type SingleSwap struct {
	PoolID   PoolID
	Kind     SwapKind
	AssetIn  common.Address
	AssetOut common.Address
	Amount   *uint256.Int
	UserData []byte
}

// BatchSwapStep is one leg of a batch swap. A zero Amount takes the amount
// computed by the previous leg.
type BatchSwapStep struct {
	PoolID        PoolID
	AssetInIndex  int
	AssetOutIndex int
	Amount        *uint256.Int
	UserData      []byte
}

// FundManagement names where the tokens of a swap come from and go to.
type FundManagement struct {
	Sender              common.Address
	FromInternalBalance bool
	Recipient           common.Address
	ToInternalBalance   bool
}

// JoinPoolRequest adds liquidity to a pool.
type JoinPoolRequest struct {
	Assets              []common.Address
	MaxAmountsIn        []*uint256.Int
	UserData            []byte
	FromInternalBalance bool
}

// ExitPoolRequest removes liquidity from a pool.
type ExitPoolRequest struct {
	Assets            []common.Address
	MinAmountsOut     []*uint256.Int
	UserData          []byte
	ToInternalBalance bool
}

// UserBalanceOpKind selects an internal balance operation.
type UserBalanceOpKind uint8

const (
	DepositInternal UserBalanceOpKind = iota
	WithdrawInternal
	TransferInternal
	TransferExternal
)

// UserBalanceOp moves tokens between internal balances and wallets.
type UserBalanceOp struct {
	Kind      UserBalanceOpKind
	Asset     common.Address
	Amount    *uint256.Int
	Sender    common.Address
	Recipient common.Address
}

// PoolBalanceOpKind selects an asset manager operation.
type PoolBalanceOpKind uint8

const (
	// Withdraw moves cash to the manager.
	Withdraw PoolBalanceOpKind = iota
	// Deposit returns managed tokens to cash.
	Deposit
	// Update overwrites the managed amount without moving tokens.
	Update
)

// PoolBalanceOp is one asset manager operation.
type PoolBalanceOp struct {
	Kind   PoolBalanceOpKind
	PoolID PoolID
	Token  common.Address
	Amount *uint256.Int
}

// PausedState reports the pause flag and the end of the pause window and
// buffer period.
type PausedState struct {
	Paused              bool
	PauseWindowEndTime  uint64
	BufferPeriodEndTime uint64
}

func signed(v *uint256.Int) *big.Int {
	return v.ToBig()
}

func negated(v *uint256.Int) *big.Int {
	return new(big.Int).Neg(v.ToBig())
}

func zeroAmounts(n int) []*uint256.Int {
	out := make([]*uint256.Int, n)
	for i := range out {
		out[i] = new(uint256.Int)
	}
	return out
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
