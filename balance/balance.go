// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package balance implements the two-component pool token balance.
//
// A Balance splits a pool's holdings of one token into cash, held by the
// Vault and available for settlement, and managed, delegated to an external
// asset manager. Both components and their sum are bounded to 112 bits so a
// balance and the block of its last change fit in one 256-bit storage word:
//
//	[ 32 bits lastChangeBlock | 112 bits managed | 112 bits cash ]
package balance

import (
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/errcode"
)

// Bits is the width of each balance component.
const Bits = 112

// MaxAmount is the largest value a component or total may hold.
var MaxAmount = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), Bits), uint256.NewInt(1))

// Balance is an immutable (cash, managed) pair. The zero value is an empty
// balance.
type Balance struct {
	cash    uint256.Int
	managed uint256.Int
}

// Zero is the empty balance.
var Zero Balance

// Pack builds a balance, failing if either component or the total does not
// fit in 112 bits.
func Pack(cash, managed *uint256.Int) (Balance, error) {
	if cash.Gt(MaxAmount) || managed.Gt(MaxAmount) {
		return Balance{}, errcode.ErrAddOverflow
	}
	total := new(uint256.Int).Add(cash, managed)
	if total.Gt(MaxAmount) {
		return Balance{}, errcode.ErrBalanceTotalOverflow
	}
	return Balance{cash: *cash, managed: *managed}, nil
}

// Cash returns a copy of the cash component.
func (b Balance) Cash() *uint256.Int {
	return new(uint256.Int).Set(&b.cash)
}

// Managed returns a copy of the managed component.
func (b Balance) Managed() *uint256.Int {
	return new(uint256.Int).Set(&b.managed)
}

// Total returns cash + managed.
func (b Balance) Total() *uint256.Int {
	return new(uint256.Int).Add(&b.cash, &b.managed)
}

// IsManaged reports whether any part of the balance is delegated.
func (b Balance) IsManaged() bool {
	return !b.managed.IsZero()
}

// IsZero reports whether both components are zero.
func (b Balance) IsZero() bool {
	return b.cash.IsZero() && b.managed.IsZero()
}

// Equal compares two balances component-wise.
func (b Balance) Equal(other Balance) bool {
	return b.cash.Eq(&other.cash) && b.managed.Eq(&other.managed)
}

// SetManaged replaces the managed component.
func (b Balance) SetManaged(managed *uint256.Int) (Balance, error) {
	return Pack(&b.cash, managed)
}

// IncreaseCash adds amount to cash.
func (b Balance) IncreaseCash(amount *uint256.Int) (Balance, error) {
	cash, err := add(&b.cash, amount)
	if err != nil {
		return Balance{}, err
	}
	return Pack(cash, &b.managed)
}

// DecreaseCash subtracts amount from cash.
func (b Balance) DecreaseCash(amount *uint256.Int) (Balance, error) {
	cash, err := sub(&b.cash, amount)
	if err != nil {
		return Balance{}, err
	}
	return Pack(cash, &b.managed)
}

// CashToManaged moves amount from cash to managed. The total is unchanged.
func (b Balance) CashToManaged(amount *uint256.Int) (Balance, error) {
	cash, err := sub(&b.cash, amount)
	if err != nil {
		return Balance{}, err
	}
	managed, err := add(&b.managed, amount)
	if err != nil {
		return Balance{}, err
	}
	return Pack(cash, managed)
}

// ManagedToCash moves amount from managed to cash. The total is unchanged.
func (b Balance) ManagedToCash(amount *uint256.Int) (Balance, error) {
	managed, err := sub(&b.managed, amount)
	if err != nil {
		return Balance{}, err
	}
	cash, err := add(&b.cash, amount)
	if err != nil {
		return Balance{}, err
	}
	return Pack(cash, managed)
}

func add(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || sum.Gt(MaxAmount) {
		return nil, errcode.ErrAddOverflow
	}
	return sum, nil
}

func sub(a, b *uint256.Int) (*uint256.Int, error) {
	if b.Gt(a) {
		return nil, errcode.ErrSubOverflow
	}
	return new(uint256.Int).Sub(a, b), nil
}

// Stamped is a balance together with the block of its last change.
type Stamped struct {
	Balance
	LastChangeBlock uint32
}

// Word encodes the stamped balance into one storage word.
func (s Stamped) Word() common.Hash {
	v := new(uint256.Int).Lsh(uint256.NewInt(uint64(s.LastChangeBlock)), 2*Bits)
	v.Or(v, new(uint256.Int).Lsh(&s.managed, Bits))
	v.Or(v, &s.cash)
	return common.Hash(v.Bytes32())
}

// FromWord decodes a storage word written by Stamped.Word.
func FromWord(word common.Hash) Stamped {
	v := new(uint256.Int).SetBytes32(word[:])
	return Stamped{
		Balance: Balance{
			cash:    *low112(v),
			managed: *low112(new(uint256.Int).Rsh(v, Bits)),
		},
		LastChangeBlock: uint32(new(uint256.Int).Rsh(v, 2*Bits).Uint64()),
	}
}

// PackShared encodes the balances of both tokens of a two-token pool into the
// shared cash word and the shared managed word. The block marker lives in
// the cash word and belongs to both tokens.
func PackShared(a, b Balance, block uint32) (sharedCash, sharedManaged common.Hash) {
	c := new(uint256.Int).Lsh(uint256.NewInt(uint64(block)), 2*Bits)
	c.Or(c, new(uint256.Int).Lsh(&b.cash, Bits))
	c.Or(c, &a.cash)

	m := new(uint256.Int).Lsh(&b.managed, Bits)
	m.Or(m, &a.managed)

	return common.Hash(c.Bytes32()), common.Hash(m.Bytes32())
}

// UnpackShared decodes the shared words of a two-token pool. Both results
// carry the same LastChangeBlock.
func UnpackShared(sharedCash, sharedManaged common.Hash) (a, b Stamped) {
	c := new(uint256.Int).SetBytes32(sharedCash[:])
	m := new(uint256.Int).SetBytes32(sharedManaged[:])
	block := uint32(new(uint256.Int).Rsh(c, 2*Bits).Uint64())

	a = Stamped{
		Balance:         Balance{cash: *low112(c), managed: *low112(m)},
		LastChangeBlock: block,
	}
	b = Stamped{
		Balance: Balance{
			cash:    *low112(new(uint256.Int).Rsh(c, Bits)),
			managed: *low112(new(uint256.Int).Rsh(m, Bits)),
		},
		LastChangeBlock: block,
	}
	return a, b
}

// TotalsAndLastChangeBlock returns the total of every balance and the most
// recent change block among them.
func TotalsAndLastChangeBlock(balances []Stamped) ([]*uint256.Int, uint32) {
	totals := make([]*uint256.Int, len(balances))
	var last uint32
	for i, s := range balances {
		totals[i] = s.Total()
		if s.LastChangeBlock > last {
			last = s.LastChangeBlock
		}
	}
	return totals, last
}

func low112(v *uint256.Int) *uint256.Int {
	return new(uint256.Int).And(v, MaxAmount)
}
