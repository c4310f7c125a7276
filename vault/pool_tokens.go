// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"bytes"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/balance"
	"github.com/parsdao/vault/errcode"
)

var generalBalancePrefix = []byte("gbal")

// tokenStore is the storage layout of one pool specialization. All layouts
// expose the same operations; they differ in how many slots a lookup costs.
type tokenStore interface {
	register(s slotStore, id PoolID, tokens []common.Address) error
	deregister(s slotStore, id PoolID, tokens []common.Address) error
	balances(s slotStore, id PoolID) ([]common.Address, []balance.Stamped)
	balance(s slotStore, id PoolID, token common.Address) (balance.Stamped, bool)
	setBalance(s slotStore, id PoolID, token common.Address, b balance.Balance, block uint32)
}

var (
	generalStore  tokenStore = generalTokens{}
	minimalStore  tokenStore = minimalSwapInfoTokens{set: tokenSet{minimalTokenPrefix, minimalIndexPrefix, minimalLenPrefix}}
	twoTokenStore tokenStore = twoTokens{}
)

func storeFor(specialization PoolSpecialization) tokenStore {
	switch specialization {
	case MinimalSwapInfo:
		return minimalStore
	case TwoToken:
		return twoTokenStore
	default:
		return generalStore
	}
}

// tokenSet is an enumerable set of addresses per pool. Positions are stored
// as index+1 so the zero word means absent. Removal swaps the last element
// into the hole.
type tokenSet struct {
	tokenPrefix []byte
	indexPrefix []byte
	lenPrefix   []byte
}

func (ts tokenSet) length(s slotStore, id PoolID) uint64 {
	return getUint64(s, makeStorageKey(ts.lenPrefix, id[:]))
}

func (ts tokenSet) at(s slotStore, id PoolID, i uint64) common.Address {
	return getAddress(s, makeStorageKey(ts.tokenPrefix, id[:], indexBytes(i)))
}

func (ts tokenSet) indexOf(s slotStore, id PoolID, token common.Address) (uint64, bool) {
	pos := getUint64(s, makeStorageKey(ts.indexPrefix, id[:], token[:]))
	if pos == 0 {
		return 0, false
	}
	return pos - 1, true
}

func (ts tokenSet) add(s slotStore, id PoolID, token common.Address) bool {
	if _, ok := ts.indexOf(s, id, token); ok {
		return false
	}
	n := ts.length(s, id)
	setAddress(s, makeStorageKey(ts.tokenPrefix, id[:], indexBytes(n)), token)
	setUint64(s, makeStorageKey(ts.indexPrefix, id[:], token[:]), n+1)
	setUint64(s, makeStorageKey(ts.lenPrefix, id[:]), n+1)
	return true
}

// remove deletes token and returns the index it occupied and the index of
// the element moved into it. Both are equal when the last element was
// removed.
func (ts tokenSet) remove(s slotStore, id PoolID, token common.Address) (hole, last uint64, ok bool) {
	hole, ok = ts.indexOf(s, id, token)
	if !ok {
		return 0, 0, false
	}
	last = ts.length(s, id) - 1
	if hole != last {
		moved := ts.at(s, id, last)
		setAddress(s, makeStorageKey(ts.tokenPrefix, id[:], indexBytes(hole)), moved)
		setUint64(s, makeStorageKey(ts.indexPrefix, id[:], moved[:]), hole+1)
	}
	setAddress(s, makeStorageKey(ts.tokenPrefix, id[:], indexBytes(last)), common.Address{})
	setUint64(s, makeStorageKey(ts.indexPrefix, id[:], token[:]), 0)
	setUint64(s, makeStorageKey(ts.lenPrefix, id[:]), last)
	return hole, last, true
}

func (ts tokenSet) values(s slotStore, id PoolID) []common.Address {
	n := ts.length(s, id)
	out := make([]common.Address, n)
	for i := uint64(0); i < n; i++ {
		out[i] = ts.at(s, id, i)
	}
	return out
}

// generalTokens keeps the balance next to the token in each index slot, so
// iterating all balances reads by index only.
type generalTokens struct{}

var generalSet = tokenSet{generalTokenPrefix, generalIndexPrefix, generalLenPrefix}

func generalBalanceKey(id PoolID, i uint64) common.Hash {
	return makeStorageKey(generalBalancePrefix, id[:], indexBytes(i))
}

func (generalTokens) register(s slotStore, id PoolID, tokens []common.Address) error {
	for _, token := range tokens {
		if !generalSet.add(s, id, token) {
			return errcode.ErrTokenAlreadyRegistered
		}
	}
	return nil
}

func (generalTokens) deregister(s slotStore, id PoolID, tokens []common.Address) error {
	for _, token := range tokens {
		hole, last, ok := generalSet.remove(s, id, token)
		if !ok {
			return errcode.ErrTokenNotRegistered
		}
		if hole != last {
			s.set(generalBalanceKey(id, hole), s.get(generalBalanceKey(id, last)))
		}
		s.set(generalBalanceKey(id, last), common.Hash{})
	}
	return nil
}

func (generalTokens) balances(s slotStore, id PoolID) ([]common.Address, []balance.Stamped) {
	tokens := generalSet.values(s, id)
	out := make([]balance.Stamped, len(tokens))
	for i := range tokens {
		out[i] = balance.FromWord(s.get(generalBalanceKey(id, uint64(i))))
	}
	return tokens, out
}

func (generalTokens) balance(s slotStore, id PoolID, token common.Address) (balance.Stamped, bool) {
	i, ok := generalSet.indexOf(s, id, token)
	if !ok {
		return balance.Stamped{}, false
	}
	return balance.FromWord(s.get(generalBalanceKey(id, i))), true
}

func (generalTokens) setBalance(s slotStore, id PoolID, token common.Address, b balance.Balance, block uint32) {
	i, ok := generalSet.indexOf(s, id, token)
	if !ok {
		return
	}
	s.set(generalBalanceKey(id, i), balance.Stamped{Balance: b, LastChangeBlock: block}.Word())
}

// minimalSwapInfoTokens keeps a token set plus a direct token to balance
// mapping, so a swap reads exactly two balance slots.
type minimalSwapInfoTokens struct {
	set tokenSet
}

func minimalBalanceKey(id PoolID, token common.Address) common.Hash {
	return makeStorageKey(minimalBalPrefix, id[:], token[:])
}

func (m minimalSwapInfoTokens) register(s slotStore, id PoolID, tokens []common.Address) error {
	for _, token := range tokens {
		if !m.set.add(s, id, token) {
			return errcode.ErrTokenAlreadyRegistered
		}
	}
	return nil
}

func (m minimalSwapInfoTokens) deregister(s slotStore, id PoolID, tokens []common.Address) error {
	for _, token := range tokens {
		if _, _, ok := m.set.remove(s, id, token); !ok {
			return errcode.ErrTokenNotRegistered
		}
		s.set(minimalBalanceKey(id, token), common.Hash{})
	}
	return nil
}

func (m minimalSwapInfoTokens) balances(s slotStore, id PoolID) ([]common.Address, []balance.Stamped) {
	tokens := m.set.values(s, id)
	out := make([]balance.Stamped, len(tokens))
	for i, token := range tokens {
		out[i] = balance.FromWord(s.get(minimalBalanceKey(id, token)))
	}
	return tokens, out
}

func (m minimalSwapInfoTokens) balance(s slotStore, id PoolID, token common.Address) (balance.Stamped, bool) {
	if _, ok := m.set.indexOf(s, id, token); !ok {
		return balance.Stamped{}, false
	}
	return balance.FromWord(s.get(minimalBalanceKey(id, token))), true
}

func (m minimalSwapInfoTokens) setBalance(s slotStore, id PoolID, token common.Address, b balance.Balance, block uint32) {
	s.set(minimalBalanceKey(id, token), balance.Stamped{Balance: b, LastChangeBlock: block}.Word())
}

// twoTokens stores the sorted pair in two slots and both balances in one
// shared cell keyed by the pair. Any balance write restamps both tokens.
type twoTokens struct{}

func twoTokenSlot(id PoolID, i uint64) common.Hash {
	return makeStorageKey(twoTokenPrefix, id[:], indexBytes(i))
}

func sharedKeys(id PoolID, a, b common.Address) (cash, managed common.Hash) {
	return makeStorageKey(sharedCashPrefix, id[:], a[:], b[:]),
		makeStorageKey(sharedManagedPrefix, id[:], a[:], b[:])
}

func (twoTokens) pair(s slotStore, id PoolID) (a, b common.Address) {
	return getAddress(s, twoTokenSlot(id, 0)), getAddress(s, twoTokenSlot(id, 1))
}

func (twoTokens) register(s slotStore, id PoolID, tokens []common.Address) error {
	if len(tokens) != 2 {
		return errcode.ErrTokensLengthMustBe2
	}
	x, y := tokens[0], tokens[1]
	if x == y {
		return errcode.ErrTokenAlreadyRegistered
	}
	if bytes.Compare(x[:], y[:]) > 0 {
		return errcode.ErrUnsortedTokens
	}
	if a, _ := (twoTokens{}).pair(s, id); a != (common.Address{}) {
		return errcode.ErrTokensAlreadySet
	}
	setAddress(s, twoTokenSlot(id, 0), x)
	setAddress(s, twoTokenSlot(id, 1), y)
	return nil
}

func (t twoTokens) deregister(s slotStore, id PoolID, tokens []common.Address) error {
	if len(tokens) != 2 {
		return errcode.ErrTokensLengthMustBe2
	}
	a, b := t.pair(s, id)
	x, y := tokens[0], tokens[1]
	if a == (common.Address{}) || !((x == a && y == b) || (x == b && y == a)) {
		return errcode.ErrTokenNotRegistered
	}
	cashKey, managedKey := sharedKeys(id, a, b)
	s.set(cashKey, common.Hash{})
	s.set(managedKey, common.Hash{})
	setAddress(s, twoTokenSlot(id, 0), common.Address{})
	setAddress(s, twoTokenSlot(id, 1), common.Address{})
	return nil
}

func (t twoTokens) shared(s slotStore, id PoolID) (a, b common.Address, sa, sb balance.Stamped) {
	a, b = t.pair(s, id)
	if a == (common.Address{}) {
		return a, b, sa, sb
	}
	cashKey, managedKey := sharedKeys(id, a, b)
	sa, sb = balance.UnpackShared(s.get(cashKey), s.get(managedKey))
	return a, b, sa, sb
}

func (t twoTokens) balances(s slotStore, id PoolID) ([]common.Address, []balance.Stamped) {
	a, b, sa, sb := t.shared(s, id)
	if a == (common.Address{}) {
		return nil, nil
	}
	return []common.Address{a, b}, []balance.Stamped{sa, sb}
}

func (t twoTokens) balance(s slotStore, id PoolID, token common.Address) (balance.Stamped, bool) {
	a, b, sa, sb := t.shared(s, id)
	switch {
	case a == (common.Address{}):
		return balance.Stamped{}, false
	case token == a:
		return sa, true
	case token == b:
		return sb, true
	default:
		return balance.Stamped{}, false
	}
}

func (t twoTokens) setBalance(s slotStore, id PoolID, token common.Address, nb balance.Balance, block uint32) {
	a, b, sa, sb := t.shared(s, id)
	balA, balB := sa.Balance, sb.Balance
	switch token {
	case a:
		balA = nb
	case b:
		balB = nb
	default:
		return
	}
	cash, managed := balance.PackShared(balA, balB, block)
	cashKey, managedKey := sharedKeys(id, a, b)
	s.set(cashKey, cash)
	s.set(managedKey, managed)
}
