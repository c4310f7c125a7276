// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"encoding/binary"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/zeebo/blake3"

	"github.com/parsdao/vault/contract"
)

// Storage key prefixes for vault state
var (
	poolPrefix          = []byte("pool")
	noncePrefix         = []byte("nonc")
	generalTokenPrefix  = []byte("gtok")
	generalIndexPrefix  = []byte("gidx")
	generalLenPrefix    = []byte("glen")
	minimalTokenPrefix  = []byte("mtok")
	minimalIndexPrefix  = []byte("midx")
	minimalLenPrefix    = []byte("mlen")
	minimalBalPrefix    = []byte("mbal")
	twoTokenPrefix      = []byte("ttok")
	sharedCashPrefix    = []byte("tcsh")
	sharedManagedPrefix = []byte("tmng")
	assetManagerPrefix  = []byte("amgr")
	internalPrefix      = []byte("ibal")
	relayerPrefix       = []byte("rlyr")
	trustedPrefix       = []byte("trst")
	collectedFeePrefix  = []byte("fees")
	settingsPrefix      = []byte("conf")
)

// Settings slots
var (
	swapFeeKey         = makeStorageKey(settingsPrefix, []byte("swapFee"))
	flashLoanFeeKey    = makeStorageKey(settingsPrefix, []byte("flashLoanFee"))
	feeRecipientKey    = makeStorageKey(settingsPrefix, []byte("feeRecipient"))
	pausedKey          = makeStorageKey(settingsPrefix, []byte("paused"))
	pauseWindowEndKey  = makeStorageKey(settingsPrefix, []byte("pauseWindowEnd"))
	bufferPeriodEndKey = makeStorageKey(settingsPrefix, []byte("bufferPeriodEnd"))
)

// makeStorageKey creates a storage key from prefix and identifiers
func makeStorageKey(prefix []byte, ids ...[]byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	for _, id := range ids {
		h.Write(id)
	}
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func indexBytes(i uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], i)
	return b[:]
}

// slotStore is a flat word store for the vault's storage.
type slotStore interface {
	get(key common.Hash) common.Hash
	set(key common.Hash, value common.Hash)
}

// stateStore reads and writes the vault account of a StateDB.
type stateStore struct {
	state contract.StateDB
	addr  common.Address
}

func (s stateStore) get(key common.Hash) common.Hash {
	return s.state.GetState(s.addr, key)
}

func (s stateStore) set(key common.Hash, value common.Hash) {
	s.state.SetState(s.addr, key, value)
}

// txn buffers the storage writes and events of one entry point. Nothing
// reaches the parent store until commit. A txn may be layered over another
// txn, in which case commit folds it into the parent.
type txn struct {
	parent slotStore
	writes map[common.Hash]common.Hash
	order  []common.Hash
	logs   []*types.Log
	hooks  []func()

	env     contract.AccessibleState
	vault   common.Address
	block   uint32
	time    uint64
	blockNo uint64
}

func blockTime(env contract.AccessibleState) uint64 {
	if bc := env.GetBlockContext(); bc != nil {
		return bc.Timestamp()
	}
	return 0
}

func newTxn(parent slotStore, env contract.AccessibleState, vault common.Address) *txn {
	tx := &txn{
		parent: parent,
		writes: make(map[common.Hash]common.Hash),
		env:    env,
		vault:  vault,
	}
	if bc := env.GetBlockContext(); bc != nil {
		if n := bc.Number(); n != nil {
			tx.blockNo = n.Uint64()
			tx.block = uint32(tx.blockNo)
		}
		tx.time = bc.Timestamp()
	}
	return tx
}

func (tx *txn) get(key common.Hash) common.Hash {
	if v, ok := tx.writes[key]; ok {
		return v
	}
	return tx.parent.get(key)
}

func (tx *txn) set(key common.Hash, value common.Hash) {
	if _, ok := tx.writes[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.writes[key] = value
}

func (tx *txn) state() contract.StateDB {
	return tx.env.GetStateDB()
}

// onCommit registers fn to run once the outermost transaction commits.
func (tx *txn) onCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}

// commit flushes buffered writes in first-write order, then the logs.
func (tx *txn) commit() {
	for _, key := range tx.order {
		tx.parent.set(key, tx.writes[key])
	}
	if parent, ok := tx.parent.(*txn); ok {
		parent.logs = append(parent.logs, tx.logs...)
		parent.hooks = append(parent.hooks, tx.hooks...)
		return
	}
	state := tx.state()
	for _, l := range tx.logs {
		state.AddLog(l)
	}
	for _, fn := range tx.hooks {
		fn()
	}
}

// emit packs an event and buffers it as a log of the vault.
func (tx *txn) emit(name string, args ...interface{}) error {
	topics, data, err := VaultABI.PackEvent(name, args...)
	if err != nil {
		return err
	}
	tx.logs = append(tx.logs, &types.Log{
		Address:     tx.vault,
		Topics:      topics,
		Data:        data,
		BlockNumber: tx.blockNo,
	})
	return nil
}

// Typed accessors over a slotStore

func getUint(s slotStore, key common.Hash) *uint256.Int {
	v := s.get(key)
	return new(uint256.Int).SetBytes32(v[:])
}

func setUint(s slotStore, key common.Hash, v *uint256.Int) {
	s.set(key, common.Hash(v.Bytes32()))
}

func getAddress(s slotStore, key common.Hash) common.Address {
	return common.BytesToAddress(s.get(key).Bytes())
}

func setAddress(s slotStore, key common.Hash, addr common.Address) {
	s.set(key, common.BytesToHash(addr.Bytes()))
}

func getBool(s slotStore, key common.Hash) bool {
	return s.get(key) != (common.Hash{})
}

func setBool(s slotStore, key common.Hash, v bool) {
	if v {
		s.set(key, common.Hash{31: 1})
	} else {
		s.set(key, common.Hash{})
	}
}

func getUint64(s slotStore, key common.Hash) uint64 {
	v := s.get(key)
	return binary.BigEndian.Uint64(v[24:])
}

func setUint64(s slotStore, key common.Hash, v uint64) {
	var word common.Hash
	binary.BigEndian.PutUint64(word[24:], v)
	s.set(key, word)
}
