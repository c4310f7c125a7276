// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package statedb provides a journaled contract.StateDB persisted to a
// key-value database.
//
// Writes land in an in-memory overlay and are recorded in a journal so a
// snapshot can be reverted. Commit flushes the overlay to the database in one
// batch.
package statedb

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"

	"github.com/parsdao/vault/contract"
)

var _ contract.StateDB = (*StateDB)(nil)

// Key prefixes in the backing database
var (
	storagePrefix   = []byte("s")
	balancePrefix   = []byte("b")
	multiCoinPrefix = []byte("m")
	accountPrefix   = []byte("a")
)

var ErrInvalidRevision = errors.New("invalid snapshot revision")

type revision struct {
	id           int
	journalIndex int
}

// StateDB is a journaled state overlay over a database.Database.
type StateDB struct {
	db  database.Database
	log log.Logger

	storage   map[common.Address]map[common.Hash]common.Hash
	balances  map[common.Address]*uint256.Int
	multiCoin map[common.Address]map[common.Hash]*big.Int
	accounts  map[common.Address]bool

	logs   []*types.Log
	txHash common.Hash

	journal        []func()
	validRevisions []revision
	nextRevisionID int
}

// New creates a StateDB reading through to db.
func New(db database.Database, logger log.Logger) *StateDB {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &StateDB{
		db:        db,
		log:       logger,
		storage:   make(map[common.Address]map[common.Hash]common.Hash),
		balances:  make(map[common.Address]*uint256.Int),
		multiCoin: make(map[common.Address]map[common.Hash]*big.Int),
		accounts:  make(map[common.Address]bool),
	}
}

// SetTxHash sets the hash stamped on logs emitted from now on.
func (s *StateDB) SetTxHash(hash common.Hash) {
	s.txHash = hash
}

func (s *StateDB) TxHash() common.Hash {
	return s.txHash
}

func (s *StateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := s.storage[addr]; ok {
		if v, ok := slots[key]; ok {
			return v
		}
	}
	var v common.Hash
	if raw := s.read(storageKey(addr, key)); raw != nil {
		copy(v[:], raw)
	}
	return v
}

// SetState stores value and returns the previous value of the slot.
func (s *StateDB) SetState(addr common.Address, key common.Hash, value common.Hash) common.Hash {
	prev := s.GetState(addr, key)
	s.journal = append(s.journal, func() { s.setSlot(addr, key, prev) })
	s.setSlot(addr, key, value)
	return prev
}

func (s *StateDB) setSlot(addr common.Address, key common.Hash, value common.Hash) {
	slots, ok := s.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.storage[addr] = slots
	}
	slots[key] = value
}

func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := s.balances[addr]; ok {
		return bal.Clone()
	}
	bal := new(uint256.Int)
	if raw := s.read(accountKey(balancePrefix, addr)); raw != nil {
		bal.SetBytes(raw)
	}
	return bal
}

func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int {
	prev := s.GetBalance(addr)
	s.setBalance(addr, new(uint256.Int).Add(prev, amount))
	return *prev
}

// SubBalance debits amount. The host is expected to check funds first;
// the balance saturates at zero.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int {
	prev := s.GetBalance(addr)
	next := new(uint256.Int)
	if !amount.Gt(prev) {
		next.Sub(prev, amount)
	}
	s.setBalance(addr, next)
	return *prev
}

func (s *StateDB) setBalance(addr common.Address, bal *uint256.Int) {
	prev, existed := s.balances[addr]
	s.journal = append(s.journal, func() {
		if existed {
			s.balances[addr] = prev
		} else {
			delete(s.balances, addr)
		}
	})
	s.balances[addr] = bal
}

func (s *StateDB) GetBalanceMultiCoin(addr common.Address, coinID common.Hash) *big.Int {
	if coins, ok := s.multiCoin[addr]; ok {
		if bal, ok := coins[coinID]; ok {
			return new(big.Int).Set(bal)
		}
	}
	bal := new(big.Int)
	if raw := s.read(multiCoinKey(addr, coinID)); raw != nil {
		bal.SetBytes(raw)
	}
	return bal
}

func (s *StateDB) AddBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int) {
	bal := s.GetBalanceMultiCoin(addr, coinID)
	s.setMultiCoin(addr, coinID, bal.Add(bal, amount))
}

func (s *StateDB) SubBalanceMultiCoin(addr common.Address, coinID common.Hash, amount *big.Int) {
	bal := s.GetBalanceMultiCoin(addr, coinID)
	s.setMultiCoin(addr, coinID, bal.Sub(bal, amount))
}

func (s *StateDB) setMultiCoin(addr common.Address, coinID common.Hash, bal *big.Int) {
	prev := s.GetBalanceMultiCoin(addr, coinID)
	s.journal = append(s.journal, func() { s.putMultiCoin(addr, coinID, prev) })
	s.putMultiCoin(addr, coinID, bal)
}

func (s *StateDB) putMultiCoin(addr common.Address, coinID common.Hash, bal *big.Int) {
	coins, ok := s.multiCoin[addr]
	if !ok {
		coins = make(map[common.Hash]*big.Int)
		s.multiCoin[addr] = coins
	}
	coins[coinID] = bal
}

func (s *StateDB) CreateAccount(addr common.Address) {
	if s.Exist(addr) {
		return
	}
	s.journal = append(s.journal, func() { delete(s.accounts, addr) })
	s.accounts[addr] = true
}

func (s *StateDB) Exist(addr common.Address) bool {
	if s.accounts[addr] {
		return true
	}
	return s.read(accountKey(accountPrefix, addr)) != nil
}

func (s *StateDB) AddLog(l *types.Log) {
	l.TxHash = s.txHash
	l.Index = uint(len(s.logs))
	n := len(s.logs)
	s.journal = append(s.journal, func() { s.logs = s.logs[:n] })
	s.logs = append(s.logs, l)
}

func (s *StateDB) Logs() []*types.Log {
	return s.logs
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id: id, journalIndex: len(s.journal)})
	return id
}

// RevertToSnapshot undoes every change made since the snapshot was taken.
// Reverting to an unknown revision panics.
func (s *StateDB) RevertToSnapshot(revid int) {
	idx := -1
	for i := len(s.validRevisions) - 1; i >= 0; i-- {
		if s.validRevisions[i].id == revid {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Errorf("%w: %d", ErrInvalidRevision, revid))
	}

	target := s.validRevisions[idx].journalIndex
	for i := len(s.journal) - 1; i >= target; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:target]
	s.validRevisions = s.validRevisions[:idx]
}

// Commit writes the overlay to the database in a single batch and resets
// the journal. Logs are kept.
func (s *StateDB) Commit() error {
	batch := s.db.NewBatch()
	var slots int
	for addr, entries := range s.storage {
		for key, value := range entries {
			if err := batch.Put(storageKey(addr, key), value[:]); err != nil {
				return err
			}
			slots++
		}
	}
	for addr, bal := range s.balances {
		if err := batch.Put(accountKey(balancePrefix, addr), bal.Bytes()); err != nil {
			return err
		}
	}
	for addr, coins := range s.multiCoin {
		for coinID, bal := range coins {
			if err := batch.Put(multiCoinKey(addr, coinID), bal.Bytes()); err != nil {
				return err
			}
		}
	}
	for addr := range s.accounts {
		if err := batch.Put(accountKey(accountPrefix, addr), []byte{1}); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}

	s.log.Debug("state committed",
		"slots", slots,
		"balances", len(s.balances),
		"accounts", len(s.accounts),
	)

	s.storage = make(map[common.Address]map[common.Hash]common.Hash)
	s.balances = make(map[common.Address]*uint256.Int)
	s.multiCoin = make(map[common.Address]map[common.Hash]*big.Int)
	s.accounts = make(map[common.Address]bool)
	s.journal = nil
	s.validRevisions = nil
	return nil
}

// read returns the persisted value for key, nil if absent.
func (s *StateDB) read(key []byte) []byte {
	raw, err := s.db.Get(key)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.log.Warn("state read failed", "key", fmt.Sprintf("%x", key), "error", err)
		}
		return nil
	}
	return raw
}

func storageKey(addr common.Address, key common.Hash) []byte {
	out := make([]byte, 0, len(storagePrefix)+common.AddressLength+common.HashLength)
	out = append(out, storagePrefix...)
	out = append(out, addr.Bytes()...)
	return append(out, key.Bytes()...)
}

func accountKey(prefix []byte, addr common.Address) []byte {
	out := make([]byte, 0, len(prefix)+common.AddressLength)
	out = append(out, prefix...)
	return append(out, addr.Bytes()...)
}

func multiCoinKey(addr common.Address, coinID common.Hash) []byte {
	out := make([]byte, 0, len(multiCoinPrefix)+common.AddressLength+common.HashLength)
	out = append(out, multiCoinPrefix...)
	out = append(out, addr.Bytes()...)
	return append(out, coinID.Bytes()...)
}
