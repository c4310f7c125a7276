// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"sync"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
	"github.com/parsdao/vault/registry"
)

// Vault is the accounting core. All ledger state lives in the storage of
// the vault address in the host StateDB; the Vault value itself only holds
// collaborators and the reentrancy guard.
type Vault struct {
	address common.Address

	// mu protects locked, active and authorizer
	mu sync.Mutex

	// locked is set for the duration of a mutating entry point
	locked bool

	// active is the transaction of the running entry point, read through
	// by accessors called from pool or recipient callbacks
	active *txn

	authorizer Authorizer
	pools      PoolResolver
	transfers  TokenTransferrer
	log        log.Logger
	metrics    *Metrics
}

// Options configures a Vault. Zero fields take defaults.
type Options struct {
	// Address is the account whose storage holds the ledger.
	Address    common.Address
	Authorizer Authorizer
	Pools      PoolResolver
	Transfers  TokenTransferrer
	Logger     log.Logger
	Metrics    *Metrics
}

// New creates a Vault.
func New(opts Options) *Vault {
	v := &Vault{
		address:    opts.Address,
		authorizer: opts.Authorizer,
		pools:      opts.Pools,
		transfers:  opts.Transfers,
		log:        opts.Logger,
		metrics:    opts.Metrics,
	}
	if v.address == (common.Address{}) {
		v.address = registry.VaultAddress
	}
	if v.authorizer == nil {
		v.authorizer = denyAll{}
	}
	if v.pools == nil {
		v.pools = NewPoolDirectory()
	}
	if v.transfers == nil {
		v.transfers = MultiCoinTransferrer{}
	}
	if v.log == nil {
		v.log = log.NewNoOpLogger()
	}
	return v
}

// Address returns the account holding the ledger and the token custody.
func (v *Vault) Address() common.Address {
	return v.address
}

// Pools returns the resolver used to reach pool implementations.
func (v *Vault) Pools() PoolResolver {
	return v.pools
}

func (v *Vault) enter() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.locked {
		return errcode.ErrReentrancy
	}
	v.locked = true
	return nil
}

func (v *Vault) exit() {
	v.mu.Lock()
	v.locked = false
	v.active = nil
	v.mu.Unlock()
}

// execute runs fn as one guarded, atomic entry point. Storage writes and
// events are buffered in a txn and committed only if fn succeeds. Token
// transfers made through the StateDB are undone by reverting to the
// snapshot taken on entry.
func (v *Vault) execute(env contract.AccessibleState, op string, fn func(tx *txn) error) error {
	if err := v.enter(); err != nil {
		v.metrics.observeCall(op, err)
		return err
	}
	defer v.exit()

	state := env.GetStateDB()
	snapshot := state.Snapshot()
	tx := newTxn(stateStore{state: state, addr: v.address}, env, v.address)

	v.mu.Lock()
	v.active = tx
	v.mu.Unlock()

	if err := fn(tx); err != nil {
		state.RevertToSnapshot(snapshot)
		v.metrics.observeCall(op, err)
		v.log.Warn("vault call reverted",
			"op", op,
			"block", tx.blockNo,
			"reason", errcode.Reason(err),
			"error", err,
		)
		return err
	}

	tx.commit()
	v.metrics.observeCall(op, nil)
	v.log.Debug("vault call committed",
		"op", op,
		"block", tx.blockNo,
		"writes", len(tx.order),
		"events", len(tx.logs),
	)
	return nil
}

// reader returns the store accessors read from: the running transaction
// when called back from inside an entry point on the same state, otherwise
// the committed state.
func (v *Vault) reader(env contract.AccessibleState) slotStore {
	state := env.GetStateDB()
	v.mu.Lock()
	tx := v.active
	v.mu.Unlock()
	if tx != nil && tx.state() == state {
		return tx
	}
	return stateStore{state: state, addr: v.address}
}
