// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/balance"
	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

func poolKey(id PoolID) common.Hash {
	return makeStorageKey(poolPrefix, id[:])
}

func nonceKey(addr common.Address) common.Hash {
	return makeStorageKey(noncePrefix, addr[:])
}

func managerKey(id PoolID, token common.Address) common.Hash {
	return makeStorageKey(assetManagerPrefix, id[:], token[:])
}

func ensureRegisteredPool(s slotStore, id PoolID) error {
	if !getBool(s, poolKey(id)) {
		return fmt.Errorf("%w: %s", errcode.ErrInvalidPoolID, id.Hex())
	}
	return nil
}

func ensurePoolCaller(s slotStore, id PoolID, caller common.Address) error {
	if err := ensureRegisteredPool(s, id); err != nil {
		return err
	}
	if caller != id.Address() {
		return errcode.ErrCallerNotPool
	}
	return nil
}

// ensureEmptyBalances fails if any token of the pool holds a balance. A
// pool's token set is frozen while it holds funds.
func ensureEmptyBalances(s slotStore, id PoolID) error {
	tokens, bals := storeFor(id.Specialization()).balances(s, id)
	for i, b := range bals {
		if !b.IsZero() {
			return fmt.Errorf("%w: %s", errcode.ErrNonzeroTokenBalance, tokens[i].Hex())
		}
	}
	return nil
}

func poolTokenBalance(s slotStore, id PoolID, token common.Address) (balance.Stamped, error) {
	b, ok := storeFor(id.Specialization()).balance(s, id, token)
	if !ok {
		return balance.Stamped{}, fmt.Errorf("%w: %s", errcode.ErrTokenNotRegistered, token.Hex())
	}
	return b, nil
}

// RegisterPool registers caller as a pool with the given specialization and
// returns its ID. A pool address may register any number of pools; each gets
// the next value of the address's nonce.
func (v *Vault) RegisterPool(env contract.AccessibleState, caller common.Address, specialization PoolSpecialization) (PoolID, error) {
	var id PoolID
	err := v.execute(env, "registerPool", func(tx *txn) error {
		if err := v.ensureNotPaused(tx); err != nil {
			return err
		}
		if !specialization.valid() {
			return fmt.Errorf("%w: specialization %d", errcode.ErrInvalidOperationKind, specialization)
		}
		nonce := getUint64(tx, nonceKey(caller))
		id = NewPoolID(caller, specialization, nonce)
		setBool(tx, poolKey(id), true)
		setUint64(tx, nonceKey(caller), nonce+1)
		return tx.emit("PoolRegistered", [32]byte(id), caller, uint8(specialization))
	})
	if err != nil {
		return PoolID{}, err
	}
	v.metrics.observePoolRegistered(specialization)
	return id, nil
}

// GetNextNonce returns the nonce the next pool registered by addr will get.
func (v *Vault) GetNextNonce(env contract.AccessibleState, addr common.Address) uint64 {
	return getUint64(v.reader(env), nonceKey(addr))
}

// GetPool returns the address and specialization of a registered pool.
func (v *Vault) GetPool(env contract.AccessibleState, id PoolID) (common.Address, PoolSpecialization, error) {
	if err := ensureRegisteredPool(v.reader(env), id); err != nil {
		return common.Address{}, 0, err
	}
	return id.Address(), id.Specialization(), nil
}

// RegisterTokens adds tokens to a pool, optionally with asset managers. Only
// the pool itself may call it, and only while none of its tokens hold a
// balance.
func (v *Vault) RegisterTokens(
	env contract.AccessibleState,
	caller common.Address,
	id PoolID,
	tokens []common.Address,
	assetManagers []common.Address,
) error {
	return v.execute(env, "registerTokens", func(tx *txn) error {
		if err := v.ensureNotPaused(tx); err != nil {
			return err
		}
		if err := ensurePoolCaller(tx, id, caller); err != nil {
			return err
		}
		if len(tokens) != len(assetManagers) {
			return errcode.ErrInputLengthMismatch
		}
		for _, token := range tokens {
			if token == (common.Address{}) {
				return errcode.ErrZeroToken
			}
		}
		if err := ensureEmptyBalances(tx, id); err != nil {
			return err
		}
		if err := storeFor(id.Specialization()).register(tx, id, tokens); err != nil {
			return err
		}
		for i, token := range tokens {
			if assetManagers[i] != (common.Address{}) {
				setAddress(tx, managerKey(id, token), assetManagers[i])
			}
		}
		return tx.emit("TokensRegistered", [32]byte(id), tokens, assetManagers)
	})
}

// DeregisterTokens removes tokens from a pool. Only the pool may call it,
// and only while none of its tokens hold a balance. Asset managers of the
// removed tokens are cleared.
func (v *Vault) DeregisterTokens(env contract.AccessibleState, caller common.Address, id PoolID, tokens []common.Address) error {
	return v.execute(env, "deregisterTokens", func(tx *txn) error {
		if err := v.ensureNotPaused(tx); err != nil {
			return err
		}
		if err := ensurePoolCaller(tx, id, caller); err != nil {
			return err
		}
		if err := ensureEmptyBalances(tx, id); err != nil {
			return err
		}
		if err := storeFor(id.Specialization()).deregister(tx, id, tokens); err != nil {
			return err
		}
		for _, token := range tokens {
			setAddress(tx, managerKey(id, token), common.Address{})
		}
		return tx.emit("TokensDeregistered", [32]byte(id), tokens)
	})
}

// GetPoolTokens returns the tokens of a pool, their total balances and the
// most recent block any of them changed in.
func (v *Vault) GetPoolTokens(env contract.AccessibleState, id PoolID) ([]common.Address, []*uint256.Int, uint32, error) {
	s := v.reader(env)
	if err := ensureRegisteredPool(s, id); err != nil {
		return nil, nil, 0, err
	}
	tokens, bals := storeFor(id.Specialization()).balances(s, id)
	totals, last := balance.TotalsAndLastChangeBlock(bals)
	if tokens == nil {
		tokens = []common.Address{}
	}
	return tokens, totals, last, nil
}

// PoolTokenInfo is the per-token view of a pool balance.
type PoolTokenInfo struct {
	Cash            *uint256.Int
	Managed         *uint256.Int
	LastChangeBlock uint32
	AssetManager    common.Address
}

// GetPoolTokenInfo returns the balance split and asset manager of one token.
func (v *Vault) GetPoolTokenInfo(env contract.AccessibleState, id PoolID, token common.Address) (PoolTokenInfo, error) {
	s := v.reader(env)
	if err := ensureRegisteredPool(s, id); err != nil {
		return PoolTokenInfo{}, err
	}
	b, err := poolTokenBalance(s, id, token)
	if err != nil {
		return PoolTokenInfo{}, err
	}
	return PoolTokenInfo{
		Cash:            b.Cash(),
		Managed:         b.Managed(),
		LastChangeBlock: b.LastChangeBlock,
		AssetManager:    getAddress(s, managerKey(id, token)),
	}, nil
}
