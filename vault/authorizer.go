// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"
	"sync"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
	"github.com/parsdao/vault/registry"
)

// Authorizer decides whether account may perform the action identified by
// actionID on the contract at where.
type Authorizer interface {
	CanPerform(actionID common.Hash, account common.Address, where common.Address) bool
}

// Action signatures gated by the authorizer
const (
	ActionSetAuthorizer             = "setAuthorizer(address)"
	ActionSetPaused                 = "setPaused(bool)"
	ActionReportTrustedOperator     = "reportTrustedOperator(address)"
	ActionRevokeTrustedOperator     = "revokeTrustedOperator(address)"
	ActionSetSwapFeePercentage      = "setSwapFeePercentage(uint256)"
	ActionSetFlashLoanFeePercentage = "setFlashLoanFeePercentage(uint256)"
	ActionSetFeeRecipient           = "setFeeRecipient(address)"
)

// ActionID derives the identifier of an action: keccak256 of the
// disambiguating address left-padded to 32 bytes followed by the selector.
func ActionID(where common.Address, signature string) common.Hash {
	return common.BytesToHash(crypto.Keccak256(
		common.BytesToHash(where.Bytes()).Bytes(),
		contract.CalculateFunctionSelector(signature),
	))
}

// ActionID returns the identifier of an action performed on this Vault.
func (v *Vault) ActionID(signature string) common.Hash {
	return ActionID(v.address, signature)
}

// FeesActionID returns the identifier of a protocol fee action.
func FeesActionID(signature string) common.Hash {
	return ActionID(registry.ProtocolFeesCollectorAddress, signature)
}

func (v *Vault) currentAuthorizer() Authorizer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.authorizer
}

// authenticate checks caller against the authorizer for signature on where.
func (v *Vault) authenticate(caller, where common.Address, signature string) error {
	actionID := ActionID(where, signature)
	if !v.currentAuthorizer().CanPerform(actionID, caller, where) {
		return fmt.Errorf("%w: %s may not %s", errcode.ErrSenderNotAllowed, caller.Hex(), signature)
	}
	return nil
}

// GetAuthorizer returns the authorizer in use.
func (v *Vault) GetAuthorizer() Authorizer {
	return v.currentAuthorizer()
}

// SetAuthorizer replaces the authorizer. The current authorizer must allow
// caller to do so.
func (v *Vault) SetAuthorizer(env contract.AccessibleState, caller common.Address, next Authorizer) error {
	return v.execute(env, "setAuthorizer", func(tx *txn) error {
		if err := v.authenticate(caller, v.address, ActionSetAuthorizer); err != nil {
			return err
		}
		if next == nil {
			return fmt.Errorf("%w: nil authorizer", errcode.ErrSenderNotAllowed)
		}
		var addr common.Address
		if a, ok := next.(interface{ Address() common.Address }); ok {
			addr = a.Address()
		}
		if err := tx.emit("AuthorizerChanged", addr); err != nil {
			return err
		}
		v.mu.Lock()
		v.authorizer = next
		v.mu.Unlock()
		return nil
	})
}

// denyAll refuses every action.
type denyAll struct{}

func (denyAll) CanPerform(common.Hash, common.Address, common.Address) bool { return false }

// DefaultAdminRole administers every role of a RoleAuthorizer.
var DefaultAdminRole = common.Hash{}

// RoleAuthorizer grants actions to accounts through roles. A role is an
// action ID; holding it allows the action on any target.
type RoleAuthorizer struct {
	address common.Address

	mu      sync.RWMutex
	members map[common.Hash]map[common.Address]bool
}

// NewRoleAuthorizer returns an authorizer where admin holds the default
// admin role.
func NewRoleAuthorizer(address, admin common.Address) *RoleAuthorizer {
	a := &RoleAuthorizer{
		address: address,
		members: make(map[common.Hash]map[common.Address]bool),
	}
	a.grant(DefaultAdminRole, admin)
	return a
}

// Address identifies the authorizer in AuthorizerChanged events.
func (a *RoleAuthorizer) Address() common.Address {
	return a.address
}

func (a *RoleAuthorizer) CanPerform(actionID common.Hash, account common.Address, _ common.Address) bool {
	return a.HasRole(actionID, account)
}

// HasRole reports whether account holds role.
func (a *RoleAuthorizer) HasRole(role common.Hash, account common.Address) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.members[role][account]
}

// GrantRoles grants roles to account. sender must be an admin.
func (a *RoleAuthorizer) GrantRoles(sender common.Address, roles []common.Hash, account common.Address) error {
	if !a.HasRole(DefaultAdminRole, sender) {
		return fmt.Errorf("%w: %s is not an admin", errcode.ErrSenderNotAllowed, sender.Hex())
	}
	for _, role := range roles {
		a.grant(role, account)
	}
	return nil
}

// RevokeRoles removes roles from account. sender must be an admin.
func (a *RoleAuthorizer) RevokeRoles(sender common.Address, roles []common.Hash, account common.Address) error {
	if !a.HasRole(DefaultAdminRole, sender) {
		return fmt.Errorf("%w: %s is not an admin", errcode.ErrSenderNotAllowed, sender.Hex())
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, role := range roles {
		delete(a.members[role], account)
	}
	return nil
}

func (a *RoleAuthorizer) grant(role common.Hash, account common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.members[role] == nil {
		a.members[role] = make(map[common.Address]bool)
	}
	a.members[role][account] = true
}
