// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/vault/contract"
	"github.com/parsdao/vault/errcode"
)

func relayerKey(user, relayer common.Address) common.Hash {
	return makeStorageKey(relayerPrefix, user[:], relayer[:])
}

func trustedKey(operator common.Address) common.Hash {
	return makeStorageKey(trustedPrefix, operator[:])
}

// isOperatorFor reports whether candidate may act for user.
func isOperatorFor(s slotStore, user, candidate common.Address) bool {
	return candidate == user ||
		getBool(s, relayerKey(user, candidate)) ||
		getBool(s, trustedKey(candidate))
}

// authenticateFor fails unless caller may act on behalf of user.
func authenticateFor(s slotStore, user, caller common.Address) error {
	if !isOperatorFor(s, user, caller) {
		return fmt.Errorf("%w: %s is not an operator for %s", errcode.ErrSenderNotAllowed, caller.Hex(), user.Hex())
	}
	return nil
}

// SetRelayerApproval grants or revokes relayer's right to act for sender.
// Revoking never affects trusted operators, which stay authorized for
// everyone.
func (v *Vault) SetRelayerApproval(env contract.AccessibleState, caller, sender, relayer common.Address, approved bool) error {
	return v.execute(env, "setRelayerApproval", func(tx *txn) error {
		if err := authenticateFor(tx, sender, caller); err != nil {
			return err
		}
		setBool(tx, relayerKey(sender, relayer), approved)
		return tx.emit("RelayerApprovalChanged", relayer, sender, approved)
	})
}

// HasApprovedRelayer reports an explicit grant from user to relayer.
func (v *Vault) HasApprovedRelayer(env contract.AccessibleState, user, relayer common.Address) bool {
	return getBool(v.reader(env), relayerKey(user, relayer))
}

// IsOperatorFor reports whether candidate may act on behalf of user.
func (v *Vault) IsOperatorFor(env contract.AccessibleState, user, candidate common.Address) bool {
	return isOperatorFor(v.reader(env), user, candidate)
}

// IsTrustedOperator reports whether operator acts for all users.
func (v *Vault) IsTrustedOperator(env contract.AccessibleState, operator common.Address) bool {
	return getBool(v.reader(env), trustedKey(operator))
}

// ReportTrustedOperator adds operator to the trusted set. Reserved to the
// reporter role.
func (v *Vault) ReportTrustedOperator(env contract.AccessibleState, caller, operator common.Address) error {
	return v.execute(env, "reportTrustedOperator", func(tx *txn) error {
		if err := v.authenticate(caller, v.address, ActionReportTrustedOperator); err != nil {
			return err
		}
		setBool(tx, trustedKey(operator), true)
		return tx.emit("TrustedOperatorReported", operator)
	})
}

// RevokeTrustedOperator removes operator from the trusted set.
func (v *Vault) RevokeTrustedOperator(env contract.AccessibleState, caller, operator common.Address) error {
	return v.execute(env, "revokeTrustedOperator", func(tx *txn) error {
		if err := v.authenticate(caller, v.address, ActionRevokeTrustedOperator); err != nil {
			return err
		}
		setBool(tx, trustedKey(operator), false)
		return tx.emit("TrustedOperatorRevoked", operator)
	})
}
