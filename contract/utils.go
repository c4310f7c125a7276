// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package contract

import (
	"errors"

	"github.com/luxfi/crypto"
)

// SelectorLen is the length of a function selector.
const SelectorLen = 4

var (
	ErrOutOfGas        = errors.New("out of gas")
	ErrInputTooShort   = errors.New("input too short")
	ErrWriteProtection = errors.New("cannot write in read-only mode")
)

// CalculateFunctionSelector returns the 4-byte selector of a canonical
// function signature such as "getPool(bytes32)".
func CalculateFunctionSelector(signature string) []byte {
	return crypto.Keccak256([]byte(signature))[:SelectorLen]
}

// DeductGas charges requiredGas against suppliedGas.
func DeductGas(suppliedGas uint64, requiredGas uint64) (uint64, error) {
	if suppliedGas < requiredGas {
		return 0, ErrOutOfGas
	}
	return suppliedGas - requiredGas, nil
}
