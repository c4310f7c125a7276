// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package errcode defines the coded failure conditions of the Vault ledger.
//
// Every failure carries a numeric code and a Kind. Codes render as revert
// reasons of the form "BAL#NNN" so integrations that match on the reason
// string keep working.
package errcode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/luxfi/geth/accounts/abi"
)

// Kind classifies an error by the failure category it belongs to.
type Kind uint8

const (
	KindUnknown Kind = iota
	Arithmetic
	AuthorizationDenied
	StateViolation
	InsufficientFunds
	Reentrancy
)

func (k Kind) String() string {
	switch k {
	case Arithmetic:
		return "arithmetic"
	case AuthorizationDenied:
		return "authorization denied"
	case StateViolation:
		return "state violation"
	case InsufficientFunds:
		return "insufficient funds"
	case Reentrancy:
		return "reentrancy"
	default:
		return "unknown"
	}
}

// Error is a coded ledger failure. Values are compared by identity, so
// callers match them with errors.Is against the package-level sentinels.
type Error struct {
	Code uint16
	Name string
	Kind Kind
}

// New creates a coded error and records it in the lookup table.
func New(code uint16, name string, kind Kind) *Error {
	e := &Error{Code: code, Name: name, Kind: kind}
	byCode[code] = e
	return e
}

func (e *Error) Error() string {
	return strings.ToLower(strings.ReplaceAll(e.Name, "_", " "))
}

// Reason returns the revert reason string, e.g. "BAL#513".
func (e *Error) Reason() string {
	return fmt.Sprintf("BAL#%03d", e.Code)
}

var byCode = make(map[uint16]*Error)

// Lookup returns the registered error for code.
func Lookup(code uint16) (*Error, bool) {
	e, ok := byCode[code]
	return e, ok
}

// As extracts the coded error wrapped anywhere in err's chain.
func As(err error) (*Error, bool) {
	var coded *Error
	if errors.As(err, &coded) {
		return coded, true
	}
	return nil, false
}

// KindOf classifies err. Errors that do not wrap a coded error are
// KindUnknown.
func KindOf(err error) Kind {
	if coded, ok := As(err); ok {
		return coded.Kind
	}
	return KindUnknown
}

// Reason renders err as a revert reason. Uncoded errors render as their
// message.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	if coded, ok := As(err); ok {
		return coded.Reason()
	}
	return err.Error()
}

// errorSelector is the 4-byte selector of Error(string).
var errorSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

var revertArgs = func() abi.Arguments {
	stringTy, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: stringTy}}
}()

// RevertData encodes err as Error(string) return data carrying its reason.
func RevertData(err error) []byte {
	packed, packErr := revertArgs.Pack(Reason(err))
	if packErr != nil {
		return nil
	}
	return append(append([]byte{}, errorSelector...), packed...)
}
