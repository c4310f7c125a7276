// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the configuration contract shared by all
// stateful precompiles.
package precompileconfig

import "math/big"

// Config is the JSON-configured activation of a precompile.
type Config interface {
	// Key returns the key used in json config files.
	Key() string
	// Timestamp returns the activation time, nil if never activated.
	Timestamp() *uint64
	// IsDisabled reports whether this upgrade disables the precompile.
	IsDisabled() bool
	Equal(Config) bool
	Verify(ChainConfig) error
}

// ChainConfig is the part of the chain config a precompile may consult.
type ChainConfig interface {
	ChainID() *big.Int
}

// Upgrade contains the timestamp for an upgrade along with a boolean
// indicating if the upgrade disables the precompile.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

// Timestamp returns the timestamp this upgrade activates at.
func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// Equal returns true iff [other] has the same activation and disable flag.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	switch {
	case u.BlockTimestamp == nil && other.BlockTimestamp == nil:
		return true
	case u.BlockTimestamp == nil || other.BlockTimestamp == nil:
		return false
	default:
		return *u.BlockTimestamp == *other.BlockTimestamp
	}
}
