// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// ============================================================================
// PRECOMPILE ADDRESS SCHEME - Aligned with LP Numbering
// ============================================================================
//
// Settlement precompiles use trailing-significant 20-byte addresses:
//   Format: 0x0000000000000000000000000000000000PCII
//
// The address ends with the 16-bit LP number (PCII):
//   0x 0000...0000 P C II
//                  │ │ └┴─ Item (8 bits)
//                  │ └──── Chain slot (4 bits)
//                  └────── Family page (4 bits, P=9 for DEX/Markets)
//
// The Vault suite occupies items 0x30-0x3F of the markets page on slot 0,
// so the same addresses are used on every chain that enables it.
//
// Example: Vault = P=9, C=0, II=0x30 -> 0x0000000000000000000000000000000000009030

// Items of the Vault suite on the markets page.
const (
	// VaultItem is the balance accounting and settlement engine (LP-9030).
	VaultItem uint8 = 0x30
	// ProtocolFeesCollectorItem is the action target for protocol fee
	// administration (LP-9031).
	ProtocolFeesCollectorItem uint8 = 0x31
	// AuthorizerItem is the default role-based authorizer (LP-9032).
	AuthorizerItem uint8 = 0x32
)

var (
	VaultAddress                 = suiteAddress(VaultItem)
	ProtocolFeesCollectorAddress = suiteAddress(ProtocolFeesCollectorItem)
	AuthorizerAddress            = suiteAddress(AuthorizerItem)
)

func suiteAddress(item uint8) common.Address {
	return PrecompileAddress(FamilyPage("markets"), ChainSlot("P"), item)
}

// PrecompileAddress calculates address from (P, C, II) nibbles
// P = Family page, C = Chain slot, II = Item
// Returns trailing-significant format: 0x0000000000000000000000000000000000PCII
func PrecompileAddress(p, c, ii uint8) common.Address {
	if p > 15 || c > 15 {
		return common.Address{}
	}
	selector := fmt.Sprintf("%x%x%02x", p, c, ii)
	addr := "0000000000000000000000000000000000" + selector
	return common.HexToAddress("0x" + addr)
}

// ChainSlot returns the C-nibble for a chain name
func ChainSlot(chain string) uint8 {
	switch chain {
	case "P", "p":
		return 0
	case "X", "x":
		return 1
	case "C", "c":
		return 2
	default:
		return 0xFF
	}
}

// FamilyPage returns the P-nibble for a family name
func FamilyPage(family string) uint8 {
	switch family {
	case "DEX", "dex", "Markets", "markets":
		return 9 // LP-9xxx
	default:
		return 0xFF
	}
}
