// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package balance

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/vault/errcode"
)

func u(v uint64) *uint256.Int { return uint256.NewInt(v) }

func mustPack(t *testing.T, cash, managed *uint256.Int) Balance {
	t.Helper()
	b, err := Pack(cash, managed)
	require.NoError(t, err)
	return b
}

func TestPackRoundTrip(t *testing.T) {
	half := new(uint256.Int).Rsh(MaxAmount, 1)
	tests := []struct {
		name    string
		cash    *uint256.Int
		managed *uint256.Int
	}{
		{"zero", u(0), u(0)},
		{"cash only", u(200e18 / 1e9), u(0)},
		{"managed only", u(0), u(42)},
		{"max cash", MaxAmount, u(0)},
		{"max managed", u(0), MaxAmount},
		{"split max", half, new(uint256.Int).Sub(MaxAmount, half)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustPack(t, tt.cash, tt.managed)
			require.Equal(t, tt.cash, b.Cash())
			require.Equal(t, tt.managed, b.Managed())
			require.Equal(t, new(uint256.Int).Add(tt.cash, tt.managed), b.Total())
			require.Equal(t, !tt.managed.IsZero(), b.IsManaged())
		})
	}
}

func TestPackBounds(t *testing.T) {
	over := new(uint256.Int).Add(MaxAmount, u(1))

	_, err := Pack(over, u(0))
	require.ErrorIs(t, err, errcode.ErrAddOverflow)

	_, err = Pack(u(0), over)
	require.ErrorIs(t, err, errcode.ErrAddOverflow)

	_, err = Pack(MaxAmount, u(1))
	require.ErrorIs(t, err, errcode.ErrBalanceTotalOverflow)
}

func TestCashArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		cash    *uint256.Int
		managed *uint256.Int
		delta   *uint256.Int
	}{
		{"small", u(10), u(5), u(3)},
		{"zero delta", u(10), u(0), u(0)},
		{"to the limit", u(0), u(0), MaxAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustPack(t, tt.cash, tt.managed)

			up, err := b.IncreaseCash(tt.delta)
			require.NoError(t, err)
			down, err := up.DecreaseCash(tt.delta)
			require.NoError(t, err)
			require.True(t, b.Equal(down))

			out, err := b.CashToManaged(tt.cash)
			require.NoError(t, err)
			require.Equal(t, b.Total(), out.Total())
			back, err := out.ManagedToCash(tt.cash)
			require.NoError(t, err)
			require.True(t, b.Equal(back))
		})
	}
}

func TestArithmeticFailures(t *testing.T) {
	maxCash := mustPack(t, MaxAmount, u(0))
	_, err := maxCash.IncreaseCash(u(1))
	require.ErrorIs(t, err, errcode.ErrAddOverflow)

	_, err = Zero.DecreaseCash(u(1))
	require.ErrorIs(t, err, errcode.ErrSubOverflow)

	b := mustPack(t, u(10), u(5))
	_, err = b.CashToManaged(u(11))
	require.ErrorIs(t, err, errcode.ErrSubOverflow)
	_, err = b.ManagedToCash(u(6))
	require.ErrorIs(t, err, errcode.ErrSubOverflow)

	nearFull := mustPack(t, new(uint256.Int).Sub(MaxAmount, u(1)), u(0))
	_, err = nearFull.SetManaged(u(2))
	require.ErrorIs(t, err, errcode.ErrBalanceTotalOverflow)
	_, err = nearFull.IncreaseCash(u(2))
	require.ErrorIs(t, err, errcode.ErrAddOverflow)

	managedHeavy := mustPack(t, u(0), new(uint256.Int).Sub(MaxAmount, u(1)))
	_, err = managedHeavy.IncreaseCash(u(2))
	require.ErrorIs(t, err, errcode.ErrBalanceTotalOverflow)
}

func TestSetManaged(t *testing.T) {
	b := mustPack(t, u(190), u(10))
	updated, err := b.SetManaged(u(11))
	require.NoError(t, err)
	require.Equal(t, u(190), updated.Cash())
	require.Equal(t, u(11), updated.Managed())
	require.Equal(t, u(201), updated.Total())

	cleared, err := updated.SetManaged(u(0))
	require.NoError(t, err)
	require.False(t, cleared.IsManaged())
}

func TestWordRoundTrip(t *testing.T) {
	s := Stamped{Balance: mustPack(t, MaxAmount, u(0)), LastChangeBlock: 0xffffffff}
	got := FromWord(s.Word())
	require.True(t, s.Equal(got.Balance))
	require.Equal(t, s.LastChangeBlock, got.LastChangeBlock)

	s = Stamped{Balance: mustPack(t, u(7), u(9)), LastChangeBlock: 12}
	word := s.Word()
	// cash occupies the lowest bytes
	require.Equal(t, byte(7), word[31])
	got = FromWord(word)
	require.Equal(t, u(7), got.Cash())
	require.Equal(t, u(9), got.Managed())
	require.Equal(t, uint32(12), got.LastChangeBlock)

	require.True(t, FromWord(Stamped{}.Word()).IsZero())
}

func TestSharedRoundTrip(t *testing.T) {
	a := mustPack(t, u(190), u(10))
	b := mustPack(t, MaxAmount, u(0))

	cash, managed := PackShared(a, b, 77)
	gotA, gotB := UnpackShared(cash, managed)

	require.True(t, a.Equal(gotA.Balance))
	require.True(t, b.Equal(gotB.Balance))
	require.Equal(t, uint32(77), gotA.LastChangeBlock)
	require.Equal(t, gotA.LastChangeBlock, gotB.LastChangeBlock)
}

func TestTotalsAndLastChangeBlock(t *testing.T) {
	totals, last := TotalsAndLastChangeBlock([]Stamped{
		{Balance: mustPack(t, u(1), u(2)), LastChangeBlock: 5},
		{Balance: mustPack(t, u(10), u(0)), LastChangeBlock: 9},
		{Balance: Zero, LastChangeBlock: 3},
	})
	require.Equal(t, []*uint256.Int{u(3), u(10), u(0)}, totals)
	require.Equal(t, uint32(9), last)

	totals, last = TotalsAndLastChangeBlock(nil)
	require.Empty(t, totals)
	require.Zero(t, last)
}
