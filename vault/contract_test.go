// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/vault/contract"
)

const testGas = 1_000_000

func pack(t *testing.T, method string, args ...interface{}) []byte {
	t.Helper()
	input, err := VaultABI.Pack(method, args...)
	require.NoError(t, err)
	return input
}

func TestContractViews(t *testing.T) {
	te := newTestEnv(t)
	c := NewContract(te.vault)
	pool := &minimalTestPool{}
	id := te.registerPool(poolAddrA, MinimalSwapInfo, pool, dai, mkr)
	te.seed(id, &pool.testPool, []common.Address{dai, mkr}, e18(3), e18(4))

	ret, left, err := c.Run(te.env, alice, c.vault.Address(), pack(t, "getNextNonce", poolAddrA), testGas, true)
	require.NoError(t, err)
	require.Equal(t, uint64(testGas)-GasLookup, left)
	out, err := VaultABI.Unpack("getNextNonce", ret)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1), out[0])

	ret, _, err = c.Run(te.env, alice, c.vault.Address(), pack(t, "getPoolTokens", [32]byte(id)), testGas, true)
	require.NoError(t, err)
	out, err = VaultABI.Unpack("getPoolTokens", ret)
	require.NoError(t, err)
	require.Equal(t, []common.Address{dai, mkr}, out[0])
	require.Equal(t, []*big.Int{e18(3).ToBig(), e18(4).ToBig()}, out[1])
	require.Equal(t, big.NewInt(100), out[2])

	ret, _, err = c.Run(te.env, alice, c.vault.Address(), pack(t, "getPool", [32]byte(id)), testGas, true)
	require.NoError(t, err)
	out, err = VaultABI.Unpack("getPool", ret)
	require.NoError(t, err)
	require.Equal(t, poolAddrA, out[0])
	require.Equal(t, uint8(MinimalSwapInfo), out[1])

	ret, _, err = c.Run(te.env, alice, c.vault.Address(), pack(t, "getPausedState"), testGas, true)
	require.NoError(t, err)
	out, err = VaultABI.Unpack("getPausedState", ret)
	require.NoError(t, err)
	require.Equal(t, false, out[0])
}

func TestContractWrites(t *testing.T) {
	te := newTestEnv(t)
	c := NewContract(te.vault)

	input := pack(t, "setRelayerApproval", alice, relayer, true)
	_, _, err := c.Run(te.env, alice, c.vault.Address(), input, testGas, true)
	require.ErrorIs(t, err, contract.ErrWriteProtection)
	require.False(t, te.vault.HasApprovedRelayer(te.env, alice, relayer))

	_, left, err := c.Run(te.env, alice, c.vault.Address(), input, testGas, false)
	require.NoError(t, err)
	require.Equal(t, uint64(testGas)-GasRelayerUpdate, left)
	require.True(t, te.vault.HasApprovedRelayer(te.env, alice, relayer))

	_, _, err = c.Run(te.env, admin, c.vault.Address(), pack(t, "setSwapFeePercentage", big.NewInt(1e17)), testGas, false)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(1e17), te.vault.GetSwapFeePercentage(te.env))
}

func TestContractRevertReason(t *testing.T) {
	te := newTestEnv(t)
	c := NewContract(te.vault)

	ret, _, err := c.Run(te.env, alice, c.vault.Address(), pack(t, "setPaused", true), testGas, false)
	require.Error(t, err)
	reason, unpackErr := abi.UnpackRevert(ret)
	require.NoError(t, unpackErr)
	require.Equal(t, "BAL#401", reason)

	ret, _, err = c.Run(te.env, alice, c.vault.Address(),
		pack(t, "withdrawCollectedFees", []common.Address{dai}, []*big.Int{big.NewInt(1)}), testGas, false)
	require.Error(t, err)
	reason, unpackErr = abi.UnpackRevert(ret)
	require.NoError(t, unpackErr)
	require.Equal(t, "BAL#603", reason)
}

func TestContractGas(t *testing.T) {
	te := newTestEnv(t)
	c := NewContract(te.vault)
	input := pack(t, "getInternalBalance", alice, []common.Address{dai, mkr, weth})

	want := GasLookup + 3*GasPerToken
	require.Equal(t, want, c.RequiredGas(input))

	_, _, err := c.Run(te.env, alice, c.vault.Address(), input, want-1, true)
	require.ErrorIs(t, err, contract.ErrOutOfGas)
	_, left, err := c.Run(te.env, alice, c.vault.Address(), input, want, true)
	require.NoError(t, err)
	require.Zero(t, left)

	require.Zero(t, c.RequiredGas([]byte{1, 2}))
	_, left, err = c.Run(te.env, alice, c.vault.Address(), []byte{1, 2, 3, 4}, testGas, true)
	require.Error(t, err)
	require.Equal(t, uint64(testGas), left)
}

func TestEveryMethodIsInTheABI(t *testing.T) {
	for name := range methods {
		_, ok := VaultABI.Methods[name]
		require.True(t, ok, name)
	}
}
