// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import "github.com/parsdao/vault/contract"

// VaultABI describes the precompile methods and every event the Vault emits.
var VaultABI = contract.ParseABI(vaultABIJSON)

const vaultABIJSON = `[
  {"type":"event","name":"AuthorizerChanged","inputs":[
    {"name":"newAuthorizer","type":"address","indexed":true}]},
  {"type":"event","name":"PausedStateChanged","inputs":[
    {"name":"paused","type":"bool","indexed":false}]},
  {"type":"event","name":"PoolRegistered","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"poolAddress","type":"address","indexed":true},
    {"name":"specialization","type":"uint8","indexed":false}]},
  {"type":"event","name":"TokensRegistered","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"tokens","type":"address[]","indexed":false},
    {"name":"assetManagers","type":"address[]","indexed":false}]},
  {"type":"event","name":"TokensDeregistered","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"tokens","type":"address[]","indexed":false}]},
  {"type":"event","name":"AssetManagerSet","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"token","type":"address","indexed":true},
    {"name":"assetManager","type":"address","indexed":false}]},
  {"type":"event","name":"PoolBalanceManaged","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"assetManager","type":"address","indexed":true},
    {"name":"token","type":"address","indexed":true},
    {"name":"cashDelta","type":"int256","indexed":false},
    {"name":"managedDelta","type":"int256","indexed":false}]},
  {"type":"event","name":"PoolBalanceChanged","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"liquidityProvider","type":"address","indexed":true},
    {"name":"tokens","type":"address[]","indexed":false},
    {"name":"deltas","type":"int256[]","indexed":false},
    {"name":"protocolFeeAmounts","type":"uint256[]","indexed":false}]},
  {"type":"event","name":"Swap","inputs":[
    {"name":"poolId","type":"bytes32","indexed":true},
    {"name":"tokenIn","type":"address","indexed":true},
    {"name":"tokenOut","type":"address","indexed":true},
    {"name":"amountIn","type":"uint256","indexed":false},
    {"name":"amountOut","type":"uint256","indexed":false}]},
  {"type":"event","name":"FlashLoan","inputs":[
    {"name":"recipient","type":"address","indexed":true},
    {"name":"token","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"feeAmount","type":"uint256","indexed":false}]},
  {"type":"event","name":"InternalBalanceChanged","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"token","type":"address","indexed":true},
    {"name":"delta","type":"int256","indexed":false}]},
  {"type":"event","name":"ExternalBalanceTransfer","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"sender","type":"address","indexed":true},
    {"name":"recipient","type":"address","indexed":false},
    {"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"RelayerApprovalChanged","inputs":[
    {"name":"relayer","type":"address","indexed":true},
    {"name":"sender","type":"address","indexed":true},
    {"name":"approved","type":"bool","indexed":false}]},
  {"type":"event","name":"TrustedOperatorReported","inputs":[
    {"name":"operator","type":"address","indexed":true}]},
  {"type":"event","name":"TrustedOperatorRevoked","inputs":[
    {"name":"operator","type":"address","indexed":true}]},
  {"type":"event","name":"SwapFeePercentageChanged","inputs":[
    {"name":"newSwapFeePercentage","type":"uint256","indexed":false}]},
  {"type":"event","name":"FlashLoanFeePercentageChanged","inputs":[
    {"name":"newFlashLoanFeePercentage","type":"uint256","indexed":false}]},
  {"type":"event","name":"FeeRecipientChanged","inputs":[
    {"name":"recipient","type":"address","indexed":true}]},
  {"type":"event","name":"ProtocolFeesWithdrawn","inputs":[
    {"name":"token","type":"address","indexed":true},
    {"name":"recipient","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}]},

  {"type":"function","name":"getPoolTokens","stateMutability":"view","inputs":[
    {"name":"poolId","type":"bytes32"}],"outputs":[
    {"name":"tokens","type":"address[]"},
    {"name":"balances","type":"uint256[]"},
    {"name":"lastChangeBlock","type":"uint256"}]},
  {"type":"function","name":"getPoolTokenInfo","stateMutability":"view","inputs":[
    {"name":"poolId","type":"bytes32"},
    {"name":"token","type":"address"}],"outputs":[
    {"name":"cash","type":"uint256"},
    {"name":"managed","type":"uint256"},
    {"name":"lastChangeBlock","type":"uint256"},
    {"name":"assetManager","type":"address"}]},
  {"type":"function","name":"getPool","stateMutability":"view","inputs":[
    {"name":"poolId","type":"bytes32"}],"outputs":[
    {"name":"pool","type":"address"},
    {"name":"specialization","type":"uint8"}]},
  {"type":"function","name":"getNextNonce","stateMutability":"view","inputs":[
    {"name":"pool","type":"address"}],"outputs":[
    {"name":"nonce","type":"uint256"}]},
  {"type":"function","name":"getInternalBalance","stateMutability":"view","inputs":[
    {"name":"user","type":"address"},
    {"name":"tokens","type":"address[]"}],"outputs":[
    {"name":"balances","type":"uint256[]"}]},
  {"type":"function","name":"hasApprovedRelayer","stateMutability":"view","inputs":[
    {"name":"user","type":"address"},
    {"name":"relayer","type":"address"}],"outputs":[
    {"name":"approved","type":"bool"}]},
  {"type":"function","name":"isTrustedOperator","stateMutability":"view","inputs":[
    {"name":"operator","type":"address"}],"outputs":[
    {"name":"trusted","type":"bool"}]},
  {"type":"function","name":"setRelayerApproval","stateMutability":"nonpayable","inputs":[
    {"name":"sender","type":"address"},
    {"name":"relayer","type":"address"},
    {"name":"approved","type":"bool"}],"outputs":[]},
  {"type":"function","name":"reportTrustedOperator","stateMutability":"nonpayable","inputs":[
    {"name":"operator","type":"address"}],"outputs":[]},
  {"type":"function","name":"revokeTrustedOperator","stateMutability":"nonpayable","inputs":[
    {"name":"operator","type":"address"}],"outputs":[]},
  {"type":"function","name":"getCollectedFeeAmounts","stateMutability":"view","inputs":[
    {"name":"tokens","type":"address[]"}],"outputs":[
    {"name":"feeAmounts","type":"uint256[]"}]},
  {"type":"function","name":"getSwapFeePercentage","stateMutability":"view","inputs":[],"outputs":[
    {"name":"percentage","type":"uint256"}]},
  {"type":"function","name":"getFlashLoanFeePercentage","stateMutability":"view","inputs":[],"outputs":[
    {"name":"percentage","type":"uint256"}]},
  {"type":"function","name":"setSwapFeePercentage","stateMutability":"nonpayable","inputs":[
    {"name":"newSwapFeePercentage","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setFlashLoanFeePercentage","stateMutability":"nonpayable","inputs":[
    {"name":"newFlashLoanFeePercentage","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"getFeeRecipient","stateMutability":"view","inputs":[],"outputs":[
    {"name":"recipient","type":"address"}]},
  {"type":"function","name":"setFeeRecipient","stateMutability":"nonpayable","inputs":[
    {"name":"recipient","type":"address"}],"outputs":[]},
  {"type":"function","name":"withdrawCollectedFees","stateMutability":"nonpayable","inputs":[
    {"name":"tokens","type":"address[]"},
    {"name":"amounts","type":"uint256[]"}],"outputs":[]},
  {"type":"function","name":"getPausedState","stateMutability":"view","inputs":[],"outputs":[
    {"name":"paused","type":"bool"},
    {"name":"pauseWindowEndTime","type":"uint256"},
    {"name":"bufferPeriodEndTime","type":"uint256"}]},
  {"type":"function","name":"setPaused","stateMutability":"nonpayable","inputs":[
    {"name":"paused","type":"bool"}],"outputs":[]}
]`
