// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package errcode

// Math
var (
	ErrAddOverflow = New(0, "ADD_OVERFLOW", Arithmetic)
	ErrSubOverflow = New(1, "SUB_OVERFLOW", Arithmetic)
	ErrMulOverflow = New(3, "MUL_OVERFLOW", Arithmetic)
)

// Input
var (
	ErrOutOfBounds          = New(100, "OUT_OF_BOUNDS", StateViolation)
	ErrUnsortedTokens       = New(102, "UNSORTED_TOKENS", StateViolation)
	ErrInputLengthMismatch  = New(103, "INPUT_LENGTH_MISMATCH", StateViolation)
	ErrZeroToken            = New(104, "ZERO_TOKEN", StateViolation)
	ErrInvalidOperationKind = New(105, "INVALID_OPERATION_KIND", StateViolation)
)

// Shared
var (
	ErrReentrancy              = New(400, "REENTRANCY", Reentrancy)
	ErrSenderNotAllowed        = New(401, "SENDER_NOT_ALLOWED", AuthorizationDenied)
	ErrPaused                  = New(402, "PAUSED", StateViolation)
	ErrPauseWindowExpired      = New(403, "PAUSE_WINDOW_EXPIRED", StateViolation)
	ErrMaxPauseWindowDuration  = New(404, "MAX_PAUSE_WINDOW_DURATION", StateViolation)
	ErrMaxBufferPeriodDuration = New(405, "MAX_BUFFER_PERIOD_DURATION", StateViolation)
	ErrBufferPeriodExpired     = New(406, "BUFFER_PERIOD_EXPIRED", StateViolation)
)

// Vault
var (
	ErrInvalidPoolID                = New(500, "INVALID_POOL_ID", StateViolation)
	ErrCallerNotPool                = New(501, "CALLER_NOT_POOL", AuthorizationDenied)
	ErrSenderNotAssetManager        = New(502, "SENDER_NOT_ASSET_MANAGER", AuthorizationDenied)
	ErrExitBelowMin                 = New(505, "EXIT_BELOW_MIN", StateViolation)
	ErrJoinAboveMax                 = New(506, "JOIN_ABOVE_MAX", StateViolation)
	ErrSwapLimit                    = New(507, "SWAP_LIMIT", StateViolation)
	ErrSwapDeadline                 = New(508, "SWAP_DEADLINE", StateViolation)
	ErrCannotSwapSameToken          = New(509, "CANNOT_SWAP_SAME_TOKEN", StateViolation)
	ErrUnknownAmountInFirstSwap     = New(510, "UNKNOWN_AMOUNT_IN_FIRST_SWAP", StateViolation)
	ErrMalconstructedMultihopSwap   = New(511, "MALCONSTRUCTED_MULTIHOP_SWAP", StateViolation)
	ErrInsufficientInternalBalance  = New(513, "INSUFFICIENT_INTERNAL_BALANCE", InsufficientFunds)
	ErrTransferFailed               = New(516, "TRANSFER_FAILED", InsufficientFunds)
	ErrInvalidPostLoanBalance       = New(515, "INVALID_POST_LOAN_BALANCE", InsufficientFunds)
	ErrTokensMismatch               = New(520, "TOKENS_MISMATCH", StateViolation)
	ErrTokenNotRegistered           = New(521, "TOKEN_NOT_REGISTERED", StateViolation)
	ErrTokenAlreadyRegistered       = New(522, "TOKEN_ALREADY_REGISTERED", StateViolation)
	ErrTokensAlreadySet             = New(523, "TOKENS_ALREADY_SET", StateViolation)
	ErrTokensLengthMustBe2          = New(524, "TOKENS_LENGTH_MUST_BE_2", StateViolation)
	ErrNonzeroTokenBalance          = New(525, "NONZERO_TOKEN_BALANCE", StateViolation)
	ErrBalanceTotalOverflow         = New(526, "BALANCE_TOTAL_OVERFLOW", Arithmetic)
	ErrPoolNoTokens                 = New(527, "POOL_NO_TOKENS", StateViolation)
	ErrInsufficientFlashLoanBalance = New(528, "INSUFFICIENT_FLASH_LOAN_BALANCE", InsufficientFunds)
	ErrCannotResetAssetManager      = New(529, "CANNOT_RESET_ASSET_MANAGER", StateViolation)
)

// Fees
var (
	ErrSwapFeePercentageTooHigh      = New(600, "SWAP_FEE_PERCENTAGE_TOO_HIGH", StateViolation)
	ErrFlashLoanFeePercentageTooHigh = New(601, "FLASH_LOAN_FEE_PERCENTAGE_TOO_HIGH", StateViolation)
	ErrInsufficientFlashLoanFee      = New(602, "INSUFFICIENT_FLASH_LOAN_FEE_AMOUNT", InsufficientFunds)
	ErrFeeRecipientNotSet            = New(603, "FEE_RECIPIENT_NOT_SET", StateViolation)
	ErrInsufficientCollectedFees     = New(604, "INSUFFICIENT_COLLECTED_FEES", InsufficientFunds)
)
