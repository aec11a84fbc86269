// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stake implements the LX Stake precompile: a multi-pool
// reward-accrual staking engine using the accumulator-per-share
// accounting discipline. Users deposit a staking token into a numbered
// pool and earn a reward token proportional to stake multiplied by
// time-in-pool.
package stake

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Precompile address (LP-9090 LXStake)
const LXStakeAddress = "0x0000000000000000000000000000000000009090"

// Operation names, carried from the original Casper entry-point table
// (original_source/LockStaking/src/constants.rs) purely as stable
// identifiers for any future wire/dispatch layer.
const (
	OpInit              = "init"
	OpAddPool           = "add_pool"
	OpDeposit           = "deposit"
	OpWithdraw          = "withdraw"
	OpStopReward        = "stop_reward"
	OpEmergencyWithdraw = "emergency_withdraw"
	OpSetAdmin          = "set_admin"
	OpRescue            = "rescue"
)

// Precision bounds (spec.md §3.1): exponent of the base-10 fixed-point
// scale S = 10^precision.
const (
	MinPrecision = 18
	MaxPrecision = 36
)

// Address is the 32-byte opaque account/token identifier used
// throughout the engine. common.Hash is reused verbatim since it is
// already a fixed [32]byte array type with the textual/hex formatting
// helpers the store's legacy key derivation needs.
type Address = common.Hash

// ZeroAddress is the zero-value Address.
var ZeroAddress = Address{}

// Pool is the on-chain record for a single stake program. Mutated only
// by refresh (accrual), deposit/withdraw/emergency_withdraw (accrual +
// total_staked), and once by StopReward (end_time).
type Pool struct {
	ID                   uint64
	LastRewardTimestamp  uint64
	StakingToken         Address
	RewardToken          Address
	StartTime            uint64
	EndTime              uint64
	Precision            uint64
	Owner                Address
	TotalReward          *uint256.Int
	AccTokenPerShare     *uint256.Int
	TotalStaked          *uint256.Int
}

// Scale returns S = 10^precision for the pool.
func (p *Pool) Scale() (*uint256.Int, error) {
	return pow10(p.Precision)
}

// UserInfo is the per-(pool,account) stake and reward-debt record.
// Absence of a record is equivalent to UserInfo{0, 0} (spec.md §3.2
// invariant 6).
type UserInfo struct {
	Amount     *uint256.Int
	RewardDebt *uint256.Int
}

func zeroUserInfo() UserInfo {
	return UserInfo{Amount: uint256.NewInt(0), RewardDebt: uint256.NewInt(0)}
}

// DepositScenario is the explicit sum type selecting which token
// transfers a deposit performs, kept as one enumerated type and
// switched over in exactly one place (engine.go), per spec.md §9 and
// the pattern dex's selector dispatch uses for its own branching.
type DepositScenario int

const (
	// DepositFirstOrPendingZero covers both "first deposit" and
	// "pending == 0": pull amount of staking_token.
	DepositFirstOrPendingZero DepositScenario = iota
	// DepositSameTokenPendingGreater: pending > amount, reward ==
	// staking token; push pending-amount of staking_token.
	DepositSameTokenPendingGreater
	// DepositSameTokenPendingLesser: pending > 0, <= amount, reward ==
	// staking token; pull amount-pending of staking_token.
	DepositSameTokenPendingLesser
	// DepositDifferentTokens: pending > 0, reward != staking token;
	// push pending of reward_token, then pull amount of staking_token.
	DepositDifferentTokens
)

// WithdrawScenario is the explicit sum type selecting which token
// transfers a withdraw performs.
type WithdrawScenario int

const (
	// WithdrawPendingZero: push amount of staking_token only.
	WithdrawPendingZero WithdrawScenario = iota
	// WithdrawSameToken: reward == staking token, pending > 0; push
	// pending+amount of staking_token.
	WithdrawSameToken
	// WithdrawDifferentTokens: reward != staking token, pending > 0;
	// push pending of reward_token, push amount of staking_token.
	WithdrawDifferentTokens
)

// Errors - categorical discriminants (spec.md §7). The engine never
// recovers locally from any of these; callers see the transaction
// revert with no partial state change.
var (
	ErrAlreadyInitialized  = errors.New("already initialized")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrFormat              = errors.New("format error")
	ErrUnderflow           = errors.New("underflow")
	ErrOverflow            = errors.New("overflow")
	ErrMissingKey          = errors.New("missing key")
	ErrTokenTransferFailed = errors.New("token transfer failed")
	ErrNotInitialized      = errors.New("not initialized")
)
