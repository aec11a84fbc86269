// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"fmt"

	"github.com/holiman/uint256"
	log "github.com/luxfi/log"
)

// DictPools and DictUsers are the two named dictionaries the engine
// requires from the host store (spec.md §4.2/§6.2).
const (
	DictPools = "pools"
	DictUsers = "users"
)

// Config carries the engine's tunables, in the style of dex's
// per-precompile Config (dex/module.go) but constructed directly
// rather than parsed from a chain-config JSON document, since this
// engine has no chain-config host to parse one from.
type Config struct {
	// MaxPools limits the number of pools that may be created; zero
	// means unlimited. Not in spec.md's Non-goals list but a sane
	// operational guard a real deployment would want; left at zero by
	// default so it never changes spec.md's documented behavior.
	MaxPools uint64

	// FixStopRewardAsset controls which token StopReward refunds in.
	// false (default) preserves the original contract's behavior of
	// refunding in staking_token (spec.md §9 Open Question 2, almost
	// certainly a source bug for dual-token pools). true refunds in
	// reward_token instead, the behavior a new deployment should
	// probably choose. See DESIGN.md.
	FixStopRewardAsset bool
}

// Engine composes the Store and TokenGateway collaborators and
// implements the transaction handlers of spec.md §4.5. It holds no
// state of its own beyond its collaborators and config; all durable
// state lives in Store.
type Engine struct {
	store  Store
	tokens TokenGateway
	cfg    Config
	log    log.Logger
}

// NewEngine constructs an Engine. logger may be nil, in which case a
// no-op test logger is used, mirroring ThresholdClient's default
// (threshold/client.go's NewThresholdClient uses log.NewTestLogger).
func NewEngine(store Store, tokens TokenGateway, cfg Config, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewTestLogger(log.InfoLevel)
	}
	return &Engine{store: store, tokens: tokens, cfg: cfg, log: logger}
}

// Init creates the pools/users dictionaries and marks the engine
// initialized. Fails with ErrAlreadyInitialized if called twice
// (spec.md §4.5 init).
func (e *Engine) Init(selfID Address) error {
	if e.store.Initialized() {
		return ErrAlreadyInitialized
	}
	if err := e.store.NewDictionary(DictPools); err != nil {
		return fmt.Errorf("creating %s dictionary: %w", DictPools, err)
	}
	if err := e.store.NewDictionary(DictUsers); err != nil {
		return fmt.Errorf("creating %s dictionary: %w", DictUsers, err)
	}
	e.store.SetSelfID(selfID)
	e.store.SetNextPoolID(0)
	e.store.SetInitialized(true)
	e.log.Info(fmt.Sprintf("stake engine initialized: self_id=%s", selfID.Hex()))
	return nil
}

// AddPool creates a new pool owned by caller and pulls totalReward of
// rewardToken from caller into the engine's own custody (spec.md §4.5
// add_pool).
func (e *Engine) AddPool(
	caller Address,
	stakingToken, rewardToken Address,
	startTime, endTime, precision uint64,
	totalReward *uint256.Int,
) (uint64, error) {
	if !e.store.Initialized() {
		return 0, ErrNotInitialized
	}

	now := e.store.Now()
	if startTime < now || endTime < now {
		return 0, fmt.Errorf("%w: start/end time must not be in the past", ErrInvalidArgument)
	}
	if totalReward == nil || totalReward.IsZero() {
		return 0, fmt.Errorf("%w: total_reward must be > 0", ErrInvalidArgument)
	}
	if precision < MinPrecision || precision > MaxPrecision {
		return 0, fmt.Errorf("%w: precision must be in [%d, %d]", ErrInvalidArgument, MinPrecision, MaxPrecision)
	}

	id := e.store.NextPoolID()
	if e.cfg.MaxPools != 0 && id >= e.cfg.MaxPools {
		return 0, fmt.Errorf("%w: pool limit reached", ErrInvalidArgument)
	}

	pool := &Pool{
		ID:                  id,
		LastRewardTimestamp: 0,
		StakingToken:        stakingToken,
		RewardToken:         rewardToken,
		StartTime:           startTime,
		EndTime:             endTime,
		Precision:           precision,
		Owner:               caller,
		TotalReward:         new(uint256.Int).Set(totalReward),
		AccTokenPerShare:    uint256.NewInt(0),
		TotalStaked:         uint256.NewInt(0),
	}

	if err := e.tokens.Pull(rewardToken, caller, e.store.SelfID(), totalReward); err != nil {
		return 0, err
	}

	e.store.PoolPut(id, EncodePool(pool))
	e.store.SetNextPoolID(id + 1)
	e.log.Info(fmt.Sprintf("pool created: pool_id=%d owner=%s", id, caller.Hex()))
	return id, nil
}

// Deposit stakes amount of the pool's staking token on behalf of
// caller, refreshing the pool's accumulator first and paying out (or
// topping up) pending reward as dictated by the pool's deposit
// scenario (spec.md §4.5 deposit).
func (e *Engine) Deposit(caller Address, poolID uint64, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidArgument)
	}

	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}

	now := e.store.Now()
	pool, err = refresh(pool, now)
	if err != nil {
		return err
	}
	if now > pool.EndTime {
		return fmt.Errorf("%w: pool has ended", ErrInvalidArgument)
	}

	user, err := e.loadUser(poolID, caller)
	if err != nil {
		return err
	}
	firstDeposit := user.Amount.IsZero()

	scale, err := pool.Scale()
	if err != nil {
		return err
	}

	pendingBefore, err := checkedMul(user.Amount, pool.AccTokenPerShare)
	if err != nil {
		return err
	}
	pendingBefore, err = checkedDiv(pendingBefore, scale)
	if err != nil {
		return err
	}
	pending, err := checkedSub(pendingBefore, user.RewardDebt)
	if err != nil {
		return err
	}

	newAmount, err := checkedAdd(user.Amount, amount)
	if err != nil {
		return err
	}
	newTotalStaked, err := checkedAdd(pool.TotalStaked, amount)
	if err != nil {
		return err
	}
	newRewardDebt, err := checkedMul(newAmount, pool.AccTokenPerShare)
	if err != nil {
		return err
	}
	newRewardDebt, err = checkedDiv(newRewardDebt, scale)
	if err != nil {
		return err
	}

	sameToken := pool.RewardToken == pool.StakingToken

	if err := e.executeDepositTransfers(pool, caller, amount, pending, firstDeposit, sameToken); err != nil {
		return err
	}

	user.Amount = newAmount
	user.RewardDebt = newRewardDebt
	pool.TotalStaked = newTotalStaked

	e.store.PoolPut(poolID, EncodePool(pool))
	e.store.UserPut(poolID, caller, EncodeUserInfo(user))
	return nil
}

// executeDepositTransfers selects and runs the deposit scenario's
// transfers (spec.md §4.5 table). It must run before any Store write
// so a failing transfer leaves no partial state change.
func (e *Engine) executeDepositTransfers(
	pool *Pool, caller Address, amount, pending *uint256.Int, firstDeposit, sameToken bool,
) error {
	scenario := classifyDeposit(pending, amount, firstDeposit, sameToken)
	self := e.store.SelfID()

	switch scenario {
	case DepositFirstOrPendingZero:
		return e.tokens.Pull(pool.StakingToken, caller, self, amount)

	case DepositSameTokenPendingGreater:
		diff, err := checkedSub(pending, amount)
		if err != nil {
			return err
		}
		return e.tokens.Push(pool.StakingToken, caller, diff)

	case DepositSameTokenPendingLesser:
		diff, err := checkedSub(amount, pending)
		if err != nil {
			return err
		}
		return e.tokens.Pull(pool.StakingToken, caller, self, diff)

	case DepositDifferentTokens:
		if err := e.tokens.Push(pool.RewardToken, caller, pending); err != nil {
			return err
		}
		return e.tokens.Pull(pool.StakingToken, caller, self, amount)

	default:
		return fmt.Errorf("unreachable deposit scenario %d", scenario)
	}
}

// classifyDeposit selects the DepositScenario per the table in
// spec.md §4.5.
func classifyDeposit(pending, amount *uint256.Int, firstDeposit, sameToken bool) DepositScenario {
	if firstDeposit || pending.IsZero() {
		return DepositFirstOrPendingZero
	}
	if sameToken {
		if pending.Gt(amount) {
			return DepositSameTokenPendingGreater
		}
		return DepositSameTokenPendingLesser
	}
	return DepositDifferentTokens
}

// Withdraw unstakes amount of the pool's staking token for caller,
// refreshing the pool first and paying out pending reward as dictated
// by the pool's withdraw scenario (spec.md §4.5 withdraw).
func (e *Engine) Withdraw(caller Address, poolID uint64, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidArgument)
	}

	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}

	user, err := e.loadUser(poolID, caller)
	if err != nil {
		return err
	}
	if user.Amount.IsZero() {
		return fmt.Errorf("%w: no stake to withdraw", ErrInvalidArgument)
	}

	pool, err = refresh(pool, e.store.Now())
	if err != nil {
		return err
	}

	scale, err := pool.Scale()
	if err != nil {
		return err
	}

	pendingBefore, err := checkedMul(user.Amount, pool.AccTokenPerShare)
	if err != nil {
		return err
	}
	pendingBefore, err = checkedDiv(pendingBefore, scale)
	if err != nil {
		return err
	}
	pending, err := checkedSub(pendingBefore, user.RewardDebt)
	if err != nil {
		return err
	}

	newAmount, err := checkedSub(user.Amount, amount)
	if err != nil {
		return err
	}
	newTotalStaked, err := checkedSub(pool.TotalStaked, amount)
	if err != nil {
		return err
	}
	newRewardDebt, err := checkedMul(newAmount, pool.AccTokenPerShare)
	if err != nil {
		return err
	}
	newRewardDebt, err = checkedDiv(newRewardDebt, scale)
	if err != nil {
		return err
	}

	sameToken := pool.RewardToken == pool.StakingToken
	if err := e.executeWithdrawTransfers(pool, caller, amount, pending, sameToken); err != nil {
		return err
	}

	user.Amount = newAmount
	user.RewardDebt = newRewardDebt
	pool.TotalStaked = newTotalStaked

	e.store.PoolPut(poolID, EncodePool(pool))
	e.store.UserPut(poolID, caller, EncodeUserInfo(user))
	return nil
}

func (e *Engine) executeWithdrawTransfers(pool *Pool, caller Address, amount, pending *uint256.Int, sameToken bool) error {
	scenario := classifyWithdraw(pending, sameToken)

	switch scenario {
	case WithdrawPendingZero:
		return e.tokens.Push(pool.StakingToken, caller, amount)

	case WithdrawSameToken:
		total, err := checkedAdd(pending, amount)
		if err != nil {
			return err
		}
		return e.tokens.Push(pool.StakingToken, caller, total)

	case WithdrawDifferentTokens:
		if err := e.tokens.Push(pool.RewardToken, caller, pending); err != nil {
			return err
		}
		return e.tokens.Push(pool.StakingToken, caller, amount)

	default:
		return fmt.Errorf("unreachable withdraw scenario %d", scenario)
	}
}

// classifyWithdraw selects the WithdrawScenario per the table in
// spec.md §4.5.
func classifyWithdraw(pending *uint256.Int, sameToken bool) WithdrawScenario {
	if pending.IsZero() {
		return WithdrawPendingZero
	}
	if sameToken {
		return WithdrawSameToken
	}
	return WithdrawDifferentTokens
}

// StopReward is authorized to pool.owner only. It refreshes the pool,
// refunds the unearned remainder of total_reward to the owner, and
// shortens end_time to now (spec.md §4.5 stop_reward).
//
// The refund asset preserves the original contract's behavior
// (staking_token) unless Config.FixStopRewardAsset is set — see
// spec.md §9 Open Question 2 and DESIGN.md.
func (e *Engine) StopReward(caller Address, poolID uint64) error {
	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}
	if pool.Owner != caller {
		return ErrUnauthorized
	}

	now := e.store.Now()
	pool, err = refresh(pool, now)
	if err != nil {
		return err
	}
	if pool.EndTime <= now {
		return fmt.Errorf("%w: pool already ended", ErrInvalidArgument)
	}

	oldEnd := pool.EndTime
	duration := oldEnd - pool.StartTime
	remaining := oldEnd - maxU64(now, pool.StartTime)

	refund, err := checkedMul(u64ToUint256(remaining), pool.TotalReward)
	if err != nil {
		return err
	}
	refund, err = checkedDiv(refund, u64ToUint256(duration))
	if err != nil {
		return err
	}

	refundAsset := pool.StakingToken
	if e.cfg.FixStopRewardAsset {
		refundAsset = pool.RewardToken
	}
	if err := e.tokens.Push(refundAsset, caller, refund); err != nil {
		return err
	}

	pool.EndTime = now
	e.store.PoolPut(poolID, EncodePool(pool))
	e.log.Info(fmt.Sprintf("stop_reward: pool_id=%d refund=%s", poolID, refund.Dec()))
	return nil
}

// EmergencyWithdraw returns caller's full stake without paying out
// reward and without refreshing the pool's accumulator (spec.md §4.5
// emergency_withdraw). Skipping refresh is deliberate: the foregone
// pending reward is implicitly redistributed to the remaining stakers
// because acc_token_per_share is never caught up for it. This matches
// original_source/LockStaking/src/stake.rs's emergency_withdraw
// exactly, which never calls update_pool.
func (e *Engine) EmergencyWithdraw(caller Address, poolID uint64) error {
	pool, err := e.loadPool(poolID)
	if err != nil {
		return err
	}

	user, err := e.loadUser(poolID, caller)
	if err != nil {
		return err
	}
	if user.Amount.IsZero() {
		return fmt.Errorf("%w: no stake to withdraw", ErrInvalidArgument)
	}

	amount := user.Amount
	newTotalStaked, err := checkedSub(pool.TotalStaked, amount)
	if err != nil {
		return err
	}

	if err := e.tokens.Push(pool.StakingToken, caller, amount); err != nil {
		return err
	}

	pool.TotalStaked = newTotalStaked
	user.Amount = uint256.NewInt(0)
	user.RewardDebt = uint256.NewInt(0)

	e.store.PoolPut(poolID, EncodePool(pool))
	e.store.UserPut(poolID, caller, EncodeUserInfo(user))
	return nil
}

// SetAdmin replaces the global admin. Authorized to the current admin
// only (spec.md §4.5 set_admin).
func (e *Engine) SetAdmin(caller, newAdmin Address) error {
	if caller != e.store.Admin() {
		return ErrUnauthorized
	}
	e.store.SetAdmin(newAdmin)
	return nil
}

// Rescue pushes amount of token to caller. Authorized to admin only
// (spec.md §4.5 rescue). This is a privileged backdoor by design: it
// can move any token the engine custodies, including live pool
// principal and reward inventory, which is why it is gated to admin
// alone and every caller path must be covered by an authorization
// test (spec.md §9).
func (e *Engine) Rescue(caller, token Address, amount *uint256.Int) error {
	if caller != e.store.Admin() {
		return ErrUnauthorized
	}
	return e.tokens.Push(token, caller, amount)
}

// loadPool loads and decodes the pool at id, distinguishing "pool
// never created" (ErrInvalidArgument, id >= next_pool_id) from "pool
// created but its record is unreadable" (ErrMissingKey, store
// corruption) — the same two-step check as the original contract's
// is_id_valid + get_pool (original_source/LockStaking/src/stake.rs).
func (e *Engine) loadPool(id uint64) (*Pool, error) {
	if id >= e.store.NextPoolID() {
		return nil, fmt.Errorf("%w: unknown pool id %d", ErrInvalidArgument, id)
	}
	raw, ok := e.store.PoolGet(id)
	if !ok {
		return nil, fmt.Errorf("%w: pool %d has no record", ErrMissingKey, id)
	}
	return DecodePool(raw)
}

// loadUser loads the user record for (poolID, caller), defaulting to
// the zero UserInfo if none exists (spec.md §3.2 invariant 6). Any
// record that does exist but fails to decode is store corruption and
// surfaces as ErrFormat rather than being silently treated as empty.
func (e *Engine) loadUser(poolID uint64, caller Address) (*UserInfo, error) {
	raw, ok := e.store.UserGet(poolID, caller)
	if !ok {
		zero := zeroUserInfo()
		return &zero, nil
	}
	return DecodeUserInfo(raw)
}
