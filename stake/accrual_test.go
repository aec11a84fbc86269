// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func newTestPool(start, end, precision uint64, totalReward *uint256.Int) *Pool {
	return &Pool{
		ID:                  0,
		LastRewardTimestamp: 0,
		StakingToken:        Address{1},
		RewardToken:         Address{1},
		StartTime:           start,
		EndTime:             end,
		Precision:           precision,
		Owner:               Address{2},
		TotalReward:         totalReward,
		AccTokenPerShare:    uint256.NewInt(0),
		TotalStaked:         uint256.NewInt(0),
	}
}

func TestRefresh_NoOpWhenNowNotAfterLastReward(t *testing.T) {
	pool := newTestPool(0, 100, 18, uint256.NewInt(1000))
	pool.LastRewardTimestamp = 50
	pool.TotalStaked = uint256.NewInt(10)

	out, err := refresh(pool, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(50), out.LastRewardTimestamp)
	require.True(t, out.AccTokenPerShare.IsZero())
}

func TestRefresh_AdvancesTimestampWithoutAccrualWhenNoStake(t *testing.T) {
	pool := newTestPool(0, 100, 18, uint256.NewInt(1000))

	out, err := refresh(pool, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(10), out.LastRewardTimestamp)
	require.True(t, out.AccTokenPerShare.IsZero())
}

func TestRefresh_AdvancesTimestampWhenBeforeStart(t *testing.T) {
	pool := newTestPool(100, 200, 18, uint256.NewInt(1000))
	pool.TotalStaked = uint256.NewInt(5)

	out, err := refresh(pool, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(50), out.LastRewardTimestamp)
	require.True(t, out.AccTokenPerShare.IsZero())
}

func TestRefresh_NoOpOncePastEndAndAlreadyTouchedPastEnd(t *testing.T) {
	pool := newTestPool(0, 100, 18, uint256.NewInt(1000))
	pool.TotalStaked = uint256.NewInt(5)
	pool.LastRewardTimestamp = 150 // already touched past end

	out, err := refresh(pool, 200)
	require.NoError(t, err)
	require.Equal(t, uint64(150), out.LastRewardTimestamp)
}

func TestRefresh_FullDurationSingleStaker(t *testing.T) {
	scale := mustUint256("1000000000000000000") // 1e18
	reward := mustUint256("500000000000")        // R
	pool := newTestPool(0, 100, 18, reward)
	pool.TotalStaked = reward // stake == R, arbitrary magnitude check

	out, err := refresh(pool, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(100), out.LastRewardTimestamp)

	// acc = elapsed(100) * reward * S / duration(100) / staked(reward) = S
	require.Equal(t, scale, out.AccTokenPerShare)
}

func TestRefresh_PartialElapsedIsProportional(t *testing.T) {
	reward := mustUint256("500000000000")
	pool := newTestPool(100, 200, 18, reward)
	pool.TotalStaked = mustUint256("100000000000")

	out, err := refresh(pool, 150) // half the duration
	require.NoError(t, err)

	// acc*staked/S should equal half of reward, within integer-division dust
	scale, _ := pow10(18)
	accTimesStaked := new(uint256.Int).Mul(out.AccTokenPerShare, pool.TotalStaked)
	paid := new(uint256.Int).Div(accTimesStaked, scale)
	half := new(uint256.Int).Div(reward, uint256.NewInt(2))
	diff := new(uint256.Int).Sub(paid, half)
	require.True(t, diff.Lt(uint256.NewInt(1000)), "accrued %s should be close to half of reward %s", paid, half)
}

func TestRefresh_DivisionByZeroDurationOverflows(t *testing.T) {
	pool := newTestPool(50, 50, 18, uint256.NewInt(1000)) // degenerate: start == end
	pool.TotalStaked = uint256.NewInt(10)

	_, err := refresh(pool, 60)
	require.ErrorIs(t, err, ErrOverflow)
}
