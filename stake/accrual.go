// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

// refresh advances pool's reward accumulator to now and returns the
// updated pool. It is a pure function on its inputs: it never reads or
// writes a Store. This is the Go rendering of the original contract's
// update_pool (original_source/LockStaking/src/stake.rs) and spec.md
// §4.4's pseudocode, including the multiply-before-divide ordering
// that preserves precision.
func refresh(pool *Pool, now uint64) (*Pool, error) {
	p := *pool // shallow copy; big.Int/uint256 fields below are replaced, never mutated in place

	if now <= p.LastRewardTimestamp {
		return &p, nil
	}

	if p.TotalStaked.IsZero() || p.StartTime > now {
		p.LastRewardTimestamp = now
		return &p, nil
	}

	if p.LastRewardTimestamp > p.EndTime {
		return &p, nil
	}

	// A pool created with start_time > end_time has no accrual window;
	// the uint64 subtractions below would wrap instead of failing.
	if p.StartTime > p.EndTime {
		return nil, ErrUnderflow
	}

	elapsed := minU64(now, p.EndTime) - maxU64(p.StartTime, p.LastRewardTimestamp)
	duration := p.EndTime - p.StartTime

	scale, err := p.Scale()
	if err != nil {
		return nil, err
	}

	elapsedU, totalRewardU, durationU := u64ToUint256(elapsed), p.TotalReward, u64ToUint256(duration)

	numerator, err := checkedMul(elapsedU, totalRewardU)
	if err != nil {
		return nil, err
	}
	numerator, err = checkedMul(numerator, scale)
	if err != nil {
		return nil, err
	}

	perShareOverDuration, err := checkedDiv(numerator, durationU)
	if err != nil {
		return nil, err
	}

	delta, err := checkedDiv(perShareOverDuration, p.TotalStaked)
	if err != nil {
		return nil, err
	}

	acc, err := checkedAdd(p.AccTokenPerShare, delta)
	if err != nil {
		return nil, err
	}

	p.AccTokenPerShare = acc
	p.LastRewardTimestamp = now
	return &p, nil
}
