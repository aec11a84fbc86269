// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import "github.com/holiman/uint256"

// checkedAdd, checkedSub and checkedMul wrap uint256's overflow-checked
// operations and translate overflow/underflow into the engine's
// categorical errors (spec.md §7), per the "256-bit checked arithmetic"
// requirement of spec.md §9. checkedDiv never overflows and treats
// division by zero as the caller's bug (it only ever occurs, by
// construction, when duration == 0, which add_pool does not reject - see
// DESIGN.md Open Question 1).

func checkedAdd(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func checkedSub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

func checkedMul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// checkedDiv performs floor division; dividing by zero returns
// ErrOverflow since it can only happen on malformed pool state (see
// DESIGN.md Open Question 1) and the engine has no lower-severity
// discriminant for it.
func checkedDiv(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Div(x, y), nil
}

// pow10 computes 10^exp as a uint256, failing with ErrOverflow if the
// result does not fit in 256 bits (exp beyond ~77 would not fit; the
// engine only ever calls this with exp in [MinPrecision, MaxPrecision]
// so overflow here indicates a caller bug, not a reachable user input).
func pow10(exp uint64) (*uint256.Int, error) {
	result := uint256.NewInt(1)
	ten := uint256.NewInt(10)
	var err error
	for i := uint64(0); i < exp; i++ {
		result, err = checkedMul(result, ten)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func u64ToUint256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
