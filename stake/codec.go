// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// PoolEncodedSize and UserInfoEncodedSize are the fixed wire sizes
// defined by spec.md §4.1. The codec is a pure, total function on
// well-formed input and fails with ErrFormat on any length mismatch.
const (
	PoolEncodedSize     = 232
	UserInfoEncodedSize = 64
)

// EncodePool serializes a Pool to its 232-byte little-endian layout.
func EncodePool(p *Pool) []byte {
	buf := make([]byte, PoolEncodedSize)

	binary.LittleEndian.PutUint64(buf[0:8], p.ID)
	binary.LittleEndian.PutUint64(buf[8:16], p.LastRewardTimestamp)
	copy(buf[16:48], p.StakingToken.Bytes())
	copy(buf[48:80], p.RewardToken.Bytes())
	binary.LittleEndian.PutUint64(buf[80:88], p.StartTime)
	binary.LittleEndian.PutUint64(buf[88:96], p.EndTime)
	binary.LittleEndian.PutUint64(buf[96:104], p.Precision)
	copy(buf[104:136], p.Owner.Bytes())
	putUint256LE(buf[136:168], p.TotalReward)
	putUint256LE(buf[168:200], p.AccTokenPerShare)
	putUint256LE(buf[200:232], p.TotalStaked)

	return buf
}

// DecodePool deserializes a 232-byte buffer into a Pool. Returns
// ErrFormat if src is not exactly PoolEncodedSize bytes.
func DecodePool(src []byte) (*Pool, error) {
	if len(src) != PoolEncodedSize {
		return nil, fmt.Errorf("%w: pool must be %d bytes, got %d", ErrFormat, PoolEncodedSize, len(src))
	}

	p := &Pool{
		ID:                  binary.LittleEndian.Uint64(src[0:8]),
		LastRewardTimestamp: binary.LittleEndian.Uint64(src[8:16]),
		StakingToken:        Address(src[16:48]),
		RewardToken:         Address(src[48:80]),
		StartTime:           binary.LittleEndian.Uint64(src[80:88]),
		EndTime:             binary.LittleEndian.Uint64(src[88:96]),
		Precision:           binary.LittleEndian.Uint64(src[96:104]),
		Owner:               Address(src[104:136]),
		TotalReward:         getUint256LE(src[136:168]),
		AccTokenPerShare:    getUint256LE(src[168:200]),
		TotalStaked:         getUint256LE(src[200:232]),
	}

	return p, nil
}

// EncodeUserInfo serializes a UserInfo to its 64-byte little-endian
// layout: amount (32) followed by reward_debt (32).
func EncodeUserInfo(u *UserInfo) []byte {
	buf := make([]byte, UserInfoEncodedSize)
	putUint256LE(buf[0:32], u.Amount)
	putUint256LE(buf[32:64], u.RewardDebt)
	return buf
}

// DecodeUserInfo deserializes a 64-byte buffer into a UserInfo. Returns
// ErrFormat if src is not exactly UserInfoEncodedSize bytes.
func DecodeUserInfo(src []byte) (*UserInfo, error) {
	if len(src) != UserInfoEncodedSize {
		return nil, fmt.Errorf("%w: user info must be %d bytes, got %d", ErrFormat, UserInfoEncodedSize, len(src))
	}
	return &UserInfo{
		Amount:     getUint256LE(src[0:32]),
		RewardDebt: getUint256LE(src[32:64]),
	}, nil
}

// putUint256LE writes x into dst (which must be exactly 32 bytes) as a
// little-endian 256-bit integer. uint256.Int is internally four
// little-endian uint64 limbs (z[0] least significant); this writes
// each limb's bytes in place, which is the Go-idiomatic equivalent of
// Rust's U256::to_little_endian used by the original contract
// (original_source/LockStaking/src/pool.rs).
func putUint256LE(dst []byte, x *uint256.Int) {
	binary.LittleEndian.PutUint64(dst[0:8], x[0])
	binary.LittleEndian.PutUint64(dst[8:16], x[1])
	binary.LittleEndian.PutUint64(dst[16:24], x[2])
	binary.LittleEndian.PutUint64(dst[24:32], x[3])
}

// getUint256LE reads a 32-byte little-endian buffer into a new
// uint256.Int.
func getUint256LE(src []byte) *uint256.Int {
	return &uint256.Int{
		binary.LittleEndian.Uint64(src[0:8]),
		binary.LittleEndian.Uint64(src[8:16]),
		binary.LittleEndian.Uint64(src[16:24]),
		binary.LittleEndian.Uint64(src[24:32]),
	}
}
