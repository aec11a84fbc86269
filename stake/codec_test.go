// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func mustUint256(s string) *uint256.Int {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCodec_PoolRoundTrip(t *testing.T) {
	pool := &Pool{
		ID:                  7,
		LastRewardTimestamp: 12345,
		StakingToken:        Address{1, 2, 3},
		RewardToken:         Address{4, 5, 6},
		StartTime:           100,
		EndTime:             200,
		Precision:           18,
		Owner:               Address{9, 9, 9},
		TotalReward:         mustUint256("500000000000"),
		AccTokenPerShare:    mustUint256("123456789012345678901234567890"),
		TotalStaked:         mustUint256("100000000000"),
	}

	encoded := EncodePool(pool)
	require.Len(t, encoded, PoolEncodedSize)

	decoded, err := DecodePool(encoded)
	require.NoError(t, err)
	require.Equal(t, pool, decoded)
}

func TestCodec_PoolFieldOffsets(t *testing.T) {
	pool := &Pool{
		ID:                  0x0102030405060708,
		LastRewardTimestamp: 0,
		StakingToken:        Address{},
		RewardToken:         Address{},
		StartTime:           0,
		EndTime:             0,
		Precision:           0,
		Owner:               Address{},
		TotalReward:         uint256.NewInt(0),
		AccTokenPerShare:    uint256.NewInt(0),
		TotalStaked:         uint256.NewInt(0),
	}
	encoded := EncodePool(pool)
	// id is little-endian at offset 0
	require.Equal(t, byte(0x08), encoded[0])
	require.Equal(t, byte(0x01), encoded[7])
}

func TestCodec_PoolRejectsWrongLength(t *testing.T) {
	_, err := DecodePool(make([]byte, PoolEncodedSize-1))
	require.ErrorIs(t, err, ErrFormat)

	_, err = DecodePool(make([]byte, PoolEncodedSize+1))
	require.ErrorIs(t, err, ErrFormat)
}

func TestCodec_UserInfoRoundTrip(t *testing.T) {
	u := &UserInfo{
		Amount:     mustUint256("999999999999999999999"),
		RewardDebt: mustUint256("1"),
	}
	encoded := EncodeUserInfo(u)
	require.Len(t, encoded, UserInfoEncodedSize)

	decoded, err := DecodeUserInfo(encoded)
	require.NoError(t, err)
	require.Equal(t, u, decoded)
}

func TestCodec_UserInfoRejectsWrongLength(t *testing.T) {
	_, err := DecodeUserInfo(make([]byte, UserInfoEncodedSize-1))
	require.ErrorIs(t, err, ErrFormat)
}

func TestCodec_ZeroUserInfoRoundTrip(t *testing.T) {
	u := zeroUserInfo()
	encoded := EncodeUserInfo(&u)
	decoded, err := DecodeUserInfo(encoded)
	require.NoError(t, err)
	require.True(t, decoded.Amount.IsZero())
	require.True(t, decoded.RewardDebt.IsZero())
}
