// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

// Store is the typed facade over the host's key-value persistence
// layer (spec.md §4.2). It models a singleton store exposing typed
// scalars, two named dictionaries ("pools" and "users"), and a
// block-timestamp oracle. The engine never touches raw bytes except
// through this interface; codec.go owns the byte layout.
//
// This mirrors the StateDB-style interface dex/pool_manager.go injects
// into PoolManager, generalized from fixed 32-byte storage slots to
// the named-dictionary-of-byte-blobs model the original Casper
// contract actually used (original_source/LockStaking).
type Store interface {
	Admin() Address
	SetAdmin(Address)
	Initialized() bool
	SetInitialized(bool)
	SelfID() Address
	SetSelfID(Address)
	NextPoolID() uint64
	SetNextPoolID(uint64)

	NewDictionary(name string) error

	PoolPut(id uint64, data []byte)
	PoolGet(id uint64) ([]byte, bool)

	UserPut(poolID uint64, caller Address, data []byte)
	UserGet(poolID uint64, caller Address) ([]byte, bool)

	// Now returns the host-supplied block timestamp, constant for the
	// duration of a single handler invocation (spec.md §5).
	Now() uint64
}

// KeyMode selects how dictionary keys are derived from identifiers.
type KeyMode int

const (
	// KeyModeLegacy truncates the textual form of an identifier to 15
	// characters before appending the decimal pool id, preserved only
	// for wire compatibility with an existing deployment (spec.md §9
	// Open Question 3). It admits collisions between accounts sharing
	// a 15-character hex prefix.
	KeyModeLegacy KeyMode = iota
	// KeyModeFull hashes the full 32-byte identifier with blake3
	// before appending the pool id, eliminating the truncation
	// collision. Recommended for new deployments.
	KeyModeFull
)

// memoryStore is an in-memory reference Store, used by tests and
// standing in for the host persistence layer this engine is designed
// to run against. Production hosts provide their own Store
// implementation over durable storage; this one exists so the engine
// and its invariants can be exercised without one.
type memoryStore struct {
	admin       Address
	initialized bool
	selfID      Address
	nextPoolID  uint64

	dictionaries map[string]bool
	pools        map[string][]byte
	users        map[string][]byte

	keyMode KeyMode
	now     uint64
}

// NewMemoryStore creates an in-memory Store seeded with the given
// admin account and clock. keyMode selects legacy-truncated or
// full-identifier dictionary keys (see KeyMode).
func NewMemoryStore(admin Address, keyMode KeyMode, now uint64) Store {
	return &memoryStore{
		admin:        admin,
		dictionaries: make(map[string]bool),
		pools:        make(map[string][]byte),
		users:        make(map[string][]byte),
		keyMode:      keyMode,
		now:          now,
	}
}

func (s *memoryStore) Admin() Address         { return s.admin }
func (s *memoryStore) SetAdmin(a Address)     { s.admin = a }
func (s *memoryStore) Initialized() bool      { return s.initialized }
func (s *memoryStore) SetInitialized(b bool)  { s.initialized = b }
func (s *memoryStore) SelfID() Address        { return s.selfID }
func (s *memoryStore) SetSelfID(a Address)    { s.selfID = a }
func (s *memoryStore) NextPoolID() uint64     { return s.nextPoolID }
func (s *memoryStore) SetNextPoolID(v uint64) { s.nextPoolID = v }
func (s *memoryStore) Now() uint64            { return s.now }

// SetNow advances the host-supplied clock. Only meant for test
// drivers; a real host derives Now() from the current block.
func (s *memoryStore) SetNow(now uint64) { s.now = now }

func (s *memoryStore) NewDictionary(name string) error {
	if s.dictionaries[name] {
		return fmt.Errorf("dictionary %q already exists", name)
	}
	s.dictionaries[name] = true
	return nil
}

func (s *memoryStore) PoolPut(id uint64, data []byte) {
	s.pools[s.poolKey(id)] = append([]byte(nil), data...)
}

func (s *memoryStore) PoolGet(id uint64) ([]byte, bool) {
	data, ok := s.pools[s.poolKey(id)]
	return data, ok
}

func (s *memoryStore) UserPut(poolID uint64, caller Address, data []byte) {
	s.users[s.userKey(poolID, caller)] = append([]byte(nil), data...)
}

func (s *memoryStore) UserGet(poolID uint64, caller Address) ([]byte, bool) {
	data, ok := s.users[s.userKey(poolID, caller)]
	return data, ok
}

// userKey derives the dictionary key for a (caller, poolID) pair.
// poolKey below derives the pools-dictionary key the same way from
// (selfID, poolID); both dictionaries are string-keyed maps, as the
// host's real dictionaries are.
func (s *memoryStore) userKey(poolID uint64, caller Address) string {
	return s.identifierKey(caller, poolID)
}

func (s *memoryStore) poolKey(poolID uint64) string {
	return s.identifierKey(s.selfID, poolID)
}

func (s *memoryStore) identifierKey(id Address, poolID uint64) string {
	switch s.keyMode {
	case KeyModeFull:
		h := blake3.New()
		h.Write(id.Bytes())
		var digest [32]byte
		h.Digest().Read(digest[:])
		return fmt.Sprintf("%x%d", digest, poolID)
	default:
		text := id.Hex()
		if len(text) > 15 {
			text = text[:15]
		}
		return text + strconv.FormatUint(poolID, 10)
	}
}
