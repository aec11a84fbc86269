// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stake

import (
	"fmt"

	"github.com/holiman/uint256"
)

// TokenGateway is the adapter over the external fungible-token
// contracts (spec.md §4.3). pull invokes transfer_from(owner, self,
// amount) on token; push invokes transfer(to, amount). Both propagate
// any failure as ErrTokenTransferFailed, which the engine treats as
// fatal: no local compensating action, and the enclosing handler
// aborts with no state change. Deposits therefore require a prior
// off-engine approval from the caller, exactly as spec.md §4.3
// requires.
type TokenGateway interface {
	Pull(token, owner, self Address, amount *uint256.Int) error
	Push(token, to Address, amount *uint256.Int) error
}

// memoryTokenGateway is an in-memory TokenGateway used by tests. It
// tracks a per-(token, account) ledger and can be configured to fail
// the next transfer touching a (token, account) pair to exercise the engine's
// all-or-nothing rollback behavior.
type memoryTokenGateway struct {
	balances map[Address]map[Address]*uint256.Int
	failPull map[Address]map[Address]bool
	failPush map[Address]map[Address]bool
}

// NewMemoryTokenGateway creates an empty in-memory token ledger.
func NewMemoryTokenGateway() *memoryTokenGateway {
	return &memoryTokenGateway{
		balances: make(map[Address]map[Address]*uint256.Int),
		failPull: make(map[Address]map[Address]bool),
		failPush: make(map[Address]map[Address]bool),
	}
}

// Credit sets up an initial balance for (token, account), used by
// tests to fund an account before it deposits or a pool owner before
// it seeds a reward pool.
func (g *memoryTokenGateway) Credit(token, account Address, amount *uint256.Int) {
	g.ensure(token, account)
	g.balances[token][account] = new(uint256.Int).Add(g.balances[token][account], amount)
}

// Balance reports the current ledger balance for (token, account).
func (g *memoryTokenGateway) Balance(token, account Address) *uint256.Int {
	g.ensure(token, account)
	return new(uint256.Int).Set(g.balances[token][account])
}

// FailNextPull/FailNextPush arrange for the next Pull/Push touching
// (token, account) to fail with ErrTokenTransferFailed, simulating an
// external contract abort (e.g. missing approval).
func (g *memoryTokenGateway) FailNextPull(token, account Address) {
	if g.failPull[token] == nil {
		g.failPull[token] = make(map[Address]bool)
	}
	g.failPull[token][account] = true
}

func (g *memoryTokenGateway) FailNextPush(token, account Address) {
	if g.failPush[token] == nil {
		g.failPush[token] = make(map[Address]bool)
	}
	g.failPush[token][account] = true
}

func (g *memoryTokenGateway) ensure(token, account Address) {
	if g.balances[token] == nil {
		g.balances[token] = make(map[Address]*uint256.Int)
	}
	if g.balances[token][account] == nil {
		g.balances[token][account] = uint256.NewInt(0)
	}
}

func (g *memoryTokenGateway) Pull(token, owner, self Address, amount *uint256.Int) error {
	if g.failPull[token][owner] {
		g.failPull[token][owner] = false
		return fmt.Errorf("%w: transfer_from(%s, %s) rejected", ErrTokenTransferFailed, owner.Hex(), self.Hex())
	}
	g.ensure(token, owner)
	g.ensure(token, self)
	if g.balances[token][owner].Lt(amount) {
		return fmt.Errorf("%w: insufficient balance for transfer_from", ErrTokenTransferFailed)
	}
	g.balances[token][owner] = new(uint256.Int).Sub(g.balances[token][owner], amount)
	g.balances[token][self] = new(uint256.Int).Add(g.balances[token][self], amount)
	return nil
}

func (g *memoryTokenGateway) Push(token, to Address, amount *uint256.Int) error {
	if g.failPush[token][to] {
		g.failPush[token][to] = false
		return fmt.Errorf("%w: transfer(%s) rejected", ErrTokenTransferFailed, to.Hex())
	}
	g.ensure(token, to)
	g.balances[token][to] = new(uint256.Int).Add(g.balances[token][to], amount)
	return nil
}
