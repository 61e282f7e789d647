// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.
//
// The go-garnet library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-garnet library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-garnet library. If not, see <http://www.gnu.org/licenses/>.

// Package state provides the in-memory account state backing the garnet
// execution environment: native balances with journaled snapshot/revert.
package state

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// journalEntry is a state change that can be undone.
type journalEntry interface {
	revert(db *StateDB)
}

type (
	// createAccountChange tracks the first touch of an address.
	createAccountChange struct {
		account common.Address
	}
	// balanceChange tracks a balance overwrite.
	balanceChange struct {
		account common.Address
		prev    *uint256.Int
	}
)

func (ch createAccountChange) revert(db *StateDB) {
	delete(db.balances, ch.account)
}

func (ch balanceChange) revert(db *StateDB) {
	db.balances[ch.account] = ch.prev
}

type revision struct {
	id           int
	journalIndex int
}

// StateDB holds account balances and records every mutation in a journal
// so that arbitrary prefixes of the change history can be reverted. It is
// not safe for concurrent use.
type StateDB struct {
	balances map[common.Address]*uint256.Int

	journal        []journalEntry
	validRevisions []revision
	nextRevisionID int
}

// New creates an empty state database.
func New() *StateDB {
	return &StateDB{
		balances: make(map[common.Address]*uint256.Int),
	}
}

// Exist reports whether the address has been touched.
func (s *StateDB) Exist(addr common.Address) bool {
	_, ok := s.balances[addr]
	return ok
}

// CreateAccount makes the address exist with a zero balance. It is a
// no-op for addresses that already exist.
func (s *StateDB) CreateAccount(addr common.Address) {
	if s.Exist(addr) {
		return
	}
	s.journal = append(s.journal, createAccountChange{account: addr})
	s.balances[addr] = new(uint256.Int)
}

// GetBalance returns a copy of the balance, zero for unknown addresses.
func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	if b, ok := s.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// SetBalance overwrites the balance of addr.
func (s *StateDB) SetBalance(addr common.Address, amount *uint256.Int) {
	s.setBalance(addr, new(uint256.Int).Set(amount))
}

// AddBalance credits addr, creating the account if needed.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	s.setBalance(addr, new(uint256.Int).Add(s.GetBalance(addr), amount))
}

// SubBalance debits addr. Callers check for sufficient funds first; the
// runtime refuses transfers that exceed the sender balance.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	s.setBalance(addr, new(uint256.Int).Sub(s.GetBalance(addr), amount))
}

func (s *StateDB) setBalance(addr common.Address, amount *uint256.Int) {
	if prev, ok := s.balances[addr]; ok {
		s.journal = append(s.journal, balanceChange{account: addr, prev: prev})
	} else {
		s.journal = append(s.journal, createAccountChange{account: addr})
	}
	s.balances[addr] = amount
}

// Snapshot returns an identifier for the current state of the journal.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id: id, journalIndex: len(s.journal)})
	return id
}

// RevertToSnapshot undoes all changes made since the given snapshot.
// Reverting invalidates the snapshot and every later one.
func (s *StateDB) RevertToSnapshot(id int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= id
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != id {
		panic(fmt.Errorf("revision id %v cannot be reverted", id))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal backwards to undo changes.
	for i := len(s.journal) - 1; i >= snapshot; i-- {
		s.journal[i].revert(s)
	}
	s.journal = s.journal[:snapshot]
	s.validRevisions = s.validRevisions[:idx]
}
