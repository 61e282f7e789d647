// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.
//
// Env implements the synchronous call environment that native contracts
// run in: value transfer, contract dispatch and failure containment.

// Package runtime provides the execution environment for native garnet
// contracts. Contracts are Go objects registered at an address; calls
// between them move value through the state database and revert their
// state effects on failure.
package runtime

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// CallDepthLimit is the maximum nesting depth of contract calls.
const CallDepthLimit = 1024

var (
	ErrDepth               = errors.New("max call depth exceeded")
	ErrInsufficientBalance = errors.New("insufficient balance for transfer")
	ErrExecutionReverted   = errors.New("execution reverted")
)

// StateDB is the minimal state interface the environment needs.
type StateDB interface {
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)
	Exist(addr common.Address) bool
	Snapshot() int
	RevertToSnapshot(id int)
}

// Contract is a native contract reachable through Env.Call. Returning a
// non-nil error reverts every state change the invocation made; the
// returned bytes carry the failure payload in that case.
type Contract interface {
	Run(env *Env, caller common.Address, value *uint256.Int, input []byte) ([]byte, error)
}

// Env is a single-threaded call environment over a state database.
type Env struct {
	state     StateDB
	contracts map[common.Address]Contract
	depth     int
}

// NewEnv creates an environment backed by the given state.
func NewEnv(state StateDB) *Env {
	return &Env{
		state:     state,
		contracts: make(map[common.Address]Contract),
	}
}

// StateDB returns the backing state database.
func (e *Env) StateDB() StateDB {
	return e.state
}

// Register installs a contract at the given address, replacing any
// previous registration.
func (e *Env) Register(addr common.Address, c Contract) {
	e.contracts[addr] = c
}

// Contract returns the contract registered at addr.
func (e *Env) Contract(addr common.Address) (Contract, bool) {
	c, ok := e.contracts[addr]
	return c, ok
}

// Depth returns the current call nesting depth.
func (e *Env) Depth() int {
	return e.depth
}

// Call transfers value from caller to dest and runs the contract
// registered there. Addresses without a contract accept plain transfers.
// If the contract fails, all state changes made by the call (the value
// transfer included) are reverted and the failure payload is returned
// alongside the error.
func (e *Env) Call(caller, dest common.Address, value *uint256.Int, input []byte) ([]byte, error) {
	if e.depth >= CallDepthLimit {
		return nil, ErrDepth
	}
	if value == nil {
		value = new(uint256.Int)
	}
	if !value.IsZero() && e.state.GetBalance(caller).Lt(value) {
		return nil, ErrInsufficientBalance
	}

	snapshot := e.state.Snapshot()
	if !value.IsZero() {
		e.state.SubBalance(caller, value)
		e.state.AddBalance(dest, value)
	}

	c, ok := e.contracts[dest]
	if !ok {
		return nil, nil
	}

	e.depth++
	ret, err := c.Run(e, caller, value, input)
	e.depth--

	if err != nil {
		e.state.RevertToSnapshot(snapshot)
		return ret, err
	}
	return ret, nil
}
