// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.
//
// Intent is the signed request record that dispatchers relay to smart
// accounts: who acts, what to call, and what gas the sender will fund.

// Package types holds the shared data types of the garnet account layer.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Intent describes one action a smart account is asked to perform. The
// Signature covers the intent hash, which binds every other field plus
// the chain ID and the dispatcher address.
type Intent struct {
	Sender       common.Address // smart account the intent acts through
	Nonce        *uint256.Int   // sender-chosen sequence value, hashed but not sequenced
	Dest         common.Address // call target
	Value        *uint256.Int   // native value forwarded with the call
	Data         []byte         // call payload
	GasLimit     uint64         // gas the sender funds for the whole intent
	MaxFeePerGas *uint256.Int   // price per gas unit the sender agreed to
	Signature    []byte         // owner signature over the intent hash
}

// Copy returns a deep copy of the intent.
func (in *Intent) Copy() *Intent {
	cpy := &Intent{
		Sender:    in.Sender,
		Dest:      in.Dest,
		Data:      common.CopyBytes(in.Data),
		GasLimit:  in.GasLimit,
		Signature: common.CopyBytes(in.Signature),
	}
	if in.Nonce != nil {
		cpy.Nonce = new(uint256.Int).Set(in.Nonce)
	}
	if in.Value != nil {
		cpy.Value = new(uint256.Int).Set(in.Value)
	}
	if in.MaxFeePerGas != nil {
		cpy.MaxFeePerGas = new(uint256.Int).Set(in.MaxFeePerGas)
	}
	return cpy
}

// Hash returns the signing hash of the intent. The signature field is
// excluded; chainID and dispatcher are mixed in so a signed intent is
// only valid for one dispatcher on one chain.
func (in *Intent) Hash(chainID *uint256.Int, dispatcher common.Address) common.Hash {
	if in == nil {
		return common.Hash{}
	}
	return rlpHash([]interface{}{
		in.Sender,
		uint256OrZero(in.Nonce),
		in.Dest,
		uint256OrZero(in.Value),
		in.Data,
		in.GasLimit,
		uint256OrZero(in.MaxFeePerGas),
		uint256OrZero(chainID),
		dispatcher,
	})
}

// rlpHash encodes x and hashes the encoding with keccak256.
func rlpHash(x interface{}) (h common.Hash) {
	hasher := sha3.NewLegacyKeccak256()
	rlp.Encode(hasher, x)
	hasher.(crypto.KeccakState).Read(h[:])
	return h
}

func uint256OrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}

// ValidationResult is the outcome an account reports for an intent.
type ValidationResult uint8

const (
	// IntentInvalid means the signature did not recover to the owner.
	IntentInvalid ValidationResult = iota
	// IntentValid means the intent was signed by the current owner.
	IntentValid
)

func (r ValidationResult) String() string {
	switch r {
	case IntentInvalid:
		return "INVALID"
	case IntentValid:
		return "VALID"
	default:
		return "UNKNOWN"
	}
}
