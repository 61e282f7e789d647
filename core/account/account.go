// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.
//
// Account implements dispatcher-driven intent validation, prefund
// settlement and guarded execution for a single-owner smart account.

package account

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/garnetlabs/go-garnet/core/runtime"
	"github.com/garnetlabs/go-garnet/core/types"
)

// inmemorySignatures is the number of recent signature recoveries to keep cached.
const inmemorySignatures = 1024

var (
	// ErrUnauthorized is the base error for access guard rejections.
	ErrUnauthorized = errors.New("unauthorized caller")

	ErrNotDispatcher        = fmt.Errorf("%w: dispatcher only", ErrUnauthorized)
	ErrNotDispatcherOrOwner = fmt.Errorf("%w: dispatcher or owner only", ErrUnauthorized)
	ErrNotOwner             = fmt.Errorf("%w: owner only", ErrUnauthorized)

	ErrNilIntent = errors.New("nil intent")
	ErrZeroOwner = errors.New("new owner is the zero address")
)

// sigLRU caches recovered signers keyed by keccak256(digest || signature).
type sigLRU = lru.Cache[common.Hash, common.Address]

// Account is a smart account bound to one owner key and one dispatcher.
// It is registered in a runtime environment at its address and funded
// through plain value transfers.
type Account struct {
	address    common.Address
	owner      common.Address
	dispatcher common.Address

	sigcache *sigLRU
}

// New creates an account at address, owned by owner and served by the
// given dispatcher.
func New(address, owner, dispatcher common.Address) *Account {
	return &Account{
		address:    address,
		owner:      owner,
		dispatcher: dispatcher,
		sigcache:   lru.NewCache[common.Hash, common.Address](inmemorySignatures),
	}
}

// Address returns the account address.
func (a *Account) Address() common.Address {
	return a.address
}

// Owner returns the current owner.
func (a *Account) Owner() common.Address {
	return a.owner
}

// Dispatcher returns the dispatcher this account trusts.
func (a *Account) Dispatcher() common.Address {
	return a.dispatcher
}

// requireDispatcher rejects every caller except the dispatcher.
func (a *Account) requireDispatcher(caller common.Address) error {
	if caller != a.dispatcher {
		return ErrNotDispatcher
	}
	return nil
}

// requireDispatcherOrOwner rejects every caller except the dispatcher
// and the current owner.
func (a *Account) requireDispatcherOrOwner(caller common.Address) error {
	if caller != a.dispatcher && caller != a.owner {
		return ErrNotDispatcherOrOwner
	}
	return nil
}

// TransferOwnership hands the account to newOwner. Only the current
// owner may call it; the zero address is refused.
func (a *Account) TransferOwnership(caller, newOwner common.Address) error {
	if caller != a.owner {
		return ErrNotOwner
	}
	if newOwner == (common.Address{}) {
		return ErrZeroOwner
	}
	a.owner = newOwner
	return nil
}

// ValidateIntent checks the intent signature and settles the missing
// prefund with the caller. The caller must be the dispatcher; the guard
// runs before any other effect. The prefund is paid whether or not the
// signature checks out, and its transfer outcome is ignored. A failed
// signature check is reported through the result, not the error.
func (a *Account) ValidateIntent(env *runtime.Env, caller common.Address, intent *types.Intent, intentHash common.Hash, missingFunds *uint256.Int) (types.ValidationResult, error) {
	if err := a.requireDispatcher(caller); err != nil {
		return types.IntentInvalid, err
	}
	if intent == nil {
		return types.IntentInvalid, ErrNilIntent
	}
	result := a.validateSignature(intentHash, intent.Signature)
	a.payPrefund(env, caller, missingFunds)
	return result, nil
}

// validateSignature recovers the signer of the EIP-191 wrapped intent
// hash and compares it against the current owner. Any recovery failure
// (short signature, bad recovery id, malformed curve point) is INVALID.
func (a *Account) validateSignature(intentHash common.Hash, sig []byte) types.ValidationResult {
	wrapped := accounts.TextHash(intentHash.Bytes())
	signer, err := a.recoverSigner(wrapped, sig)
	if err != nil {
		return types.IntentInvalid
	}
	if signer != a.owner {
		return types.IntentInvalid
	}
	return types.IntentValid
}

// recoverSigner extracts the signing address from a [R || S || V]
// signature over digest, caching results. The cache stores recovered
// addresses, not verdicts, so an ownership transfer never stales it.
func (a *Account) recoverSigner(digest, sig []byte) (common.Address, error) {
	key := crypto.Keccak256Hash(digest, sig)
	if signer, known := a.sigcache.Get(key); known {
		return signer, nil
	}
	pubkey, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	var signer common.Address
	copy(signer[:], crypto.Keccak256(pubkey[1:])[12:])
	a.sigcache.Add(key, signer)
	return signer, nil
}

// payPrefund pushes the missing funds to the caller. A zero or nil
// amount sends nothing. The transfer outcome is dropped: a dispatcher
// that cannot take delivery forfeits the reimbursement and validation
// carries on.
func (a *Account) payPrefund(env *runtime.Env, caller common.Address, missingFunds *uint256.Int) {
	if missingFunds == nil || missingFunds.IsZero() {
		return
	}
	_, _ = env.Call(a.address, caller, missingFunds, nil)
}

// Execute performs one outbound call from the account. The caller must
// be the dispatcher or the owner. A failed call is reported as a
// *types.RevertError carrying the callee's raw failure payload; the
// environment has already reverted the call's state effects by then.
func (a *Account) Execute(env *runtime.Env, caller, dest common.Address, value *uint256.Int, payload []byte) error {
	if err := a.requireDispatcherOrOwner(caller); err != nil {
		return err
	}
	ret, err := env.Call(a.address, dest, value, payload)
	if err != nil {
		return &types.RevertError{Ret: ret, Err: err}
	}
	return nil
}

// Run implements runtime.Contract. A call with no payload is a plain
// value deposit and always succeeds. The account exposes no payload
// handler, so anything else reverts.
func (a *Account) Run(env *runtime.Env, caller common.Address, value *uint256.Int, input []byte) ([]byte, error) {
	if len(input) == 0 {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: account has no payload handler", runtime.ErrExecutionReverted)
}
