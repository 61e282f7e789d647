// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.

/*
Package account implements the garnet smart account: a contract account
controlled by a single ECDSA owner key and driven by a dispatcher.

The account holds native balance in the execution environment and acts
only when asked to by its dispatcher (intent validation, settlement) or
by its owner (direct execution, ownership transfer).

# Architecture

The account is built from four pieces:

 1. Access guard - every entry point first checks the caller identity.
    ValidateIntent accepts the dispatcher only; Execute accepts the
    dispatcher or the owner; TransferOwnership accepts the owner only.

 2. Signature validator - recovers the signer of an intent hash from a
    65-byte [R || S || V] secp256k1 signature over the EIP-191 wrapped
    digest and compares it against the current owner. Recovery results
    are cached.

 3. Settlement - during validation the account reimburses whatever
    prefund the dispatcher reports as missing, by pushing value to the
    caller. The transfer outcome is dropped.

 4. Executor - performs one outbound call with arbitrary destination,
    value and payload. Failures surface as *types.RevertError carrying
    the callee's raw failure payload.

# Intent Flow

	Owner signs intent hash (EIP-191 wrapped)
	    → Dispatcher calls ValidateIntent:
	        1. Reject callers other than the dispatcher
	        2. Recover the signer, compare against the owner
	        3. Pay the missing prefund to the caller, result ignored
	        4. Report VALID or INVALID
	    → Dispatcher calls Execute with the intent's call details

# Trust Model

The dispatcher and the owner are fully trusted: anything reachable
through the guard executes without further policy. The account keeps no
nonce sequence and no reentrancy lock; replay protection and call
ordering live one layer up, in the dispatcher and the intent hash
domain.
*/
package account
