// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// ReceiptStatusFailed is the status of an intent that was rejected
	// or whose execution reverted.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status of an intent whose call
	// completed without reverting.
	ReceiptStatusSuccessful = uint64(1)
)

// IntentReceipt records the outcome of one handled intent.
type IntentReceipt struct {
	IntentHash common.Hash
	Sender     common.Address
	Status     uint64
	GasUsed    uint64
	ActualCost *uint256.Int
	Revert     []byte // raw failure payload of the outbound call, if any
	Reason     string
}

// Succeeded reports whether the intent executed without failure.
func (r *IntentReceipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}
