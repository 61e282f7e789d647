// Copyright 2026 The go-garnet Authors
// This file is part of the go-garnet library.

package rawdb

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"

	"github.com/garnetlabs/go-garnet/core/types"
)

func TestIntentReceiptStorage(t *testing.T) {
	db := memorydb.New()
	receipt := &types.IntentReceipt{
		IntentHash: common.HexToHash("0x0101"),
		Sender:     common.HexToAddress("0xacc1"),
		Status:     types.ReceiptStatusFailed,
		GasUsed:    21048,
		ActualCost: uint256.NewInt(42096),
		Revert:     []byte{0xde, 0xad},
		Reason:     "execution reverted",
	}

	if HasIntentReceipt(db, receipt.IntentHash) {
		t.Fatal("receipt present before write")
	}
	if _, ok := ReadIntentReceipt(db, receipt.IntentHash); ok {
		t.Fatal("read succeeded before write")
	}

	WriteIntentReceipt(db, receipt)
	if !HasIntentReceipt(db, receipt.IntentHash) {
		t.Fatal("receipt missing after write")
	}

	got, ok := ReadIntentReceipt(db, receipt.IntentHash)
	if !ok {
		t.Fatal("stored receipt not readable")
	}
	if got.IntentHash != receipt.IntentHash || got.Sender != receipt.Sender {
		t.Errorf("identity fields: have %s/%s, want %s/%s",
			got.IntentHash, got.Sender, receipt.IntentHash, receipt.Sender)
	}
	if got.Status != receipt.Status || got.GasUsed != receipt.GasUsed {
		t.Errorf("outcome fields: have %d/%d, want %d/%d",
			got.Status, got.GasUsed, receipt.Status, receipt.GasUsed)
	}
	if got.ActualCost.Cmp(receipt.ActualCost) != 0 {
		t.Errorf("actual cost: have %s, want %s", got.ActualCost, receipt.ActualCost)
	}
	if !bytes.Equal(got.Revert, receipt.Revert) || got.Reason != receipt.Reason {
		t.Errorf("failure fields: have %x/%q, want %x/%q",
			got.Revert, got.Reason, receipt.Revert, receipt.Reason)
	}

	DeleteIntentReceipt(db, receipt.Sender, receipt.IntentHash)
	if HasIntentReceipt(db, receipt.IntentHash) {
		t.Fatal("receipt still present after delete")
	}
}

func TestIterateSenderReceipts(t *testing.T) {
	db := memorydb.New()
	sender := common.HexToAddress("0xacc1")
	other := common.HexToAddress("0xacc2")

	hashes := []common.Hash{
		common.HexToHash("0xa1"),
		common.HexToHash("0xa2"),
		common.HexToHash("0xa3"),
	}
	for _, hash := range hashes {
		WriteIntentReceipt(db, &types.IntentReceipt{
			IntentHash: hash,
			Sender:     sender,
			Status:     types.ReceiptStatusSuccessful,
			ActualCost: new(uint256.Int),
		})
	}
	WriteIntentReceipt(db, &types.IntentReceipt{
		IntentHash: common.HexToHash("0xbb"),
		Sender:     other,
		Status:     types.ReceiptStatusSuccessful,
		ActualCost: new(uint256.Int),
	})

	seen := make(map[common.Hash]bool)
	IterateSenderReceipts(db, sender, func(hash common.Hash) bool {
		seen[hash] = true
		return true
	})
	if len(seen) != len(hashes) {
		t.Fatalf("iterated %d receipts, want %d", len(seen), len(hashes))
	}
	for _, hash := range hashes {
		if !seen[hash] {
			t.Errorf("receipt %s not iterated", hash)
		}
	}

	count := 0
	IterateSenderReceipts(db, sender, func(common.Hash) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("early stop iterated %d receipts, want 1", count)
	}
}
