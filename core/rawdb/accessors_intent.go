// Copyright 2026 The go-garnet Authors
// This file is part of the go-garnet library.
//
// Database accessors for intent receipts. Receipts are stored by
// intent hash, with a per-sender index for account history scans.

package rawdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/garnetlabs/go-garnet/core/types"
)

var (
	// intentReceiptPrefix is the prefix for stored receipts
	// intentReceiptPrefix + intent hash -> RLP(receipt)
	intentReceiptPrefix = []byte("gir-")

	// senderReceiptPrefix is the prefix for the per-sender receipt index
	// senderReceiptPrefix + sender + intent hash -> empty (existence check)
	senderReceiptPrefix = []byte("girs-")
)

// intentReceiptKey returns the database key for an intent receipt
func intentReceiptKey(hash common.Hash) []byte {
	return append(intentReceiptPrefix, hash.Bytes()...)
}

// senderReceiptKey returns the database key for a sender index entry
func senderReceiptKey(sender common.Address, hash common.Hash) []byte {
	key := make([]byte, 0, len(senderReceiptPrefix)+common.AddressLength+common.HashLength)
	key = append(key, senderReceiptPrefix...)
	key = append(key, sender.Bytes()...)
	key = append(key, hash.Bytes()...)
	return key
}

// HasIntentReceipt checks if a receipt exists for the given intent hash
func HasIntentReceipt(db ethdb.KeyValueReader, hash common.Hash) bool {
	has, _ := db.Has(intentReceiptKey(hash))
	return has
}

// WriteIntentReceipt stores a receipt and its sender index entry
func WriteIntentReceipt(db ethdb.KeyValueWriter, receipt *types.IntentReceipt) {
	data, err := rlp.EncodeToBytes(receipt)
	if err != nil {
		panic("failed to encode intent receipt: " + err.Error())
	}
	if err := db.Put(intentReceiptKey(receipt.IntentHash), data); err != nil {
		panic("failed to write intent receipt: " + err.Error())
	}
	if err := db.Put(senderReceiptKey(receipt.Sender, receipt.IntentHash), []byte{}); err != nil {
		panic("failed to write intent receipt index: " + err.Error())
	}
}

// ReadIntentReceipt retrieves the receipt stored for an intent hash
func ReadIntentReceipt(db ethdb.KeyValueReader, hash common.Hash) (*types.IntentReceipt, bool) {
	data, err := db.Get(intentReceiptKey(hash))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	receipt := new(types.IntentReceipt)
	if err := rlp.DecodeBytes(data, receipt); err != nil {
		return nil, false
	}
	return receipt, true
}

// DeleteIntentReceipt removes a receipt and its sender index entry
func DeleteIntentReceipt(db ethdb.KeyValueWriter, sender common.Address, hash common.Hash) {
	if err := db.Delete(intentReceiptKey(hash)); err != nil {
		panic("failed to delete intent receipt: " + err.Error())
	}
	if err := db.Delete(senderReceiptKey(sender, hash)); err != nil {
		panic("failed to delete intent receipt index: " + err.Error())
	}
}

// IterateSenderReceipts walks the intent hashes of every receipt stored
// for a sender, stopping when fn returns false
func IterateSenderReceipts(db ethdb.Iteratee, sender common.Address, fn func(hash common.Hash) bool) {
	prefix := append(senderReceiptPrefix, sender.Bytes()...)
	it := db.NewIterator(prefix, nil)
	defer it.Release()

	for it.Next() {
		hash := common.BytesToHash(it.Key()[len(prefix):])
		if !fn(hash) {
			break
		}
	}
}
