// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.

package types

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

func baseIntent() *Intent {
	return &Intent{
		Sender:       common.HexToAddress("0x1111"),
		Nonce:        uint256.NewInt(7),
		Dest:         common.HexToAddress("0x2222"),
		Value:        uint256.NewInt(1500),
		Data:         []byte{0x01, 0x02, 0x03},
		GasLimit:     100000,
		MaxFeePerGas: uint256.NewInt(2),
		Signature:    []byte{0xff, 0xee},
	}
}

var (
	testChainID    = uint256.NewInt(2751)
	testDispatcher = common.HexToAddress("0x00000000000000000000000000000000000d15aa")
)

func TestIntentHashDeterministic(t *testing.T) {
	a := baseIntent().Hash(testChainID, testDispatcher)
	b := baseIntent().Hash(testChainID, testDispatcher)
	if a != b {
		t.Fatalf("hash not deterministic: %s vs %s", a, b)
	}
	if a == (common.Hash{}) {
		t.Fatal("hash of a populated intent is zero")
	}
}

func TestIntentHashBindsFields(t *testing.T) {
	base := baseIntent().Hash(testChainID, testDispatcher)

	muts := []struct {
		name   string
		mutate func(*Intent)
	}{
		{"sender", func(in *Intent) { in.Sender = common.HexToAddress("0x9999") }},
		{"nonce", func(in *Intent) { in.Nonce = uint256.NewInt(8) }},
		{"dest", func(in *Intent) { in.Dest = common.HexToAddress("0x9999") }},
		{"value", func(in *Intent) { in.Value = uint256.NewInt(1501) }},
		{"data", func(in *Intent) { in.Data = []byte{0x01, 0x02, 0x04} }},
		{"gasLimit", func(in *Intent) { in.GasLimit = 100001 }},
		{"maxFeePerGas", func(in *Intent) { in.MaxFeePerGas = uint256.NewInt(3) }},
	}
	for _, m := range muts {
		in := baseIntent()
		m.mutate(in)
		if in.Hash(testChainID, testDispatcher) == base {
			t.Errorf("mutating %s did not change the hash", m.name)
		}
	}
}

func TestIntentHashBindsDomain(t *testing.T) {
	base := baseIntent().Hash(testChainID, testDispatcher)

	if baseIntent().Hash(uint256.NewInt(1), testDispatcher) == base {
		t.Error("changing the chain ID did not change the hash")
	}
	if baseIntent().Hash(testChainID, common.HexToAddress("0xbeef")) == base {
		t.Error("changing the dispatcher did not change the hash")
	}
}

func TestIntentHashIgnoresSignature(t *testing.T) {
	base := baseIntent().Hash(testChainID, testDispatcher)

	in := baseIntent()
	in.Signature = []byte("something else entirely")
	if in.Hash(testChainID, testDispatcher) != base {
		t.Fatal("signature must not feed into the intent hash")
	}
}

func TestIntentHashNilFields(t *testing.T) {
	in := baseIntent()
	in.Nonce = nil
	in.Value = nil
	in.MaxFeePerGas = nil
	a := in.Hash(testChainID, testDispatcher)

	in2 := baseIntent()
	in2.Nonce = new(uint256.Int)
	in2.Value = new(uint256.Int)
	in2.MaxFeePerGas = new(uint256.Int)
	if b := in2.Hash(testChainID, testDispatcher); a != b {
		t.Fatalf("nil fields should hash like zero fields: %s vs %s", a, b)
	}

	var nilIntent *Intent
	if nilIntent.Hash(testChainID, testDispatcher) != (common.Hash{}) {
		t.Fatal("nil intent should hash to zero")
	}
}

func TestIntentRLPRoundTrip(t *testing.T) {
	in := baseIntent()
	data, err := rlp.EncodeToBytes(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded := new(Intent)
	if err := rlp.DecodeBytes(data, decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Hash(testChainID, testDispatcher) != in.Hash(testChainID, testDispatcher) {
		t.Error("decoded intent hashes differently")
	}
	if !bytes.Equal(decoded.Signature, in.Signature) {
		t.Errorf("signature: have %x, want %x", decoded.Signature, in.Signature)
	}
}

func TestIntentCopy(t *testing.T) {
	in := baseIntent()
	cpy := in.Copy()

	if cpy.Sender != in.Sender || cpy.Dest != in.Dest || cpy.GasLimit != in.GasLimit {
		t.Fatal("copy lost scalar fields")
	}
	if cpy.Nonce == in.Nonce || cpy.Value == in.Value || cpy.MaxFeePerGas == in.MaxFeePerGas {
		t.Fatal("copy shares uint256 pointers with the original")
	}

	cpy.Data[0] = 0xaa
	cpy.Signature[0] = 0xaa
	cpy.Value.SetUint64(0)
	if in.Data[0] != 0x01 || in.Signature[0] != 0xff || in.Value.Uint64() != 1500 {
		t.Fatal("mutating the copy changed the original")
	}
}

func TestValidationResultString(t *testing.T) {
	if got := IntentValid.String(); got != "VALID" {
		t.Errorf("have %q, want %q", got, "VALID")
	}
	if got := IntentInvalid.String(); got != "INVALID" {
		t.Errorf("have %q, want %q", got, "INVALID")
	}
	if got := ValidationResult(42).String(); got != "UNKNOWN" {
		t.Errorf("have %q, want %q", got, "UNKNOWN")
	}
}

func TestReceiptSucceeded(t *testing.T) {
	r := &IntentReceipt{Status: ReceiptStatusSuccessful}
	if !r.Succeeded() {
		t.Error("successful receipt reported failure")
	}
	r.Status = ReceiptStatusFailed
	if r.Succeeded() {
		t.Error("failed receipt reported success")
	}
}

func TestRevertError(t *testing.T) {
	cause := errors.New("execution reverted")
	err := &RevertError{Ret: []byte{0xab, 0xcd}, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("revert error does not unwrap to its cause")
	}
	if msg := err.Error(); !strings.Contains(msg, "0xabcd") {
		t.Errorf("error message does not surface the payload: %q", msg)
	}

	bare := &RevertError{Err: cause}
	if msg := bare.Error(); strings.Contains(msg, "return data") {
		t.Errorf("empty payload should not be rendered: %q", msg)
	}
}
