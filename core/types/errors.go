// Copyright 2025 The go-garnet Authors
// This file is part of the go-garnet library.

package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// RevertError reports a failed outbound call. Ret carries the callee's
// failure payload byte for byte, so callers can decode or surface it.
type RevertError struct {
	Ret []byte
	Err error
}

func (e *RevertError) Error() string {
	if len(e.Ret) == 0 {
		return fmt.Sprintf("external call failed: %v", e.Err)
	}
	return fmt.Sprintf("external call failed: %v (return data: %s)", e.Err, hexutil.Encode(e.Ret))
}

func (e *RevertError) Unwrap() error {
	return e.Err
}
