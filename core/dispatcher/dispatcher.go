// Copyright 2026 The go-garnet Authors
// This file is part of the go-garnet library.
//
// Dispatcher relays signed intents to smart accounts: it validates,
// collects the gas prefund, executes and settles every intent of a
// batch, producing one receipt per intent.

// Package dispatcher implements the trusted relay smart accounts are
// bound to. It owns the intent hash domain (chain ID plus dispatcher
// address), fronts the gas for intent execution and reimburses itself
// from account prefunds and deposits.
package dispatcher

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/garnetlabs/go-garnet/core/rawdb"
	"github.com/garnetlabs/go-garnet/core/runtime"
	"github.com/garnetlabs/go-garnet/core/types"
)

const (
	// intrinsicGas is the flat cost charged to every executed intent.
	intrinsicGas = uint64(21000)

	// Calldata gas costs per byte.
	nonZeroByteGas = uint64(16)
	zeroByteGas    = uint64(4)
)

var (
	ErrNilIntent           = errors.New("nil intent")
	ErrUnknownAccount      = errors.New("intent sender has no registered account")
	ErrValidationFailed    = errors.New("intent validation failed")
	ErrInsufficientPrefund = errors.New("insufficient prefund for intent")
	ErrInsufficientDeposit = errors.New("withdraw amount exceeds deposit")
)

// IntentValidator is implemented by accounts that can judge intents.
type IntentValidator interface {
	ValidateIntent(env *runtime.Env, caller common.Address, intent *types.Intent, intentHash common.Hash, missingFunds *uint256.Int) (types.ValidationResult, error)
}

// IntentExecutor is implemented by accounts that can perform calls.
type IntentExecutor interface {
	Execute(env *runtime.Env, caller, dest common.Address, value *uint256.Int, payload []byte) error
}

// Dispatcher processes intent batches against a runtime environment.
// Accounts are resolved through the environment's contract registry;
// receipts are optionally persisted to a key-value store. Like the
// environment it drives, a Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	address common.Address
	chainID *uint256.Int
	env     *runtime.Env

	// Deposit ledger: prepaid gas balances held at the dispatcher
	// address on behalf of accounts.
	deposits map[common.Address]*uint256.Int

	db ethdb.KeyValueStore
}

// New creates a dispatcher at the given address. The db may be nil, in
// which case receipts are not persisted.
func New(address common.Address, chainID *uint256.Int, env *runtime.Env, db ethdb.KeyValueStore) *Dispatcher {
	return &Dispatcher{
		address:  address,
		chainID:  safeU256(chainID),
		env:      env,
		deposits: make(map[common.Address]*uint256.Int),
		db:       db,
	}
}

// Address returns the dispatcher address.
func (d *Dispatcher) Address() common.Address {
	return d.address
}

// IntentHash returns the signing hash of an intent under this
// dispatcher's domain.
func (d *Dispatcher) IntentHash(intent *types.Intent) common.Hash {
	return intent.Hash(d.chainID, d.address)
}

// DepositOf returns the prepaid gas balance held for an account.
func (d *Dispatcher) DepositOf(account common.Address) *uint256.Int {
	if dep, ok := d.deposits[account]; ok {
		return new(uint256.Int).Set(dep)
	}
	return new(uint256.Int)
}

// DepositFor moves amount from the account's balance to the dispatcher
// and credits the account's deposit ledger. Deposits are consumed
// before the account is asked for a prefund.
func (d *Dispatcher) DepositFor(account common.Address, amount *uint256.Int) error {
	amount = safeU256(amount)
	st := d.env.StateDB()
	if st.GetBalance(account).Lt(amount) {
		return runtime.ErrInsufficientBalance
	}
	st.SubBalance(account, amount)
	st.AddBalance(d.address, amount)
	d.addDeposit(account, amount)
	log.Debug("Deposit credited", "account", account, "amount", amount)
	return nil
}

// WithdrawDeposit debits the account's deposit ledger and returns the
// funds to the account's balance. A zero or nil amount is a no-op.
func (d *Dispatcher) WithdrawDeposit(account common.Address, amount *uint256.Int) error {
	amount = safeU256(amount)
	deposit := d.DepositOf(account)
	if deposit.Lt(amount) {
		return fmt.Errorf("%w: amount %s exceeds deposit %s", ErrInsufficientDeposit, amount, deposit)
	}
	if amount.IsZero() {
		return nil
	}
	d.deposits[account].Sub(d.deposits[account], amount)
	st := d.env.StateDB()
	st.SubBalance(d.address, amount)
	st.AddBalance(account, amount)
	return nil
}

func (d *Dispatcher) addDeposit(account common.Address, amount *uint256.Int) {
	if _, ok := d.deposits[account]; !ok {
		d.deposits[account] = new(uint256.Int)
	}
	d.deposits[account].Add(d.deposits[account], amount)
}

// HandleIntents processes a batch of intents. Every intent yields a
// receipt, rejected ones included; receipts keep the batch order.
func (d *Dispatcher) HandleIntents(intents []*types.Intent, beneficiary common.Address) ([]*types.IntentReceipt, error) {
	receipts := make([]*types.IntentReceipt, 0, len(intents))

	for _, intent := range intents {
		receipt, err := d.handleIntent(intent, beneficiary)
		if err != nil {
			log.Warn("Intent rejected", "sender", senderOf(intent), "err", err)
			// Rejected intents still produce a failed receipt.
			if receipt == nil {
				receipt = &types.IntentReceipt{
					IntentHash: intent.Hash(d.chainID, d.address),
					Sender:     senderOf(intent),
					Status:     types.ReceiptStatusFailed,
					ActualCost: new(uint256.Int),
					Reason:     err.Error(),
				}
			}
		}
		if d.db != nil {
			rawdb.WriteIntentReceipt(d.db, receipt)
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

// handleIntent runs one intent through validation, prefund settlement,
// execution and fee payout. Rejections before execution revert every
// state change and return an error; execution failure is contained and
// reported through the receipt while fees still settle.
func (d *Dispatcher) handleIntent(intent *types.Intent, beneficiary common.Address) (*types.IntentReceipt, error) {
	if intent == nil {
		return nil, ErrNilIntent
	}
	hash := intent.Hash(d.chainID, d.address)

	validator, executor, ok := d.account(intent.Sender)
	if !ok {
		return nil, ErrUnknownAccount
	}
	st := d.env.StateDB()

	// Phase 1: figure out what the account still owes. Deposits are
	// consumed first, the rest must arrive during validation.
	required := d.requiredPrefund(intent)
	consumed := new(uint256.Int).Set(required)
	if deposit := d.DepositOf(intent.Sender); deposit.Lt(consumed) {
		consumed.Set(deposit)
	}
	missing := new(uint256.Int).Sub(required, consumed)

	// Phase 2: validation. The whole intent reverts if the account
	// rejects it or underpays the prefund.
	snapshot := st.Snapshot()
	before := st.GetBalance(d.address)

	result, err := validator.ValidateIntent(d.env, d.address, intent, hash, missing)
	if err != nil {
		st.RevertToSnapshot(snapshot)
		return nil, fmt.Errorf("validation: %w", err)
	}
	if result != types.IntentValid {
		st.RevertToSnapshot(snapshot)
		return nil, ErrValidationFailed
	}

	received := new(uint256.Int)
	if after := st.GetBalance(d.address); after.Gt(before) {
		received.Sub(after, before)
	}
	if received.Lt(missing) {
		st.RevertToSnapshot(snapshot)
		return nil, ErrInsufficientPrefund
	}
	if !consumed.IsZero() {
		d.deposits[intent.Sender].Sub(d.deposits[intent.Sender], consumed)
	}

	// Phase 3: execution. Failure is contained: the call's effects are
	// rolled back but fees still settle below.
	status := types.ReceiptStatusSuccessful
	var reason string
	var revertRet []byte

	gasUsed := estimateIntentGas(intent)
	if gasUsed > intent.GasLimit {
		status = types.ReceiptStatusFailed
		reason = "out of gas during execution"
		// Never charge beyond the sender-defined gas limit.
		gasUsed = intent.GasLimit
	} else {
		execSnapshot := st.Snapshot()
		if err := executor.Execute(d.env, d.address, intent.Dest, intent.Value, intent.Data); err != nil {
			st.RevertToSnapshot(execSnapshot)
			status = types.ReceiptStatusFailed
			reason = err.Error()
			var revert *types.RevertError
			if errors.As(err, &revert) {
				revertRet = common.CopyBytes(revert.Ret)
			}
		}
	}

	// Phase 4: fee settlement. Unused prefund flows back to the
	// account, the actual cost goes to the beneficiary.
	actualCost := new(uint256.Int).Mul(uint256.NewInt(gasUsed), safeU256(intent.MaxFeePerGas))
	if actualCost.Gt(required) {
		actualCost.Set(required)
	}
	refund := new(uint256.Int).Sub(required, actualCost)
	if !refund.IsZero() {
		st.SubBalance(d.address, refund)
		st.AddBalance(intent.Sender, refund)
	}
	st.SubBalance(d.address, actualCost)
	st.AddBalance(beneficiary, actualCost)

	receipt := &types.IntentReceipt{
		IntentHash: hash,
		Sender:     intent.Sender,
		Status:     status,
		GasUsed:    gasUsed,
		ActualCost: actualCost,
		Revert:     revertRet,
		Reason:     reason,
	}
	log.Info("Intent handled", "sender", intent.Sender, "hash", hash,
		"success", receipt.Succeeded(), "gasUsed", gasUsed, "cost", actualCost)
	return receipt, nil
}

// SimulateValidation runs an intent through validation and reverts all
// of its effects, reporting whether the dispatcher would accept it.
func (d *Dispatcher) SimulateValidation(intent *types.Intent) (types.ValidationResult, error) {
	if intent == nil {
		return types.IntentInvalid, ErrNilIntent
	}
	validator, _, ok := d.account(intent.Sender)
	if !ok {
		return types.IntentInvalid, ErrUnknownAccount
	}
	st := d.env.StateDB()

	required := d.requiredPrefund(intent)
	consumed := new(uint256.Int).Set(required)
	if deposit := d.DepositOf(intent.Sender); deposit.Lt(consumed) {
		consumed.Set(deposit)
	}
	missing := new(uint256.Int).Sub(required, consumed)

	snapshot := st.Snapshot()
	defer st.RevertToSnapshot(snapshot)

	before := st.GetBalance(d.address)
	result, err := validator.ValidateIntent(d.env, d.address, intent, intent.Hash(d.chainID, d.address), missing)
	if err != nil {
		return types.IntentInvalid, err
	}
	received := new(uint256.Int)
	if after := st.GetBalance(d.address); after.Gt(before) {
		received.Sub(after, before)
	}
	if received.Lt(missing) {
		return result, ErrInsufficientPrefund
	}
	return result, nil
}

// ReceiptsFor returns the stored receipts of every intent this
// dispatcher handled for the given sender. Nil without a receipt store.
func (d *Dispatcher) ReceiptsFor(sender common.Address) []*types.IntentReceipt {
	if d.db == nil {
		return nil
	}
	var receipts []*types.IntentReceipt
	rawdb.IterateSenderReceipts(d.db, sender, func(hash common.Hash) bool {
		if receipt, ok := rawdb.ReadIntentReceipt(d.db, hash); ok {
			receipts = append(receipts, receipt)
		}
		return true
	})
	return receipts
}

// account resolves the contract registered at addr into the two account
// facets the dispatcher drives.
func (d *Dispatcher) account(addr common.Address) (IntentValidator, IntentExecutor, bool) {
	c, ok := d.env.Contract(addr)
	if !ok {
		return nil, nil, false
	}
	validator, okV := c.(IntentValidator)
	executor, okX := c.(IntentExecutor)
	if !okV || !okX {
		return nil, nil, false
	}
	return validator, executor, true
}

// requiredPrefund is the maximum cost of an intent: its gas limit at
// the fee the sender agreed to. Saturates on overflow, which makes the
// intent unpayable and rejects it during settlement.
func (d *Dispatcher) requiredPrefund(intent *types.Intent) *uint256.Int {
	prefund, overflow := new(uint256.Int).MulOverflow(
		uint256.NewInt(intent.GasLimit),
		safeU256(intent.MaxFeePerGas),
	)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return prefund
}

// estimateIntentGas estimates execution gas for an intent.
func estimateIntentGas(intent *types.Intent) uint64 {
	gas := intrinsicGas
	for _, b := range intent.Data {
		if b == 0 {
			gas += zeroByteGas
		} else {
			gas += nonZeroByteGas
		}
	}
	return gas
}

func senderOf(intent *types.Intent) common.Address {
	if intent == nil {
		return common.Address{}
	}
	return intent.Sender
}

func safeU256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
