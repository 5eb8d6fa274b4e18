package core

import (
	"errors"
	"fmt"

	"critterchain/core/events"
	"critterchain/core/state"
	"critterchain/core/types"
	"critterchain/native/creatures"
)

var (
	// ErrAuthenticationFailed means the sender could not be recovered from
	// the transaction signature.
	ErrAuthenticationFailed = errors.New("executor: authentication failed")
	// ErrInvalidNonce means the transaction nonce does not match the sender
	// account.
	ErrInvalidNonce = errors.New("executor: invalid nonce")
	// ErrInvalidRecipient means a transfer names a malformed recipient.
	ErrInvalidRecipient = errors.New("executor: invalid recipient address")
	// ErrUnknownTxType means the transaction type is not a registry operation.
	ErrUnknownTxType = errors.New("executor: unknown transaction type")
)

// Receipt reports the outcome of one applied transaction. CreatureID is only
// meaningful when Created is true (create and breed operations).
type Receipt struct {
	Success    bool
	Err        error
	Events     []*types.Event
	CreatureID uint64
	Created    bool
}

// Executor is the host transaction boundary: it authenticates each signed
// transaction, brackets it in a state snapshot, dispatches to the creatures
// engine and drains the per-call events into the receipt. Transactions are
// applied strictly in order, one at a time.
type Executor struct {
	state    *state.Manager
	engine   *creatures.Engine
	beacon   *RotatingBeacon
	recorder *events.Recorder
}

// NewExecutor wires a creatures engine to the state manager and beacon.
func NewExecutor(manager *state.Manager, beacon *RotatingBeacon) *Executor {
	recorder := &events.Recorder{}
	engine := creatures.NewEngine()
	engine.SetState(manager)
	engine.SetBeacon(beacon)
	engine.SetEmitter(recorder)
	return &Executor{
		state:    manager,
		engine:   engine,
		beacon:   beacon,
		recorder: recorder,
	}
}

// Engine exposes the underlying creatures engine for construction-time
// configuration.
func (ex *Executor) Engine() *creatures.Engine { return ex.engine }

// State exposes the state manager for queries.
func (ex *Executor) State() *state.Manager { return ex.state }

// Apply executes the batch in order. Each transaction either fully commits or
// is rolled back to its pre-call snapshot; the batch as a whole is flushed to
// the backing database once, after the last transaction. The beacon seed is
// rotated at the end of the batch.
func (ex *Executor) Apply(txs []*types.Transaction) ([]*Receipt, error) {
	receipts := make([]*Receipt, 0, len(txs))
	for i, tx := range txs {
		ex.beacon.SetTxIndex(uint32(i))
		snap := ex.state.Snapshot()
		receipt := ex.applyTx(tx)
		if !receipt.Success {
			ex.state.RevertToSnapshot(snap)
			ex.recorder.Drain()
		}
		receipts = append(receipts, receipt)
	}
	if err := ex.state.Commit(); err != nil {
		return receipts, fmt.Errorf("executor: commit batch: %w", err)
	}
	ex.beacon.Rotate(nil)
	return receipts, nil
}

func (ex *Executor) applyTx(tx *types.Transaction) *Receipt {
	sender, err := tx.From()
	if err != nil {
		return &Receipt{Err: fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)}
	}
	var caller [20]byte
	if len(sender) != len(caller) {
		return &Receipt{Err: ErrAuthenticationFailed}
	}
	copy(caller[:], sender)

	account, err := ex.state.GetAccount(caller)
	if err != nil {
		return &Receipt{Err: err}
	}
	if account.Nonce != tx.Nonce {
		return &Receipt{Err: fmt.Errorf("%w: expected %d, got %d", ErrInvalidNonce, account.Nonce, tx.Nonce)}
	}

	receipt := &Receipt{}
	switch tx.Type {
	case types.TxTypeCreate:
		receipt.CreatureID, err = ex.engine.Create(caller, tx.Value)
		receipt.Created = err == nil
	case types.TxTypeTransfer:
		var newOwner [20]byte
		if len(tx.To) != len(newOwner) {
			return &Receipt{Err: ErrInvalidRecipient}
		}
		copy(newOwner[:], tx.To)
		err = ex.engine.Transfer(caller, newOwner, tx.CreatureID)
	case types.TxTypeBreed:
		receipt.CreatureID, err = ex.engine.Breed(caller, tx.CreatureID, tx.PartnerID)
		receipt.Created = err == nil
	case types.TxTypeOffer:
		err = ex.engine.Offer(caller, tx.Value, tx.CreatureID)
	case types.TxTypeBuy:
		err = ex.engine.Buy(caller, tx.CreatureID)
	default:
		err = fmt.Errorf("%w: %#x", ErrUnknownTxType, byte(tx.Type))
	}
	if err != nil {
		receipt.Err = err
		return receipt
	}

	// The engine may have rewritten the caller account (reservations,
	// purchases), so reload before bumping the nonce.
	account, err = ex.state.GetAccount(caller)
	if err != nil {
		receipt.Err = err
		return receipt
	}
	account.Nonce++
	if err := ex.state.PutAccount(caller, account); err != nil {
		receipt.Err = err
		return receipt
	}

	for _, evt := range ex.recorder.Drain() {
		if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
			receipt.Events = append(receipt.Events, carrier.Event())
		}
	}
	receipt.Success = true
	return receipt
}
