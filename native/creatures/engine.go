package creatures

import (
	"errors"
	"math"
	"math/big"

	"critterchain/core/events"
	"critterchain/core/types"
	nativecommon "critterchain/native/common"
)

var (
	errNilState  = errors.New("creatures engine: state not configured")
	errNilBeacon = errors.New("creatures engine: randomness beacon not configured")
)

// moduleName is the pause-guard key for the creatures module.
const moduleName = "creatures"

// State is the storage contract consumed by the engine: the registry stores
// plus the two currency-ledger operations. The engine never inspects balances
// directly.
type State interface {
	CreatureGet(id uint64) (*Creature, bool, error)
	CreaturePut(*Creature) error
	OwnerGet(id uint64) ([20]byte, bool, error)
	OwnerSet(id uint64, owner [20]byte) error
	OfferGet(id uint64) (*big.Int, bool, error)
	OfferSet(id uint64, price *big.Int) error
	OfferRemove(id uint64) error
	CreaturesCount() (uint64, bool, error)
	SetCreaturesCount(count uint64) error

	Reserve(addr [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int, allowDepletion bool) error
}

type creatureEvent struct {
	evt *types.Event
}

func (e creatureEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e creatureEvent) Event() *types.Event { return e.evt }

// Engine wires the creature registry logic with external state, the
// randomness beacon and an event emitter. Precondition failures are detected
// before any mutation; fallible ledger calls run before registry writes so a
// rejected call leaves no trace.
type Engine struct {
	state   State
	emitter events.Emitter
	beacon  Beacon
	pauses  nativecommon.PauseView
	maxID   uint64
}

// NewEngine creates a creatures engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		maxID:   math.MaxUint64,
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state State) { e.state = state }

// SetBeacon configures the randomness source used for genome generation.
func (e *Engine) SetBeacon(beacon Beacon) { e.beacon = beacon }

// SetPauses configures the module pause view.
func (e *Engine) SetPauses(pauses nativecommon.PauseView) { e.pauses = pauses }

// SetMaxID overrides the maximum representable identifier. Primarily intended
// for tests to exercise counter exhaustion without 2^64 allocations.
func (e *Engine) SetMaxID(max uint64) { e.maxID = max }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(creatureEvent{evt: event})
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.beacon == nil {
		return errNilBeacon
	}
	return nil
}

// nextID reads the allocation counter without advancing it. The counter is
// only advanced by register once the creature has been recorded.
func (e *Engine) nextID() (uint64, error) {
	count, ok, err := e.state.CreaturesCount()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if count >= e.maxID {
		return 0, ErrIDSpaceExhausted
	}
	return count, nil
}

// register records the creature, its owner and the advanced counter as one
// step.
func (e *Engine) register(id uint64, owner [20]byte, genome Genome) error {
	if err := e.state.CreaturePut(&Creature{ID: id, Genome: genome}); err != nil {
		return err
	}
	if err := e.state.OwnerSet(id, owner); err != nil {
		return err
	}
	return e.state.SetCreaturesCount(id + 1)
}

// Create mints a fresh creature owned by the caller, reserving reserveAmount
// from the caller's free balance. The whole call aborts without state change
// when the identifier space is exhausted or the reservation fails.
func (e *Engine) Create(caller [20]byte, reserveAmount *big.Int) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	genome := generateGenome(e.beacon, caller)
	id, err := e.nextID()
	if err != nil {
		return 0, err
	}
	if err := e.state.Reserve(caller, reserveAmount); err != nil {
		return 0, err
	}
	if err := e.register(id, caller, genome); err != nil {
		return 0, err
	}
	e.emit(NewCreatedEvent(caller, id))
	return id, nil
}

// Transfer hands the creature to newOwner. An outstanding offer is left in
// place: the offer travels with the creature and remains buyable at the old
// price.
func (e *Engine) Transfer(caller, newOwner [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if _, ok, err := e.state.CreatureGet(id); err != nil {
		return err
	} else if !ok {
		return ErrUnknownCreature
	}
	owner, ok, err := e.state.OwnerGet(id)
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrNotOwner
	}
	if err := e.state.OwnerSet(id, newOwner); err != nil {
		return err
	}
	e.emit(NewTransferredEvent(caller, newOwner, id))
	return nil
}

// Breed combines the genomes of two existing creatures into a child owned by
// the caller. The caller does not need to own either parent, and no funds are
// reserved.
func (e *Engine) Breed(caller [20]byte, parentA, parentB uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}
	if parentA == parentB {
		return 0, ErrIdenticalParents
	}
	first, ok, err := e.state.CreatureGet(parentA)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnknownCreature
	}
	second, ok, err := e.state.CreatureGet(parentB)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrUnknownCreature
	}
	selector := generateGenome(e.beacon, caller)
	child := combineGenomes(first.Genome, second.Genome, selector)
	id, err := e.nextID()
	if err != nil {
		return 0, err
	}
	if err := e.register(id, caller, child); err != nil {
		return 0, err
	}
	e.emit(NewCreatedEvent(caller, id))
	return id, nil
}

// Offer puts the creature up for sale at the given price, overwriting any
// previous offer. A nil price is treated as zero; a negative price is
// rejected. A missing owner record is indistinguishable from a non-owner
// caller.
func (e *Engine) Offer(caller [20]byte, price *big.Int, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	owner, ok, err := e.state.OwnerGet(id)
	if err != nil {
		return err
	}
	if !ok || owner != caller {
		return ErrNotOwner
	}
	if price == nil {
		price = big.NewInt(0)
	}
	if price.Sign() < 0 {
		return ErrNegativePrice
	}
	if err := e.state.OfferSet(id, price); err != nil {
		return err
	}
	e.emit(NewOfferedEvent(caller, price.String(), id))
	return nil
}

// Buy purchases the creature at its offered price, paying the recorded owner.
// The seller's account may be fully drained by the payout. A failed ledger
// transfer aborts the call with no ownership or offer mutation.
func (e *Engine) Buy(caller [20]byte, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	owner, ok, err := e.state.OwnerGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownCreature
	}
	price, ok, err := e.state.OfferGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoActiveOffer
	}
	if caller == owner {
		return ErrAlreadyOwner
	}
	if err := e.state.Transfer(caller, owner, price, true); err != nil {
		return err
	}
	if err := e.state.OwnerSet(id, caller); err != nil {
		return err
	}
	if err := e.state.OfferRemove(id); err != nil {
		return err
	}
	e.emit(NewTransferredEvent(owner, caller, id))
	return nil
}
