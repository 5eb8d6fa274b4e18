package creatures

import "errors"

var (
	// ErrIDSpaceExhausted means the allocation counter reached the maximum
	// representable identifier; no creature was recorded.
	ErrIDSpaceExhausted = errors.New("creatures: identifier space exhausted")
	// ErrUnknownCreature means the referenced id has no registry entry.
	ErrUnknownCreature = errors.New("creatures: unknown creature")
	// ErrNotOwner means the caller does not match the recorded owner.
	ErrNotOwner = errors.New("creatures: caller is not the owner")
	// ErrAlreadyOwner means a buyer attempted to purchase their own creature.
	ErrAlreadyOwner = errors.New("creatures: caller already owns the creature")
	// ErrIdenticalParents means breed was called with the same id twice.
	ErrIdenticalParents = errors.New("creatures: parents must be distinct")
	// ErrNoActiveOffer means buy was attempted without an outstanding offer.
	ErrNoActiveOffer = errors.New("creatures: no active offer")
	// ErrNegativePrice means offer was called with a price below zero.
	ErrNegativePrice = errors.New("creatures: price must not be negative")
)
