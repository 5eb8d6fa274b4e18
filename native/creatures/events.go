package creatures

import (
	"encoding/hex"
	"strconv"

	"critterchain/core/types"
)

const (
	EventTypeCreated     = "creatures.created"
	EventTypeTransferred = "creatures.transferred"
	EventTypeOffered     = "creatures.offered"
)

// NewCreatedEvent returns the canonical payload emitted when a creature is
// minted, whether directly or through breeding.
func NewCreatedEvent(owner [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeCreated,
		Attributes: map[string]string{
			"creatureId": strconv.FormatUint(id, 10),
			"owner":      hex.EncodeToString(owner[:]),
		},
	}
}

// NewTransferredEvent returns the canonical payload emitted when ownership
// moves, either by direct transfer or by purchase.
func NewTransferredEvent(from, to [20]byte, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"creatureId": strconv.FormatUint(id, 10),
			"from":       hex.EncodeToString(from[:]),
			"to":         hex.EncodeToString(to[:]),
		},
	}
}

// NewOfferedEvent returns the canonical payload emitted when an owner puts a
// creature up for sale.
func NewOfferedEvent(owner [20]byte, price string, id uint64) *types.Event {
	return &types.Event{
		Type: EventTypeOffered,
		Attributes: map[string]string{
			"creatureId": strconv.FormatUint(id, 10),
			"owner":      hex.EncodeToString(owner[:]),
			"price":      price,
		},
	}
}
