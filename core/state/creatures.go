package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"critterchain/native/creatures"
)

// The manager implements creatures.State on top of the keyed stores below:
// creature-by-id, owner-by-id, offer-by-id and the single allocation counter.

type storedCreature struct {
	ID     uint64
	Genome [16]byte
}

// CreatureGet loads the creature record for the id.
func (m *Manager) CreatureGet(id uint64) (*creatures.Creature, bool, error) {
	data, ok, err := m.getRaw(idKey(creaturePrefix, id))
	if err != nil || !ok {
		return nil, false, err
	}
	stored := new(storedCreature)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, false, fmt.Errorf("state: decode creature %d: %w", id, err)
	}
	return &creatures.Creature{ID: stored.ID, Genome: stored.Genome}, true, nil
}

// CreaturePut persists the creature record.
func (m *Manager) CreaturePut(c *creatures.Creature) error {
	if c == nil {
		return fmt.Errorf("state: nil creature")
	}
	encoded, err := rlp.EncodeToBytes(&storedCreature{ID: c.ID, Genome: c.Genome})
	if err != nil {
		return fmt.Errorf("state: encode creature %d: %w", c.ID, err)
	}
	m.putRaw(idKey(creaturePrefix, c.ID), encoded)
	return nil
}

// OwnerGet returns the recorded owner of the creature id.
func (m *Manager) OwnerGet(id uint64) ([20]byte, bool, error) {
	var owner [20]byte
	data, ok, err := m.getRaw(idKey(ownerPrefix, id))
	if err != nil || !ok {
		return owner, false, err
	}
	if len(data) != len(owner) {
		return owner, false, fmt.Errorf("state: malformed owner record for creature %d", id)
	}
	copy(owner[:], data)
	return owner, true, nil
}

// OwnerSet records or overwrites the owner of the creature id.
func (m *Manager) OwnerSet(id uint64, owner [20]byte) error {
	m.putRaw(idKey(ownerPrefix, id), owner[:])
	return nil
}

// OfferGet returns the outstanding sale price for the creature id, if any.
func (m *Manager) OfferGet(id uint64) (*big.Int, bool, error) {
	data, ok, err := m.getRaw(idKey(offerPrefix, id))
	if err != nil || !ok {
		return nil, false, err
	}
	price := new(big.Int)
	if err := rlp.DecodeBytes(data, price); err != nil {
		return nil, false, fmt.Errorf("state: decode offer for creature %d: %w", id, err)
	}
	return price, true, nil
}

// OfferSet records or overwrites the sale price for the creature id.
func (m *Manager) OfferSet(id uint64, price *big.Int) error {
	if price == nil {
		price = big.NewInt(0)
	}
	encoded, err := rlp.EncodeToBytes(price)
	if err != nil {
		return fmt.Errorf("state: encode offer for creature %d: %w", id, err)
	}
	m.putRaw(idKey(offerPrefix, id), encoded)
	return nil
}

// OfferRemove clears the sale price for the creature id.
func (m *Manager) OfferRemove(id uint64) error {
	m.deleteRaw(idKey(offerPrefix, id))
	return nil
}

// CreaturesCount returns the next id to allocate. The boolean is false before
// the first creature has been recorded.
func (m *Manager) CreaturesCount() (uint64, bool, error) {
	data, ok, err := m.getRaw(countKey)
	if err != nil || !ok {
		return 0, false, err
	}
	var count uint64
	if err := rlp.DecodeBytes(data, &count); err != nil {
		return 0, false, fmt.Errorf("state: decode creature count: %w", err)
	}
	return count, true, nil
}

// SetCreaturesCount stores the next id to allocate.
func (m *Manager) SetCreaturesCount(count uint64) error {
	encoded, err := rlp.EncodeToBytes(count)
	if err != nil {
		return fmt.Errorf("state: encode creature count: %w", err)
	}
	m.putRaw(countKey, encoded)
	return nil
}
