package creatures

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// Beacon supplies the host-deterministic randomness inputs for genome
// generation: a per-round seed and the index of the executing transaction
// within that round. The values are gameplay-grade pseudo-randomness, not a
// source of value-bearing secrets.
type Beacon interface {
	Seed() [32]byte
	TxIndex() uint32
}

// generateGenome derives a fresh genome from the beacon state and the caller
// identity. For fixed host state the result is pure; it is recomputed on every
// invocation because the seed and transaction index vary per call.
func generateGenome(beacon Beacon, caller [20]byte) Genome {
	seed := beacon.Seed()

	var index [4]byte
	binary.LittleEndian.PutUint32(index[:], beacon.TxIndex())

	h := blake3.New(GenomeSize, nil)
	h.Write(seed[:])
	h.Write(caller[:])
	h.Write(index[:])

	var genome Genome
	copy(genome[:], h.Sum(nil))
	return genome
}

// combineGenomes selects each child bit from parent a where the selector bit
// is set and from parent b where it is clear. All-ones yields a, all-zeros
// yields b.
func combineGenomes(a, b, selector Genome) Genome {
	var child Genome
	for i := 0; i < GenomeSize; i++ {
		child[i] = (selector[i] & a[i]) | (^selector[i] & b[i])
	}
	return child
}
