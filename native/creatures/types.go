package creatures

// GenomeSize is the fixed byte length of every genome.
const GenomeSize = 16

// Genome is the opaque heritable trait data of one creature. It is assigned
// at creation and never mutated.
type Genome [GenomeSize]byte

// Creature is a uniquely identified registry entry. IDs are dense, start at
// zero and are allocated in strict creation order.
type Creature struct {
	ID     uint64
	Genome Genome
}

// Clone returns a copy of the creature so callers can hold on to the value
// without aliasing stored state.
func (c *Creature) Clone() *Creature {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
