package core

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RotatingBeacon is the host randomness source consumed by the creatures
// engine. The seed is rotated once per executed batch; the transaction index
// is set by the executor before each call. Deterministic by construction so
// replaying the same batches yields the same genomes.
type RotatingBeacon struct {
	seed    [32]byte
	txIndex uint32
	rounds  uint64
}

// NewRotatingBeacon creates a beacon starting from the given seed.
func NewRotatingBeacon(seed [32]byte) *RotatingBeacon {
	return &RotatingBeacon{seed: seed}
}

// Seed returns the current round seed.
func (b *RotatingBeacon) Seed() [32]byte { return b.seed }

// TxIndex returns the index of the transaction currently executing.
func (b *RotatingBeacon) TxIndex() uint32 { return b.txIndex }

// SetTxIndex records the index of the transaction about to execute.
func (b *RotatingBeacon) SetTxIndex(index uint32) { b.txIndex = index }

// Rotate derives the next round seed from the current seed, a round counter
// and optional entropy supplied by the host (e.g. a batch digest).
func (b *RotatingBeacon) Rotate(entropy []byte) {
	b.rounds++
	var round [8]byte
	binary.BigEndian.PutUint64(round[:], b.rounds)
	next := ethcrypto.Keccak256(b.seed[:], round[:], entropy)
	copy(b.seed[:], next)
	b.txIndex = 0
}
