package creatures

import (
	"bytes"
	"testing"
)

type fixedBeacon struct {
	seed  [32]byte
	index uint32
}

func (b fixedBeacon) Seed() [32]byte  { return b.seed }
func (b fixedBeacon) TxIndex() uint32 { return b.index }

func fillGenome(fill byte) Genome {
	var g Genome
	for i := range g {
		g[i] = fill
	}
	return g
}

func TestCombineSelectorIdentity(t *testing.T) {
	a := fillGenome(0xA5)
	b := fillGenome(0x3C)

	if child := combineGenomes(a, b, fillGenome(0xFF)); child != a {
		t.Fatalf("all-ones selector must yield the first parent, got %x", child)
	}
	if child := combineGenomes(a, b, fillGenome(0x00)); child != b {
		t.Fatalf("all-zeros selector must yield the second parent, got %x", child)
	}
}

func TestCombineSelectsPerBit(t *testing.T) {
	a := fillGenome(0xFF)
	b := fillGenome(0x00)
	selector := fillGenome(0x0F)

	child := combineGenomes(a, b, selector)
	for i, got := range child {
		if got != 0x0F {
			t.Fatalf("byte %d: expected 0x0f, got %#x", i, got)
		}
	}
}

func TestCombineIsPure(t *testing.T) {
	a := fillGenome(0x11)
	b := fillGenome(0xEE)
	selector := fillGenome(0x55)

	first := combineGenomes(a, b, selector)
	second := combineGenomes(a, b, selector)
	if first != second {
		t.Fatalf("combine must be deterministic: %x vs %x", first, second)
	}
}

func TestGenerateDeterministicForFixedHostState(t *testing.T) {
	beacon := fixedBeacon{seed: [32]byte{1, 2, 3}, index: 7}
	caller := [20]byte{0xAB}

	first := generateGenome(beacon, caller)
	second := generateGenome(beacon, caller)
	if first != second {
		t.Fatalf("expected identical genomes for fixed host state")
	}
}

func TestGenerateVariesWithInputs(t *testing.T) {
	beacon := fixedBeacon{seed: [32]byte{1}, index: 0}
	caller := [20]byte{0x01}
	base := generateGenome(beacon, caller)

	otherCaller := generateGenome(beacon, [20]byte{0x02})
	if bytes.Equal(base[:], otherCaller[:]) {
		t.Fatalf("different callers must not share a genome")
	}

	otherIndex := generateGenome(fixedBeacon{seed: [32]byte{1}, index: 1}, caller)
	if bytes.Equal(base[:], otherIndex[:]) {
		t.Fatalf("different tx indices must not share a genome")
	}

	otherSeed := generateGenome(fixedBeacon{seed: [32]byte{2}, index: 0}, caller)
	if bytes.Equal(base[:], otherSeed[:]) {
		t.Fatalf("different seeds must not share a genome")
	}
}
