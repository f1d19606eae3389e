// Package mlm erzeugt Trainingsdaten fuer Masked Language Modeling.
//
// Modul: mlm.go - Maskierung kodierter Sequenzen
// Enthaelt: Config, Sequence, Mask, IgnoreIndex, ErrInvalidRate
package mlm

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// IgnoreIndex marks target positions that do not contribute to the loss.
const IgnoreIndex int32 = -100

var ErrInvalidRate = errors.New("mask rate must be in (0, 1)")

// Config selects the masking rate and the id written at masked positions.
type Config struct {
	Rate   float64
	MaskID int32
}

// Sequence is a masked copy of an encoded sequence.
type Sequence struct {
	IDs       []int32
	Positions []int   // masked positions, ascending
	Originals []int32 // ids that were replaced, parallel to Positions
	Targets   []int32 // original id at masked positions, IgnoreIndex elsewhere
}

// Mask replaces floor(len(ids)*rate) distinct positions of ids with maskID.
// Position 0 is never masked, so at most len(ids)-1 positions are chosen.
// ids is not modified. A nil rng uses the global source.
func Mask(ids []int32, rate float64, maskID int32, rng *rand.Rand) (Sequence, error) {
	if !(rate > 0 && rate < 1) {
		return Sequence{}, fmt.Errorf("%w: %v", ErrInvalidRate, rate)
	}

	n := len(ids)
	seq := Sequence{
		IDs:     slices.Clone(ids),
		Targets: make([]int32, n),
	}
	for i := range seq.Targets {
		seq.Targets[i] = IgnoreIndex
	}
	if n < 2 {
		return seq, nil
	}

	k := min(int(float64(n)*rate), n-1)
	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}

	seq.Positions = perm(n - 1)[:k]
	for i := range seq.Positions {
		seq.Positions[i]++
	}
	slices.Sort(seq.Positions)

	seq.Originals = make([]int32, k)
	for i, pos := range seq.Positions {
		seq.Originals[i] = ids[pos]
		seq.Targets[pos] = ids[pos]
		seq.IDs[pos] = maskID
	}
	return seq, nil
}

// Apply is Mask with the settings of c.
func (c Config) Apply(ids []int32, rng *rand.Rand) (Sequence, error) {
	return Mask(ids, c.Rate, c.MaskID, rng)
}
