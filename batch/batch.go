// Package batch formt kodierte Sequenzen zu Batches fester Breite.
//
// Modul: batch.go - Abschneiden, Padding und Attention-Masken
// Enthaelt: Side, MaskStyle, Strategy, Batch, Shape, MaskFloat16
package batch

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/x448/float16"

	"github.com/ollama/subword/mlm"
)

// Side selects where sequences are truncated and padded.
type Side int

const (
	Right Side = iota
	Left
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// ParseSide parses "left" or "right". The empty string selects Right.
func ParseSide(s string) (Side, error) {
	switch s {
	case "", "right":
		return Right, nil
	case "left":
		return Left, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// MaskStyle is the attention mask convention of a batch.
type MaskStyle int

const (
	// Boolean masks hold 1 for real tokens and 0 for padding.
	Boolean MaskStyle = iota
	// Additive masks hold 0 for real tokens and AdditiveMaskValue for padding.
	Additive
)

func (m MaskStyle) String() string {
	if m == Additive {
		return "additive"
	}
	return "boolean"
}

// ParseMaskStyle parses "boolean" or "additive". The empty string selects
// Boolean.
func ParseMaskStyle(s string) (MaskStyle, error) {
	switch s {
	case "", "boolean", "bool":
		return Boolean, nil
	case "additive":
		return Additive, nil
	}
	return 0, fmt.Errorf("unknown mask style %q", s)
}

// AdditiveMaskValue marks padding in additive masks.
const AdditiveMaskValue float32 = -1e9

var ErrNoWidth = errors.New("batch width must be positive")

// Strategy describes how a batch is shaped. Masking, if set, is applied after
// truncation and before padding.
type Strategy struct {
	Width     int
	Side      Side
	MaskStyle MaskStyle
	PadID     int32
	Masking   *mlm.Config
}

// Batch is a rectangular set of sequences with a parallel attention mask.
type Batch struct {
	IDs     [][]int32
	Mask    [][]float32
	Targets [][]int32 // nil unless masking is enabled
	Lengths []int     // real tokens per row
	Style   MaskStyle
}

// Shape truncates every sequence to s.Width from s.Side, masks it if
// s.Masking is set, then pads it on the same side. rng drives masking and may
// be nil.
func (s Strategy) Shape(seqs [][]int32, rng *rand.Rand) (*Batch, error) {
	if s.Width <= 0 {
		return nil, ErrNoWidth
	}

	keep, pad := float32(1), float32(0)
	if s.MaskStyle == Additive {
		keep, pad = 0, AdditiveMaskValue
	}

	b := &Batch{
		IDs:     make([][]int32, len(seqs)),
		Mask:    make([][]float32, len(seqs)),
		Lengths: make([]int, len(seqs)),
		Style:   s.MaskStyle,
	}
	if s.Masking != nil {
		b.Targets = make([][]int32, len(seqs))
	}

	for i, seq := range seqs {
		if len(seq) > s.Width {
			if s.Side == Left {
				seq = seq[len(seq)-s.Width:]
			} else {
				seq = seq[:s.Width]
			}
		}

		var targets []int32
		if s.Masking != nil {
			m, err := s.Masking.Apply(seq, rng)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			seq, targets = m.IDs, m.Targets
		}

		n := len(seq)
		off := 0
		if s.Side == Left {
			off = s.Width - n
		}

		ids := make([]int32, s.Width)
		mask := make([]float32, s.Width)
		for j := range ids {
			ids[j], mask[j] = s.PadID, pad
		}
		copy(ids[off:], seq)
		for j := off; j < off+n; j++ {
			mask[j] = keep
		}

		if targets != nil {
			row := make([]int32, s.Width)
			for j := range row {
				row[j] = mlm.IgnoreIndex
			}
			copy(row[off:], targets)
			b.Targets[i] = row
		}

		b.IDs[i], b.Mask[i], b.Lengths[i] = ids, mask, n
	}
	return b, nil
}

// MaskFloat16 returns the mask in IEEE half precision. The additive padding
// value, which does not fit, becomes the most negative finite half.
func (b *Batch) MaskFloat16() [][]float16.Float16 {
	lowest := float16.Frombits(0xfbff)
	out := make([][]float16.Float16, len(b.Mask))
	for i, row := range b.Mask {
		out[i] = make([]float16.Float16, len(row))
		for j, v := range row {
			if b.Style == Additive && v == AdditiveMaskValue {
				out[i][j] = lowest
				continue
			}
			out[i][j] = float16.Fromfloat32(v)
		}
	}
	return out
}

// Flat returns the ids row by row, as consumed by tensor libraries.
func (b *Batch) Flat() []int32 {
	var out []int32
	for _, row := range b.IDs {
		out = append(out, row...)
	}
	return out
}
