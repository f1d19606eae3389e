// mlm_test.go - Tests fuer die Maskierung
package mlm

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func sequence(n int) []int32 {
	ids := make([]int32, n)
	for i := range ids {
		ids[i] = int32(10 + i)
	}
	return ids
}

func TestMaskCount(t *testing.T) {
	ids := sequence(20)
	rng := rand.New(rand.NewPCG(1, 2))

	for range 50 {
		seq, err := Mask(ids, 0.15, 3, rng)
		if err != nil {
			t.Fatal(err)
		}
		if len(seq.Positions) != 3 {
			t.Fatalf("%d Positionen maskiert, erwartet 3", len(seq.Positions))
		}
		if !slices.IsSorted(seq.Positions) {
			t.Errorf("Positionen nicht sortiert: %v", seq.Positions)
		}
		if slices.Contains(seq.Positions, 0) {
			t.Errorf("Position 0 maskiert: %v", seq.Positions)
		}
		if len(slices.Compact(slices.Clone(seq.Positions))) != 3 {
			t.Errorf("doppelte Positionen: %v", seq.Positions)
		}
	}
}

func TestMaskTargets(t *testing.T) {
	ids := sequence(10)
	seq, err := Mask(ids, 0.5, 3, rand.New(rand.NewPCG(7, 7)))
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(ids, sequence(10)) {
		t.Error("Eingabe wurde veraendert")
	}
	masked := 0
	for i, id := range seq.IDs {
		switch {
		case id == 3:
			masked++
			if seq.Targets[i] != ids[i] {
				t.Errorf("Target[%d] = %d, erwartet %d", i, seq.Targets[i], ids[i])
			}
		case seq.Targets[i] != IgnoreIndex:
			t.Errorf("Target[%d] = %d, erwartet IgnoreIndex", i, seq.Targets[i])
		}
	}
	if masked != 5 {
		t.Errorf("%d maskiert, erwartet 5", masked)
	}
	for i, pos := range seq.Positions {
		if seq.Originals[i] != ids[pos] {
			t.Errorf("Originals[%d] = %d, erwartet %d", i, seq.Originals[i], ids[pos])
		}
	}
}

func TestMaskReproducible(t *testing.T) {
	a, _ := Mask(sequence(40), 0.3, 1, rand.New(rand.NewPCG(42, 0)))
	b, _ := Mask(sequence(40), 0.3, 1, rand.New(rand.NewPCG(42, 0)))
	if !slices.Equal(a.Positions, b.Positions) {
		t.Errorf("gleicher Seed, verschiedene Positionen: %v != %v", a.Positions, b.Positions)
	}
}

func TestMaskEdges(t *testing.T) {
	for _, rate := range []float64{0, 1, -0.5, 2} {
		if _, err := Mask(sequence(5), rate, 1, nil); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("Rate %v: Fehler = %v, erwartet ErrInvalidRate", rate, err)
		}
	}

	seq, err := Mask(sequence(1), 0.9, 1, nil)
	if err != nil || len(seq.Positions) != 0 || seq.IDs[0] != 10 {
		t.Errorf("einzelnes Token: %+v, %v", seq, err)
	}

	seq, err = Mask(sequence(3), 0.99, 1, nil)
	if err != nil || len(seq.Positions) != 2 {
		t.Errorf("Rate 0.99 bei n=3: %v Positionen, %v", seq.Positions, err)
	}

	seq, err = Config{Rate: 0.1, MaskID: 1}.Apply(sequence(5), nil)
	if err != nil || len(seq.Positions) != 0 {
		t.Errorf("floor(0.5) sollte 0 Positionen ergeben: %v, %v", seq.Positions, err)
	}
}
