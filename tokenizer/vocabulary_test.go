// vocabulary_test.go - Tests fuer Vokabular und Merge-Tabelle
package tokenizer

import (
	"errors"
	"slices"
	"testing"
)

func TestVocabularyInsert(t *testing.T) {
	v := NewVocabulary()

	a := v.Insert("a")
	b := v.Insert("b")
	again := v.Insert("a")

	if a != 0 || b != 1 {
		t.Fatalf("IDs = %d, %d, erwartet 0, 1", a, b)
	}
	if again != a {
		t.Errorf("erneutes Insert liefert %d, erwartet %d", again, a)
	}
	if v.Len() != 2 {
		t.Errorf("Len() = %d, erwartet 2", v.Len())
	}
}

func TestVocabularyLookupErrors(t *testing.T) {
	v := NewVocabulary()
	v.Insert("x")

	if _, err := v.Token(5); !errors.Is(err, ErrUnknownID) {
		t.Errorf("Token(5) Fehler = %v, erwartet ErrUnknownID", err)
	}
	if _, err := v.Token(-1); !errors.Is(err, ErrUnknownID) {
		t.Errorf("Token(-1) Fehler = %v, erwartet ErrUnknownID", err)
	}
	if _, err := v.ID("y"); !errors.Is(err, ErrUnknownToken) {
		t.Errorf("ID(y) Fehler = %v, erwartet ErrUnknownToken", err)
	}

	tok, err := v.Token(0)
	if err != nil || tok != "x" {
		t.Errorf("Token(0) = %q, %v", tok, err)
	}
}

func TestVocabularyValuesIsCopy(t *testing.T) {
	v := NewVocabulary()
	v.Insert("a")

	vals := v.Values()
	vals[0] = "z"
	if tok, _ := v.Token(0); tok != "a" {
		t.Errorf("Values() teilt Speicher mit dem Vokabular")
	}
}

func TestMergeTableKeepsFirstRule(t *testing.T) {
	m := NewMergeTable()

	id, added := m.Add(Pair{1, 2}, 10)
	if !added || id != 10 {
		t.Fatalf("Add = %d, %v", id, added)
	}
	id, added = m.Add(Pair{1, 2}, 11)
	if added || id != 10 {
		t.Errorf("zweites Add = %d, %v, erwartet 10, false", id, added)
	}
	m.Add(Pair{3, 4}, 12)

	got := slices.Collect(m.All())
	want := []Rule{{Pair{1, 2}, 10}, {Pair{3, 4}, 12}}
	if !slices.Equal(got, want) {
		t.Errorf("All() = %v, erwartet %v", got, want)
	}
}
