// snapshot.go - Serialisierbarer Zustand eines Modells
//
// Enthaelt: Snapshot, Model.Snapshot und Restore mit Konsistenzpruefung
package tokenizer

import (
	"fmt"
	"slices"
)

// Snapshot is the complete, plain state of a Model. Tokens are indexed by id.
type Snapshot struct {
	Marker        rune
	SpecialTokens []string
	Tokens        []string
	Rules         []Rule
}

// Snapshot copies the state of m.
func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Marker:        m.marker,
		SpecialTokens: m.SpecialTokens(),
		Tokens:        m.vocab.Values(),
		Rules:         slices.Collect(m.merges.All()),
	}
}

// Restore builds a Model from s. It fails if tokens are empty or repeated,
// if a rule refers to an unknown id or does not concatenate its operands, or
// if a special token is missing from the vocabulary.
func Restore(s Snapshot, opts Options) (*Model, error) {
	if s.Marker != 0 {
		opts.Marker = s.Marker
	}
	m := NewModel(opts)

	for i, tok := range s.Tokens {
		if tok == "" {
			return nil, fmt.Errorf("token %d is empty", i)
		}
		if id := m.vocab.Insert(tok); int(id) != i {
			return nil, fmt.Errorf("token %d %q repeats id %d", i, tok, id)
		}
	}

	n := int32(m.vocab.Len())
	for i, r := range s.Rules {
		if r.Left < 0 || r.Left >= n || r.Right < 0 || r.Right >= n || r.Result < 0 || r.Result >= n {
			return nil, fmt.Errorf("%w: rule %d (%d, %d) -> %d", ErrUnknownID, i, r.Left, r.Right, r.Result)
		}
		if want := m.vocab.token(r.Left) + m.vocab.token(r.Right); m.vocab.token(r.Result) != want {
			return nil, fmt.Errorf("rule %d: %q is not %q", i, m.vocab.token(r.Result), want)
		}
		if _, added := m.merges.Add(r.Pair, r.Result); !added {
			return nil, fmt.Errorf("rule %d: duplicate pair (%d, %d)", i, r.Left, r.Right)
		}
	}

	for _, tok := range s.SpecialTokens {
		if _, ok := m.vocab.Lookup(tok); !ok {
			return nil, fmt.Errorf("%w: special token %q", ErrUnknownToken, tok)
		}
		m.registerSpecial(tok)
	}
	return m, nil
}
