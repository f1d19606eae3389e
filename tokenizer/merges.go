// merges.go - Merge-Tabelle (Paar -> Ergebnis-ID)
//
// Enthaelt: Pair, Rule, MergeTable mit Lookup, Add und All
package tokenizer

import "iter"

// Pair is an ordered pair of adjacent token ids.
type Pair struct {
	Left, Right int32
}

// Rule rewrites Pair into Result.
type Rule struct {
	Pair
	Result int32
}

// MergeTable holds learned merge rules. Rules are only ever appended and are
// kept in the order they were learned.
type MergeTable struct {
	rules map[Pair]int32
	order []Pair
}

func NewMergeTable() *MergeTable {
	return &MergeTable{rules: make(map[Pair]int32)}
}

func (m *MergeTable) Len() int {
	return len(m.order)
}

// Lookup returns the result id of p.
func (m *MergeTable) Lookup(p Pair) (int32, bool) {
	id, ok := m.rules[p]
	return id, ok
}

// Add registers p -> result. An existing rule for p is kept and returned with
// added == false.
func (m *MergeTable) Add(p Pair, result int32) (_ int32, added bool) {
	if id, ok := m.rules[p]; ok {
		return id, false
	}
	m.rules[p] = result
	m.order = append(m.order, p)
	return result, true
}

// All yields every rule in learning order.
func (m *MergeTable) All() iter.Seq[Rule] {
	return func(yield func(Rule) bool) {
		for _, p := range m.order {
			if !yield(Rule{Pair: p, Result: m.rules[p]}) {
				return
			}
		}
	}
}
