// pairs.go - Inkrementeller Paar-Index fuer das Training
//
// Enthaelt: symbols (doppelt verkettete Symbolliste), pairIndex mit
// Paar-Haeufigkeiten, Vorkommen und lazy Max-Heap (gods binaryheap)
package tokenizer

import (
	"cmp"
	"slices"

	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// symbols is the training sequence as a doubly linked list over the original
// positions. Merges always collapse into the left slot; the right slot dies
// and holds -1.
type symbols struct {
	ids  []int32
	prev []int
	next []int
}

func newSymbols(ids []int32) *symbols {
	n := len(ids)
	s := &symbols{ids: ids, prev: make([]int, n), next: make([]int, n)}
	for i := range n {
		s.prev[i] = i - 1
		s.next[i] = i + 1
	}
	if n > 0 {
		s.next[n-1] = -1
	}
	return s
}

// slice returns the live ids in sequence order.
func (s *symbols) slice() []int32 {
	out := make([]int32, 0, len(s.ids))
	for i := 0; i >= 0 && i < len(s.ids); i = s.next[i] {
		out = append(out, s.ids[i])
	}
	return out
}

type pairCount struct {
	pair  Pair
	count int
}

// comparePairCounts orders by count descending, then by (left, right) ascending.
func comparePairCounts(a, b pairCount) int {
	if c := cmp.Compare(b.count, a.count); c != 0 {
		return c
	}
	if c := cmp.Compare(a.pair.Left, b.pair.Left); c != 0 {
		return c
	}
	return cmp.Compare(a.pair.Right, b.pair.Right)
}

// pairIndex tracks the frequency and the left positions of every adjacent
// pair. Heap entries are pushed whenever a count changes and are discarded on
// pop if they no longer match the live count.
type pairIndex struct {
	counts map[Pair]int
	where  map[Pair]map[int]struct{}
	heap   *binaryheap.Heap[pairCount]
}

func newPairIndex(s *symbols) *pairIndex {
	ix := &pairIndex{
		counts: make(map[Pair]int),
		where:  make(map[Pair]map[int]struct{}),
		heap:   binaryheap.NewWith[pairCount](comparePairCounts),
	}
	for i := 0; i >= 0 && i < len(s.ids); i = s.next[i] {
		if j := s.next[i]; j >= 0 {
			ix.add(Pair{s.ids[i], s.ids[j]}, i)
		}
	}
	return ix
}

func (ix *pairIndex) add(p Pair, pos int) {
	ix.counts[p]++
	set, ok := ix.where[p]
	if !ok {
		set = make(map[int]struct{})
		ix.where[p] = set
	}
	set[pos] = struct{}{}

	if n := ix.counts[p]; n > 1 {
		ix.heap.Push(pairCount{pair: p, count: n})
	}
}

func (ix *pairIndex) remove(p Pair, pos int) {
	n := ix.counts[p] - 1
	if n <= 0 {
		delete(ix.counts, p)
		delete(ix.where, p)
		return
	}
	ix.counts[p] = n
	delete(ix.where[p], pos)

	if n > 1 {
		ix.heap.Push(pairCount{pair: p, count: n})
	}
}

// best pops the most frequent eligible pair. It reports false once no
// eligible pair occurs more than once.
func (ix *pairIndex) best(eligible func(Pair) bool) (pairCount, bool) {
	for {
		top, ok := ix.heap.Pop()
		if !ok {
			return pairCount{}, false
		}
		if ix.counts[top.pair] != top.count || top.count < 2 {
			continue
		}
		if !eligible(top.pair) {
			continue
		}
		return top, true
	}
}

// apply rewrites every occurrence of p into result in one left-to-right,
// non-overlapping pass and updates the counts around each rewrite. It returns
// the number of rewrites.
func (ix *pairIndex) apply(s *symbols, p Pair, result int32) int {
	positions := make([]int, 0, len(ix.where[p]))
	for pos := range ix.where[p] {
		positions = append(positions, pos)
	}
	slices.Sort(positions)

	ids := s.ids
	var n int
	for _, i := range positions {
		j := s.next[i]
		if ids[i] != p.Left || j < 0 || ids[j] != p.Right {
			continue
		}

		a, k := s.prev[i], s.next[j]
		if a >= 0 {
			ix.remove(Pair{ids[a], ids[i]}, a)
		}
		ix.remove(p, i)
		if k >= 0 {
			ix.remove(Pair{ids[j], ids[k]}, j)
		}

		ids[i], ids[j] = result, -1
		s.next[i] = k
		s.prev[j], s.next[j] = -1, -1
		if k >= 0 {
			s.prev[k] = i
		}

		if a >= 0 {
			ix.add(Pair{ids[a], result}, a)
		}
		if k >= 0 {
			ix.add(Pair{result, ids[k]}, i)
		}
		n++
	}
	return n
}
