// encode.go - Text zu Token-IDs encodieren
//
// Enthaelt:
// - Encode: Segmentierung, Fast Path und gierige Merge-Anwendung
// - EncodeBatch: paralleles Encoding mehrerer Texte (errgroup)
// - rewrite: gemeinsamer Ersetzungsdurchlauf fuer Encoder und Referenz-Training
package tokenizer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Encode converts text into token ids. It only reads the model.
func (m *Model) Encode(text string) ([]int32, error) {
	segs, err := m.segments(text)
	if err != nil {
		return nil, err
	}

	ids := make([]int32, 0, len(text)/2+1)
	for _, seg := range segs {
		ids, _, err = m.encodeSegment(ids, seg)
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// encodeSegment appends the ids of seg to dst. fast reports whether the
// segment was found verbatim in the vocabulary.
func (m *Model) encodeSegment(dst []int32, seg segment) (_ []int32, fast bool, _ error) {
	var s string
	switch seg.kind {
	case segmentSpace:
		s = m.markerStr
	case segmentNewline, segmentSpecial:
		s = seg.text
	default:
		s = seg.text
		if seg.marked {
			s = m.markerStr + seg.text
		}
	}

	if id, ok := m.vocab.Lookup(s); ok {
		return append(dst, id), true, nil
	}
	if seg.kind != segmentWord {
		// markers, newlines and specials are always part of a trained vocabulary
		r := []rune(s)[0]
		return dst, false, &CharacterError{Rune: r, Offset: seg.offset}
	}

	ids := make([]int32, 0, len(s))
	if seg.marked {
		id, ok := m.vocab.Lookup(m.markerStr)
		if !ok {
			return dst, false, &CharacterError{Rune: m.marker, Offset: seg.offset}
		}
		ids = append(ids, id)
	}
	for off, r := range seg.text {
		id, ok := m.vocab.Lookup(string(r))
		if !ok {
			return dst, false, &CharacterError{Rune: r, Offset: seg.offset + off}
		}
		ids = append(ids, id)
	}

	return append(dst, m.applyMerges(ids)...), false, nil
}

// applyMerges repeats full rewrite passes with every known rule until a pass
// changes nothing. Each productive pass shortens ids, so this terminates.
func (m *Model) applyMerges(ids []int32) []int32 {
	buf := make([]int32, 0, len(ids))
	for len(ids) > 1 {
		next, n := rewrite(buf[:0], ids, m.merges.Lookup)
		if n == 0 {
			break
		}
		ids, buf = next, ids
	}
	return ids
}

// rewrite appends to dst the result of one left-to-right, non-overlapping pass
// over ids: each adjacent pair that match maps is replaced by its result and
// the scan continues after the pair, so a freshly emitted id is never matched
// again in the same pass. dst must not alias ids.
func rewrite(dst, ids []int32, match func(Pair) (int32, bool)) ([]int32, int) {
	var n int
	i := 0
	for i < len(ids)-1 {
		if id, ok := match(Pair{ids[i], ids[i+1]}); ok {
			dst = append(dst, id)
			i += 2
			n++
			continue
		}
		dst = append(dst, ids[i])
		i++
	}
	if i < len(ids) {
		dst = append(dst, ids[i])
	}
	return dst, n
}

// EncodeBatch encodes texts concurrently, at most parallel at a time (zero
// selects GOMAXPROCS). Results keep the order of texts. The model must not be
// trained while EncodeBatch runs.
func (m *Model) EncodeBatch(ctx context.Context, texts []string, parallel int) ([][]int32, error) {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}

	out := make([][]int32, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, text := range texts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids, err := m.Encode(text)
			if err != nil {
				return err
			}
			out[i] = ids
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
