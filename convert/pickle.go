// pickle.go - Import gepickelter Vokabulare (bpe_vocab.pkl, bpe_merge.pkl,
// bpe_inverse_vocab.pkl)
// Enthält: PickleFiles, ImportStats, ImportPickles, importLegacy und
// Konvertierung der Python-Werte

package convert

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"maps"
	"math/big"
	"os"
	"path/filepath"
	"slices"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/ollama/subword/tokenizer"
)

// LegacyMarker ist der Wortgrenzen-Marker der gepickelten Modelle.
const LegacyMarker = '#'

// PickleFiles benennt die drei Dateien eines gepickelten Modells.
type PickleFiles struct {
	Vocab   string
	Merges  string
	Inverse string
}

// DefaultPickleFiles liefert die Standard-Dateinamen in dir.
func DefaultPickleFiles(dir string) PickleFiles {
	return PickleFiles{
		Vocab:   filepath.Join(dir, "bpe_vocab.pkl"),
		Merges:  filepath.Join(dir, "bpe_merge.pkl"),
		Inverse: filepath.Join(dir, "bpe_inverse_vocab.pkl"),
	}
}

// ImportStats zählt, was beim Import zusammengeführt oder verworfen wurde.
type ImportStats struct {
	Tokens       int
	Duplicates   int // Tokens mit mehreren IDs, auf die erste ID abgebildet
	Rules        int
	SkippedRules int // Regeln mit unbekannter ID oder falscher Verkettung
	Mismatches   int // Einträge des inversen Vokabulars ohne passende erste ID
}

// ImportPickles liest ein gepickeltes Modell. IDs werden verdichtet: jede
// Zeichenkette erhält die ID ihres ersten Vorkommens, Regeln werden
// entsprechend umgeschrieben. specials nennt die Special Tokens, die im
// Vokabular gesucht werden.
func ImportPickles(files PickleFiles, specials []string) (tokenizer.Snapshot, ImportStats, error) {
	var values [3]any
	for i, name := range []string{files.Vocab, files.Merges, files.Inverse} {
		f, err := os.Open(name)
		if err != nil {
			return tokenizer.Snapshot{}, ImportStats{}, err
		}
		values[i], err = unpickle(f)
		f.Close()
		if err != nil {
			return tokenizer.Snapshot{}, ImportStats{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return importLegacy(values[0], values[1], values[2], specials)
}

func unpickle(r io.Reader) (any, error) {
	u := pickle.NewUnpickler(r)
	return u.Load()
}

func importLegacy(vocab, merges, inverse any, specials []string) (tokenizer.Snapshot, ImportStats, error) {
	var stats ImportStats

	vd, ok := vocab.(*types.Dict)
	if !ok {
		return tokenizer.Snapshot{}, stats, fmt.Errorf("vocabulary: expected dict, got %T", vocab)
	}

	old := make(map[int64]string, vd.Len())
	for _, k := range vd.Keys() {
		id, err := toInt(k)
		if err != nil {
			return tokenizer.Snapshot{}, stats, fmt.Errorf("vocabulary key: %w", err)
		}
		tok, ok := vd.MustGet(k).(string)
		if !ok || tok == "" {
			return tokenizer.Snapshot{}, stats, fmt.Errorf("vocabulary entry %d: expected non-empty string", id)
		}
		old[id] = tok
	}

	s := tokenizer.Snapshot{Marker: LegacyMarker}
	remap := make(map[int64]int32, len(old))
	dense := make(map[string]int32, len(old))
	for _, id := range slices.Sorted(maps.Keys(old)) {
		tok := old[id]
		if n, ok := dense[tok]; ok {
			remap[id] = n
			stats.Duplicates++
			continue
		}
		n := int32(len(s.Tokens))
		s.Tokens = append(s.Tokens, tok)
		dense[tok] = n
		remap[id] = n
	}
	stats.Tokens = len(s.Tokens)

	md, ok := merges.(*types.Dict)
	if !ok {
		return tokenizer.Snapshot{}, stats, fmt.Errorf("merges: expected dict, got %T", merges)
	}
	seen := make(map[tokenizer.Pair]bool, md.Len())
	for _, k := range md.Keys() {
		pair, err := toPair(k)
		if err != nil {
			return tokenizer.Snapshot{}, stats, fmt.Errorf("merge key: %w", err)
		}
		res, err := toInt(md.MustGet(k))
		if err != nil {
			return tokenizer.Snapshot{}, stats, fmt.Errorf("merge value: %w", err)
		}

		l, lok := remap[pair[0]]
		r, rok := remap[pair[1]]
		n, nok := remap[res]
		p := tokenizer.Pair{Left: l, Right: r}
		if !lok || !rok || !nok || seen[p] || s.Tokens[n] != s.Tokens[l]+s.Tokens[r] {
			stats.SkippedRules++
			continue
		}
		seen[p] = true
		s.Rules = append(s.Rules, tokenizer.Rule{Pair: p, Result: n})
	}
	slices.SortFunc(s.Rules, func(a, b tokenizer.Rule) int { return cmp.Compare(a.Result, b.Result) })
	stats.Rules = len(s.Rules)

	if inverse != nil {
		inv, ok := inverse.(*types.Dict)
		if !ok {
			return tokenizer.Snapshot{}, stats, fmt.Errorf("inverse vocabulary: expected dict, got %T", inverse)
		}
		for _, k := range inv.Keys() {
			tok, _ := k.(string)
			first, err := firstID(inv.MustGet(k))
			if err != nil {
				return tokenizer.Snapshot{}, stats, fmt.Errorf("inverse vocabulary %q: %w", tok, err)
			}
			if n, ok := remap[first]; !ok || dense[tok] != n {
				stats.Mismatches++
			}
		}
	}

	for _, tok := range specials {
		if _, ok := dense[tok]; ok {
			s.SpecialTokens = append(s.SpecialTokens, tok)
		}
	}
	return s, stats, nil
}

func toInt(v any) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case *big.Int:
		if !v.IsInt64() {
			return 0, fmt.Errorf("integer %s out of range", v)
		}
		return v.Int64(), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toPair(v any) ([2]int64, error) {
	var items []any
	switch v := v.(type) {
	case *types.Tuple:
		for i := range v.Len() {
			items = append(items, v.Get(i))
		}
	case *types.List:
		for i := range v.Len() {
			items = append(items, v.Get(i))
		}
	default:
		return [2]int64{}, fmt.Errorf("expected tuple, got %T", v)
	}
	if len(items) != 2 {
		return [2]int64{}, fmt.Errorf("expected pair, got %d items", len(items))
	}

	var p [2]int64
	for i, item := range items {
		n, err := toInt(item)
		if err != nil {
			return [2]int64{}, err
		}
		p[i] = n
	}
	return p, nil
}

// firstID liest die erste ID einer ID-Liste; einzelne Zahlen sind erlaubt.
func firstID(v any) (int64, error) {
	switch v := v.(type) {
	case *types.List:
		if v.Len() == 0 {
			return 0, errors.New("empty id list")
		}
		return toInt(v.Get(0))
	case *types.Tuple:
		if v.Len() == 0 {
			return 0, errors.New("empty id list")
		}
		return toInt(v.Get(0))
	}
	return toInt(v)
}
