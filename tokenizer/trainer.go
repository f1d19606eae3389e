// trainer.go - BPE-Training (Alphabet-Seeding und Merge-Schleife)
//
// Enthaelt: TrainOptions, Trainer, Result, StopReason und TrainChunk
package tokenizer

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// safetyMultiple bounds the merge loop to safetyMultiple * MaxVocabSize
// iterations.
const safetyMultiple = 3

// StopReason tells why a training call ended. None of them is an error.
type StopReason int

const (
	StopEmpty StopReason = iota
	StopConverged
	StopVocabCap
	StopSafetyLimit
)

func (r StopReason) String() string {
	switch r {
	case StopEmpty:
		return "empty input"
	case StopConverged:
		return "converged"
	case StopVocabCap:
		return "vocabulary cap reached"
	case StopSafetyLimit:
		return "safety limit reached"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Result summarizes one training call.
type Result struct {
	Learned   int // new merge rules
	Reused    int // merges applied from rules learned in earlier calls
	VocabSize int
	Symbols   int // length of the chunk after all merges
	Stop      StopReason
	Duration  time.Duration
}

// TrainOptions configure a Trainer.
type TrainOptions struct {
	// MaxVocabSize caps the vocabulary. Zero means unbounded.
	MaxVocabSize int

	// SpecialTokens are registered after the base alphabet. Nil selects
	// DefaultSpecialTokens.
	SpecialTokens []string

	Logger *slog.Logger
}

// Trainer grows a Model from raw text chunks.
type Trainer struct {
	model    *Model
	maxVocab int
	specials []string
	log      *slog.Logger
}

func NewTrainer(m *Model, opts TrainOptions) *Trainer {
	specials := opts.SpecialTokens
	if specials == nil {
		specials = DefaultSpecialTokens
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Trainer{
		model:    m,
		maxVocab: opts.MaxVocabSize,
		specials: slices.Clone(specials),
		log:      log,
	}
}

// TrainChunk learns merges from text and appends them to the model. Rules
// already known from earlier chunks are reused so that ids stay consistent
// across chunks. An empty chunk is a no-op.
func (t *Trainer) TrainChunk(text string) Result {
	start := time.Now()
	m := t.model
	if text == "" {
		return Result{VocabSize: m.vocab.Len(), Stop: StopEmpty}
	}

	runes := preprocess(text, m.marker)
	t.seed(runes)

	ids := make([]int32, len(runes))
	for i, r := range runes {
		ids[i] = m.vocab.Insert(string(r))
	}

	seq := newSymbols(ids)
	ix := newPairIndex(seq)

	limit := len(ids)
	if t.maxVocab > 0 {
		limit = safetyMultiple * t.maxVocab
	}

	res := Result{Stop: StopSafetyLimit}
	for iter := 0; iter < limit; iter++ {
		if t.maxVocab > 0 && m.vocab.Len() >= t.maxVocab {
			res.Stop = StopVocabCap
			break
		}

		top, ok := ix.best(t.eligible)
		if !ok {
			res.Stop = StopConverged
			break
		}

		result, known := m.merges.Lookup(top.pair)
		if known {
			res.Reused++
		} else {
			result = m.vocab.Insert(m.vocab.token(top.pair.Left) + m.vocab.token(top.pair.Right))
			m.merges.Add(top.pair, result)
			res.Learned++
		}

		n := ix.apply(seq, top.pair, result)
		if iter%1000 == 0 {
			t.log.Debug("merge", "iteration", iter, "left", top.pair.Left, "right", top.pair.Right,
				"result", result, "count", top.count, "applied", n, "vocab", m.vocab.Len())
		}
	}

	res.VocabSize = m.vocab.Len()
	res.Symbols = len(seq.slice())
	res.Duration = time.Since(start)
	t.log.Debug("chunk trained", "runes", len(runes), "learned", res.Learned, "reused", res.Reused,
		"vocab", res.VocabSize, "stop", res.Stop.String(), "duration", res.Duration)
	return res
}

// seed registers the base alphabet in a fixed order: code points 0..255, new
// runes of the chunk in ascending order, the marker, the special tokens.
// Known entries keep their ids.
func (t *Trainer) seed(runes []rune) {
	v := t.model.vocab
	for r := range rune(256) {
		v.Insert(string(r))
	}

	var fresh []rune
	seen := make(map[rune]struct{})
	for _, r := range runes {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		if _, ok := v.Lookup(string(r)); !ok {
			fresh = append(fresh, r)
		}
	}
	slices.Sort(fresh)
	for _, r := range fresh {
		v.Insert(string(r))
	}

	v.Insert(t.model.markerStr)
	for _, s := range t.specials {
		t.model.registerSpecial(s)
	}
}

// eligible rejects pairs that would hide the marker inside a token or that
// would produce a special token.
func (t *Trainer) eligible(p Pair) bool {
	m := t.model
	right := m.vocab.token(p.Right)
	if strings.HasPrefix(right, m.markerStr) {
		return false
	}
	if _, ok := m.specialIDs[m.vocab.token(p.Left)+right]; ok {
		return false
	}
	return !m.IsSpecial(p.Left) && !m.IsSpecial(p.Right)
}
