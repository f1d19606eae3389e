// pipeline.go - Encoder und Strategy zu einer Batch-Pipeline verbinden
//
// Enthaelt: Config, Pipeline, NewPipeline, Encode, PrepareMLM
package batch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/ollama/subword/mlm"
	"github.com/ollama/subword/tokenizer"
)

// DefaultWidth is the row width used when Config.Strategy.Width is zero.
const DefaultWidth = 150

// DefaultMaskRate is used by PrepareMLM when the strategy does not mask.
const DefaultMaskRate = 0.15

// Config configures a Pipeline. Token names are resolved against the model's
// special tokens; empty names are skipped.
type Config struct {
	Strategy Strategy

	StartToken string // prepended to every row, e.g. "[CLS]"
	EndToken   string // appended to every row, e.g. "[SEP]"
	PadToken   string // overrides Strategy.PadID
	MaskToken  string // overrides Strategy.Masking.MaskID

	Seed     uint64
	Parallel int
}

// Pipeline encodes text into shaped batches. It is safe for concurrent use.
type Pipeline struct {
	model    *tokenizer.Model
	strategy Strategy
	start    []int32
	end      []int32
	maskID   int32
	hasMask  bool
	parallel int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPipeline(m *tokenizer.Model, cfg Config) (*Pipeline, error) {
	p := &Pipeline{
		model:    m,
		strategy: cfg.Strategy,
		parallel: cfg.Parallel,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
	if p.strategy.Width == 0 {
		p.strategy.Width = DefaultWidth
	}

	special := func(tok string) ([]int32, error) {
		if tok == "" {
			return nil, nil
		}
		id, err := m.SpecialID(tok)
		if err != nil {
			return nil, err
		}
		return []int32{id}, nil
	}

	var err error
	if p.start, err = special(cfg.StartToken); err != nil {
		return nil, fmt.Errorf("start token: %w", err)
	}
	if p.end, err = special(cfg.EndToken); err != nil {
		return nil, fmt.Errorf("end token: %w", err)
	}
	if pad, err := special(cfg.PadToken); err != nil {
		return nil, fmt.Errorf("pad token: %w", err)
	} else if pad != nil {
		p.strategy.PadID = pad[0]
	}

	if masking := p.strategy.Masking; masking != nil {
		p.maskID, p.hasMask = masking.MaskID, true
	}
	if mask, err := special(cfg.MaskToken); err != nil {
		return nil, fmt.Errorf("mask token: %w", err)
	} else if mask != nil {
		p.maskID, p.hasMask = mask[0], true
		if p.strategy.Masking != nil {
			c := *p.strategy.Masking
			c.MaskID = mask[0]
			p.strategy.Masking = &c
		}
	}
	return p, nil
}

func (p *Pipeline) Strategy() Strategy { return p.strategy }

// Encode encodes texts in parallel and shapes them into one batch.
func (p *Pipeline) Encode(ctx context.Context, texts []string) (*Batch, error) {
	seqs, err := p.model.EncodeBatch(ctx, texts, p.parallel)
	if err != nil {
		return nil, err
	}
	for i, seq := range seqs {
		seqs[i] = p.wrap(seq)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.strategy.Shape(seqs, p.rng)
}

// PrepareMLM encodes text and masks it with the strategy's masking settings,
// or with DefaultMaskRate if the strategy does not mask.
func (p *Pipeline) PrepareMLM(text string) (mlm.Sequence, error) {
	if !p.hasMask {
		return mlm.Sequence{}, fmt.Errorf("%w: no mask token configured", tokenizer.ErrUnknownToken)
	}
	ids, err := p.model.Encode(text)
	if err != nil {
		return mlm.Sequence{}, err
	}

	rate := DefaultMaskRate
	if p.strategy.Masking != nil {
		rate = p.strategy.Masking.Rate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return mlm.Mask(p.wrap(ids), rate, p.maskID, p.rng)
}

func (p *Pipeline) wrap(ids []int32) []int32 {
	if len(p.start) == 0 && len(p.end) == 0 {
		return ids
	}
	out := make([]int32, 0, len(p.start)+len(ids)+len(p.end))
	out = append(out, p.start...)
	out = append(out, ids...)
	return append(out, p.end...)
}
