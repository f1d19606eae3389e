// model.go - Tokenizer-Modell (Vokabular, Merges, Marker, Special Tokens)
//
// Enthaelt: Options, SpacePolicy, Model und Zugriffsfunktionen
package tokenizer

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dlclark/regexp2"
)

// DefaultMarker prefixes tokens that start a word preceded by a space.
const DefaultMarker = '▁'

// DefaultSpecialTokens are registered by the trainer when no others are given.
var DefaultSpecialTokens = []string{"[CLS]", "[SEP]", "[MASK]", "[PAD]"}

// SpacePolicy controls how the encoder treats runs of consecutive spaces.
type SpacePolicy int

const (
	// SpacesPreserve encodes every space, so decoding restores the input exactly.
	SpacesPreserve SpacePolicy = iota
	// SpacesCollapse encodes any run of spaces as a single space.
	SpacesCollapse
	// SpacesReject fails with ErrSpaceRun on runs of two or more spaces.
	SpacesReject
)

func (p SpacePolicy) String() string {
	switch p {
	case SpacesPreserve:
		return "preserve"
	case SpacesCollapse:
		return "collapse"
	case SpacesReject:
		return "reject"
	default:
		return fmt.Sprintf("SpacePolicy(%d)", int(p))
	}
}

// ParseSpacePolicy parses the names returned by SpacePolicy.String. The empty
// string selects SpacesPreserve.
func ParseSpacePolicy(s string) (SpacePolicy, error) {
	switch strings.ToLower(s) {
	case "", "preserve":
		return SpacesPreserve, nil
	case "collapse":
		return SpacesCollapse, nil
	case "reject":
		return SpacesReject, nil
	default:
		return 0, fmt.Errorf("unknown space policy %q", s)
	}
}

// Options configure a new Model.
type Options struct {
	Marker rune
	Spaces SpacePolicy
}

// Model is the owned, mutable tokenizer state: vocabulary, merge rules,
// boundary marker and special tokens. Only the Trainer mutates a Model; once
// training is done a Model may be shared by concurrent Encode and Decode calls.
type Model struct {
	vocab  *Vocabulary
	merges *MergeTable

	marker    rune
	markerStr string
	spaces    SpacePolicy

	specials   []string
	specialIDs map[string]int32

	stripOnce sync.Once
	strip     *regexp2.Regexp
	stripErr  error
}

// NewModel returns an empty model in training mode.
func NewModel(opts Options) *Model {
	marker := opts.Marker
	if marker == 0 {
		marker = DefaultMarker
	}

	return &Model{
		vocab:      NewVocabulary(),
		merges:     NewMergeTable(),
		marker:     marker,
		markerStr:  string(marker),
		spaces:     opts.Spaces,
		specialIDs: make(map[string]int32),
	}
}

func (m *Model) Vocabulary() *Vocabulary { return m.vocab }

func (m *Model) Merges() *MergeTable { return m.merges }

func (m *Model) Marker() rune { return m.marker }

func (m *Model) SpacePolicy() SpacePolicy { return m.spaces }

// SetSpacePolicy changes the whitespace policy used by Encode. It must not be
// called while the model is in use by other goroutines.
func (m *Model) SetSpacePolicy(p SpacePolicy) { m.spaces = p }

// SpecialTokens returns the special tokens in registration order.
func (m *Model) SpecialTokens() []string {
	return slices.Clone(m.specials)
}

// SpecialID returns the id of the special token tok.
func (m *Model) SpecialID(tok string) (int32, error) {
	id, ok := m.specialIDs[tok]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a special token", ErrUnknownToken, tok)
	}
	return id, nil
}

// IsSpecial reports whether id belongs to a special token.
func (m *Model) IsSpecial(id int32) bool {
	if id < 0 || int(id) >= m.vocab.Len() {
		return false
	}
	got, ok := m.specialIDs[m.vocab.token(id)]
	return ok && got == id
}

func (m *Model) registerSpecial(tok string) int32 {
	id := m.vocab.Insert(tok)
	if _, ok := m.specialIDs[tok]; !ok {
		m.specials = append(m.specials, tok)
		m.specialIDs[tok] = id
		m.stripOnce = sync.Once{}
	}
	return id
}
