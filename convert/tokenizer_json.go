// tokenizer_json.go - Import und Export im tokenizer.json-Format
// Enthält: tokenizerFile-Struktur, ImportTokenizerJSON, WriteTokenizerJSON,
// parseMerges und Marker-Erkennung

package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/ollama/subword/tokenizer"
)

// tokenizerFile repräsentiert die tokenizer.json Struktur beim Lesen
type tokenizerFile struct {
	AddedTokens []token `json:"added_tokens"`
	Model       struct {
		Type   string          `json:"type"`
		Vocab  map[string]int  `json:"vocab"`
		Merges json.RawMessage `json:"merges"`
	} `json:"model"`

	PreTokenizer struct {
		Type        string `json:"type"`
		Replacement string `json:"replacement"`
	} `json:"pre_tokenizer"`
}

// token repräsentiert ein einzelnes hinzugefügtes Token
type token struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
	Special bool   `json:"special"`
}

// ImportTokenizerJSON liest tokenizer.json aus fsys. Merges, deren Ergebnis
// nicht im Vokabular steht, werden übersprungen.
func ImportTokenizerJSON(fsys fs.FS) (tokenizer.Snapshot, error) {
	f, err := fsys.Open("tokenizer.json")
	if err != nil {
		return tokenizer.Snapshot{}, err
	}
	defer f.Close()

	var tt tokenizerFile
	if err := json.NewDecoder(f).Decode(&tt); err != nil {
		return tokenizer.Snapshot{}, err
	}
	if tt.Model.Type != "" && tt.Model.Type != "BPE" {
		return tokenizer.Snapshot{}, fmt.Errorf("unsupported model type %q", tt.Model.Type)
	}

	tokens := make(map[int]string, len(tt.Model.Vocab)+len(tt.AddedTokens))
	for k, v := range tt.Model.Vocab {
		tokens[v] = k
	}
	for _, tok := range tt.AddedTokens {
		tokens[tok.ID] = tok.Content
	}

	var s tokenizer.Snapshot
	ids := make(map[string]int32, len(tokens))
	for i, k := range slices.Sorted(maps.Keys(tokens)) {
		if k != i {
			return tokenizer.Snapshot{}, fmt.Errorf("vocabulary is not dense: id %d follows %d", k, i-1)
		}
		s.Tokens = append(s.Tokens, tokens[k])
		ids[tokens[k]] = int32(k)
	}
	for _, tok := range tt.AddedTokens {
		if tok.Special {
			s.SpecialTokens = append(s.SpecialTokens, tok.Content)
		}
	}

	merges, err := parseMerges(tt.Model.Merges)
	if err != nil {
		return tokenizer.Snapshot{}, err
	}
	var skipped int
	for _, m := range merges {
		left, right, ok := strings.Cut(m, " ")
		l, lok := ids[left]
		r, rok := ids[right]
		res, resok := ids[left+right]
		if !ok || !lok || !rok || !resok {
			skipped++
			continue
		}
		s.Rules = append(s.Rules, tokenizer.Rule{Pair: tokenizer.Pair{Left: l, Right: r}, Result: res})
	}
	if skipped > 0 {
		slog.Warn("skipped merges without vocabulary entry", "count", skipped)
	}

	s.Marker = detectMarker(tt.PreTokenizer.Replacement, s.Tokens)
	return s, nil
}

// parseMerges parst die Merges (kann []string oder [][]string sein)
func parseMerges(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var merges []string
	if err := json.Unmarshal(raw, &merges); err == nil {
		return merges, nil
	}

	var pairs [][]string
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, errors.New("could not parse tokenizer merges. expected []string or [][]string")
	}

	merges = make([]string, len(pairs))
	for i := range pairs {
		merges[i] = strings.Join(pairs[i], " ")
	}
	return merges, nil
}

// detectMarker wählt den Wortgrenzen-Marker: die Metaspace-Ersetzung, sonst
// '▁' falls ein Token damit beginnt, sonst 'Ġ' (Byte-Level BPE).
func detectMarker(replacement string, tokens []string) rune {
	if r := []rune(replacement); len(r) == 1 {
		return r[0]
	}
	if slices.ContainsFunc(tokens, func(s string) bool { return strings.HasPrefix(s, string(tokenizer.DefaultMarker)) }) {
		return tokenizer.DefaultMarker
	}
	return 'Ġ'
}

// WriteTokenizerJSON schreibt s als tokenizer.json. Das Vokabular bleibt nach
// IDs geordnet.
func WriteTokenizerJSON(w io.Writer, s tokenizer.Snapshot) error {
	vocab := orderedmap.New[string, int32]()
	specials := make(map[string]bool, len(s.SpecialTokens))
	for _, tok := range s.SpecialTokens {
		specials[tok] = true
	}

	var added []token
	for id, tok := range s.Tokens {
		if specials[tok] {
			added = append(added, token{ID: id, Content: tok, Special: true})
			continue
		}
		vocab.Set(tok, int32(id))
	}

	merges := make([][]string, len(s.Rules))
	for i, r := range s.Rules {
		merges[i] = []string{s.Tokens[r.Left], s.Tokens[r.Right]}
	}

	marker := s.Marker
	if marker == 0 {
		marker = tokenizer.DefaultMarker
	}

	out := map[string]any{
		"version":      "1.0",
		"added_tokens": added,
		"pre_tokenizer": map[string]any{
			"type":        "Metaspace",
			"replacement": string(marker),
		},
		"model": map[string]any{
			"type":   "BPE",
			"vocab":  vocab,
			"merges": merges,
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
