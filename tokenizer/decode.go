// decode.go - Token-IDs zurueck in Text wandeln
//
// Enthaelt: Decode, DecodeWith und das Entfernen von Special Tokens (regexp2)
package tokenizer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dlclark/regexp2"
)

// DecodeOptions control DecodeWith.
type DecodeOptions struct {
	// SkipSpecial removes every special token from the decoded text.
	SkipSpecial bool
}

// Decode converts ids back into text.
func (m *Model) Decode(ids []int32) (string, error) {
	return m.DecodeWith(ids, DecodeOptions{})
}

func (m *Model) DecodeWith(ids []int32, opts DecodeOptions) (string, error) {
	var sb strings.Builder
	for _, id := range ids {
		tok, err := m.vocab.Token(id)
		if err != nil {
			return "", err
		}
		if rest, ok := strings.CutPrefix(tok, m.markerStr); ok {
			sb.WriteByte(' ')
			tok = rest
		}
		sb.WriteString(tok)
	}

	text := strings.ReplaceAll(sb.String(), m.markerStr, "")
	if !opts.SkipSpecial || len(m.specials) == 0 {
		return text, nil
	}

	re, err := m.specialPattern()
	if err != nil {
		return "", err
	}
	text, err = re.Replace(text, "", -1, -1)
	if err != nil {
		return "", fmt.Errorf("strip special tokens: %w", err)
	}
	return text, nil
}

// specialPattern matches any special token. Longer tokens are tried first so
// that a token containing another one is removed whole.
func (m *Model) specialPattern() (*regexp2.Regexp, error) {
	m.stripOnce.Do(func() {
		toks := m.SpecialTokens()
		slices.SortStableFunc(toks, func(a, b string) int { return len(b) - len(a) })

		parts := make([]string, len(toks))
		for i, tok := range toks {
			parts[i] = regexp2.Escape(tok)
		}
		m.strip, m.stripErr = regexp2.Compile(strings.Join(parts, "|"), regexp2.None)
	})
	return m.strip, m.stripErr
}
