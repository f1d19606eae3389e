// codec.go - Binaerformat der drei gespeicherten Blobs (protowire)
//
// Enthaelt: encode/decode fuer vocabulary, merges und reverse_vocabulary
// sowie die Pruefung der Formatversion (semver)
package tokenizer

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"
	"google.golang.org/protobuf/encoding/protowire"
)

// FormatVersion is written into every blob. Blobs with a different major
// version are rejected.
const FormatVersion = "v1.0.0"

// field numbers shared by all blobs
const (
	fieldVersion protowire.Number = 1

	fieldMarker  protowire.Number = 2
	fieldSpecial protowire.Number = 3
	fieldToken   protowire.Number = 4

	fieldRule protowire.Number = 2

	fieldEntry protowire.Number = 2

	fieldLeft   protowire.Number = 1
	fieldRight  protowire.Number = 2
	fieldResult protowire.Number = 3

	fieldEntryToken protowire.Number = 1
	fieldEntryID    protowire.Number = 2
)

var errMalformed = errors.New("malformed blob")

func appendVersion(b []byte) []byte {
	b = protowire.AppendTag(b, fieldVersion, protowire.BytesType)
	return protowire.AppendString(b, FormatVersion)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func encodeVocabulary(s Snapshot) []byte {
	b := appendVersion(nil)
	b = appendVarint(b, fieldMarker, uint64(s.Marker))
	for _, tok := range s.SpecialTokens {
		b = appendString(b, fieldSpecial, tok)
	}
	for _, tok := range s.Tokens {
		b = appendString(b, fieldToken, tok)
	}
	return b
}

func encodeMerges(s Snapshot) []byte {
	b := appendVersion(nil)
	var rule []byte
	for _, r := range s.Rules {
		rule = appendVarint(rule[:0], fieldLeft, uint64(r.Left))
		rule = appendVarint(rule, fieldRight, uint64(r.Right))
		rule = appendVarint(rule, fieldResult, uint64(r.Result))
		b = protowire.AppendTag(b, fieldRule, protowire.BytesType)
		b = protowire.AppendBytes(b, rule)
	}
	return b
}

func encodeReverse(s Snapshot) []byte {
	b := appendVersion(nil)
	var entry []byte
	for id, tok := range s.Tokens {
		entry = appendString(entry[:0], fieldEntryToken, tok)
		entry = appendVarint(entry, fieldEntryID, uint64(id))
		b = protowire.AppendTag(b, fieldEntry, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

// walk calls fn for every field of b. fn receives the raw value: the payload
// for bytes fields and the number for varint fields. Unknown field types are
// skipped.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, raw []byte, v uint64) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", errMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: %w", errMalformed, protowire.ParseError(n))
			}
			if err := fn(num, typ, raw, 0); err != nil {
				return err
			}
			b = b[n:]
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("%w: %w", errMalformed, protowire.ParseError(n))
			}
			if err := fn(num, typ, nil, v); err != nil {
				return err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %w", errMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func checkVersion(v string) error {
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid format version %q", errMalformed, v)
	}
	if semver.Major(v) != semver.Major(FormatVersion) {
		return fmt.Errorf("%w: unsupported format version %s", errMalformed, v)
	}
	return nil
}

// header tracks whether the version field was seen.
type header struct{ seen bool }

func (h *header) field(num protowire.Number, raw []byte) (bool, error) {
	if num != fieldVersion {
		return false, nil
	}
	h.seen = true
	return true, checkVersion(string(raw))
}

func (h *header) done(name string) error {
	if !h.seen {
		return fmt.Errorf("%w: %s: missing format version", errMalformed, name)
	}
	return nil
}

func decodeVocabulary(b []byte, s *Snapshot) error {
	var h header
	err := walk(b, func(num protowire.Number, typ protowire.Type, raw []byte, v uint64) error {
		if ok, err := h.field(num, raw); ok || err != nil {
			return err
		}
		switch num {
		case fieldMarker:
			s.Marker = rune(v)
		case fieldSpecial:
			s.SpecialTokens = append(s.SpecialTokens, string(raw))
		case fieldToken:
			s.Tokens = append(s.Tokens, string(raw))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return h.done("vocabulary")
}

func decodeMerges(b []byte, s *Snapshot) error {
	var h header
	err := walk(b, func(num protowire.Number, typ protowire.Type, raw []byte, _ uint64) error {
		if ok, err := h.field(num, raw); ok || err != nil {
			return err
		}
		if num != fieldRule || typ != protowire.BytesType {
			return nil
		}

		var r Rule
		err := walk(raw, func(num protowire.Number, _ protowire.Type, _ []byte, v uint64) error {
			switch num {
			case fieldLeft:
				r.Left = int32(v)
			case fieldRight:
				r.Right = int32(v)
			case fieldResult:
				r.Result = int32(v)
			}
			return nil
		})
		s.Rules = append(s.Rules, r)
		return err
	})
	if err != nil {
		return err
	}
	return h.done("merges")
}

// decodeReverse checks the reverse vocabulary against s.Tokens.
func decodeReverse(b []byte, s *Snapshot) error {
	var h header
	var entries int
	err := walk(b, func(num protowire.Number, typ protowire.Type, raw []byte, _ uint64) error {
		if ok, err := h.field(num, raw); ok || err != nil {
			return err
		}
		if num != fieldEntry || typ != protowire.BytesType {
			return nil
		}

		var tok string
		var id uint64
		err := walk(raw, func(num protowire.Number, _ protowire.Type, raw []byte, v uint64) error {
			switch num {
			case fieldEntryToken:
				tok = string(raw)
			case fieldEntryID:
				id = v
			}
			return nil
		})
		if err != nil {
			return err
		}
		if id >= uint64(len(s.Tokens)) || s.Tokens[id] != tok {
			return fmt.Errorf("%w: reverse entry %q -> %d does not match vocabulary", errMalformed, tok, id)
		}
		entries++
		return nil
	})
	if err != nil {
		return err
	}
	if entries != len(s.Tokens) {
		return fmt.Errorf("%w: reverse vocabulary has %d entries, vocabulary %d", errMalformed, entries, len(s.Tokens))
	}
	return h.done("reverse_vocabulary")
}
