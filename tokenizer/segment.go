// segment.go - Vorverarbeitung fuer Training und Segmentierung fuer Encoding
//
// Enthaelt: preprocess (Leerzeichen -> Marker), segment und segmentKind
package tokenizer

import (
	"fmt"
	"strings"
)

// preprocess turns a training chunk into a rune stream: every space except a
// leading one becomes the marker, a leading space is dropped, everything else
// passes through unchanged.
func preprocess(text string, marker rune) []rune {
	out := make([]rune, 0, len(text))
	first := true
	for _, r := range text {
		if r == ' ' {
			if !first {
				out = append(out, marker)
			}
		} else {
			out = append(out, r)
		}
		first = false
	}
	return out
}

type segmentKind int

const (
	segmentWord    segmentKind = iota // a word, optionally marker prefixed
	segmentSpace                      // a standalone marker
	segmentNewline                    // a single newline
	segmentSpecial                    // a special token written verbatim
)

// segment is one unit of encoder input. offset is the byte offset of text in
// the original string.
type segment struct {
	kind   segmentKind
	text   string
	marked bool
	offset int
}

// segments splits text into newlines, words and spaces. A word that follows at
// least one space carries the marker; the remaining spaces of a run, and runs
// that are not followed by a word, become standalone markers according to the
// space policy.
func (m *Model) segments(text string) ([]segment, error) {
	var segs []segment
	spaces, spaceStart := 0, 0

	flushSpaces := func(beforeWord bool) error {
		if spaces == 0 {
			return nil
		}
		lone := spaces
		switch m.spaces {
		case SpacesCollapse:
			lone = 1
		case SpacesReject:
			if spaces > 1 {
				return fmt.Errorf("%w: %d spaces at offset %d", ErrSpaceRun, spaces, spaceStart)
			}
		}
		if beforeWord {
			lone--
		}
		for i := range lone {
			segs = append(segs, segment{kind: segmentSpace, offset: spaceStart + i})
		}
		return nil
	}

	for i := 0; i < len(text); {
		switch text[i] {
		case ' ':
			if spaces == 0 {
				spaceStart = i
			}
			spaces++
			i++
		case '\n':
			if err := flushSpaces(false); err != nil {
				return nil, err
			}
			spaces = 0
			segs = append(segs, segment{kind: segmentNewline, text: "\n", offset: i})
			i++
		default:
			j := i + strings.IndexAny(text[i:], " \n")
			if j < i {
				j = len(text)
			}
			word := text[i:j]

			if _, ok := m.specialIDs[word]; ok {
				if err := flushSpaces(false); err != nil {
					return nil, err
				}
				segs = append(segs, segment{kind: segmentSpecial, text: word, offset: i})
			} else {
				if err := flushSpaces(true); err != nil {
					return nil, err
				}
				segs = append(segs, segment{kind: segmentWord, text: word, marked: spaces > 0, offset: i})
			}
			spaces = 0
			i = j
		}
	}

	if err := flushSpaces(false); err != nil {
		return nil, err
	}
	return segs, nil
}
