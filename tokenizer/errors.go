// errors.go - Fehlertypen des Tokenizers
//
// Enthaelt: Sentinel-Fehler fuer Lookups, Store und Encoder, CharacterError
package tokenizer

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownID is returned when an id is not part of the vocabulary.
	ErrUnknownID = errors.New("unknown token id")

	// ErrUnknownToken is returned when a token string is not part of the vocabulary.
	ErrUnknownToken = errors.New("unknown token")

	// ErrUnknownCharacter is returned by the encoder for runes outside the
	// trained base alphabet.
	ErrUnknownCharacter = errors.New("unknown character")

	// ErrStoreUnavailable is returned when persisted blobs are missing or corrupt.
	ErrStoreUnavailable = errors.New("tokenizer store unavailable")

	// ErrSpaceRun is returned under SpacesReject for runs of two or more spaces.
	ErrSpaceRun = errors.New("consecutive spaces are not supported")
)

// CharacterError reports a rune the encoder cannot map to a base token.
type CharacterError struct {
	Rune   rune
	Offset int // byte offset in the encoded text
}

func (e *CharacterError) Error() string {
	return fmt.Sprintf("%s %q (U+%04X) at offset %d", ErrUnknownCharacter, e.Rune, e.Rune, e.Offset)
}

func (e *CharacterError) Unwrap() error {
	return ErrUnknownCharacter
}
