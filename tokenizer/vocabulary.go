// vocabulary.go - Vokabular-Speicher (id <-> Token)
//
// Enthaelt: Vocabulary mit Token, ID, Lookup und idempotentem Insert
package tokenizer

import (
	"fmt"
	"slices"
)

// Vocabulary maps dense token ids to token strings and back. Ids are assigned
// in insertion order and never reused or renumbered. Every token string has
// exactly one id.
type Vocabulary struct {
	values  []string
	reverse map[string]int32
}

func NewVocabulary() *Vocabulary {
	return &Vocabulary{reverse: make(map[string]int32)}
}

// Len returns the number of tokens, which is also the next id to be minted.
func (v *Vocabulary) Len() int {
	return len(v.values)
}

// Token returns the string of id.
func (v *Vocabulary) Token(id int32) (string, error) {
	if id < 0 || int(id) >= len(v.values) {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return v.values[id], nil
}

// ID returns the id of token.
func (v *Vocabulary) ID(token string) (int32, error) {
	id, ok := v.reverse[token]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownToken, token)
	}
	return id, nil
}

// Lookup is the non-error form of ID.
func (v *Vocabulary) Lookup(token string) (int32, bool) {
	id, ok := v.reverse[token]
	return id, ok
}

// Insert returns the id of token, appending it first if it is not known yet.
// Inserting an empty token panics.
func (v *Vocabulary) Insert(token string) int32 {
	if id, ok := v.reverse[token]; ok {
		return id
	}
	if token == "" {
		panic("tokenizer: empty token")
	}

	id := int32(len(v.values))
	v.values = append(v.values, token)
	v.reverse[token] = id
	return id
}

// Values returns a copy of all tokens indexed by id.
func (v *Vocabulary) Values() []string {
	return slices.Clone(v.values)
}

// token is the unchecked form of Token for ids known to be valid.
func (v *Vocabulary) token(id int32) string {
	return v.values[id]
}
