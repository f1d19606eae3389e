// encode_test.go - Tests fuer Encoder, Decoder und Batch-Encoding
package tokenizer

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpus = `the quick brown fox jumps over the lazy dog
the lazy dog sleeps while the quick fox runs
a fox is quick and a dog is lazy`

func trained(t *testing.T) *Model {
	t.Helper()
	m := NewModel(Options{})
	NewTrainer(m, TrainOptions{MaxVocabSize: 400}).TrainChunk(corpus)
	return m
}

func TestEncodeRoundtrip(t *testing.T) {
	m := trained(t)

	texts := []string{
		"the quick fox",
		"the  lazy   dog",
		" leading space",
		"trailing spaces  ",
		"line one\nline two\n\nline four",
		"space before newline \nnext",
		"unseen words: zebra, 42!",
		"",
	}
	for _, text := range texts {
		ids, err := m.Encode(text)
		require.NoError(t, err, text)
		got, err := m.Decode(ids)
		require.NoError(t, err, text)
		assert.Equal(t, text, got)
	}
}

func TestEncodeUsesFastPath(t *testing.T) {
	m := trained(t)
	v := m.Vocabulary()

	id, ok := v.Lookup("the")
	require.True(t, ok, "\"the\" sollte gelernt sein")
	ids, fast, err := m.encodeSegment(nil, segment{kind: segmentWord, text: "the"})
	require.NoError(t, err)
	assert.True(t, fast)
	assert.Equal(t, []int32{id}, ids)

	marked, ok := v.Lookup(string(DefaultMarker) + "quick")
	require.True(t, ok, "\"▁quick\" sollte gelernt sein")
	ids, err = m.Encode("the quick")
	require.NoError(t, err)
	assert.Equal(t, []int32{id, marked}, ids)
}

func TestEncodeMergesUnknownWords(t *testing.T) {
	m := trained(t)

	ids, fast, err := m.encodeSegment(nil, segment{kind: segmentWord, text: "thequick", marked: true})
	require.NoError(t, err)
	assert.False(t, fast)
	assert.Less(t, len(ids), len("▁thequick"), "Merges sollten die Sequenz verkuerzen")

	got, err := m.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, " thequick", got)
}

func TestEncodeUnknownCharacter(t *testing.T) {
	m := trained(t)

	_, err := m.Encode("ab €uro")
	require.ErrorIs(t, err, ErrUnknownCharacter)

	var ce *CharacterError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, '€', ce.Rune)
	assert.Equal(t, 3, ce.Offset)
}

func TestEncodeSpacePolicies(t *testing.T) {
	m := trained(t)
	const text = "the   dog  "

	m.SetSpacePolicy(SpacesCollapse)
	ids, err := m.Encode(text)
	require.NoError(t, err)
	got, err := m.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "the dog ", got)

	m.SetSpacePolicy(SpacesReject)
	_, err = m.Encode(text)
	assert.ErrorIs(t, err, ErrSpaceRun)
	_, err = m.Encode("the dog")
	assert.NoError(t, err)
}

func TestEncodeSpecialTokens(t *testing.T) {
	m := trained(t)
	cls, err := m.SpecialID("[CLS]")
	require.NoError(t, err)
	sep, err := m.SpecialID("[SEP]")
	require.NoError(t, err)

	ids, err := m.Encode("[CLS] the dog [SEP]")
	require.NoError(t, err)
	assert.Equal(t, cls, ids[0])
	assert.Equal(t, sep, ids[len(ids)-1])

	got, err := m.Decode(ids)
	require.NoError(t, err)
	assert.Equal(t, "[CLS] the dog [SEP]", got)

	got, err = m.DecodeWith(ids, DecodeOptions{SkipSpecial: true})
	require.NoError(t, err)
	assert.Equal(t, " the dog ", got)
}

func TestDecodeLoneMarkers(t *testing.T) {
	m := trained(t)
	v := m.Vocabulary()

	marker, _ := v.Lookup(string(DefaultMarker))
	a, _ := v.Lookup("a")
	b, _ := v.Lookup("b")

	got, err := m.Decode([]int32{a, marker, marker, b})
	require.NoError(t, err)
	assert.Equal(t, "a  b", got)

	_, err = m.Decode([]int32{a, int32(v.Len())})
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestEncodeBatchKeepsOrder(t *testing.T) {
	m := trained(t)
	texts := []string{"the dog", "a quick fox", "", "lazy\ndog", "the fox runs"}

	got, err := m.EncodeBatch(context.Background(), texts, 2)
	require.NoError(t, err)
	require.Len(t, got, len(texts))
	for i, text := range texts {
		want, err := m.Encode(text)
		require.NoError(t, err)
		assert.True(t, slices.Equal(want, got[i]), "Text %d: %v != %v", i, got[i], want)
	}

	_, err = m.EncodeBatch(context.Background(), []string{"ok", "€"}, 0)
	assert.ErrorIs(t, err, ErrUnknownCharacter)
}

func TestRewriteIsNonOverlapping(t *testing.T) {
	match := func(p Pair) (int32, bool) { return 9, p == Pair{1, 1} }

	got, n := rewrite(nil, []int32{1, 1, 1, 2, 1, 1, 1, 1}, match)
	assert.Equal(t, []int32{9, 1, 2, 9, 9}, got)
	assert.Equal(t, 3, n)
}

func TestDecodeDropsMarkerInsideToken(t *testing.T) {
	m := NewModel(Options{})
	id := m.Vocabulary().Insert("a▁b")
	lead := m.Vocabulary().Insert("▁c▁")

	got, err := m.Decode([]int32{id, lead})
	require.NoError(t, err)
	assert.Equal(t, "ab c", got)
}
