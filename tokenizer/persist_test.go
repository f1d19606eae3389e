// persist_test.go - Tests fuer Speichern, Laden und Blob-Format
package tokenizer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ollama/subword/store"
)

func TestSaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	m := trained(t)
	st := store.NewMemory()

	if err := m.Save(ctx, st); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := st.Names(); !cmp.Equal(got, []string{store.Merges, store.ReverseVocabulary, store.Vocabulary}) {
		t.Errorf("Blobs = %v", got)
	}

	loaded, err := Load(ctx, st, Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(m.Snapshot(), loaded.Snapshot()); diff != "" {
		t.Errorf("geladenes Modell weicht ab (-want +got):\n%s", diff)
	}

	want, _ := m.Encode("the lazy fox [SEP]")
	got, err := loaded.Encode("the lazy fox [SEP]")
	if err != nil || !cmp.Equal(want, got) {
		t.Errorf("Encode nach Load = %v, %v, erwartet %v", got, err, want)
	}
}

func TestLoadKeepsCustomMarker(t *testing.T) {
	ctx := context.Background()
	m := NewModel(Options{Marker: '#'})
	NewTrainer(m, TrainOptions{}).TrainChunk("ab ab ab")
	st := store.NewMemory()
	if err := m.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(ctx, st, Options{Spaces: SpacesCollapse})
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Marker() != '#' {
		t.Errorf("Marker = %q, erwartet '#'", loaded.Marker())
	}
	if loaded.SpacePolicy() != SpacesCollapse {
		t.Errorf("SpacePolicy = %v", loaded.SpacePolicy())
	}
}

func TestLoadMissingStore(t *testing.T) {
	_, err := Load(context.Background(), store.NewMemory(), Options{})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Fehler = %v, erwartet ErrStoreUnavailable", err)
	}
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Fehler = %v, sollte store.ErrNotFound enthalten", err)
	}
}

func TestLoadCorruptBlobs(t *testing.T) {
	ctx := context.Background()
	m := trained(t)
	s := m.Snapshot()

	wrongVersion := protowire.AppendTag(nil, fieldVersion, protowire.BytesType)
	wrongVersion = protowire.AppendString(wrongVersion, "v2.0.0")

	badRule := s
	badRule.Rules = append([]Rule{{Pair: Pair{'a', 'b'}, Result: 'c'}}, s.Rules...)

	short := s
	short.Tokens = s.Tokens[:len(s.Tokens)-1]

	cases := []struct {
		name  string
		blobs map[string][]byte
	}{
		{"abgeschnitten", map[string][]byte{
			store.Vocabulary:        encodeVocabulary(s)[:7],
			store.Merges:            encodeMerges(s),
			store.ReverseVocabulary: encodeReverse(s),
		}},
		{"version", map[string][]byte{
			store.Vocabulary:        wrongVersion,
			store.Merges:            encodeMerges(s),
			store.ReverseVocabulary: encodeReverse(s),
		}},
		{"ohne version", map[string][]byte{
			store.Vocabulary:        encodeVocabulary(s),
			store.Merges:            {},
			store.ReverseVocabulary: encodeReverse(s),
		}},
		{"regel", map[string][]byte{
			store.Vocabulary:        encodeVocabulary(s),
			store.Merges:            encodeMerges(badRule),
			store.ReverseVocabulary: encodeReverse(s),
		}},
		{"umkehrung", map[string][]byte{
			store.Vocabulary:        encodeVocabulary(s),
			store.Merges:            encodeMerges(s),
			store.ReverseVocabulary: encodeReverse(short),
		}},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMemory()
			if err := st.Commit(ctx, tt.blobs); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(ctx, st, Options{}); !errors.Is(err, ErrStoreUnavailable) {
				t.Errorf("Fehler = %v, erwartet ErrStoreUnavailable", err)
			}
		})
	}
}

func TestRestoreRejectsDuplicateTokens(t *testing.T) {
	_, err := Restore(Snapshot{Tokens: []string{"a", "b", "a"}}, Options{})
	if err == nil {
		t.Fatal("doppelte Tokens werden akzeptiert")
	}
}
