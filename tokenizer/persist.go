// persist.go - Speichern und Laden eines Modells ueber einen store.Store
//
// Enthaelt: Model.Save, Load
package tokenizer

import (
	"context"
	"fmt"

	"github.com/ollama/subword/store"
)

// Save writes the model as one atomic checkpoint of the three named blobs.
func (m *Model) Save(ctx context.Context, st store.Store) error {
	s := m.Snapshot()
	blobs := map[string][]byte{
		store.Vocabulary:        encodeVocabulary(s),
		store.Merges:            encodeMerges(s),
		store.ReverseVocabulary: encodeReverse(s),
	}
	if err := st.Commit(ctx, blobs); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load reads the latest checkpoint from st. Missing or corrupt blobs are
// reported as ErrStoreUnavailable.
func Load(ctx context.Context, st store.Store, opts Options) (*Model, error) {
	var s Snapshot
	decoders := []struct {
		name   string
		decode func([]byte, *Snapshot) error
	}{
		{store.Vocabulary, decodeVocabulary},
		{store.Merges, decodeMerges},
		{store.ReverseVocabulary, decodeReverse},
	}

	for _, d := range decoders {
		b, err := st.Load(ctx, d.name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if err := d.decode(b, &s); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, d.name, err)
		}
	}

	m, err := Restore(s, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return m, nil
}
