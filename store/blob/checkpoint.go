// Package blob implements a content-addressable disk store for tokenizer
// checkpoints.
//
// Modul: checkpoint.go - Checkpoints aus Manifest und Blobs
// Enthaelt: Manifest, Store (store.Store auf DiskCache), Commit, Load,
// Latest und Checkpoints
package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ollama/subword/store"
)

// Manifest lists the blobs of one checkpoint.
type Manifest struct {
	ID      uuid.UUID         `json:"id"`
	Created time.Time         `json:"created"`
	Blobs   map[string]Digest `json:"blobs"`
}

// Store keeps checkpoints in a DiskCache. A checkpoint becomes visible when
// the "latest" pointer is renamed into place, after all its blobs and its
// manifest are on disk.
type Store struct {
	cache *DiskCache
}

var _ store.Store = (*Store)(nil)

// OpenStore opens or creates a store rooted at dir.
func OpenStore(dir string) (*Store, error) {
	c, err := Open(dir)
	if err != nil {
		return nil, err
	}
	return &Store{cache: c}, nil
}

func (s *Store) Commit(ctx context.Context, blobs map[string][]byte) error {
	m := Manifest{Blobs: make(map[string]Digest, len(blobs))}
	for _, name := range slices.Sorted(maps.Keys(blobs)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		d := sumBytes(blobs[name])
		if err := PutBytes(s.cache, d, blobs[name]); err != nil {
			return fmt.Errorf("write blob %s: %w", name, err)
		}
		m.Blobs[name] = d
	}

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	m.ID = id
	m.Created = s.cache.now().UTC()

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	md := sumBytes(data)
	if err := PutBytes(s.cache, md, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := s.cache.copyNamedFile(s.manifestPath(id), bytes.NewReader(data), md, int64(len(data))); err != nil {
		return fmt.Errorf("link manifest: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(s.cache.dir, "latest"), []byte(md.String())); err != nil {
		return fmt.Errorf("update latest: %w", err)
	}
	slog.Debug("checkpoint committed", "id", id, "manifest", md, "blobs", len(blobs))
	return nil
}

func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := s.Latest()
	if err != nil {
		return nil, err
	}
	d, ok := m.Blobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in checkpoint %s", store.ErrNotFound, name, m.ID)
	}
	data, err := s.cache.ReadBlob(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return data, nil
}

// Latest returns the manifest of the current checkpoint.
func (s *Store) Latest() (Manifest, error) {
	ptr, err := os.ReadFile(filepath.Join(s.cache.dir, "latest"))
	if isNotExist(err) {
		return Manifest{}, fmt.Errorf("%w: no checkpoint in %s", store.ErrNotFound, s.cache.dir)
	}
	if err != nil {
		return Manifest{}, err
	}
	d, err := ParseDigest(strings.TrimSpace(string(ptr)))
	if err != nil {
		return Manifest{}, err
	}
	data, err := s.cache.ReadBlob(d)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	return decodeManifest(data)
}

// Checkpoints yields all committed checkpoints, oldest first.
func (s *Store) Checkpoints() iter.Seq2[Manifest, error] {
	return func(yield func(Manifest, error) bool) {
		entries, err := os.ReadDir(filepath.Join(s.cache.dir, "manifests"))
		if err != nil {
			yield(Manifest{}, err)
			return
		}
		for _, e := range entries {
			if _, err := uuid.Parse(e.Name()); err != nil {
				continue
			}
			data, err := os.ReadFile(filepath.Join(s.cache.dir, "manifests", e.Name()))
			if err != nil {
				yield(Manifest{}, err)
				return
			}
			m, err := decodeManifest(data)
			if !yield(m, err) || err != nil {
				return
			}
		}
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) manifestPath(id uuid.UUID) string {
	return filepath.Join(s.cache.dir, "manifests", id.String())
}

func decodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}
