// Package store definiert die Blob-Ablage fuer trainierte Tokenizer-Modelle.
//
// Modul: store.go - Store Interface, Blob-Namen und Fehler
// Enthaelt: Store, Blob-Namen (vocabulary, merges, reverse_vocabulary), ErrNotFound
package store

import (
	"context"
	"errors"
)

// Namen der drei Blobs eines Checkpoints.
const (
	Vocabulary        = "vocabulary"
	Merges            = "merges"
	ReverseVocabulary = "reverse_vocabulary"
)

// Names lists the blobs every checkpoint carries, in commit order.
var Names = []string{Vocabulary, Merges, ReverseVocabulary}

// ErrNotFound is returned when no checkpoint, or no blob of the requested name,
// exists in a store.
var ErrNotFound = errors.New("store: blob not found")

// Store is a durable key-value blob store. Contents are opaque to the store.
//
// Commit writes all blobs of a checkpoint atomically: after a crash a reader
// sees either the previous checkpoint or the new one, never a mix.
type Store interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Commit(ctx context.Context, blobs map[string][]byte) error
	Close() error
}
