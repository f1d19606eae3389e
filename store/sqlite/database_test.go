// database_test.go - Tests fuer den SQLite-Store
package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ollama/subword/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "subword.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCommitLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Load(ctx, store.Vocabulary); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load auf leerer Datenbank: %v, erwartet ErrNotFound", err)
	}

	for _, v := range []string{"eins", "zwei"} {
		if err := s.Commit(ctx, map[string][]byte{store.Vocabulary: []byte(v), store.Merges: []byte("m")}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Load(ctx, store.Vocabulary)
	if err != nil || string(got) != "zwei" {
		t.Errorf("Load = %q, %v, erwartet zwei", got, err)
	}

	cps, err := s.Checkpoints(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(cps) != 2 || cps[1].Blobs != 2 {
		t.Errorf("Checkpoints = %+v", cps)
	}
}

func TestCommitIsAtomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.Commit(ctx, map[string][]byte{store.Vocabulary: []byte("alt")}); err != nil {
		t.Fatal(err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.Commit(cancelled, map[string][]byte{store.Vocabulary: []byte("neu")}); err == nil {
		t.Fatal("Commit mit abgebrochenem Context erfolgreich")
	}

	got, err := s.Load(ctx, store.Vocabulary)
	if err != nil || string(got) != "alt" {
		t.Errorf("Load = %q, %v, erwartet alt", got, err)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for range 4 {
		if err := s.Commit(ctx, map[string][]byte{store.Merges: []byte("x")}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.Prune(ctx, 1)
	if err != nil || n != 3 {
		t.Fatalf("Prune = %d, %v, erwartet 3", n, err)
	}
	if _, err := s.Load(ctx, store.Merges); err != nil {
		t.Errorf("neuester Checkpoint fehlt nach Prune: %v", err)
	}
	if _, err := s.Prune(ctx, 0); err == nil {
		t.Error("Prune(0) erfolgreich")
	}
}

func TestReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.sqlite")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx, map[string][]byte{store.ReverseVocabulary: []byte("r")}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, err := s.Load(ctx, store.ReverseVocabulary); err != nil || string(got) != "r" {
		t.Errorf("Load nach Reopen = %q, %v", got, err)
	}
}
