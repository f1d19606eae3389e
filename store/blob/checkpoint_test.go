// checkpoint_test.go - Tests fuer den Disk-Store
package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ollama/subword/store"
)

func TestParseDigest(t *testing.T) {
	d := sumBytes([]byte("hello"))

	for _, s := range []string{d.String(), "sha256-" + d.String()[len("sha256:"):]} {
		got, err := ParseDigest(s)
		if err != nil || got != d {
			t.Errorf("ParseDigest(%q) = %v, %v", s, got, err)
		}
	}

	for _, s := range []string{"", "sha256:", "md5:abcd", "sha256:zz", d.String() + "00"} {
		if _, err := ParseDigest(s); !errors.Is(err, ErrInvalidDigest) {
			t.Errorf("ParseDigest(%q) Fehler = %v, erwartet ErrInvalidDigest", s, err)
		}
	}
}

func TestStoreCommitLoad(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if _, err := s.Load(ctx, store.Vocabulary); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("Load auf leerem Store: %v, erwartet ErrNotFound", err)
	}

	first := map[string][]byte{store.Vocabulary: []byte("v1"), store.Merges: []byte("m1")}
	second := map[string][]byte{store.Vocabulary: []byte("v2"), store.Merges: []byte("m1")}
	if err := s.Commit(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(ctx, store.Vocabulary)
	if err != nil || string(got) != "v2" {
		t.Errorf("Load(vocabulary) = %q, %v, erwartet v2", got, err)
	}
	if _, err := s.Load(ctx, store.ReverseVocabulary); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Load(reverse_vocabulary) Fehler = %v, erwartet ErrNotFound", err)
	}

	var ids []string
	for m, err := range s.Checkpoints() {
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID.String())
	}
	if len(ids) != 2 {
		t.Fatalf("Checkpoints = %v, erwartet 2", ids)
	}
	latest, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID.String() != ids[1] {
		t.Errorf("Latest = %s, erwartet %s", latest.ID, ids[1])
	}
}

func TestStoreDetectsCorruptBlob(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx, map[string][]byte{store.Vocabulary: []byte("original")}); err != nil {
		t.Fatal(err)
	}

	name := s.cache.GetFile(sumBytes([]byte("original")))
	if err := os.WriteFile(name, []byte("tampered"), 0o666); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, store.Vocabulary); err == nil {
		t.Error("veraenderter Blob wird nicht erkannt")
	}
}

func TestPutRejectsWrongContent(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	d := sumBytes([]byte("abc"))
	if err := PutBytes(c, d, "abd"); err == nil {
		t.Fatal("Put mit falschem Inhalt erfolgreich")
	}
	if err := PutBytes(c, d, "abc"); err != nil {
		t.Fatal(err)
	}
	e, err := c.Get(d)
	if err != nil {
		t.Fatal(err)
	}
	if e.Size != 3 || !e.Time.Equal(c.now()) {
		t.Errorf("Get = %+v", e)
	}
}

func TestOpenRejectsFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(name, nil, 0o666); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(name); err == nil {
		t.Error("Open auf Datei erfolgreich")
	}
}
