// corpus_test.go - Tests fuer das Lesen von Korpora
package corpus

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func collect(t *testing.T, seq func(func(string, error) bool)) []string {
	t.Helper()
	var out []string
	for s, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, s)
	}
	return out
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRowsText(t *testing.T) {
	path := writeFile(t, "corpus.txt", "\ufefferste Zeile\r\n\nzweite Zeile\n  \ndritte")
	c, err := Open(path, Options{})
	if err != nil {
		t.Fatal(err)
	}

	got := collect(t, c.Rows())
	want := []string{"erste Zeile", "zweite Zeile", "dritte"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Rows (-want +got):\n%s", diff)
	}
}

func TestRowsCSV(t *testing.T) {
	path := writeFile(t, "books.csv", "text,id\n\"hallo, welt\",1\nzweiter satz,2\n")
	c, err := Open(path, Options{SkipHeader: true})
	if err != nil {
		t.Fatal(err)
	}

	got := collect(t, c.Rows())
	if diff := cmp.Diff([]string{"hallo, welt", "zweiter satz"}, got); diff != "" {
		t.Errorf("Rows (-want +got):\n%s", diff)
	}
}

func TestRowsNormalize(t *testing.T) {
	decomposed := "Cafe\u0301"
	got := collect(t, FromReader(strings.NewReader(decomposed), Options{Normalize: true}).Rows())
	if len(got) != 1 || got[0] != "Caf\u00e9" {
		t.Errorf("Rows = %q, erwartet NFC", got)
	}
}

func TestBatches(t *testing.T) {
	rows := []string{"a", "b", "c", "d", "e"}
	c := FromReader(strings.NewReader(strings.Join(rows, "\n")), Options{})

	got := collect(t, c.Batches(2))
	want := []string{"a b", "c d", "e"}
	if !slices.Equal(got, want) {
		t.Errorf("Batches(2) = %q, erwartet %q", got, want)
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "fehlt.txt"), Options{}); err == nil {
		t.Error("Open auf fehlende Datei erfolgreich")
	}
}
