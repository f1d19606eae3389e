// cmd_test.go - Tests fuer die CLI-Commands
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ollama/subword/tokenizer"
)

const corpusText = `the quick brown fox jumps over the lazy dog
the lazy dog sleeps while the quick fox runs
a fox is quick and a dog is lazy
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := NewCLI()
	var out bytes.Buffer
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)
	err := c.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func setupStore(t *testing.T, backend string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SUBWORD_STORE", filepath.Join(dir, "store"))
	t.Setenv("SUBWORD_STORE_BACKEND", backend)
	t.Setenv("SUBWORD_SPACES", "")

	path := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte(corpusText), 0o644))
	return path
}

func TestTrainEncodeDecode(t *testing.T) {
	for _, backend := range []string{"disk", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			path := setupStore(t, backend)

			out := mustRun(t, "train", "--batch-lines", "2", path)
			assert.Contains(t, out, "merges")

			ids := strings.Fields(mustRun(t, "encode", "the quick fox"))
			require.NotEmpty(t, ids)

			text := mustRun(t, append([]string{"decode"}, ids...)...)
			assert.Equal(t, "the quick fox\n", text)

			// drei Zeilen in Chunks zu zwei Zeilen: zwei Checkpoints
			list := strings.Split(strings.TrimSpace(mustRun(t, "list")), "\n")
			assert.Len(t, list, 3, "Kopfzeile und zwei Checkpoints erwartet")
		})
	}
}

func TestEncodeUnknownCharacter(t *testing.T) {
	path := setupStore(t, "disk")
	mustRun(t, "train", path)

	_, err := run(t, "encode", "the fox 日本")
	require.ErrorIs(t, err, tokenizer.ErrUnknownCharacter)
}

func TestEncodeWithoutModel(t *testing.T) {
	setupStore(t, "disk")

	_, err := run(t, "encode", "the")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subword train")
}

func TestShowAndMask(t *testing.T) {
	path := setupStore(t, "disk")
	mustRun(t, "train", path)

	out := mustRun(t, "show", "--tokens", "3", "--merges", "2")
	assert.Contains(t, out, "vocabulary")
	assert.Contains(t, out, "[MASK]")
	assert.Contains(t, out, `\x00`)

	out = mustRun(t, "show", "[CLS]", "0")
	assert.Contains(t, out, "true")

	_, err := run(t, "show", "[MSK]")
	require.ErrorIs(t, err, tokenizer.ErrUnknownToken)
	assert.Contains(t, err.Error(), `"[MASK]"`)

	first := mustRun(t, "mask", "--seed", "3", "--rate", "0.5", "the quick brown fox")
	second := mustRun(t, "mask", "--seed", "3", "--rate", "0.5", "the quick brown fox")
	assert.Equal(t, first, second)
	assert.Contains(t, first, "positions:")
}

func TestBatchCommand(t *testing.T) {
	path := setupStore(t, "disk")
	mustRun(t, "train", path)

	out := mustRun(t, "batch", "--width", "6", "--wrap", "the fox", "the lazy dog")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Len(t, strings.Fields(line), 7, line)
	}
}

func TestExportImport(t *testing.T) {
	path := setupStore(t, "disk")
	mustRun(t, "train", path)
	want := mustRun(t, "encode", "the lazy fox jumps")

	exportDir := t.TempDir()
	mustRun(t, "export", filepath.Join(exportDir, "tokenizer.json"))

	t.Setenv("SUBWORD_STORE", filepath.Join(t.TempDir(), "imported"))
	t.Setenv("SUBWORD_STORE_BACKEND", "sqlite")
	out := mustRun(t, "import", exportDir)
	assert.Contains(t, out, "tokenizer.json")

	assert.Equal(t, want, mustRun(t, "encode", "the lazy fox jumps"))

	mustRun(t, "import", exportDir)
	out = mustRun(t, "prune", "--keep", "1")
	assert.Equal(t, "deleted 1 checkpoint(s)\n", out)
}

func TestSuggest(t *testing.T) {
	tokens := []string{"quick", "quiet", "fox", "▁quick"}

	got := suggest(tokens, "quack", 2)
	assert.Equal(t, []string{`"quick"`, `"▁quick"`}, got)

	assert.Empty(t, suggest(tokens, "zzzzzz", 3))
}

func TestSequenceStats(t *testing.T) {
	rows := []string{"abcd", "ab", "abcdef"}
	seqs := [][]int32{{1, 2}, {1}, {1, 2, 3}}

	s := sequenceStats(rows, seqs, 2)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 6, s.Tokens)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.StdDev, 1e-9)
	assert.Equal(t, 1, s.Truncated)
	assert.InDelta(t, 2.0, s.CharsPerToken, 1e-9)
}
