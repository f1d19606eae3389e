// Package blob implements a content-addressable disk store for tokenizer
// checkpoints.
//
// Modul: cache_writer.go - checkWriter und copyNamedFile
// Enthaelt: checkWriter Struktur und Methoden, copyNamedFile Funktion
package blob

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
)

// checkWriter hashes everything it forwards and refuses the final write if
// the content does not match the expected digest and size.
type checkWriter struct {
	size int64
	d    Digest
	f    *os.File
	h    hash.Hash

	w   io.Writer
	n   int64
	err error

	testHookBeforeFinalWrite func(*os.File)
}

func (w *checkWriter) seterr(err error) error {
	if w.err == nil {
		w.err = err
	}
	return err
}

func (w *checkWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}

	if _, err := w.h.Write(p); err != nil {
		return 0, w.seterr(err)
	}
	nextSize := w.n + int64(len(p))
	if nextSize > w.size {
		return 0, w.seterr(fmt.Errorf("content exceeds expected size: %d > %d", nextSize, w.size))
	}
	if nextSize == w.size {
		if sum := w.h.Sum(nil); !bytes.Equal(sum, w.d.sum[:]) {
			return 0, w.seterr(fmt.Errorf("content does not match digest %s", w.d))
		}
		if w.testHookBeforeFinalWrite != nil {
			w.testHookBeforeFinalWrite(w.f)
		}
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	return n, w.seterr(err)
}

// copyNamedFile copies r into name, expecting digest out and the given size,
// unless a file of that size is present already. On any write failure the
// partial file is truncated or removed.
func (c *DiskCache) copyNamedFile(name string, r io.Reader, out Digest, size int64) error {
	info, err := os.Stat(name)
	if err == nil && info.Size() == size {
		return nil
	}

	mode := os.O_RDWR | os.O_CREATE
	if err == nil && info.Size() > size {
		mode |= os.O_TRUNC
	}
	f, err := os.OpenFile(name, mode, 0o666)
	if err != nil {
		return err
	}
	defer f.Close()
	if size == 0 {
		return nil
	}

	cw := &checkWriter{
		d:    out,
		size: size,
		h:    sha256.New(),
		f:    f,
		w:    f,

		testHookBeforeFinalWrite: c.testHookBeforeFinalWrite,
	}
	n, err := io.Copy(cw, r)
	if err != nil {
		f.Truncate(0)
		return err
	}
	if n < size {
		f.Truncate(0)
		return io.ErrUnexpectedEOF
	}

	if err := f.Close(); err != nil {
		os.Remove(name)
		return err
	}
	os.Chtimes(name, c.now(), c.now()) // mainly for tests
	return nil
}
