// Package blob implements a content-addressable disk store for tokenizer
// checkpoints.
//
// Modul: cache.go - DiskCache Kernfunktionen
// Enthaelt: DiskCache Struktur, Open, Put, PutBytes, Get und Hilfsfunktionen
package blob

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry contains metadata about a blob in the cache.
type Entry struct {
	Digest Digest
	Size   int64
	Time   time.Time // when added to the cache
}

// DiskCache stores blobs and checkpoint manifests on disk:
//
//	<dir>/
//	  blobs/
//	    sha256-<digest> - <blob data>
//	  manifests/
//	    <checkpoint id> - <manifest data>
//	  latest - <digest of the current manifest>
//
// Blobs are immutable. Concurrent writers of the same blob write the same
// bytes, so duplicated effort is harmless.
type DiskCache struct {
	dir string
	now func() time.Time

	testHookBeforeFinalWrite func(f *os.File)
}

// PutBytes is a convenience function for c.Put(d, bytes.NewReader(data), int64(len(data))).
func PutBytes[S string | []byte](c *DiskCache, d Digest, data S) error {
	return c.Put(d, bytes.NewReader([]byte(data)), int64(len(data)))
}

// Open opens a cache rooted at the given directory. If the directory does not
// exist, it is created.
func Open(dir string) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("blob: empty directory name")
	}

	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}
	for _, subdir := range []string{"blobs", "manifests"} {
		if err := os.MkdirAll(filepath.Join(dir, subdir), 0o777); err != nil {
			return nil, err
		}
	}

	return &DiskCache{dir: dir, now: time.Now}, nil
}

// Put writes a new blob to the cache, identified by its digest. The content
// read from r must match both size and digest.
func (c *DiskCache) Put(d Digest, r io.Reader, size int64) error {
	return c.copyNamedFile(c.GetFile(d), r, d, size)
}

// Get returns metadata for the blob d.
func (c *DiskCache) Get(d Digest) (Entry, error) {
	info, err := os.Stat(c.GetFile(d))
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Digest: d,
		Size:   info.Size(),
		Time:   info.ModTime(),
	}, nil
}

// ReadBlob reads the blob d and verifies its digest.
func (c *DiskCache) ReadBlob(d Digest) ([]byte, error) {
	data, got, err := readAndSum(c.GetFile(d), maxBlobSize)
	if err != nil {
		return nil, err
	}
	if got != d {
		return nil, fmt.Errorf("blob %s: content has digest %s", d, got)
	}
	return data, nil
}

// GetFile returns the absolute path to the file for the given digest. It does
// not check if the file exists.
func (c *DiskCache) GetFile(d Digest) string {
	filename := fmt.Sprintf("sha256-%x", d.sum)
	return absJoin(c.dir, "blobs", filename)
}

const maxBlobSize = 1 << 30

func readAndSum(filename string, limit int64) (data []byte, _ Digest, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, Digest{}, err
	}
	defer f.Close()

	h := sha256.New()
	r := io.TeeReader(f, h)
	data, err = io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, Digest{}, err
	}
	var d Digest
	h.Sum(d.sum[:0])
	return data, d, nil
}

// writeFileAtomic writes data to a temporary file in the same directory and
// renames it over name.
func writeFileAtomic(name string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(name), ".tmp-")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), name)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func absJoin(pp ...string) string {
	abs, err := filepath.Abs(filepath.Join(pp...))
	if err != nil {
		panic(err) // this should never happen
	}
	return abs
}
