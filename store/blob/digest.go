// Package blob implements a content-addressable disk store for tokenizer
// checkpoints.
//
// Modul: digest.go - SHA-256 Digest der Blobs
// Enthaelt: Digest, ParseDigest, sumBytes
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidDigest = errors.New("invalid digest")

// Digest is the SHA-256 sum of a blob.
type Digest struct {
	sum [32]byte
}

// ParseDigest parses a digest in the form "sha256:<hex>" or "sha256-<hex>".
func ParseDigest(s string) (Digest, error) {
	i := strings.IndexAny(s, ":-")
	if i < 0 || s[:i] != "sha256" {
		return Digest{}, fmt.Errorf("%w: %q", ErrInvalidDigest, s)
	}

	var d Digest
	hexsum := s[i+1:]
	if len(hexsum) != 2*len(d.sum) {
		return Digest{}, fmt.Errorf("%w: %q", ErrInvalidDigest, s)
	}
	if _, err := hex.Decode(d.sum[:], []byte(hexsum)); err != nil {
		return Digest{}, fmt.Errorf("%w: %q", ErrInvalidDigest, s)
	}
	return d, nil
}

func sumBytes(data []byte) Digest {
	return Digest{sum: sha256.Sum256(data)}
}

func (d Digest) String() string {
	return fmt.Sprintf("sha256:%x", d.sum)
}

func (d Digest) IsValid() bool {
	return d != Digest{}
}

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	if d.IsValid() {
		return errors.New("digest: illegal UnmarshalText on valid digest")
	}
	var err error
	*d, err = ParseDigest(string(text))
	return err
}
