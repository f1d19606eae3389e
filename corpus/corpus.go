// Package corpus liest Trainingstexte zeilenweise aus Text-, CSV- und PDF-Dateien.
//
// Modul: corpus.go - Korpus oeffnen, Zeilen und Batches liefern
// Enthaelt: Options, Corpus, Open, Rows, Batches
package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options control how rows are read.
type Options struct {
	// Normalize applies Unicode NFC to every row.
	Normalize bool

	// Column selects the CSV column holding the text.
	Column int

	// SkipHeader drops the first CSV record.
	SkipHeader bool
}

// Corpus yields the non-empty rows of a file in order.
type Corpus struct {
	name string
	opts Options
	open func() (io.ReadCloser, error)
	kind string
}

// Open prepares path for reading. The format is chosen by extension: ".pdf"
// and ".csv" are parsed, everything else is read as UTF-8 text, one row per
// line, with an optional byte order mark.
func Open(path string, opts Options) (*Corpus, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	c := &Corpus{name: path, opts: opts, kind: strings.ToLower(filepath.Ext(path))}
	switch c.kind {
	case ".pdf":
		c.open = func() (io.ReadCloser, error) { return openPDF(path) }
	default:
		c.open = func() (io.ReadCloser, error) { return os.Open(path) }
	}
	return c, nil
}

// FromReader reads rows of plain text from r. The returned Corpus can be
// iterated once.
func FromReader(r io.Reader, opts Options) *Corpus {
	return &Corpus{
		name: "reader",
		opts: opts,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// Rows yields every non-empty row. Iteration stops at the first error.
func (c *Corpus) Rows() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		rc, err := c.open()
		if err != nil {
			yield("", fmt.Errorf("open %s: %w", c.name, err))
			return
		}
		defer rc.Close()

		r := transform.NewReader(rc, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		next := c.lines(r)
		if c.kind == ".csv" {
			next = c.records(r)
		}

		for {
			row, err := next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("read %s: %w", c.name, err))
				return
			}
			if strings.TrimSpace(row) == "" {
				continue
			}
			if c.opts.Normalize {
				row = norm.NFC.String(row)
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Batches groups size rows at a time and joins each group with a single
// space. The last batch may be shorter.
func (c *Corpus) Batches(size int) iter.Seq2[string, error] {
	size = max(size, 1)
	return func(yield func(string, error) bool) {
		group := make([]string, 0, size)
		for row, err := range c.Rows() {
			if err != nil {
				yield("", err)
				return
			}
			group = append(group, row)
			if len(group) == size {
				if !yield(strings.Join(group, " "), nil) {
					return
				}
				group = group[:0]
			}
		}
		if len(group) > 0 {
			yield(strings.Join(group, " "), nil)
		}
	}
}

func (c *Corpus) lines(r io.Reader) func() (string, error) {
	br := bufio.NewReader(r)
	return func() (string, error) {
		line, err := br.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

func (c *Corpus) records(r io.Reader) func() (string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header := c.opts.SkipHeader
	return func() (string, error) {
		for {
			rec, err := cr.Read()
			if err != nil {
				return "", err
			}
			if header {
				header = false
				continue
			}
			if c.opts.Column >= len(rec) {
				return "", nil
			}
			return rec[c.opts.Column], nil
		}
	}
}

func openPDF(path string) (io.ReadCloser, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	text, err := r.GetPlainText()
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{text, f}, nil
}
