// Package pdfdoc gives the extraction pipeline one handle over two PDF
// engines: a fast in-memory engine for plain text and metadata, and a
// slower layout-aware engine used for page-1 spans and for re-reading
// documents the fast engine gets too little text out of.
package pdfdoc

import (
	"bytes"
	"errors"
	"os"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// Span is one leaf text run on page 1. Y grows downward so ascending Y is
// reading order; Height is the run's line height in the same units.
type Span struct {
	Text     string
	FontSize float64
	Y        float64
	Height   float64
}

// Document wraps one PDF's raw bytes for the duration of a single
// extraction call. It is not safe for concurrent use; each call gets its
// own Document.
type Document struct {
	raw     []byte
	reader  *pdf.Reader
	tmpPath string
}

// Open sniffs the magic bytes and parses the rest with the fast engine.
// An error here means the document cannot be processed at all.
func Open(raw []byte) (*Document, error) {
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		return nil, errors.New("open pdf: missing %PDF- marker")
	}
	r, err := openFast(raw)
	if err != nil {
		return nil, err
	}
	return &Document{raw: raw, reader: r}, nil
}

// Close releases the temp file backing the thorough engine, if one was
// materialized. Safe to call multiple times.
func (d *Document) Close() {
	if d.tmpPath != "" {
		_ = os.Remove(d.tmpPath)
		d.tmpPath = ""
	}
}

// Text returns the plain text of the first maxPages pages, pages joined
// with newline, trimmed. When the fast engine yields fewer than minChars
// runes the thorough engine re-extracts the same pages and its text is used
// instead. Extraction failures on either path yield empty text, never an
// error.
func (d *Document) Text(maxPages, minChars int) string {
	out := d.fastText(maxPages)
	if len([]rune(strings.TrimSpace(out))) < minChars {
		if alt, err := d.thoroughText(maxPages); err == nil {
			out = alt
		}
	}
	return strings.TrimSpace(out)
}

// MetadataTitle reads the document-info title. The fast engine answers from
// memory; the thorough engine is consulted only when the fast read breaks.
func (d *Document) MetadataTitle() (string, bool) {
	if title, ok, err := d.fastMetadataTitle(); err == nil {
		return title, ok
	}
	return d.thoroughMetadataTitle()
}

// Page1Spans returns the leaf text runs of page 1 with font size and
// position. Any failure yields an empty slice; the caller must treat that
// as "no candidates", not as an error.
func (d *Document) Page1Spans() []Span {
	frags, err := d.page1Fragments()
	if err != nil {
		return nil
	}
	return spansFromFragments(frags)
}
