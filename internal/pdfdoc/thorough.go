package pdfdoc

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/text"
)

// materialize writes the raw bytes to a temp file for the thorough engine,
// which reads from disk. The file lives until Close.
func (d *Document) materialize() (string, error) {
	if d.tmpPath != "" {
		return d.tmpPath, nil
	}
	f, err := os.CreateTemp("", "docmine-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(d.raw); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	d.tmpPath = f.Name()
	return d.tmpPath, nil
}

func (d *Document) thoroughText(maxPages int) (plain string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			plain, err = "", fmt.Errorf("thorough text: %v", rec)
		}
	}()
	path, err := d.materialize()
	if err != nil {
		return "", err
	}
	r, err := reader.Open(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	n, err := r.PageCount()
	if err != nil {
		return "", err
	}
	if n > maxPages {
		n = maxPages
	}
	if n < 1 {
		return "", nil
	}
	plain, _, err = tabula.FromReader(r).PageRange(1, n).Text()
	if err != nil {
		return "", err
	}
	return plain, nil
}

func (d *Document) page1Fragments() (frags []text.TextFragment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			frags, err = nil, fmt.Errorf("page 1 fragments: %v", rec)
		}
	}()
	path, err := d.materialize()
	if err != nil {
		return nil, err
	}
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	frags, _, err = tabula.FromReader(r).Pages(1).Fragments()
	return frags, err
}

func (d *Document) thoroughMetadataTitle() (title string, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			title, ok = "", false
		}
	}()
	path, err := d.materialize()
	if err != nil {
		return "", false
	}
	r, err := reader.Open(path)
	if err != nil {
		return "", false
	}
	defer r.Close()
	info, err := r.GetInfo()
	if err != nil || info == nil {
		return "", false
	}
	s, found := info.GetString("Title")
	if !found {
		return "", false
	}
	t := strings.TrimSpace(decodeInfoString(string(s)))
	if t == "" {
		return "", false
	}
	return t, true
}

// spansFromFragments converts engine fragments (bottom-left origin) into
// Spans whose Y grows downward, so ascending Y is reading order.
func spansFromFragments(frags []text.TextFragment) []Span {
	if len(frags) == 0 {
		return nil
	}
	maxTop := 0.0
	for _, f := range frags {
		if top := f.Y + f.Height; top > maxTop {
			maxTop = top
		}
	}
	out := make([]Span, 0, len(frags))
	for _, f := range frags {
		h := f.Height
		if h == 0 {
			// Some writers report zero-height runs; the font size is the
			// closest stand-in for the line height.
			h = f.FontSize
		}
		out = append(out, Span{
			Text:     f.Text,
			FontSize: f.FontSize,
			Y:        maxTop - (f.Y + f.Height),
			Height:   h,
		})
	}
	return out
}

// decodeInfoString handles UTF-16BE info strings, which carry a BOM per the
// PDF format; everything else passes through unchanged.
func decodeInfoString(s string) string {
	b := []byte(s)
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return s
	}
	u := make([]uint16, 0, (len(b)-2)/2)
	for i := 2; i+1 < len(b); i += 2 {
		u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return string(utf16.Decode(u))
}
