package pdfdoc

import (
	"bytes"
	"fmt"
	"strings"

	pdf "github.com/ledongthuc/pdf"
)

// The fast engine panics on malformed documents, so every call into it
// runs behind a recover that converts the panic into an error.

func openFast(raw []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("open pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
}

// PageCount reports the page count seen by the fast engine, 0 when the
// page tree is unreadable.
func (d *Document) PageCount() (n int) {
	defer func() {
		if rec := recover(); rec != nil {
			n = 0
		}
	}()
	return d.reader.NumPage()
}

// PageText extracts one page's plain text with the fast engine. Pages are
// 1-indexed. Missing pages yield empty text without an error.
func (d *Document) PageText(page int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: %v", page, rec)
		}
	}()
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (d *Document) fastText(maxPages int) string {
	n := d.PageCount()
	if n > maxPages {
		n = maxPages
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		pageText, err := d.PageText(i)
		if err != nil || pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(pageText)
	}
	return b.String()
}

func (d *Document) fastMetadataTitle() (title string, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			title, ok, err = "", false, fmt.Errorf("info title: %v", rec)
		}
	}()
	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return "", false, nil
	}
	v := info.Key("Title")
	if v.Kind() != pdf.String {
		return "", false, nil
	}
	t := strings.TrimSpace(v.Text())
	if t == "" {
		return "", false, nil
	}
	return t, true, nil
}
