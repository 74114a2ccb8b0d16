package pdfdoc

import (
	"os"
	"testing"

	"github.com/tsawler/tabula/text"
)

func TestOpenRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{name: "empty", raw: nil},
		{name: "no magic bytes", raw: []byte("definitely not a pdf")},
		{name: "magic bytes only", raw: []byte("%PDF-1.4")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Open(tc.raw); err == nil {
				t.Fatal("expected open error")
			}
		})
	}
}

func TestSpansFromFragments(t *testing.T) {
	// Engine coordinates grow upward; the span Y must grow downward so the
	// title (top of page) sorts first.
	frags := []text.TextFragment{
		{Text: "Body", X: 72, Y: 600, Height: 10, FontSize: 10},
		{Text: "Title", X: 72, Y: 700, Height: 24, FontSize: 24},
	}
	spans := spansFromFragments(frags)
	if len(spans) != 2 {
		t.Fatalf("len=%d", len(spans))
	}
	if spans[1].Y != 0 {
		t.Fatalf("title y=%v, want 0", spans[1].Y)
	}
	if spans[0].Y != 114 {
		t.Fatalf("body y=%v, want 114", spans[0].Y)
	}
	if !(spans[1].Y < spans[0].Y) {
		t.Fatal("title must come before body in reading order")
	}
}

func TestSpansFromFragmentsZeroHeight(t *testing.T) {
	spans := spansFromFragments([]text.TextFragment{
		{Text: "X", Y: 500, Height: 0, FontSize: 12},
	})
	if len(spans) != 1 {
		t.Fatalf("len=%d", len(spans))
	}
	if spans[0].Height != 12 {
		t.Fatalf("height=%v, want font size fallback", spans[0].Height)
	}
}

func TestMaterializeLifecycle(t *testing.T) {
	d := &Document{raw: []byte("%PDF-1.4 payload")}
	path, err := d.materialize()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("temp file missing: %v", err)
	}
	again, err := d.materialize()
	if err != nil {
		t.Fatal(err)
	}
	if again != path {
		t.Fatalf("second materialize made a new file: %s vs %s", again, path)
	}

	d.Close()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("temp file survived Close: %v", err)
	}
	d.Close()
}

func TestDecodeInfoString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain ascii", input: "A Title", want: "A Title"},
		{name: "utf16be with bom", input: "\xFE\xFF\x00D\x00o\x00c", want: "Doc"},
		{name: "too short", input: "\xFE", want: "\xFE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := decodeInfoString(tc.input); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
