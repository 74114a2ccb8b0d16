package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"docmine/internal"
	"docmine/internal/storage"
)

// mkPDFWithContent assembles a minimal single-page PDF around the given
// page content stream, with an Info dictionary carrying the title. The
// cross-reference offsets are computed from the buffer, so the output is
// a well-formed document.
func mkPDFWithContent(t *testing.T, title, content string) []byte {
	t.Helper()

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Title (%s) >>", title),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 0, len(objects))
	for i, obj := range objects {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 6 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func mkPDF(t *testing.T, title, heading, body string) []byte {
	t.Helper()
	content := fmt.Sprintf("BT\n/F1 24 Tf\n72 700 Td\n(%s) Tj\nET\nBT\n/F1 12 Tf\n72 650 Td\n(%s) Tj\nET\n", heading, body)
	return mkPDFWithContent(t, title, content)
}

const smokeBody = "Contact the authors at Vision.Lab@Example.EDU for the dataset and additional materials."

func TestProcessSingleDocument(t *testing.T) {
	raw := mkPDF(t, "Neural Architectures for Document Understanding", "Neural Architectures", smokeBody)

	svc := NewExtractor(testConfig())
	rows := svc.ProcessSingle(internal.InputFile{
		Name:   "paper.pdf",
		Source: internal.SourceFile,
		Origin: "/papers/paper.pdf",
		Raw:    raw,
	})

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(rows), rows)
	}
	row := rows[0]
	if row.FileName != "paper.pdf" {
		t.Fatalf("FileName = %q", row.FileName)
	}
	if row.Title != "Neural Architectures for Document Understanding" {
		t.Fatalf("Title = %q", row.Title)
	}
	if row.Email != "vision.lab@example.edu" {
		t.Fatalf("Email = %q", row.Email)
	}
	if row.Source != internal.SourceFile || row.Origin != "/papers/paper.pdf" {
		t.Fatalf("provenance = %q %q", row.Source, row.Origin)
	}
}

func TestProcessSingleDocumentEarlyExit(t *testing.T) {
	raw := mkPDF(t, "Neural Architectures for Document Understanding", "Neural Architectures", smokeBody)

	cfg := testConfig()
	cfg.EarlyExit = true
	cfg.EarlyExitEmails = 1

	rows := NewExtractor(cfg).ProcessSingle(internal.InputFile{Name: "paper.pdf", Raw: raw})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Title != "Neural Architectures for Document Understanding" || rows[0].Email != "vision.lab@example.edu" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestProcessSingleIdempotent(t *testing.T) {
	raw := mkPDF(t, "Neural Architectures for Document Understanding", "Neural Architectures", smokeBody)
	svc := NewExtractor(testConfig())
	input := internal.InputFile{Name: "paper.pdf", Source: internal.SourceFile, Raw: raw}

	first := svc.ProcessSingle(input)
	second := svc.ProcessSingle(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls disagree: %+v vs %+v", first, second)
	}
}

func TestProcessSingleNoText(t *testing.T) {
	raw := mkPDFWithContent(t, "Neural Architectures for Document Understanding", "")

	rows := NewExtractor(testConfig()).ProcessSingle(internal.InputFile{Name: "empty.pdf", Raw: raw})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Title != internal.TitleUnreadable || rows[0].Email != internal.EmailError {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestScanPipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	raw := mkPDF(t, "Neural Architectures for Document Understanding", "Neural Architectures", smokeBody)
	if err := os.WriteFile(filepath.Join(dir, "paper.pdf"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := scanTestConfig(t)
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	svc := NewScanService(db, cfg, discardLogger())
	summary, err := svc.ScanAndExport(context.Background(), dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if summary.Files != 2 || summary.Rows != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Emails != 1 {
		t.Fatalf("expected 1 distinct email, got %d", summary.Emails)
	}

	rows, err := db.ListResultsByRun(summary.RunID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	byName := map[string]internal.ExtractionResult{}
	for _, row := range rows {
		byName[row.FileName] = row
	}
	if byName["broken.pdf"].Title != internal.TitleError {
		t.Fatalf("broken.pdf row: %+v", byName["broken.pdf"])
	}
	if byName["paper.pdf"].Email != "vision.lab@example.edu" {
		t.Fatalf("paper.pdf row: %+v", byName["paper.pdf"])
	}
	if _, err := os.Stat(summary.Output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}
