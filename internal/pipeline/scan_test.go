package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"docmine/internal"
	"docmine/internal/config"
	"docmine/internal/storage"
)

func scanTestConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := testConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "app.db")
	cfg.OutputDir = t.TempDir()
	cfg.OutputFile = "extracted_emails_titles.xlsx"
	cfg.SheetName = "Extracted Data"
	cfg.Workers = 2
	cfg.QueueSize = 4
	cfg.ProgressEvery = 5
	return cfg
}

func TestScanAndExport(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"x.pdf", "y.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("garbage, not a pdf"), 0o644); err != nil {
			t.Fatal(err)
		}
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
	if summary.Files != 2 || summary.Rows != 2 || summary.Emails != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(summary.Output); err != nil {
		t.Fatalf("output missing: %v", err)
	}

	rows, err := db.ListResultsByRun(summary.RunID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 stored rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Title != internal.TitleError {
			t.Fatalf("expected error rows for garbage input, got %+v", row)
		}
	}
}

func TestExportRunLatest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "z.pdf"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := scanTestConfig(t)
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	svc := NewScanService(db, cfg, discardLogger())
	if _, err := svc.Scan(context.Background(), dir); err != nil {
		t.Fatalf("scan: %v", err)
	}

	output, n, err := svc.ExportRun("")
	if err != nil {
		t.Fatalf("export latest: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestExportRunMissing(t *testing.T) {
	cfg := scanTestConfig(t)
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	svc := NewScanService(db, cfg, discardLogger())
	if _, _, err := svc.ExportRun(""); err == nil {
		t.Fatal("expected error when no runs are stored")
	}
	if _, _, err := svc.ExportRun("does-not-exist"); err == nil {
		t.Fatal("expected error for unknown run id")
	}
}
