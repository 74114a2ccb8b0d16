package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"docmine/internal"
	"docmine/internal/config"
	"docmine/internal/storage"
)

// ScanService runs whole-directory extractions and keeps their results
// in the scan store, so runs can be re-exported later without touching
// the source files again.
type ScanService struct {
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
}

func NewScanService(db *storage.DB, cfg config.Config, logger *slog.Logger) *ScanService {
	return &ScanService{db: db, cfg: cfg, logger: logger}
}

type ScanSummary struct {
	RunID  string
	Files  int
	Rows   int
	Emails int
	Output string
}

// Scan collects every PDF under root, processes them over the worker
// pool, and persists the rows as a new run.
func (s *ScanService) Scan(ctx context.Context, root string) (ScanSummary, error) {
	inputs, err := CollectInputs(root)
	if err != nil {
		return ScanSummary{}, err
	}
	return s.ScanInputs(ctx, root, inputs)
}

// ScanInputs processes an already collected input set as a new run.
// The watcher uses this directly so each polling cycle only touches the
// files that just arrived.
func (s *ScanService) ScanInputs(ctx context.Context, root string, inputs []internal.InputFile) (ScanSummary, error) {
	runID := uuid.NewString()
	if err := s.db.InsertRun(runID, root); err != nil {
		return ScanSummary{}, err
	}

	s.logger.Info("scan started", "run_id", runID, "root", root, "files", len(inputs))

	runner := NewBatchRunner(NewExtractor(s.cfg), s.logger,
		WithWorkers(s.cfg.Workers),
		WithQueueSize(s.cfg.QueueSize),
		WithProgressEvery(s.cfg.ProgressEvery),
	)
	rows := runner.RunBatch(ctx, inputs)

	if err := s.db.InsertResults(runID, rows); err != nil {
		return ScanSummary{}, err
	}
	if err := s.db.FinishRun(runID, len(inputs), len(rows)); err != nil {
		return ScanSummary{}, err
	}

	emails, err := s.db.DistinctEmails(runID)
	if err != nil {
		return ScanSummary{}, err
	}

	summary := ScanSummary{RunID: runID, Files: len(inputs), Rows: len(rows), Emails: emails}
	s.logger.Info("scan finished", "run_id", runID, "files", summary.Files, "rows", summary.Rows, "emails", summary.Emails)
	return summary, nil
}

// ScanAndExport runs a scan and immediately writes the spreadsheet.
func (s *ScanService) ScanAndExport(ctx context.Context, root string) (ScanSummary, error) {
	summary, err := s.Scan(ctx, root)
	if err != nil {
		return summary, err
	}
	output, _, err := s.ExportRun(summary.RunID)
	if err != nil {
		return summary, err
	}
	summary.Output = output
	return summary, nil
}

// ExportRun writes the rows of a stored run to the configured output
// path. An empty runID exports the most recent run.
func (s *ScanService) ExportRun(runID string) (string, int, error) {
	if runID == "" {
		latest, err := s.db.LatestRunID()
		if err != nil {
			return "", 0, err
		}
		if latest == nil {
			return "", 0, errors.New("no scan runs stored yet")
		}
		runID = *latest
	}

	run, err := s.db.GetRun(runID)
	if err != nil {
		return "", 0, err
	}
	if run == nil {
		return "", 0, fmt.Errorf("scan run not found: %s", runID)
	}

	rows, err := s.db.ListResultsByRun(runID)
	if err != nil {
		return "", 0, err
	}

	output := filepath.Join(s.cfg.OutputDir, s.cfg.OutputFile)
	if err := ExportResultsToXLSX(rows, output, s.cfg.SheetName); err != nil {
		return "", 0, err
	}
	s.logger.Info("run exported", "run_id", runID, "rows", len(rows), "output", output)
	return output, len(rows), nil
}
