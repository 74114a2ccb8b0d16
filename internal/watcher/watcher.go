package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docmine/internal"
	"docmine/internal/config"
	"docmine/internal/pipeline"
	"docmine/internal/storage"
	"docmine/internal/util"
)

// Service polls a drop directory and feeds newly arrived files through
// the scan pipeline, one stored run per cycle.
type Service struct {
	db     *storage.DB
	cfg    config.Config
	logger *slog.Logger
	scans  *pipeline.ScanService

	// seen maps absolute paths to the modification time last processed,
	// so a re-dropped file with a newer timestamp runs again.
	seen map[string]time.Time
}

func NewService(db *storage.DB, cfg config.Config, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		cfg:    cfg,
		logger: logger,
		scans:  pipeline.NewScanService(db, cfg, logger),
		seen:   map[string]time.Time{},
	}
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.cfg.Require("WATCH_DIR", s.cfg.WatchDir); err != nil {
		return err
	}
	s.logger.Info("watching for documents", "dir", s.cfg.WatchDir, "interval_sec", s.cfg.WatchIntervalSec)
	for {
		if err := s.runCycle(ctx); err != nil {
			s.logger.Error("watch cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.WatchIntervalSec) * time.Second):
		}
	}
}

func (s *Service) runCycle(ctx context.Context) error {
	paths, mods, err := s.newArrivals()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return nil
	}

	inputs := make([]internal.InputFile, 0, len(paths))
	processed := make([]string, 0, len(paths))
	for _, p := range paths {
		collected, err := pipeline.CollectInputs(p)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", p, "error", err)
			continue
		}
		processed = append(processed, p)
		inputs = append(inputs, collected...)
	}
	if len(inputs) == 0 {
		s.markSeen(processed, mods)
		return nil
	}

	summary, err := s.scans.ScanInputs(ctx, s.cfg.WatchDir, inputs)
	if err != nil {
		return err
	}
	s.markSeen(processed, mods)

	if s.cfg.WatchAutoExport {
		if err := s.exportCycle(summary); err != nil {
			return err
		}
	}

	s.logger.Info("watch cycle done", "run_id", summary.RunID, "files", summary.Files, "rows", summary.Rows, "emails", summary.Emails)
	return nil
}

// exportCycle writes the cycle's run to its own spreadsheet under a
// watch subdirectory, named after the drop directory and the run.
func (s *Service) exportCycle(summary pipeline.ScanSummary) error {
	rows, err := s.db.ListResultsByRun(summary.RunID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	filename := fmt.Sprintf("%s_%s.xlsx", util.SanitizeFileName(filepath.Base(s.cfg.WatchDir)), summary.RunID[:8])
	outputPath := filepath.Join(s.cfg.OutputDir, "watch", filename)
	return pipeline.ExportResultsToXLSX(rows, outputPath, s.cfg.SheetName)
}

// newArrivals lists the files in the drop directory not processed yet,
// with the modification times observed at listing. The seen map is only
// updated via markSeen once a cycle lands, so a file a failed cycle
// swallowed is picked up again on the next one.
func (s *Service) newArrivals() ([]string, map[string]time.Time, error) {
	entries, err := os.ReadDir(s.cfg.WatchDir)
	if err != nil {
		return nil, nil, err
	}

	var out []string
	mods := make(map[string]time.Time)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		lower := strings.ToLower(entry.Name())
		if !strings.HasSuffix(lower, ".pdf") && !strings.HasSuffix(lower, ".zip") && !strings.HasSuffix(lower, ".eml") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		p := filepath.Join(s.cfg.WatchDir, entry.Name())
		if prev, ok := s.seen[p]; ok && !info.ModTime().After(prev) {
			continue
		}
		mods[p] = info.ModTime()
		out = append(out, p)
	}
	return out, mods, nil
}

func (s *Service) markSeen(paths []string, mods map[string]time.Time) {
	for _, p := range paths {
		s.seen[p] = mods[p]
	}
}
