package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"docmine/internal/config"
	"docmine/internal/pipeline"
	"docmine/internal/storage"
	"docmine/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := os.Args[1]
	switch cmd {
	case "scan":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", "", "directory or file to scan")
		export := fs.Bool("export", false, "write the spreadsheet after scanning")
		excludeNoEmail := fs.Bool("exclude-no-email", false, "drop files without any email address")
		earlyExit := fs.Bool("early-exit", false, "stop reading pages once the title and enough addresses are found")
		workers := fs.Int("workers", 0, "worker pool size override")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dir) == "" {
			must(fmt.Errorf("--dir is required"))
		}
		if *excludeNoEmail {
			cfg.ExcludeNoEmail = true
		}
		if *earlyExit {
			cfg.EarlyExit = true
		}
		if *workers > 0 {
			cfg.Workers = *workers
		}

		svc := pipeline.NewScanService(db, cfg, logger)
		var summary pipeline.ScanSummary
		if *export {
			summary, err = svc.ScanAndExport(ctx, *dir)
		} else {
			summary, err = svc.Scan(ctx, *dir)
		}
		must(err)
		if summary.Output != "" {
			fmt.Printf("scan done runId=%s files=%d rows=%d emails=%d output=%s\n", summary.RunID, summary.Files, summary.Rows, summary.Emails, summary.Output)
		} else {
			fmt.Printf("scan done runId=%s files=%d rows=%d emails=%d\n", summary.RunID, summary.Files, summary.Rows, summary.Emails)
		}
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		dir := fs.String("dir", "", "directory or file to scan")
		output := fs.String("output", "", "output xlsx path")
		excludeNoEmail := fs.Bool("exclude-no-email", false, "drop files without any email address")
		earlyExit := fs.Bool("early-exit", false, "stop reading pages once the title and enough addresses are found")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*dir) == "" {
			must(fmt.Errorf("--dir is required"))
		}
		if strings.TrimSpace(*output) != "" {
			cfg.OutputDir = filepath.Dir(*output)
			cfg.OutputFile = filepath.Base(*output)
		}
		if *excludeNoEmail {
			cfg.ExcludeNoEmail = true
		}
		if *earlyExit {
			cfg.EarlyExit = true
		}

		svc := pipeline.NewScanService(db, cfg, logger)
		summary, err := svc.ScanAndExport(ctx, *dir)
		must(err)
		fmt.Printf("run done runId=%s files=%d rows=%d emails=%d output=%s\n", summary.RunID, summary.Files, summary.Rows, summary.Emails, summary.Output)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.String("run", "", "run id (default: latest)")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) != "" {
			cfg.OutputDir = filepath.Dir(*out)
			cfg.OutputFile = filepath.Base(*out)
		}

		svc := pipeline.NewScanService(db, cfg, logger)
		output, n, err := svc.ExportRun(*runID)
		must(err)
		fmt.Printf("exported %d rows to %s\n", n, output)
	case "inspect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "process one document and print its rows without storing")
		runID := fs.String("run", "", "run id")
		limit := fs.Int("limit", 10, "runs to list")
		_ = fs.Parse(os.Args[2:])

		if strings.TrimSpace(*file) != "" {
			inputs, err := pipeline.CollectInputs(*file)
			must(err)
			extractor := pipeline.NewExtractor(cfg)
			for _, input := range inputs {
				for _, row := range extractor.ProcessSingle(input) {
					fmt.Printf("%s\t%s\t%s\n", row.FileName, row.Title, row.Email)
				}
			}
			return
		}

		if strings.TrimSpace(*runID) != "" {
			run, err := db.GetRun(*runID)
			must(err)
			if run == nil {
				must(fmt.Errorf("scan run not found: %s", *runID))
			}
			emails, err := db.DistinctEmails(run.RunID)
			must(err)
			fmt.Printf("run %s root=%s started=%s finished=%s files=%d rows=%d emails=%d\n",
				run.RunID, run.Root, run.StartedAt, derefOr(run.FinishedAt, "-"), run.Files, run.Rows, emails)
			return
		}

		runs, err := db.ListRuns(*limit)
		must(err)
		if len(runs) == 0 {
			fmt.Println("no scan runs stored yet")
			return
		}
		for _, run := range runs {
			fmt.Printf("%s  started=%s finished=%s files=%d rows=%d root=%s\n",
				run.RunID, run.StartedAt, derefOr(run.FinishedAt, "-"), run.Files, run.Rows, run.Root)
		}
	case "watch":
		svc := watcher.NewService(db, cfg, logger)
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func usage() {
	fmt.Println("usage: docmine <command>")
	fmt.Println("commands:")
	fmt.Println("  scan --dir=./papers [--export] [--exclude-no-email] [--early-exit] [--workers=64]")
	fmt.Println("  run --dir=./papers --output=./out/extracted_emails_titles.xlsx")
	fmt.Println("  export:xlsx [--run=<id>] [--out=./out/result.xlsx]")
	fmt.Println("  inspect [--file=<doc>] [--run=<id>] [--limit=10]")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
