package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"docmine/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS scan_runs (
  runId TEXT PRIMARY KEY,
  rootPath TEXT NOT NULL,
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  finishedAt TEXT,
  fileCount INTEGER NOT NULL DEFAULT 0,
  rowCount INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS scan_results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  position INTEGER NOT NULL,
  fileName TEXT NOT NULL,
  title TEXT NOT NULL,
  email TEXT NOT NULL,
  source TEXT NOT NULL,
  origin TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(runId, position),
  FOREIGN KEY(runId) REFERENCES scan_runs(runId)
);
CREATE INDEX IF NOT EXISTS idx_scan_results_runId ON scan_results(runId);
CREATE INDEX IF NOT EXISTS idx_scan_results_email ON scan_results(email);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(runID, rootPath string) error {
	_, err := d.conn.Exec(`INSERT INTO scan_runs (runId, rootPath) VALUES (?, ?)`, runID, rootPath)
	return err
}

func (d *DB) FinishRun(runID string, files, rows int) error {
	_, err := d.conn.Exec(`
UPDATE scan_runs SET finishedAt = CURRENT_TIMESTAMP, fileCount = ?, rowCount = ?
WHERE runId = ?
`, files, rows, runID)
	return err
}

func (d *DB) InsertResults(runID string, results []internal.ExtractionResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
INSERT INTO scan_results (runId, position, fileName, title, email, source, origin)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range results {
		if _, err := stmt.Exec(runID, i, row.FileName, row.Title, row.Email, string(row.Source), row.Origin); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListResultsByRun(runID string) ([]internal.ExtractionResult, error) {
	rows, err := d.conn.Query(`
SELECT fileName, title, email, source, origin
FROM scan_results WHERE runId = ? ORDER BY position ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ExtractionResult
	for rows.Next() {
		var row internal.ExtractionResult
		var source string
		var origin sql.NullString
		if err := rows.Scan(&row.FileName, &row.Title, &row.Email, &source, &origin); err != nil {
			return nil, err
		}
		row.Source = internal.InputSource(source)
		row.Origin = origin.String
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(runID string) (*internal.ScanRun, error) {
	var run internal.ScanRun
	err := d.conn.QueryRow(`
SELECT runId, rootPath, startedAt, finishedAt, fileCount, rowCount
FROM scan_runs WHERE runId = ?
`, runID).Scan(&run.RunID, &run.Root, &run.StartedAt, &run.FinishedAt, &run.Files, &run.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (d *DB) LatestRunID() (*string, error) {
	var runID string
	err := d.conn.QueryRow(`
SELECT runId FROM scan_runs ORDER BY startedAt DESC, rowid DESC LIMIT 1
`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &runID, nil
}

func (d *DB) ListRuns(limit int) ([]internal.ScanRun, error) {
	rows, err := d.conn.Query(`
SELECT runId, rootPath, startedAt, finishedAt, fileCount, rowCount
FROM scan_runs ORDER BY startedAt DESC, rowid DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.ScanRun
	for rows.Next() {
		var run internal.ScanRun
		if err := rows.Scan(&run.RunID, &run.Root, &run.StartedAt, &run.FinishedAt, &run.Files, &run.Rows); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// DistinctEmails counts the unique real addresses in a run. Rows for
// files that failed to open carry the failure message in the email
// column, so error-titled rows are excluded along with the placeholder
// and error values.
func (d *DB) DistinctEmails(runID string) (int, error) {
	var n int
	err := d.conn.QueryRow(`
SELECT COUNT(DISTINCT email) FROM scan_results
WHERE runId = ? AND title != ? AND email NOT IN (?, ?)
`, runID, internal.TitleError, internal.EmailNotFound, internal.EmailError).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
