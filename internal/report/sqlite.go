package report

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sha1n/docscan/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                 TEXT PRIMARY KEY,
	start_time         TEXT NOT NULL,
	end_time           TEXT NOT NULL,
	elapsed_seconds    REAL NOT NULL,
	files_scanned      INTEGER NOT NULL,
	pages_processed    INTEGER NOT NULL,
	files_with_matches INTEGER NOT NULL,
	total_matches      INTEGER NOT NULL,
	context_before     INTEGER NOT NULL,
	context_after      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS term_counts (
	job_id  TEXT NOT NULL REFERENCES jobs(id),
	ordinal INTEGER NOT NULL,
	term    TEXT NOT NULL,
	count   INTEGER NOT NULL,
	PRIMARY KEY (job_id, ordinal)
);
CREATE TABLE IF NOT EXISTS matches (
	job_id         TEXT NOT NULL REFERENCES jobs(id),
	seq            INTEGER NOT NULL,
	file_name      TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	page_number    INTEGER NOT NULL,
	term_name      TEXT NOT NULL,
	matched_text   TEXT NOT NULL,
	context_before TEXT NOT NULL,
	context_after  TEXT NOT NULL,
	position       INTEGER NOT NULL,
	PRIMARY KEY (job_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_matches_term ON matches(term_name);
CREATE INDEX IF NOT EXISTS idx_matches_file ON matches(file_path);
`

// WriteSQLite appends one job to the SQLite database at path, creating the
// schema on first use. The job is written in a single transaction.
func WriteSQLite(ctx context.Context, path, jobID string, rs domain.ResultSet, s domain.JobSummary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &OutputError{Path: path, Err: err}
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return &OutputError{Path: path, Err: fmt.Errorf("failed to acquire lock: %w", err)}
	}
	defer func() { _ = lock.Unlock() }()

	db, err := openSQLite(path)
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	defer db.Close()

	if err := insertJob(ctx, db, jobID, rs, s); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	return nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return db, nil
}

func insertJob(ctx context.Context, db *sql.DB, jobID string, rs domain.ResultSet, s domain.JobSummary) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO jobs
		(id, start_time, end_time, elapsed_seconds, files_scanned, pages_processed,
		 files_with_matches, total_matches, context_before, context_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		jobID, s.StartTime.Format(time.RFC3339Nano), s.EndTime.Format(time.RFC3339Nano), s.ElapsedSeconds,
		s.FilesScanned, s.PagesProcessed, s.FilesWithMatches, s.TotalMatches, s.ContextBefore, s.ContextAfter)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	for i, tc := range s.MatchCountsByTerm {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO term_counts (job_id, ordinal, term, count) VALUES (?, ?, ?, ?)`,
			jobID, i, tc.Term, tc.Count); err != nil {
			return fmt.Errorf("insert term count: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO matches
		(job_id, seq, file_name, file_path, page_number, term_name, matched_text,
		 context_before, context_after, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare match insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range rs.Matches {
		if _, err := stmt.ExecContext(ctx, jobID, i, m.FileName, m.FilePath, m.PageNumber, m.TermName,
			m.MatchedText, m.ContextBefore, m.ContextAfter, m.Position); err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
