package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// KnownJob is one fingerprint row.
type KnownJob struct {
	Fingerprint   string
	CompanyDomain string
	JobTitle      string
	LocationText  string
	JobURL        string
	FirstSeen     string
	LastSeen      string
	FirstRunID    string
	LastRunID     string
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// KnownFingerprints returns every stored fingerprint with its first_seen.
func KnownFingerprints(ctx context.Context, q queryer) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT fingerprint, first_seen FROM known_jobs;`)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var fp, first string
		if err := rows.Scan(&fp, &first); err != nil {
			return nil, err
		}
		out[fp] = first
	}
	return out, rows.Err()
}

// UpsertKnownJobs inserts new fingerprints and refreshes last_seen and
// last_run_id of existing ones, keeping first_seen. All rows are written in
// one transaction.
func UpsertKnownJobs(ctx context.Context, db *sql.DB, jobs []KnownJob) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO known_jobs(fingerprint, company_domain, job_title, location_text, job_url,
                       first_seen, last_seen, first_run_id, last_run_id)
VALUES(?,?,?,?,?,?,?,?,?)
ON CONFLICT(fingerprint) DO UPDATE SET
  last_seen = excluded.last_seen,
  last_run_id = excluded.last_run_id,
  job_url = excluded.job_url;
`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, j := range jobs {
		if _, err := stmt.ExecContext(ctx,
			j.Fingerprint, j.CompanyDomain, j.JobTitle, j.LocationText, j.JobURL,
			j.FirstSeen, j.LastSeen, j.FirstRunID, j.LastRunID,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", j.Fingerprint, err)
		}
	}
	return tx.Commit()
}

// GetKnownJob returns one row, or nil when the fingerprint is unknown.
func GetKnownJob(ctx context.Context, db *sql.DB, fingerprint string) (*KnownJob, error) {
	var j KnownJob
	err := db.QueryRowContext(ctx, `
SELECT fingerprint, company_domain, job_title, location_text, job_url,
       first_seen, last_seen, first_run_id, last_run_id
FROM known_jobs WHERE fingerprint = ? LIMIT 1;`, fingerprint).Scan(
		&j.Fingerprint, &j.CompanyDomain, &j.JobTitle, &j.LocationText, &j.JobURL,
		&j.FirstSeen, &j.LastSeen, &j.FirstRunID, &j.LastRunID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// RecordRun stores a finished diff run.
func RecordRun(ctx context.Context, db *sql.DB, runID string, finished time.Time, seen, added int) error {
	_, err := db.ExecContext(ctx, `
INSERT INTO runs(run_id, finished_at, jobs_seen, jobs_new)
VALUES(?,?,?,?)
ON CONFLICT(run_id) DO UPDATE SET
  finished_at = excluded.finished_at,
  jobs_seen = excluded.jobs_seen,
  jobs_new = excluded.jobs_new;
`, runID, finished.UTC().Format(time.RFC3339), seen, added)
	return err
}
