// Package diff classifies crawled postings as new or already known across
// runs, using a content fingerprint kept in a sqlite store.
package diff

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"hiringscan-engine/internal/domain"
	"hiringscan-engine/internal/scrape/util"
	"hiringscan-engine/internal/store"
)

const lockRetryDelay = 100 * time.Millisecond

// Annotated is a posting with its diff classification.
type Annotated struct {
	domain.JobPosting
	Fingerprint string `json:"fingerprint"`
	IsNew       bool   `json:"is_new"`
	FirstSeen   string `json:"first_seen"`
}

// AnnotatedColumns extends domain.PostingColumns with the diff columns.
var AnnotatedColumns = append(append([]string{}, domain.PostingColumns...), "fingerprint", "is_new", "first_seen")

func (a Annotated) Row() []string {
	return append(a.JobPosting.Row(), a.Fingerprint, strconv.FormatBool(a.IsNew), a.FirstSeen)
}

// Fingerprint identifies a posting by employer, title and location. The URL
// is excluded so a moved posting is not reported again. Distinct openings
// with the same title and location at one employer share a fingerprint.
func Fingerprint(companyDomain, title, location string) string {
	key := util.NormalizeDomain(companyDomain) + "|" + norm(title) + "|" + norm(location)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func norm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ApplyDiff loads the store at storePath, marks each posting new or known and
// records every fingerprint as seen by runID (a fresh uuid when empty). A
// fingerprint repeated within jobs is new at most once. The store is guarded
// by an exclusive lock file next to it for the whole call.
func ApplyDiff(ctx context.Context, jobs []domain.JobPosting, storePath, runID string, now time.Time) ([]Annotated, []domain.JobPosting, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	ts := now.UTC().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(storePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create store dir: %w", err)
	}
	lock := flock.New(storePath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, nil, fmt.Errorf("lock %s: %w", storePath, err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("lock %s: not acquired", storePath)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := store.Open(storePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	known, err := store.KnownFingerprints(ctx, db.Pool)
	if err != nil {
		return nil, nil, err
	}

	annotated := make([]Annotated, 0, len(jobs))
	newJobs := []domain.JobPosting{}
	rows := make([]store.KnownJob, 0, len(jobs))
	seenThisRun := map[string]bool{}

	for _, j := range jobs {
		loc := domain.Deref(j.LocationText)
		fp := Fingerprint(j.CompanyDomain, j.JobTitle, loc)

		first, wasKnown := known[fp]
		isNew := !wasKnown && !seenThisRun[fp]
		if !wasKnown {
			first = ts
		}
		seenThisRun[fp] = true

		annotated = append(annotated, Annotated{JobPosting: j, Fingerprint: fp, IsNew: isNew, FirstSeen: first})
		if isNew {
			newJobs = append(newJobs, j)
		}
		if isNew || wasKnown {
			rows = append(rows, store.KnownJob{
				Fingerprint:   fp,
				CompanyDomain: util.NormalizeDomain(j.CompanyDomain),
				JobTitle:      norm(j.JobTitle),
				LocationText:  norm(loc),
				JobURL:        j.JobURL,
				FirstSeen:     first,
				LastSeen:      ts,
				FirstRunID:    runID,
				LastRunID:     runID,
			})
		}
	}

	if err := store.UpsertKnownJobs(ctx, db.Pool, rows); err != nil {
		return nil, nil, err
	}
	if err := store.RecordRun(ctx, db.Pool, runID, now, len(jobs), len(newJobs)); err != nil {
		return nil, nil, fmt.Errorf("record run: %w", err)
	}
	return annotated, newJobs, nil
}
