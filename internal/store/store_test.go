package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "known.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := openTemp(t)
	require.NoError(t, Migrate(db.Pool))

	var v int
	require.NoError(t, db.Pool.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, 1, v)
}

func TestUpsertKnownJobs_KeepsFirstSeen(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	first := KnownJob{
		Fingerprint: "fp1", CompanyDomain: "acme.fi", JobTitle: "dev",
		FirstSeen: "2024-01-01T00:00:00Z", LastSeen: "2024-01-01T00:00:00Z",
		FirstRunID: "run-1", LastRunID: "run-1", JobURL: "https://acme.fi/a",
	}
	require.NoError(t, UpsertKnownJobs(ctx, db.Pool, []KnownJob{first}))

	again := first
	again.FirstSeen, again.LastSeen = "2024-02-01T00:00:00Z", "2024-02-01T00:00:00Z"
	again.FirstRunID, again.LastRunID = "run-2", "run-2"
	again.JobURL = "https://acme.fi/b"
	require.NoError(t, UpsertKnownJobs(ctx, db.Pool, []KnownJob{again}))

	got, err := GetKnownJob(ctx, db.Pool, "fp1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2024-01-01T00:00:00Z", got.FirstSeen)
	assert.Equal(t, "2024-02-01T00:00:00Z", got.LastSeen)
	assert.Equal(t, "run-1", got.FirstRunID)
	assert.Equal(t, "run-2", got.LastRunID)
	assert.Equal(t, "https://acme.fi/b", got.JobURL)

	known, err := KnownFingerprints(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fp1": "2024-01-01T00:00:00Z"}, known)

	missing, err := GetKnownJob(ctx, db.Pool, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRecordRun(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	require.NoError(t, RecordRun(ctx, db.Pool, "r1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, 2))
	require.NoError(t, RecordRun(ctx, db.Pool, "r1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, 3))

	var added int
	require.NoError(t, db.Pool.QueryRow(`SELECT jobs_new FROM runs WHERE run_id = 'r1';`).Scan(&added))
	assert.Equal(t, 3, added)
}

func TestCompanyDomains(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()

	require.NoError(t, UpsertCompanyDomain(ctx, db.Pool, "123-4", " Acme.FI "))
	require.NoError(t, UpsertCompanyDomain(ctx, db.Pool, "", "ignored.fi"))
	require.NoError(t, UpsertCompanyDomain(ctx, db.Pool, "123-4", "acme.com"))

	d, err := GetCompanyDomain(ctx, db.Pool, "123-4")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", d)

	all, err := CompanyDomains(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"123-4": "acme.com"}, all)
}
