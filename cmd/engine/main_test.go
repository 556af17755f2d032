package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")

	out, err := run(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	_, err = run(t, "config", "init", path)
	assert.Error(t, err)
	_, err = run(t, "config", "init", "--force", path)
	assert.NoError(t, err)

	out, err = run(t, "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	bad := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("crawl:\n  max_workers: 0\n"), 0o644))
	out, err = run(t, "config", "validate", bad)
	assert.Error(t, err)
	assert.Contains(t, out, "max_workers")
}

func TestCrawlRequiresCompanies(t *testing.T) {
	t.Setenv(dataDirEnv, t.TempDir())
	_, err := run(t, "crawl")
	assert.Error(t, err)
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(dataDirEnv, dir)

	jobs := filepath.Join(dir, "jobs.jsonl")
	require.NoError(t, os.WriteFile(jobs, []byte(
		`{"company_domain":"acme.fi","job_title":"Dev","job_url":"https://acme.fi/1","location_text":"Oulu"}`+"\n"), 0o644))
	outDir := filepath.Join(dir, "out")

	_, err := run(t, "diff", "--jobs", jobs, "--out", outDir, "--run-id", "r1")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "diff.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "config.yml"))
	assert.FileExists(t, filepath.Join(dir, "data", "known_jobs.db"))
}
