package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiringscan-engine/internal/tag"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawl:
  max_workers: 8
  use_sitemap: true
tags:
  - tag: rust
    any: ["rust", "cargo"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Crawl.MaxWorkers)
	assert.True(t, cfg.Crawl.UseSitemap)
	assert.Equal(t, 1.0, cfg.Crawl.RequestsPerSecond)
	assert.Equal(t, 5, cfg.Crawl.MaxPagesPerDomain)
	assert.True(t, cfg.Crawl.RespectRobots)
	assert.Equal(t, 20*time.Second, cfg.Crawl.RequestTimeout())
	assert.Equal(t, 2*time.Second, cfg.Crawl.RetryBackoff())
	assert.Equal(t, tag.Rules{{Tag: "rust", Any: []string{"rust", "cargo"}}}, cfg.TagRules())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestDefault_IsValid(t *testing.T) {
	_, res := NormalizeAndValidate(Default())
	assert.True(t, res.OK(), res.Errors)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, tag.DefaultRules(), Default().TagRules())
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Crawl.MaxWorkers = 0
	cfg.Crawl.RequestsPerSecond = 0
	cfg.Log.Level = " LOUD "
	cfg.Tags = tag.Rules{
		{Tag: " data ", Any: []string{"sql", "  ", "bi "}},
		{Tag: "", Any: nil},
	}

	out, res := NormalizeAndValidate(cfg)
	assert.False(t, res.OK())
	assert.Contains(t, res.Errors, "crawl.max_workers must be >= 1")
	assert.Contains(t, res.Errors, `log.level must be one of debug, info, warn, error (got "loud")`)
	assert.Contains(t, res.Errors, "tags[1].tag is required")
	assert.Contains(t, res.Errors, "tags[1].any must have at least 1 term")
	assert.Len(t, res.Warnings, 1)

	assert.Equal(t, "data", out.Tags[0].Tag)
	assert.Equal(t, []string{"sql", "bi "}, out.Tags[0].Any)
}

func TestSaveAtomicAndEnsureUserConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg.Crawl.MaxWorkers = 2
	require.NoError(t, SaveAtomic(path, cfg))
	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)

	again, err := EnsureUserConfig(dir, "")
	require.NoError(t, err)
	reloaded, err := Load(again)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Crawl.MaxWorkers)

	bad := Default()
	bad.Store.Path = ""
	assert.Error(t, SaveAtomic(path, bad))
}

func TestOverlayTags(t *testing.T) {
	cfg := Default()
	require.NoError(t, OverlayTags(&cfg, filepath.Join(t.TempDir(), "missing.yml")))
	assert.Nil(t, cfg.Tags)

	path := filepath.Join(t.TempDir(), "tags.yml")
	require.NoError(t, os.WriteFile(path, []byte("tags:\n  - tag: go\n    any: [golang]\n"), 0o644))
	require.NoError(t, OverlayTags(&cfg, path))
	assert.Equal(t, tag.Rules{{Tag: "go", Any: []string{"golang"}}}, cfg.Tags)
}
