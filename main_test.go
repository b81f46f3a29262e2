package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miosa/osa-memos/config"
	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/store"
)

func TestFlags_Override(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	f := flags{kind: config.SourceRemote, url: "http://memos:9000", tag: "go", theme: "light"}

	cfg, err := f.load()
	require.NoError(t, err)
	assert.Equal(t, config.SourceRemote, cfg.Source.Kind)
	assert.Equal(t, "http://memos:9000", cfg.Source.URL)
	assert.Equal(t, "go", cfg.Source.Tag)
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, "info", cfg.Log.Level, "unset flags keep config values")
}

func TestImportThenServeLoad(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2024.md"),
		[]byte("---\ntitle: 2024\ndate: 2024-01-02\n---\n## first\nhello #go\n## second\nworld\n"), 0o644))

	f := flags{dir: dir, db: filepath.Join(t.TempDir(), "memos.db"), logLevel: "error"}
	cfg, err := f.load()
	require.NoError(t, err)

	n, err := runImport(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	st, err := store.Open(cfg.Source.DB)
	require.NoError(t, err)
	count, err := st.Count(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	assert.Equal(t, 2, count)

	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	for _, kind := range []string{config.SourceFiles, config.SourceSQLite} {
		cfg.Source.Kind = kind
		all, err := loadAll(context.Background(), cfg, log)
		require.NoError(t, err, kind)
		assert.Len(t, all, 2, kind)
	}

	cfg.Source.Kind = config.SourceRemote
	_, err = loadAll(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "cannot be served")
}

func TestRunInit(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "memos", "config.yaml")

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Source.Tag = "go"

	got, err := runInit(path, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "go", loaded.Source.Tag)

	_, err = runInit(path, cfg, false)
	assert.ErrorContains(t, err, "already exists")
	_, err = runInit(path, cfg, true)
	assert.NoError(t, err)
}
