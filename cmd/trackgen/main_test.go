package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagDefaults(t *testing.T) {
	require.NotNil(t, seed)
	assert.Equal(t, uint64(1), *seed)
	assert.Equal(t, "", *dbPath)
	assert.False(t, *list)
}

func TestRunStoresAndPlots(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "tracks.db")
	png := filepath.Join(dir, "out", "track.png")

	var out bytes.Buffer
	err := run(context.Background(), options{seed: 7, dbPath: db, plotPath: png}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "seed 7:")
	assert.Contains(t, out.String(), "stored as ")
	assert.FileExists(t, png)

	out.Reset()
	require.NoError(t, run(context.Background(), options{list: true, dbPath: db}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "schema version 2 (dirty=false)", lines[0])
	assert.Contains(t, lines[1], "seed=7")
}

func TestRunDeleteStoredTrack(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tracks.db")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, options{seed: 3, dbPath: db}, &out))
	_, id, found := strings.Cut(strings.TrimSpace(out.String()), "stored as ")
	require.True(t, found)

	out.Reset()
	require.NoError(t, run(ctx, options{deleteID: id, list: true, dbPath: db}, &out))
	assert.Contains(t, out.String(), "deleted "+id)
	assert.NotContains(t, out.String(), "seed=3")

	err := run(ctx, options{deleteID: id, dbPath: db}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunRollback(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tracks.db")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), options{rollback: true, dbPath: db}, &out))
	assert.Equal(t, "schema rolled back to version 1\n", out.String())
}

func TestMaintenanceRequiresDB(t *testing.T) {
	for _, opts := range []options{{list: true}, {deleteID: "x"}, {rollback: true}} {
		assert.Error(t, run(context.Background(), opts, &bytes.Buffer{}))
	}
}

func TestRunBadConfigPath(t *testing.T) {
	err := run(context.Background(), options{configPath: filepath.Join(t.TempDir(), "missing.json")}, &bytes.Buffer{})
	assert.Error(t, err)
}
