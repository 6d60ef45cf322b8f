package trackstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/circuit/internal/testutil"
	"github.com/banshee-data/circuit/internal/timeutil"
	"github.com/banshee-data/circuit/internal/track"
)

func openTestStore(t *testing.T, clock timeutil.Clock) *Store {
	t.Helper()
	s, err := OpenWithClock(filepath.Join(t.TempDir(), "tracks.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func generated(t *testing.T, seed uint64) (*track.Track, int) {
	t.Helper()
	gen := track.NewGenerator(track.DefaultConfig(), testutil.NewRand(seed))
	tr, attempts, err := gen.GenerateWithRetry()
	require.NoError(t, err)
	return tr, attempts
}

func TestOpen_MigratesToLatest(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, timeutil.RealClock{})

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-running is a no-op.
	require.NoError(t, s.MigrateUp())

	require.NoError(t, s.MigrateDown())
	version, _, err = s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := openTestStore(t, timeutil.NewMockClock(created))
	ctx := context.Background()

	tr, attempts := generated(t, 99)
	id, err := s.Save(ctx, tr, 99, attempts)
	require.NoError(t, err)
	assert.Len(t, id, 36)

	rec, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, uint64(99), rec.Seed)
	assert.Equal(t, attempts, rec.Attempts)
	assert.True(t, created.Equal(rec.CreatedAt))

	if diff := cmp.Diff(tr, rec.Track, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("track mismatch (-saved +loaded):\n%s", diff)
	}
	assert.InDelta(t, tr.Length(), rec.Track.Length(), 1e-9)
}

func TestSave_LargeSeed(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, timeutil.RealClock{})
	ctx := context.Background()

	tr, attempts := generated(t, 3)
	seed := uint64(1<<63 + 17)
	id, err := s.Save(ctx, tr, seed, attempts)
	require.NoError(t, err)

	rec, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, seed, rec.Seed)
}

func TestSave_EmptyTrack(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, timeutil.RealClock{})
	_, err := s.Save(context.Background(), &track.Track{}, 1, 1)
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := openTestStore(t, clock)
	ctx := context.Background()

	tr, attempts := generated(t, 1)
	older, err := s.Save(ctx, tr, 1, attempts)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	newer, err := s.Save(ctx, tr, 2, attempts)
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)
	assert.Equal(t, older, list[1].ID)
	assert.Equal(t, tr.Len(), list[0].Samples)
	assert.Equal(t, uint64(2), list[0].Seed)

	require.NoError(t, s.Delete(ctx, older))
	_, err = s.Load(ctx, older)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, older), ErrNotFound))

	var samples int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM track_samples WHERE track_id = ?`, older).Scan(&samples))
	assert.Zero(t, samples)
}
