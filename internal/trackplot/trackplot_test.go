package trackplot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/circuit/internal/testutil"
	"github.com/banshee-data/circuit/internal/track"
)

func TestRender_WritesImage(t *testing.T) {
	t.Parallel()
	gen := track.NewGenerator(track.DefaultConfig(), testutil.NewRand(8))
	tr, _, err := gen.GenerateWithRetry()
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "plots", "track.png")
	err = Render(tr, []r2.Vec{tr.Point(0), tr.Point(40)}, out, Options{Title: "seed 8"})
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(1000))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func TestRender_RejectsEmptyTrack(t *testing.T) {
	t.Parallel()
	err := Render(&track.Track{}, nil, filepath.Join(t.TempDir(), "x.png"), Options{})
	assert.Error(t, err)
}
