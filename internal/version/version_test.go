package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	oldV, oldSHA, oldT := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = oldV, oldSHA, oldT })

	Version, GitSHA, BuildTime = "v0.3.0", "abc1234", "2026-01-02T03:04:05Z"
	assert.Equal(t, "racesim v0.3.0 (abc1234, built 2026-01-02T03:04:05Z)", String("racesim"))
}
