package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinkedValuesWin(t *testing.T) {
	oldV, oldC, oldT := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldT })

	Version = "v1.2.3"
	GitCommit = "0123456789abcdef"
	BuildTime = "2026-10-17T12:00:00Z"

	info := GetBuildInfo()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Equal(t, "v1.2.3 (0123456)", GetShortVersion())
	assert.True(t, IsRelease())
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.False(t, parseTime("2026-10-17 08:30:00").IsZero())
}
