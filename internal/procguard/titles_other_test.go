//go:build !windows

package procguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotateTitlesMarksTreeRoot(t *testing.T) {
	procs := []Process{
		{PID: 1, PPID: 0, Name: "systemd"},
		{PID: 100, PPID: 1, Name: "spotify"},
		{PID: 101, PPID: 100, Name: "spotify"},
		{PID: 102, PPID: 100, Name: "spotify"},
	}

	require.NoError(t, annotateTitles(procs))

	assert.Equal(t, "spotify", procs[1].Title)
	assert.Empty(t, procs[2].Title)
	assert.Empty(t, procs[3].Title)

	out := New("spotify", "", WithLister(fakeLister{procs: procs}), WithKill(func(int) error { return nil })).Stop()
	assert.Equal(t, 100, out.PID)
}
