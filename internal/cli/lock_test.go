package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Output Lock:
// - the first lock on a directory succeeds
// - a second lock on the same directory fails with ErrOutputLocked
// - the directory can be locked again after release

func TestOutputLock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := NewOutputLock(dir)
	require.NoError(t, first.Acquire())

	second := NewOutputLock(dir)
	err := second.Acquire()
	assert.ErrorIs(t, err, ErrOutputLocked)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire())
	assert.NoError(t, second.Release())
}
