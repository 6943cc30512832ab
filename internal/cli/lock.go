package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrOutputLocked reports another run writing to the same output directory.
var ErrOutputLocked = errors.New("output directory is in use by another run")

const lockFileName = ".planning-extractor.lock"

// OutputLock keeps two runs from writing into one output directory.
type OutputLock struct {
	dir  string
	lock *flock.Flock
}

// NewOutputLock creates the lock for dir. The directory must exist.
func NewOutputLock(dir string) *OutputLock {
	return &OutputLock{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFileName)),
	}
}

// Acquire takes the lock without waiting. It returns ErrOutputLocked when
// another process holds it.
func (l *OutputLock) Acquire() error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrOutputLocked, l.dir)
	}
	return nil
}

// Release unlocks the directory. The lock file is left behind.
func (l *OutputLock) Release() error {
	return l.lock.Unlock()
}
