package ingest

import (
	"fmt"

	"github.com/gofrs/flock"
)

// TickLock is a filesystem-based mutex preventing two ticks from running
// against the same store concurrently (spec §5). It wraps a single
// advisory lock file; a second process racing for the same path fails
// AcquireTickLock immediately instead of blocking.
type TickLock struct {
	fl *flock.Flock
}

// AcquireTickLock takes an exclusive, non-blocking lock on path. The
// returned TickLock must be released with Release once the tick completes.
func AcquireTickLock(path string) (*TickLock, error) {
	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire tick lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("tick already running: lock held on %s", path)
	}
	return &TickLock{fl: fl}, nil
}

// Release unlocks the tick lock.
func (l *TickLock) Release() error {
	return l.fl.Unlock()
}
