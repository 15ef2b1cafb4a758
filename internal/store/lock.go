package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrBatchRunning is returned when another process holds the batch lock.
var ErrBatchRunning = errors.New("another bulk run is in progress")

// BatchLock is an exclusive file lock held for the duration of a bulk run.
type BatchLock struct {
	fl *flock.Flock
}

// AcquireBatchLock takes the lock at path without blocking.
func AcquireBatchLock(path string) (*BatchLock, error) {
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !ok {
		return nil, ErrBatchRunning
	}
	return &BatchLock{fl: fl}, nil
}

// Release unlocks the lock file.
func (l *BatchLock) Release() error {
	return l.fl.Unlock()
}
