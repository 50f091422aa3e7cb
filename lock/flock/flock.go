package flock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/BYEONGHWALEE-dev/cloud-service/lock"
)

const retryDelay = 50 * time.Millisecond

// compile-time interface check.
var _ lock.Locker = (*Lock)(nil)

// Lock provides mutual exclusion across goroutines and processes.
// flock(2) is per open file description, so a single Flock shared by
// goroutines would let them all in; sem serializes in-process holders
// before the file lock is taken.
// Lock files are long-lived and never deleted after use.
type Lock struct {
	sem chan struct{}
	fl  *flock.Flock
}

// New creates a new Lock for the given path.
func New(path string) *Lock {
	return &Lock{sem: make(chan struct{}, 1), fl: flock.New(path)}
}

// Lock acquires the lock. Blocks until it is available or ctx is done.
func (l *Lock) Lock(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("acquire lock %s: %w", l.fl.Path(), ctx.Err())
	}
	locked, err := l.fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		<-l.sem
		return fmt.Errorf("acquire flock %s: %w", l.fl.Path(), err)
	}
	if !locked {
		<-l.sem
		return fmt.Errorf("failed to acquire flock %s: context done", l.fl.Path())
	}
	return nil
}

// Unlock releases the flock and the in-process slot.
func (l *Lock) Unlock(_ context.Context) error {
	defer func() { <-l.sem }()
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release flock %s: %w", l.fl.Path(), err)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}
